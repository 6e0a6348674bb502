package events

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/smoothiefi/smoothie/internal/apy"
	"github.com/smoothiefi/smoothie/internal/costbasis"
	"github.com/smoothiefi/smoothie/internal/domain"
)

// PgRepository implements Repository with PostgreSQL.
// lpTokenAddress is the backstop LP token contract address; backstop event
// prices are resolved against its daily price series.
type PgRepository struct {
	pool           *pgxpool.Pool
	lpTokenAddress string
}

// NewPgRepository creates a new PostgreSQL event store repository.
func NewPgRepository(pool *pgxpool.Pool, lpTokenAddress string) *PgRepository {
	return &PgRepository{pool: pool, lpTokenAddress: lpTokenAddress}
}

func (r *PgRepository) DepositEvents(ctx context.Context, wallet string, keys []domain.PoolAssetKey, fallbackPrices map[domain.PoolAssetKey]float64, loc *time.Location) (costbasis.WalletLedgers, error) {
	ledgers := make(costbasis.WalletLedgers, len(keys))

	for _, key := range keys {
		resolver, err := r.loadResolver(ctx, r.priceAsset(key), fallbackPrices[key], loc)
		if err != nil {
			return nil, err
		}

		ledger, err := r.loadLedger(ctx, wallet, key, resolver, loc)
		if err != nil {
			return nil, err
		}
		if !ledger.IsEmpty() {
			ledgers[key] = ledger
		}
	}

	return ledgers, nil
}

// priceAsset maps a key to the asset whose daily price series prices its events.
func (r *PgRepository) priceAsset(key domain.PoolAssetKey) string {
	if key.IsBackstop() {
		return r.lpTokenAddress
	}
	return key.AssetAddress
}

func (r *PgRepository) loadResolver(ctx context.Context, assetAddress string, fallback float64, loc *time.Location) (*priceResolver, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT price_date, usd_price
		 FROM daily_prices
		 WHERE asset_address = $1
		 ORDER BY price_date`, assetAddress)
	if err != nil {
		return nil, fmt.Errorf("querying daily prices for %s: %w", assetAddress, err)
	}
	defer rows.Close()

	var points []pricePoint
	for rows.Next() {
		var date time.Time
		var price float64
		if err := rows.Scan(&date, &price); err != nil {
			return nil, fmt.Errorf("scanning daily price: %w", err)
		}
		points = append(points, pricePoint{date: domain.Day(date, loc), price: price})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating daily prices: %w", err)
	}

	return newPriceResolver(points, fallback), nil
}

func (r *PgRepository) loadLedger(ctx context.Context, wallet string, key domain.PoolAssetKey, resolver *priceResolver, loc *time.Location) (domain.EventLedger, error) {
	source := domain.SourcePool
	if key.IsBackstop() {
		source = domain.SourceBackstop
	}

	rows, err := r.pool.Query(ctx,
		`SELECT event_time, tokens, action_type
		 FROM blend_events
		 WHERE wallet = $1 AND pool_id = $2 AND asset_address = $3 AND source = $4
		   AND action_type IN ('deposit', 'withdraw')
		 ORDER BY event_time`,
		wallet, key.PoolID, key.AssetAddress, string(source))
	if err != nil {
		return domain.EventLedger{}, fmt.Errorf("querying events for %s: %w", key, err)
	}
	defer rows.Close()

	var ledger domain.EventLedger
	for rows.Next() {
		var eventTime time.Time
		var tokens decimal.Decimal
		var actionType string
		if err := rows.Scan(&eventTime, &tokens, &actionType); err != nil {
			return domain.EventLedger{}, fmt.Errorf("scanning event: %w", err)
		}

		day := domain.Day(eventTime, loc)
		price, resolution := resolver.resolve(day)
		ev := domain.LedgerEvent{
			Date:         day,
			Tokens:       tokens,
			PriceAtEvent: price,
			UsdValue:     domain.TokensUsd(tokens, price),
			PriceSource:  resolution,
		}

		if actionType == string(domain.ActionDeposit) {
			ledger.Deposits = append(ledger.Deposits, ev)
		} else {
			ledger.Withdrawals = append(ledger.Withdrawals, ev)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.EventLedger{}, fmt.Errorf("iterating events for %s: %w", key, err)
	}

	return ledger, nil
}

func (r *PgRepository) UserActions(ctx context.Context, wallets []string, filter ActionFilter) ([]domain.Transaction, error) {
	query := `SELECT wallet, event_time, action_type, source, pool_id, asset_address,
	                 COALESCE(claim_token, ''), tokens, usd_value
	          FROM blend_events
	          WHERE wallet = ANY($1)`
	args := []any{wallets}

	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND event_time >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND event_time <= $%d", len(args))
	}
	if filter.Source != "" {
		args = append(args, string(filter.Source))
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if filter.PoolID != "" {
		args = append(args, filter.PoolID)
		query += fmt.Sprintf(" AND pool_id = $%d", len(args))
	}
	query += " ORDER BY event_time"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying user actions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var actionType, source, claimToken string
		if err := rows.Scan(&tx.Wallet, &tx.Date, &actionType, &source, &tx.PoolID,
			&tx.AssetAddress, &claimToken, &tx.Tokens, &tx.UsdValue); err != nil {
			return nil, fmt.Errorf("scanning user action: %w", err)
		}
		tx.Type = domain.ActionType(actionType)
		tx.Source = domain.PositionSource(source)
		tx.ClaimToken = domain.ClaimToken(claimToken)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user actions: %w", err)
	}
	return txs, nil
}

func (r *PgRepository) DailyRates(ctx context.Context, poolID, assetAddress string, days int) ([]apy.Sample, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT rate_date, b_rate, rate_timestamp
		 FROM daily_rates
		 WHERE pool_id = $1 AND asset_address = $2
		   AND rate_date >= CURRENT_DATE - $3::int
		 ORDER BY rate_date`, poolID, assetAddress, days)
	if err != nil {
		return nil, fmt.Errorf("querying daily rates for %s/%s: %w", poolID, assetAddress, err)
	}
	samples, err := scanSamples(rows)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("daily rates for %s/%s: %w", poolID, assetAddress, ErrNotFound)
	}
	return samples, nil
}

func (r *PgRepository) BackstopDailyRates(ctx context.Context, poolID string, days int) ([]apy.Sample, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT rate_date, share_rate, rate_timestamp
		 FROM backstop_daily_rates
		 WHERE pool_id = $1 AND rate_date >= CURRENT_DATE - $2::int
		 ORDER BY rate_date`, poolID, days)
	if err != nil {
		return nil, fmt.Errorf("querying backstop daily rates for %s: %w", poolID, err)
	}
	samples, err := scanSamples(rows)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("backstop daily rates for %s: %w", poolID, ErrNotFound)
	}
	return samples, nil
}

func scanSamples(rows pgx.Rows) ([]apy.Sample, error) {
	defer rows.Close()

	var samples []apy.Sample
	for rows.Next() {
		var date time.Time
		var rate decimal.Decimal
		var rateTs *time.Time
		if err := rows.Scan(&date, &rate, &rateTs); err != nil {
			return nil, fmt.Errorf("scanning rate sample: %w", err)
		}
		// A null rate timestamp marks a forward-filled row.
		samples = append(samples, apy.Sample{Date: date, Rate: rate, HasRealData: rateTs != nil})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rate samples: %w", err)
	}
	return samples, nil
}
