// Package snapshot persists daily per-wallet position snapshots, the data
// behind historical balance charts and period-anchored yield windows.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/smoothiefi/smoothie/internal/domain"
)

// PositionSnapshot is one wallet's balance at one pool-asset key on one day.
type PositionSnapshot struct {
	Wallet   string              `json:"wallet"`
	Key      domain.PoolAssetKey `json:"key"`
	Date     time.Time           `json:"date"`
	Tokens   decimal.Decimal     `json:"tokens"`
	UsdPrice float64             `json:"usdPrice"`
}

// Repository defines persistent storage for position snapshots and the
// followed-wallet registry.
type Repository interface {
	Save(ctx context.Context, snaps []PositionSnapshot) error
	History(ctx context.Context, wallets []string, key domain.PoolAssetKey, from, to time.Time) ([]domain.BalancePoint, error)
	Follow(ctx context.Context, wallet string) error
	Unfollow(ctx context.Context, wallet string) error
	ListFollowed(ctx context.Context) ([]string, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Save(ctx context.Context, snaps []PositionSnapshot) error {
	batch := &pgx.Batch{}
	for _, s := range snaps {
		batch.Queue(
			`INSERT INTO position_snapshots (wallet, pool_id, asset_address, snapshot_date, tokens, usd_price)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (wallet, pool_id, asset_address, snapshot_date)
			 DO UPDATE SET tokens = $5, usd_price = $6`,
			s.Wallet, s.Key.PoolID, s.Key.AssetAddress, s.Date, s.Tokens, s.UsdPrice)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range snaps {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("saving position snapshot: %w", err)
		}
	}
	return nil
}

// History returns the summed daily balance across wallets for one key,
// oldest first. The per-day price is the deposit-weighted average, which for
// a single asset on a single day degenerates to that day's price.
func (r *PgRepository) History(ctx context.Context, wallets []string, key domain.PoolAssetKey, from, to time.Time) ([]domain.BalancePoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT snapshot_date, SUM(tokens), AVG(usd_price)
		 FROM position_snapshots
		 WHERE wallet = ANY($1) AND pool_id = $2 AND asset_address = $3
		   AND snapshot_date BETWEEN $4 AND $5
		 GROUP BY snapshot_date
		 ORDER BY snapshot_date`,
		wallets, key.PoolID, key.AssetAddress, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot history for %s: %w", key, err)
	}
	defer rows.Close()

	var points []domain.BalancePoint
	for rows.Next() {
		var p domain.BalancePoint
		if err := rows.Scan(&p.Date, &p.Tokens, &p.Price); err != nil {
			return nil, fmt.Errorf("scanning snapshot history: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot history: %w", err)
	}
	return points, nil
}

func (r *PgRepository) Follow(ctx context.Context, wallet string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO followed_wallets (wallet) VALUES ($1) ON CONFLICT (wallet) DO NOTHING`,
		wallet)
	if err != nil {
		return fmt.Errorf("following wallet %s: %w", wallet, err)
	}
	return nil
}

func (r *PgRepository) Unfollow(ctx context.Context, wallet string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM followed_wallets WHERE wallet = $1`, wallet)
	if err != nil {
		return fmt.Errorf("unfollowing wallet %s: %w", wallet, err)
	}
	return nil
}

func (r *PgRepository) ListFollowed(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT wallet FROM followed_wallets ORDER BY wallet`)
	if err != nil {
		return nil, fmt.Errorf("listing followed wallets: %w", err)
	}
	defer rows.Close()

	var wallets []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scanning followed wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}
