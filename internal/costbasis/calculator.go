// Package costbasis reconstructs average-cost positions from deposit and
// withdrawal event history.
package costbasis

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/smoothiefi/smoothie/internal/domain"
)

// Compute derives the average-cost basis for one pool-asset key from its full
// deposit and withdrawal history. Returns false when the ledger is empty —
// no record is emitted for a key with no tracked events.
//
// Deposits dated today are repriced at todayPrice: historical prices are
// daily-granularity, so a same-day deposit would otherwise carry a stale
// price and show spurious same-day P&L. Withdrawals reduce the basis at the
// weighted average deposit price, not the price at withdrawal; realizing
// gains at withdrawal time is the performance aggregator's job.
func Compute(key domain.PoolAssetKey, ledger domain.EventLedger, todayPrice float64, today time.Time, loc *time.Location) (domain.CostBasisRecord, bool) {
	if ledger.IsEmpty() {
		return domain.CostBasisRecord{}, false
	}

	var totalDepositedUsd float64
	totalDepositedTokens := decimal.Zero
	for _, d := range ledger.Deposits {
		usd := d.UsdValue
		if domain.SameDay(d.Date, today, loc) {
			usd = domain.TokensUsd(d.Tokens, todayPrice)
		}
		totalDepositedUsd += usd
		totalDepositedTokens = totalDepositedTokens.Add(d.Tokens)
	}

	totalWithdrawnTokens := lo.Reduce(ledger.Withdrawals,
		func(acc decimal.Decimal, w domain.LedgerEvent, _ int) decimal.Decimal {
			return acc.Add(w.Tokens)
		}, decimal.Zero)

	// Positions funded outside tracked deposits (airdrop, migration) have no
	// deposit history; price them at today's price instead of dividing by zero.
	avgDepositPrice := todayPrice
	if totalDepositedTokens.IsPositive() {
		avgDepositPrice = totalDepositedUsd / mustFloat(totalDepositedTokens)
	}

	// Net tokens may go negative when the upstream ledger missed a deposit.
	// Not clamped: callers treat it as a data-quality signal.
	net := totalDepositedTokens.Sub(totalWithdrawnTokens)

	return domain.CostBasisRecord{
		Key:                     key,
		CostBasisHistorical:     totalDepositedUsd - domain.TokensUsd(totalWithdrawnTokens, avgDepositPrice),
		WeightedAvgDepositPrice: avgDepositPrice,
		NetDepositedTokens:      net,
	}, true
}

// ComputeAll runs Compute over every key in the merged ledger map, dropping
// keys whose ledgers are empty.
func ComputeAll(ledgers map[domain.PoolAssetKey]domain.EventLedger, prices map[domain.PoolAssetKey]float64, today time.Time, loc *time.Location) map[domain.PoolAssetKey]domain.CostBasisRecord {
	records := make(map[domain.PoolAssetKey]domain.CostBasisRecord, len(ledgers))
	for key, ledger := range ledgers {
		if rec, ok := Compute(key, ledger, prices[key], today, loc); ok {
			records[key] = rec
		}
	}
	return records
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
