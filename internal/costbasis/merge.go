package costbasis

import (
	"sort"

	"github.com/samber/lo"

	"github.com/smoothiefi/smoothie/internal/domain"
)

// WalletLedgers maps pool-asset keys to a single wallet's event history.
type WalletLedgers map[domain.PoolAssetKey]domain.EventLedger

// Merge combines several wallets' event histories into one ledger per key.
//
// activeWallets optionally restricts which wallets still hold each key: when
// a key maps to a non-empty wallet list that excludes a wallet, that wallet's
// entire history for the key is dropped. Its position is fully closed, and
// blending its old deposits in would inflate a cost basis nobody holds.
// Average cost is path-dependent on which events are included, so this must
// run before Compute, never after.
func Merge(perWallet map[string]WalletLedgers, activeWallets map[domain.PoolAssetKey][]string) map[domain.PoolAssetKey]domain.EventLedger {
	merged := make(map[domain.PoolAssetKey]domain.EventLedger)

	for wallet, ledgers := range perWallet {
		for key, ledger := range ledgers {
			if excluded(wallet, key, activeWallets) {
				continue
			}
			m := merged[key]
			m.Deposits = append(m.Deposits, ledger.Deposits...)
			m.Withdrawals = append(m.Withdrawals, ledger.Withdrawals...)
			merged[key] = m
		}
	}

	// Map iteration order is random; keep chart consumers deterministic.
	for key, ledger := range merged {
		sortByDate(ledger.Deposits)
		sortByDate(ledger.Withdrawals)
		merged[key] = ledger
	}

	return merged
}

func excluded(wallet string, key domain.PoolAssetKey, activeWallets map[domain.PoolAssetKey][]string) bool {
	if activeWallets == nil {
		return false
	}
	active, ok := activeWallets[key]
	if !ok || len(active) == 0 {
		return false
	}
	return !lo.Contains(active, wallet)
}

func sortByDate(events []domain.LedgerEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
}
