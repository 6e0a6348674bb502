package yield

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/smoothiefi/smoothie/internal/domain"
)

// PeriodAnchor is the position state at a period's start: the token balance
// and unit price as of the most recent snapshot on or before that day.
// A zero anchor means the position is new within the window, and the whole
// current value counts as yield.
type PeriodAnchor struct {
	Tokens decimal.Decimal
	Price  float64
}

// AnchorAt locates the period anchor in a snapshot history: the latest point
// dated on or before start. Returns a zero anchor when no such point exists.
// Comparison is by calendar day: snapshot dates scan as UTC midnight while
// the start may be midnight in the request timezone, and an instant compare
// would misorder the two east of UTC.
func AnchorAt(history []domain.BalancePoint, start time.Time) PeriodAnchor {
	startDay := domain.FormatDay(start)

	var anchor PeriodAnchor
	var anchorDay string
	for _, p := range history {
		day := domain.FormatDay(p.Date)
		if day > startDay {
			continue
		}
		if anchorDay == "" || day > anchorDay {
			anchor = PeriodAnchor{Tokens: p.Tokens, Price: p.Price}
			anchorDay = day
		}
	}
	return anchor
}

// PeriodBreakdown applies the same decomposition as Breakdown but anchored
// at an arbitrary period start instead of full history: the anchor balance
// and price stand in for net deposited tokens and the average deposit price.
func PeriodBreakdown(currentTokens decimal.Decimal, currentPrice float64, anchor PeriodAnchor) domain.YieldBreakdown {
	startValueUsd := domain.TokensUsd(anchor.Tokens, anchor.Price)

	return Breakdown(currentTokens, currentPrice, domain.CostBasisRecord{
		CostBasisHistorical:     startValueUsd,
		WeightedAvgDepositPrice: anchor.Price,
		NetDepositedTokens:      anchor.Tokens,
	})
}
