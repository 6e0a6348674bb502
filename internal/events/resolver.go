package events

import (
	"sort"
	"time"

	"github.com/smoothiefi/smoothie/internal/domain"
)

// pricePoint is one daily price row for an asset.
type pricePoint struct {
	date  time.Time
	price float64
}

// priceResolver answers "what was the USD price on this day" from a sorted
// daily price series, forward-filling gaps and falling back to an
// SDK-supplied price when the series starts after the requested day.
type priceResolver struct {
	points   []pricePoint
	fallback float64
}

func newPriceResolver(points []pricePoint, fallback float64) *priceResolver {
	sorted := make([]pricePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].date.Before(sorted[j].date) })
	return &priceResolver{points: sorted, fallback: fallback}
}

// resolve returns the price for the given day and how it was obtained.
func (r *priceResolver) resolve(day time.Time) (float64, domain.PriceResolution) {
	// First point strictly after day.
	idx := sort.Search(len(r.points), func(i int) bool {
		return r.points[i].date.After(day)
	})
	if idx == 0 {
		return r.fallback, domain.PriceFallback
	}
	p := r.points[idx-1]
	if p.date.Equal(day) {
		return p.price, domain.PriceExact
	}
	return p.price, domain.PriceForwardFill
}
