package engine

import (
	"math"
	"time"
)

const (
	// DefaultLiquidityHalfLife is the age at which recency confidence halves.
	DefaultLiquidityHalfLife = 6 * time.Hour
	// DefaultLiquidityWindow is the trailing window for counting observations.
	DefaultLiquidityWindow = 7 * 24 * time.Hour
	// DefaultLiquiditySaturation is the observation count at which activity reaches ~63%.
	DefaultLiquiditySaturation = 5.0
)

// LiquidityScorer derives a 0..1 confidence score for an (item, city) pair from
// how fresh and how frequent its observations are.
type LiquidityScorer struct {
	HalfLife   time.Duration
	Window     time.Duration
	Saturation float64
}

// NewLiquidityScorer returns a scorer with the default constants.
func NewLiquidityScorer() LiquidityScorer {
	return LiquidityScorer{
		HalfLife:   DefaultLiquidityHalfLife,
		Window:     DefaultLiquidityWindow,
		Saturation: DefaultLiquiditySaturation,
	}
}

// Score combines recency decay of the freshest observation with a saturating
// function of distinct observation timestamps inside the trailing window.
// Observations dated after now are ignored.
func (s LiquidityScorer) Score(history []PriceObservation, now time.Time) float64 {
	halfLife := s.HalfLife
	if halfLife <= 0 {
		halfLife = DefaultLiquidityHalfLife
	}
	window := s.Window
	if window <= 0 {
		window = DefaultLiquidityWindow
	}
	saturation := s.Saturation
	if saturation <= 0 {
		saturation = DefaultLiquiditySaturation
	}

	cutoff := now.Add(-window)
	var freshest time.Time
	seen := make(map[int64]struct{}, len(history))
	for _, o := range history {
		if o.ObservedAt.After(now) {
			continue
		}
		if o.ObservedAt.After(freshest) {
			freshest = o.ObservedAt
		}
		if !o.ObservedAt.Before(cutoff) {
			seen[o.ObservedAt.UnixNano()] = struct{}{}
		}
	}
	if freshest.IsZero() {
		return 0
	}

	age := now.Sub(freshest).Seconds()
	recency := math.Exp(-math.Ln2 * age / halfLife.Seconds())
	activity := 1 - math.Exp(-float64(len(seen))/saturation)
	return clampUnit(recency * activity)
}

// Volatility is the coefficient of variation of SellPriceMin inside the window.
// Fewer than two usable samples yield 0.
func (s LiquidityScorer) Volatility(history []PriceObservation, now time.Time) float64 {
	window := s.Window
	if window <= 0 {
		window = DefaultLiquidityWindow
	}
	cutoff := now.Add(-window)
	prices := make([]float64, 0, len(history))
	for _, o := range history {
		if o.ObservedAt.After(now) || o.ObservedAt.Before(cutoff) || o.SellPriceMin <= 0 {
			continue
		}
		prices = append(prices, o.SellPriceMin)
	}
	if len(prices) < 2 {
		return 0
	}
	m := mean(prices)
	if m <= 0 {
		return 0
	}
	return math.Sqrt(variance(prices)) / m
}

// SuggestedQuantity bounds trade size by liquidity: floor(score × maxInvestment / buyPrice),
// capped by ceiling.
func SuggestedQuantity(score, maxInvestment, buyPrice float64, ceiling int) int {
	if buyPrice <= 0 || maxInvestment <= 0 || score <= 0 {
		return 0
	}
	q := math.Floor(clampUnit(score) * maxInvestment / buyPrice)
	if ceiling > 0 && q > float64(ceiling) {
		return ceiling
	}
	if q > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(q)
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
