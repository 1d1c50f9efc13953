package engine

import "math"

const (
	// DefaultLowLiquidityThreshold is the score below which a route is at least Medium risk.
	DefaultLowLiquidityThreshold = 0.25
	// DefaultHighVolatilityThreshold is the price coefficient of variation above which a route is at least Medium risk.
	DefaultHighVolatilityThreshold = 0.35
)

// RouteMap answers whether travelling between two cities has to cross red or black zone territory.
// *graph.ZoneMap implements it.
type RouteMap interface {
	CrossesDangerZone(from, to string) bool
}

// RiskClassifier assigns Low/Medium/High to a source -> destination route.
type RiskClassifier struct {
	// HighDangerCities are always High risk as either endpoint (e.g. Caerleon).
	HighDangerCities []City
	// Routes answers the red/black zone crossing rule. Nil disables the rule.
	Routes                  RouteMap
	LowLiquidityThreshold   float64
	HighVolatilityThreshold float64
}

// NewRiskClassifier returns a classifier with the default thresholds.
func NewRiskClassifier(dangerCities []City, routes RouteMap) RiskClassifier {
	return RiskClassifier{
		HighDangerCities:        dangerCities,
		Routes:                  routes,
		LowLiquidityThreshold:   DefaultLowLiquidityThreshold,
		HighVolatilityThreshold: DefaultHighVolatilityThreshold,
	}
}

// Classify evaluates the rules in strict priority order: danger city or
// red/black zone crossing first, then liquidity and volatility thresholds.
func (c RiskClassifier) Classify(source, dest City, liquidityScore, volatility float64) RiskLevel {
	if c.isDangerCity(source) || c.isDangerCity(dest) {
		return RiskHigh
	}
	if c.Routes != nil && c.Routes.CrossesDangerZone(string(source), string(dest)) {
		return RiskHigh
	}
	if liquidityScore < c.LowLiquidityThreshold || volatility > c.HighVolatilityThreshold {
		return RiskMedium
	}
	return RiskLow
}

func (c RiskClassifier) isDangerCity(city City) bool {
	for _, d := range c.HighDangerCities {
		if d == city {
			return true
		}
	}
	return false
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// variance is the population variance of x.
func variance(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := mean(x)
	var ss float64
	for _, v := range x {
		d := v - m
		ss += d * d
	}
	return ss / float64(len(x))
}

// sanitizeFloat replaces NaN/Inf with 0 to keep results renderable.
func sanitizeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
