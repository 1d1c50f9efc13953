package engine

import (
	"fmt"
	"runtime"
	"sort"
)

const (
	// DefaultMaxResults is used when Params.MaxResults <= 0.
	DefaultMaxResults = 100
	// DefaultMaxSuggestedQuantity caps suggested trade sizes when no ceiling is configured.
	DefaultMaxSuggestedQuantity = 100
)

// EffectiveMaxResults returns v, or defaultVal if v <= 0.
func EffectiveMaxResults(v int, defaultVal int) int {
	if v <= 0 {
		return defaultVal
	}
	return v
}

// FeeTable holds the market and crafting fee rates as fractions (0.04 = 4%).
type FeeTable struct {
	TaxRateBasic   float64 `json:"tax_rate_basic"`
	TaxRatePremium float64 `json:"tax_rate_premium"`
	SetupFeeRate   float64 `json:"setup_fee_rate"`
	StationFeeRate float64 `json:"station_fee_rate"`
}

// Params is the immutable per-call configuration for FlipAnalyzer and CraftingOptimizer.
type Params struct {
	MinProfitMargin   float64   // minimum ROI in percent
	MaxInvestment     float64   // silver available per position
	RiskTolerance     RiskLevel // highest acceptable route risk
	SourceCities      []City
	DestCities        []City
	TierRange         TierRange
	Qualities         []Quality
	Premium           bool
	UseFocus          bool
	MaxDataAgeSeconds float64
	MaxResults        int // 0 = DefaultMaxResults
	Fees              FeeTable

	Strategies           []FlipStrategy // empty = fast only
	MaxSuggestedQuantity int            // 0 = DefaultMaxSuggestedQuantity
	FocusReturnRate      float64        // return rate used instead of the recipe's when UseFocus is set and higher
	FocusPointValue      float64        // silver value of one focus point
	Workers              int            // 0 = runtime.NumCPU()
	MinLiquidity         float64        // routes whose liquidity score is below this are skipped
}

// Validate fails fast on empty or contradictory parameters for a flip search.
func (p Params) Validate() error {
	problems := p.commonProblems()
	if len(p.SourceCities) == 0 {
		problems = append(problems, "source city set is empty")
	}
	if len(p.DestCities) == 0 {
		problems = append(problems, "destination city set is empty")
	}
	if len(p.Qualities) == 0 {
		problems = append(problems, "quality filter is empty")
	}
	for _, q := range p.Qualities {
		if q < 1 || q > 5 {
			problems = append(problems, fmt.Sprintf("quality %d out of range 1..5", q))
		}
	}
	if p.TierRange.Min > p.TierRange.Max {
		problems = append(problems, fmt.Sprintf("tier range %d..%d is inverted", p.TierRange.Min, p.TierRange.Max))
	}
	if p.MaxInvestment <= 0 {
		problems = append(problems, "max investment must be > 0")
	}
	if p.MaxResults < 0 {
		problems = append(problems, "max results must be >= 0")
	}
	if p.MinLiquidity < 0 || p.MinLiquidity > 1 {
		problems = append(problems, fmt.Sprintf("min liquidity %v out of range [0,1]", p.MinLiquidity))
	}
	if p.RiskTolerance < RiskLow || p.RiskTolerance > RiskHigh {
		problems = append(problems, fmt.Sprintf("unknown risk tolerance %d", p.RiskTolerance))
	}
	for _, s := range p.Strategies {
		if s != StrategyFast && s != StrategyPatient {
			problems = append(problems, fmt.Sprintf("unknown strategy %q", s))
		}
	}
	return constraintError(problems)
}

// validatePlan checks the inputs of a single CraftingOptimizer.Plan call.
func (p Params) validatePlan(itemID string, quality Quality, quantity int, city City) error {
	problems := p.commonProblems()
	if itemID == "" {
		problems = append(problems, "target item is empty")
	}
	if quantity <= 0 {
		problems = append(problems, fmt.Sprintf("quantity %d must be > 0", quantity))
	}
	if city == "" {
		problems = append(problems, "crafting city is empty")
	}
	if quality < 1 || quality > 5 {
		problems = append(problems, fmt.Sprintf("quality %d out of range 1..5", quality))
	}
	return constraintError(problems)
}

func (p Params) commonProblems() []string {
	var problems []string
	if p.MaxDataAgeSeconds <= 0 {
		problems = append(problems, "max data age must be > 0")
	}
	for name, rate := range map[string]float64{
		"tax_rate_basic":   p.Fees.TaxRateBasic,
		"tax_rate_premium": p.Fees.TaxRatePremium,
		"setup_fee_rate":   p.Fees.SetupFeeRate,
		"station_fee_rate": p.Fees.StationFeeRate,
	} {
		if rate < 0 || rate >= 1 {
			problems = append(problems, fmt.Sprintf("%s %v out of range [0,1)", name, rate))
		}
	}
	if p.FocusReturnRate < 0 || p.FocusReturnRate >= 1 {
		problems = append(problems, fmt.Sprintf("focus return rate %v out of range [0,1)", p.FocusReturnRate))
	}
	if p.FocusPointValue < 0 {
		problems = append(problems, "focus point value must be >= 0")
	}
	return problems
}

func constraintError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return &InvalidConstraintError{Problems: problems}
}

func (p Params) strategies() []FlipStrategy {
	if len(p.Strategies) == 0 {
		return []FlipStrategy{StrategyFast}
	}
	return p.Strategies
}

func (p Params) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.NumCPU()
}

func (p Params) suggestedQuantityCap() int {
	if p.MaxSuggestedQuantity > 0 {
		return p.MaxSuggestedQuantity
	}
	return DefaultMaxSuggestedQuantity
}

func uniqueCities(in []City) []City {
	seen := make(map[City]bool, len(in))
	out := make([]City, 0, len(in))
	for _, c := range in {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func uniqueQualities(in []Quality) []Quality {
	seen := make(map[Quality]bool, len(in))
	out := make([]Quality, 0, len(in))
	for _, q := range in {
		if !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}
	return out
}
