package engine

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// FlipAnalyzer enumerates and ranks cross-city opportunities over a Snapshot.
type FlipAnalyzer struct {
	Risk      RiskClassifier
	Liquidity LiquidityScorer
}

// NewFlipAnalyzer creates an analyzer with the given risk rules and default liquidity scoring.
func NewFlipAnalyzer(risk RiskClassifier) *FlipAnalyzer {
	return &FlipAnalyzer{
		Risk:      risk,
		Liquidity: NewLiquidityScorer(),
	}
}

// Search returns the ranked opportunities in the snapshot. The result is a pure
// function of (params, snap): calling it twice yields the same sequence.
func (a *FlipAnalyzer) Search(ctx context.Context, params Params, snap *Snapshot) ([]FlipOpportunity, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	items := snap.Items()
	perItem := make([][]FlipOpportunity, len(items))
	fees := NewFeeCalculator(params.Fees)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(params.workers())
	for i, item := range items {
		// One cancellation check per item.
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perItem[i] = a.scanItem(item, params, snap, fees)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []FlipOpportunity
	for _, r := range perItem {
		results = append(results, r...)
	}
	log.Printf("[DEBUG] flips: %d items, %d opportunities before sort/trim", len(items), len(results))

	sortOpportunities(results)
	limit := EffectiveMaxResults(params.MaxResults, DefaultMaxResults)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// scanItem evaluates every (quality, source, dest, strategy) unit of one item.
// It reads only the snapshot and returns its own slice.
func (a *FlipAnalyzer) scanItem(item string, params Params, snap *Snapshot, fees FeeCalculator) []FlipOpportunity {
	if tier, ok := snap.tier(item); ok && !params.TierRange.Contains(tier) {
		return nil
	}
	now := snap.Now()

	type cityStats struct {
		obs        PriceObservation
		liquidity  float64
		volatility float64
	}
	sources := uniqueCities(params.SourceCities)
	dests := uniqueCities(params.DestCities)
	var out []FlipOpportunity
	for _, q := range uniqueQualities(params.Qualities) {
		stats := make(map[City]*cityStats)
		lookup := func(city City) *cityStats {
			if s, ok := stats[city]; ok {
				return s
			}
			var s *cityStats
			if o, ok := snap.Latest(item, city, q); ok && usableAge(o, now, params.MaxDataAgeSeconds) {
				h := snap.History(item, city, q)
				s = &cityStats{
					obs:        o,
					liquidity:  a.Liquidity.Score(h, now),
					volatility: a.Liquidity.Volatility(h, now),
				}
			}
			stats[city] = s
			return s
		}

		for _, src := range sources {
			from := lookup(src)
			if from == nil {
				continue
			}
			for _, dst := range dests {
				if dst == src {
					continue
				}
				to := lookup(dst)
				if to == nil {
					continue
				}
				liquidity := math.Min(from.liquidity, to.liquidity)
				if liquidity < params.MinLiquidity {
					continue
				}
				volatility := math.Max(from.volatility, to.volatility)
				risk := a.Risk.Classify(src, dst, liquidity, volatility)
				if !risk.Within(params.RiskTolerance) {
					continue
				}
				age := math.Max(from.obs.AgeSeconds(now), to.obs.AgeSeconds(now))

				for _, strategy := range params.strategies() {
					opp, ok := evaluateFlip(fees, params, strategy, from.obs, to.obs)
					if !ok {
						continue
					}
					opp.RiskLevel = risk
					opp.Liquidity = liquidity
					opp.DataAgeSeconds = age
					opp.SuggestedQuantity = SuggestedQuantity(liquidity, params.MaxInvestment, opp.BuyPriceAfterFee, params.suggestedQuantityCap())
					out = append(out, opp)
				}
			}
		}
	}
	return out
}

// evaluateFlip prices one strategy for a source/destination observation pair.
// Invalid prices and unprofitable or unaffordable trades are rejected.
func evaluateFlip(fees FeeCalculator, params Params, strategy FlipStrategy, src, dst PriceObservation) (FlipOpportunity, bool) {
	var (
		buy, sell float64
		err       error
	)
	switch strategy {
	case StrategyPatient:
		buy, err = fees.BuyAfterFee(src.BuyPriceMax, PlaceOrder, params.Premium)
		if err != nil {
			return FlipOpportunity{}, false
		}
		sell, err = fees.SellAfterFee(dst.SellPriceMin, PlaceOrder, params.Premium)
	default:
		buy, err = fees.BuyAfterFee(src.SellPriceMin, Instant, params.Premium)
		if err != nil {
			return FlipOpportunity{}, false
		}
		sell, err = fees.SellAfterFee(dst.BuyPriceMax, Instant, params.Premium)
	}
	if err != nil || buy <= 0 {
		return FlipOpportunity{}, false
	}

	profit := sell - buy
	if profit <= 0 {
		return FlipOpportunity{}, false
	}
	roi := sanitizeFloat(profit / buy * 100)
	if roi < params.MinProfitMargin {
		return FlipOpportunity{}, false
	}
	if buy > params.MaxInvestment {
		return FlipOpportunity{}, false
	}
	return FlipOpportunity{
		ItemID:            src.ItemID,
		Quality:           src.Quality,
		SourceCity:        src.City,
		DestCity:          dst.City,
		Strategy:          strategy,
		BuyPriceAfterFee:  buy,
		SellPriceAfterFee: sell,
		ROIPercent:        roi,
	}, true
}

// usableAge rejects future timestamps and observations older than maxAge seconds.
func usableAge(o PriceObservation, now time.Time, maxAge float64) bool {
	age := o.AgeSeconds(now)
	return age >= 0 && age <= maxAge
}

// sortOpportunities orders by profit desc, ROI desc, risk asc, item asc, then
// quality, source, destination and strategy so that the order is total.
func sortOpportunities(results []FlipOpportunity) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if pa, pb := a.Profit(), b.Profit(); pa != pb {
			return pa > pb
		}
		if a.ROIPercent != b.ROIPercent {
			return a.ROIPercent > b.ROIPercent
		}
		if a.RiskLevel != b.RiskLevel {
			return a.RiskLevel < b.RiskLevel
		}
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		if a.Quality != b.Quality {
			return a.Quality < b.Quality
		}
		if a.SourceCity != b.SourceCity {
			return a.SourceCity < b.SourceCity
		}
		if a.DestCity != b.DestCity {
			return a.DestCity < b.DestCity
		}
		return a.Strategy < b.Strategy
	})
}
