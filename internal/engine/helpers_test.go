package engine

import "time"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testFees() FeeTable {
	return FeeTable{
		TaxRateBasic:   0.08,
		TaxRatePremium: 0.04,
		SetupFeeRate:   0.025,
		StationFeeRate: 0.05,
	}
}

func testParams() Params {
	return Params{
		MinProfitMargin:   0,
		MaxInvestment:     1_000_000,
		RiskTolerance:     RiskHigh,
		SourceCities:      []City{"Martlock"},
		DestCities:        []City{"Lymhurst"},
		TierRange:         TierRange{Min: 1, Max: 8},
		Qualities:         []Quality{1},
		Premium:           true,
		MaxDataAgeSeconds: 24 * 3600,
		Fees:              testFees(),
		Strategies:        []FlipStrategy{StrategyFast},
		Workers:           2,
	}
}

func obs(item string, city City, q Quality, sell, buy float64, age time.Duration) PriceObservation {
	return PriceObservation{
		ItemID:       item,
		City:         city,
		Quality:      q,
		SellPriceMin: sell,
		BuyPriceMax:  buy,
		ObservedAt:   testNow.Add(-age),
		SourceTag:    "test",
	}
}
