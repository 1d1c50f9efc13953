package engine

import (
	"errors"
	"testing"
)

func TestEffectiveMaxResults(t *testing.T) {
	if got := EffectiveMaxResults(0, 100); got != 100 {
		t.Errorf("EffectiveMaxResults(0) = %d, want 100", got)
	}
	if got := EffectiveMaxResults(7, 100); got != 7 {
		t.Errorf("EffectiveMaxResults(7) = %d, want 7", got)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr bool
	}{
		{"valid", func(p *Params) {}, false},
		{"empty dest", func(p *Params) { p.DestCities = nil }, true},
		{"empty qualities", func(p *Params) { p.Qualities = nil }, true},
		{"quality out of range", func(p *Params) { p.Qualities = []Quality{6} }, true},
		{"zero investment", func(p *Params) { p.MaxInvestment = 0 }, true},
		{"zero data age", func(p *Params) { p.MaxDataAgeSeconds = 0 }, true},
		{"tax rate of one", func(p *Params) { p.Fees.TaxRatePremium = 1 }, true},
		{"negative setup fee", func(p *Params) { p.Fees.SetupFeeRate = -0.1 }, true},
		{"unknown strategy", func(p *Params) { p.Strategies = []FlipStrategy{"yolo"} }, true},
		{"unknown risk", func(p *Params) { p.RiskTolerance = RiskLevel(9) }, true},
		{"negative max results", func(p *Params) { p.MaxResults = -1 }, true},
		{"min liquidity above one", func(p *Params) { p.MinLiquidity = 1.5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			var ice *InvalidConstraintError
			if err != nil && !errors.As(err, &ice) {
				t.Errorf("err type = %T, want *InvalidConstraintError", err)
			}
		})
	}
}

func TestItemTier(t *testing.T) {
	for id, want := range map[string]int{"T4_BAG": 4, "T8_MAIN_SWORD": 8, "t5_cape": 5} {
		if got, ok := ItemTier(id); !ok || got != want {
			t.Errorf("ItemTier(%s) = %d, %v; want %d", id, got, ok, want)
		}
	}
	for _, id := range []string{"", "BAG", "TX_BAG", "T_BAG"} {
		if _, ok := ItemTier(id); ok {
			t.Errorf("ItemTier(%q) should fail", id)
		}
	}
}
