package engine

import (
	"math"
	"testing"
)

type fakeRoutes map[[2]string]bool

func (f fakeRoutes) CrossesDangerZone(from, to string) bool {
	return f[[2]string{from, to}]
}

func TestMean(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{"empty", nil, 0},
		{"single", []float64{42}, 42},
		{"five", []float64{1, 2, 3, 4, 5}, 3},
		{"negative", []float64{-10, -20, -30}, -20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mean(tt.x)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("mean(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestVariance(t *testing.T) {
	if got := variance([]float64{2, 4, 4, 4, 5, 5, 7, 9}); math.Abs(got-4) > 1e-9 {
		t.Errorf("variance = %v, want 4", got)
	}
	if got := variance(nil); got != 0 {
		t.Errorf("variance(nil) = %v, want 0", got)
	}
}

func TestClassify(t *testing.T) {
	routes := fakeRoutes{{"Martlock", "Thetford"}: true}
	c := NewRiskClassifier([]City{"Caerleon"}, routes)

	tests := []struct {
		name     string
		src, dst City
		liq, vol float64
		want     RiskLevel
	}{
		{"danger source", "Caerleon", "Martlock", 1, 0, RiskHigh},
		{"danger dest", "Martlock", "Caerleon", 1, 0, RiskHigh},
		{"zone crossing", "Martlock", "Thetford", 1, 0, RiskHigh},
		{"low liquidity", "Martlock", "Lymhurst", 0.1, 0, RiskMedium},
		{"high volatility", "Martlock", "Lymhurst", 0.9, 0.5, RiskMedium},
		{"calm", "Martlock", "Lymhurst", 0.9, 0.1, RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.src, tt.dst, tt.liq, tt.vol); got != tt.want {
				t.Errorf("Classify(%s, %s) = %v, want %v", tt.src, tt.dst, got, tt.want)
			}
		})
	}
}

func TestClassify_DangerCityIgnoresLiquidity(t *testing.T) {
	c := NewRiskClassifier([]City{"Caerleon"}, nil)
	for _, liq := range []float64{0, 0.5, 1} {
		if got := c.Classify("Caerleon", "Bridgewatch", liq, 0); got != RiskHigh {
			t.Errorf("Classify(Caerleon, liq=%v) = %v, want high", liq, got)
		}
	}
}

func TestClassify_NilRoutes(t *testing.T) {
	c := NewRiskClassifier(nil, nil)
	if got := c.Classify("Martlock", "Thetford", 1, 0); got != RiskLow {
		t.Errorf("Classify with nil routes = %v, want low", got)
	}
}

func TestRiskLevelWithin(t *testing.T) {
	if !RiskLow.Within(RiskMedium) || RiskHigh.Within(RiskMedium) || !RiskMedium.Within(RiskMedium) {
		t.Error("Within ordering broken")
	}
}

func TestParseRiskLevel(t *testing.T) {
	for in, want := range map[string]RiskLevel{"low": RiskLow, " Medium ": RiskMedium, "HIGH": RiskHigh} {
		got, err := ParseRiskLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseRiskLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseRiskLevel("extreme"); err == nil {
		t.Error("ParseRiskLevel(extreme) should fail")
	}
}
