package engine

import (
	"errors"
	"math"
	"testing"
)

func TestSellAfterFee(t *testing.T) {
	c := NewFeeCalculator(testFees())
	tests := []struct {
		name      string
		price     float64
		orderType OrderType
		premium   bool
		want      float64
	}{
		{"instant premium", 1500, Instant, true, 1440},
		{"instant basic", 1000, Instant, false, 920},
		{"order premium", 1000, PlaceOrder, true, 935},
		{"order basic", 1000, PlaceOrder, false, 895},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.SellAfterFee(tt.price, tt.orderType, tt.premium)
			if err != nil {
				t.Fatalf("SellAfterFee: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SellAfterFee(%v) = %v, want %v", tt.price, got, tt.want)
			}
			if got >= tt.price {
				t.Errorf("SellAfterFee(%v) = %v, want < price", tt.price, got)
			}
		})
	}
}

func TestBuyAfterFee(t *testing.T) {
	c := NewFeeCalculator(testFees())

	got, err := c.BuyAfterFee(1000, Instant, true)
	if err != nil || got != 1000 {
		t.Errorf("BuyAfterFee(instant) = %v, %v; want 1000, nil", got, err)
	}
	got, err = c.BuyAfterFee(1000, PlaceOrder, true)
	if err != nil || math.Abs(got-1025) > 1e-9 {
		t.Errorf("BuyAfterFee(order) = %v, %v; want 1025, nil", got, err)
	}
}

func TestFees_RejectNonPositivePrice(t *testing.T) {
	c := NewFeeCalculator(testFees())
	for _, price := range []float64{0, -1} {
		var ipe *InvalidPriceError
		if _, err := c.SellAfterFee(price, Instant, true); !errors.As(err, &ipe) {
			t.Errorf("SellAfterFee(%v) err = %v, want InvalidPriceError", price, err)
		}
		if _, err := c.BuyAfterFee(price, Instant, true); !errors.As(err, &ipe) {
			t.Errorf("BuyAfterFee(%v) err = %v, want InvalidPriceError", price, err)
		}
	}
}

func TestFees_FlipArithmetic(t *testing.T) {
	c := NewFeeCalculator(testFees())
	buy, _ := c.BuyAfterFee(1000, Instant, true)
	sell, _ := c.SellAfterFee(1500, Instant, true)
	profit := sell - buy
	if math.Abs(profit-440) > 1e-9 {
		t.Errorf("profit = %v, want 440", profit)
	}
	if roi := profit / buy * 100; math.Abs(roi-44) > 1e-9 {
		t.Errorf("ROI = %v, want 44", roi)
	}
}

func TestStationFee(t *testing.T) {
	c := NewFeeCalculator(testFees())
	if got := c.StationFee(500); math.Abs(got-25) > 1e-9 {
		t.Errorf("StationFee(500) = %v, want 25", got)
	}
	if got := c.StationFee(-10); got != 0 {
		t.Errorf("StationFee(-10) = %v, want 0", got)
	}
}
