package engine

// FeeCalculator converts raw market prices into fee-adjusted prices.
// Rates come from the FeeTable; nothing is hardcoded since the game economy changes them.
type FeeCalculator struct {
	Fees FeeTable
}

// NewFeeCalculator returns a calculator over the given fee table.
func NewFeeCalculator(fees FeeTable) FeeCalculator {
	return FeeCalculator{Fees: fees}
}

// SalesTax returns the sales tax rate for the given premium status.
func (c FeeCalculator) SalesTax(premium bool) float64 {
	if premium {
		return c.Fees.TaxRatePremium
	}
	return c.Fees.TaxRateBasic
}

// SellAfterFee returns what the seller keeps per unit.
// Instant sells into an existing buy order pay the sales tax only; posting a
// sell order pays the sales tax plus the setup fee.
func (c FeeCalculator) SellAfterFee(price float64, orderType OrderType, premium bool) (float64, error) {
	if price <= 0 {
		return 0, &InvalidPriceError{Price: price}
	}
	rate := c.SalesTax(premium)
	if orderType == PlaceOrder {
		rate += c.Fees.SetupFeeRate
	}
	return clampNonNegative(price * (1 - rate)), nil
}

// BuyAfterFee returns what the buyer pays per unit.
// Accepting an existing sell order is untaxed; posting a buy order adds the setup fee.
func (c FeeCalculator) BuyAfterFee(price float64, orderType OrderType, premium bool) (float64, error) {
	if price <= 0 {
		return 0, &InvalidPriceError{Price: price}
	}
	if orderType == PlaceOrder {
		return clampNonNegative(price * (1 + c.Fees.SetupFeeRate)), nil
	}
	return price, nil
}

// StationFee is the crafting station usage fee for the given material value.
// Callers pass the value of materials actually consumed, i.e. after resource return.
func (c FeeCalculator) StationFee(materialValue float64) float64 {
	return clampNonNegative(materialValue * c.Fees.StationFeeRate)
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
