package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// City is a market location name as reported by the price source (e.g. "Martlock").
type City string

// Quality is an item quality level (1 = Normal ... 5 = Masterpiece).
type Quality int

// OrderType selects how a trade is executed against the market.
type OrderType int

const (
	// Instant fills against an existing order on the other side of the book.
	Instant OrderType = iota
	// PlaceOrder posts a new order and waits for a counterparty.
	PlaceOrder
)

func (o OrderType) String() string {
	if o == PlaceOrder {
		return "order"
	}
	return "instant"
}

// FlipStrategy is the execution style of a flip.
type FlipStrategy string

const (
	// StrategyFast buys into sell orders at the source and sells into buy orders at the destination.
	StrategyFast FlipStrategy = "fast"
	// StrategyPatient posts a buy order at the source and a sell order at the destination.
	StrategyPatient FlipStrategy = "patient"
)

// RiskLevel is the route risk classification. Ordering is Low < Medium < High.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	}
	return fmt.Sprintf("risk(%d)", int(r))
}

// Within reports whether r is acceptable under the given tolerance.
func (r RiskLevel) Within(tolerance RiskLevel) bool {
	return r <= tolerance
}

// ParseRiskLevel parses "low", "medium" or "high" (case-insensitive).
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	}
	return RiskLow, fmt.Errorf("unknown risk level %q", s)
}

// PriceObservation is one market snapshot for an (item, city, quality) triple.
// SellPriceMin is the cheapest sell order (what we pay on instant buy);
// BuyPriceMax is the highest buy order (what we receive on instant sell).
type PriceObservation struct {
	ItemID       string    `json:"item_id"`
	City         City      `json:"city"`
	Quality      Quality   `json:"quality"`
	SellPriceMin float64   `json:"sell_price_min"`
	BuyPriceMax  float64   `json:"buy_price_max"`
	ObservedAt   time.Time `json:"observed_at"`
	SourceTag    string    `json:"source_tag"`
}

// AgeSeconds returns the observation age at now. Negative means a future timestamp.
func (o PriceObservation) AgeSeconds(now time.Time) float64 {
	return now.Sub(o.ObservedAt).Seconds()
}

// Ingredient is one line of a recipe.
type Ingredient struct {
	ItemID        string `json:"item_id"`
	Quantity      int    `json:"quantity"`
	Substitutable bool   `json:"substitutable"`
}

// Recipe describes how to craft OutputQuantity units of OutputItem.
type Recipe struct {
	OutputItem         string       `json:"output_item"`
	OutputQuantity     int          `json:"output_quantity"`
	Tier               int          `json:"tier"`
	Ingredients        []Ingredient `json:"ingredients"`
	CraftTimeSeconds   int          `json:"craft_time_seconds"`
	StationRequirement string       `json:"station_requirement"`
	FocusCost          int          `json:"focus_cost"`
	ResourceReturnRate float64      `json:"resource_return_rate"` // [0,1)
}

// FlipOpportunity is a single "buy at SourceCity, sell at DestCity" trade.
type FlipOpportunity struct {
	ItemID            string       `json:"item_id"`
	Quality           Quality      `json:"quality"`
	SourceCity        City         `json:"source_city"`
	DestCity          City         `json:"dest_city"`
	Strategy          FlipStrategy `json:"strategy"`
	BuyPriceAfterFee  float64      `json:"buy_price_after_fee"`
	SellPriceAfterFee float64      `json:"sell_price_after_fee"`
	ROIPercent        float64      `json:"roi_percent"`
	RiskLevel         RiskLevel    `json:"risk_level"`
	SuggestedQuantity int          `json:"suggested_quantity"`
	Liquidity         float64      `json:"liquidity"`
	DataAgeSeconds    float64      `json:"data_age_seconds"`
}

// Profit is the per-unit profit after fees.
func (f FlipOpportunity) Profit() float64 {
	return f.SellPriceAfterFee - f.BuyPriceAfterFee
}

// ExpectedProfit is Profit times the suggested quantity.
func (f FlipOpportunity) ExpectedProfit() float64 {
	return f.Profit() * float64(f.SuggestedQuantity)
}

// Decision is the buy-or-craft choice made for one plan node.
type Decision int

const (
	Buy Decision = iota
	Craft
)

func (d Decision) String() string {
	if d == Craft {
		return "craft"
	}
	return "buy"
}

// PlanStrategy labels the overall shape of a CraftPlan.
type PlanStrategy string

const (
	PlanBuy    PlanStrategy = "buy"
	PlanCraft  PlanStrategy = "craft"
	PlanHybrid PlanStrategy = "hybrid"
)

// NodeKey identifies a node of the acquisition graph.
type NodeKey struct {
	ItemID   string
	Quality  Quality
	Quantity int
}

func (k NodeKey) String() string {
	return fmt.Sprintf("%s@%d x%d", k.ItemID, k.Quality, k.Quantity)
}

// PlanStep is one node of the chosen acquisition tree.
type PlanStep struct {
	ItemID      string      `json:"item_id"`
	Quantity    int         `json:"quantity"`
	Decision    Decision    `json:"decision"`
	Cost        float64     `json:"cost"`
	Crafts      int         `json:"crafts,omitempty"`       // number of craft actions when Decision == Craft
	StationFee  float64     `json:"station_fee,omitempty"`  // station fee paid at this node
	ForcedBuy   bool        `json:"forced_buy,omitempty"`   // true when a recipe cycle forced Buy
	Ingredients []*PlanStep `json:"ingredients,omitempty"`
}

// ShoppingItem is one line of the flattened list of things to buy.
type ShoppingItem struct {
	ItemID    string  `json:"item_id"`
	Quantity  int     `json:"quantity"`
	TotalCost float64 `json:"total_cost"`
}

// CraftPlan is the minimal-cost acquisition plan for a target item.
type CraftPlan struct {
	TargetItem       string               `json:"target_item"`
	Quality          Quality              `json:"quality"`
	City             City                 `json:"city"`
	TargetQuantity   int                  `json:"target_quantity"`
	Decisions        map[NodeKey]Decision `json:"-"`
	TotalCost        float64              `json:"total_cost"`
	BuyCost          float64              `json:"buy_cost"`   // root buy cost, 0 when unavailable
	CraftCost        float64              `json:"craft_cost"` // root craft cost, 0 when unavailable
	TotalTimeSeconds int                  `json:"total_time_seconds"`
	Strategy         PlanStrategy         `json:"strategy"`
	Root             *PlanStep            `json:"root"`
	ShoppingList     []ShoppingItem       `json:"shopping_list"`
	Warnings         []RecipeCycleWarning `json:"warnings,omitempty"`
}

// TierRange bounds item tiers (inclusive).
type TierRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether tier lies in the range.
func (t TierRange) Contains(tier int) bool {
	return tier >= t.Min && tier <= t.Max
}

// ItemTier extracts the tier from an item identifier of the form "T4_BAG".
// Returns 0, false when the identifier carries no tier prefix.
func ItemTier(itemID string) (int, bool) {
	if len(itemID) < 3 || (itemID[0] != 'T' && itemID[0] != 't') {
		return 0, false
	}
	end := strings.IndexByte(itemID, '_')
	if end < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(itemID[1:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
