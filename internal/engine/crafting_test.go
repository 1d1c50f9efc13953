package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func planParams() Params {
	p := testParams()
	p.Premium = true
	return p
}

func bagRecipe() Recipe {
	return Recipe{
		OutputItem:       "T4_BAG",
		OutputQuantity:   1,
		Tier:             4,
		CraftTimeSeconds: 60,
		Ingredients: []Ingredient{
			{ItemID: "T4_LEATHER", Quantity: 2},
			{ItemID: "T4_CLOTH", Quantity: 1},
		},
	}
}

func bagCraftSnapshot(bagPrice float64) *Snapshot {
	observations := []PriceObservation{
		obs("T4_LEATHER", "Martlock", 1, 100, 90, time.Minute),
		obs("T4_CLOTH", "Martlock", 1, 300, 280, time.Minute),
	}
	if bagPrice > 0 {
		observations = append(observations, obs("T4_BAG", "Martlock", 1, bagPrice, bagPrice*0.9, time.Minute))
	}
	return NewSnapshot(testNow, observations, []Recipe{bagRecipe()})
}

func TestPlan_BuyWhenCheaper(t *testing.T) {
	plan, err := NewCraftingOptimizer().Plan(context.Background(), "T4_BAG", 1, 1, "Martlock", planParams(), bagCraftSnapshot(500))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Decisions[NodeKey{"T4_BAG", 1, 1}] != Buy {
		t.Errorf("decision = %v, want buy", plan.Decisions[NodeKey{"T4_BAG", 1, 1}])
	}
	if plan.TotalCost != 500 {
		t.Errorf("TotalCost = %v, want 500", plan.TotalCost)
	}
	if math.Abs(plan.CraftCost-525) > 1e-9 {
		t.Errorf("CraftCost = %v, want 525", plan.CraftCost)
	}
	if plan.Strategy != PlanBuy {
		t.Errorf("Strategy = %s, want buy", plan.Strategy)
	}
	if len(plan.ShoppingList) != 1 || plan.ShoppingList[0].ItemID != "T4_BAG" {
		t.Errorf("ShoppingList = %+v, want only T4_BAG", plan.ShoppingList)
	}
	if plan.TotalTimeSeconds != 0 {
		t.Errorf("TotalTimeSeconds = %d, want 0 when buying", plan.TotalTimeSeconds)
	}
}

func TestPlan_CraftWhenCheaper(t *testing.T) {
	plan, err := NewCraftingOptimizer().Plan(context.Background(), "T4_BAG", 1, 1, "Martlock", planParams(), bagCraftSnapshot(600))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Root.Decision != Craft {
		t.Fatalf("root decision = %v, want craft", plan.Root.Decision)
	}
	if math.Abs(plan.TotalCost-525) > 1e-9 {
		t.Errorf("TotalCost = %v, want 525", plan.TotalCost)
	}
	if math.Abs(plan.Root.StationFee-25) > 1e-9 {
		t.Errorf("StationFee = %v, want 25", plan.Root.StationFee)
	}
	if plan.Strategy != PlanCraft {
		t.Errorf("Strategy = %s, want craft", plan.Strategy)
	}
	if plan.TotalTimeSeconds != 60 {
		t.Errorf("TotalTimeSeconds = %d, want 60", plan.TotalTimeSeconds)
	}
	want := []ShoppingItem{
		{ItemID: "T4_CLOTH", Quantity: 1, TotalCost: 300},
		{ItemID: "T4_LEATHER", Quantity: 2, TotalCost: 200},
	}
	if len(plan.ShoppingList) != len(want) {
		t.Fatalf("ShoppingList = %+v, want %+v", plan.ShoppingList, want)
	}
	for i := range want {
		if plan.ShoppingList[i] != want[i] {
			t.Errorf("ShoppingList[%d] = %+v, want %+v", i, plan.ShoppingList[i], want[i])
		}
	}
	if plan.Decisions[NodeKey{"T4_LEATHER", 1, 2}] != Buy {
		t.Error("leaf T4_LEATHER x2 should be bought")
	}
}

func TestPlan_TieResolvesToBuy(t *testing.T) {
	plan, err := NewCraftingOptimizer().Plan(context.Background(), "T4_BAG", 1, 1, "Martlock", planParams(), bagCraftSnapshot(525))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Root.Decision != Buy {
		t.Errorf("tie decision = %v, want buy", plan.Root.Decision)
	}
}

func TestPlan_TotalCostIsMinOfOptions(t *testing.T) {
	for _, price := range []float64{100, 400, 524, 525, 526, 900, 5000} {
		plan, err := NewCraftingOptimizer().Plan(context.Background(), "T4_BAG", 1, 1, "Martlock", planParams(), bagCraftSnapshot(price))
		if err != nil {
			t.Fatalf("Plan(%v): %v", price, err)
		}
		if want := math.Min(plan.BuyCost, plan.CraftCost); plan.TotalCost != want {
			t.Errorf("price %v: TotalCost = %v, want min(%v, %v)", price, plan.TotalCost, plan.BuyCost, plan.CraftCost)
		}
	}
}

func TestPlan_MonotoneInIngredientPrice(t *testing.T) {
	prev := 0.0
	for _, leather := range []float64{50, 100, 150, 200, 400} {
		snap := NewSnapshot(testNow, []PriceObservation{
			obs("T4_LEATHER", "Martlock", 1, leather, leather, time.Minute),
			obs("T4_CLOTH", "Martlock", 1, 300, 280, time.Minute),
			obs("T4_BAG", "Martlock", 1, 800, 700, time.Minute),
		}, []Recipe{bagRecipe()})
		plan, err := NewCraftingOptimizer().Plan(context.Background(), "T4_BAG", 1, 1, "Martlock", planParams(), snap)
		if err != nil {
			t.Fatalf("Plan: %v", err)
		}
		if plan.TotalCost < prev {
			t.Errorf("leather %v: TotalCost %v decreased from %v", leather, plan.TotalCost, prev)
		}
		prev = plan.TotalCost
	}
}

func TestPlan_MonotoneInQuantity(t *testing.T) {
	planks := Recipe{
		OutputItem: "T4_PLANKS", OutputQuantity: 1, Tier: 4, CraftTimeSeconds: 2,
		Ingredients:        []Ingredient{{ItemID: "T4_WOOD", Quantity: 3}},
		ResourceReturnRate: 0.15, FocusCost: 4,
	}
	bow := Recipe{
		OutputItem: "T4_2H_BOW", OutputQuantity: 2, Tier: 4, CraftTimeSeconds: 30,
		Ingredients: []Ingredient{
			{ItemID: "T4_PLANKS", Quantity: 4},
			{ItemID: "T4_CLOTH", Quantity: 1},
		},
		ResourceReturnRate: 0.15, FocusCost: 50,
	}
	snap := NewSnapshot(testNow, []PriceObservation{
		obs("T4_WOOD", "Martlock", 1, 30, 25, time.Minute),
		obs("T4_PLANKS", "Martlock", 1, 110, 100, time.Minute),
		obs("T4_CLOTH", "Martlock", 1, 300, 280, time.Minute),
		obs("T4_2H_BOW", "Martlock", 1, 900, 850, time.Minute),
	}, []Recipe{planks, bow})

	tests := []struct {
		name     string
		useFocus bool
	}{
		{"no focus", false},
		{"focus", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := planParams()
			params.UseFocus = tt.useFocus
			params.FocusReturnRate = 0.35
			params.FocusPointValue = 2
			prev := 0.0
			for qty := 1; qty <= 60; qty++ {
				plan, err := NewCraftingOptimizer().Plan(context.Background(), "T4_2H_BOW", 1, qty, "Martlock", params, snap)
				if err != nil {
					t.Fatalf("qty %d: %v", qty, err)
				}
				if plan.TotalCost < prev {
					t.Errorf("qty %d: TotalCost %v decreased from %v", qty, plan.TotalCost, prev)
				}
				prev = plan.TotalCost
			}
		})
	}
}

func TestPlan_LeafWithoutRecipe(t *testing.T) {
	plan, err := NewCraftingOptimizer().Plan(context.Background(), "T4_LEATHER", 1, 5, "Martlock", planParams(), bagCraftSnapshot(0))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Root.Decision != Buy || plan.TotalCost != 500 {
		t.Errorf("leaf plan = %v / %v, want buy / 500", plan.Root.Decision, plan.TotalCost)
	}
}

func TestPlan_MissingMarketData(t *testing.T) {
	_, err := NewCraftingOptimizer().Plan(context.Background(), "T4_ORE", 1, 1, "Martlock", planParams(), bagCraftSnapshot(0))
	var missing *MissingMarketDataError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingMarketDataError", err)
	}
	if missing.ItemID != "T4_ORE" {
		t.Errorf("missing item = %s, want T4_ORE", missing.ItemID)
	}
}

func TestPlan_MissingIngredientFallsBackToBuy(t *testing.T) {
	snap := NewSnapshot(testNow, []PriceObservation{
		obs("T4_LEATHER", "Martlock", 1, 100, 90, time.Minute),
		obs("T4_BAG", "Martlock", 1, 900, 800, time.Minute),
	}, []Recipe{bagRecipe()})
	plan, err := NewCraftingOptimizer().Plan(context.Background(), "T4_BAG", 1, 1, "Martlock", planParams(), snap)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Root.Decision != Buy || plan.CraftCost != 0 {
		t.Errorf("plan = %v craft=%v, want buy with no craft option", plan.Root.Decision, plan.CraftCost)
	}
}

func TestPlan_RecipeCycleTerminates(t *testing.T) {
	recipes := []Recipe{
		{OutputItem: "T4_A", OutputQuantity: 1, Ingredients: []Ingredient{{ItemID: "T4_B", Quantity: 1}}},
		{OutputItem: "T4_B", OutputQuantity: 1, Ingredients: []Ingredient{{ItemID: "T4_A", Quantity: 1}}},
	}
	snap := NewSnapshot(testNow, []PriceObservation{
		obs("T4_A", "Martlock", 1, 100, 90, time.Minute),
		obs("T4_B", "Martlock", 1, 100, 90, time.Minute),
	}, recipes)
	plan, err := NewCraftingOptimizer().Plan(context.Background(), "T4_A", 1, 1, "Martlock", planParams(), snap)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Warnings) != 1 || plan.Warnings[0].ItemID != "T4_A" {
		t.Errorf("Warnings = %+v, want one cycle at T4_A", plan.Warnings)
	}
	if plan.Root.Decision != Buy || plan.TotalCost != 100 {
		t.Errorf("plan = %v / %v, want buy / 100", plan.Root.Decision, plan.TotalCost)
	}
}

func TestPlan_HybridAfterCycle(t *testing.T) {
	recipes := []Recipe{
		{OutputItem: "T4_A", OutputQuantity: 1, Ingredients: []Ingredient{{ItemID: "T4_B", Quantity: 1}}},
		{OutputItem: "T4_B", OutputQuantity: 1, Ingredients: []Ingredient{{ItemID: "T4_A", Quantity: 1}}},
	}
	// T4_A has no market price: it must be crafted from a bought T4_B.
	snap := NewSnapshot(testNow, []PriceObservation{
		obs("T4_B", "Martlock", 1, 100, 90, time.Minute),
	}, recipes)
	plan, err := NewCraftingOptimizer().Plan(context.Background(), "T4_A", 1, 1, "Martlock", planParams(), snap)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Root.Decision != Craft {
		t.Fatalf("root = %v, want craft", plan.Root.Decision)
	}
	if math.Abs(plan.TotalCost-105) > 1e-9 {
		t.Errorf("TotalCost = %v, want 105", plan.TotalCost)
	}
	if plan.Strategy != PlanHybrid {
		t.Errorf("Strategy = %s, want hybrid", plan.Strategy)
	}
}

func TestPlan_MultipleCraftsAndReturnRate(t *testing.T) {
	r := bagRecipe()
	r.ResourceReturnRate = 0.15
	snap := NewSnapshot(testNow, []PriceObservation{
		obs("T4_LEATHER", "Martlock", 1, 100, 90, time.Minute),
		obs("T4_CLOTH", "Martlock", 1, 300, 280, time.Minute),
	}, []Recipe{r})
	plan, err := NewCraftingOptimizer().Plan(context.Background(), "T4_BAG", 1, 10, "Martlock", planParams(), snap)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Root.Crafts != 10 {
		t.Errorf("Crafts = %d, want 10", plan.Root.Crafts)
	}
	// leather: ceil(2*10*0.85) = 17, cloth: ceil(10*0.85) = 9
	if plan.Decisions[NodeKey{"T4_LEATHER", 1, 17}] != Buy {
		t.Errorf("expected T4_LEATHER x17 in decisions: %v", plan.Decisions)
	}
	if _, ok := plan.Decisions[NodeKey{"T4_CLOTH", 1, 9}]; !ok {
		t.Errorf("expected T4_CLOTH x9 in decisions: %v", plan.Decisions)
	}
	want := (1700.0 + 2700.0) * 1.05
	if math.Abs(plan.TotalCost-want) > 1e-6 {
		t.Errorf("TotalCost = %v, want %v", plan.TotalCost, want)
	}
	if plan.TotalTimeSeconds != 600 {
		t.Errorf("TotalTimeSeconds = %d, want 600", plan.TotalTimeSeconds)
	}
}

func TestIngredientNeed(t *testing.T) {
	tests := []struct {
		perCraft, crafts int
		rrr              float64
		want             int
	}{
		{2, 1, 0, 2},
		{2, 10, 0.15, 17},
		{1, 1, 0.15, 1},
		{10, 3, 0.35, 20},
		{1, 1, 0.99, 1},
	}
	for _, tt := range tests {
		if got := ingredientNeed(tt.perCraft, tt.crafts, tt.rrr); got != tt.want {
			t.Errorf("ingredientNeed(%d, %d, %v) = %d, want %d", tt.perCraft, tt.crafts, tt.rrr, got, tt.want)
		}
	}
}

func TestPlan_InvalidInput(t *testing.T) {
	_, err := NewCraftingOptimizer().Plan(context.Background(), "T4_BAG", 1, 0, "", planParams(), bagCraftSnapshot(500))
	var ice *InvalidConstraintError
	if !errors.As(err, &ice) {
		t.Fatalf("err = %v, want InvalidConstraintError", err)
	}
	if len(ice.Problems) != 2 {
		t.Errorf("problems = %v, want 2", ice.Problems)
	}
}

func TestPlan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewCraftingOptimizer().Plan(ctx, "T4_BAG", 1, 1, "Martlock", planParams(), bagCraftSnapshot(500)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
