package engine

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
)

// ingredientQuality is the quality ingredients are priced at. Raw and refined
// resources only trade at Normal quality.
const ingredientQuality Quality = 1

// CraftingOptimizer decides, per node of the recipe graph, whether to buy the
// item or craft it from ingredients, minimising total acquisition cost.
type CraftingOptimizer struct{}

// NewCraftingOptimizer returns a stateless optimizer. Memoization lives in each Plan call.
func NewCraftingOptimizer() *CraftingOptimizer {
	return &CraftingOptimizer{}
}

type memoKey struct {
	itemID   string
	quality  Quality
	city     City
	quantity int
}

// planNode is the evaluated cost of acquiring quantity units of one item.
type planNode struct {
	key       NodeKey
	decision  Decision
	cost      float64
	time      int
	forced    bool
	craftable bool

	buyCost float64
	buyOK   bool

	craftCost  float64
	craftOK    bool
	craftTime  int
	crafts     int
	stationFee float64
	children   []*planNode

	err error
}

// planner carries the state of a single Plan call.
type planner struct {
	snap     *Snapshot
	params   Params
	fees     FeeCalculator
	city     City
	memo     map[memoKey]*planNode
	onStack  map[string]bool
	path     []string
	warnings []RecipeCycleWarning
}

// Plan computes the minimal-cost way to obtain quantity units of itemID at the
// given quality in city. Ties between buying and crafting resolve to Buy.
func (o *CraftingOptimizer) Plan(ctx context.Context, itemID string, quality Quality, quantity int, city City, params Params, snap *Snapshot) (*CraftPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := params.validatePlan(itemID, quality, quantity, city); err != nil {
		return nil, err
	}

	p := &planner{
		snap:    snap,
		params:  params,
		fees:    NewFeeCalculator(params.Fees),
		city:    city,
		memo:    make(map[memoKey]*planNode),
		onStack: make(map[string]bool),
	}
	root, err := p.cost(itemID, quality, quantity)
	if err != nil {
		return nil, err
	}

	plan := &CraftPlan{
		TargetItem:       itemID,
		Quality:          quality,
		City:             city,
		TargetQuantity:   quantity,
		Decisions:        make(map[NodeKey]Decision),
		TotalCost:        root.cost,
		TotalTimeSeconds: root.time,
		Warnings:         p.warnings,
	}
	if root.buyOK {
		plan.BuyCost = root.buyCost
	}
	if root.craftOK {
		plan.CraftCost = root.craftCost
	}
	plan.Root = buildStep(root, plan.Decisions)
	plan.ShoppingList = shoppingList(root)
	plan.Strategy = planStrategy(root)

	log.Printf("[DEBUG] craft: %s x%d in %s -> %s, cost %.0f, %d memo entries, %d cycle warnings",
		itemID, quantity, city, plan.Strategy, plan.TotalCost, len(p.memo), len(p.warnings))
	return plan, nil
}

// cost returns min(buyCost, craftCost) for the node, memoized per call.
func (p *planner) cost(itemID string, quality Quality, quantity int) (*planNode, error) {
	key := memoKey{itemID, quality, p.city, quantity}
	if n, ok := p.memo[key]; ok {
		return n, n.err
	}
	nodeKey := NodeKey{ItemID: itemID, Quality: quality, Quantity: quantity}

	if p.onStack[itemID] {
		// Revisiting an item on the active path: break the cycle by buying.
		p.warnings = append(p.warnings, RecipeCycleWarning{
			ItemID: itemID,
			Path:   append([]string(nil), p.path...),
		})
		n := &planNode{key: nodeKey, decision: Buy, forced: true, craftable: true}
		n.buyCost, n.buyOK = p.buyCost(itemID, quality, quantity)
		if !n.buyOK {
			return nil, &MissingMarketDataError{ItemID: itemID, City: p.city, Quality: quality}
		}
		n.cost = n.buyCost
		return n, nil
	}

	p.onStack[itemID] = true
	p.path = append(p.path, itemID)
	defer func() {
		delete(p.onStack, itemID)
		p.path = p.path[:len(p.path)-1]
	}()

	n := &planNode{key: nodeKey}
	n.buyCost, n.buyOK = p.buyCost(itemID, quality, quantity)

	var craftErr error
	if recipe, ok := p.snap.Get(itemID); ok {
		n.craftable = true
		craftErr = p.craftCost(n, recipe, quantity)
	}

	switch {
	case n.buyOK && (!n.craftOK || n.buyCost <= n.craftCost):
		n.decision = Buy
		n.cost = n.buyCost
	case n.craftOK:
		n.decision = Craft
		n.cost = n.craftCost
		n.time = n.craftTime
	default:
		var missing *MissingMarketDataError
		if errors.As(craftErr, &missing) {
			n.err = craftErr
		} else {
			n.err = &MissingMarketDataError{ItemID: itemID, City: p.city, Quality: quality}
		}
	}
	p.memo[key] = n
	return n, n.err
}

// buyCost is quantity × instant buy price at the plan city. Stale, future
// and non-positive prices count as absent.
func (p *planner) buyCost(itemID string, quality Quality, quantity int) (float64, bool) {
	o, ok := p.snap.Latest(itemID, p.city, quality)
	if !ok || !usableAge(o, p.snap.Now(), p.params.MaxDataAgeSeconds) {
		return 0, false
	}
	unit, err := p.fees.BuyAfterFee(o.SellPriceMin, Instant, p.params.Premium)
	if err != nil {
		return 0, false
	}
	return unit * float64(quantity), true
}

// craftCost fills the craft option of n. An ingredient without any option
// makes crafting unavailable and its error is returned.
func (p *planner) craftCost(n *planNode, recipe Recipe, quantity int) error {
	outQty := recipe.OutputQuantity
	if outQty <= 0 {
		outQty = 1
	}
	crafts := (quantity + outQty - 1) / outQty

	rrr := recipe.ResourceReturnRate
	if p.params.UseFocus && p.params.FocusReturnRate > rrr {
		rrr = p.params.FocusReturnRate
	}
	rrr = math.Min(math.Max(rrr, 0), 0.99)

	var materials float64
	var childTime int
	children := make([]*planNode, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		if ing.Quantity <= 0 {
			continue
		}
		need := ingredientNeed(ing.Quantity, crafts, rrr)
		child, err := p.cost(ing.ItemID, ingredientQuality, need)
		if err != nil {
			return err
		}
		materials += child.cost
		childTime += child.time
		children = append(children, child)
	}

	n.stationFee = p.fees.StationFee(materials)
	total := materials + n.stationFee
	if p.params.UseFocus {
		total += float64(recipe.FocusCost*crafts) * p.params.FocusPointValue
	}
	n.craftOK = true
	n.craftCost = total
	n.crafts = crafts
	n.children = children
	n.craftTime = recipe.CraftTimeSeconds*crafts + childTime
	return nil
}

// ingredientNeed is ceil(perCraft × crafts × (1 − rrr)), tolerant of float noise.
func ingredientNeed(perCraft, crafts int, rrr float64) int {
	need := int(math.Ceil(float64(perCraft*crafts)*(1-rrr) - 1e-9))
	if need < 1 {
		return 1
	}
	return need
}

// buildStep materialises the chosen tree and records every decision.
func buildStep(n *planNode, decisions map[NodeKey]Decision) *PlanStep {
	decisions[n.key] = n.decision
	step := &PlanStep{
		ItemID:    n.key.ItemID,
		Quantity:  n.key.Quantity,
		Decision:  n.decision,
		Cost:      n.cost,
		ForcedBuy: n.forced,
	}
	if n.decision == Craft {
		step.Crafts = n.crafts
		step.StationFee = n.stationFee
		for _, c := range n.children {
			step.Ingredients = append(step.Ingredients, buildStep(c, decisions))
		}
	}
	return step
}

// shoppingList flattens the bought leaves of the chosen tree, most expensive first.
func shoppingList(root *planNode) []ShoppingItem {
	byItem := make(map[string]*ShoppingItem)
	var collect func(n *planNode)
	collect = func(n *planNode) {
		if n.decision == Craft {
			for _, c := range n.children {
				collect(c)
			}
			return
		}
		if s, ok := byItem[n.key.ItemID]; ok {
			s.Quantity += n.key.Quantity
			s.TotalCost += n.cost
			return
		}
		byItem[n.key.ItemID] = &ShoppingItem{ItemID: n.key.ItemID, Quantity: n.key.Quantity, TotalCost: n.cost}
	}
	collect(root)

	out := make([]ShoppingItem, 0, len(byItem))
	for _, s := range byItem {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCost != out[j].TotalCost {
			return out[i].TotalCost > out[j].TotalCost
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// planStrategy labels the tree: buy when the root is bought, craft when every
// reachable craftable node is crafted, hybrid otherwise.
func planStrategy(root *planNode) PlanStrategy {
	if root.decision == Buy {
		return PlanBuy
	}
	var boughtCraftable func(n *planNode) bool
	boughtCraftable = func(n *planNode) bool {
		if n.decision == Buy {
			return n.craftable
		}
		for _, c := range n.children {
			if boughtCraftable(c) {
				return true
			}
		}
		return false
	}
	if boughtCraftable(root) {
		return PlanHybrid
	}
	return PlanCraft
}
