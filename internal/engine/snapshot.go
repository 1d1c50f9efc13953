package engine

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// PriceRepository looks up the most recent observation for (item, city, quality).
type PriceRepository interface {
	GetLatest(ctx context.Context, itemID string, city City, quality Quality) (PriceObservation, bool, error)
}

// RecipeRepository looks up the recipe for an item.
type RecipeRepository interface {
	Get(itemID string) (Recipe, bool)
}

// HistoryRepository returns observations for (item, city, quality) at or after since.
type HistoryRepository interface {
	History(ctx context.Context, itemID string, city City, quality Quality, since time.Time) ([]PriceObservation, error)
}

type priceKey struct {
	ItemID  string
	City    City
	Quality Quality
}

// Snapshot is the immutable set of prices and recipes one computation runs over.
// It is safe for concurrent reads.
type Snapshot struct {
	now     time.Time
	latest  map[priceKey]PriceObservation
	history map[priceKey][]PriceObservation
	recipes map[string]Recipe
	scope   []string
}

// NewSnapshot freezes the given observations and recipes as of now.
// Every distinct item among the observations is in flip scope.
func NewSnapshot(now time.Time, observations []PriceObservation, recipes []Recipe) *Snapshot {
	return newSnapshot(now, observations, recipes, nil)
}

func newSnapshot(now time.Time, observations []PriceObservation, recipes []Recipe, scope []string) *Snapshot {
	s := &Snapshot{
		now:     now,
		latest:  make(map[priceKey]PriceObservation),
		history: make(map[priceKey][]PriceObservation),
		recipes: make(map[string]Recipe, len(recipes)),
	}

	items := make(map[string]struct{})
	for _, o := range observations {
		items[o.ItemID] = struct{}{}
		// Future timestamps are invalid input and never enter the snapshot.
		if o.ObservedAt.After(now) {
			continue
		}
		k := priceKey{o.ItemID, o.City, o.Quality}
		s.history[k] = append(s.history[k], o)
		if cur, ok := s.latest[k]; !ok || o.ObservedAt.After(cur.ObservedAt) {
			s.latest[k] = o
		}
	}
	for k := range s.history {
		h := s.history[k]
		sort.SliceStable(h, func(i, j int) bool { return h[i].ObservedAt.Before(h[j].ObservedAt) })
	}
	for _, r := range recipes {
		s.recipes[r.OutputItem] = r
	}

	if scope == nil {
		scope = make([]string, 0, len(items))
		for id := range items {
			scope = append(scope, id)
		}
	} else {
		scope = append([]string(nil), scope...)
	}
	sort.Strings(scope)
	s.scope = dedupSorted(scope)
	return s
}

// Now is the evaluation time of the snapshot.
func (s *Snapshot) Now() time.Time { return s.now }

// Items returns the item identifiers in flip scope, sorted.
func (s *Snapshot) Items() []string {
	return append([]string(nil), s.scope...)
}

// Latest returns the freshest observation for the key.
func (s *Snapshot) Latest(itemID string, city City, quality Quality) (PriceObservation, bool) {
	o, ok := s.latest[priceKey{itemID, city, quality}]
	return o, ok
}

// History returns all observations for the key, oldest first. The slice must not be modified.
func (s *Snapshot) History(itemID string, city City, quality Quality) []PriceObservation {
	return s.history[priceKey{itemID, city, quality}]
}

// Get implements RecipeRepository over the frozen recipe set.
func (s *Snapshot) Get(itemID string) (Recipe, bool) {
	r, ok := s.recipes[itemID]
	return r, ok
}

// tier resolves an item's tier from its identifier or, failing that, its recipe.
func (s *Snapshot) tier(itemID string) (int, bool) {
	if t, ok := ItemTier(itemID); ok {
		return t, true
	}
	if r, ok := s.recipes[itemID]; ok && r.Tier > 0 {
		return r.Tier, true
	}
	return 0, false
}

// SnapshotRequest describes what Resolve must load.
type SnapshotRequest struct {
	Items         []string
	Cities        []City
	Qualities     []Quality
	Now           time.Time
	HistoryWindow time.Duration // 0 = DefaultLiquidityWindow
	// WithIngredients also loads prices for every item reachable through recipes.
	WithIngredients bool
}

// Resolve loads everything a computation needs into an immutable Snapshot.
// history may be nil, in which case only the latest observations are kept.
func Resolve(ctx context.Context, req SnapshotRequest, prices PriceRepository, recipes RecipeRepository, history HistoryRepository) (*Snapshot, error) {
	if req.Now.IsZero() {
		req.Now = time.Now().UTC()
	}
	window := req.HistoryWindow
	if window <= 0 {
		window = DefaultLiquidityWindow
	}

	items := req.Items
	var recipeSet []Recipe
	if recipes != nil {
		graph := RecipeClosure(req.Items, recipes)
		for _, id := range graph.Items {
			if r, ok := graph.Recipes[id]; ok {
				recipeSet = append(recipeSet, r)
			}
		}
		if req.WithIngredients {
			items = graph.Items
		}
	}

	var observations []PriceObservation
	since := req.Now.Add(-window)
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, city := range req.Cities {
			for _, q := range req.Qualities {
				var h []PriceObservation
				if history != nil {
					var err error
					h, err = history.History(ctx, item, city, q, since)
					if err != nil {
						return nil, fmt.Errorf("history %s/%s/q%d: %w", item, city, q, err)
					}
					observations = append(observations, h...)
				}
				if prices == nil {
					continue
				}
				o, ok, err := prices.GetLatest(ctx, item, city, q)
				if err != nil {
					return nil, fmt.Errorf("latest %s/%s/q%d: %w", item, city, q, err)
				}
				// The latest row usually sits inside the history window already.
				if ok && !containsObservation(h, o.ObservedAt) {
					observations = append(observations, o)
				}
			}
		}
	}
	return newSnapshot(req.Now, observations, recipeSet, req.Items), nil
}

func containsObservation(h []PriceObservation, at time.Time) bool {
	for _, o := range h {
		if o.ObservedAt.Equal(at) {
			return true
		}
	}
	return false
}

// RecipeGraph is the recipe closure of a set of root items.
type RecipeGraph struct {
	Items   []string          // every reachable item (roots included), sorted
	Recipes map[string]Recipe // recipes of the reachable craftable items
}

// RecipeClosure walks ingredient edges from roots. Cycles are tolerated: each
// item is expanded once.
func RecipeClosure(roots []string, recipes RecipeRepository) RecipeGraph {
	g := RecipeGraph{Recipes: make(map[string]Recipe)}
	visited := make(map[string]bool)
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		g.Items = append(g.Items, id)
		r, ok := recipes.Get(id)
		if !ok {
			continue
		}
		g.Recipes[id] = r
		for _, ing := range r.Ingredients {
			if !visited[ing.ItemID] {
				queue = append(queue, ing.ItemID)
			}
		}
	}
	sort.Strings(g.Items)
	return g
}

func dedupSorted(s []string) []string {
	if len(s) < 2 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
