// Package recipes loads crafting recipes from JSON and answers recipe lookups.
package recipes

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"albion-flipper/internal/engine"
)

type fileIngredient struct {
	ItemID        string `json:"item_id"`
	Quantity      int    `json:"quantity"`
	Substitutable bool   `json:"substitutable"`
}

type fileRecipe struct {
	ItemID              string           `json:"item_id"`
	Tier                int              `json:"tier"`
	Category            string           `json:"category"`
	Subcategory         string           `json:"subcategory"`
	OutputQuantity      int              `json:"output_quantity"`
	Ingredients         []fileIngredient `json:"ingredients"`
	StationType         string           `json:"station_type"`
	CraftingTimeSeconds int              `json:"crafting_time_seconds"`
	FocusCost           int              `json:"focus_cost"`
	ResourceReturnRate  *float64         `json:"resource_return_rate"`
}

type file struct {
	Metadata map[string]interface{} `json:"metadata"`
	Recipes  map[string]fileRecipe  `json:"recipes"`
}

// Catalog is an in-memory recipe set. It implements engine.RecipeRepository
// and is read-only after loading.
type Catalog struct {
	Metadata   map[string]interface{}
	recipes    map[string]engine.Recipe
	categories map[string]string
	explicitRR map[string]bool
}

// Parse decodes a recipe catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse recipes: %w", err)
	}
	c := &Catalog{
		Metadata:   f.Metadata,
		recipes:    make(map[string]engine.Recipe, len(f.Recipes)),
		categories: make(map[string]string, len(f.Recipes)),
		explicitRR: make(map[string]bool),
	}
	for key, r := range f.Recipes {
		id := r.ItemID
		if id == "" {
			id = key
		}
		out := r.OutputQuantity
		if out <= 0 {
			out = 1
		}
		rec := engine.Recipe{
			OutputItem:         id,
			OutputQuantity:     out,
			Tier:               r.Tier,
			CraftTimeSeconds:   r.CraftingTimeSeconds,
			StationRequirement: r.StationType,
			FocusCost:          r.FocusCost,
		}
		if rec.Tier == 0 {
			rec.Tier, _ = engine.ItemTier(id)
		}
		if r.ResourceReturnRate != nil {
			rec.ResourceReturnRate = *r.ResourceReturnRate
			c.explicitRR[id] = true
		}
		for _, ing := range r.Ingredients {
			rec.Ingredients = append(rec.Ingredients, engine.Ingredient{
				ItemID:        ing.ItemID,
				Quantity:      ing.Quantity,
				Substitutable: ing.Substitutable,
			})
		}
		c.recipes[id] = rec
		c.categories[id] = r.Category
	}
	return c, nil
}

// Load reads a recipe catalog from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

//go:embed recipes.json
var builtin embed.FS

// Default returns the built-in catalog of common royal-city recipes.
func Default() *Catalog {
	data, err := builtin.ReadFile("recipes.json")
	if err != nil {
		panic(err)
	}
	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return c
}

// ApplyDefaultReturnRate sets the resource return rate of every recipe that
// does not declare its own.
func (c *Catalog) ApplyDefaultReturnRate(rate float64) {
	for id, r := range c.recipes {
		if c.explicitRR[id] {
			continue
		}
		r.ResourceReturnRate = rate
		c.recipes[id] = r
	}
}

// Get implements engine.RecipeRepository.
func (c *Catalog) Get(itemID string) (engine.Recipe, bool) {
	r, ok := c.recipes[itemID]
	return r, ok
}

// Category returns the recipe's category, or "".
func (c *Catalog) Category(itemID string) string {
	return c.categories[itemID]
}

// Len returns the number of recipes.
func (c *Catalog) Len() int { return len(c.recipes) }

// Items returns every craftable item, sorted.
func (c *Catalog) Items() []string {
	out := make([]string, 0, len(c.recipes))
	for id := range c.recipes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Recipes returns all recipes ordered by output item.
func (c *Catalog) Recipes() []engine.Recipe {
	out := make([]engine.Recipe, 0, len(c.recipes))
	for _, id := range c.Items() {
		out = append(out, c.recipes[id])
	}
	return out
}

// Dependencies returns every item reachable from itemID through ingredient
// edges, excluding itemID itself.
func (c *Catalog) Dependencies(itemID string) []string {
	g := engine.RecipeClosure([]string{itemID}, c)
	out := make([]string, 0, len(g.Items))
	for _, id := range g.Items {
		if id != itemID {
			out = append(out, id)
		}
	}
	return out
}
