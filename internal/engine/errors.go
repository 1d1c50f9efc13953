package engine

import (
	"fmt"
	"strings"
)

// InvalidPriceError is returned for a non-positive input price.
type InvalidPriceError struct {
	Price float64
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price %v: must be > 0", e.Price)
}

// MissingMarketDataError means an item has neither a usable price nor a recipe.
type MissingMarketDataError struct {
	ItemID  string
	City    City
	Quality Quality
}

func (e *MissingMarketDataError) Error() string {
	return fmt.Sprintf("no market data for %s (q%d) in %s and no recipe to craft it", e.ItemID, e.Quality, e.City)
}

// InvalidConstraintError reports empty or contradictory parameters.
type InvalidConstraintError struct {
	Problems []string
}

func (e *InvalidConstraintError) Error() string {
	return "invalid constraints: " + strings.Join(e.Problems, "; ")
}

// RecipeCycleWarning records a recipe cycle that was broken by forcing Buy.
// It is collected on the plan, never returned as an error.
type RecipeCycleWarning struct {
	ItemID string   `json:"item_id"`
	Path   []string `json:"path"` // active recursion stack at the time of the revisit
}

func (w RecipeCycleWarning) String() string {
	return fmt.Sprintf("recipe cycle at %s: %s", w.ItemID, strings.Join(append(append([]string{}, w.Path...), w.ItemID), " -> "))
}
