package recipes

import (
	"fmt"
	"sort"
)

// Report lists problems found in a catalog. Errors make recipes unusable;
// warnings are informational.
type Report struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OK reports whether there are no errors.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Validate checks every recipe. Ingredients without a recipe of their own are
// raw materials and only produce a warning.
func (c *Catalog) Validate() Report {
	var rep Report
	for _, id := range c.Items() {
		r := c.recipes[id]
		if len(r.Ingredients) == 0 {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: recipe has no ingredients", id))
		}
		if r.ResourceReturnRate < 0 || r.ResourceReturnRate >= 1 {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: resource return rate %v out of range [0,1)", id, r.ResourceReturnRate))
		}
		if r.CraftTimeSeconds < 0 || r.FocusCost < 0 {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: negative craft time or focus cost", id))
		}
		for _, ing := range r.Ingredients {
			switch {
			case ing.ItemID == "":
				rep.Errors = append(rep.Errors, fmt.Sprintf("%s: ingredient without item id", id))
			case ing.ItemID == id:
				rep.Errors = append(rep.Errors, fmt.Sprintf("%s: recipe uses itself as ingredient", id))
			case ing.Quantity <= 0:
				rep.Errors = append(rep.Errors, fmt.Sprintf("%s: ingredient %s has quantity %d", id, ing.ItemID, ing.Quantity))
			}
			if _, ok := c.recipes[ing.ItemID]; !ok && ing.ItemID != "" {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: ingredient %s has no recipe and must be bought", id, ing.ItemID))
			}
		}
	}
	sort.Strings(rep.Errors)
	sort.Strings(rep.Warnings)
	return rep
}
