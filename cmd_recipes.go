package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"albion-flipper/internal/logger"

	"github.com/spf13/cobra"
)

var recipesCategory string

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Inspect the recipe catalog",
}

var recipesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List craftable items",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ITEM\tTIER\tCATEGORY\tOUT\tRRR\tINGREDIENTS")
		for _, r := range cat.Recipes() {
			category := cat.Category(r.OutputItem)
			if recipesCategory != "" && !strings.EqualFold(category, recipesCategory) {
				continue
			}
			parts := make([]string, len(r.Ingredients))
			for i, ing := range r.Ingredients {
				parts[i] = fmt.Sprintf("%dx %s", ing.Quantity, ing.ItemID)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%.2f\t%s\n",
				r.OutputItem, r.Tier, category, r.OutputQuantity, r.ResourceReturnRate, strings.Join(parts, ", "))
		}
		return w.Flush()
	},
}

var recipesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog for broken recipes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		rep := cat.Validate()
		for _, w := range rep.Warnings {
			logger.Warn("Recipes", w)
		}
		for _, e := range rep.Errors {
			logger.Error("Recipes", e)
		}
		if !rep.OK() {
			return fmt.Errorf("%d recipe errors", len(rep.Errors))
		}
		logger.Success("Recipes", fmt.Sprintf("%d recipes OK, %d warnings", cat.Len(), len(rep.Warnings)))
		return nil
	},
}

var recipesDepsCmd = &cobra.Command{
	Use:   "deps <item>",
	Short: "Show every item an item's recipe tree depends on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		item := strings.ToUpper(args[0])
		if _, ok := cat.Get(item); !ok {
			return fmt.Errorf("no recipe for %s", item)
		}
		for _, dep := range cat.Dependencies(item) {
			marker := "buy"
			if _, ok := cat.Get(dep); ok {
				marker = "craftable"
			}
			fmt.Printf("%s\t%s\n", dep, marker)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recipesCmd)
	recipesCmd.AddCommand(recipesListCmd, recipesValidateCmd, recipesDepsCmd)
	recipesListCmd.Flags().StringVar(&recipesCategory, "category", "", "only list this category")
}
