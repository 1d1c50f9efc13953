package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"albion-flipper/internal/engine"
	"albion-flipper/internal/logger"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	craftQuality  int
	craftQuantity int
	craftCity     string
	craftFocus    bool
)

var craftCmd = &cobra.Command{
	Use:   "craft <item>",
	Short: "Plan the cheapest way to obtain an item: buy it, craft it, or mix",
	Long: `Walk the recipe tree of an item and decide at every node whether buying
or crafting is cheaper, using stored prices in the crafting city.

Examples:
  albion-flipper craft T4_BAG
  albion-flipper craft T5_MAIN_SWORD --qty 10 --city Fort\ Sterling --focus`,
	Args: cobra.ExactArgs(1),
	RunE: runCraft,
}

func init() {
	rootCmd.AddCommand(craftCmd)
	f := craftCmd.Flags()
	f.IntVarP(&craftQuality, "quality", "q", 1, "target quality 1..5")
	f.IntVarP(&craftQuantity, "qty", "n", 1, "units to obtain")
	f.StringVar(&craftCity, "city", "", "crafting city (default: crafting.city)")
	f.BoolVar(&craftFocus, "focus", false, "craft with focus")
}

func runCraft(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	itemID := strings.ToUpper(args[0])
	if craftCity != "" {
		cfg.Crafting.City = craftCity
	}
	if cmd.Flags().Changed("focus") {
		cfg.Crafting.UseFocus = craftFocus
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	city := engine.City(cfg.Crafting.City)
	quality := engine.Quality(craftQuality)

	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	start := time.Now()
	snap, err := engine.Resolve(ctx, engine.SnapshotRequest{
		Items:           []string{itemID},
		Cities:          []engine.City{city},
		Qualities:       withQuality([]engine.Quality{quality}, 1),
		WithIngredients: true,
	}, database, cat, nil)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	plan, err := engine.NewCraftingOptimizer().Plan(ctx, itemID, quality, craftQuantity, city, params, snap)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	logger.Section(fmt.Sprintf("%s x%d @ q%d in %s", itemID, craftQuantity, quality, city))
	printPlan(os.Stdout, plan)
	for _, w := range plan.Warnings {
		logger.Warn("Craft", w.String())
	}

	var saved float64
	if plan.BuyCost > 0 {
		saved = plan.BuyCost - plan.TotalCost
	}
	database.InsertHistory("craft", string(city), 1, saved, plan.TotalCost, elapsed.Milliseconds(), map[string]interface{}{
		"item":     itemID,
		"quality":  quality,
		"quantity": craftQuantity,
		"strategy": plan.Strategy,
		"focus":    params.UseFocus,
	})
	logger.Success("Craft", fmt.Sprintf("%s: %s silver", plan.Strategy, humanize.Commaf(math.Round(plan.TotalCost))))
	return nil
}

func printPlan(out io.Writer, plan *engine.CraftPlan) {
	fmt.Fprintf(out, "strategy  %s\n", plan.Strategy)
	fmt.Fprintf(out, "total     %s\n", silver(plan.TotalCost))
	if plan.BuyCost > 0 {
		fmt.Fprintf(out, "buy       %s\n", silver(plan.BuyCost))
	} else {
		fmt.Fprintln(out, "buy       n/a")
	}
	if plan.CraftCost > 0 {
		fmt.Fprintf(out, "craft     %s\n", silver(plan.CraftCost))
	}
	if plan.TotalTimeSeconds > 0 {
		fmt.Fprintf(out, "time      %s\n", time.Duration(plan.TotalTimeSeconds)*time.Second)
	}

	fmt.Fprintln(out)
	printStep(out, plan.Root, 0)

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUY\tQTY\tCOST")
	for _, s := range plan.ShoppingList {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ItemID, humanize.Comma(int64(s.Quantity)), silver(s.TotalCost))
	}
	w.Flush()
}

func printStep(out io.Writer, s *engine.PlanStep, depth int) {
	line := fmt.Sprintf("%s%s x%d  %s  %s", strings.Repeat("  ", depth), s.ItemID, s.Quantity, s.Decision, silver(s.Cost))
	if s.Decision == engine.Craft {
		line += fmt.Sprintf("  (%d crafts, station %s)", s.Crafts, silver(s.StationFee))
	}
	if s.ForcedBuy {
		line += "  [cycle]"
	}
	fmt.Fprintln(out, line)
	for _, c := range s.Ingredients {
		printStep(out, c, depth+1)
	}
}

func silver(v float64) string {
	return humanize.Commaf(math.Round(v))
}
