package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"albion-flipper/internal/db"
	"albion-flipper/internal/engine"
	"albion-flipper/internal/logger"
	"albion-flipper/internal/recipes"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	flipsMinMargin  float64
	flipsRisk       string
	flipsMaxResults int
	flipsFrom       []string
	flipsTo         []string
	flipsStrategies []string
	flipsNoSave     bool
	flipsMinLiq     float64
)

var flipsCmd = &cobra.Command{
	Use:   "flips",
	Short: "Find profitable cross-city flips in the stored prices",
	Long: `Scan the local price database for buy-here, sell-there opportunities,
net of market tax and setup fees, ranked by ROI.

Examples:
  albion-flipper flips
  albion-flipper flips --from Martlock --to Lymhurst,Caerleon --risk high
  albion-flipper flips --strategy patient --min-margin 15`,
	RunE: runFlips,
}

func init() {
	rootCmd.AddCommand(flipsCmd)
	f := flipsCmd.Flags()
	f.Float64Var(&flipsMinMargin, "min-margin", 0, "minimum ROI in percent")
	f.StringVar(&flipsRisk, "risk", "", "risk tolerance: low, medium or high")
	f.IntVar(&flipsMaxResults, "max-results", 0, "maximum opportunities to list")
	f.StringSliceVar(&flipsFrom, "from", nil, "source cities")
	f.StringSliceVar(&flipsTo, "to", nil, "destination cities")
	f.StringSliceVar(&flipsStrategies, "strategy", nil, "strategies: fast, patient")
	f.Float64Var(&flipsMinLiq, "min-liquidity", 0, "skip routes with a liquidity score below this (0..1)")
	f.BoolVar(&flipsNoSave, "no-save", false, "do not record the scan in history")
}

func runFlips(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	if f.Changed("min-margin") {
		cfg.Flips.MinProfitMargin = flipsMinMargin
	}
	if f.Changed("risk") {
		cfg.Flips.RiskTolerance = flipsRisk
	}
	if f.Changed("max-results") {
		cfg.Flips.MaxResults = flipsMaxResults
	}
	if f.Changed("from") {
		cfg.Cities.Sources = flipsFrom
	}
	if f.Changed("to") {
		cfg.Cities.Destinations = flipsTo
	}
	if f.Changed("min-liquidity") {
		cfg.Flips.MinLiquidity = flipsMinLiq
	}
	if f.Changed("strategy") {
		cfg.Flips.Strategies = flipsStrategies
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	zones, err := loadZones()
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := searchFlips(cmd.Context(), database, cat, zones, params)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	logger.Section(fmt.Sprintf("Flips (%d)", len(results)))
	printFlips(os.Stdout, results)
	raiseAlerts(database, results)

	var top, total float64
	for _, r := range results {
		top = max(top, r.ExpectedProfit())
		total += r.ExpectedProfit()
	}
	if !flipsNoSave {
		id := database.InsertHistory("flips", "", len(results), top, total, elapsed.Milliseconds(), params)
		if id > 0 {
			database.InsertFlipResults(id, results)
			logger.Stats("scan_id", id)
		}
	}
	logger.Success("Flips", fmt.Sprintf("%d opportunities in %s, best %s silver",
		len(results), elapsed.Round(time.Millisecond), silver(top)))
	return nil
}

func searchFlips(ctx context.Context, database *db.DB, cat *recipes.Catalog, zones engine.RouteMap, params engine.Params) ([]engine.FlipOpportunity, error) {
	items, err := database.KnownItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		logger.Warn("Flips", "no stored prices, run fetch first")
		return nil, nil
	}

	cities := append(append([]engine.City(nil), params.SourceCities...), params.DestCities...)
	snap, err := engine.Resolve(ctx, engine.SnapshotRequest{
		Items:         items,
		Cities:        cities,
		Qualities:     params.Qualities,
		HistoryWindow: cfg.Fetch.HistoryWindow,
	}, database, cat, database)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	analyzer := engine.NewFlipAnalyzer(engine.NewRiskClassifier(cfg.DangerCities(), zones))
	return analyzer.Search(ctx, params, snap)
}

func printFlips(out io.Writer, results []engine.FlipOpportunity) {
	if len(results) == 0 {
		fmt.Fprintln(out, "no opportunities")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ITEM\tQ\tFROM\tTO\tSTRATEGY\tBUY\tSELL\tPROFIT\tROI%\tQTY\tRISK\tLIQ\tAGE\t")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%.1f\t%s\t%s\t%.2f\t%s\t\n",
			r.ItemID, r.Quality, r.SourceCity, r.DestCity, r.Strategy,
			silver(r.BuyPriceAfterFee),
			silver(r.SellPriceAfterFee),
			silver(r.Profit()),
			r.ROIPercent, humanize.Comma(int64(r.SuggestedQuantity)), r.RiskLevel, r.Liquidity,
			formatAge(r.DataAgeSeconds))
	}
	w.Flush()
}

func formatAge(seconds float64) string {
	return (time.Duration(seconds) * time.Second).Round(time.Minute).String()
}
