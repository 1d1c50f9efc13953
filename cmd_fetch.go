package main

import (
	"fmt"
	"strings"
	"time"

	"albion-flipper/internal/engine"
	"albion-flipper/internal/logger"
	"albion-flipper/internal/market"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var fetchItems []string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download current market prices into the local database",
	Long: `Fetch current prices from the Albion Online Data Project for every item
in the recipe catalog and the watchlist (ingredients included) across the configured cities
and qualities, then store them in the local database.

Examples:
  albion-flipper fetch
  albion-flipper fetch --items T4_BAG,T5_BAG`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringSliceVar(&fetchItems, "items", nil, "item IDs to fetch (default: whole recipe catalog)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	items := fetchItems
	if len(items) == 0 {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		roots := append(cat.Items(), database.WatchlistIDs()...)
		items = engine.RecipeClosure(roots, cat).Items
	}

	client, err := market.NewClient(market.Options{
		Server:            cfg.Server,
		ChunkSize:         cfg.Fetch.ChunkSize,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		CacheTTL:          cfg.Fetch.CacheTTL,
		BreakerFailures:   cfg.Fetch.BreakerFailures,
		Timeout:           cfg.Fetch.Timeout,
	})
	if err != nil {
		return err
	}

	// Ingredients are priced at normal quality.
	qualities := withQuality(cfg.Qualities(), 1)
	cities := cfg.AllCities()
	logger.Info("Fetch", fmt.Sprintf("%d items x %d cities x %d qualities from %s",
		len(items), len(cities), len(qualities), client.Server()))

	start := time.Now()
	obs, err := client.FetchPrices(ctx, items, cities, qualities)
	if err != nil {
		return fmt.Errorf("fetch prices: %w", err)
	}
	inserted, err := database.InsertObservations(ctx, obs)
	if err != nil {
		return fmt.Errorf("store prices: %w", err)
	}
	removed, err := database.CleanupOldPrices(cfg.Fetch.Retention)
	if err != nil {
		logger.Warn("DB", fmt.Sprintf("cleanup failed: %v", err))
	}

	logger.Success("Fetch", fmt.Sprintf("%s observations, %s new, in %s",
		humanize.Comma(int64(len(obs))), humanize.Comma(int64(inserted)), time.Since(start).Round(time.Millisecond)))
	if removed > 0 {
		logger.Stats("pruned", removed)
	}
	logger.Stats("items", strings.Join(truncateList(items, 8), ","))
	return nil
}

func truncateList(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	out := append([]string(nil), s[:n]...)
	return append(out, fmt.Sprintf("+%d more", len(s)-n))
}

func withQuality(qs []engine.Quality, q engine.Quality) []engine.Quality {
	for _, x := range qs {
		if x == q {
			return qs
		}
	}
	return append(append([]engine.Quality(nil), qs...), q)
}
