package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"albion-flipper/internal/config"
	"albion-flipper/internal/db"
	"albion-flipper/internal/graph"
	"albion-flipper/internal/logger"
	"albion-flipper/internal/recipes"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	dbPath     string
	verbose    bool
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "albion-flipper",
	Short: "Albion Online market flipping and crafting calculator",
	Long: `albion-flipper pulls market prices from the Albion Online Data Project,
finds profitable cross-city flips and plans the cheapest way to buy or craft
an item.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite price database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("CLI", err.Error())
		os.Exit(1)
	}
}

// cfg is loaded once per invocation by setup.
var cfg *config.Config

func setup() error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.Database = dbPath
	}
	if verbose {
		c.Logging.Level = "debug"
	}
	if err := logger.SetLevel(c.Logging.Level); err != nil {
		return err
	}
	logger.SetNoColor(noColor || c.Logging.NoColor)
	configureStdLog(c.Logging.Level)
	logger.Banner(version)
	cfg = c
	return nil
}

// configureStdLog shows the engine's [DEBUG] lines only at debug level.
func configureStdLog(level string) {
	if strings.EqualFold(level, "debug") {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(io.Discard)
}

func openDB() (*db.DB, error) {
	path := cfg.Database
	if path == "" {
		path = db.DefaultPath()
	}
	d, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return d, nil
}

func loadCatalog() (*recipes.Catalog, error) {
	var cat *recipes.Catalog
	if cfg.RecipesFile == "" {
		cat = recipes.Default()
	} else {
		c, err := recipes.Load(cfg.RecipesFile)
		if err != nil {
			return nil, err
		}
		cat = c
	}
	cat.ApplyDefaultReturnRate(cfg.Crafting.ResourceReturnRate)
	logger.Debug("Recipes", fmt.Sprintf("%d recipes loaded", cat.Len()))
	return cat, nil
}

func loadZones() (*graph.ZoneMap, error) {
	if cfg.ZoneMapFile == "" {
		return graph.DefaultRoyalContinent(), nil
	}
	return graph.LoadZoneMap(cfg.ZoneMapFile)
}
