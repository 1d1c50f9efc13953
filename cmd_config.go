package main

import (
	"fmt"
	"os"

	"albion-flipper/internal/logger"

	"github.com/spf13/cobra"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or write configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write the effective configuration as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s exists (use --force to overwrite)", path)
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		logger.Success("Config", "written to "+path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Stats("server", cfg.Server)
		logger.Stats("premium", cfg.Premium)
		logger.Stats("sources", cfg.Cities.Sources)
		logger.Stats("destinations", cfg.Cities.Destinations)
		logger.Stats("high_danger", cfg.Cities.HighDanger)
		logger.Stats("min_profit_margin", cfg.Flips.MinProfitMargin)
		logger.Stats("risk_tolerance", cfg.Flips.RiskTolerance)
		logger.Stats("max_data_age", cfg.Flips.MaxDataAge.String())
		logger.Stats("crafting_city", cfg.Crafting.City)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
}
