package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"albion-flipper/internal/db"
	"albion-flipper/internal/engine"
	"albion-flipper/internal/logger"

	"github.com/spf13/cobra"
)

var watchMinROI float64

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "List tracked items",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ITEM\tMIN ROI%\tALERT\tLAST ALERT")
		for _, it := range database.GetWatchlist() {
			fmt.Fprintf(w, "%s\t%.1f\t%t\t%s\n", it.ItemID, it.MinROI, it.AlertEnabled, it.LastAlertAt)
		}
		return w.Flush()
	},
}

var watchAddCmd = &cobra.Command{
	Use:   "add <item>...",
	Short: "Track items; --min-roi enables alerts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()
		for _, a := range args {
			id := strings.ToUpper(a)
			added, err := trackItem(database, id, watchMinROI)
			if err != nil {
				return err
			}
			if added {
				logger.Success("Watchlist", "added "+id)
			} else {
				logger.Info("Watchlist", "updated "+id)
			}
		}
		return nil
	},
}

var watchRemoveCmd = &cobra.Command{
	Use:   "remove <item>...",
	Short: "Stop tracking items",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()
		for _, a := range args {
			database.DeleteWatchlistItem(strings.ToUpper(a))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchlistCmd)
	watchlistCmd.AddCommand(watchAddCmd, watchRemoveCmd)
	watchAddCmd.Flags().Float64Var(&watchMinROI, "min-roi", 0, "alert when a flip of this item reaches this ROI percent")
}

// trackItem adds itemID to the watchlist, or updates its alert threshold when
// it is already tracked. It reports whether the item was newly added.
func trackItem(database *db.DB, itemID string, minROI float64) (bool, error) {
	if database.HasWatchlistItem(itemID) {
		database.UpdateWatchlistItem(itemID, minROI, minROI > 0)
		return false, nil
	}
	if !database.AddWatchlistItem(db.WatchlistItem{ItemID: itemID, MinROI: minROI}) {
		return false, fmt.Errorf("add %s to watchlist failed", itemID)
	}
	return true, nil
}

// watchAlerts returns, per watched item with alerts on, the best opportunity
// whose ROI reaches the item's threshold. results must be ranked.
func watchAlerts(items []db.WatchlistItem, results []engine.FlipOpportunity) []engine.FlipOpportunity {
	threshold := make(map[string]float64)
	for _, it := range items {
		if it.AlertEnabled {
			threshold[it.ItemID] = it.MinROI
		}
	}
	var out []engine.FlipOpportunity
	seen := make(map[string]bool)
	for _, r := range results {
		minROI, ok := threshold[r.ItemID]
		if !ok || seen[r.ItemID] || r.ROIPercent < minROI {
			continue
		}
		seen[r.ItemID] = true
		out = append(out, r)
	}
	return out
}

func raiseAlerts(database *db.DB, results []engine.FlipOpportunity) {
	for _, r := range watchAlerts(database.GetWatchlist(), results) {
		logger.Warn("Alert", fmt.Sprintf("%s q%d %s -> %s: %.1f%% ROI (%s)",
			r.ItemID, r.Quality, r.SourceCity, r.DestCity, r.ROIPercent, r.Strategy))
		database.MarkAlerted(r.ItemID, time.Now())
	}
}
