package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"albion-flipper/internal/logger"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyDays  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded scans",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tKIND\tCITY\tCOUNT\tTOP\tTOTAL\tTOOK")
		for _, r := range database.GetHistory(historyLimit) {
			when := r.Timestamp
			if t, err := time.Parse(time.RFC3339, r.Timestamp); err == nil {
				when = humanize.Time(t)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%dms\n",
				r.ID, when, r.Kind, r.City, r.Count, silver(r.TopProfit), silver(r.TotalProfit), r.DurationMs)
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the stored results of a flip scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid scan id %q", args[0])
		}
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		rec := database.GetHistoryByID(id)
		if rec == nil {
			return fmt.Errorf("scan %d not found", id)
		}
		logger.Section(fmt.Sprintf("Scan %d (%s, %s)", rec.ID, rec.Kind, rec.Timestamp))
		fmt.Printf("params: %s\n\n", rec.Params)
		if rec.Kind == "flips" {
			printFlips(os.Stdout, database.GetFlipResults(id))
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid scan id %q", args[0])
		}
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()
		if err := database.DeleteHistory(id); err != nil {
			return err
		}
		logger.Success("History", fmt.Sprintf("scan %d deleted", id))
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete scans older than --days (0 = all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()
		n, err := database.ClearHistory(historyDays)
		if err != nil {
			return err
		}
		logger.Success("History", fmt.Sprintf("%d scans removed", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd, historyDeleteCmd, historyClearCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of scans to list")
	historyClearCmd.Flags().IntVar(&historyDays, "days", 0, "keep scans newer than this many days")
}
