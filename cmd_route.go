package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"albion-flipper/internal/engine"
	"albion-flipper/internal/graph"

	"github.com/spf13/cobra"
)

var (
	routeHops     int
	routeSafeOnly bool
)

var routeCmd = &cobra.Command{
	Use:   "route <from> [to]",
	Short: "Show travel distance and risk between territories",
	Long: `With two territories, print the road count of the shortest and the
safest (blue/yellow only) route plus the risk class a flip along it gets.
With one territory, list everything within --hops roads.

Examples:
  albion-flipper route Martlock Caerleon
  albion-flipper route Lymhurst --hops 2 --safe`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		zones, err := loadZones()
		if err != nil {
			return err
		}
		for _, a := range args {
			if !zones.Has(a) {
				return fmt.Errorf("unknown territory %q", a)
			}
		}
		if len(args) == 1 {
			printNearby(zones, args[0])
			return nil
		}

		from, to := args[0], args[1]
		risk := engine.NewRiskClassifier(cfg.DangerCities(), zones)
		fmt.Printf("%s (%s) -> %s (%s)\n", from, zoneOf(zones, from), to, zoneOf(zones, to))
		fmt.Printf("shortest  %s\n", hops(zones.ShortestPath(from, to)))
		fmt.Printf("safe      %s\n", hops(zones.SafePath(from, to)))
		// Liquid, stable market: only the route decides the class.
		fmt.Printf("risk      %s\n", risk.Classify(engine.City(from), engine.City(to), 1, 0))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routeCmd)
	routeCmd.Flags().IntVar(&routeHops, "hops", 1, "radius for the single-territory listing")
	routeCmd.Flags().BoolVar(&routeSafeOnly, "safe", false, "only walk blue/yellow territory")
}

func printNearby(zones *graph.ZoneMap, origin string) {
	near := zones.WithinHops(origin, routeHops, routeSafeOnly)
	names := make([]string, 0, len(near))
	for t := range near {
		names = append(names, t)
	}
	sort.Slice(names, func(i, j int) bool {
		if near[names[i]] != near[names[j]] {
			return near[names[i]] < near[names[j]]
		}
		return names[i] < names[j]
	})
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TERRITORY\tZONE\tHOPS")
	for _, t := range names {
		fmt.Fprintf(w, "%s\t%s\t%d\n", t, zoneOf(zones, t), near[t])
	}
	w.Flush()
	fmt.Printf("\n%d of %d territories\n", len(names), len(zones.Territories()))
}

func zoneOf(zones *graph.ZoneMap, t string) graph.Zone {
	z, _ := zones.Zone(t)
	return z
}

func hops(n int) string {
	if n < 0 {
		return "unreachable"
	}
	return fmt.Sprintf("%d roads", n)
}
