package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLatencyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latency",
		Short: "Show response-time percentiles recorded by the server",
	}

	var user string
	stats := &cobra.Command{
		Use:   "stats <endpoint>",
		Short: "Percentiles of one endpoint, e.g. enhanced-chat or chat/stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(true)
			if err != nil {
				return err
			}
			rep, err := c.LatencyStats(cmd.Context(), args[0], user)
			if err != nil {
				return explain(err)
			}
			s := rep.Stats
			if s.Count == 0 {
				fmt.Fprintf(a.out, "no samples for %s\n", rep.Endpoint)
				return nil
			}
			fmt.Fprintf(a.out, "endpoint %s\ncount    %.0f\nmin      %.1f ms\nmax      %.1f ms\nmedian   %.1f ms\nmean     %.1f ms\np95      %.1f ms\np99      %.1f ms\n",
				rep.Endpoint, s.Count, s.MinMs, s.MaxMs, s.MedianMs, s.MeanMs, s.P95Ms, s.P99Ms)
			return nil
		},
	}
	stats.Flags().StringVar(&user, "user", "", "only samples of this user id")

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Percentiles of every endpoint with samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(true)
			if err != nil {
				return err
			}
			sum, err := c.LatencySummary(cmd.Context())
			if err != nil {
				return explain(err)
			}
			names := make([]string, 0, len(sum.Endpoints))
			for ep := range sum.Endpoints {
				names = append(names, ep)
			}
			sort.Strings(names)
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ENDPOINT\tCOUNT\tMEDIAN\tP95\tP99")
			for _, ep := range names {
				s := sum.Endpoints[ep]
				fmt.Fprintf(tw, "%s\t%.0f\t%.1f\t%.1f\t%.1f\n", ep, s.Count, s.MedianMs, s.P95Ms, s.P99Ms)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(stats, summary)
	return cmd
}
