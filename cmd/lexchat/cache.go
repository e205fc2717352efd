package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/legal-assistant/internal/api"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the server's answer cache",
	}

	info := &cobra.Command{
		Use:   "info",
		Short: "Show cached key counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(true)
			if err != nil {
				return err
			}
			in, err := c.CacheInfo(cmd.Context())
			if err != nil {
				return explain(err)
			}
			backend := "memory"
			if in.UsingRedis {
				backend = "redis"
			}
			fmt.Fprintf(a.out, "backend %s\nqueries %d\nlatency %d\nother   %d\ntotal   %d\n",
				backend, in.QueryCount, in.LatencyCount, in.OtherCount, in.TotalKeys)
			return nil
		},
	}

	var what string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached queries, latency samples, or both",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(true)
			if err != nil {
				return err
			}
			var fn func(context.Context) (*api.CacheCleared, error)
			switch what {
			case "queries":
				fn = c.ClearQueries
			case "latency":
				fn = c.ClearLatency
			case "all":
				fn = c.ClearAll
			default:
				return fmt.Errorf("--what must be queries, latency or all (got %q)", what)
			}
			out, err := fn(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintln(a.out, out.Message)
			return nil
		},
	}
	clearCmd.Flags().StringVar(&what, "what", "queries", "queries, latency or all")

	cmd.AddCommand(info, clearCmd)
	return cmd
}
