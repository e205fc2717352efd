package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/legal-assistant/internal/api"
)

func newEvalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Inspect and run stored evaluation runs",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(true)
			if err != nil {
				return err
			}
			runs, err := c.ListRuns(cmd.Context())
			if err != nil {
				return explain(err)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTORED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", r.ID, r.Name, time.UnixMilli(r.TS).Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}

	report := &cobra.Command{
		Use:   "report <name>",
		Short: "Print a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(true)
			if err != nil {
				return err
			}
			run, err := c.Report(cmd.Context(), args[0])
			if err != nil {
				return explain(err)
			}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		},
	}

	compare := &cobra.Command{
		Use:   "compare <base> <exp>",
		Short: "Diff the numeric metrics of two runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(true)
			if err != nil {
				return err
			}
			cmp, err := c.Compare(cmd.Context(), args[0], args[1])
			if err != nil {
				return explain(err)
			}
			names := make([]string, 0, len(cmp.Diffs))
			for k := range cmp.Diffs {
				names = append(names, k)
			}
			sort.Strings(names)
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "METRIC\tBASE\tEXP\tDELTA\tCHANGE\t")
			for _, k := range names {
				d := cmp.Diffs[k]
				fmt.Fprintf(tw, "%s\t%.4g\t%.4g\t%+.4g\t%+.1f%%\t\n", k, d.Base, d.Exp, d.Delta, d.PctChange)
			}
			return tw.Flush()
		},
	}

	var limit int
	var createdBy string
	run := &cobra.Command{
		Use:   "run <name>",
		Short: "Run the server-side evaluation set and store it under name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(true)
			if err != nil {
				return err
			}
			saved, err := c.RunAndStore(cmd.Context(), api.RunRequest{
				Name:      args[0],
				Limit:     limit,
				CreatedBy: createdBy,
				UserID:    a.userID(cmd.Context()),
			})
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(a.out, "stored run %q (id %d)\n", saved.Name, saved.ID)
			return nil
		},
	}
	run.Flags().IntVar(&limit, "limit", 0, "number of evaluation questions (server default when 0)")
	run.Flags().StringVar(&createdBy, "created-by", "", "author recorded with the run")

	cmd.AddCommand(list, report, compare, run)
	return cmd
}
