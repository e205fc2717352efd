package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit    int
		beforeID uint64
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent questions and answers (newest first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.history()
			if err != nil {
				return err
			}
			user := ""
			if !all {
				user = a.userID(cmd.Context())
			}
			list, err := repo.ListRecent(cmd.Context(), user, limit, beforeID)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out, "no history")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWHEN\tSTATUS\tQUESTION\tANSWER")
			for _, t := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
					t.ID, t.CreatedAt.Local().Format("2006-01-02 15:04"), t.Status,
					clip(t.Question, 40), clip(t.Answer, 60))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if len(list) == limit {
				fmt.Fprintf(a.err, "more: lexchat history --before %d\n", list[len(list)-1].ID)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	cmd.Flags().Uint64Var(&beforeID, "before", 0, "only entries older than this id")
	cmd.Flags().BoolVar(&all, "all", false, "include every user's entries")
	return cmd
}

// clip shortens s to n runes on one line.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
