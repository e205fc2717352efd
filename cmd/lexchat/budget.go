package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/legal-assistant/internal/api"
)

func newBudgetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "budget",
		Short: "Show your spend against the daily and monthly limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(true)
			if err != nil {
				return err
			}
			b, err := c.Budget(cmd.Context())
			if err != nil {
				return explain(err)
			}
			line := func(name string, p api.BudgetPeriod) {
				fmt.Fprintf(a.out, "%-7s $%.4f of $%.2f (%.1f%%), $%.4f left, resets %s\n",
					name, p.SpentUSD, p.LimitUSD, p.PercentUsed, p.RemainingUSD, p.ResetsAt)
			}
			line("daily", b.Daily)
			line("monthly", b.Monthly)
			if b.AlertLevel != "" {
				fmt.Fprintf(a.out, "alert   %s\n", b.AlertLevel)
			}
			return nil
		},
	}
}
