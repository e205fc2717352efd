package main

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/suPer8Hu/legal-assistant/internal/api"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lexchat",
		Short: "Ask the legal assistant from your terminal",
		Long: `lexchat streams answers from the legal-assistant API, keeps your login
and a local history of what you asked, and exposes the evaluation and cache
administration endpoints.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.APIBaseURL = strings.TrimRight(a.cfg.APIBaseURL, "/")
			if lvl, err := logrus.ParseLevel(a.cfg.LogLevel); err == nil {
				a.log.SetLevel(lvl)
			}
			if !api.ValidComplexity(a.cfg.DefaultComplexity) {
				a.cfg.DefaultComplexity = api.ComplexitySimple
			}
			return nil
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.err)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfg.APIBaseURL, "api-url", a.cfg.APIBaseURL, "legal-assistant API base URL (LEGAL_API_URL)")
	pf.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (LOG_LEVEL)")
	pf.StringVar(&a.cfg.UserID, "user-id", a.cfg.UserID, "user id sent with questions (LEGAL_USER_ID)")

	root.AddCommand(
		newAskCmd(a),
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newHistoryCmd(a),
		newEvalCmd(a),
		newCacheCmd(a),
		newLatencyCmd(a),
		newBudgetCmd(a),
	)
	return root
}
