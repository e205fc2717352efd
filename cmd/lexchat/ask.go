package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/legal-assistant/internal/api"
	"github.com/suPer8Hu/legal-assistant/internal/common"
	"github.com/suPer8Hu/legal-assistant/internal/stream"
)

type askOptions struct {
	complexity string
	noStream   bool
	noHistory  bool
}

func newAskCmd(a *app) *cobra.Command {
	var o askOptions
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question and stream the answer (Ctrl-C stops it)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.complexity == "" {
				o.complexity = a.cfg.DefaultComplexity
			}
			if !api.ValidComplexity(o.complexity) {
				return fmt.Errorf("unknown complexity %q (simple, intermediate, advanced, expert)", o.complexity)
			}
			req := api.ChatRequest{
				Question:   strings.TrimSpace(strings.Join(args, " ")),
				Complexity: o.complexity,
				UserID:     a.userID(cmd.Context()),
			}
			if o.noStream {
				return a.askOnce(cmd.Context(), req, !o.noHistory)
			}
			return a.askStream(cmd.Context(), req, !o.noHistory, interrupts())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.complexity, "complexity", "c", "", "answer complexity: simple, intermediate, advanced or expert (LEGAL_COMPLEXITY)")
	f.BoolVar(&o.noStream, "no-stream", false, "use the non-streaming endpoint")
	f.BoolVar(&o.noHistory, "no-history", false, "do not store the transcript locally")
	return cmd
}

// interrupts delivers Ctrl-C presses until ctx is done.
func interrupts() func(ctx context.Context) <-chan struct{} {
	return func(ctx context.Context) <-chan struct{} {
		out := make(chan struct{}, 1)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		go func() {
			defer signal.Stop(sig)
			for {
				select {
				case <-sig:
					select {
					case out <- struct{}{}:
					default:
					}
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}
}

func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, a.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

// askStream renders the session as it grows: progress labels go to stderr,
// answer text to stdout. Text only ever grows within a session, so only the
// unseen suffix is printed.
func (a *app) askStream(ctx context.Context, req api.ChatRequest, keep bool, stops func(context.Context) <-chan struct{}) error {
	sc, err := a.streamClient()
	if err != nil {
		return err
	}
	defer sc.Close()

	rec, closeRec, err := a.recorder(keep)
	if err != nil {
		return err
	}
	defer closeRec()

	rctx, cancel := a.withTimeout(ctx)
	defer cancel()

	subCtx, stopSub := context.WithCancel(ctx)
	updates := sc.Subscribe(subCtx)
	printed, progress := 0, ""
	render := func(st stream.State) {
		if st.Progress != "" && st.Progress != progress {
			progress = st.Progress
			fmt.Fprintf(a.err, "… %s\n", progress)
		}
		if len(st.Text) > printed {
			fmt.Fprint(a.out, st.Text[printed:])
			printed = len(st.Text)
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range updates {
			render(ev.Payload)
		}
	}()

	go func() {
		select {
		case <-stops(subCtx):
			sc.Stop()
		case <-subCtx.Done():
		}
	}()

	if err := sc.Send(rctx, req); err != nil {
		stopSub()
		wg.Wait()
		return explain(err)
	}
	st, _ := sc.Wait(ctx)
	stopSub()
	wg.Wait()
	render(st)
	if printed > 0 {
		fmt.Fprintln(a.out)
	}

	if err := rec.Record(context.WithoutCancel(ctx), req, st); err != nil {
		a.log.WithError(err).Warn("transcript not saved")
	}

	switch st.Status {
	case stream.StatusStopped:
		fmt.Fprintln(a.err, "[stopped]")
		return nil
	case stream.StatusError:
		return errors.New(st.Err)
	}
	if st.Final != nil {
		a.printDetails(st.Final)
	}
	return nil
}

func (a *app) askOnce(ctx context.Context, req api.ChatRequest, keep bool) error {
	c, err := a.apiClient(true)
	if err != nil {
		return err
	}
	rec, closeRec, err := a.recorder(keep)
	if err != nil {
		return err
	}
	defer closeRec()

	id, err := common.NewULID()
	if err != nil {
		return err
	}
	req.RequestID = id

	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	ans, err := c.Ask(rctx, req)
	if err != nil {
		return explain(err)
	}
	fmt.Fprintln(a.out, ans.Answer)
	a.printDetails(ans)

	st := stream.State{RequestID: id, Status: stream.StatusComplete, Text: ans.Answer, Final: ans}
	if err := rec.Record(context.WithoutCancel(ctx), req, st); err != nil {
		a.log.WithError(err).Warn("transcript not saved")
	}
	return nil
}

func (a *app) printDetails(ans *api.Answer) {
	fmt.Fprintf(a.err, "confidence %.2f", ans.Confidence)
	if ans.FromCache {
		fmt.Fprint(a.err, " (cached)")
	}
	fmt.Fprintln(a.err)
	for i, d := range ans.SourceDocuments {
		fmt.Fprintf(a.err, "  [%d] %s", i+1, d.Source)
		if d.Page != nil {
			fmt.Fprintf(a.err, " p.%v", d.Page)
		}
		fmt.Fprintln(a.err)
	}
}
