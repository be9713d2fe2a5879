package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vexxhost/ovirt-dr/internal/api"
	"github.com/vexxhost/ovirt-dr/internal/config"
	"github.com/vexxhost/ovirt-dr/internal/joblog"
)

var (
	historyLimit int
	listenAddr   string
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded failover and failback runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := requireHistory(cmd.Context())
		if err != nil {
			return err
		}
		defer tracker.Close()

		if len(args) == 1 {
			summary, err := tracker.GetRun(cmd.Context(), args[0])
			if errors.Is(err, joblog.ErrNotFound) {
				return fmt.Errorf("run %s not found", args[0])
			}
			if err != nil {
				return err
			}
			printRun(os.Stdout, summary)
			return nil
		}

		runs, err := tracker.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		printRuns(os.Stdout, runs)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run history over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := requireHistory(cmd.Context())
		if err != nil {
			return err
		}
		defer tracker.Close()

		addr := listenAddr
		if addr == "" {
			addr = config.NewResolver(conf, prompter).HistoryVars().Listen
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return api.Serve(ctx, addr, api.NewRouter(tracker))
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to list")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (defaults to [history] listen)")
}

func requireHistory(ctx context.Context) (*joblog.Tracker, error) {
	h := config.NewResolver(conf, prompter).HistoryVars()
	if h.DSN == "" {
		return nil, &config.Error{Section: config.SectionHistory, Key: "dsn", Err: errors.New("run history is not configured")}
	}
	db, err := joblog.Open(h.DSN)
	if err != nil {
		return nil, &config.Error{Section: config.SectionHistory, Key: "dsn", Err: err}
	}
	tracker := joblog.New(db)
	if err := tracker.EnsureSchema(ctx); err != nil {
		tracker.Close()
		return nil, err
	}
	return tracker, nil
}

func printRuns(w io.Writer, runs []joblog.Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tTARGET\tSOURCE\tSTARTED\tENDED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.JobType, r.Status, r.TargetHost, r.SourceMap, stamp(&r.StartedAt), stamp(r.EndedAt))
	}
	tw.Flush()
}

func printRun(w io.Writer, s *joblog.RunSummary) {
	fmt.Fprintf(w, "Run:     %s\n", s.Run.ID)
	fmt.Fprintf(w, "Type:    %s\n", s.Run.JobType)
	fmt.Fprintf(w, "Status:  %s\n", s.Run.Status)
	fmt.Fprintf(w, "Target:  %s\n", s.Run.TargetHost)
	fmt.Fprintf(w, "Source:  %s\n", s.Run.SourceMap)
	fmt.Fprintf(w, "Report:  %s\n", s.Run.ReportFile)
	fmt.Fprintf(w, "Started: %s\n", stamp(&s.Run.StartedAt))
	fmt.Fprintf(w, "Ended:   %s\n", stamp(s.Run.EndedAt))
	if s.Run.Error != nil {
		fmt.Fprintf(w, "Error:   %s\n", *s.Run.Error)
	}
	if len(s.Steps) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tSTEP\tSTATUS\tSTARTED\tENDED\tERROR")
	for _, st := range s.Steps {
		msg := ""
		if st.Error != nil {
			msg = *st.Error
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", st.Seq, st.Name, st.Status, stamp(&st.StartedAt), stamp(st.EndedAt), msg)
	}
	tw.Flush()
}

func stamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}
