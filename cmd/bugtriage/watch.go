package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/bugtriage/internal/logging"
	"github.com/ShayCichocki/bugtriage/internal/watch"
	"github.com/ShayCichocki/bugtriage/pkg/models"
)

var (
	watchBacklog bool
	watchSettle  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Triage report files dropped into a directory",
	Long: `Watch a directory for new *.json failure reports.

Each report is triaged, stored in the result store and answered with a
sibling <name>.triage.json file. Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchBacklog, "backlog", true, "Also triage reports already in the directory that have no answer yet")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle, "Quiet period before a changed file is read")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	engine, err := buildEngine(cfg, st, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := watch.New(args[0], engine, st,
		watch.WithBacklog(watchBacklog),
		watch.WithSettle(watchSettle),
		watch.WithLogger(logging.New("watch")),
		watch.WithResultFunc(func(path string, res *models.StoredResult, err error) {
			if err != nil {
				fmt.Fprintf(out, "%s %s: %v\n", color.RedString("✗"), path, err)
				return
			}
			fmt.Fprintf(out, "%s %s %s %s\n", color.GreenString("✓"), path,
				severityColor(res.Severity).Sprintf("[%s]", res.Severity), res.Title)
		}),
	)

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(ctx)
}
