package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/bugtriage/internal/store"
	"github.com/ShayCichocki/bugtriage/internal/triage"
	"github.com/ShayCichocki/bugtriage/pkg/models"
)

var (
	runParallel int
	runJSON     bool
	runSave     bool
)

var runCmd = &cobra.Command{
	Use:   "run <report.json>...",
	Short: "Triage report files",
	Long: `Triage one or more failure report files and print the verdicts.

Each file holds one report object or an array of reports. Use "-" to read
from standard input. Reports are triaged concurrently (--parallel) and
printed in input order.

Use --save to also store the results in the configured result store.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTriage,
}

func init() {
	runCmd.Flags().IntVar(&runParallel, "parallel", 4, "Maximum reports triaged at once")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print results as a JSON array")
	runCmd.Flags().BoolVar(&runSave, "save", false, "Store results in the result store")
}

func runTriage(cmd *cobra.Command, args []string) error {
	var reports []models.FailureReport
	for _, path := range args {
		rs, err := readReports(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		reports = append(reports, rs...)
	}

	var st store.Store
	if runSave {
		var err error
		st, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	engine, err := buildEngine(cfg, st, nil)
	if err != nil {
		return err
	}

	results, err := triageAll(cmd.Context(), engine, st, reports, runParallel)
	if err != nil {
		return err
	}

	if runJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printSummary(cmd.OutOrStdout(), results)
	return nil
}

// triageAll triages reports with at most parallel in flight. Results keep
// the input order.
func triageAll(ctx context.Context, engine *triage.Engine, st store.Store, reports []models.FailureReport, parallel int) ([]models.StoredResult, error) {
	results := make([]models.StoredResult, len(reports))

	g, ctx := errgroup.WithContext(ctx)
	if parallel < 1 {
		parallel = 1
	}
	g.SetLimit(parallel)

	for i, r := range reports {
		g.Go(func() error {
			res := engine.Triage(ctx, r)
			stored := models.StoredResult{
				Fingerprint:  triage.Fingerprint(r),
				TriageResult: *res,
			}
			if st != nil {
				saved, err := st.Create(ctx, stored.Fingerprint, res)
				if err != nil {
					return fmt.Errorf("store result for %s: %w", r.TestName, err)
				}
				stored = *saved
			}
			results[i] = stored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// readReports decodes one report or an array of reports from path.
func readReports(path string, stdin io.Reader) ([]models.FailureReport, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("read %s: empty input", path)
	}

	if trimmed[0] == '[' {
		var reports []models.FailureReport
		if err := json.Unmarshal(trimmed, &reports); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return reports, nil
	}

	var report models.FailureReport
	if err := json.Unmarshal(trimmed, &report); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return []models.FailureReport{report}, nil
}

func severityColor(s models.Severity) *color.Color {
	switch s {
	case models.SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case models.SeverityHigh:
		return color.New(color.FgRed)
	case models.SeverityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

func printSummary(w io.Writer, results []models.StoredResult) {
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", severityColor(r.Severity).Sprintf("[%s]", r.Severity), bold.Sprint(r.Title))
		fmt.Fprintf(w, "  %s %s\n", dim.Sprint("test:      "), r.TestName)
		fmt.Fprintf(w, "  %s %s (%.2f)\n", dim.Sprint("category:  "), r.Category, r.Confidence)
		fmt.Fprintf(w, "  %s %s\n", dim.Sprint("label:     "), r.Label)
		fmt.Fprintf(w, "  %s %s:%d\n", dim.Sprint("location:  "), r.FilePath, r.LineNumber)
		if r.IsFlaky {
			fmt.Fprintf(w, "  %s %s\n", color.YellowString("flaky:     "), strings.Join(r.FlakinessReasons, "; "))
		}
		if r.ID != "" {
			fmt.Fprintf(w, "  %s %s\n", dim.Sprint("id:        "), r.ID)
		}
	}

	flaky := 0
	for _, r := range results {
		if r.IsFlaky {
			flaky++
		}
	}
	fmt.Fprintf(w, "\n%s %d triaged, %d flaky\n", color.GreenString("✓"), len(results), flaky)
}
