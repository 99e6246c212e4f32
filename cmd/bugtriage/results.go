package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/bugtriage/internal/store"
	"github.com/ShayCichocki/bugtriage/internal/tui"
	"github.com/ShayCichocki/bugtriage/pkg/models"
)

var (
	resultsLimit  int
	resultsOffset int
	resultsJSON   bool
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored triage results",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored results, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			results, err := st.List(cmd.Context(), resultsLimit, resultsOffset)
			if err != nil {
				return err
			}
			if resultsJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			printResultTable(cmd.OutOrStdout(), results)
			return nil
		})
	},
}

var resultsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one stored result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			res, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		})
	},
}

var resultsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

var resultsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of stored results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			n, err := st.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		})
	},
}

var resultsBrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored results in a terminal UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			return tui.Run(cmd.Context(), st, resultsLimit)
		})
	},
}

func init() {
	resultsCmd.PersistentFlags().IntVar(&resultsLimit, "limit", store.DefaultListLimit, "Maximum results to show")
	resultsListCmd.Flags().IntVar(&resultsOffset, "offset", 0, "Results to skip")
	resultsListCmd.Flags().BoolVar(&resultsJSON, "json", false, "Print results as JSON")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsGetCmd)
	resultsCmd.AddCommand(resultsDeleteCmd)
	resultsCmd.AddCommand(resultsCountCmd)
	resultsCmd.AddCommand(resultsBrowseCmd)
}

func withStore(fn func(store.Store) error) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResultTable(w io.Writer, results []models.StoredResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No stored results.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSEVERITY\tCATEGORY\tLABEL\tTITLE")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Severity,
			r.Category,
			r.Label,
			r.Title,
		)
	}
	tw.Flush()
}
