package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/inodb/vcfcompare/internal/duckdb"
	"github.com/inodb/vcfcompare/internal/quality"
	"github.com/inodb/vcfcompare/internal/variantset"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs exported with compare --export",
		Example: `  vcfcompare runs list runs.duckdb
  vcfcompare runs show runs.duckdb <run-id>
  vcfcompare runs show --axes depth runs.duckdb <run-id>
  vcfcompare runs delete runs.duckdb <run-id>`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newRunsListCmd())
	cmd.AddCommand(newRunsShowCmd())
	cmd.AddCommand(newRunsDeleteCmd())

	return cmd
}

func newRunsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <db>",
		Short: "List exported runs, oldest first",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openExisting(args[0])
			if err != nil {
				return err
			}
			defer store.Close()
			return runRunsList(cmd.OutOrStdout(), store)
		},
	}
}

func newRunsShowCmd() *cobra.Command {
	var axes string

	cmd := &cobra.Command{
		Use:   "show <db> <run-id>",
		Short: "Show the counts of an exported run",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var want quality.Axes
			if axes != "" {
				var err error
				if want, err = quality.ParseAxes(axes); err != nil {
					return usageError{err}
				}
			}
			store, err := openExisting(args[0])
			if err != nil {
				return err
			}
			defer store.Close()
			return runRunsShow(cmd.OutOrStdout(), store, args[1], want)
		},
	}
	cmd.Flags().StringVar(&axes, "axes", "", "Also print the stored strata of these axes")

	return cmd
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <db> <run-id>",
		Short: "Delete an exported run",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openExisting(args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := findRun(store, args[1]); err != nil {
				return err
			}
			if err := store.DeleteRun(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[1])
			return nil
		},
	}
}

// openExisting opens an export database without creating a new one.
func openExisting(path string) (*duckdb.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open export database: %w", err)
	}
	store, err := duckdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export database: %w", err)
	}
	return store, nil
}

func findRun(store *duckdb.Store, id string) (duckdb.Run, error) {
	runs, err := store.Runs()
	if err != nil {
		return duckdb.Run{}, err
	}
	r, ok := lo.Find(runs, func(r duckdb.Run) bool { return r.ID == id })
	if !ok {
		return duckdb.Run{}, fmt.Errorf("run %s not found", id)
	}
	return r, nil
}

func runRunsList(w io.Writer, store *duckdb.Store) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tMODE\tTRUTH\tCANDIDATE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Mode, r.Truth.Path, r.Candidate.Path)
	}
	return tw.Flush()
}

func runRunsShow(w io.Writer, store *duckdb.Store, id string, axes quality.Axes) error {
	r, err := findRun(store, id)
	if err != nil {
		return err
	}
	counts, err := store.Counts(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "run %s (%s)\n", r.ID, r.Mode)
	fmt.Fprintf(w, "truth:     %s (%d records)\n", r.Truth.Path, r.TruthRecords)
	fmt.Fprintf(w, "candidate: %s (%d records)\n\n", r.Candidate.Path, r.CandidateRecords)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tTP\tFP\tFN\tCM\tCANDIDATES\tTRUTH\tWARNINGS")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			c.Category, c.TP, c.FP, c.FN, c.CM, c.CandidateTotal, c.TruthTotal, c.Warnings)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, cat := range variantset.Categories {
		for _, axis := range axes {
			rows, err := store.Strata(id, cat, axis)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				continue
			}
			fmt.Fprintf(w, "\n%s / %s\n", cat, axis)
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BUCKET\tTP\tTP%\tTP CUM%\tFP\tFP%\tFP CUM%")
			for _, s := range rows {
				fmt.Fprintf(tw, "%d\t%d\t%.2f\t%.2f\t%d\t%.2f\t%.2f\n",
					s.Bucket, s.TPCount, s.TP, s.TPCum, s.FPCount, s.FP, s.FPCum)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}
