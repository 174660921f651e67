package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gwlsn/cutscan/internal/cutlist"
	"github.com/gwlsn/cutscan/internal/store"
)

var errNoStore = errors.New("run history is disabled (set store_path in the config)")

func newShowCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show [run-id | cut-list]",
		Short: "List stored runs, or show the records of a run or cut list file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if info, err := os.Stat(args[0]); err == nil && !info.IsDir() {
					return showCutList(cmd, args[0])
				}
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if st == nil {
				return errNoStore
			}
			defer st.Close()

			if len(args) == 1 {
				return showRun(cmd, st, args[0])
			}
			return listRuns(cmd, st, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func listRuns(cmd *cobra.Command, st store.Store, limit int) error {
	runs, err := st.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			humanize.Time(run.CreatedAt),
			filepath.Base(run.Movie),
			strconv.Itoa(run.Candidates),
			strconv.Itoa(run.Exact),
			run.Elapsed.Round(time.Millisecond).String(),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Run", "When", "Movie", "Candidates", "Exact", "Elapsed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	return nil
}

func showRun(cmd *cobra.Command, st store.Store, id string) error {
	run, err := st.GetRun(id)
	if err != nil {
		return err
	}
	records, err := st.GetRecords(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(out, "Movie:   %s\n", run.Movie)
	fmt.Fprintf(out, "Silence: %s\n", run.SilencePath)
	if run.Filter != "" {
		fmt.Fprintf(out, "Filter:  %s\n", run.Filter)
	}
	fmt.Fprintf(out, "Delay:   %.3fs\n", run.Delay)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Index),
			r.Mode,
			strconv.Itoa(r.StartFrame),
			strconv.Itoa(r.EndFrame),
			r.Target.String(),
			r.Kind,
			strconv.Itoa(r.Offset),
			r.Strategy,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Mode", "Start", "End", "Target", "Kind", "Offset", "Strategy"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight, alignLeft},
	))
	return nil
}

func showCutList(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := cutlist.Parse(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	exact := 0
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		if r.Mode == cutlist.ModeExact {
			exact++
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Index),
			r.Mode,
			strconv.Itoa(r.StartFrame),
			strconv.Itoa(r.EndFrame),
			r.Target.String(),
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d records, %d exact\n", path, len(records), exact)
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Mode", "Start", "End", "Target"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
	))
	return nil
}
