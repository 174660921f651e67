package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gwlsn/cutscan/internal/browse"
	"github.com/gwlsn/cutscan/internal/config"
	"github.com/gwlsn/cutscan/internal/detect"
	"github.com/gwlsn/cutscan/internal/ffmpeg"
	"github.com/gwlsn/cutscan/internal/logger"
	"github.com/gwlsn/cutscan/internal/store"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "batch <media-root>",
		Short: "Run detection for every unprocessed recording directory under a root",
		Long: fmt.Sprintf("A recording directory holds %s (or a single other movie) and %s.\n"+
			"Directories that already have %s are skipped.",
			browse.MovieName, browse.SilenceName, browse.OutputName),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			browser := browse.NewBrowser(ffmpeg.NewProber(cfg.FFprobePath), args[0])
			result, err := browser.Discover(cmd.Context(), filepath.Base(cfg.DumpDir))
			if err != nil {
				return err
			}

			if list {
				browser.Describe(cmd.Context(), result.Entries)
				printRecordings(cmd, result)
				return nil
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			}

			return runBatch(cmd, cfg, st, result)
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List recordings without processing them")
	return cmd
}

// recordingFunc runs detection for one recording directory.
type recordingFunc func(ctx context.Context, entry *browse.Entry) (*detect.Report, error)

func runBatch(cmd *cobra.Command, cfg *config.Config, st *store.SQLiteStore, result *browse.Result) error {
	run := func(ctx context.Context, entry *browse.Entry) (*detect.Report, error) {
		// each recording gets its own dump directory beside the movie
		local := *cfg
		if !filepath.IsAbs(local.DumpDir) {
			local.DumpDir = filepath.Join(entry.Dir, local.DumpDir)
		}

		d := detect.New(&local)
		if st != nil {
			d.SetStore(st)
		}
		return d.Run(ctx, detect.Options{
			MoviePath:   entry.Movie,
			SilencePath: entry.Silence,
			OutputPath:  entry.Output,
		})
	}
	return processRecordings(cmd.Context(), cmd.OutOrStdout(), result, run)
}

// processRecordings runs every pending recording in order. Cancellation
// stops the batch whatever error the interrupted run returned, since a
// killed ffmpeg reports its exit status rather than the context error.
func processRecordings(ctx context.Context, out io.Writer, result *browse.Result, run recordingFunc) error {
	if result.Pending == 0 {
		fmt.Fprintf(out, "Nothing to do: %d recordings already processed\n", len(result.Entries))
		return nil
	}

	var failed int
	for _, entry := range result.Entries {
		if entry.Done {
			continue
		}

		report, err := run(ctx, entry)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			failed++
			logger.Error("Recording failed", "dir", entry.Dir, "error", err)
			fmt.Fprintf(out, "FAIL %s: %v\n", entry.Dir, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s: %d records, %d exact\n", entry.Dir, len(report.Records), report.Run.Exact)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d recordings failed", failed, result.Pending)
	}
	return nil
}

func printRecordings(cmd *cobra.Command, result *browse.Result) {
	out := cmd.OutOrStdout()
	if len(result.Entries) == 0 {
		fmt.Fprintf(out, "No recordings under %s\n", result.Root)
		return
	}

	rows := make([][]string, 0, len(result.Entries))
	for _, e := range result.Entries {
		rel, err := filepath.Rel(result.Root, e.Dir)
		if err != nil {
			rel = e.Dir
		}
		duration := "-"
		if e.VideoInfo != nil {
			duration = e.VideoInfo.Duration.Round(time.Second).String()
		}
		status := "pending"
		if e.Done {
			status = "done"
		}
		rows = append(rows, []string{rel, filepath.Base(e.Movie), humanize.Bytes(uint64(e.Size)), duration, status})
	}

	fmt.Fprintf(out, "%d recordings, %d pending, %s\n",
		len(result.Entries), result.Pending, humanize.Bytes(uint64(result.TotalSize)))
	fmt.Fprintln(out, renderTable(
		[]string{"Directory", "Movie", "Size", "Duration", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
}
