package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gwlsn/cutscan/internal/detect"
	"github.com/gwlsn/cutscan/internal/scene"
)

func newWindowsCommand(ctx *commandContext) *cobra.Command {
	var noProbe bool
	var delay float64

	cmd := &cobra.Command{
		Use:   "windows [movie] [silence-list]",
		Short: "Print the candidate windows without extracting anything",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			movie, silencePath := inputArgs(args)
			if err := requireFile(silencePath, "silence list"); err != nil {
				return err
			}

			plan, err := detect.New(cfg).Plan(cmd.Context(), detect.Options{
				MoviePath:   movie,
				SilencePath: silencePath,
				NoProbe:     noProbe,
				Delay:       delay,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "delay %.3fs, filter %q, %d candidates\n",
				plan.Delay, plan.Filter.String(), len(plan.Candidates))
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Start", "End", "Frames", "Seconds", "Ranges"},
				windowRows(plan.Candidates),
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noProbe, "no-probe", false, "Skip probing the movie (start delay, timing checks) and use --delay")
	cmd.Flags().Float64Var(&delay, "delay", 0, "Movie start delay in seconds when --no-probe is set")
	return cmd
}

func windowRows(candidates []scene.Candidate) [][]string {
	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, []string{
			strconv.Itoa(c.ID),
			strconv.Itoa(c.StartFrame),
			strconv.Itoa(c.EndFrame),
			strconv.Itoa(c.Frames()),
			fmt.Sprintf("%.3f", scene.FrameNumToTime(c.StartFrame)),
			formatRanges(c.Ranges),
		})
	}
	return rows
}

func formatRanges(ranges []scene.Range) string {
	if len(ranges) == 0 {
		return "none"
	}
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = fmt.Sprintf("[%d,%d)", r.StartFrame, r.EndFrame)
	}
	return strings.Join(parts, " ")
}
