package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gwlsn/cutscan/internal/browse"
	"github.com/gwlsn/cutscan/internal/detect"
)

const (
	defaultMovie   = browse.MovieName
	defaultSilence = browse.SilenceName
	defaultOutput  = browse.OutputName
)

// inputArgs returns the movie and silence list, falling back to the
// conventional names in the working directory.
func inputArgs(args []string) (movie, silencePath string) {
	movie, silencePath = defaultMovie, defaultSilence
	if len(args) > 0 {
		movie = args[0]
	}
	if len(args) > 1 {
		silencePath = args[1]
	}
	return movie, silencePath
}

type detectFlags struct {
	output  string
	noProbe bool
	delay   float64
}

func (f *detectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", defaultOutput, "Cut list to create (never overwritten)")
	cmd.Flags().BoolVar(&f.noProbe, "no-probe", false, "Skip probing the movie (start delay, timing checks) and use --delay")
	cmd.Flags().Float64Var(&f.delay, "delay", 0, "Movie start delay in seconds when --no-probe is set")
}

func newDetectCommand(ctx *commandContext) *cobra.Command {
	flags := &detectFlags{}

	cmd := &cobra.Command{
		Use:   "detect [movie] [silence-list]",
		Short: "Extract candidate windows and write the cut list",
		Long:  "Inputs default to " + defaultMovie + " and " + defaultSilence + " in the working directory.",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			movie, silencePath := inputArgs(args)
			return runDetect(cmd, ctx, flags, movie, silencePath, false)
		},
	}
	flags.register(cmd)
	return cmd
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	flags := &detectFlags{}

	cmd := &cobra.Command{
		Use:   "analyze [movie] [silence-list]",
		Short: "Write the cut list from images already in the dump directory",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			movie, silencePath := inputArgs(args)
			return runDetect(cmd, ctx, flags, movie, silencePath, true)
		},
	}
	flags.register(cmd)
	return cmd
}

func runDetect(cmd *cobra.Command, ctx *commandContext, flags *detectFlags, movie, silencePath string, noDump bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	if err := requireFile(movie, "movie"); err != nil {
		return err
	}
	if err := requireFile(silencePath, "silence list"); err != nil {
		return err
	}

	d := detect.New(cfg)
	st, err := ctx.openStore()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
		d.SetStore(st)
	}

	report, err := d.Run(cmd.Context(), detect.Options{
		MoviePath:   movie,
		SilencePath: silencePath,
		OutputPath:  flags.output,
		NoDump:      noDump,
		NoProbe:     flags.noProbe,
		Delay:       flags.delay,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records (%d exact) to %s\n",
		len(report.Records), report.Run.Exact, flags.output)
	if st != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s saved to %s\n", report.Run.ID, st.Path())
	}
	return nil
}

func requireFile(path, what string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", what, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s %s is a directory", what, path)
	}
	return nil
}
