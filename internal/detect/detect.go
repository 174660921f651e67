// Package detect drives a full boundary search: it turns a silence list into
// candidate windows, extracts their fields with ffmpeg, runs the boundary
// cascade over each window and writes the cut list.
package detect

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/gwlsn/cutscan/internal/boundary"
	"github.com/gwlsn/cutscan/internal/config"
	"github.com/gwlsn/cutscan/internal/cutlist"
	"github.com/gwlsn/cutscan/internal/ffmpeg"
	"github.com/gwlsn/cutscan/internal/histogram"
	"github.com/gwlsn/cutscan/internal/logger"
	"github.com/gwlsn/cutscan/internal/scene"
	"github.com/gwlsn/cutscan/internal/silence"
	"github.com/gwlsn/cutscan/internal/store"
)

// ErrDumpLocked is returned when another run holds the dump directory.
var ErrDumpLocked = errors.New("dump directory is in use by another run")

// Prober reads movie metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)
}

// frameRateTolerance is how far a probed rate may sit from scene.FrameRate.
const frameRateTolerance = 0.05

// Extractor writes field clips and images for candidate windows.
type Extractor interface {
	EncodeClips(ctx context.Context, moviePath string, windows []ffmpeg.Window) error
	DumpImages(ctx context.Context, dir string) error
}

// Options describes one run.
type Options struct {
	MoviePath   string
	SilencePath string
	// OutputPath is the cut list to create. Empty skips writing it.
	OutputPath string
	// Filter overrides the configured periodic filter when set.
	Filter *scene.Filter
	// NoDump reuses images already in the dump directory.
	NoDump bool
	// NoProbe skips the movie probe and uses Delay as given.
	NoProbe bool
	Delay   float64
}

// Plan is the set of candidate windows for a movie.
type Plan struct {
	Silence    *silence.List
	Delay      float64
	Filter     *scene.Filter
	// Video is nil when probing was skipped.
	Video      *ffmpeg.ProbeResult
	Candidates []scene.Candidate
}

// Report is the outcome of a run.
type Report struct {
	Run     *store.Run
	Plan    *Plan
	Results []boundary.Result
	Records []store.Record
}

// Detector runs boundary searches with one configuration.
type Detector struct {
	cfg       *config.Config
	prober    Prober
	extractor Extractor
	provider  boundary.FrameDistanceProvider
	cascade   *boundary.Cascade
	store     store.Store
}

// New creates a Detector using ffmpeg for extraction and histogram
// distances for the signal.
func New(cfg *config.Config) *Detector {
	return &Detector{
		cfg:       cfg,
		prober:    ffmpeg.NewProber(cfg.FFprobePath),
		extractor: ffmpeg.NewExtractor(cfg.FFmpegPath, cfg.EncodeThreads, cfg.ImageWidth, cfg.ImageHeight),
		provider:  histogram.NewProvider(0),
		cascade:   boundary.DefaultCascade(),
	}
}

// SetStore enables run history. A nil store disables it.
func (d *Detector) SetStore(s store.Store) {
	d.store = s
}

// Plan reads the silence list and builds the candidate windows without
// touching the movie's frames.
func (d *Detector) Plan(ctx context.Context, opts Options) (*Plan, error) {
	list, err := silence.ReadFile(opts.SilencePath)
	if err != nil {
		return nil, fmt.Errorf("read silence list: %w", err)
	}

	filter := opts.Filter
	if filter == nil {
		if filter, err = d.cfg.PeriodicFilter(); err != nil {
			return nil, err
		}
	}

	delay := opts.Delay
	var video *ffmpeg.ProbeResult
	if !opts.NoProbe {
		if video, err = d.prober.Probe(ctx, opts.MoviePath); err != nil {
			return nil, fmt.Errorf("probe movie: %w", err)
		}
		delay = video.StartTime
		for _, issue := range VideoWarnings(video) {
			logger.Warn("Movie does not match the field timing", "movie", opts.MoviePath, "issue", issue)
		}
	}

	intervals := make([]silence.Interval, len(list.Intervals))
	for i, iv := range list.Intervals {
		intervals[i] = iv.Shift(delay)
	}

	plan := &Plan{
		Silence:    list,
		Delay:      delay,
		Filter:     filter,
		Video:      video,
		Candidates: scene.BuildCandidates(intervals, filter),
	}

	attrs := []any{
		"silences", len(list.Intervals),
		"delay", delay,
		"filter", filter.String(),
	}
	if video != nil {
		attrs = append(attrs,
			"format", video.Format,
			"codec", video.VideoCodec,
			"size", fmt.Sprintf("%dx%d", video.Width, video.Height),
			"frame_rate", video.FrameRate,
			"field_order", video.FieldOrder,
		)
	}
	logger.Info("Candidate windows built", attrs...)
	return plan, nil
}

// VideoWarnings lists the ways a movie breaks the timing the candidate
// windows assume: 29.97 frames per second, two fields per frame.
func VideoWarnings(v *ffmpeg.ProbeResult) []string {
	var issues []string
	switch {
	case v.FrameRate == 0:
		issues = append(issues, "frame rate unknown")
	case math.Abs(v.FrameRate-scene.FrameRate) > frameRateTolerance:
		issues = append(issues, fmt.Sprintf("frame rate %.3f, windows assume %.3f", v.FrameRate, scene.FrameRate))
	}
	if !v.Interlaced {
		order := v.FieldOrder
		if order == "" {
			order = "unknown"
		}
		issues = append(issues, fmt.Sprintf("field order %s is not interlaced, field pairs repeat one frame", order))
	}
	return issues
}

// Run performs a complete search and writes the cut list.
func (d *Detector) Run(ctx context.Context, opts Options) (*Report, error) {
	started := time.Now()

	if opts.OutputPath != "" {
		if _, err := os.Stat(opts.OutputPath); err == nil {
			return nil, fmt.Errorf("%w: %s", cutlist.ErrOutputExists, opts.OutputPath)
		}
	}

	plan, err := d.Plan(ctx, opts)
	if err != nil {
		return nil, err
	}

	if !opts.NoDump {
		if err := d.extract(ctx, opts.MoviePath, plan.Candidates); err != nil {
			return nil, err
		}
	}

	results, err := d.analyze(ctx, plan.Candidates)
	if err != nil {
		return nil, err
	}

	records := make([]store.Record, len(results))
	lines := make([]cutlist.Record, len(results))
	exact := 0
	for i, res := range results {
		lines[i] = cutlist.Format(plan.Candidates[i], res)
		records[i] = store.Record{
			Record:   lines[i],
			Kind:     res.Kind.String(),
			Offset:   res.Signed(),
			Strategy: res.Strategy,
		}
		if res.Kind == boundary.Exact {
			exact++
		}
	}

	if opts.OutputPath != "" {
		if err := cutlist.WriteFile(opts.OutputPath, lines); err != nil {
			return nil, err
		}
	}

	run := &store.Run{
		ID:          uuid.NewString(),
		Movie:       opts.MoviePath,
		SilencePath: opts.SilencePath,
		OutputPath:  opts.OutputPath,
		Filter:      plan.Filter.String(),
		Delay:       plan.Delay,
		Candidates:  len(plan.Candidates),
		Exact:       exact,
		Elapsed:     time.Since(started),
		CreatedAt:   started,
	}

	if d.store != nil {
		if err := d.store.SaveRun(run, records); err != nil {
			logger.Warn("Failed to save run history", "run", run.ID, "error", err)
		}
	}

	logger.Info("Detection complete",
		"run", run.ID,
		"candidates", run.Candidates,
		"exact", exact,
		"elapsed", run.Elapsed.Round(time.Millisecond),
	)

	return &Report{Run: run, Plan: plan, Results: results, Records: records}, nil
}
