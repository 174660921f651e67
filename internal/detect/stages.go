package detect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/gwlsn/cutscan/internal/boundary"
	"github.com/gwlsn/cutscan/internal/ffmpeg"
	"github.com/gwlsn/cutscan/internal/logger"
	"github.com/gwlsn/cutscan/internal/scene"
)

// lockName is the lock file guarding the dump directory.
const lockName = ".cutscan.lock"

// extract encodes every searchable candidate into its dump directory and
// dumps its field images. Candidates without ranges are skipped since the
// cascade never reads their signal.
func (d *Detector) extract(ctx context.Context, moviePath string, candidates []scene.Candidate) error {
	if err := os.MkdirAll(d.cfg.DumpDir, 0755); err != nil {
		return fmt.Errorf("create dump dir: %w", err)
	}

	lock := flock.New(filepath.Join(d.cfg.DumpDir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire dump lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrDumpLocked, d.cfg.DumpDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("Failed to release dump lock", "dir", d.cfg.DumpDir, "error", err)
		}
	}()

	var windows []ffmpeg.Window
	fields := 0
	for _, c := range candidates {
		if len(c.Ranges) == 0 {
			continue
		}
		windows = append(windows, ffmpeg.Window{
			StartFrame: c.StartFrame,
			EndFrame:   c.EndFrame,
			Dir:        d.cfg.CandidateDir(c.ID),
		})
		fields += c.SignalLen() + 1
	}
	if len(windows) == 0 {
		return nil
	}

	started := time.Now()
	done := 0
	for _, n := range ffmpeg.BatchSizes(len(windows), d.cfg.MaxParallel) {
		batch := windows[done : done+n]
		if err := d.extractor.EncodeClips(ctx, moviePath, batch); err != nil {
			return err
		}
		done += n
		logger.Debug("Encoded clip batch", "clips", n, "done", done, "total", len(windows))
	}
	logger.Info("Encoded candidate clips",
		"clips", len(windows),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)

	started = time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.MaxParallel)
	for _, w := range windows {
		g.Go(func() error {
			if err := ffmpeg.CleanImages(w.Dir); err != nil {
				return fmt.Errorf("clean %s: %w", w.Dir, err)
			}
			return d.extractor.DumpImages(gctx, w.Dir)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Dumped field images",
		"fields", humanize.Comma(int64(fields)),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return nil
}

// analyze runs the cascade over every candidate. Results are stored by
// index so they keep the candidate order whatever order workers finish in.
func (d *Detector) analyze(ctx context.Context, candidates []scene.Candidate) ([]boundary.Result, error) {
	results := make([]boundary.Result, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.MaxParallel)
	for i, c := range candidates {
		log := logger.ForCandidate(c.ID)
		if len(c.Ranges) == 0 {
			results[i] = boundary.Result{Kind: boundary.NoRegion}
			log.Debug("Candidate has no searchable range", "window", c.String())
			continue
		}

		g.Go(func() error {
			signal, hists, err := d.provider.Load(gctx, d.cfg.CandidateDir(c.ID))
			if err != nil {
				return fmt.Errorf("candidate %d: %w", c.ID, err)
			}
			res, err := d.cascade.Analyze(c, signal, hists)
			if err != nil {
				return err
			}
			results[i] = res
			log.Debug("Candidate analyzed", "window", c.String(), "result", res.String(), "strategy", res.Strategy)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
