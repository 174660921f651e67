// Package browse finds recording directories ready for boundary detection.
//
// A recording directory holds one movie, the silence list written by the
// audio detector and, once processed, the cut list.
package browse

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gwlsn/cutscan/internal/ffmpeg"
	"github.com/gwlsn/cutscan/internal/logger"
)

// Conventional file names inside a recording directory.
const (
	MovieName   = "in.mp4v"
	SilenceName = "silence.txt"
	OutputName  = "scene.txt"
)

// maxConcurrentProbes limits parallel ffprobe calls when describing entries.
const maxConcurrentProbes = 4

// Entry is one recording directory.
type Entry struct {
	Dir       string
	Movie     string
	Silence   string
	Output    string
	Size      int64 // Movie size in bytes
	Done      bool  // Output already exists
	VideoInfo *ffmpeg.ProbeResult
}

// Result is the outcome of a directory scan.
type Result struct {
	Root      string
	Entries   []*Entry
	Pending   int
	TotalSize int64
}

// Browser scans a media root for recording directories.
type Browser struct {
	prober    *ffmpeg.Prober
	mediaRoot string

	cacheMu sync.RWMutex
	cache   map[string]*ffmpeg.ProbeResult
}

// NewBrowser creates a Browser rooted at mediaRoot. prober may be nil when
// video metadata is not needed.
func NewBrowser(prober *ffmpeg.Prober, mediaRoot string) *Browser {
	absRoot, err := filepath.Abs(mediaRoot)
	if err != nil {
		absRoot = mediaRoot
	}
	return &Browser{
		prober:    prober,
		mediaRoot: absRoot,
		cache:     make(map[string]*ffmpeg.ProbeResult),
	}
}

// Root returns the absolute media root.
func (b *Browser) Root() string {
	return b.mediaRoot
}

// Discover walks the media root and returns every directory that has a
// silence list and a movie, sorted by path. Hidden directories and
// directories named skipDir (the per-recording dump) are not entered.
func (b *Browser) Discover(ctx context.Context, skipDir string) (*Result, error) {
	result := &Result{Root: b.mediaRoot}

	err := filepath.WalkDir(b.mediaRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != b.mediaRoot && (strings.HasPrefix(d.Name(), ".") || d.Name() == skipDir) {
			return filepath.SkipDir
		}

		entry, err := inspectDir(path)
		if err != nil {
			return err
		}
		if entry != nil {
			result.Entries = append(result.Entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].Dir < result.Entries[j].Dir
	})
	for _, e := range result.Entries {
		result.TotalSize += e.Size
		if !e.Done {
			result.Pending++
		}
	}

	logger.Debug("Scanned media root", "root", b.mediaRoot, "recordings", len(result.Entries), "pending", result.Pending)
	return result, nil
}

// inspectDir returns the entry for dir, or nil if dir is not a recording.
func inspectDir(dir string) (*Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var hasSilence, hasOutput bool
	var videos []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch name := e.Name(); {
		case name == SilenceName:
			hasSilence = true
		case name == OutputName:
			hasOutput = true
		case ffmpeg.IsVideoFile(name):
			videos = append(videos, name)
		}
	}

	movie := pickMovie(videos)
	if !hasSilence || movie == "" {
		return nil, nil
	}

	entry := &Entry{
		Dir:     dir,
		Movie:   filepath.Join(dir, movie),
		Silence: filepath.Join(dir, SilenceName),
		Output:  filepath.Join(dir, OutputName),
		Done:    hasOutput,
	}
	if info, err := os.Stat(entry.Movie); err == nil {
		entry.Size = info.Size()
	}
	return entry, nil
}

// pickMovie prefers the conventional movie name, then the only video in
// the directory. Several unnamed videos are ambiguous.
func pickMovie(videos []string) string {
	for _, v := range videos {
		if v == MovieName {
			return v
		}
	}
	if len(videos) == 1 {
		return videos[0]
	}
	return ""
}

// Describe fills VideoInfo for each entry. Probe failures leave VideoInfo
// nil and are logged.
func (b *Browser) Describe(ctx context.Context, entries []*Entry) {
	if b.prober == nil {
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentProbes)
	for _, e := range entries {
		g.Go(func() error {
			e.VideoInfo = b.getProbeResult(ctx, e.Movie)
			return nil
		})
	}
	_ = g.Wait()
}

// getProbeResult returns a cached or fresh probe result
func (b *Browser) getProbeResult(ctx context.Context, path string) *ffmpeg.ProbeResult {
	b.cacheMu.RLock()
	if result, ok := b.cache[path]; ok {
		b.cacheMu.RUnlock()
		return result
	}
	b.cacheMu.RUnlock()

	result, err := b.prober.Probe(ctx, path)
	if err != nil {
		logger.Warn("Failed to probe movie", "path", path, "error", err)
		return nil
	}

	b.cacheMu.Lock()
	b.cache[path] = result
	b.cacheMu.Unlock()

	return result
}
