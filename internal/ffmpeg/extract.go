package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gwlsn/cutscan/internal/logger"
)

// ClipName is the per-candidate field clip written into its dump directory.
const ClipName = "dump.mp4v"

// ImagePattern is the ffmpeg output pattern for dumped field images.
const ImagePattern = "%04d.jpg"

// lastLines returns the last n non-empty lines from output
func lastLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

// Window is a frame range [StartFrame, EndFrame) to extract into Dir.
// The extracted clip includes EndFrame itself so the field distances
// cover the transition into the frame after the window.
type Window struct {
	StartFrame int
	EndFrame   int
	Dir        string
}

// Extractor cuts field clips and field images out of a movie
type Extractor struct {
	ffmpegPath string
	threads    int
	width      int
	height     int
}

// NewExtractor creates an Extractor. Images are scaled to width x height.
func NewExtractor(ffmpegPath string, threads, width, height int) *Extractor {
	return &Extractor{
		ffmpegPath: ffmpegPath,
		threads:    threads,
		width:      width,
		height:     height,
	}
}

// BatchSizes splits total windows into encode batches of at most limit.
// The first batch takes the remainder so later batches are full.
func BatchSizes(total, limit int) []int {
	if total <= 0 || limit <= 0 {
		return nil
	}
	var sizes []int
	first := total % limit
	if first == 0 {
		first = limit
	}
	sizes = append(sizes, first)
	for done := first; done < total; done += limit {
		sizes = append(sizes, min(limit, total-done))
	}
	return sizes
}

// clipArgs builds one ffmpeg invocation that decodes the movie once and
// writes a separated-field clip for every window.
func (e *Extractor) clipArgs(moviePath string, windows []Window) []string {
	args := []string{"-y", "-i", moviePath}
	for _, w := range windows {
		filter := fmt.Sprintf("trim=start_frame=%d:end_frame=%d,separatefields,setpts=PTS-STARTPTS",
			w.StartFrame, w.EndFrame+1)
		args = append(args,
			"-filter:v", filter,
			"-vcodec", "libx264",
			"-an",
			"-preset", "veryfast",
			"-f", "mp4",
			"-threads", fmt.Sprintf("%d", e.threads),
			filepath.Join(w.Dir, ClipName),
		)
	}
	return args
}

// EncodeClips writes the field clips for a batch of windows with a single
// ffmpeg process. Every window's directory is created first.
func (e *Extractor) EncodeClips(ctx context.Context, moviePath string, windows []Window) error {
	if len(windows) == 0 {
		return nil
	}
	for _, w := range windows {
		if err := os.MkdirAll(w.Dir, 0755); err != nil {
			return fmt.Errorf("create dump dir: %w", err)
		}
	}

	args := e.clipArgs(moviePath, windows)
	logger.Debug("FFmpeg clip command", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		logger.Error("FFmpeg clip extraction failed", "windows", len(windows), "error", err, "stderr", lastLines(string(output), 5))
		return fmt.Errorf("failed to extract %d clips: %w (%s)", len(windows), err, lastLines(string(output), 3))
	}
	return nil
}

// imageArgs builds the ffmpeg invocation that dumps every field of a clip
// as a scaled JPEG.
func (e *Extractor) imageArgs(dir string) []string {
	return []string{
		"-y",
		"-i", filepath.Join(dir, ClipName),
		"-filter:v", fmt.Sprintf("scale=width=%d:height=%d", e.width, e.height),
		"-qscale:v", "1",
		filepath.Join(dir, ImagePattern),
	}
}

// DumpImages writes one JPEG per field of the clip in dir.
func (e *Extractor) DumpImages(ctx context.Context, dir string) error {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, e.imageArgs(dir)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		logger.Error("FFmpeg image dump failed", "dir", dir, "error", err, "stderr", lastLines(string(output), 5))
		return fmt.Errorf("failed to dump images in %s: %w (%s)", dir, err, lastLines(string(output), 3))
	}
	return nil
}

// CleanImages removes previously dumped images from dir so a re-dump does
// not leave stale trailing fields behind.
func CleanImages(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.jpg"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
