//go:build integration

package ffmpeg

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireFFprobe skips the test if ffprobe is not available
func requireFFprobe(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH, skipping integration test")
	}
}

// requireFFmpeg skips the test if ffmpeg is not available
func requireFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping integration test")
	}
}

// makeCutMovie renders 2s of black followed by 2s of white at 29.97fps.
func makeCutMovie(t *testing.T, ctx context.Context) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cut.mp4")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "lavfi", "-i", "color=c=black:s=320x240:r=30000/1001:d=2",
		"-f", "lavfi", "-i", "color=c=white:s=320x240:r=30000/1001:d=2",
		"-filter_complex", "[0:v][1:v]concat=n=2:v=1[v]",
		"-map", "[v]", "-c:v", "libx264", "-pix_fmt", "yuv420p",
		path,
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "generate test movie: %s", lastLines(string(out), 3))
	return path
}

func TestProbeGeneratedMovie(t *testing.T) {
	requireFFmpeg(t)
	requireFFprobe(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	movie := makeCutMovie(t, ctx)

	result, err := NewProber("ffprobe").Probe(ctx, movie)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, result.Duration.Seconds(), 0.5)
	assert.Equal(t, 320, result.Width)
	assert.Equal(t, 240, result.Height)
	assert.InDelta(t, 29.97, result.FrameRate, 0.01)
	assert.False(t, result.Interlaced, "lavfi sources are progressive")
	assert.GreaterOrEqual(t, result.StartTime, 0.0)
	assert.LessOrEqual(t, result.StartTime, 1.0)
}

func TestExtractFieldImages(t *testing.T) {
	requireFFmpeg(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	movie := makeCutMovie(t, ctx)

	dump := t.TempDir()
	windows := []Window{
		{StartFrame: 10, EndFrame: 30, Dir: filepath.Join(dump, "000")},
		{StartFrame: 50, EndFrame: 70, Dir: filepath.Join(dump, "001")},
	}

	e := NewExtractor("ffmpeg", 2, 96, 54)
	require.NoError(t, e.EncodeClips(ctx, movie, windows))

	for _, w := range windows {
		require.NoError(t, e.DumpImages(ctx, w.Dir))
		images, err := filepath.Glob(filepath.Join(w.Dir, "*.jpg"))
		require.NoError(t, err)
		// two fields for each of the EndFrame-StartFrame+1 frames
		assert.Len(t, images, 2*(w.EndFrame-w.StartFrame+1), w.Dir)
	}
}
