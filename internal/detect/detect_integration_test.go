//go:build integration

package detect

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwlsn/cutscan/internal/boundary"
	"github.com/gwlsn/cutscan/internal/config"
	"github.com/gwlsn/cutscan/internal/cutlist"
)

func requireTools(t *testing.T) {
	t.Helper()
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not found in PATH, skipping integration test", tool)
		}
	}
}

func TestDetectHardCut(t *testing.T) {
	requireTools(t)

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	dir := t.TempDir()
	movie := filepath.Join(dir, "cut.mp4")
	gen := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "lavfi", "-i", "testsrc=s=320x240:r=30000/1001:d=2",
		"-f", "lavfi", "-i", "color=c=red:s=320x240:r=30000/1001:d=2",
		"-filter_complex", "[0:v][1:v]concat=n=2:v=1[v]",
		"-map", "[v]", "-c:v", "libx264", "-pix_fmt", "yuv420p",
		movie,
	)
	out, err := gen.CombinedOutput()
	require.NoError(t, err, "generate test movie: %s", out)

	silencePath := filepath.Join(dir, "cut.sil")
	require.NoError(t, os.WriteFile(silencePath, []byte("all 0.000 4.000\n1.500 2.500\n"), 0644))

	cfg := config.DefaultConfig()
	cfg.DumpDir = filepath.Join(dir, "dump")
	cfg.MaxParallel = 2
	cfg.EncodeThreads = 2

	output := filepath.Join(dir, "scene.txt")
	report, err := New(cfg).Run(ctx, Options{
		MoviePath:   movie,
		SilencePath: silencePath,
		OutputPath:  output,
	})
	require.NoError(t, err)

	require.NotNil(t, report.Plan.Video)
	assert.InDelta(t, 29.97, report.Plan.Video.FrameRate, 0.01)
	assert.NotEmpty(t, VideoWarnings(report.Plan.Video), "lavfi sources are progressive")

	require.Len(t, report.Records, 1)
	require.Equal(t, boundary.Exact, report.Results[0].Kind, "got %s", report.Results[0])

	// the second source starts at frame 60 (2s at 29.97fps)
	rec := report.Records[0]
	assert.Equal(t, cutlist.ModeExact, rec.Mode)
	assert.InDelta(t, 60.0, rec.Target.Float(), 1)
	assert.FileExists(t, output)
}
