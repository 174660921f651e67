package histogram

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gwlsn/cutscan/internal/boundary"
)

// Provider loads dumped JPEG field images and computes their signals.
// It implements boundary.FrameDistanceProvider.
type Provider struct {
	workers int
}

// NewProvider creates a Provider decoding up to workers images at once.
// workers <= 0 uses the number of CPUs.
func NewProvider(workers int) *Provider {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Provider{workers: workers}
}

var _ boundary.FrameDistanceProvider = (*Provider)(nil)

// ImageFiles lists the .jpg files in dir sorted by name, which is the field
// order written by the image dump.
func ImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".jpg") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Load decodes every image in dir and returns the distance signal between
// adjacent images and each image's gray histogram.
func (p *Provider) Load(ctx context.Context, dir string) (boundary.Signal, []boundary.GrayHistogram, error) {
	files, err := ImageFiles(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("list images: %w", err)
	}

	colors := make([]*Color, len(files))
	grays := make([]boundary.GrayHistogram, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := decodeFile(path)
			if err != nil {
				return err
			}
			colors[i], grays[i] = Analyze(img)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return Signals(colors), grays, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
