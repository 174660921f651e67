// Package boundary finds the field where a program cuts to or from a
// commercial inside one candidate window.
//
// The search is a cascade of strategies tried in decreasing order of
// confidence. The first strategy that reports a result wins; the last
// strategy always answers so a non-empty signal always yields a result.
package boundary

import (
	"context"
	"errors"
	"fmt"

	"github.com/gwlsn/cutscan/internal/scene"
)

var (
	// ErrSignalLength is returned when the distance signal does not match
	// the candidate window. It means extraction produced the wrong number
	// of fields and any boundary computed from it would be wrong.
	ErrSignalLength = errors.New("distance signal length mismatch")

	// ErrHistogramLength is returned when histograms are not aligned 1:1
	// with the extracted images.
	ErrHistogramLength = errors.New("gray histogram count mismatch")
)

// Signal holds the dissimilarity between each pair of adjacent field
// images. Values are non-negative.
type Signal []float64

// GrayHistogram is a 256-bin intensity histogram of one field image.
type GrayHistogram []float64

// FrameDistanceProvider computes the signals for one candidate's extracted
// images in dir.
type FrameDistanceProvider interface {
	Load(ctx context.Context, dir string) (Signal, []GrayHistogram, error)
}

// Slice is the part of the signal covered by one prioritized sub-range.
// Base is the field offset of the slice within the whole signal.
type Slice struct {
	Base   int
	Signal Signal
}

// Input is what every strategy sees for one candidate.
type Input struct {
	Signal     Signal
	Histograms []GrayHistogram
	Slices     []Slice // In search priority order

	// CheckFirstFrame disables the leading trim. Set when the window starts
	// at the head of the movie or when a periodic filter already bounds
	// the sub-ranges tightly.
	CheckFirstFrame bool
	// Trim is the number of positions excluded at each end of a slice.
	Trim int
}

// Standard trim and first-frame policy.
const (
	defaultTrim       = 14
	firstFrameCutover = 5
)

// NewInput validates the signals against the candidate and splits the
// signal into the candidate's sub-ranges. hists must hold one histogram per
// image, len(signal)+1, or be empty; empty hists leave the black/white tier
// nothing to inspect.
func NewInput(c scene.Candidate, signal Signal, hists []GrayHistogram) (*Input, error) {
	if want := c.SignalLen(); len(signal) != want {
		return nil, fmt.Errorf("%w: candidate %d has %d distances, want %d",
			ErrSignalLength, c.ID, len(signal), want)
	}
	if len(hists) > 0 && len(hists) != len(signal)+1 {
		return nil, fmt.Errorf("%w: candidate %d has %d histograms for %d images",
			ErrHistogramLength, c.ID, len(hists), len(signal)+1)
	}

	in := &Input{
		Signal:          signal,
		Histograms:      hists,
		CheckFirstFrame: c.StartFrame < firstFrameCutover || c.Filtered,
		Trim:            defaultTrim,
	}
	if c.Filtered {
		in.Trim = 0
	}

	for _, r := range c.Ranges {
		base := 2 * (r.StartFrame - c.StartFrame)
		end := 2*(r.EndFrame-c.StartFrame) + 1
		base = min(max(base, 0), len(signal))
		end = min(max(end, base), len(signal))
		in.Slices = append(in.Slices, Slice{Base: base, Signal: signal[base:end]})
	}

	return in, nil
}
