package boundary

import (
	"github.com/gwlsn/cutscan/internal/logger"
	"github.com/gwlsn/cutscan/internal/scene"
)

// Thresholds for the default cascade, on the 0..1 histogram distance scale.
const (
	HighThreshold    = 0.3
	LowThreshold     = 0.2
	VeryLowThreshold = 0.1
	LastResortFloor  = 0.03
)

// Cascade runs strategies in order until one answers.
type Cascade struct {
	strategies []Strategy
}

// NewCascade returns a cascade over the given strategies. The list should
// end with a strategy that always answers, such as LastResort.
func NewCascade(strategies ...Strategy) *Cascade {
	return &Cascade{strategies: strategies}
}

// DefaultCascade returns the standard six-tier search.
func DefaultCascade() *Cascade {
	return NewCascade(
		PeakScan{Label: "peak-0.3-trimmed", Threshold: HighThreshold},
		BlackWhite{},
		PeakScan{Label: "peak-0.2-trimmed", Threshold: LowThreshold},
		PeakScan{Label: "peak-0.2-whole", Threshold: LowThreshold, Whole: true},
		PeakScan{Label: "peak-0.1-whole", Threshold: VeryLowThreshold, Whole: true},
		LastResort{Floor: LastResortFloor},
	)
}

// Strategies returns the names of the tiers in order.
func (c *Cascade) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Analyze returns the boundary for candidate c. It fails only when the
// signals do not match the candidate window. Nil hists turn the black/white
// tier off, so the peak tiers decide alone.
func (c *Cascade) Analyze(cand scene.Candidate, signal Signal, hists []GrayHistogram) (Result, error) {
	in, err := NewInput(cand, signal, hists)
	if err != nil {
		return Result{}, err
	}
	return c.Run(in), nil
}

// Run executes the tiers over a prepared input.
func (c *Cascade) Run(in *Input) Result {
	if len(in.Slices) == 0 || len(in.Signal) == 0 {
		return Result{Kind: NoRegion}
	}

	for _, s := range c.strategies {
		res, ok := s.Find(in)
		if !ok {
			continue
		}
		res.Strategy = s.Name()
		logger.Debug("Boundary strategy matched", "strategy", res.Strategy, "result", res.String())
		return res
	}

	return Result{Kind: NoData}
}
