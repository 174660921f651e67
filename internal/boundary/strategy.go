package boundary

// Strategy is one tier of the cascade. Find reports ok=false when the tier
// has nothing to say and the next tier should run.
type Strategy interface {
	Name() string
	Find(in *Input) (Result, bool)
}

// Black/white detection bounds on Σ h[i]·i². A histogram normalized to 255
// sits between them unless nearly every pixel is at one end of the range.
const (
	darkTotal   = 1e4
	brightTotal = 1e7
	// neutralTotal seeds the previous value so the first image never
	// counts as a transition.
	neutralTotal = 1e5
)

// ScanBounds returns the half-open index range a trimmed scan covers in a
// slice of length n. If three trims would not fit, the trim shrinks to n/3.
func ScanBounds(n, trim int, checkFirstFrame bool) (start, end int) {
	if trim*3 > n {
		trim = n / 3
	}
	if !checkFirstFrame {
		start = trim
	}
	return start, n - trim
}

// FirstPeak returns i+1 for the first index i inside the scan bounds whose
// distance is at least threshold, or 0 if there is none. The +1 makes the
// result point at the first field of the new scene.
func FirstPeak(s Signal, threshold float64, trim int, checkFirstFrame bool) int {
	start, end := ScanBounds(len(s), trim, checkFirstFrame)
	for i := start; i < end; i++ {
		if s[i] >= threshold {
			return i + 1
		}
	}
	return 0
}

// PeakScan finds the first distance at or above Threshold.
//
// By default it walks the prioritized sub-ranges with the input's trim
// policy. With Whole set it scans the full signal untrimmed and ignores
// the sub-ranges.
type PeakScan struct {
	Label     string
	Threshold float64
	Whole     bool
}

func (p PeakScan) Name() string { return p.Label }

func (p PeakScan) Find(in *Input) (Result, bool) {
	if p.Whole {
		if i := FirstPeak(in.Signal, p.Threshold, 0, false); i > 0 {
			return ExactAt(i), true
		}
		return Result{}, false
	}

	for _, sl := range in.Slices {
		if i := FirstPeak(sl.Signal, p.Threshold, in.Trim, in.CheckFirstFrame); i > 0 {
			return ExactAt(i + sl.Base), true
		}
	}
	return Result{}, false
}

// BlackWhite finds a hard cut between an all-dark and an all-bright image
// using the gray histograms of the whole candidate. The second pass reverses
// the bins so both polarities are caught.
type BlackWhite struct{}

func (BlackWhite) Name() string { return "black-white" }

func (BlackWhite) Find(in *Input) (Result, bool) {
	if i := BlackWhiteTransition(in.Histograms); i > 0 {
		return ExactAt(i), true
	}
	return Result{}, false
}

// BlackWhiteTransition returns the index of the first image whose
// brightness statistic flips between the dark and bright extremes relative
// to the previous image, or 0.
func BlackWhiteTransition(hists []GrayHistogram) int {
	for _, reversed := range []bool{false, true} {
		prev := neutralTotal
		for i, h := range hists {
			total := weightedTotal(h, reversed)
			if (total < darkTotal && prev > brightTotal) || (total > brightTotal && prev < darkTotal) {
				return i
			}
			prev = total
		}
	}
	return 0
}

func weightedTotal(h GrayHistogram, reversed bool) float64 {
	var total float64
	n := len(h)
	for i, count := range h {
		bin := i
		if reversed {
			// reversing the histogram moves the count at i to n-1-i
			bin = n - 1 - i
		}
		total += count * float64(bin*bin)
	}
	return total
}

// LastResort picks the largest distance in each sub-range. A maximum above
// Floor is reported as exact right away; otherwise the smallest-offset guess
// across all sub-ranges is kept. It always answers.
type LastResort struct {
	Floor float64
}

func (LastResort) Name() string { return "last-resort" }

func (l LastResort) Find(in *Input) (Result, bool) {
	best := Result{Kind: NoData}
	for _, sl := range in.Slices {
		if len(sl.Signal) == 0 {
			continue
		}
		k := argmax(sl.Signal)
		offset := k + 1 + sl.Base
		if sl.Signal[k] > l.Floor {
			return ExactAt(offset), true
		}
		if best.Kind != Guess || offset < best.Offset {
			best = GuessAt(offset)
		}
	}
	return best, true
}

func argmax(s Signal) int {
	k := 0
	for i, v := range s {
		if v > s[k] {
			k = i
		}
	}
	return k
}
