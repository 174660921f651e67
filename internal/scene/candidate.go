package scene

import (
	"fmt"

	"github.com/gwlsn/cutscan/internal/silence"
)

// endAffinity is how close (seconds) the last filter tile must end to the
// silence end to be searched first. Cuts land at the end of a silence more
// often than at its start.
const endAffinity = 0.2

// TimeRange is a half-open interval in seconds.
type TimeRange struct {
	Start float64
	End   float64
}

// Range is a half-open interval of frame indices inside a candidate.
type Range struct {
	StartFrame int
	EndFrame   int
}

// Len returns the number of frames in the range.
func (r Range) Len() int {
	return r.EndFrame - r.StartFrame
}

// Candidate is the frame window searched around one silence interval.
// Ranges lists the sub-windows to search in priority order; every range
// lies within [StartFrame, EndFrame].
type Candidate struct {
	ID         int
	StartFrame int
	EndFrame   int
	Ranges     []Range
	Filtered   bool // A periodic filter produced Ranges
}

// Frames returns the number of frames in the window.
func (c Candidate) Frames() int {
	return c.EndFrame - c.StartFrame
}

// SignalLen is the number of field distances the extraction step must
// produce for this candidate: 2 fields per frame over EndFrame-StartFrame+1
// extracted frames, minus one.
func (c Candidate) SignalLen() int {
	return 2*c.Frames() + 1
}

// String is used in log lines.
func (c Candidate) String() string {
	return fmt.Sprintf("#%d [%d,%d) ranges=%d", c.ID, c.StartFrame, c.EndFrame, len(c.Ranges))
}

// BuildFilteredRanges splits [start, end) into the sub-windows selected by
// filter, ordered by search priority. Without a filter the whole interval is
// returned as a single range.
func BuildFilteredRanges(filter *Filter, start, end float64) []TimeRange {
	if filter == nil {
		return []TimeRange{{Start: start, End: end}}
	}

	var tiles []TimeRange
	for k := 0; ; k++ {
		tileStart := start + filter.Start + float64(k)
		if tileStart >= end {
			break
		}
		s := max(tileStart, start)
		e := min(tileStart+filter.Duration, end)
		if e > s {
			tiles = append(tiles, TimeRange{Start: s, End: e})
		}
	}
	if len(tiles) == 0 {
		return nil
	}

	last := tiles[len(tiles)-1]

	ranges := make([]TimeRange, 0, len(tiles))
	for i := len(tiles) - 1; i >= 0; i-- {
		ranges = append(ranges, tiles[i])
	}

	if end-last.End <= endAffinity {
		for i, r := range ranges {
			if r == last && i > 0 {
				copy(ranges[1:i+1], ranges[0:i])
				ranges[0] = last
				break
			}
		}
	}

	return ranges
}

// BuildCandidate converts a silence interval into the candidate window and
// its prioritized sub-ranges.
func BuildCandidate(id int, interval silence.Interval, filter *Filter) Candidate {
	c := Candidate{
		ID:         id,
		StartFrame: TimeToFrameNum(interval.Start),
		EndFrame:   TimeToFrameNum(interval.End) + 1,
		Filtered:   filter != nil,
	}

	for _, tr := range BuildFilteredRanges(filter, interval.Start, interval.End) {
		r := Range{
			StartFrame: TimeToFrameNum(tr.Start),
			EndFrame:   TimeToFrameNum(tr.End) + 1,
		}
		r.StartFrame = min(max(r.StartFrame, c.StartFrame), c.EndFrame)
		r.EndFrame = min(max(r.EndFrame, r.StartFrame), c.EndFrame)
		c.Ranges = append(c.Ranges, r)
	}

	return c
}

// BuildCandidates builds one candidate per interval. The candidate ID is
// the interval's position in the list.
func BuildCandidates(intervals []silence.Interval, filter *Filter) []Candidate {
	candidates := make([]Candidate, len(intervals))
	for i, interval := range intervals {
		candidates[i] = BuildCandidate(i, interval, filter)
	}
	return candidates
}
