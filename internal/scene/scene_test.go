package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwlsn/cutscan/internal/silence"
)

func TestTimeToFrameNum(t *testing.T) {
	tests := []struct {
		sec  float64
		want int
	}{
		{0, 0},
		{-3.5, 0},
		{FrameDuration * 0.5, 0},
		{1, 29},
		{10, 299},
		{12, 359},
		{60, 1798},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeToFrameNum(tt.sec), "TimeToFrameNum(%v)", tt.sec)
	}
}

func TestTimeToFrameNumMonotonic(t *testing.T) {
	prev := TimeToFrameNum(-1)
	for ms := -1000; ms <= 120000; ms += 7 {
		got := TimeToFrameNum(float64(ms) / 1000)
		require.GreaterOrEqual(t, got, prev, "at %dms", ms)
		prev = got
	}
}

func TestFrameNumToTimeRoundTrip(t *testing.T) {
	for _, f := range []int{1, 29, 300, 1798, 107892} {
		// half a frame in avoids floor landing on the previous frame
		assert.Equal(t, f, TimeToFrameNum(FrameNumToTime(f)+FrameDuration/2))
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    *Filter
		wantErr bool
	}{
		{"", nil, false},
		{"  ", nil, false},
		{"0.5,0.2", &Filter{Start: 0.5, Duration: 0.2}, false},
		{" 0 , 0.9 ", &Filter{Start: 0, Duration: 0.9}, false},
		{"0.5", nil, true},
		{"0.5,0.2,0.1", nil, true},
		{"x,0.2", nil, true},
		{"0.5,y", nil, true},
		{"1,0.2", nil, true},
		{"-0.1,0.2", nil, true},
		{"0.5,1.5", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterString(t *testing.T) {
	f := &Filter{Start: 0.5, Duration: 0.25}
	assert.Equal(t, "0.5,0.25", f.String())

	back, err := ParseFilter(f.String())
	require.NoError(t, err)
	assert.Equal(t, f, back)

	var none *Filter
	assert.Empty(t, none.String())
}

func TestBuildFilteredRangesNoFilter(t *testing.T) {
	got := BuildFilteredRanges(nil, 10, 12)
	assert.Equal(t, []TimeRange{{Start: 10, End: 12}}, got)
}

func TestBuildFilteredRangesLatestFirst(t *testing.T) {
	got := BuildFilteredRanges(&Filter{Start: 0.5, Duration: 0.2}, 10, 12)
	require.Len(t, got, 2)

	assert.InDelta(t, 11.5, got[0].Start, 1e-9)
	assert.InDelta(t, 11.7, got[0].End, 1e-9)
	assert.InDelta(t, 10.5, got[1].Start, 1e-9)
	assert.InDelta(t, 10.7, got[1].End, 1e-9)
}

func TestBuildFilteredRangesClipsToInterval(t *testing.T) {
	got := BuildFilteredRanges(&Filter{Start: 0.8, Duration: 0.5}, 10, 11.9)
	require.Len(t, got, 2)

	// [11.8, 12.3) is cut at the silence end
	assert.InDelta(t, 11.8, got[0].Start, 1e-9)
	assert.InDelta(t, 11.9, got[0].End, 1e-9)
	assert.InDelta(t, 10.8, got[1].Start, 1e-9)
	assert.InDelta(t, 11.3, got[1].End, 1e-9)

	for _, r := range got {
		assert.GreaterOrEqual(t, r.Start, 10.0)
		assert.LessOrEqual(t, r.End, 11.9)
		assert.Less(t, r.Start, r.End)
	}
}

func TestBuildFilteredRangesLastTileFirst(t *testing.T) {
	for _, tt := range []struct {
		filter     Filter
		start, end float64
	}{
		{Filter{Start: 0.5, Duration: 0.4}, 10, 13},
		{Filter{Start: 0.1, Duration: 0.9}, 3, 8.95},
		{Filter{Start: 0.0, Duration: 0.3}, 100, 104.2},
	} {
		got := BuildFilteredRanges(&tt.filter, tt.start, tt.end)
		require.NotEmpty(t, got)
		for i := 1; i < len(got); i++ {
			assert.Less(t, got[i].Start, got[0].Start)
		}
	}
}

func TestBuildFilteredRangesZeroDuration(t *testing.T) {
	assert.Empty(t, BuildFilteredRanges(&Filter{Start: 0.5}, 10, 12))
}

func TestBuildFilteredRangesShortInterval(t *testing.T) {
	// the first tile would start after the silence ends
	assert.Empty(t, BuildFilteredRanges(&Filter{Start: 0.7, Duration: 0.2}, 10, 10.5))
}

func TestBuildCandidateUnfiltered(t *testing.T) {
	c := BuildCandidate(4, silence.Interval{Start: 10, End: 12}, nil)

	assert.Equal(t, 4, c.ID)
	assert.Equal(t, 299, c.StartFrame)
	assert.Equal(t, 360, c.EndFrame)
	assert.False(t, c.Filtered)
	assert.Equal(t, []Range{{StartFrame: 299, EndFrame: 360}}, c.Ranges)
	assert.Equal(t, 2*61+1, c.SignalLen())
}

func TestBuildCandidateRangesInsideWindow(t *testing.T) {
	filters := []*Filter{
		nil,
		{Start: 0.5, Duration: 0.2},
		{Start: 0.95, Duration: 0.9},
		{Start: 0, Duration: 0.05},
	}
	intervals := []silence.Interval{
		{Start: 0, End: 0.4},
		{Start: 10, End: 12},
		{Start: 59.98, End: 63.21},
		{Start: -0.3, End: 1.1},
	}

	for _, f := range filters {
		for _, iv := range intervals {
			c := BuildCandidate(0, iv, f)
			for _, r := range c.Ranges {
				assert.GreaterOrEqual(t, r.StartFrame, c.StartFrame, "%v %v", f, iv)
				assert.LessOrEqual(t, r.EndFrame, c.EndFrame, "%v %v", f, iv)
				assert.LessOrEqual(t, r.StartFrame, r.EndFrame, "%v %v", f, iv)
			}
		}
	}
}

func TestBuildCandidateFiltered(t *testing.T) {
	c := BuildCandidate(0, silence.Interval{Start: 10, End: 12}, &Filter{Start: 0.5, Duration: 0.2})

	assert.True(t, c.Filtered)
	require.Len(t, c.Ranges, 2)
	// 11.5s and 11.7s fall in frames 344 and 350
	assert.Equal(t, Range{StartFrame: 344, EndFrame: 351}, c.Ranges[0])
	assert.Equal(t, Range{StartFrame: 314, EndFrame: 321}, c.Ranges[1])
}

func TestBuildCandidateZeroDurationFilter(t *testing.T) {
	c := BuildCandidate(0, silence.Interval{Start: 10, End: 12}, &Filter{Start: 0.5})
	assert.Empty(t, c.Ranges)
	assert.True(t, c.Filtered)
}

func TestBuildCandidates(t *testing.T) {
	got := BuildCandidates([]silence.Interval{{Start: 1, End: 2}, {Start: 30, End: 31}}, nil)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ID)
	assert.Equal(t, 1, got[1].ID)
	assert.Less(t, got[0].EndFrame, got[1].StartFrame)

	assert.Empty(t, BuildCandidates(nil, nil))
}
