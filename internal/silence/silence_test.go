package silence

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `all 0.000 1803.469
10.000 12.000
305.120 306.900

611.48 612.2
`

func TestParse(t *testing.T) {
	list, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.InDelta(t, 1803.469, list.Duration, 1e-9)
	assert.Equal(t, []Interval{
		{Start: 10, End: 12},
		{Start: 305.12, End: 306.9},
		{Start: 611.48, End: 612.2},
	}, list.Intervals)
}

func TestParseUnknownHeader(t *testing.T) {
	list, err := Parse(strings.NewReader("silence list\n1 2\n"))
	require.NoError(t, err)
	assert.Zero(t, list.Duration)
	assert.Len(t, list.Intervals, 1)
}

func TestParseEmpty(t *testing.T) {
	list, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, list.Intervals)

	list, err = Parse(strings.NewReader("all 0.000 60.0\n"))
	require.NoError(t, err)
	assert.Empty(t, list.Intervals)
	assert.InDelta(t, 60.0, list.Duration, 1e-9)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"one field", "all 0 9\n1.0\n", "line 2"},
		{"three fields", "all 0 9\n1 2\n1 2 3\n", "line 3"},
		{"bad start", "all 0 9\nx 2\n", "line 2"},
		{"bad end", "all 0 9\n1 y\n", "line 2"},
		{"end before start", "all 0 9\n5 4\n", "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedLine)
			assert.Contains(t, err.Error(), tt.line)
		})
	}
}

func TestIntervalShift(t *testing.T) {
	got := Interval{Start: 10, End: 12}.Shift(0.25)
	assert.InDelta(t, 9.75, got.Start, 1e-9)
	assert.InDelta(t, 11.75, got.End, 1e-9)

	neg := Interval{Start: 0.1, End: 1}.Shift(0.5)
	assert.Less(t, neg.Start, 0.0)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movie.sil")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	list, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, list.Intervals, 3)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.sil"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
