package scene

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFilter is returned when a periodic filter string cannot be used.
var ErrInvalidFilter = errors.New("invalid periodic filter")

// Filter selects a sub-second window that repeats every second.
// Broadcasters tend to cut at a fixed phase within the second, so
// searching only that phase first finds the boundary sooner.
type Filter struct {
	Start    float64 // Offset of the window within each second, [0,1)
	Duration float64 // Window length, [0,1)
}

// ParseFilter parses "<start>,<duration>". An empty string means no filter
// and returns nil without error.
func ParseFilter(s string) (*Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: %q: want <start>,<duration>", ErrInvalidFilter, s)
	}

	start, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q: %v", ErrInvalidFilter, parts[0], err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: duration %q: %v", ErrInvalidFilter, parts[1], err)
	}

	f := &Filter{Start: start, Duration: duration}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks that both values lie in [0,1).
func (f *Filter) Validate() error {
	if f.Start < 0 || f.Start >= 1 {
		return fmt.Errorf("%w: start %v not in [0,1)", ErrInvalidFilter, f.Start)
	}
	if f.Duration < 0 || f.Duration >= 1 {
		return fmt.Errorf("%w: duration %v not in [0,1)", ErrInvalidFilter, f.Duration)
	}
	return nil
}

// String renders the filter in the same form ParseFilter accepts.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(f.Start, 'f', -1, 64) + "," + strconv.FormatFloat(f.Duration, 'f', -1, 64)
}
