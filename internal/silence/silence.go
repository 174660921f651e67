// Package silence reads the interval list written by the audio silence detector.
package silence

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedLine is returned for a line that is not "<start> <end>".
var ErrMalformedLine = errors.New("malformed silence line")

// Interval is a silence span in seconds.
type Interval struct {
	Start float64
	End   float64
}

// Shift returns the interval moved by -delay seconds.
func (i Interval) Shift(delay float64) Interval {
	return Interval{Start: i.Start - delay, End: i.End - delay}
}

// List is a parsed silence file.
type List struct {
	// Duration is the audio length from the "all 0.000 <duration>" header, 0 if absent.
	Duration  float64
	Intervals []Interval
}

// Parse reads a silence list. The first line is a header and is skipped;
// when it has the detector's "all <start> <end>" form its end is kept as
// Duration. Blank lines are ignored.
func Parse(r io.Reader) (*List, error) {
	list := &List{}
	scanner := bufio.NewScanner(r)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if lineNum == 1 {
			list.Duration = parseHeader(line)
			continue
		}
		if line == "" {
			continue
		}

		interval, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		list.Intervals = append(list.Intervals, interval)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read silence list: %w", err)
	}

	return list, nil
}

// ReadFile parses the silence list at path.
func ReadFile(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

func parseHeader(line string) float64 {
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != "all" {
		return 0
	}
	d, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0
	}
	return d
}

func parseLine(line string) (Interval, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Interval{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}

	start, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: start %q", ErrMalformedLine, fields[0])
	}
	end, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: end %q", ErrMalformedLine, fields[1])
	}
	if end < start {
		return Interval{}, fmt.Errorf("%w: end %v before start %v", ErrMalformedLine, end, start)
	}

	return Interval{Start: start, End: end}, nil
}
