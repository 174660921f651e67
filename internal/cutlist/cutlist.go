// Package cutlist formats boundary results into the cut list consumed by
// the editing tools, one line per candidate:
//
//	<index> <mode> <start_frame> <end_frame> <target>
package cutlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gwlsn/cutscan/internal/boundary"
	"github.com/gwlsn/cutscan/internal/scene"
)

// Modes written to the cut list.
const (
	ModeExact = "exact"
	ModeRange = "range"
)

var (
	// ErrOutputExists is returned by WriteFile when the target already exists.
	ErrOutputExists = errors.New("cut list already exists")
	// ErrMalformedRecord is returned by Parse for an unreadable line.
	ErrMalformedRecord = errors.New("malformed cut list record")
)

// Target is a frame position at field resolution. Half is set when the
// cut falls between Frame and Frame+1.
type Target struct {
	Frame int
	Half  bool
}

// Float returns the target as a frame number.
func (t Target) Float() float64 {
	if t.Half {
		return float64(t.Frame) + 0.5
	}
	return float64(t.Frame)
}

// String prints an integer, or a one-decimal value for half frames.
func (t Target) String() string {
	if t.Half {
		return strconv.FormatFloat(t.Float(), 'f', 1, 64)
	}
	return strconv.Itoa(t.Frame)
}

// Record is one cut list line.
type Record struct {
	Index      int
	Mode       string
	StartFrame int
	EndFrame   int
	Target     Target
}

func (r Record) String() string {
	return fmt.Sprintf("%d %s %d %d %s", r.Index, r.Mode, r.StartFrame, r.EndFrame, r.Target)
}

// fieldTarget converts a field offset from frame start into a frame target.
func fieldTarget(start, fields int) Target {
	return Target{Frame: start + fields/2, Half: fields%2 != 0}
}

// Format maps a boundary result back onto the candidate window.
//
// Exact results become "exact" records; everything else is a "range".
// A candidate with no searchable region gets the window midpoint as its
// target since there is no field offset to convert.
func Format(c scene.Candidate, res boundary.Result) Record {
	rec := Record{
		Index:      c.ID,
		Mode:       ModeRange,
		StartFrame: c.StartFrame,
		EndFrame:   c.EndFrame,
	}

	switch res.Kind {
	case boundary.Exact:
		rec.Mode = ModeExact
		rec.Target = fieldTarget(c.StartFrame, res.Offset)
	case boundary.Guess:
		rec.Target = fieldTarget(c.StartFrame, res.Offset)
	case boundary.NoRegion:
		rec.Target = fieldTarget(c.StartFrame, c.Frames())
	default:
		rec.Target = Target{Frame: c.StartFrame}
	}

	return rec
}

// Write writes records in the given order.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := fmt.Fprintln(bw, r.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes records to a new file at path. An existing file is
// never overwritten.
func WriteFile(path string, records []Record) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		return err
	}

	if err := Write(f, records); err != nil {
		f.Close()
		return fmt.Errorf("write cut list: %w", err)
	}
	return f.Close()
}

// Parse reads a cut list.
func Parse(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

func parseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Record{}, fmt.Errorf("%w: %q", ErrMalformedRecord, line)
	}

	var rec Record
	var err error
	if rec.Index, err = strconv.Atoi(fields[0]); err != nil {
		return Record{}, fmt.Errorf("%w: index %q", ErrMalformedRecord, fields[0])
	}
	rec.Mode = fields[1]
	if rec.Mode != ModeExact && rec.Mode != ModeRange {
		return Record{}, fmt.Errorf("%w: mode %q", ErrMalformedRecord, fields[1])
	}
	if rec.StartFrame, err = strconv.Atoi(fields[2]); err != nil {
		return Record{}, fmt.Errorf("%w: start %q", ErrMalformedRecord, fields[2])
	}
	if rec.EndFrame, err = strconv.Atoi(fields[3]); err != nil {
		return Record{}, fmt.Errorf("%w: end %q", ErrMalformedRecord, fields[3])
	}
	if rec.Target, err = parseTarget(fields[4]); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func parseTarget(s string) (Target, error) {
	whole, frac, hasFrac := strings.Cut(s, ".")
	frame, err := strconv.Atoi(whole)
	if err != nil {
		return Target{}, fmt.Errorf("%w: target %q", ErrMalformedRecord, s)
	}
	if !hasFrac {
		return Target{Frame: frame}, nil
	}
	switch frac {
	case "0":
		return Target{Frame: frame}, nil
	case "5":
		return Target{Frame: frame, Half: true}, nil
	}
	return Target{}, fmt.Errorf("%w: target %q", ErrMalformedRecord, s)
}
