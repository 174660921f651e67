package boundary

import "fmt"

// Kind says how much a Result can be trusted.
type Kind int

const (
	// NoData means no strategy could look at any signal.
	NoData Kind = iota
	// Exact is a cut found by a threshold strategy.
	Exact
	// Guess is the least-bad position when nothing crossed a threshold.
	Guess
	// NoRegion means the candidate had no searchable sub-range.
	NoRegion
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Guess:
		return "guess"
	case NoRegion:
		return "no-region"
	default:
		return "no-data"
	}
}

// Result is the boundary found for one candidate. Offset is in field units
// from the start of the candidate's signal and is only meaningful for
// Exact and Guess.
type Result struct {
	Kind     Kind
	Offset   int
	Strategy string // Name of the strategy that produced the result
}

// ExactAt returns an Exact result at offset.
func ExactAt(offset int) Result {
	return Result{Kind: Exact, Offset: offset}
}

// GuessAt returns a Guess result at offset.
func GuessAt(offset int) Result {
	return Result{Kind: Guess, Offset: offset}
}

// Signed returns the single-integer encoding used by older cut-list tools:
// positive for exact, negative for a guess, 0 for no data and -1 for no
// searchable region.
func (r Result) Signed() int {
	switch r.Kind {
	case Exact:
		return r.Offset
	case Guess:
		return -r.Offset
	case NoRegion:
		return -1
	default:
		return 0
	}
}

func (r Result) String() string {
	switch r.Kind {
	case Exact, Guess:
		return fmt.Sprintf("%s@%d", r.Kind, r.Offset)
	default:
		return r.Kind.String()
	}
}
