package multiplex

import "fmt"

// Kind enumerates the multiplexing-stage warning family: tag conflicts
// and uniqueness violations.
type Kind int

const (
	TagConflict Kind = iota
	UniqueViolation
)

func (k Kind) String() string {
	switch k {
	case TagConflict:
		return "TagConflict"
	case UniqueViolation:
		return "UniqueViolation"
	default:
		return "unknown"
	}
}

// Warning reports a non-fatal multiplexing-stage defect; the run
// continues.
type Warning struct {
	Kind   Kind
	Detail string
}

func (w *Warning) Error() string {
	return fmt.Sprintf("multiplex: %s: %s", w.Kind, w.Detail)
}
