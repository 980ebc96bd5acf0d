package fetch

import "fmt"

// Kind classifies a fetch failure for retry purposes.
type Kind int

const (
	// KindTransient marks a retryable failure (429/5xx/transport) that
	// survived the whole retry budget.
	KindTransient Kind = iota

	// KindFatal marks a non-retryable upstream rejection (application
	// error envelope, malformed response).
	KindFatal
)

func (k Kind) String() string {
	if k == KindFatal {
		return "fatal"
	}
	return "transient"
}

// Error is the failure an exhausted or rejected upstream call surfaces to
// its caller. It wraps the last underlying cause and identifies the
// operation name.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure was retryable in nature.
func (e *Error) Transient() bool {
	return e.Kind == KindTransient
}
