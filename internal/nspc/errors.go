package nspc

import "fmt"

// ErrInvariant marks a violated data-model invariant (§3.7, §8.1). Tests
// and callers that want to detect "some invariant broke" regardless of
// which one can check errors.Is(err, ErrInvariant).
var ErrInvariant = fmt.Errorf("nspc: invariant violated")

func errInvariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
