package stage

import "fmt"

// PortConflictError reports that the host port a service instance needs is
// already bound. This is a deterministic local fault, so the system stage
// fails fast instead of retrying or skipping.
type PortConflictError struct {
	Port int
	Err  error
}

func (e *PortConflictError) Error() string {
	return fmt.Sprintf("port %d already in use: %v", e.Port, e.Err)
}

func (e *PortConflictError) Unwrap() error { return e.Err }

// UnreachableError reports that a launched instance never answered its
// health probe within the attempt budget.
type UnreachableError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%s unreachable after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }
