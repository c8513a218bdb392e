package internal

import "fmt"

// TransportError covers connection failures and non-success statuses for a
// single window's request.
type TransportError struct {
	Window Window
	Status int // 0 when the request never got a response
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport error for window %s: unexpected status %d", e.Window, e.Status)
	}
	return fmt.Sprintf("transport error for window %s: %v", e.Window, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// LengthMismatchError means the server returned a body whose size differs
// from the planned window, either a transport anomaly or the truncation
// threshold firing below the configured chunk size.
type LengthMismatchError struct {
	Window   Window
	Received int64
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("length mismatch for window %s: want %d bytes, got %d", e.Window, e.Window.Length, e.Received)
}

// IncompleteAssemblyError is a defensive check: it cannot fire while the
// planner's partition invariant holds.
type IncompleteAssemblyError struct {
	Written int64
	Total   int64
}

func (e *IncompleteAssemblyError) Error() string {
	return fmt.Sprintf("incomplete assembly: %d of %d bytes written", e.Written, e.Total)
}

type DigestMismatchError struct {
	Expected string
	Computed string
}

func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("digest mismatch: expected %s, computed %s", e.Expected, e.Computed)
}
