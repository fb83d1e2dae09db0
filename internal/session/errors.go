package session

import "fmt"

// InitializationError means driver/browser/page construction or the initial
// navigation failed. Session creation is aborted: nothing is registered and
// the caller owes the client a diagnostic message, but the connection itself
// stays open.
type InitializationError struct {
	ConnID string
	Err    error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("session init for connection %s: %v", e.ConnID, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// TeardownError records one failed resource-release step. It is logged
// server-side and swallowed; the remaining teardown steps still run. The
// client has disconnected by definition, so no status message is owed.
type TeardownError struct {
	Step string
	Err  error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("teardown step %s: %v", e.Step, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }
