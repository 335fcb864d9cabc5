package orchestrator

import (
	"errors"
	"fmt"
)

// ErrMissingCredential 请求未携带 API key
// ErrMissingCredential means the request carried no API key. Nothing was
// sent upstream and no session was touched.
var ErrMissingCredential = errors.New("API key is required")

// UnexpectedError wraps any fault that is neither a caller mistake nor an
// upstream failure: malformed upstream payloads, storage faults, panics.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}
