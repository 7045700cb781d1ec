package wallet

import (
	"errors"
	"fmt"
)

// ErrPassNotFound is returned when a pass id does not exist.
var ErrPassNotFound = errors.New("pass not found")

// TransientError is a retryable issuance failure: the wallet boundary was
// unreachable or overloaded. The Manager retries these with backoff.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient issuance error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError is a non-retryable issuance failure: the wallet rejected
// the payload itself. Surfaced immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent issuance error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether an issuance failure is worth retrying.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
