package receipt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReceiptNotFound is returned when a receipt id does not exist.
var ErrReceiptNotFound = errors.New("receipt not found")

// MalformedReceiptError is a hard rejection: the extraction is missing keys
// the system needs for later retrieval. Every other anomaly degrades to a
// review flag instead.
type MalformedReceiptError struct {
	Missing []string
}

func (e *MalformedReceiptError) Error() string {
	return fmt.Sprintf("malformed receipt: missing %s", strings.Join(e.Missing, ", "))
}

// IsMalformed reports whether err is a hard extraction rejection.
func IsMalformed(err error) bool {
	var m *MalformedReceiptError
	return errors.As(err, &m)
}
