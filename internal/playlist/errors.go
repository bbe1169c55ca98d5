package playlist

import "errors"

// ErrNotFound is returned by Store.Get when no playlist matches both the id
// and the owner.
var ErrNotFound = errors.New("playlist not found")

// ValidationError reports a malformed payload. It is always produced before
// the store is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
