package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a serie id does not exist.
var ErrNotFound = errors.New("serie not found")

// ValidationError reports a rejected request. Either Field/Message is
// set (a malformed or missing field) or Missing lists relation ids that
// do not exist in the catalog. The update is rejected as a whole; no
// state has been mutated when one of these is returned.
type ValidationError struct {
	Field   string   `json:"field,omitempty"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: not found: %s", e.Message, strings.Join(e.Missing, ", "))
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// AsValidation unwraps err into a *ValidationError, or returns nil.
func AsValidation(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
