package feedly

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCategoryID = errors.New("category ID cannot be empty")
	ErrEmptyFeedID     = errors.New("feed ID cannot be empty")
	ErrEmptyFeedURL    = errors.New("feed URL cannot be empty")
)

// APIError is returned for any Feedly response whose status is not 200.
type APIError struct {
	Op         string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("could not %s: %d", e.Op, e.StatusCode)
}

// IsStatus reports whether err carries an APIError with the given status.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
