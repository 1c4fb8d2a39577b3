package download

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidURL is returned for an empty, unparsable or non-HTTP URL
	ErrInvalidURL = errors.New("supplied URL must be a non-empty http or https URL")

	// ErrNoFileName is returned when the URL path has no usable last segment
	ErrNoFileName = errors.New("cannot derive a file name from URL")
)

// StatusError is returned when the server answers with anything but 200 OK
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to download file: %s returned %d %s", e.URL, e.Code, http.StatusText(e.Code))
}
