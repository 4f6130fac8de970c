package geoid

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrGridNotFound       = errors.New("no .grd member found in archive")
	ErrUnsupportedArchive = errors.New("unsupported archive format")
	ErrInvalidGrid        = errors.New("malformed geoid grid")
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrUnsupportedScheme  = errors.New("unsupported data source scheme")

	errStaleLoad = errors.New("data source was reset during acquisition")
)

// AcquisitionError reports a failed attempt to provision the geoid grid.
// The provider stays unloaded and the next lookup retries.
type AcquisitionError struct {
	URL string
	Err error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("failed to acquire geoid grid from %s: %v", e.URL, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// StatusError is returned when an HTTP data source answers with a non-2xx status
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d from %s", e.StatusCode, e.URL)
}

// IsAcquisitionError checks if an error came from grid provisioning
func IsAcquisitionError(err error) bool {
	var acqErr *AcquisitionError
	return errors.As(err, &acqErr)
}
