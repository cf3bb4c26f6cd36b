package errors

import (
	"errors"
	"fmt"
)

var (
	ErrExtractionFailed = errors.New("extraction failed")
	ErrOversizeArtifact = errors.New("artifact exceeds upload limit")
	ErrNoArtifact       = errors.New("extractor reported no output file")
	ErrJobNotFound      = errors.New("job not found")
	ErrInvalidURL       = errors.New("invalid URL")
)

// ExtractionError is returned when the extraction engine could not retrieve
// or process a URL.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtractionFailed }
