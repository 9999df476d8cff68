package types

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by ingestion and forecasting. Callers match them with
// errors.Is; FileError carries the file and field that produced them.
var (
	ErrMissingColumn       = errors.New("missing column")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrFileRead            = errors.New("file read failure")
	ErrMissingInputFile    = errors.New("missing input file")
	ErrUnrecognizedPeriod  = errors.New("unrecognized period prefix")
)

// FileError ties an error to the export file (and optionally the field) it
// was raised for.
type FileError struct {
	Path  string
	Field string
	Err   error
}

func (e *FileError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
