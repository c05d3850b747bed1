package wordcount

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFilesProvided is returned when a request carries no file parts.
	ErrNoFilesProvided = errors.New("no files provided")

	// ErrStreamRead marks a file whose contents could not be read to completion.
	ErrStreamRead = errors.New("stream read failure")

	// ErrFileTooLarge marks a file that exceeded the per-file byte limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// StreamReadError describes a single file that was skipped. It matches both
// ErrStreamRead and the underlying cause with errors.Is.
type StreamReadError struct {
	File string
	Err  error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("read file %q: %v", e.File, e.Err)
}

func (e *StreamReadError) Unwrap() []error {
	return []error{ErrStreamRead, e.Err}
}
