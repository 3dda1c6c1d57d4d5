package extractor

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedLanguage is returned when no extractor handles a file type.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrUnparsable is returned when a file's syntax tree contains errors.
	ErrUnparsable = errors.New("unparsable source")
)

// ParseError locates the first syntax error of a file.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %v", e.Path, e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
