package quizdown

import (
	"errors"
	"fmt"
)

// Sentinel errors for quiz blocks. Hosts report them as warnings.
var ErrQuizFileRead = errors.New("quizdown file read failed")

var ErrEmptyQuiz error = &blockWarning{
	text:    `ignoring "quizdown" directive without content`,
	message: `Ignoring "quizdown" directive without content.`,
}

// Sentinel errors for configuration.
var (
	ErrInvalidScriptURL = errors.New("quizdown_js must be a non-empty string")
	ErrConfigEncode     = errors.New("quizdown configuration cannot be encoded as JSON")
)

// blockWarning is a sentinel with a separate diagnostic text.
type blockWarning struct {
	text    string
	message string
}

func (w *blockWarning) Error() string {
	return w.text
}

// WarningMessage returns the text hosts print in build warnings.
func (w *blockWarning) WarningMessage() string {
	return w.message
}

// FileError reports an external quiz file that could not be read.
// It matches ErrQuizFileRead and the underlying cause with errors.Is.
type FileError struct {
	Path string // absolute path as resolved by the host
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("external quizdown file %q not found or reading it failed", e.Path)
}

func (e *FileError) Unwrap() []error {
	return []error{ErrQuizFileRead, e.Err}
}

// WarningMessage returns the text hosts print in build warnings.
func (e *FileError) WarningMessage() string {
	return fmt.Sprintf("External quizdown file %q not found or reading it failed", e.Path)
}
