package quizdown

import (
	"strings"
)

// Names under which the extension registers itself with a host.
const (
	DirectiveName   = "quizdown"
	ConfigValueName = "quizdown_config"
	Version         = "0.3"
)

// Env is the slice of the host a quiz block needs to load external files.
type Env interface {
	// RelFilename resolves a directive argument against the current
	// document. A leading "/" means relative to the source root. It
	// returns the path relative to the source root and the absolute path.
	RelFilename(name string) (rel, abs string)
	// NoteDependency records that the current document depends on rel.
	NoteDependency(rel string)
	// ReadFile reads a file relative to the source root.
	ReadFile(rel string) ([]byte, error)
}

// Block is one occurrence of the directive in a source document.
type Block struct {
	Argument    string
	HasArgument bool
	Content     []string // body lines without terminators
	Line        int      // 1-based line of the opening fence
}

// Handler turns quiz blocks into container markup.
// It holds no state and is safe for concurrent use.
type Handler struct{}

// NewHandler returns a Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Run returns the container markup for b.
//
// With an argument the file it names is resolved through env, registered
// as a dependency and read; the inline content is ignored. Without one the
// content lines are joined with "\n". Errors wrap ErrQuizFileRead or
// ErrEmptyQuiz and leave the page without a widget.
func (h *Handler) Run(env Env, b Block) (string, error) {
	text, err := h.source(env, b)
	if err != nil {
		return "", err
	}
	return Wrap(Escape(text)), nil
}

func (h *Handler) source(env Env, b Block) (string, error) {
	if b.HasArgument {
		rel, abs := env.RelFilename(b.Argument)
		env.NoteDependency(rel)
		data, err := env.ReadFile(rel)
		if err != nil {
			return "", &FileError{Path: abs, Err: err}
		}
		return string(data), nil
	}

	text := strings.Join(b.Content, "\n")
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyQuiz
	}
	return text, nil
}
