package quizdown

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Option keys understood by quizdown.js.
const (
	KeyScriptURL        = "quizdown_js"
	KeyStartOnLoad      = "start_on_load"
	KeyShuffleAnswers   = "shuffle_answers"
	KeyShuffleQuestions = "shuffle_questions"
	KeyPrimaryColor     = "primary_color"
	KeySecondaryColor   = "secondary_color"
	KeyTitleColor       = "title_color"
)

// DefaultScriptURL is used when the author does not set quizdown_js.
const DefaultScriptURL = "https://cdn.jsdelivr.net/gh/bonartm/quizdown-js@latest/public/build/quizdown.js"

// Config is the process-wide quizdown option mapping.
// It is immutable once built: share it by pointer.
type Config struct {
	values    map[string]any
	scriptURL string
	payload   string
}

// NewConfig builds a Config from author options.
// The input map is copied; later changes to it have no effect.
// Returns ErrInvalidScriptURL if quizdown_js is set to anything but a
// non-empty string, and ErrConfigEncode if a value has no JSON form.
func NewConfig(options map[string]any) (*Config, error) {
	values := make(map[string]any, len(options)+1)
	for k, v := range options {
		values[k] = copyValue(v)
	}

	raw, ok := values[KeyScriptURL]
	if !ok {
		raw = DefaultScriptURL
		values[KeyScriptURL] = raw
	}
	scriptURL, isString := raw.(string)
	if !isString || strings.TrimSpace(scriptURL) == "" {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidScriptURL, raw)
	}

	// encoding/json sorts map keys and escapes <, > and &, which keeps the
	// payload stable across pages and safe inside an inline <script>.
	payload, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigEncode, err)
	}

	return &Config{
		values:    values,
		scriptURL: scriptURL,
		payload:   string(payload),
	}, nil
}

// DefaultConfig returns a Config with only the default script URL.
func DefaultConfig() *Config {
	cfg, err := NewConfig(nil)
	if err != nil {
		panic("quizdown: default config: " + err.Error())
	}
	return cfg
}

// ScriptURL returns the quizdown.js URL to include in every page.
func (c *Config) ScriptURL() string {
	return c.scriptURL
}

// JSON returns the serialized option mapping passed to quizdown.init.
// The same string is returned on every call.
func (c *Config) JSON() string {
	return c.payload
}

// Value returns a copy of the option stored under key.
func (c *Config) Value(key string) (any, bool) {
	v, ok := c.values[key]
	if !ok {
		return nil, false
	}
	return copyValue(v), true
}

// Keys returns the option names in sorted order.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InitScript returns the inline script body that starts quizdown with cfg.
func InitScript(cfg *Config) string {
	return "quizdown.init(" + cfg.JSON() + ");"
}

// copyValue deep-copies maps and slices produced by YAML or JSON decoders.
// Maps keyed by non-strings are re-keyed with their printed form so the
// result stays JSON-encodable.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = copyValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	default:
		return v
	}
}
