package quizdown_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	quizdown "github.com/alnah/go-quizdown"
)

// ---------------------------------------------------------------------------
// TestNewConfig - Construction and validation
// ---------------------------------------------------------------------------

func TestNewConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		options  map[string]any
		wantURL  string
		wantJSON string
		wantErr  error
	}{
		{
			name:     "nil options get default script",
			options:  nil,
			wantURL:  quizdown.DefaultScriptURL,
			wantJSON: `{"quizdown_js":"` + quizdown.DefaultScriptURL + `"}`,
		},
		{
			name: "custom script and options sorted",
			options: map[string]any{
				"shuffle_answers": true,
				"quizdown_js":     "/_static/quizdown.js",
				"primary_color":   "#FF851B",
			},
			wantURL:  "/_static/quizdown.js",
			wantJSON: `{"primary_color":"#FF851B","quizdown_js":"/_static/quizdown.js","shuffle_answers":true}`,
		},
		{
			name:     "unknown keys pass through",
			options:  map[string]any{"locale": "fr"},
			wantURL:  quizdown.DefaultScriptURL,
			wantJSON: `{"locale":"fr","quizdown_js":"` + quizdown.DefaultScriptURL + `"}`,
		},
		{
			name:     "values cannot close the script element",
			options:  map[string]any{"title_color": "</script><b>"},
			wantURL:  quizdown.DefaultScriptURL,
			wantJSON: `{"quizdown_js":"` + quizdown.DefaultScriptURL + `","title_color":"\u003c/script\u003e\u003cb\u003e"}`,
		},
		{
			name:     "non-string keys are stringified",
			options:  map[string]any{"extra": map[any]any{1: "one"}},
			wantURL:  quizdown.DefaultScriptURL,
			wantJSON: `{"extra":{"1":"one"},"quizdown_js":"` + quizdown.DefaultScriptURL + `"}`,
		},
		{
			name:    "script URL must be a string",
			options: map[string]any{"quizdown_js": 42},
			wantErr: quizdown.ErrInvalidScriptURL,
		},
		{
			name:    "script URL must not be blank",
			options: map[string]any{"quizdown_js": "  "},
			wantErr: quizdown.ErrInvalidScriptURL,
		},
		{
			name:    "unencodable value",
			options: map[string]any{"bad": func() {}},
			wantErr: quizdown.ErrConfigEncode,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := quizdown.NewConfig(tt.options)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewConfig() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewConfig() unexpected error: %v", err)
			}
			if cfg.ScriptURL() != tt.wantURL {
				t.Errorf("ScriptURL() = %q, want %q", cfg.ScriptURL(), tt.wantURL)
			}
			if cfg.JSON() != tt.wantJSON {
				t.Errorf("JSON() = %s, want %s", cfg.JSON(), tt.wantJSON)
			}
			if !json.Valid([]byte(cfg.JSON())) {
				t.Errorf("JSON() is not valid JSON: %s", cfg.JSON())
			}
		})
	}
}

func TestNewConfig_CopiesInput(t *testing.T) {
	t.Parallel()

	nested := map[string]any{"a": "b"}
	options := map[string]any{"nested": nested, "start_on_load": true}

	cfg, err := quizdown.NewConfig(options)
	if err != nil {
		t.Fatalf("NewConfig() unexpected error: %v", err)
	}
	before := cfg.JSON()

	options["start_on_load"] = false
	nested["a"] = "changed"

	if cfg.JSON() != before {
		t.Errorf("JSON() changed after mutating input: %s -> %s", before, cfg.JSON())
	}

	v, ok := cfg.Value("nested")
	if !ok {
		t.Fatal("Value(nested) missing")
	}
	v.(map[string]any)["a"] = "mutated"
	if cfg.JSON() != before {
		t.Error("mutating a returned value changed the config")
	}
}

func TestConfig_Keys(t *testing.T) {
	t.Parallel()

	cfg, err := quizdown.NewConfig(map[string]any{"title_color": "red", "shuffle_questions": false})
	if err != nil {
		t.Fatalf("NewConfig() unexpected error: %v", err)
	}

	got := strings.Join(cfg.Keys(), ",")
	want := "quizdown_js,shuffle_questions,title_color"
	if got != want {
		t.Errorf("Keys() = %s, want %s", got, want)
	}
	if _, ok := cfg.Value("missing"); ok {
		t.Error("Value(missing) reported present")
	}
}

func TestInitScript(t *testing.T) {
	t.Parallel()

	cfg := quizdown.DefaultConfig()
	got := quizdown.InitScript(cfg)

	if !strings.HasPrefix(got, "quizdown.init({") || !strings.HasSuffix(got, "});") {
		t.Errorf("InitScript() = %q, want quizdown.init({...});", got)
	}
	if got != quizdown.InitScript(cfg) {
		t.Error("InitScript() is not stable across calls")
	}
}
