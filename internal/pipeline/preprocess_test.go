package pipeline

import (
	"context"
	"testing"
)

func TestPreprocessMarkdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "normalizes CRLF and CR",
			input: "a\r\nb\rc",
			want:  "a\nb\nc",
		},
		{
			name:  "keeps blank lines",
			input: "a\n\n\n\nb",
			want:  "a\n\n\n\nb",
		},
		{
			name:  "leaves highlight syntax to the parser",
			input: "```{quizdown}\r\n# ==Q==\r\n```\r\n==after==",
			want:  "```{quizdown}\n# ==Q==\n```\n==after==",
		},
	}

	p := &CommonMarkPreprocessor{}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := p.PreprocessMarkdown(context.Background(), tt.input)
			if got != tt.want {
				t.Errorf("PreprocessMarkdown() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreprocessMarkdown_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := "a\r\n==b=="
	if got := (&CommonMarkPreprocessor{}).PreprocessMarkdown(ctx, input); got != input {
		t.Errorf("PreprocessMarkdown() with cancelled context = %q, want input unchanged", got)
	}
}
