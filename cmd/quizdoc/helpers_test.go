package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alnah/go-quizdown/internal/browsercheck"
)

// fixedNow is the clock used by test environments.
var fixedNow = time.Date(2024, time.March, 9, 10, 0, 0, 0, time.UTC)

// testEnv returns an environment writing to buffers. prober may be nil.
func testEnv(prober browsercheck.PageProber) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	env := &Environment{
		Now:    func() time.Time { return fixedNow },
		Stdout: stdout,
		Stderr: stderr,
		NewProber: func(time.Duration) browsercheck.PageProber {
			return prober
		},
	}
	return env, stdout, stderr
}

// setupSite creates a temp directory with the given files (slash paths).
func setupSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func run(args ...string) (int, string, string) {
	env, stdout, stderr := testEnv(nil)
	code := runMain(context.Background(), args, env)
	return code, stdout.String(), stderr.String()
}

const quizPage = "# Home\n\n" +
	"```{quizdown}\n" +
	"# What is 2+2?\n" +
	"- [x] 4\n" +
	"- [ ] 3\n" +
	"```\n"

const siteConfig = `project: Quiz Site
author: Jane Doe
copyright: "2024, Jane Doe"
release: 1.0.0
extensions: [quizdown]
exclude: ["quizzes/**"]
values:
  quizdown_config:
    shuffle_answers: true
`

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
