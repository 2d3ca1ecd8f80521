package main

import (
	"io"
	"os"
	"time"

	"github.com/alnah/go-quizdown/internal/browsercheck"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now       func() time.Time
	Stdout    io.Writer
	Stderr    io.Writer
	NewProber func(timeout time.Duration) browsercheck.PageProber
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewProber: func(timeout time.Duration) browsercheck.PageProber {
			return browsercheck.NewRodProber(timeout)
		},
	}
}
