package site_test

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yuin/goldmark/parser"

	"github.com/alnah/go-quizdown/internal/pipeline"
	"github.com/alnah/go-quizdown/internal/site"
)

type stubConverter struct{ id int }

func (s *stubConverter) ToHTML(context.Context, string, parser.Context) (string, error) {
	return "", nil
}

func TestConverterPool_LazyCreation(t *testing.T) {
	t.Parallel()

	n := 0
	pool := site.NewConverterPool(2, func() pipeline.HTMLConverter {
		n++
		return &stubConverter{id: n}
	})

	if n != 0 {
		t.Fatalf("new pool built %d converters, want 0", n)
	}

	a := pool.Acquire()
	pool.Release(a)
	b := pool.Acquire()
	if a != b {
		t.Error("a released converter should be reused before creating another")
	}
	c := pool.Acquire()
	if c == b || n != 2 {
		t.Errorf("second concurrent acquire should create a converter, created %d", n)
	}
	pool.Release(b)
	pool.Release(c)
}

func TestConverterPool_MinimumSize(t *testing.T) {
	t.Parallel()

	var created atomic.Int32
	pool := site.NewConverterPool(0, func() pipeline.HTMLConverter {
		created.Add(1)
		return &stubConverter{}
	})

	a := pool.Acquire()
	got := make(chan pipeline.HTMLConverter, 1)
	go func() { got <- pool.Acquire() }()

	select {
	case <-got:
		t.Fatal("second acquire should wait for a release")
	case <-time.After(50 * time.Millisecond):
	}

	pool.Release(a)
	if c := <-got; c != a {
		t.Error("waiting acquire should receive the released converter")
	}
	if n := created.Load(); n != site.MinWorkers {
		t.Errorf("created %d converters, want %d", n, site.MinWorkers)
	}
}

func TestConverterPool_Concurrent(t *testing.T) {
	t.Parallel()

	var created atomic.Int32
	pool := site.NewConverterPool(3, func() pipeline.HTMLConverter {
		return &stubConverter{id: int(created.Add(1))}
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := pool.Acquire()
			pool.Release(c)
		}()
	}
	wg.Wait()

	if got := created.Load(); got < 1 || got > 3 {
		t.Errorf("created %d converters, want 1..3", got)
	}
}

func TestResolveWorkers(t *testing.T) {
	t.Parallel()

	auto := runtime.GOMAXPROCS(0) / 2
	if auto < site.MinWorkers {
		auto = site.MinWorkers
	}
	if auto > site.MaxWorkers {
		auto = site.MaxWorkers
	}

	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{name: "explicit", requested: 3, want: 3},
		{name: "explicit capped", requested: 50, want: site.MaxWorkers},
		{name: "auto", requested: 0, want: auto},
		{name: "negative means auto", requested: -2, want: auto},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := site.ResolveWorkers(tt.requested); got != tt.want {
				t.Errorf("ResolveWorkers(%d) = %d, want %d", tt.requested, got, tt.want)
			}
		})
	}
}
