package site

import (
	"runtime"
	"sync"

	"github.com/alnah/go-quizdown/internal/pipeline"
)

// Pool sizing constants.
const (
	// MinWorkers ensures at least one page is rendered at a time.
	MinWorkers = 1

	// MaxWorkers caps concurrent renders.
	MaxWorkers = 8

	// cpuDivisor leaves headroom for the file I/O around each render.
	cpuDivisor = 2
)

// ConverterPool hands out Markdown converters to render workers.
// goldmark converters are not shared between goroutines, so each worker
// holds its own. Converters are created lazily on first acquire.
type ConverterPool struct {
	size    int
	factory func() pipeline.HTMLConverter
	sem     chan pipeline.HTMLConverter
	mu      sync.Mutex
	created int
}

// NewConverterPool creates a pool with capacity for n converters built by
// factory.
func NewConverterPool(n int, factory func() pipeline.HTMLConverter) *ConverterPool {
	if n < MinWorkers {
		n = MinWorkers
	}
	return &ConverterPool{
		size:    n,
		factory: factory,
		sem:     make(chan pipeline.HTMLConverter, n),
	}
}

// Acquire gets a converter from the pool, creating one if needed.
// Blocks if all converters are in use.
func (p *ConverterPool) Acquire() pipeline.HTMLConverter {
	select {
	case c := <-p.sem:
		return c
	default:
	}

	p.mu.Lock()
	if p.created < p.size {
		p.created++
		p.mu.Unlock()
		return p.factory()
	}
	p.mu.Unlock()

	return <-p.sem
}

// Release returns a converter to the pool.
func (p *ConverterPool) Release(c pipeline.HTMLConverter) {
	p.sem <- c
}

// ResolveWorkers determines the number of render workers.
// An explicit positive value wins, capped at MaxWorkers; otherwise half of
// GOMAXPROCS (container-aware with automaxprocs), clamped to
// MinWorkers..MaxWorkers.
func ResolveWorkers(requested int) int {
	if requested > 0 {
		if requested > MaxWorkers {
			return MaxWorkers
		}
		return requested
	}

	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
