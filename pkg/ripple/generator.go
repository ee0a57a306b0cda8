package ripple

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultTimeout is the hard limit for a single generation.
const DefaultTimeout = 30 * time.Second

var (
	// ErrSuperseded is returned when a newer request started before this
	// one finished.
	ErrSuperseded = errors.New("generation superseded by newer request")
	// ErrTimeout is returned when a generation exceeds its time limit.
	ErrTimeout = errors.New("generation timed out")
)

// Generator runs generations off the caller's goroutine. It is safe for
// concurrent use. Each call bumps a generation counter; a call whose result
// arrives after a newer call started gets ErrSuperseded instead, so an
// interactive host only ever applies the latest parameters.
type Generator struct {
	Options Options
	Timeout time.Duration // zero means DefaultTimeout

	mu         sync.Mutex
	generation uint64
}

// NewGenerator creates a Generator with the given options.
func NewGenerator(opts Options) *Generator {
	return &Generator{Options: opts}
}

// genResult is the internal type used to pass generation results through
// channels.
type genResult struct {
	res *Result
	err error
}

// Generate runs Generate(scene) on a new goroutine and waits for it, the
// timeout, or ctx, whichever comes first. The scene is cloned before the
// goroutine starts, so callers may keep mutating their copy.
func (g *Generator) Generate(ctx context.Context, scene Scene) (*Result, error) {
	g.mu.Lock()
	g.generation++
	gen := g.generation
	g.mu.Unlock()

	snapshot := scene.Clone()
	ch := make(chan genResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- genResult{err: fmt.Errorf("panic during generation: %v", r)}
			}
		}()

		res, err := Generate(snapshot, g.Options)
		ch <- genResult{res: res, err: err}
	}()

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return waitWithTimeout(ctx, ch, gen, timeout, &g.mu, &g.generation)
}

// waitWithTimeout waits for a result from ch, but returns ErrTimeout if the
// generation exceeds timeout. It uses a generation counter to discard stale
// results from previous requests.
//
// On timeout or cancellation the goroutine may still be running; ch is
// buffered so it can finish and exit without a reader.
func waitWithTimeout(
	ctx context.Context,
	ch <-chan genResult,
	gen uint64,
	timeout time.Duration,
	mu *sync.Mutex,
	currentGen *uint64,
) (*Result, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, ErrSuperseded
		}
		return res.res, res.err

	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
