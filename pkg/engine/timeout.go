package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/ripples/pkg/ripple"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when user code runs past the time limit,
	// typically an unbounded loop.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation finished after
	// a newer one started.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

type evalResult struct {
	scene  *ripple.Scene
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch for at most limit. A result
// whose generation is no longer current is discarded.
//
// On timeout the sandbox goroutine may still be running; ch is buffered so
// it can finish without a reader.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	limit time.Duration,
	mu *sync.Mutex,
	currentGen *uint64,
) (*ripple.Scene, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		stale := gen != *currentGen
		mu.Unlock()
		if stale {
			return nil, nil, ErrSuperseded
		}
		return res.scene, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, limit)
	}
}
