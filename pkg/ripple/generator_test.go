package ripple

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGeneratorReturnsResult(t *testing.T) {
	g := NewGenerator(Options{})
	scene := DefaultScene()
	scene.Resolution = 12

	res, err := g.Generate(context.Background(), scene)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res == nil || len(res.STL) == 0 {
		t.Fatal("expected a non-empty result")
	}
}

func TestGeneratorPassesValidationErrors(t *testing.T) {
	g := NewGenerator(Options{})
	scene := DefaultScene()
	scene.Sources = nil

	_, err := g.Generate(context.Background(), scene)
	if !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	g := NewGenerator(Options{})
	scene := DefaultScene()
	scene.Resolution = 20

	first, err := g.Generate(context.Background(), scene)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := 0; i < 3; i++ {
		res, err := g.Generate(context.Background(), scene)
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if string(res.STL) != string(first.STL) {
			t.Fatalf("iteration %d: output differs", i)
		}
	}
}

func TestWaitWithTimeout(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(1)
	ch := make(chan genResult) // never sends

	_, err := waitWithTimeout(context.Background(), ch, 1, 20*time.Millisecond, &mu, &gen)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "20ms") {
		t.Errorf("expected the limit in the message, got %q", err)
	}
}

func TestWaitDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2) // current generation is 2

	ch := make(chan genResult, 1)
	ch <- genResult{res: &Result{}}

	_, err := waitWithTimeout(context.Background(), ch, 1, time.Second, &mu, &gen)
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
}

func TestWaitHonoursCancellation(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(1)
	ch := make(chan genResult)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := waitWithTimeout(ctx, ch, 1, time.Second, &mu, &gen)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGeneratorCancelledContext(t *testing.T) {
	g := NewGenerator(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The pipeline may win the race against the cancelled context; either
	// outcome is acceptable, but a result must never come with an error.
	res, err := g.Generate(ctx, DefaultScene())
	if err != nil && res != nil {
		t.Fatalf("got both result and error: %v", err)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected error: %v", err)
	}
}
