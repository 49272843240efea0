package future

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMap_ResultsInInputOrder(t *testing.T) {
	p := NewPool(3)
	defer p.Close()

	// Later inputs finish first; the output order must not care.
	square := func(ctx context.Context, n int) (int, error) {
		time.Sleep(time.Duration(40-10*n) * time.Millisecond)
		return n * n, nil
	}

	results, err := Map(context.Background(), p, square, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{1, 4, 9}
	for i := range want {
		if results[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, results)
		}
	}
}

func TestMap_FirstErrorInInputOrder(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	errEarly := errors.New("error at index 1")
	errLate := errors.New("error at index 3")

	fn := func(ctx context.Context, n int) (int, error) {
		switch n {
		case 1:
			// Fails last in wall-clock time but first in input order.
			time.Sleep(60 * time.Millisecond)
			return 0, errEarly
		case 3:
			return 0, errLate
		default:
			return n, nil
		}
	}

	_, err := Map(context.Background(), p, fn, []int{0, 1, 2, 3, 4})
	if !errors.Is(err, errEarly) {
		t.Fatalf("expected the input-order-first error, got %v", err)
	}
}

func TestMap_PartialResultsOnError(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	fn := func(ctx context.Context, n int) (int, error) {
		if n == 2 {
			return 0, errors.New("bad input")
		}
		return n * 10, nil
	}

	results, err := Map(context.Background(), p, fn, []int{1, 2, 3})
	if err == nil {
		t.Fatal("expected error")
	}
	if results[0] != 10 || results[2] != 30 {
		t.Errorf("expected surviving results alongside the error, got %v", results)
	}
}

func TestMap_EmptyInput(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	results, err := Map(context.Background(), p, func(ctx context.Context, n int) (int, error) {
		return n, nil
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %v", results)
	}
}

func TestMap_ContextCancellation(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Map(ctx, p, func(ctx context.Context, n int) (int, error) {
		time.Sleep(300 * time.Millisecond)
		return n, nil
	}, []int{1, 2, 3, 4})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMap_SubmitAfterShutdown(t *testing.T) {
	p := NewPool(2)
	if err := p.Shutdown(); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	_, err := Map(context.Background(), p, func(ctx context.Context, n int) (int, error) {
		return n, nil
	}, []int{1})
	if !errors.Is(err, ErrShutdown) {
		t.Fatalf("expected ErrShutdown, got %v", err)
	}
}
