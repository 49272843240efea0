package future

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestUnpack3_PositionalOrder(t *testing.T) {
	type person struct {
		name string
		age  int
		job  string
	}
	got := make(chan person, 1)

	f := New(func(ctx context.Context) ([]any, error) {
		return []any{"ada", 36, "engineer"}, nil
	})
	f.OnDone(Unpack3(func(name string, age int, job string) {
		got <- person{name: name, age: age, job: job}
	}))

	if err := f.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if _, err := f.Get(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := <-got
	if p.name != "ada" || p.age != 36 || p.job != "engineer" {
		t.Errorf("values unpacked out of order: %+v", p)
	}
}

func TestNotify_IgnoresResult(t *testing.T) {
	var fired atomic.Int32

	f := New(func(ctx context.Context) (string, error) {
		return "whatever", nil
	})
	f.OnDone(Notify[string](func() { fired.Add(1) }))

	if err := f.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if _, err := f.Get(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fired.Load() != 1 {
		t.Errorf("expected notification callback to fire once, got %d", fired.Load())
	}
}

func TestCallbackPanicIsolated(t *testing.T) {
	var recovered atomic.Value
	var second atomic.Bool

	f := New(func(ctx context.Context) (int, error) {
		return 1, nil
	}, WithPanicHook(func(r any) { recovered.Store(r) }))

	f.OnDone(func(int) { panic("bad callback") })
	f.OnDone(func(int) { second.Store(true) })

	if err := f.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if _, err := f.Get(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if recovered.Load() == nil {
		t.Error("panic hook was not invoked for the panicking callback")
	}
	if !second.Load() {
		t.Error("callback registered after the panicking one did not run")
	}
}

func TestUnpack2_TypeMismatchReported(t *testing.T) {
	var recovered atomic.Value

	f := New(func(ctx context.Context) ([]any, error) {
		return []any{"not-an-int", "b"}, nil
	}, WithPanicHook(func(r any) { recovered.Store(r) }))

	f.OnDone(Unpack2(func(a int, b string) {
		t.Error("mismatched callback must not be invoked")
	}))

	if err := f.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if _, err := f.Get(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if recovered.Load() == nil {
		t.Error("type mismatch during unpack was not reported to the hook")
	}
}
