package future

// Callback adapters. A done callback is always a func(R); when a task
// produces several values as a []any result, the callback declares its
// arity at registration time with one of the Unpack adapters instead of the
// library inspecting it at delivery time.

// Notify adapts a zero-argument function into a done callback that ignores
// the result. Useful when only the fact of completion matters.
func Notify[R any](fn func()) func(R) {
	return func(R) {
		fn()
	}
}

// Unpack2 adapts a two-argument function into a callback for a []any
// result. The first two elements are passed positionally. A length or type
// mismatch panics at delivery time and is reported through the panic hook.
func Unpack2[A, B any](fn func(A, B)) func([]any) {
	return func(vs []any) {
		fn(vs[0].(A), vs[1].(B))
	}
}

// Unpack3 adapts a three-argument function into a callback for a []any
// result.
func Unpack3[A, B, C any](fn func(A, B, C)) func([]any) {
	return func(vs []any) {
		fn(vs[0].(A), vs[1].(B), vs[2].(C))
	}
}

// Unpack4 adapts a four-argument function into a callback for a []any
// result.
func Unpack4[A, B, C, D any](fn func(A, B, C, D)) func([]any) {
	return func(vs []any) {
		fn(vs[0].(A), vs[1].(B), vs[2].(C), vs[3].(D))
	}
}
