package morph

import "context"

// PassFunc runs one reconciliation pass. The context only carries request
// scoped values such as trace spans; passes are not cancellable.
type PassFunc func(ctx context.Context, dst, cand Range) (Stats, error)

// Middleware wraps a PassFunc, e.g. to record metrics or traces.
type Middleware func(next PassFunc) PassFunc

// Chain composes middleware so that the first one is outermost.
func Chain(mw ...Middleware) Middleware {
	return func(next PassFunc) PassFunc {
		for i := len(mw) - 1; i >= 0; i-- {
			next = mw[i](next)
		}
		return next
	}
}
