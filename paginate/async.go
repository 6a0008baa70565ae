package paginate

import (
	"context"
)

// Callback receives the outcome of an asynchronous Paginate call:
// (result, nil) on success, (nil, err) on failure
type Callback func(result *Result, err error)

// Outcome is the settled value of an asynchronous Paginate call
type Outcome struct {
	Result *Result
	Err    error
}

// Go runs p.Paginate on a new goroutine
// The returned channel receives exactly one Outcome and is then closed; cb, when non-nil,
// is invoked with the same outcome before it is sent. dest must not be read before the
// outcome arrives.
func Go(ctx context.Context, p *Paginator, filter interface{}, opts *Options, dest interface{}, cb Callback) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		result, err := p.Paginate(ctx, filter, opts, dest)
		if cb != nil {
			cb(result, err)
		}
		out <- Outcome{Result: result, Err: err}
	}()
	return out
}
