// Package remote holds data that is loaded from a remote service at most
// once per instance.
package remote

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Fetched is the result of resolving a Remote. Cached is true when this
// caller performed no load, either because the value was already present
// or because it shared a load started by another caller.
type Fetched[T any] struct {
	Value   T
	Fetched bool
	Cached  bool
}

// LoadFunc performs the network round-trip for a Remote
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Remote is a value that starts empty and is filled by a single
// successful load. Once fetched it is never reloaded.
type Remote[T any] struct {
	mu      sync.Mutex
	fetched bool
	value   T
	flight  singleflight.Group
}

// IsFetched reports whether a load has succeeded
func (r *Remote[T]) IsFetched() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetched
}

// Value returns the loaded value and whether it is present
func (r *Remote[T]) Value() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.fetched
}

// Resolve loads the value if it has not been fetched yet. Callers that
// arrive while a load is running share its result, so at most one load is
// in flight per Remote. A waiting caller returns as soon as its own ctx is
// done. A failed load leaves the Remote empty and the next call tries
// again; a load cut short by another caller's ctx is retried with ours.
func (r *Remote[T]) Resolve(ctx context.Context, load LoadFunc[T]) (Fetched[T], error) {
	for {
		if v, ok := r.Value(); ok {
			return Fetched[T]{Value: v, Fetched: true, Cached: true}, nil
		}

		loaded := false
		ch := r.flight.DoChan("load", func() (interface{}, error) {
			if v, ok := r.Value(); ok {
				return v, nil
			}
			loaded = true
			v, err := load(ctx)
			if err != nil {
				return nil, err
			}
			r.Set(v)
			return v, nil
		})

		select {
		case <-ctx.Done():
			return Fetched[T]{}, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				if !loaded && isContextErr(res.Err) && ctx.Err() == nil {
					continue
				}
				return Fetched[T]{}, res.Err
			}
			return Fetched[T]{Value: res.Val.(T), Fetched: true, Cached: !loaded}, nil
		}
	}
}

// Set stores a value as fetched without a load
func (r *Remote[T]) Set(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = v
	r.fetched = true
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
