package ids

import (
	"context"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
)

const DefaultMaxAttempts = 6

// Allocation describes one unique-identifier allocation.
//
// Create must persist the record atomically; a uniqueness violation on the
// identifier field has to be reported as an error for which IsCollision
// returns true. Exists is an optional pre-check: a candidate reported as
// taken consumes an attempt without calling Create.
type Allocation[T any] struct {
	What        string
	MaxAttempts int
	Generate    Generator
	Exists      func(ctx context.Context, candidate string) (bool, error)
	Create      func(ctx context.Context, candidate string) (T, error)
	IsCollision func(err error) bool
}

var errTaken = apperrors.Conflict("identifier already taken")

// AllocateUnique tries fresh candidates until Create succeeds. Errors other
// than collisions are returned unchanged; after MaxAttempts collisions the
// result is an AllocationExhausted error wrapping the last collision.
func AllocateUnique[T any](ctx context.Context, a Allocation[T]) (T, error) {
	var zero T

	attempts := a.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	what := a.What
	if what == "" {
		what = "identifier"
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		candidate := a.Generate()

		if a.Exists != nil {
			taken, err := a.Exists(ctx, candidate)
			if err != nil {
				return zero, err
			}
			if taken {
				lastErr = errTaken
				continue
			}
		}

		rec, err := a.Create(ctx, candidate)
		if err == nil {
			return rec, nil
		}
		if a.IsCollision == nil || !a.IsCollision(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, apperrors.AllocationExhausted(what, attempts, lastErr)
}
