package ids

import (
	"context"
	"fmt"
	"testing"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID string
}

// fakeTable отвечает "занято" для первых taken кандидатов.
type fakeTable struct {
	taken   int
	creates int
	seen    []string
}

func (f *fakeTable) create(_ context.Context, candidate string) (record, error) {
	f.creates++
	f.seen = append(f.seen, candidate)
	if f.creates <= f.taken {
		return record{}, errors.Wrap(&apperrors.DuplicateError{Field: "tracking_id", Err: errors.New("23505")}, "insert parcel")
	}
	return record{ID: candidate}, nil
}

func counterGen() Generator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("C%d", n)
	}
}

func isTrackingCollision(err error) bool { return apperrors.IsDuplicate(err, "tracking_id") }

func TestAllocateUnique_SucceedsAfterCollisions(t *testing.T) {
	for n := 0; n < DefaultMaxAttempts; n++ {
		t.Run(fmt.Sprintf("collisions=%d", n), func(t *testing.T) {
			tbl := &fakeTable{taken: n}
			rec, err := AllocateUnique(context.Background(), Allocation[record]{
				MaxAttempts: DefaultMaxAttempts,
				Generate:    counterGen(),
				Create:      tbl.create,
				IsCollision: isTrackingCollision,
			})
			require.NoError(t, err)
			require.Equal(t, n+1, tbl.creates)
			require.Equal(t, fmt.Sprintf("C%d", n+1), rec.ID)
		})
	}
}

func TestAllocateUnique_ExhaustsAfterExactlyMaxAttempts(t *testing.T) {
	tbl := &fakeTable{taken: 1 << 30}
	_, err := AllocateUnique(context.Background(), Allocation[record]{
		What:        "tracking id",
		MaxAttempts: 6,
		Generate:    counterGen(),
		Create:      tbl.create,
		IsCollision: isTrackingCollision,
	})
	require.Error(t, err)
	require.Equal(t, apperrors.KindAllocationExhausted, apperrors.KindOf(err))
	require.True(t, apperrors.IsDuplicate(err, "tracking_id"), "last collision must stay attached")
	require.Equal(t, 6, tbl.creates)
	require.Len(t, tbl.seen, 6)
	require.Contains(t, err.Error(), "tracking id")
}

func TestAllocateUnique_FreshCandidatePerAttempt(t *testing.T) {
	tbl := &fakeTable{taken: 3}
	_, err := AllocateUnique(context.Background(), Allocation[record]{
		Generate:    counterGen(),
		Create:      tbl.create,
		IsCollision: isTrackingCollision,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"C1", "C2", "C3", "C4"}, tbl.seen)
}

func TestAllocateUnique_OtherErrorsAbortUnchanged(t *testing.T) {
	want := errors.New("connection refused")
	calls := 0
	_, err := AllocateUnique(context.Background(), Allocation[record]{
		Generate: counterGen(),
		Create: func(context.Context, string) (record, error) {
			calls++
			return record{}, want
		},
		IsCollision: isTrackingCollision,
	})
	require.Same(t, want, err)
	require.Equal(t, 1, calls)
}

func TestAllocateUnique_DuplicateOnOtherFieldIsNotRetried(t *testing.T) {
	calls := 0
	_, err := AllocateUnique(context.Background(), Allocation[record]{
		Generate: counterGen(),
		Create: func(context.Context, string) (record, error) {
			calls++
			return record{}, &apperrors.DuplicateError{Field: "email", Err: errors.New("23505")}
		},
		IsCollision: isTrackingCollision,
	})
	require.True(t, apperrors.IsDuplicate(err, "email"))
	require.NotEqual(t, apperrors.KindAllocationExhausted, apperrors.KindOf(err))
	require.Equal(t, 1, calls)
}

func TestAllocateUnique_ExistsPreCheck(t *testing.T) {
	checks := 0
	creates := 0
	got, err := AllocateUnique(context.Background(), Allocation[string]{
		Generate: counterGen(),
		Exists: func(_ context.Context, c string) (bool, error) {
			checks++
			return c != "C3", nil
		},
		Create: func(_ context.Context, c string) (string, error) {
			creates++
			return c, nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, "C3", got)
	require.Equal(t, 3, checks)
	require.Equal(t, 1, creates)
}

func TestAllocateUnique_ExistsAlwaysTaken(t *testing.T) {
	_, err := AllocateUnique(context.Background(), Allocation[string]{
		What:        "short id",
		MaxAttempts: 4,
		Generate:    counterGen(),
		Exists:      func(context.Context, string) (bool, error) { return true, nil },
		Create: func(context.Context, string) (string, error) {
			t.Fatal("create must not be called for taken candidates")
			return "", nil
		},
	})
	require.Equal(t, apperrors.KindAllocationExhausted, apperrors.KindOf(err))
}

func TestAllocateUnique_ExistsErrorAborts(t *testing.T) {
	want := errors.New("db down")
	_, err := AllocateUnique(context.Background(), Allocation[string]{
		Generate: counterGen(),
		Exists:   func(context.Context, string) (bool, error) { return false, want },
		Create:   func(_ context.Context, c string) (string, error) { return c, nil },
	})
	require.Same(t, want, err)
}

func TestAllocateUnique_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := AllocateUnique(ctx, Allocation[string]{
		Generate: counterGen(),
		Create:   func(_ context.Context, c string) (string, error) { return c, nil },
	})
	require.ErrorIs(t, err, context.Canceled)
}
