package comments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_ToggleReviewed(t *testing.T) {
	ctx := context.Background()

	t.Run("success keeps trigger disabled", func(t *testing.T) {
		f := newFixture()
		f.ctrl.LoadReview(12, testMark, false)

		require.NoError(t, f.ctrl.ToggleReviewed(ctx, 12, testMark))

		r := f.ctrl.Review(12, testMark)
		assert.True(t, r.Reviewed)
		assert.False(t, r.ReviewEnabled)
		assert.True(t, r.DeleteEnabled)
		assert.Equal(t, r, f.view.reviews[testMark])
		assert.Equal(t, 1, f.mutator.reviews)
	})

	t.Run("disabled control sends nothing", func(t *testing.T) {
		f := newFixture()
		f.ctrl.LoadReview(12, testMark, true)

		err := f.ctrl.ToggleReviewed(ctx, 12, testMark)

		require.ErrorIs(t, err, ErrControlDisabled)
		assert.Zero(t, f.mutator.reviews)
	})

	t.Run("failure re-enables trigger", func(t *testing.T) {
		f := newFixture()
		f.mutator.err = serverError("report not found")
		f.ctrl.LoadReview(12, testMark, false)

		err := f.ctrl.ToggleReviewed(ctx, 12, testMark)

		require.Error(t, err)
		r := f.ctrl.Review(12, testMark)
		assert.False(t, r.Reviewed)
		assert.True(t, r.ReviewEnabled)
		require.Len(t, f.notifier.all(), 1)
		assert.Equal(t, "report not found", f.notifier.all()[0].Message)
	})

	t.Run("trigger is disabled while in flight", func(t *testing.T) {
		f := newFixture()
		f.mutator.started = make(chan struct{})
		f.mutator.gate = make(chan struct{})
		f.ctrl.LoadReview(12, testMark, false)

		done := make(chan error, 1)
		go func() { done <- f.ctrl.ToggleReviewed(ctx, 12, testMark) }()
		<-f.mutator.started

		assert.False(t, f.ctrl.Review(12, testMark).ReviewEnabled)
		require.ErrorIs(t, f.ctrl.ToggleReviewed(ctx, 12, testMark), ErrControlDisabled)

		f.mutator.gate <- struct{}{}
		require.NoError(t, <-done)
		assert.Equal(t, 1, f.mutator.reviews)
	})
}

func TestController_DeleteReview(t *testing.T) {
	ctx := context.Background()

	t.Run("success flips status", func(t *testing.T) {
		f := newFixture()
		f.ctrl.LoadReview(12, testMark, true)

		require.NoError(t, f.ctrl.DeleteReview(ctx, 12, testMark))

		r := f.ctrl.Review(12, testMark)
		assert.False(t, r.Reviewed)
		assert.False(t, r.DeleteEnabled)
		assert.True(t, r.ReviewEnabled)
		assert.Equal(t, 1, f.mutator.deleteReviews)
	})

	t.Run("unknown status allows both controls", func(t *testing.T) {
		f := newFixture()

		r := f.ctrl.Review(12, testMark)

		assert.True(t, r.ReviewEnabled)
		assert.True(t, r.DeleteEnabled)
		require.NoError(t, f.ctrl.DeleteReview(ctx, 12, testMark))
	})

	t.Run("failure re-enables trigger", func(t *testing.T) {
		f := newFixture()
		f.mutator.err = errors.New("permission denied")
		f.ctrl.LoadReview(12, testMark, true)

		require.Error(t, f.ctrl.DeleteReview(ctx, 12, testMark))

		r := f.ctrl.Review(12, testMark)
		assert.True(t, r.Reviewed)
		assert.True(t, r.DeleteEnabled)
	})
}
