package tui

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/markreview/internal/core/comments"
)

func TestBoard_Projection(t *testing.T) {
	b := NewBoard()

	b.Render(7, []comments.Comment{{ID: 2, Text: "b"}, {ID: 1, Text: "a"}})
	b.Render(3, nil)
	b.Prepend(7, comments.Comment{ID: 9, Text: "new"})
	b.SetText(7, 1, "edited")
	b.SetHighlight(7, 2, true)
	b.SetInput(7, "draft")

	assert.Equal(t, []comments.MarkID{7, 3}, b.Marks())

	th := b.Thread(7)
	require.Len(t, th.Comments, 3)
	assert.Equal(t, comments.CommentID(9), th.Comments[0].ID)
	assert.Equal(t, "edited", th.Comments[2].Text)
	assert.True(t, th.Highlighted[2])
	assert.Equal(t, "draft", th.Input)
	assert.False(t, th.HasReview)

	b.Remove(7, 2)
	th = b.Thread(7)
	assert.Len(t, th.Comments, 2)
	assert.Empty(t, th.Highlighted)

	b.SetHighlight(7, 1, true)
	b.SetHighlight(7, 1, false)
	assert.Empty(t, b.Thread(7).Highlighted)
}

func TestBoard_ThreadIsACopy(t *testing.T) {
	b := NewBoard()
	b.Render(1, []comments.Comment{{ID: 1, Text: "a"}})

	th := b.Thread(1)
	th.Comments[0].Text = "changed"

	assert.Equal(t, "a", b.Thread(1).Comments[0].Text)
}

func TestBoard_FocusAndReview(t *testing.T) {
	b := NewBoard()

	_, seq := b.Focused()
	b.Focus(5)
	mark, next := b.Focused()
	assert.Equal(t, comments.MarkID(5), mark)
	assert.Equal(t, seq+1, next)

	b.SetReviewControls(comments.ReviewMark{Report: 1, Mark: 5, Reviewed: true, DeleteEnabled: true})
	th := b.Thread(5)
	assert.True(t, th.HasReview)
	assert.True(t, th.Review.Reviewed)
	assert.True(t, th.Review.DeleteEnabled)
}

func TestBoard_ConcurrentWrites(t *testing.T) {
	b := NewBoard()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Prepend(1, comments.Comment{ID: comments.CommentID(i)})
			_ = b.Thread(1)
		}()
	}
	wg.Wait()

	assert.Len(t, b.Thread(1).Comments, 10)
}
