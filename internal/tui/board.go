package tui

import (
	"slices"
	"sync"

	"github.com/colonyops/markreview/internal/core/comments"
)

// BoardThread is a copy of what the board shows for one thread.
type BoardThread struct {
	Mark        comments.MarkID
	Comments    []comments.Comment
	Highlighted map[comments.CommentID]bool
	Input       string
	Review      comments.ReviewMark
	HasReview   bool
}

type boardThread struct {
	comments  []comments.Comment
	highlight map[comments.CommentID]bool
	input     string
	review    comments.ReviewMark
	hasReview bool
}

// Board is the terminal projection of the report's threads. The controller
// writes to it from request goroutines and the UI loop reads it on every
// render, so every method takes the board lock.
type Board struct {
	mu       sync.Mutex
	order    []comments.MarkID
	threads  map[comments.MarkID]*boardThread
	focused  comments.MarkID
	focusSeq uint64
}

var _ comments.ThreadView = (*Board)(nil)

func NewBoard() *Board {
	return &Board{threads: make(map[comments.MarkID]*boardThread)}
}

// Marks returns the thread ids in the order they were first shown.
func (b *Board) Marks() []comments.MarkID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.order)
}

// Thread returns a copy of the thread shown for mark.
func (b *Board) Thread(mark comments.MarkID) BoardThread {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.thread(mark)
	hl := make(map[comments.CommentID]bool, len(t.highlight))
	for id, on := range t.highlight {
		hl[id] = on
	}
	return BoardThread{
		Mark:        mark,
		Comments:    slices.Clone(t.comments),
		Highlighted: hl,
		Input:       t.input,
		Review:      t.review,
		HasReview:   t.hasReview,
	}
}

// Focused returns the last focused thread and a counter that moves on every
// focus request.
func (b *Board) Focused() (comments.MarkID, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.focused, b.focusSeq
}

func (b *Board) Render(mark comments.MarkID, list []comments.Comment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.thread(mark).comments = slices.Clone(list)
}

func (b *Board) Prepend(mark comments.MarkID, c comments.Comment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.thread(mark)
	t.comments = append([]comments.Comment{c}, t.comments...)
}

func (b *Board) Remove(mark comments.MarkID, id comments.CommentID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.thread(mark)
	t.comments = slices.DeleteFunc(t.comments, func(c comments.Comment) bool { return c.ID == id })
	delete(t.highlight, id)
}

func (b *Board) SetText(mark comments.MarkID, id comments.CommentID, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.thread(mark)
	for i := range t.comments {
		if t.comments[i].ID == id {
			t.comments[i].Text = text
		}
	}
}

func (b *Board) SetHighlight(mark comments.MarkID, id comments.CommentID, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.thread(mark)
	if on {
		t.highlight[id] = true
		return
	}
	delete(t.highlight, id)
}

func (b *Board) SetInput(mark comments.MarkID, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.thread(mark).input = text
}

func (b *Board) Focus(mark comments.MarkID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.thread(mark)
	b.focused = mark
	b.focusSeq++
}

func (b *Board) SetReviewControls(r comments.ReviewMark) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.thread(r.Mark)
	t.review = r
	t.hasReview = true
}

// thread returns the state for mark, adding it to the order on first use.
// Must be called with b.mu held.
func (b *Board) thread(mark comments.MarkID) *boardThread {
	t, ok := b.threads[mark]
	if !ok {
		t = &boardThread{highlight: make(map[comments.CommentID]bool)}
		b.threads[mark] = t
		b.order = append(b.order, mark)
	}
	return t
}
