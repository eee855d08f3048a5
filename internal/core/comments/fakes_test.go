package comments

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/markreview/internal/core/notify"
)

// serverError is a failure carrying a message written by the server.
type serverError string

func (e serverError) Error() string         { return string(e) }
func (e serverError) ServerMessage() string { return string(e) }

// fakeMutator records every call. When gate is non-nil, calls block until a
// value is received on it or their context is cancelled. saveGate and
// deleteGate replace gate for their own call kind.
type fakeMutator struct {
	mu            sync.Mutex
	saves         []SaveRequest
	deletes       []CommentID
	reviews       int
	deleteReviews int

	result SaveResult
	err    error

	started    chan struct{}
	gate       chan struct{}
	saveGate   chan struct{}
	deleteGate chan struct{}
}

func (f *fakeMutator) wait(ctx context.Context, gate chan struct{}) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if gate == nil {
		gate = f.gate
	}
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeMutator) SaveComment(ctx context.Context, req SaveRequest) (SaveResult, error) {
	f.mu.Lock()
	f.saves = append(f.saves, req)
	f.mu.Unlock()

	if err := f.wait(ctx, f.saveGate); err != nil {
		return SaveResult{}, err
	}
	if req.Comment != 0 {
		return SaveResult{}, f.err
	}
	return f.result, f.err
}

func (f *fakeMutator) DeleteComment(ctx context.Context, id CommentID) error {
	f.mu.Lock()
	f.deletes = append(f.deletes, id)
	f.mu.Unlock()

	if err := f.wait(ctx, f.deleteGate); err != nil {
		return err
	}
	return f.err
}

func (f *fakeMutator) SubmitReview(ctx context.Context, _ ReportID, _ MarkID) error {
	f.mu.Lock()
	f.reviews++
	f.mu.Unlock()

	if err := f.wait(ctx, nil); err != nil {
		return err
	}
	return f.err
}

func (f *fakeMutator) DeleteReview(ctx context.Context, _ ReportID, _ MarkID) error {
	f.mu.Lock()
	f.deleteReviews++
	f.mu.Unlock()

	if err := f.wait(ctx, nil); err != nil {
		return err
	}
	return f.err
}

func (f *fakeMutator) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

// memView is an in-memory ThreadView that mirrors what a page would show.
type memView struct {
	comments  map[MarkID][]Comment
	highlight map[MarkID]map[CommentID]bool
	input     map[MarkID]string
	focused   MarkID
	reviews   map[MarkID]ReviewMark
}

func newMemView() *memView {
	return &memView{
		comments:  make(map[MarkID][]Comment),
		highlight: make(map[MarkID]map[CommentID]bool),
		input:     make(map[MarkID]string),
		reviews:   make(map[MarkID]ReviewMark),
	}
}

func (v *memView) Render(mark MarkID, comments []Comment) {
	v.comments[mark] = comments
}

func (v *memView) Prepend(mark MarkID, c Comment) {
	v.comments[mark] = append([]Comment{c}, v.comments[mark]...)
}

func (v *memView) Remove(mark MarkID, id CommentID) {
	out := v.comments[mark][:0]
	for _, c := range v.comments[mark] {
		if c.ID != id {
			out = append(out, c)
		}
	}
	v.comments[mark] = out
	delete(v.highlight[mark], id)
}

func (v *memView) SetText(mark MarkID, id CommentID, text string) {
	for i := range v.comments[mark] {
		if v.comments[mark][i].ID == id {
			v.comments[mark][i].Text = text
		}
	}
}

func (v *memView) SetHighlight(mark MarkID, id CommentID, on bool) {
	if v.highlight[mark] == nil {
		v.highlight[mark] = make(map[CommentID]bool)
	}
	if on {
		v.highlight[mark][id] = true
		return
	}
	delete(v.highlight[mark], id)
}

func (v *memView) SetInput(mark MarkID, text string) { v.input[mark] = text }
func (v *memView) Focus(mark MarkID)                 { v.focused = mark }
func (v *memView) SetReviewControls(r ReviewMark)    { v.reviews[r.Mark] = r }

func (v *memView) highlighted(mark MarkID) []CommentID {
	var out []CommentID
	for id, on := range v.highlight[mark] {
		if on {
			out = append(out, id)
		}
	}
	return out
}

func (v *memView) ids(mark MarkID) []CommentID {
	out := make([]CommentID, 0, len(v.comments[mark]))
	for _, c := range v.comments[mark] {
		out = append(out, c.ID)
	}
	return out
}

type memNotifier struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (n *memNotifier) Publish(item notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, item)
}

func (n *memNotifier) all() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notification(nil), n.items...)
}

type fixture struct {
	ctrl     *Controller
	mutator  *fakeMutator
	view     *memView
	notifier *memNotifier
}

const testMark MarkID = 4

func newFixture() *fixture {
	f := &fixture{
		mutator:  &fakeMutator{},
		view:     newMemView(),
		notifier: &memNotifier{},
	}
	logger := zerolog.Nop()
	f.ctrl = New(Options{
		Report:   12,
		Mutator:  f.mutator,
		View:     f.view,
		Notifier: f.notifier,
		Logger:   &logger,
	})
	f.ctrl.Load(testMark, []Comment{
		{ID: 2, AuthorID: 1, AuthorName: "bob", Text: "second", CreatedAt: "2023-01-03"},
		{ID: 1, AuthorID: 3, AuthorName: "alice", Text: "first", CreatedAt: "2023-01-02"},
	})
	return f
}
