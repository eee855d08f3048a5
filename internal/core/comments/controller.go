package comments

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/markreview/internal/core/logging"
	"github.com/colonyops/markreview/internal/core/notify"
)

type thread struct {
	mark     MarkID
	comments []Comment
	state    FormState
	draft    string
	// epoch moves only when the user starts something new on the form
	// (reply, edit, cancel) or the thread is reloaded. A late response
	// leaves the form alone when it has moved.
	epoch uint64
}

func (t *thread) find(id CommentID) (int, bool) {
	for i := range t.comments {
		if t.comments[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Thread is a read-only copy of a thread's state.
type Thread struct {
	Mark     MarkID
	Comments []Comment
	State    FormState
	Draft    string
}

// Options configures a Controller.
type Options struct {
	Report   ReportID
	Mutator  Mutator
	View     ThreadView
	Notifier Notifier
	Logger   *zerolog.Logger
}

// Controller owns the form state of every thread on one report page and
// mediates every comment and review mutation against the server. It is safe
// for concurrent use.
type Controller struct {
	mu       sync.Mutex
	report   ReportID
	mutator  Mutator
	view     ThreadView
	notifier Notifier
	log      zerolog.Logger
	threads  map[MarkID]*thread
	reviews  map[reviewKey]*ReviewMark
	tasks    *taskSet
}

// New creates a controller. View and Notifier may be nil.
func New(opts Options) *Controller {
	c := &Controller{
		report:   opts.Report,
		mutator:  opts.Mutator,
		view:     opts.View,
		notifier: opts.Notifier,
		threads:  make(map[MarkID]*thread),
		reviews:  make(map[reviewKey]*ReviewMark),
		tasks:    newTaskSet(),
	}
	if c.view == nil {
		c.view = nopView{}
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	} else {
		c.log = logging.Component("comments")
	}
	return c
}

// Report returns the report context sent with every save.
func (c *Controller) Report() ReportID { return c.report }

// Load seeds a thread with the comments already rendered for it, in display
// order, and resets its form.
func (c *Controller) Load(mark MarkID, comments []Comment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.thread(mark)
	t.comments = append([]Comment(nil), comments...)
	c.begin(t, Idle(), "")
	c.view.Render(mark, append([]Comment(nil), t.comments...))
}

// Marks returns the ids of all known threads in no particular order.
func (c *Controller) Marks() []MarkID {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]MarkID, 0, len(c.threads))
	for id := range c.threads {
		out = append(out, id)
	}
	return out
}

// Thread returns a copy of the thread's current state.
func (c *Controller) Thread(mark MarkID) Thread {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.thread(mark)
	return Thread{
		Mark:     t.mark,
		Comments: append([]Comment(nil), t.comments...),
		State:    t.state,
		Draft:    t.draft,
	}
}

// State returns the thread's form state.
func (c *Controller) State(mark MarkID) FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thread(mark).state
}

// Draft returns the thread's current input text.
func (c *Controller) Draft(mark MarkID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thread(mark).draft
}

// SetDraft records text typed by the user. It does not change the form state.
func (c *Controller) SetDraft(mark MarkID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.thread(mark)
	if t.draft == text {
		return
	}
	t.draft = text
	c.view.SetInput(mark, text)
}

// EnterReplyMode pre-fills the form with a quote of target and marks the
// thread as replying. An unknown target is ignored.
func (c *Controller) EnterReplyMode(mark MarkID, target CommentID, author string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.thread(mark)
	i, ok := t.find(target)
	if !ok {
		c.log.Debug().Int64("mark_id", int64(mark)).Int64("comment_id", int64(target)).Msg("reply target not in thread")
		return
	}

	c.begin(t, Replying(target, author), QuoteReply(author, t.comments[i].Text))
	c.view.Focus(mark)
}

// EnterEditMode pre-fills the form with target's raw text and moves the
// thread's single "being edited" highlight onto it.
func (c *Controller) EnterEditMode(mark MarkID, target CommentID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.thread(mark)
	i, ok := t.find(target)
	if !ok {
		c.log.Debug().Int64("mark_id", int64(mark)).Int64("comment_id", int64(target)).Msg("edit target not in thread")
		return
	}

	c.begin(t, Editing(target), t.comments[i].Text)
	c.view.SetHighlight(mark, target, true)
	c.view.Focus(mark)
}

// Cancel returns the form to Idle and clears the input.
func (c *Controller) Cancel(mark MarkID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.begin(c.thread(mark), Idle(), "")
}

// Submit sends the draft as a new comment, or as an edit when the form is
// editing. An empty draft returns ErrEmptyComment without any request.
//
// On success an edit rewrites the target's text in place and a create
// prepends the new comment; the form then returns to Idle with an empty
// input. On failure the error is published and the form is left as is.
func (c *Controller) Submit(ctx context.Context, mark MarkID) error {
	c.mu.Lock()
	t := c.thread(mark)
	text := t.draft
	if text == "" {
		c.mu.Unlock()
		return ErrEmptyComment
	}

	state, epoch := t.state, t.epoch
	req := SaveRequest{Mark: mark, Report: c.report, Description: text}
	if id, ok := state.EditTarget(); ok {
		req.Comment = id
	}
	tk := c.tasks.start(ctx, taskKey{mark: mark, kind: taskSave})
	c.mu.Unlock()

	ctx = logging.WithMarkID(logging.WithReportID(ctx, int64(c.report)), int64(mark))
	c.log.Debug().Ctx(ctx).Stringer("state", state).Msg("submitting comment")

	res, err := c.mutator.SaveComment(tk.ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.settle(ctx, tk, err); err != nil {
		return err
	}

	if target, ok := state.EditTarget(); ok {
		if i, found := t.find(target); found {
			t.comments[i].Text = text
			c.view.SetText(mark, target, text)
		}
	} else {
		cm := Comment{
			ID:         res.Comment,
			AuthorID:   res.UserID,
			AuthorName: res.UserName,
			Text:       text,
			CreatedAt:  CreatedNow,
		}
		t.comments = append([]Comment{cm}, t.comments...)
		c.view.Prepend(mark, cm)
	}

	if t.epoch != epoch {
		c.log.Debug().Ctx(ctx).Stringer("state", t.state).Msg("form moved on while saving, keeping it")
		return nil
	}

	c.transition(t, Idle(), "")
	return nil
}

// Delete removes a comment. On success the node is dropped from the thread
// and the form returns to Idle; the typed input is kept.
func (c *Controller) Delete(ctx context.Context, mark MarkID, id CommentID) error {
	c.mu.Lock()
	t := c.thread(mark)
	epoch := t.epoch
	tk := c.tasks.start(ctx, taskKey{mark: mark, kind: taskDelete, comment: id})
	c.mu.Unlock()

	ctx = logging.WithMarkID(logging.WithReportID(ctx, int64(c.report)), int64(mark))
	err := c.mutator.DeleteComment(tk.ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.settle(ctx, tk, err); err != nil {
		return err
	}

	if i, ok := t.find(id); ok {
		t.comments = append(t.comments[:i], t.comments[i+1:]...)
	}
	c.view.Remove(mark, id)

	editing, isEditing := t.state.EditTarget()
	if t.epoch == epoch || (isEditing && editing == id) {
		c.transition(t, Idle(), t.draft)
	}
	return nil
}

// Close cancels every in-flight request.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks.cancelAll()
}

// settle retires tk and classifies the request error. It returns nil when
// the response should be applied. Must be called with c.mu held.
func (c *Controller) settle(ctx context.Context, tk *task, err error) error {
	if !c.tasks.finish(tk) {
		c.log.Debug().Ctx(ctx).Str("kind", string(tk.key.kind)).Msg("dropping superseded response")
		return ErrSuperseded
	}

	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	c.log.Warn().Ctx(ctx).Err(err).Str("kind", string(tk.key.kind)).Msg("mutation failed")
	c.notifier.Publish(notify.Failed(string(tk.key.kind), err))
	return err
}

// begin is a transition started by the user. Responses still in flight for
// the thread will not reset the form afterwards. Must be called with c.mu
// held.
func (c *Controller) begin(t *thread, next FormState, draft string) {
	t.epoch++
	c.transition(t, next, draft)
}

// transition moves t to next, clearing the highlight left by an edit and
// projecting the new input. Must be called with c.mu held.
func (c *Controller) transition(t *thread, next FormState, draft string) {
	if prev, ok := t.state.EditTarget(); ok {
		c.view.SetHighlight(t.mark, prev, false)
	}

	t.state = next
	t.draft = draft
	c.view.SetInput(t.mark, draft)
}

// thread returns the thread for mark, creating it on first use. Must be
// called with c.mu held.
func (c *Controller) thread(mark MarkID) *thread {
	t, ok := c.threads[mark]
	if !ok {
		t = &thread{mark: mark}
		c.threads[mark] = t
	}
	return t
}
