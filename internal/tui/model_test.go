package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/markreview/internal/core/comments"
	"github.com/colonyops/markreview/internal/core/notify"
	"github.com/colonyops/markreview/internal/core/snapshot"
	"github.com/colonyops/markreview/internal/remote"
	tuinotify "github.com/colonyops/markreview/internal/tui/notify"
)

type stubMutator struct {
	mu      sync.Mutex
	saves   []comments.SaveRequest
	deletes []comments.CommentID
	reviews int
	err     error
}

func (s *stubMutator) SaveComment(_ context.Context, req comments.SaveRequest) (comments.SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, req)
	if s.err != nil {
		return comments.SaveResult{}, s.err
	}
	return comments.SaveResult{Comment: 99, UserID: 5, UserName: "me"}, nil
}

func (s *stubMutator) DeleteComment(_ context.Context, id comments.CommentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	return s.err
}

func (s *stubMutator) SubmitReview(context.Context, comments.ReportID, comments.MarkID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews++
	return s.err
}

func (s *stubMutator) DeleteReview(context.Context, comments.ReportID, comments.MarkID) error {
	return s.err
}

type harness struct {
	model   Model
	ctrl    *comments.Controller
	board   *Board
	mutator *stubMutator
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	board := NewBoard()
	bus := tuinotify.NewBus(nil)
	mutator := &stubMutator{}
	ctrl := comments.New(comments.Options{
		Report:   12,
		Mutator:  mutator,
		View:     board,
		Notifier: bus,
	})
	ctrl.Load(4, []comments.Comment{
		{ID: 2, AuthorID: 1, AuthorName: "bob", Text: "second", CreatedAt: "2023-01-03"},
		{ID: 1, AuthorID: 3, AuthorName: "alice", Text: "first", CreatedAt: "2023-01-02"},
	})
	ctrl.Load(8, nil)

	m := New(Options{
		Controller: ctrl,
		Board:      board,
		Bus:        bus,
		Keys:       NewKeyMap(loadConfig(t, nil)),
	})

	h := &harness{model: m, ctrl: ctrl, board: board, mutator: mutator}
	h.send(t, tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.model.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	h.model = m
	return cmd
}

func (h *harness) press(t *testing.T, keys ...tea.KeyMsg) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = h.send(t, k)
	}
	return cmd
}

// messages runs cmd, expanding batches.
func messages(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, messages(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// finish runs a mutation command and feeds its result back to the model.
func (h *harness) finish(t *testing.T, cmd tea.Cmd) mutationDoneMsg {
	t.Helper()
	for _, msg := range messages(cmd) {
		if done, ok := msg.(mutationDoneMsg); ok {
			h.send(t, done)
			return done
		}
	}
	require.FailNow(t, "no mutation result")
	return mutationDoneMsg{}
}

func TestModel_View_ShowsThreads(t *testing.T) {
	h := newHarness(t)

	out := h.model.View()
	assert.Contains(t, out, "Report #12")
	assert.Contains(t, out, "Mark 4 (2)")
	assert.Contains(t, out, "Mark 8 (0)")
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "New comment")
}

func TestModel_NavigateThreadsAndComments(t *testing.T) {
	h := newHarness(t)

	h.press(t, runeKey('j'))
	assert.Equal(t, 1, h.model.sel)

	h.press(t, runeKey('j'))
	assert.Equal(t, 1, h.model.sel, "selection stops at the last comment")

	h.press(t, tea.KeyMsg{Type: tea.KeyTab})
	mark, _ := h.model.mark()
	assert.Equal(t, comments.MarkID(8), mark)
	assert.Equal(t, 0, h.model.sel)

	h.press(t, tea.KeyMsg{Type: tea.KeyTab})
	mark, _ = h.model.mark()
	assert.Equal(t, comments.MarkID(4), mark)
}

func TestModel_ReplyAndSubmit(t *testing.T) {
	h := newHarness(t)

	h.press(t, runeKey('j'), runeKey('r'))

	state := h.ctrl.State(4)
	assert.Equal(t, comments.ModeReplying, state.Mode())
	assert.Equal(t, "alice", state.Author())
	assert.True(t, h.model.input.Focused())
	assert.Equal(t, comments.QuoteReply("alice", "first"), h.model.input.Value())
	assert.Contains(t, h.model.View(), "Reply to alice")

	h.press(t, runeKey('o'), runeKey('k'))
	assert.Equal(t, comments.QuoteReply("alice", "first")+"ok", h.ctrl.Draft(4))

	done := h.finish(t, h.press(t, tea.KeyMsg{Type: tea.KeyCtrlS}))
	require.NoError(t, done.err)

	th := h.board.Thread(4)
	require.Len(t, th.Comments, 3)
	assert.Equal(t, comments.CommentID(99), th.Comments[0].ID)
	assert.Equal(t, comments.CreatedNow, th.Comments[0].CreatedAt)
	assert.Equal(t, comments.ModeIdle, h.ctrl.State(4).Mode())
	assert.Empty(t, h.model.input.Value())
	assert.False(t, h.model.input.Focused())
}

func TestModel_TypingDoesNotTriggerActions(t *testing.T) {
	h := newHarness(t)

	h.press(t, runeKey('i'), runeKey('q'), runeKey('d'))

	assert.False(t, h.model.quitting)
	assert.Nil(t, h.model.confirm)
	assert.Equal(t, "qd", h.ctrl.Draft(4))
}

func TestModel_SubmitEmptyIsSilent(t *testing.T) {
	h := newHarness(t)

	done := h.finish(t, h.press(t, runeKey('i'), tea.KeyMsg{Type: tea.KeyCtrlS}))

	assert.ErrorIs(t, done.err, comments.ErrEmptyComment)
	assert.Empty(t, h.mutator.saves)
	assert.False(t, h.model.toasts.HasToasts())
}

func TestModel_EditThenCancel(t *testing.T) {
	h := newHarness(t)

	h.press(t, runeKey('e'))
	assert.Equal(t, comments.ModeEditing, h.ctrl.State(4).Mode())
	assert.True(t, h.board.Thread(4).Highlighted[2])
	assert.Equal(t, "second", h.model.input.Value())

	h.press(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, comments.ModeIdle, h.ctrl.State(4).Mode())
	assert.Empty(t, h.board.Thread(4).Highlighted)
	assert.Empty(t, h.model.input.Value())
	assert.False(t, h.model.input.Focused())
}

func TestModel_DeleteWithConfirm(t *testing.T) {
	h := newHarness(t)

	assert.Nil(t, h.press(t, runeKey('d')))
	require.NotNil(t, h.model.confirm)
	assert.Contains(t, h.model.View(), "Delete comment by bob?")

	h.press(t, runeKey('n'))
	assert.Nil(t, h.model.confirm)
	assert.Empty(t, h.mutator.deletes)

	h.press(t, runeKey('d'))
	done := h.finish(t, h.press(t, runeKey('y')))
	require.NoError(t, done.err)

	assert.Equal(t, []comments.CommentID{2}, h.mutator.deletes)
	th := h.board.Thread(4)
	require.Len(t, th.Comments, 1)
	assert.Equal(t, comments.CommentID(1), th.Comments[0].ID)
}

func TestModel_Review(t *testing.T) {
	h := newHarness(t)

	done := h.finish(t, h.press(t, runeKey('v')))
	require.NoError(t, done.err)

	th := h.board.Thread(4)
	require.True(t, th.HasReview)
	assert.True(t, th.Review.Reviewed)
	assert.False(t, th.Review.ReviewEnabled)
	assert.Contains(t, h.model.View(), "reviewed")

	done = h.finish(t, h.press(t, runeKey('v')))
	assert.ErrorIs(t, done.err, comments.ErrControlDisabled)
	assert.Equal(t, 1, h.mutator.reviews)
}

func TestModel_FailureShowsToast(t *testing.T) {
	h := newHarness(t)
	h.mutator.err = &remote.Error{Message: "You don't have access to this job"}

	h.press(t, runeKey('i'), runeKey('x'))
	done := h.finish(t, h.press(t, tea.KeyMsg{Type: tea.KeyCtrlS}))
	require.Error(t, done.err)

	assert.Equal(t, "x", h.ctrl.Draft(4), "a failed save keeps the draft")

	h.send(t, drainNotificationsMsg{})
	require.True(t, h.model.toasts.HasToasts())
	assert.Contains(t, h.model.View(), "You don't have access to this job")

	h.press(t, tea.KeyMsg{Type: tea.KeyEsc}, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, h.model.toasts.HasToasts())
}

func TestModel_HelpAndQuit(t *testing.T) {
	h := newHarness(t)

	h.press(t, runeKey('?'))
	assert.True(t, h.model.help.ShowAll)

	msgs := messages(h.press(t, runeKey('q')))
	require.Len(t, msgs, 1)
	assert.IsType(t, tea.QuitMsg{}, msgs[0])
	assert.Empty(t, h.model.View())
}

func TestModel_NoThreads(t *testing.T) {
	board := NewBoard()
	ctrl := comments.New(comments.Options{Report: 1, Mutator: &stubMutator{}, View: board})

	m := New(Options{Controller: ctrl, Board: board, Keys: NewKeyMap(loadConfig(t, nil))})

	assert.Contains(t, m.View(), "No threads on this report.")
	next, cmd := m.Update(runeKey('r'))
	assert.Nil(t, cmd)
	assert.NotNil(t, next)
}

func TestModel_SnapshotReload(t *testing.T) {
	h := newHarness(t)

	snap := &snapshot.Snapshot{
		ReportID: 12,
		Marks: []snapshot.Mark{
			{MarkID: 4, Comments: []snapshot.Comment{{ID: 3, Author: "carol", Text: "third"}}},
			{MarkID: 15},
		},
	}
	h.send(t, snapshotChangedMsg{snap: snap})

	assert.Equal(t, []comments.MarkID{4, 8, 15}, h.board.Marks())
	th := h.board.Thread(4)
	require.Len(t, th.Comments, 1)
	assert.Equal(t, "carol", th.Comments[0].AuthorName)
	assert.False(t, h.model.toasts.HasToasts())

	h.press(t, runeKey('i'), runeKey('x'))
	h.send(t, snapshotChangedMsg{snap: snap})
	require.True(t, h.model.toasts.HasToasts())
	assert.Equal(t, notify.LevelInfo, h.model.toasts.Toasts()[0].notification.Level)
	assert.Equal(t, "x", h.ctrl.Draft(4))
}

func TestModel_SnapshotReloadProblems(t *testing.T) {
	h := newHarness(t)

	h.send(t, snapshotChangedMsg{err: errors.New("report.yaml: decode snapshot: bad indent")})
	h.send(t, snapshotChangedMsg{snap: &snapshot.Snapshot{ReportID: 13}})

	toasts := h.model.toasts.Toasts()
	require.Len(t, toasts, 2)
	for _, ts := range toasts {
		assert.Equal(t, notify.LevelWarning, ts.notification.Level)
	}
	assert.Contains(t, toasts[1].notification.Message, "report 13")
	assert.Len(t, h.board.Thread(4).Comments, 2, "threads untouched")
}
