// Package tui implements the terminal review board: one tab per mark thread,
// with reply, edit, delete and review controls driven by the comments
// controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/colonyops/markreview/internal/core/comments"
	"github.com/colonyops/markreview/internal/core/logging"
	"github.com/colonyops/markreview/internal/core/notify"
	"github.com/colonyops/markreview/internal/core/styles"
	"github.com/colonyops/markreview/internal/tui/components"
	tuinotify "github.com/colonyops/markreview/internal/tui/notify"
)

const (
	inputHeight = 4

	actionSubmit       = "submit"
	actionDelete       = "delete"
	actionReview       = "review"
	actionDeleteReview = "delete-review"
)

type mutationDoneMsg struct {
	action string
	mark   comments.MarkID
	err    error
}

// Options configures the review TUI.
type Options struct {
	Controller *comments.Controller
	Board      *Board
	Bus        *tuinotify.Bus
	Keys       KeyMap
	ToastTTL   time.Duration
	// Watcher, when set, reloads threads as the snapshot file changes.
	Watcher *SnapshotWatcher
}

// Model is the Bubble Tea model of the review board.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger

	ctrl   *comments.Controller
	board  *Board
	report comments.ReportID
	keys   KeyMap

	cur      int // selected thread
	sel      int // selected comment in the thread
	offsets  [][2]int
	focusSeq uint64
	inflight int

	input    textarea.Model
	viewport viewport.Model
	help     help.Model
	spinner  spinner.Model
	renderer *commentRenderer

	confirm  *components.ConfirmModal
	deleting comments.CommentID
	watcher  *SnapshotWatcher

	buffer    *NotificationBuffer
	toasts    *ToastController
	toastView *ToastView

	width    int
	height   int
	quitting bool
}

// New creates the model. Notifications published on opts.Bus are shown as
// toasts.
func New(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	ta := textarea.New()
	ta.Placeholder = "Write a comment..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.Cursor.SetMode(cursor.CursorStatic)
	ta.Blur()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.MutedTextStyle

	buffer := NewNotificationBuffer()
	if opts.Bus != nil {
		opts.Bus.Subscribe(buffer.Push)
	}

	toasts := NewToastController(opts.ToastTTL)
	_, seq := opts.Board.Focused()

	m := Model{
		ctx:       ctx,
		cancel:    cancel,
		log:       logging.Component("tui"),
		ctrl:      opts.Controller,
		board:     opts.Board,
		report:    opts.Controller.Report(),
		keys:      opts.Keys,
		focusSeq:  seq,
		input:     ta,
		viewport:  viewport.New(80, 10),
		help:      help.New(),
		spinner:   sp,
		renderer:  newCommentRenderer(),
		buffer:    buffer,
		toasts:    toasts,
		toastView: NewToastView(toasts),
		watcher:   opts.Watcher,
		width:     80,
		height:    24,
	}
	m.layout()
	m.sync()
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.buffer.WaitForSignal(), m.spinner.Tick}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.Wait())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case mutationDoneMsg:
		m.inflight = max(m.inflight-1, 0)
		m.handleDone(msg)

	case drainNotificationsMsg:
		cmds = append(cmds, m.pushToasts(m.buffer.Drain()...), m.buffer.WaitForSignal())

	case snapshotChangedMsg:
		cmds = append(cmds, m.handleReload(msg))
		if m.watcher != nil {
			cmds = append(cmds, m.watcher.Wait())
		}

	case toastTickMsg:
		m.toasts.Tick(toastTickInterval)
		if m.toasts.HasToasts() {
			cmds = append(cmds, scheduleToastTick())
		} else {
			m.toasts.SetTicking(false)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.quitting {
		m.sync()
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.confirm != nil {
		next, _ := m.confirm.Update(msg)
		switch {
		case next.Confirmed():
			m.confirm = nil
			if mark, ok := m.mark(); ok {
				return m.deleteComment(mark, m.deleting)
			}
		case next.Cancelled():
			m.confirm = nil
		default:
			m.confirm = &next
		}
		return nil
	}

	mark, hasMark := m.mark()

	if m.input.Focused() && hasMark {
		switch {
		case msg.Type == tea.KeyCtrlC:
			return m.quit()
		case key.Matches(msg, m.keys.Submit):
			return m.submit(mark)
		case key.Matches(msg, m.keys.Cancel):
			m.ctrl.Cancel(mark)
			m.input.Blur()
			return nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.ctrl.SetDraft(mark, m.input.Value())
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return nil
	case key.Matches(msg, m.keys.Cancel):
		m.toasts.Dismiss()
		return nil
	}

	if !hasMark {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.NextThread):
		m.moveThread(1)
	case key.Matches(msg, m.keys.PrevThread):
		m.moveThread(-1)
	case key.Matches(msg, m.keys.NextComment):
		m.sel++
	case key.Matches(msg, m.keys.PrevComment):
		m.sel = max(m.sel-1, 0)
	case key.Matches(msg, m.keys.Reply):
		if c, ok := m.selected(mark); ok {
			m.ctrl.EnterReplyMode(mark, c.ID, c.AuthorName)
		}
	case key.Matches(msg, m.keys.Edit):
		if c, ok := m.selected(mark); ok {
			m.ctrl.EnterEditMode(mark, c.ID)
		}
	case key.Matches(msg, m.keys.Delete):
		if c, ok := m.selected(mark); ok {
			modal := components.NewConfirmModal(fmt.Sprintf("Delete comment by %s?", c.AuthorName))
			m.confirm = &modal
			m.deleting = c.ID
		}
	case key.Matches(msg, m.keys.Focus):
		m.input.Focus()
	case key.Matches(msg, m.keys.Submit):
		return m.submit(mark)
	case key.Matches(msg, m.keys.Review):
		ctrl, report := m.ctrl, m.report
		return m.mutate(actionReview, mark, func(ctx context.Context) error {
			return ctrl.ToggleReviewed(ctx, report, mark)
		})
	case key.Matches(msg, m.keys.Unreview):
		ctrl, report := m.ctrl, m.report
		return m.mutate(actionDeleteReview, mark, func(ctx context.Context) error {
			return ctrl.DeleteReview(ctx, report, mark)
		})
	}
	return nil
}

func (m *Model) submit(mark comments.MarkID) tea.Cmd {
	ctrl := m.ctrl
	return m.mutate(actionSubmit, mark, func(ctx context.Context) error {
		return ctrl.Submit(ctx, mark)
	})
}

func (m *Model) deleteComment(mark comments.MarkID, id comments.CommentID) tea.Cmd {
	ctrl := m.ctrl
	return m.mutate(actionDelete, mark, func(ctx context.Context) error {
		return ctrl.Delete(ctx, mark, id)
	})
}

// mutate runs fn off the UI loop. The controller applies the outcome to the
// board; the done message only triggers a redraw.
func (m *Model) mutate(action string, mark comments.MarkID, fn func(ctx context.Context) error) tea.Cmd {
	m.inflight++
	ctx := m.ctx
	return func() tea.Msg {
		return mutationDoneMsg{action: action, mark: mark, err: fn(ctx)}
	}
}

func (m *Model) handleDone(msg mutationDoneMsg) {
	ev := m.log.Debug().Str("action", msg.action).Int64("mark_id", int64(msg.mark))

	switch {
	case msg.err == nil:
		ev.Msg("mutation done")
		if msg.action == actionSubmit && m.ctrl.State(msg.mark).Mode() == comments.ModeIdle {
			if mark, ok := m.mark(); ok && mark == msg.mark {
				m.input.Blur()
			}
		}
	case errors.Is(msg.err, comments.ErrEmptyComment),
		errors.Is(msg.err, comments.ErrSuperseded),
		errors.Is(msg.err, comments.ErrControlDisabled),
		errors.Is(msg.err, context.Canceled):
		ev.Err(msg.err).Msg("mutation skipped")
	default:
		ev.Err(msg.err).Msg("mutation failed")
	}
}

// handleReload applies a changed snapshot. Threads with an open form keep
// their local state.
func (m *Model) handleReload(msg snapshotChangedMsg) tea.Cmd {
	if msg.err != nil {
		m.log.Warn().Err(msg.err).Msg("snapshot reload failed")
		return m.pushToasts(notify.Notification{Level: notify.LevelWarning, Action: "reload", Message: msg.err.Error()})
	}
	if comments.ReportID(msg.snap.ReportID) != m.report {
		return m.pushToasts(notify.Notification{
			Level:   notify.LevelWarning,
			Action:  "reload",
			Message: fmt.Sprintf("snapshot now describes report %d; restart to switch reports", msg.snap.ReportID),
		})
	}

	kept := msg.snap.Refresh(m.ctrl)
	m.log.Debug().Int("marks", len(msg.snap.Marks)).Int("kept", len(kept)).Msg("snapshot reloaded")
	if len(kept) == 0 {
		return nil
	}
	return m.pushToasts(notify.Info("reload", fmt.Sprintf("reloaded; %d thread(s) with an open form left as is", len(kept))))
}

// pushToasts shows ns and starts the expiry ticker if it is not running.
func (m *Model) pushToasts(ns ...notify.Notification) tea.Cmd {
	for _, n := range ns {
		m.toasts.Push(n)
	}
	if m.toasts.HasToasts() && !m.toasts.Ticking() {
		m.toasts.SetTicking(true)
		return scheduleToastTick()
	}
	return nil
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.ctrl.Close()
	m.cancel()
	return tea.Quit
}

func (m *Model) moveThread(delta int) {
	n := len(m.board.Marks())
	if n == 0 {
		return
	}
	m.cur = (m.cur + delta + n) % n
	m.sel = 0
	m.input.Blur()
	m.viewport.GotoTop()
}

func (m *Model) mark() (comments.MarkID, bool) {
	marks := m.board.Marks()
	if len(marks) == 0 {
		return 0, false
	}
	return marks[min(m.cur, len(marks)-1)], true
}

func (m *Model) selected(mark comments.MarkID) (comments.Comment, bool) {
	list := m.board.Thread(mark).Comments
	if m.sel < 0 || m.sel >= len(list) {
		return comments.Comment{}, false
	}
	return list[m.sel], true
}

// sync pulls the board state into the widgets: focus requests, the thread's
// input text, and the rendered comment list.
func (m *Model) sync() {
	marks := m.board.Marks()

	if focused, seq := m.board.Focused(); seq != m.focusSeq {
		m.focusSeq = seq
		if i := slices.Index(marks, focused); i >= 0 && i != m.cur {
			m.cur = i
			m.sel = 0
		}
		m.input.Focus()
	}

	mark, ok := m.mark()
	if !ok {
		m.viewport.SetContent("")
		return
	}
	m.cur = min(m.cur, len(marks)-1)

	th := m.board.Thread(mark)
	m.sel = max(min(m.sel, len(th.Comments)-1), 0)

	if th.Input != m.input.Value() {
		m.input.SetValue(th.Input)
	}

	content, offsets := m.renderThread(th)
	m.offsets = offsets
	m.viewport.SetContent(content)
	m.scrollToSelection()
}

func (m *Model) scrollToSelection() {
	if m.sel >= len(m.offsets) {
		return
	}
	start, end := m.offsets[m.sel][0], m.offsets[m.sel][1]
	switch {
	case start < m.viewport.YOffset:
		m.viewport.SetYOffset(start)
	case end > m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(max(end-m.viewport.Height, start))
	}
}

func (m *Model) layout() {
	w := max(m.width, 20)
	m.help.Width = w
	m.input.SetWidth(w - 4)

	// title, tabs, review line, form title, form border padding
	used := 5 + inputHeight + lipgloss.Height(m.help.View(m.keys))
	m.viewport.Width = w
	m.viewport.Height = max(m.height-used, 3)
}
