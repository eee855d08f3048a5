package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/markreview/internal/core/comments"
	"github.com/colonyops/markreview/internal/core/styles"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sections []string
	sections = append(sections, m.renderTitle(), m.renderTabs())

	if mark, ok := m.mark(); ok {
		th := m.board.Thread(mark)
		sections = append(sections,
			m.renderReview(th),
			m.viewport.View(),
			m.renderForm(mark),
		)
	} else {
		sections = append(sections, styles.MutedTextStyle.Render("No threads on this report."))
	}

	sections = append(sections, m.help.View(m.keys))
	out := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.confirm != nil {
		out = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirm.View())
	}

	return m.toastView.Overlay(out, m.width, m.height)
}

func (m Model) renderTitle() string {
	title := styles.ThreadTitleStyle.Render(fmt.Sprintf("%s Report #%d", styles.IconComment, m.report))
	if m.inflight > 0 {
		title += " " + m.spinner.View()
	}
	return title
}

func (m Model) renderTabs() string {
	marks := m.board.Marks()
	tabs := make([]string, 0, len(marks))
	for i, mark := range marks {
		th := m.board.Thread(mark)
		label := fmt.Sprintf("Mark %d (%d)", mark, len(th.Comments))
		if th.HasReview && th.Review.Reviewed {
			label = styles.IconReviewed + " " + label
		}
		if i == m.cur {
			tabs = append(tabs, styles.TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, styles.TabInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderReview(th BoardThread) string {
	r := th.Review
	if !th.HasReview {
		r = m.ctrl.Review(m.report, th.Mark)
	}

	var status string
	switch {
	case !th.HasReview:
		status = styles.MutedTextStyle.Render(styles.IconPending + " review status unknown")
	case r.Reviewed:
		status = styles.ReviewedStyle.Render(styles.IconReviewed + " reviewed")
	default:
		status = styles.ReviewPendingStyle.Render(styles.IconPending + " not reviewed")
	}

	control := func(binding, label string, enabled bool) string {
		text := fmt.Sprintf("[%s] %s", binding, label)
		if !enabled {
			return styles.ControlDisabledStyle.Render(text)
		}
		return styles.ControlStyle.Render(text)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		status, "  ",
		control(m.keys.Review.Help().Key, "mark reviewed", r.ReviewEnabled && m.keys.Review.Enabled()), " ",
		control(m.keys.Unreview.Help().Key, "delete review", r.DeleteEnabled && m.keys.Unreview.Enabled()),
	)
}

func (m Model) renderForm(mark comments.MarkID) string {
	state := m.ctrl.State(mark)

	var title string
	switch state.Mode() {
	case comments.ModeReplying:
		title = fmt.Sprintf("%s Reply to %s", styles.IconReply, state.Author())
	case comments.ModeEditing:
		id, _ := state.EditTarget()
		title = fmt.Sprintf("%s Editing comment #%d", styles.IconEdit, id)
	default:
		title = styles.IconComment + " New comment"
	}

	field := styles.FormFieldStyle
	if m.input.Focused() {
		field = styles.FormFieldFocusedStyle
	}

	return styles.FormTitleStyle.Render(title) + "\n" + field.Render(m.input.View())
}

// renderThread renders the comments of th and returns, per comment, the
// first and last+1 line it occupies.
func (m *Model) renderThread(th BoardThread) (string, [][2]int) {
	if len(th.Comments) == 0 {
		return styles.MutedTextStyle.Render("No comments yet."), nil
	}

	width := max(m.viewport.Width, 20)
	blocks := make([]string, 0, len(th.Comments))
	offsets := make([][2]int, 0, len(th.Comments))
	line := 0

	for i, c := range th.Comments {
		block := m.renderComment(c, i == m.sel, th.Highlighted[c.ID], width)
		h := lipgloss.Height(block)
		offsets = append(offsets, [2]int{line, line + h})
		line += h + 1
		blocks = append(blocks, block)
	}

	return strings.Join(blocks, "\n\n"), offsets
}

func (m *Model) renderComment(c comments.Comment, selected, editing bool, width int) string {
	header := styles.CommentAuthorStyle.Render(c.AuthorName) + " " + styles.CommentTimeStyle.Render(c.CreatedAt)
	if editing {
		header = styles.IconEdit + " " + header
	}

	style := styles.CommentStyle
	switch {
	case editing:
		style = styles.CommentEditingStyle
	case selected:
		style = styles.CommentSelectedStyle
	}

	body := m.renderer.Render(c.Text, width-4)
	return style.Width(width - 2).Render(header + "\n" + body)
}
