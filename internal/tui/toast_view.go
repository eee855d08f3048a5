package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/markreview/internal/core/notify"
	"github.com/colonyops/markreview/internal/core/styles"
)

type toastTickMsg time.Time

func scheduleToastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// ToastView renders toast notifications.
type ToastView struct {
	controller *ToastController
}

func NewToastView(controller *ToastController) *ToastView {
	return &ToastView{controller: controller}
}

// View renders the toast stack as a single string with toasts stacked
// vertically (oldest at top, newest at bottom).
func (v *ToastView) View() string {
	toasts := v.controller.Toasts()
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, renderToast(t))
	}

	return strings.Join(rendered, "\n")
}

func renderToast(t toast) string {
	var icon string
	var style lipgloss.Style

	switch t.notification.Level {
	case notify.LevelError:
		icon = styles.IconError
		style = styles.ToastErrorStyle
	case notify.LevelWarning:
		icon = styles.IconWarning
		style = styles.ToastWarningStyle
	default:
		icon = styles.IconInfo
		style = styles.ToastInfoStyle
	}

	content := icon + " " + t.notification.Message
	if t.repeat > 1 {
		content += fmt.Sprintf(" (x%d)", t.repeat)
	}
	return style.Width(toastWidth).Render(content)
}

// Overlay places the toast stack under background, right aligned to width.
// The result never grows past height lines: background lines are dropped
// from the bottom to make room.
func (v *ToastView) Overlay(background string, width, height int) string {
	toastContent := v.View()
	if toastContent == "" {
		return background
	}

	stack := lipgloss.PlaceHorizontal(width, lipgloss.Right, toastContent)
	if height <= 0 {
		return background + "\n" + stack
	}

	lines := strings.Split(background, "\n")
	keep := max(height-lipgloss.Height(stack), 0)
	if len(lines) > keep {
		lines = lines[:keep]
	}
	if len(lines) == 0 {
		return stack
	}
	return strings.Join(lines, "\n") + "\n" + stack
}
