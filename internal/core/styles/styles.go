// Package styles provides the shared lipgloss styles for the CLI and TUI.
package styles

import (
	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

var (
	// CLI styles.
	CommandHeaderStyle lipgloss.Style
	DividerStyle       lipgloss.Style
	ErrorTextStyle     lipgloss.Style
	MutedTextStyle     lipgloss.Style
	SuccessTextStyle   lipgloss.Style
	WarningTextStyle   lipgloss.Style

	// Thread list.
	TabActiveStyle   lipgloss.Style
	TabInactiveStyle lipgloss.Style
	ThreadTitleStyle lipgloss.Style

	// Comments.
	CommentStyle         lipgloss.Style
	CommentSelectedStyle lipgloss.Style
	CommentEditingStyle  lipgloss.Style
	CommentAuthorStyle   lipgloss.Style
	CommentTimeStyle     lipgloss.Style

	// Review controls.
	ReviewedStyle        lipgloss.Style
	ReviewPendingStyle   lipgloss.Style
	ControlStyle         lipgloss.Style
	ControlDisabledStyle lipgloss.Style

	// Input form.
	FormTitleStyle        lipgloss.Style
	FormFieldStyle        lipgloss.Style
	FormFieldFocusedStyle lipgloss.Style
	FormHelpStyle         lipgloss.Style

	// Modals.
	ModalStyle               lipgloss.Style
	ModalTitleStyle          lipgloss.Style
	ModalHelpStyle           lipgloss.Style
	ModalButtonStyle         lipgloss.Style
	ModalButtonSelectedStyle lipgloss.Style

	// Toasts.
	ToastInfoStyle    lipgloss.Style
	ToastWarningStyle lipgloss.Style
	ToastErrorStyle   lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	CommandHeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	DividerStyle = lipgloss.NewStyle().Foreground(p.Muted)
	ErrorTextStyle = lipgloss.NewStyle().Foreground(p.Error)
	MutedTextStyle = lipgloss.NewStyle().Foreground(p.Muted)
	SuccessTextStyle = lipgloss.NewStyle().Foreground(p.Success)
	WarningTextStyle = lipgloss.NewStyle().Foreground(p.Warning)

	TabActiveStyle = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Primary).
		Bold(true).
		Padding(0, 1)
	TabInactiveStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Padding(0, 1)
	ThreadTitleStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)

	CommentStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(p.Surface).
		PaddingLeft(1)
	CommentSelectedStyle = CommentStyle.BorderForeground(p.Primary)
	CommentEditingStyle = CommentStyle.
		BorderForeground(p.Warning).
		Background(Blend(p.Background, p.Warning, 0.12))
	CommentAuthorStyle = lipgloss.NewStyle().Foreground(p.Secondary).Bold(true)
	CommentTimeStyle = lipgloss.NewStyle().Foreground(p.Muted)

	ReviewedStyle = lipgloss.NewStyle().Foreground(p.Success)
	ReviewPendingStyle = lipgloss.NewStyle().Foreground(p.Warning)
	ControlStyle = lipgloss.NewStyle().Foreground(p.Foreground).Background(p.Surface).Padding(0, 1)
	ControlDisabledStyle = lipgloss.NewStyle().Foreground(p.Muted).Padding(0, 1).Strikethrough(true)

	FormTitleStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	FormFieldStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Muted).
		PaddingLeft(1)
	FormFieldFocusedStyle = FormFieldStyle.BorderForeground(p.Primary)
	FormHelpStyle = lipgloss.NewStyle().Foreground(p.Muted)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Padding(1, 2)
	ModalTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Foreground)
	ModalHelpStyle = lipgloss.NewStyle().Foreground(p.Muted).MarginTop(1)
	ModalButtonStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(p.Surface).
		Foreground(p.Muted)
	ModalButtonSelectedStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(p.Primary).
		Foreground(p.Background).
		Bold(true)

	toast := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Foreground(p.Foreground)
	ToastInfoStyle = toast.BorderForeground(p.Primary)
	ToastWarningStyle = toast.BorderForeground(p.Warning)
	ToastErrorStyle = toast.BorderForeground(p.Error)
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

// Blend mixes b into a by t (0..1) in Lab space. Invalid colors return a.
func Blend(a, b lipgloss.Color, t float64) lipgloss.Color {
	ca, err := colorful.Hex(string(a))
	if err != nil {
		return a
	}
	cb, err := colorful.Hex(string(b))
	if err != nil {
		return a
	}
	return lipgloss.Color(ca.BlendLab(cb, t).Clamped().Hex())
}

func hexPtr(c lipgloss.Color) *string {
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() glamouransi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig
	p := CurrentPalette

	fg := hexPtr(p.Foreground)
	cfg.Document.Color = fg
	cfg.Document.Margin = uintPtr(0)
	cfg.Paragraph.Color = fg

	cfg.BlockQuote.Color = hexPtr(p.Muted)
	cfg.HorizontalRule.Color = hexPtr(p.Muted)

	cfg.Link.Color = hexPtr(p.Secondary)
	cfg.LinkText.Color = hexPtr(p.Secondary)

	cfg.Code.Color = hexPtr(p.Secondary)
	cfg.CodeBlock.Color = hexPtr(p.Muted)

	return cfg
}

func uintPtr(u uint) *uint { return &u }
