package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/colonyops/markreview/internal/core/config"
)

// KeyMap holds the resolved bindings for every TUI action.
type KeyMap struct {
	NextThread  key.Binding
	PrevThread  key.Binding
	NextComment key.Binding
	PrevComment key.Binding
	Reply       key.Binding
	Edit        key.Binding
	Delete      key.Binding
	Focus       key.Binding
	Submit      key.Binding
	Cancel      key.Binding
	Review      key.Binding
	Unreview    key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// NewKeyMap builds the key map from the merged keybindings in cfg. An action
// with no keys bound is disabled.
func NewKeyMap(cfg *config.Config) KeyMap {
	bind := func(action, desc string) key.Binding {
		keys := cfg.KeysFor(action)
		b := key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(helpKeys(keys), desc),
		)
		if len(keys) == 0 {
			b.SetEnabled(false)
		}
		return b
	}

	return KeyMap{
		NextThread:  bind(config.ActionNextThread, "next thread"),
		PrevThread:  bind(config.ActionPrevThread, "prev thread"),
		NextComment: bind(config.ActionNextComment, "next comment"),
		PrevComment: bind(config.ActionPrevComment, "prev comment"),
		Reply:       bind(config.ActionReply, "reply"),
		Edit:        bind(config.ActionEdit, "edit"),
		Delete:      bind(config.ActionDelete, "delete"),
		Focus:       bind(config.ActionFocus, "write"),
		Submit:      bind(config.ActionSubmit, "submit"),
		Cancel:      bind(config.ActionCancel, "cancel"),
		Review:      bind(config.ActionReview, "mark reviewed"),
		Unreview:    bind(config.ActionUnreview, "delete review"),
		Help:        bind(config.ActionHelp, "help"),
		Quit:        bind(config.ActionQuit, "quit"),
	}
}

func helpKeys(keys []string) string {
	return strings.Join(keys, "/")
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextThread, k.Reply, k.Edit, k.Delete, k.Review, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextThread, k.PrevThread, k.NextComment, k.PrevComment},
		{k.Reply, k.Edit, k.Delete, k.Focus},
		{k.Submit, k.Cancel, k.Review, k.Unreview},
		{k.Help, k.Quit},
	}
}
