package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/markreview/internal/core/comments"
	"github.com/colonyops/markreview/internal/core/snapshot"
	"github.com/colonyops/markreview/internal/markreview"
	"github.com/colonyops/markreview/internal/tui"
)

type TuiCmd struct {
	flags *Flags
	app   *markreview.App

	watch bool
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags, app *markreview.App) *TuiCmd {
	return &TuiCmd{
		flags: flags,
		app:   app,
	}
}

// Register adds the tui command to the application
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "tui",
		Usage:     "Review the threads of a report snapshot interactively",
		UsageText: "markreview tui <snapshot.yaml>",
		Description: `Opens the review board for the threads listed in a report snapshot.

Each mark is a tab. Select a comment to reply to, edit or delete it, write
new comments, and mark the mark as reviewed. Every change is sent to the
configured server; failures are shown as toasts and kept in the
notification history.`,
		Flags:  cmd.Flags(),
		Action: cmd.Run,
	})
	return app
}

// Flags returns the tui flags. They are also registered on the root command
// so a bare snapshot path accepts them.
func (cmd *TuiCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "watch",
			Aliases:     []string{"w"},
			Usage:       "reload threads when the snapshot file changes",
			Destination: &cmd.watch,
		},
	}
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected one snapshot file, got %d arguments", c.Args().Len())
	}

	client, err := cmd.app.RequireRemote()
	if err != nil {
		return err
	}

	snap, err := snapshot.Load(c.Args().First())
	if err != nil {
		return err
	}

	board := tui.NewBoard()
	ctrl := comments.New(comments.Options{
		Report:   comments.ReportID(snap.ReportID),
		Mutator:  client,
		View:     board,
		Notifier: cmd.app.Bus,
	})
	defer ctrl.Close()
	snap.Apply(ctrl)

	var watcher *tui.SnapshotWatcher
	if cmd.watch {
		watcher, err = tui.NewSnapshotWatcher(c.Args().First())
		if err != nil {
			return err
		}
		defer func() { _ = watcher.Close() }()
	}

	model := tui.New(tui.Options{
		Controller: ctrl,
		Board:      board,
		Bus:        cmd.app.Bus,
		Keys:       tui.NewKeyMap(cmd.app.Config),
		ToastTTL:   cmd.app.Config.TUI.ToastTTL,
		Watcher:    watcher,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
