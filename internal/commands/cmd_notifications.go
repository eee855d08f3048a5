package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/markreview/internal/markreview"
	"github.com/colonyops/markreview/internal/printer"
	"github.com/colonyops/markreview/pkg/iojson"
)

type NotificationsCmd struct {
	flags *Flags
	app   *markreview.App

	json bool
}

type notificationOutput struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Action    string    `json:"action,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotificationsCmd creates the notification history commands.
func NewNotificationsCmd(flags *Flags, app *markreview.App) *NotificationsCmd {
	return &NotificationsCmd{flags: flags, app: app}
}

// Register adds the notifications commands to the application.
func (cmd *NotificationsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "notifications",
		Aliases: []string{"notif"},
		Usage:   "Show or clear the notification history",
		Description: `Every failure shown in the TUI or by a command, and every manager tools
result, is kept in the local database for notifications.retention, unless
notifications.persist is off.`,
		Commands: []*cli.Command{
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List notifications, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print one JSON object per line", Destination: &cmd.json},
				},
				Action: cmd.runList,
			},
			{
				Name:   "clear",
				Usage:  "Delete all notifications",
				Action: cmd.runClear,
			},
		},
	})
	return app
}

func (cmd *NotificationsCmd) runList(ctx context.Context, c *cli.Command) error {
	items, err := cmd.app.Bus.History(ctx)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}

	out := c.Root().Writer
	if cmd.json {
		for _, n := range items {
			line := notificationOutput{
				ID:        n.ID,
				Level:     string(n.Level),
				Action:    n.Action,
				Message:   n.Message,
				CreatedAt: n.CreatedAt,
			}
			if err := iojson.WriteLine(out, line); err != nil {
				return err
			}
		}
		return nil
	}

	if len(items) == 0 {
		printer.Ctx(ctx).Infof("No notifications")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tLEVEL\tACTION\tMESSAGE")
	for _, n := range items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.CreatedAt.Local().Format(time.DateTime), n.Level, n.Action, n.Message)
	}
	return w.Flush()
}

func (cmd *NotificationsCmd) runClear(ctx context.Context, _ *cli.Command) error {
	if err := cmd.app.Bus.Clear(ctx); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	printer.Ctx(ctx).Successf("Cleared notification history")
	return nil
}
