package commands

import (
	"context"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/markreview/internal/core/comments"
	"github.com/colonyops/markreview/internal/core/validate"
	"github.com/colonyops/markreview/internal/markreview"
	"github.com/colonyops/markreview/internal/printer"
)

type ReviewCmd struct {
	flags *Flags
	app   *markreview.App

	report int
	mark   int
}

// NewReviewCmd creates the review command group.
func NewReviewCmd(flags *Flags, app *markreview.App) *ReviewCmd {
	return &ReviewCmd{flags: flags, app: app}
}

// Register adds the review commands to the application.
func (cmd *ReviewCmd) Register(app *cli.Command) *cli.Command {
	flags := func() []cli.Flag {
		return []cli.Flag{
			&cli.IntFlag{Name: "report", Aliases: []string{"r"}, Usage: "report id", Required: true, Destination: &cmd.report},
			&cli.IntFlag{Name: "mark", Aliases: []string{"m"}, Usage: "mark id", Required: true, Destination: &cmd.mark},
		}
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "review",
		Usage: "Mark a mark as reviewed on a report, or withdraw the review",
		Commands: []*cli.Command{
			{
				Name:      "submit",
				Usage:     "Mark the mark as reviewed",
				UsageText: "markreview review submit --report <id> --mark <id>",
				Flags:     flags(),
				Action:    cmd.runSubmit,
			},
			{
				Name:      "delete",
				Usage:     "Withdraw your review of the mark",
				UsageText: "markreview review delete --report <id> --mark <id>",
				Flags:     flags(),
				Action:    cmd.runDelete,
			},
		},
	})
	return app
}

func (cmd *ReviewCmd) runSubmit(ctx context.Context, _ *cli.Command) error {
	return cmd.run(ctx, "review", func(ctx context.Context, m comments.Mutator, r comments.ReportID, mark comments.MarkID) error {
		return m.SubmitReview(ctx, r, mark)
	}, "Marked mark %d as reviewed on report %d")
}

func (cmd *ReviewCmd) runDelete(ctx context.Context, _ *cli.Command) error {
	return cmd.run(ctx, "delete-review", func(ctx context.Context, m comments.Mutator, r comments.ReportID, mark comments.MarkID) error {
		return m.DeleteReview(ctx, r, mark)
	}, "Withdrew review of mark %d on report %d")
}

type reviewFunc func(ctx context.Context, m comments.Mutator, report comments.ReportID, mark comments.MarkID) error

func (cmd *ReviewCmd) run(ctx context.Context, action string, fn reviewFunc, done string) error {
	err := criterio.ValidateStruct(
		validate.IDField("report", int64(cmd.report)),
		validate.IDField("mark", int64(cmd.mark)),
	)
	if err != nil {
		return err
	}

	client, err := cmd.app.RequireRemote()
	if err != nil {
		return err
	}

	if err := fn(ctx, client, comments.ReportID(cmd.report), comments.MarkID(cmd.mark)); err != nil {
		cmd.app.Bus.Errorf(action, "%s", err.Error())
		return fmt.Errorf("%s: %w", action, err)
	}

	printer.Ctx(ctx).Successf(done, cmd.mark, cmd.report)
	return nil
}
