package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/markreview/internal/core/comments"
	"github.com/colonyops/markreview/internal/core/validate"
	"github.com/colonyops/markreview/internal/markreview"
	"github.com/colonyops/markreview/internal/printer"
	"github.com/colonyops/markreview/pkg/iojson"
)

type CommentCmd struct {
	flags *Flags
	app   *markreview.App

	report  int
	mark    int
	comment int
	file    string
	json    bool

	stdin io.Reader
}

type commentOutput struct {
	CommentID int64  `json:"comment_id"`
	MarkID    int64  `json:"mark_id"`
	UserID    int64  `json:"user_id,omitempty"`
	UserName  string `json:"user_name,omitempty"`
	Action    string `json:"action"`
}

// NewCommentCmd creates the comment command group.
func NewCommentCmd(flags *Flags, app *markreview.App) *CommentCmd {
	return &CommentCmd{flags: flags, app: app, stdin: os.Stdin}
}

// Register adds the comment commands to the application.
func (cmd *CommentCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "comment",
		Usage: "Add, edit or delete comments on a mark",
		Description: `Comment text is taken from the arguments, from --file, or from stdin.
Text is sent as-is; the server stores it as an HTML fragment.`,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a comment to a mark",
				UsageText: "markreview comment add --report <id> --mark <id> [text]",
				Flags: []cli.Flag{
					cmd.reportFlag(),
					cmd.markFlag(),
					cmd.fileFlag(),
					cmd.jsonFlag(),
				},
				Action: cmd.runAdd,
			},
			{
				Name:      "edit",
				Usage:     "Replace the text of a comment",
				UsageText: "markreview comment edit --report <id> --mark <id> --comment <id> [text]",
				Flags: []cli.Flag{
					cmd.reportFlag(),
					cmd.markFlag(),
					cmd.commentFlag(),
					cmd.fileFlag(),
					cmd.jsonFlag(),
				},
				Action: cmd.runEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete a comment",
				UsageText: "markreview comment delete --comment <id>",
				Flags: []cli.Flag{
					cmd.commentFlag(),
					cmd.jsonFlag(),
				},
				Action: cmd.runDelete,
			},
		},
	})
	return app
}

func (cmd *CommentCmd) reportFlag() cli.Flag {
	return &cli.IntFlag{Name: "report", Aliases: []string{"r"}, Usage: "report id", Destination: &cmd.report}
}

func (cmd *CommentCmd) markFlag() cli.Flag {
	return &cli.IntFlag{Name: "mark", Aliases: []string{"m"}, Usage: "mark id", Required: true, Destination: &cmd.mark}
}

func (cmd *CommentCmd) commentFlag() cli.Flag {
	return &cli.IntFlag{Name: "comment", Usage: "comment id", Required: true, Destination: &cmd.comment}
}

func (cmd *CommentCmd) fileFlag() cli.Flag {
	return &cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "read comment text from file", Destination: &cmd.file}
}

func (cmd *CommentCmd) jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "print the result as JSON", Destination: &cmd.json}
}

func (cmd *CommentCmd) runAdd(ctx context.Context, c *cli.Command) error {
	return cmd.save(ctx, c, 0)
}

func (cmd *CommentCmd) runEdit(ctx context.Context, c *cli.Command) error {
	return cmd.save(ctx, c, comments.CommentID(cmd.comment))
}

func (cmd *CommentCmd) save(ctx context.Context, c *cli.Command, id comments.CommentID) error {
	text, err := cmd.text(c)
	if err != nil {
		return err
	}

	checks := []error{
		validate.IDField("mark", int64(cmd.mark)),
		validate.CommentTextField("text", text),
	}
	if id != 0 {
		checks = append(checks, validate.IDField("comment", int64(id)))
	}
	if err := criterio.ValidateStruct(checks...); err != nil {
		return err
	}

	client, err := cmd.app.RequireRemote()
	if err != nil {
		return err
	}

	res, err := client.SaveComment(ctx, comments.SaveRequest{
		Mark:        comments.MarkID(cmd.mark),
		Comment:     id,
		Report:      comments.ReportID(cmd.report),
		Description: text,
	})
	if err != nil {
		cmd.app.Bus.Errorf("save-comment", "%s", err.Error())
		if cmd.json {
			_ = iojson.WriteError(c.Root().ErrWriter, err.Error(), map[string]any{"mark_id": cmd.mark, "comment_id": int64(id)})
		}
		return fmt.Errorf("save comment: %w", err)
	}

	out := commentOutput{
		CommentID: int64(res.Comment),
		MarkID:    int64(cmd.mark),
		UserID:    int64(res.UserID),
		UserName:  res.UserName,
		Action:    "created",
	}
	if id != 0 {
		out.CommentID = int64(id)
		out.Action = "edited"
	}

	if cmd.json {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out)
	}

	p := printer.Ctx(ctx)
	if id != 0 {
		p.Successf("Edited comment #%d on mark %d", id, cmd.mark)
	} else {
		p.Successf("Added comment #%d on mark %d as %s", res.Comment, cmd.mark, res.UserName)
	}
	return nil
}

func (cmd *CommentCmd) runDelete(ctx context.Context, c *cli.Command) error {
	if err := validate.IDField("comment", int64(cmd.comment)); err != nil {
		return err
	}

	client, err := cmd.app.RequireRemote()
	if err != nil {
		return err
	}

	id := comments.CommentID(cmd.comment)
	if err := client.DeleteComment(ctx, id); err != nil {
		cmd.app.Bus.Errorf("delete-comment", "%s", err.Error())
		return fmt.Errorf("delete comment: %w", err)
	}

	if cmd.json {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, commentOutput{CommentID: int64(id), Action: "deleted"})
	}

	printer.Ctx(ctx).Successf("Deleted comment #%d", id)
	return nil
}

// text returns the comment body from the arguments, --file or stdin.
func (cmd *CommentCmd) text(c *cli.Command) (string, error) {
	if c.Args().Present() {
		return strings.Join(c.Args().Slice(), " "), nil
	}

	if cmd.file != "" {
		data, err := os.ReadFile(cmd.file)
		if err != nil {
			return "", fmt.Errorf("read comment file: %w", err)
		}
		return string(data), nil
	}

	if f, ok := cmd.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", fmt.Errorf("no comment text; pass it as an argument, with --file, or on stdin")
	}

	data, err := io.ReadAll(cmd.stdin)
	if err != nil {
		return "", fmt.Errorf("read comment from stdin: %w", err)
	}
	return string(data), nil
}
