package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/markreview/internal/core/jobs"
	"github.com/colonyops/markreview/internal/core/tools"
	"github.com/colonyops/markreview/internal/markreview"
	"github.com/colonyops/markreview/internal/printer"
	"github.com/colonyops/markreview/pkg/iojson"
)

type ToolsCmd struct {
	flags *Flags
	app   *markreview.App

	json        bool
	name        string
	recalcType  string
	allJobs     bool
	deleteFirst bool
	tagKind     string
}

// NewToolsCmd creates the manager tools command group.
func NewToolsCmd(flags *Flags, app *markreview.App) *ToolsCmd {
	return &ToolsCmd{flags: flags, app: app}
}

func cleanupNames() string {
	names := make([]string, 0, len(tools.Cleanups))
	for _, c := range tools.Cleanups {
		names = append(names, "  "+c.Name())
	}
	return strings.Join(names, "\n")
}

// Register adds the tools commands to the application.
func (cmd *ToolsCmd) Register(app *cli.Command) *cli.Command {
	jsonFlag := func() cli.Flag {
		return &cli.BoolFlag{Name: "json", Usage: "print the result as JSON", Destination: &cmd.json}
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "tools",
		Usage: "Run manager actions (administrators only)",
		Description: `The server answers each action with a message. It is printed and kept in
the notification history like failures are.`,
		Commands: []*cli.Command{
			{
				Name:      "rename-component",
				Usage:     "Rename a verification component",
				UsageText: "markreview tools rename-component --name <name> <component-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "new component name", Required: true, Destination: &cmd.name},
				},
				Action: cmd.runRename,
			},
			{
				Name:        "cleanup",
				Usage:       "Run one or more cleanups, in order",
				UsageText:   "markreview tools cleanup <cleanup>...",
				Description: "Available cleanups:\n" + cleanupNames(),
				Action:      cmd.runCleanup,
			},
			{
				Name:      "recalc",
				Usage:     "Recalculate cached data of jobs",
				UsageText: "markreview tools recalc --type <type> --all\n   markreview tools recalc --type <type> <job-id>...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "cache to recalculate, e.g. leaves or resources", Required: true, Destination: &cmd.recalcType},
					&cli.BoolFlag{Name: "all", Usage: "recalculate for every job", Destination: &cmd.allJobs},
				},
				Action: cmd.runRecalc,
			},
			{
				Name:      "upload-marks",
				Usage:     "Create marks from mark files",
				UsageText: "markreview tools upload-marks <file-or-glob>...",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    cmd.runUploadMarks,
			},
			{
				Name:      "upload-all-marks",
				Usage:     "Import a marks archive",
				UsageText: "markreview tools upload-all-marks [--delete] <archive>",
				Description: `The archive may be a path or a glob (** supported). It must match
exactly one file. With --delete every existing mark is removed first.`,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "delete", Usage: "delete all marks before the import", Destination: &cmd.deleteFirst},
					jsonFlag(),
				},
				Action: cmd.runUploadAllMarks,
			},
			{
				Name:      "upload-tags",
				Usage:     "Import a tags file",
				UsageText: "markreview tools upload-tags --type safe|unsafe <file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "tag tree: safe or unsafe", Required: true, Destination: &cmd.tagKind},
				},
				Action: cmd.runUploadTags,
			},
		},
	})
	return app
}

func (cmd *ToolsCmd) service() (*tools.Service, error) {
	if _, err := cmd.app.RequireRemote(); err != nil {
		return nil, err
	}
	return cmd.app.Tools, nil
}

func (cmd *ToolsCmd) runRename(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected one component id, got %d arguments", c.Args().Len())
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid component id %q", c.Args().First())
	}
	svc, err := cmd.service()
	if err != nil {
		return err
	}

	msg, err := svc.RenameComponent(ctx, id, cmd.name)
	if err != nil {
		return fmt.Errorf("rename component: %w", err)
	}
	printer.Ctx(ctx).Successf("%s", orDone(msg))
	return nil
}

func (cmd *ToolsCmd) runCleanup(ctx context.Context, c *cli.Command) error {
	if !c.Args().Present() {
		return fmt.Errorf("name at least one cleanup:\n%s", cleanupNames())
	}

	cleanups := make([]tools.Cleanup, 0, c.Args().Len())
	for _, arg := range c.Args().Slice() {
		cl, err := tools.ParseCleanup(arg)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, cl)
	}

	svc, err := cmd.service()
	if err != nil {
		return err
	}

	p := printer.Ctx(ctx)
	for _, cl := range cleanups {
		msg, err := svc.Run(ctx, cl)
		if err != nil {
			return fmt.Errorf("%s: %w", cl.Name(), err)
		}
		p.Successf("%s: %s", cl.Name(), orDone(msg))
	}
	return nil
}

func (cmd *ToolsCmd) runRecalc(ctx context.Context, c *cli.Command) error {
	var ids []jobs.ID
	switch {
	case cmd.allJobs && c.Args().Present():
		return fmt.Errorf("pass job ids or --all, not both")
	case !cmd.allJobs:
		var err error
		if ids, err = jobIDs(c); err != nil {
			return fmt.Errorf("%w (or pass --all)", err)
		}
	}

	svc, err := cmd.service()
	if err != nil {
		return err
	}

	msg, err := svc.Recalculate(ctx, cmd.recalcType, ids)
	if err != nil {
		return fmt.Errorf("recalculate %s: %w", cmd.recalcType, err)
	}
	printer.Ctx(ctx).Successf("%s", orDone(msg))
	return nil
}

func (cmd *ToolsCmd) runUploadMarks(ctx context.Context, c *cli.Command) error {
	svc, err := cmd.service()
	if err != nil {
		return err
	}

	res, err := svc.UploadMarks(ctx, c.Args().Slice()...)
	if err != nil {
		return fmt.Errorf("upload marks: %w", err)
	}

	if cmd.json {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, res)
	}
	if res.ID != "" {
		printer.Ctx(ctx).Success(fmt.Sprintf("Created %s mark %s", res.Type, res.ID),
			strings.TrimSuffix(cmd.app.Remote.BaseURL(), "/")+"/marks/"+res.Type+"/"+res.ID+"/")
		return nil
	}
	printer.Ctx(ctx).Successf("%s", orDone(res.Message))
	return nil
}

func (cmd *ToolsCmd) runUploadAllMarks(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected one archive, got %d arguments", c.Args().Len())
	}
	svc, err := cmd.service()
	if err != nil {
		return err
	}

	counts, err := svc.UploadAllMarks(ctx, c.Args().First(), cmd.deleteFirst)
	if err != nil {
		return fmt.Errorf("upload all marks: %w", err)
	}

	if cmd.json {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, counts)
	}
	printer.Ctx(ctx).Success("Uploaded marks", counts.String())
	return nil
}

func (cmd *ToolsCmd) runUploadTags(ctx context.Context, c *cli.Command) error {
	kind, err := tools.ParseTagKind(cmd.tagKind)
	if err != nil {
		return err
	}
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected one tags file, got %d arguments", c.Args().Len())
	}
	svc, err := cmd.service()
	if err != nil {
		return err
	}

	if err := svc.UploadTags(ctx, kind, c.Args().First()); err != nil {
		return fmt.Errorf("upload tags: %w", err)
	}
	printer.Ctx(ctx).Successf("Uploaded %s tags", kind)
	return nil
}

func orDone(msg string) string {
	if msg == "" {
		return "Done"
	}
	return msg
}
