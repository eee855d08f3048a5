package commands

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/markreview/internal/core/jobs"
	"github.com/colonyops/markreview/internal/markreview"
	"github.com/colonyops/markreview/internal/printer"
	"github.com/colonyops/markreview/pkg/iojson"
)

type JobCmd struct {
	flags *Flags
	app   *markreview.App

	json     bool
	force    bool
	interval time.Duration
	mode     string
	archive  string
	attrs    map[string]string
	attrFile iojson.FileReader[map[string]string]
}

type jobStatusOutput struct {
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
	Time   string `json:"time,omitempty"`
}

// NewJobCmd creates the job command group.
func NewJobCmd(flags *Flags, app *markreview.App) *JobCmd {
	return &JobCmd{flags: flags, app: app}
}

// Register adds the job commands to the application.
func (cmd *JobCmd) Register(app *cli.Command) *cli.Command {
	jsonFlag := func() cli.Flag {
		return &cli.BoolFlag{Name: "json", Usage: "print JSON", Destination: &cmd.json}
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "job",
		Usage: "Run actions on verification jobs",
		Commands: []*cli.Command{
			{
				Name:      "status",
				Usage:     "Print the status of a job",
				UsageText: "markreview job status <job-id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    cmd.runStatus,
			},
			{
				Name:      "watch",
				Usage:     "Print the status of a job every time it changes",
				UsageText: "markreview job watch [--interval 3s] <job-id>",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:        "interval",
						Usage:       "poll interval (defaults to jobs.poll_interval)",
						Destination: &cmd.interval,
					},
					jsonFlag(),
				},
				Action: cmd.runWatch,
			},
			{
				Name:      "remove",
				Usage:     "Remove a job",
				UsageText: "markreview job remove [--force] <job-id>",
				Description: `A job with children is only removed after confirmation, or with --force.
Removing it removes its children too.`,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "remove even when the job has children", Destination: &cmd.force},
				},
				Action: cmd.runRemove,
			},
			{
				Name:      "clear",
				Usage:     "Clear the results of one or more jobs",
				UsageText: "markreview job clear <job-id>...",
				Action:    cmd.runClear,
			},
			{
				Name:      "run",
				Usage:     "Start a decision without the run form",
				UsageText: "markreview job run --mode fast|lastconf <job-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "mode",
						Usage:       "decision mode: fast or lastconf",
						Value:       string(jobs.DecisionFast),
						Destination: &cmd.mode,
					},
				},
				Action: cmd.runDecision,
			},
			{
				Name:      "stop",
				Usage:     "Stop the running decision",
				UsageText: "markreview job stop <job-id>",
				Action:    cmd.simple("stop decision", "Stopped decision of job %d", jobs.Client.StopDecision),
			},
			{
				Name:      "collapse",
				Usage:     "Collapse the job's reports",
				UsageText: "markreview job collapse <job-id>",
				Action:    cmd.simple("collapse reports", "Collapsed reports of job %d", jobs.Client.CollapseReports),
			},
			{
				Name:      "clear-files",
				Usage:     "Delete the job's verification files",
				UsageText: "markreview job clear-files <job-id>",
				Action:    cmd.simple("clear verification files", "Cleared verification files of job %d", jobs.Client.ClearVerificationFiles),
			},
			{
				Name:      "attrs",
				Usage:     "Set job attributes",
				UsageText: "markreview job attrs --attr key=value [--attr ...] <job-id>\n   markreview job attrs -f attrs.json <job-id>",
				Flags: []cli.Flag{
					&cli.StringMapFlag{
						Name:        "attr",
						Usage:       "attribute as key=value (repeatable)",
						Destination: &cmd.attrs,
					},
					cmd.attrFile.Flag(),
				},
				Action: cmd.runAttrs,
			},
			{
				Name:      "upload",
				Usage:     "Upload a reports archive to a job",
				UsageText: "markreview job upload --archive 'out/**/*.zip' <job-id>",
				Description: `The archive may be a path or a glob (** supported). It must match
exactly one file.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "archive",
						Aliases:     []string{"a"},
						Usage:       "path or glob of the archive",
						Required:    true,
						Destination: &cmd.archive,
					},
				},
				Action: cmd.runUpload,
			},
		},
	})
	return app
}

func (cmd *JobCmd) service() (*jobs.Service, error) {
	if _, err := cmd.app.RequireRemote(); err != nil {
		return nil, err
	}
	return cmd.app.Jobs, nil
}

func (cmd *JobCmd) runStatus(ctx context.Context, c *cli.Command) error {
	id, err := singleJobID(c)
	if err != nil {
		return err
	}
	svc, err := cmd.service()
	if err != nil {
		return err
	}

	status, err := svc.Client().Status(ctx, id)
	if err != nil {
		return cmd.fail("job status", err)
	}

	if cmd.json {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, jobStatusOutput{JobID: int64(id), Status: status})
	}
	printer.Ctx(ctx).Printf("%s", status)
	return nil
}

func (cmd *JobCmd) runWatch(ctx context.Context, c *cli.Command) error {
	id, err := singleJobID(c)
	if err != nil {
		return err
	}
	svc, err := cmd.service()
	if err != nil {
		return err
	}

	interval := cmd.interval
	if interval <= 0 {
		interval = cmd.app.Config.Jobs.PollInterval
	}

	out := c.Root().Writer
	err = svc.Watch(ctx, id, interval, "", func(status string) {
		now := time.Now().Format(time.TimeOnly)
		if cmd.json {
			_ = iojson.WriteLine(out, jobStatusOutput{JobID: int64(id), Status: status, Time: now})
			return
		}
		_, _ = fmt.Fprintf(out, "%s  %s\n", now, status)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return cmd.fail("job status", err)
	}
	return nil
}

func (cmd *JobCmd) runRemove(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	id, err := singleJobID(c)
	if err != nil {
		return err
	}
	svc, err := cmd.service()
	if err != nil {
		return err
	}

	err = svc.Remove(ctx, id, cmd.force)
	if errors.Is(err, jobs.ErrHasChildren) {
		if !stdinIsTerminal() {
			return fmt.Errorf("job %d has children; pass --force to remove it with them", id)
		}

		var confirmed bool
		err = huh.NewConfirm().
			Title(fmt.Sprintf("Job %d has children", id)).
			Description("Removing it removes all of its children. Continue?").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			p.Infof("Remove cancelled")
			return nil
		}
		err = svc.Remove(ctx, id, true)
	}
	if err != nil {
		return cmd.fail("remove job", err)
	}

	p.Successf("Removed job %d", id)
	return nil
}

func (cmd *JobCmd) runClear(ctx context.Context, c *cli.Command) error {
	ids, err := jobIDs(c)
	if err != nil {
		return err
	}
	svc, err := cmd.service()
	if err != nil {
		return err
	}

	if err := svc.Client().Clear(ctx, ids...); err != nil {
		return cmd.fail("clear jobs", err)
	}
	printer.Ctx(ctx).Successf("Cleared %d job(s)", len(ids))
	return nil
}

func (cmd *JobCmd) runDecision(ctx context.Context, c *cli.Command) error {
	mode, err := jobs.ParseDecisionMode(cmd.mode)
	if err != nil {
		return err
	}
	id, err := singleJobID(c)
	if err != nil {
		return err
	}
	svc, err := cmd.service()
	if err != nil {
		return err
	}

	if err := svc.Client().RunDecision(ctx, id, mode); err != nil {
		return cmd.fail("run decision", err)
	}
	printer.Ctx(ctx).Successf("Started %s decision for job %d", mode, id)
	return nil
}

// simple builds the action of a command that takes one job id and has no
// result beyond success.
func (cmd *JobCmd) simple(action, done string, fn func(jobs.Client, context.Context, jobs.ID) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		id, err := singleJobID(c)
		if err != nil {
			return err
		}
		svc, err := cmd.service()
		if err != nil {
			return err
		}

		if err := fn(svc.Client(), ctx, id); err != nil {
			return cmd.fail(action, err)
		}
		printer.Ctx(ctx).Successf(done, id)
		return nil
	}
}

func (cmd *JobCmd) runAttrs(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	id, err := singleJobID(c)
	if err != nil {
		return err
	}

	attrs := maps.Clone(cmd.attrs)
	if len(attrs) == 0 {
		attrs, err = cmd.attrFile.Read()
		if err != nil {
			return fmt.Errorf("read attributes: %w", err)
		}
	}
	if len(attrs) == 0 {
		return fmt.Errorf("no attributes given; use --attr key=value or --file")
	}

	svc, err := cmd.service()
	if err != nil {
		return err
	}

	reload, err := svc.Client().SetAttrs(ctx, id, attrs)
	if err != nil {
		return cmd.fail("set job attributes", err)
	}

	p.Successf("Updated %d attribute(s) of job %d", len(attrs), id)
	if reload {
		p.Infof("The job page needs a reload to show the change")
	}
	return nil
}

func (cmd *JobCmd) runUpload(ctx context.Context, c *cli.Command) error {
	id, err := singleJobID(c)
	if err != nil {
		return err
	}
	svc, err := cmd.service()
	if err != nil {
		return err
	}

	path, err := svc.Upload(ctx, id, cmd.archive)
	if err != nil {
		return cmd.fail("upload reports", err)
	}
	printer.Ctx(ctx).Success(fmt.Sprintf("Uploaded reports to job %d", id), path)
	return nil
}

// fail records err in the notification history and wraps it for the caller.
func (cmd *JobCmd) fail(action string, err error) error {
	cmd.app.Bus.Errorf(action, "%s", err.Error())
	return fmt.Errorf("%s: %w", action, err)
}

func singleJobID(c *cli.Command) (jobs.ID, error) {
	if c.Args().Len() != 1 {
		return 0, fmt.Errorf("expected one job id, got %d arguments", c.Args().Len())
	}
	ids, err := jobIDs(c)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func jobIDs(c *cli.Command) ([]jobs.ID, error) {
	if !c.Args().Present() {
		return nil, fmt.Errorf("at least one job id is required")
	}

	ids := make([]jobs.ID, 0, c.Args().Len())
	for _, arg := range c.Args().Slice() {
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid job id %q", arg)
		}
		ids = append(ids, jobs.ID(n))
	}
	return ids, nil
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
