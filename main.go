package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/markreview/internal/commands"
	"github.com/colonyops/markreview/internal/core/config"
	"github.com/colonyops/markreview/internal/core/styles"
	"github.com/colonyops/markreview/internal/markreview"
	"github.com/colonyops/markreview/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		logCloser func()
		app       = &markreview.App{}
	)

	flags := &commands.Flags{}

	root := &cli.Command{
		Name:      "markreview",
		Usage:     "Review and discuss verification report marks",
		UsageText: "markreview [global options] command [command options]",
		Description: `markreview works with the comment threads and review status of the marks
on a verification report server.

Run 'markreview <snapshot.yaml>' to open the interactive review board.
Run 'markreview signin' first to create a session on the server.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("MARKREVIEW_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("MARKREVIEW_LOG_FILE"),
				Value:       commands.DefaultLogFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("MARKREVIEW_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("MARKREVIEW_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "server",
				Usage:       "report server base URL (overrides server.base_url)",
				Sources:     cli.EnvVars("MARKREVIEW_SERVER"),
				Destination: &flags.Server,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.Server != "" {
				cfg.Server.BaseURL = flags.Server
			}
			flags.Config = cfg

			// Validation ensures the theme name is known.
			palette, _ := styles.GetPalette(cfg.TUI.Theme)
			styles.SetTheme(palette)

			opened, err := markreview.Open(ctx, cfg)
			if err != nil {
				return ctx, err
			}

			// Commands already hold a pointer to app.
			*app = *opened
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			var err error
			if app.DB != nil {
				if err = app.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close app")
				}
			}
			if logCloser != nil {
				logCloser()
			}
			return err
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, app)

	root = tuiCmd.Register(root)
	root = commands.NewSessionCmd(flags, app).Register(root)
	root = commands.NewCommentCmd(flags, app).Register(root)
	root = commands.NewReviewCmd(flags, app).Register(root)
	root = commands.NewJobCmd(flags, app).Register(root)
	root = commands.NewToolsCmd(flags, app).Register(root)
	root = commands.NewNotificationsCmd(flags, app).Register(root)
	root = commands.NewConfigValidateCmd(flags).Register(root)

	// A bare snapshot path opens the board.
	root.Flags = append(root.Flags, tuiCmd.Flags()...)
	root.Action = func(ctx context.Context, c *cli.Command) error {
		if !c.Args().Present() {
			return cli.ShowAppHelp(c)
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	stop()
	os.Exit(exitCode)
}
