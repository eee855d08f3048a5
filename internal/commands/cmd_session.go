package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/markreview/internal/markreview"
	"github.com/colonyops/markreview/internal/printer"
	"github.com/colonyops/markreview/internal/remote"
)

type SessionCmd struct {
	flags *Flags
	app   *markreview.App

	username      string
	job           string
	passwordStdin bool

	// stdin is swapped in tests.
	stdin io.Reader
}

// NewSessionCmd creates the signin and signout commands.
func NewSessionCmd(flags *Flags, app *markreview.App) *SessionCmd {
	return &SessionCmd{flags: flags, app: app, stdin: os.Stdin}
}

// Register adds the session commands to the application.
func (cmd *SessionCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "signin",
			Usage:     "Sign in to the report server",
			UsageText: "markreview signin [--username <name>] [--job <id>] [--password-stdin]",
			Description: `Signs in and saves the session cookies in the local database, so later
commands reuse them until server.session_ttl passes.

On a terminal the username and password are prompted for. Otherwise the
password is read from the first line of stdin.`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "username",
					Aliases:     []string{"u"},
					Usage:       "account name (defaults to server.username)",
					Destination: &cmd.username,
				},
				&cli.StringFlag{
					Name:        "job",
					Usage:       "job identifier to sign in for",
					Destination: &cmd.job,
				},
				&cli.BoolFlag{
					Name:        "password-stdin",
					Usage:       "read the password from stdin even on a terminal",
					Destination: &cmd.passwordStdin,
				},
			},
			Action: cmd.runSignIn,
		},
		&cli.Command{
			Name:   "signout",
			Usage:  "Sign out and forget the saved session",
			Action: cmd.runSignOut,
		},
	)
	return app
}

func (cmd *SessionCmd) runSignIn(ctx context.Context, _ *cli.Command) error {
	p := printer.Ctx(ctx)

	client, err := cmd.app.RequireRemote()
	if err != nil {
		return err
	}

	creds := remote.Credentials{
		Username: cmd.username,
		Job:      cmd.job,
	}
	if creds.Username == "" {
		creds.Username = cmd.app.Config.Server.Username
	}

	if cmd.interactive() {
		err = huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&creds.Username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&creds.Password).
				Validate(required("password")),
		)).Run()
		if err != nil {
			return err
		}
	} else {
		if creds.Username == "" {
			return fmt.Errorf("--username is required when not on a terminal")
		}
		creds.Password, err = readPassword(cmd.stdin)
		if err != nil {
			return err
		}
	}

	if err := client.SignIn(ctx, creds); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	p.Success("Signed in as "+creds.Username, client.BaseURL())
	return nil
}

func (cmd *SessionCmd) runSignOut(ctx context.Context, _ *cli.Command) error {
	p := printer.Ctx(ctx)

	client, err := cmd.app.RequireRemote()
	if err != nil {
		return err
	}

	if err := client.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	p.Successf("Signed out of %s", client.BaseURL())
	return nil
}

func (cmd *SessionCmd) interactive() bool {
	if cmd.passwordStdin {
		return false
	}
	f, ok := cmd.stdin.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("no password on stdin")
	}
	return password, nil
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
