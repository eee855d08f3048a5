package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/markreview/internal/printer"
	"github.com/colonyops/markreview/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

type validationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "markreview config validate [options]",
				Description: "Validates the configuration file, checking durations, keybindings, the server URL and the data directory.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	problems := validationErrors(cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath))

	if cmd.format == "json" {
		out := struct {
			Valid  bool              `json:"valid"`
			Errors []validationError `json:"errors,omitempty"`
		}{
			Valid:  len(problems) == 0,
			Errors: problems,
		}
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out)
	}

	if len(problems) == 0 {
		p.Successf("Config is valid: %s", cmd.flags.ConfigPath)
		return nil
	}

	p.Section(fmt.Sprintf("%d problem(s) in %s", len(problems), cmd.flags.ConfigPath))
	for _, e := range problems {
		if e.Field != "" {
			p.Errorf("%s: %s", e.Field, e.Message)
		} else {
			p.Errorf("%s", e.Message)
		}
	}
	return fmt.Errorf("config has %d problem(s)", len(problems))
}

func validationErrors(err error) []validationError {
	if err == nil {
		return nil
	}

	var fields criterio.FieldErrors
	if !errors.As(err, &fields) {
		return []validationError{{Message: err.Error()}}
	}

	out := make([]validationError, 0, len(fields))
	for _, f := range fields {
		out = append(out, validationError{Field: f.Field, Message: f.Err.Error()})
	}
	return out
}
