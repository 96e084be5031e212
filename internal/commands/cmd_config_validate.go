package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quire/internal/core/config"
	"github.com/hay-kot/quire/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
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
				UsageText:   "quire config validate [options]",
				Description: "Validates the configuration file, checking the status template, annotation colors, keybindings and the data directory.",
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

// ValidationError is one failed check.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationReport is the result of validating a configuration.
type ValidationReport struct {
	Valid    bool                       `json:"valid"`
	Errors   []ValidationError          `json:"errors,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

// Validate checks cfg and collects every error and warning.
func Validate(cfg *config.Config, path string) ValidationReport {
	report := ValidationReport{Warnings: cfg.Warnings()}

	err := cfg.ValidateDeep(path)
	var fieldErrs criterio.FieldErrors
	switch {
	case err == nil:
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			report.Errors = append(report.Errors, ValidationError{Field: fe.Field, Message: fe.Err.Error()})
		}
	default:
		report.Errors = append(report.Errors, ValidationError{Message: err.Error()})
	}

	report.Valid = len(report.Errors) == 0
	return report
}

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#5faf5f"})
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b26a00", Dark: "#d7af00"})
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#d75f5f"})
)

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	report := Validate(cmd.flags.Config, cmd.flags.ConfigPath)

	w := c.Root().Writer
	if cmd.format == "json" {
		if err := iojson.WriteWith(w, c.Root().ErrWriter, report); err != nil {
			return err
		}
	} else {
		writeReport(w, report)
	}

	if !report.Valid {
		return cli.Exit("", 1)
	}
	return nil
}

func writeReport(w io.Writer, report ValidationReport) {
	for _, warn := range report.Warnings {
		line := fmt.Sprintf("! %s: %s", warn.Category, warn.Message)
		if warn.Item != "" {
			line += " (" + warn.Item + ")"
		}
		_, _ = fmt.Fprintln(w, warnStyle.Render(line))
	}

	for _, e := range report.Errors {
		line := "✗ " + e.Message
		if e.Field != "" {
			line = fmt.Sprintf("✗ %s: %s", e.Field, e.Message)
		}
		_, _ = fmt.Fprintln(w, failStyle.Render(line))
	}

	if report.Valid {
		_, _ = fmt.Fprintln(w, passStyle.Render("✓ Configuration is valid"))
		return
	}
	_, _ = fmt.Fprintln(w, failStyle.Render(fmt.Sprintf("%d error(s) found", len(report.Errors))))
}
