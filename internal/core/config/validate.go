package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/hay-kot/criterio"

	"github.com/hay-kot/quire/pkg/tmpl"
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// template syntax, colors, and file accessibility. The configPath argument
// specifies the config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateStatusFormat(),
		c.validateColors(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	for _, action := range actions {
		if len(c.KeyFor(action)) == 0 {
			warnings = append(warnings, ValidationWarning{
				Category: "Keybindings",
				Item:     action,
				Message:  "action has no key bound",
			})
		}
	}

	if c.Reader.PaginateChunk > 50000 {
		warnings = append(warnings, ValidationWarning{
			Category: "Reader",
			Item:     "paginate_chunk",
			Message:  "large chunks make the reader unresponsive while paginating",
		})
	}

	return warnings
}

// validateFileAccess checks the config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// validateStatusFormat renders the status template against sample data.
func (c *Config) validateStatusFormat() error {
	sample := StatusTemplateData{Title: "Title", Page: 1, Pages: 10, Length: 100}
	if _, err := tmpl.Render(c.TUI.StatusFormat, sample); err != nil {
		return criterio.NewFieldErrors("tui.status_format", fmt.Errorf("template error: %w", err))
	}
	return nil
}

// validateColors checks every annotation color is a hex color or an ANSI
// color number.
func (c *Config) validateColors() error {
	var errs criterio.FieldErrorsBuilder
	for tag, color := range c.Annotations.Colors {
		if !isColor(color) {
			errs = errs.Append(fmt.Sprintf("annotations.colors[%q]", tag), fmt.Errorf("invalid color %q", color))
		}
	}
	return errs.ToError()
}

func isColor(s string) bool {
	if hexColor.MatchString(s) {
		return true
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0 && n <= 255
}
