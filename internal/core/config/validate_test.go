package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Keybindings = mergeKeybindings(defaultKeybindings, nil)
	return &cfg
}

func TestValidateDeep_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_InvalidStatusFormat(t *testing.T) {
	cfg := validConfig(t)
	cfg.TUI.StatusFormat = "{{ .Title } {{ .Missing }}"

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 1)
	assert.Equal(t, "tui.status_format", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Err.Error(), "template error")
}

func TestValidateDeep_UnknownStatusField(t *testing.T) {
	cfg := validConfig(t)
	cfg.TUI.StatusFormat = "{{ .Chapter }}"

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, cfg.ValidateDeep(""), &fieldErrs)
	assert.Equal(t, "tui.status_format", fieldErrs[0].Field)
}

func TestValidateDeep_InvalidColors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Annotations.Colors["bad"] = "not-a-color"
	cfg.Annotations.Colors["ansi"] = "208"
	cfg.Annotations.Colors["short"] = "#fff"

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, cfg.ValidateDeep(""), &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Contains(t, fieldErrs[0].Field, `"bad"`)
}

func TestValidateDeep_DataDirIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	cfg.DataDir = file

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, cfg.ValidateDeep(""), &fieldErrs)
	assert.Equal(t, "data_dir", fieldErrs[0].Field)
}

func TestValidateDeep_ConfigPathIsDir(t *testing.T) {
	cfg := validConfig(t)

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, cfg.ValidateDeep(t.TempDir()), &fieldErrs)
	assert.Equal(t, "config_file", fieldErrs[0].Field)
}

func TestValidateDeep_StructuralErrorFirst(t *testing.T) {
	cfg := validConfig(t)
	cfg.Loader.Workers = 0

	err := cfg.ValidateDeep("")
	require.ErrorContains(t, err, "loader.workers")
}

func TestWarnings(t *testing.T) {
	cfg := validConfig(t)
	assert.Empty(t, cfg.Warnings())

	delete(cfg.Keybindings, "H")
	cfg.Reader.PaginateChunk = 100000

	warnings := cfg.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, ActionHighlight, warnings[0].Item)
	assert.Equal(t, "paginate_chunk", warnings[1].Item)
}
