// Package config handles configuration loading and validation for quire.
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Built-in action names for keybindings.
const (
	ActionNextPage     = "next_page"
	ActionPrevPage     = "prev_page"
	ActionFirstPage    = "first_page"
	ActionLastPage     = "last_page"
	ActionSearch       = "search"
	ActionSearchNext   = "search_next"
	ActionBookmark     = "bookmark"
	ActionNextBookmark = "next_bookmark"
	ActionPrevBookmark = "prev_bookmark"
	ActionBack         = "back"
	ActionForward      = "forward"
	ActionHighlight    = "highlight"
	ActionZoomIn       = "zoom_in"
	ActionZoomOut      = "zoom_out"
	ActionCycleDisplay = "cycle_display"
	ActionHelp         = "help"
	ActionQuit         = "quit"
)

var actions = []string{
	ActionNextPage, ActionPrevPage, ActionFirstPage, ActionLastPage,
	ActionSearch, ActionSearchNext, ActionBookmark, ActionNextBookmark,
	ActionPrevBookmark, ActionBack, ActionForward, ActionHighlight,
	ActionZoomIn, ActionZoomOut, ActionCycleDisplay, ActionHelp, ActionQuit,
}

// defaultKeybindings provides built-in keybindings that users can override.
var defaultKeybindings = map[string]Keybinding{
	"right":  {Action: ActionNextPage, Help: "next page"},
	"l":      {Action: ActionNextPage, Help: "next page"},
	" ":      {Action: ActionNextPage, Help: "next page"},
	"left":   {Action: ActionPrevPage, Help: "previous page"},
	"h":      {Action: ActionPrevPage, Help: "previous page"},
	"g":      {Action: ActionFirstPage, Help: "first page"},
	"G":      {Action: ActionLastPage, Help: "last page"},
	"/":      {Action: ActionSearch, Help: "search"},
	"n":      {Action: ActionSearchNext, Help: "next match"},
	"m":      {Action: ActionBookmark, Help: "toggle bookmark"},
	"]":      {Action: ActionNextBookmark, Help: "next bookmark"},
	"[":      {Action: ActionPrevBookmark, Help: "previous bookmark"},
	"ctrl+o": {Action: ActionBack, Help: "back"},
	"tab":    {Action: ActionForward, Help: "forward"},
	"H":      {Action: ActionHighlight, Help: "highlight match"},
	"+":      {Action: ActionZoomIn, Help: "zoom in"},
	"-":      {Action: ActionZoomOut, Help: "zoom out"},
	"d":      {Action: ActionCycleDisplay, Help: "pages side by side"},
	"?":      {Action: ActionHelp, Help: "help"},
	"q":      {Action: ActionQuit, Help: "quit"},
}

// Config holds the application configuration.
type Config struct {
	Reader      ReaderConfig          `yaml:"reader"`
	Loader      LoaderConfig          `yaml:"loader"`
	TUI         TUIConfig             `yaml:"tui"`
	Annotations AnnotationConfig      `yaml:"annotations"`
	Database    DatabaseConfig        `yaml:"database"`
	Keybindings map[string]Keybinding `yaml:"keybindings"`
	DataDir     string                `yaml:"-"` // set by caller, not from config file
}

// ReaderConfig holds layout and navigation settings.
type ReaderConfig struct {
	DisplayPages  int     `yaml:"display_pages"`  // pages shown side by side, 1..3
	Zoom          float64 `yaml:"zoom"`           // text scale, 0.5..4
	TabWidth      int     `yaml:"tab_width"`      // columns per tab stop
	PaginateChunk int     `yaml:"paginate_chunk"` // visual lines laid out per UI step
	Watch         bool    `yaml:"watch"`          // reload the document when its file changes
}

// LoaderConfig holds background loading settings.
type LoaderConfig struct {
	Workers int `yaml:"workers"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	StatusFormat string `yaml:"status_format"` // Go template, see StatusTemplateData
	Glamour      string `yaml:"glamour"`       // glamour style for the help overlay
}

// AnnotationConfig maps annotation color tags to terminal colors.
type AnnotationConfig struct {
	Default string            `yaml:"default"`
	Colors  map[string]string `yaml:"colors"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// Keybinding defines a TUI keybinding action.
type Keybinding struct {
	Action string `yaml:"action"` // built-in action name
	Help   string `yaml:"help"`   // help text shown in TUI
}

// StatusTemplateData defines the fields available to tui.status_format.
type StatusTemplateData struct {
	Title     string
	Author    string
	Page      int // 1-based first visible page
	Pages     int
	Offset    int
	Length    int
	Bookmarks int
	Query     string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Reader: ReaderConfig{
			DisplayPages:  1,
			Zoom:          1,
			TabWidth:      4,
			PaginateChunk: 500,
			Watch:         true,
		},
		Loader: LoaderConfig{
			Workers: 2,
		},
		TUI: TUIConfig{
			StatusFormat: `{{ truncate 40 .Title }}  {{ .Page }}/{{ .Pages }}  {{ percent .Offset .Length }}`,
			Glamour:      "dark",
		},
		Annotations: AnnotationConfig{
			Default: "yellow",
			Colors: map[string]string{
				"yellow": "#d7af00",
				"green":  "#5faf5f",
				"blue":   "#5f87d7",
				"red":    "#d75f5f",
			},
		},
		Database: DatabaseConfig{
			BusyTimeout: 5 * time.Second,
		},
		Keybindings: map[string]Keybinding{},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/quire/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "quire", "config.yaml")
}

// DefaultDataDir returns $XDG_DATA_HOME/quire, falling back to
// ~/.local/share/quire.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "quire")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "quire")
	}
	return filepath.Join(home, ".local", "share", "quire")
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}
	cfg.DataDir = dataDir

	cfg.Keybindings = mergeKeybindings(defaultKeybindings, cfg.Keybindings)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Reader.DisplayPages == 0 {
		c.Reader.DisplayPages = defaults.Reader.DisplayPages
	}
	if c.Reader.Zoom == 0 {
		c.Reader.Zoom = defaults.Reader.Zoom
	}
	if c.Reader.TabWidth == 0 {
		c.Reader.TabWidth = defaults.Reader.TabWidth
	}
	if c.Reader.PaginateChunk == 0 {
		c.Reader.PaginateChunk = defaults.Reader.PaginateChunk
	}
	if c.Loader.Workers == 0 {
		c.Loader.Workers = defaults.Loader.Workers
	}
	if c.TUI.StatusFormat == "" {
		c.TUI.StatusFormat = defaults.TUI.StatusFormat
	}
	if c.TUI.Glamour == "" {
		c.TUI.Glamour = defaults.TUI.Glamour
	}
	if c.Annotations.Default == "" {
		c.Annotations.Default = defaults.Annotations.Default
	}
	// User colors extend the built-in palette.
	c.Annotations.Colors = mergeColors(defaults.Annotations.Colors, c.Annotations.Colors)
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
}

// mergeKeybindings merges user keybindings into defaults.
// User keybindings override defaults for the same key.
func mergeKeybindings(defaults, user map[string]Keybinding) map[string]Keybinding {
	result := make(map[string]Keybinding, len(defaults)+len(user))
	maps.Copy(result, defaults)
	maps.Copy(result, user)
	return result
}

func mergeColors(defaults, user map[string]string) map[string]string {
	result := make(map[string]string, len(defaults)+len(user))
	maps.Copy(result, defaults)
	maps.Copy(result, user)
	return result
}

// KeyFor returns the keys bound to action, for help text.
func (c *Config) KeyFor(action string) []string {
	var keys []string
	for k, kb := range c.Keybindings {
		if kb.Action == action {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// IsValidAction reports whether action is a built-in action name.
func IsValidAction(action string) bool {
	return slices.Contains(actions, action)
}

// Actions returns the built-in action names in help order.
func Actions() []string {
	return append([]string(nil), actions...)
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Reader.DisplayPages < 1 || c.Reader.DisplayPages > 3 {
		return fmt.Errorf("reader.display_pages must be between 1 and 3, got %d", c.Reader.DisplayPages)
	}

	if c.Reader.Zoom < 0.5 || c.Reader.Zoom > 4 {
		return fmt.Errorf("reader.zoom must be between 0.5 and 4, got %g", c.Reader.Zoom)
	}

	if c.Reader.TabWidth < 1 {
		return fmt.Errorf("reader.tab_width must be at least 1")
	}

	if c.Reader.PaginateChunk < 1 {
		return fmt.Errorf("reader.paginate_chunk must be at least 1")
	}

	if c.Loader.Workers < 1 {
		return fmt.Errorf("loader.workers must be at least 1")
	}

	if _, ok := c.Annotations.Colors[c.Annotations.Default]; !ok {
		return fmt.Errorf("annotations.default %q has no entry in annotations.colors", c.Annotations.Default)
	}

	for key, kb := range c.Keybindings {
		if kb.Action == "" {
			return fmt.Errorf("keybinding %q must have an action", key)
		}
		if !IsValidAction(kb.Action) {
			return fmt.Errorf("keybinding %q has invalid action %q", key, kb.Action)
		}
	}

	return nil
}

// DatabaseDir returns the directory holding the sqlite database.
func (c *Config) DatabaseDir() string {
	return c.DataDir
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "quire.log")
}
