// Package config loads media-sorter settings from a TOML file.
//
// Values are layered: built-in defaults, then the config file, then command line flags
// that were set explicitly. Only the first two layers live here.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/quidome/media-sorter/pkg/plan"
	"github.com/quidome/media-sorter/pkg/scan"
)

const (
	defaultConfigPath  = "~/.config/media-sorter/config.toml"
	projectConfigFile  = "media-sorter.toml"
	defaultTimezone    = "local"
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
	defaultUndatedName = plan.DefaultUndatedFolder
)

// Organize contains the defaults for the organize command.
type Organize struct {
	// Destination receives the dated folders. Empty means the source directory.
	Destination       string `toml:"destination"`
	Copy              bool   `toml:"copy"`
	Simulate          bool   `toml:"simulate"`
	IncludeSubfolders bool   `toml:"include_subfolders"`
	IncludeUndated    bool   `toml:"include_undated"`
	UndatedFolder     string `toml:"undated_folder"`
	// Timezone interprets dates without an offset: "local", "utc" or an IANA name.
	Timezone string `toml:"timezone"`
}

// Extensions lists the file extensions per media kind.
type Extensions struct {
	Images   []string `toml:"images"`
	Videos   []string `toml:"videos"`
	Sidecars []string `toml:"sidecars"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the complete media-sorter configuration.
type Config struct {
	Organize   Organize   `toml:"organize"`
	Extensions Extensions `toml:"extensions"`
	Logging    Logging    `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	scanDefaults := scan.DefaultOptions()
	return Config{
		Organize: Organize{
			IncludeSubfolders: true,
			IncludeUndated:    true,
			UndatedFolder:     defaultUndatedName,
			Timezone:          defaultTimezone,
		},
		Extensions: Extensions{
			Images:   append([]string(nil), scanDefaults.ImageExtensions...),
			Videos:   append([]string(nil), scanDefaults.VideoExtensions...),
			Sidecars: append([]string(nil), scanDefaults.SidecarExtensions...),
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

// DefaultConfigPath returns the per-user config location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads configuration from path, or from the default locations when path is empty.
// It returns the config, the path it resolved and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigFile)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}

// ScanOptions returns the scanner options for the configured extensions.
func (c *Config) ScanOptions(includeSubfolders bool) scan.Options {
	opts := scan.Options{
		MaxDepth:          -1,
		ImageExtensions:   append([]string(nil), c.Extensions.Images...),
		VideoExtensions:   append([]string(nil), c.Extensions.Videos...),
		SidecarExtensions: append([]string(nil), c.Extensions.Sidecars...),
	}
	if !includeSubfolders {
		opts.MaxDepth = 0
	}
	return opts
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return loadLocation(c.Organize.Timezone)
}

func loadLocation(name string) (*time.Location, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", defaultTimezone:
		return time.Local, nil
	case "utc":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("organize.timezone: %w", err)
	}
	return loc, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
