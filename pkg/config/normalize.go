package config

import (
	"fmt"
	"strings"
)

// Finalize normalizes and validates c. Call it after changing fields in memory, such as
// applying command-line overrides to a loaded config.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Config) normalize() error {
	var err error
	if c.Organize.Destination, err = expandPath(strings.TrimSpace(c.Organize.Destination)); err != nil {
		return fmt.Errorf("organize.destination: %w", err)
	}
	c.Organize.UndatedFolder = strings.TrimSpace(c.Organize.UndatedFolder)
	if c.Organize.UndatedFolder == "" {
		c.Organize.UndatedFolder = defaultUndatedName
	}
	c.Organize.Timezone = strings.TrimSpace(c.Organize.Timezone)
	if c.Organize.Timezone == "" {
		c.Organize.Timezone = defaultTimezone
	}

	c.Extensions.Images = normalizeExtensions(c.Extensions.Images)
	c.Extensions.Videos = normalizeExtensions(c.Extensions.Videos)
	c.Extensions.Sidecars = normalizeExtensions(c.Extensions.Sidecars)

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	return nil
}

// normalizeExtensions lower-cases, dot-prefixes and dedupes exts, keeping their order.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}
