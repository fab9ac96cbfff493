package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quidome/media-sorter/pkg/logging"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validateExtensions(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateOrganize() error {
	name := c.Organize.UndatedFolder
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("organize.undated_folder must be a plain folder name, got %q", name)
	}
	if _, err := loadLocation(c.Organize.Timezone); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExtensions() error {
	if len(c.Extensions.Images) == 0 {
		return errors.New("extensions.images must not be empty")
	}
	if len(c.Extensions.Videos) == 0 {
		return errors.New("extensions.videos must not be empty")
	}
	images := make(map[string]bool, len(c.Extensions.Images))
	for _, ext := range c.Extensions.Images {
		images[ext] = true
	}
	for _, ext := range c.Extensions.Videos {
		if images[ext] {
			return fmt.Errorf("extension %s is listed as both image and video", ext)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "text", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
}
