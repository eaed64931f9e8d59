// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by backends that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "zotero-mcp/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// LibraryType selects between a personal and a group library.
type LibraryType string

const (
	LibraryUser  LibraryType = "user"
	LibraryGroup LibraryType = "group"
)

// LibraryMode selects the backend used to reach the library.
type LibraryMode string

const (
	// ModeWeb talks to the Zotero web API (api.zotero.org).
	ModeWeb LibraryMode = "web"
	// ModeLocal talks to the local API of a running Zotero desktop client.
	ModeLocal LibraryMode = "local"
	// ModeSQLite reads zotero.sqlite from the Zotero data directory.
	ModeSQLite LibraryMode = "sqlite"
)

// LibraryConfig holds settings for reaching the Zotero library.
type LibraryConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// ID is the numeric user or group ID.
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	// Type is "user" or "group".
	Type LibraryType `json:"type" yaml:"type" mapstructure:"type"`

	// Mode selects the backend: web, local, or sqlite (default local).
	Mode LibraryMode `json:"mode" yaml:"mode" mapstructure:"mode"`

	// APIKey authenticates against the web API. Not needed in local mode.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the API root for web and local modes.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// DataDir is the Zotero data directory (contains zotero.sqlite and
	// storage/). Required in sqlite mode.
	DataDir string `json:"data_dir,omitempty" yaml:"data_dir,omitempty" mapstructure:"data_dir"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is a logrus level name (default "info").
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "text" or "json" (default "text").
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings of the server.
type Config struct {
	Library LibraryConfig `json:"library" yaml:"library" mapstructure:"library"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

// Validate reports the first setting that prevents the server from starting.
func (c Config) Validate() error {
	switch c.Library.Mode {
	case ModeWeb, ModeLocal:
		if c.Library.ID == "" {
			return fmt.Errorf("library id is required in %s mode (set LIBRARY_ID)", c.Library.Mode)
		}
	case ModeSQLite:
		if c.Library.DataDir == "" {
			return fmt.Errorf("library data_dir is required in sqlite mode")
		}
	default:
		return fmt.Errorf("unknown library mode %q: use web, local, or sqlite", c.Library.Mode)
	}

	switch c.Library.Type {
	case LibraryUser, LibraryGroup:
	default:
		return fmt.Errorf("unknown library type %q: use user or group", c.Library.Type)
	}
	return nil
}
