// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/zotero-mcp/internal/library"
	"github.com/pdiddy/zotero-mcp/internal/pdftext"
	"github.com/pdiddy/zotero-mcp/internal/secrets"
	"github.com/pdiddy/zotero-mcp/internal/zotero"
	"github.com/pdiddy/zotero-mcp/internal/zoterodb"
	"github.com/pdiddy/zotero-mcp/pkg/types"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultUserAgent  = "zotero-mcp/0.1"
	defaultMaxRetries = 5
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("library.type", string(types.LibraryUser))
	v.SetDefault("library.mode", string(types.ModeLocal))
	v.SetDefault("library.timeout", defaultTimeout)
	v.SetDefault("library.user_agent", defaultUserAgent)
	v.SetDefault("library.max_retries", defaultMaxRetries)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// bindEnv adds the unprefixed variable names used by existing Zotero MCP
// setups. Prefixed names take precedence.
func bindEnv(v *viper.Viper) {
	v.BindEnv("library.id", "ZOTERO_MCP_LIBRARY_ID", "LIBRARY_ID")
	v.BindEnv("library.type", "ZOTERO_MCP_LIBRARY_TYPE", "LIBRARY_TYPE")
	v.BindEnv("library.api_key", "ZOTERO_MCP_LIBRARY_API_KEY", "ZOTERO_API_KEY")
}

// loadDotEnv copies variables from an env file into the process
// environment. Variables already set are left alone; a missing file is not
// an error.
func loadDotEnv(path string) error {
	d := viper.New()
	d.SetConfigFile(path)
	d.SetConfigType("env")
	if err := d.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for _, key := range d.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		os.Setenv(name, d.GetString(key))
	}
	return nil
}

// loadConfig decodes and validates the configuration. The API key falls
// back to the secrets directory when no other source sets it.
func loadConfig(v *viper.Viper, s map[string]string) (types.Config, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if c.Library.APIKey == "" {
		c.Library.APIKey = s[secrets.ZoteroAPIKey]
	}
	if err := c.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// openLibrary builds the backend selected by the configuration. The returned
// closer releases it.
func openLibrary(c types.LibraryConfig) (zotero.Library, io.Closer, error) {
	if c.Mode == types.ModeSQLite {
		db, err := zoterodb.Open(c.DataDir, log)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	}
	client, err := zotero.NewClient(c, log)
	if err != nil {
		return nil, nil, err
	}
	return client, closerFunc(func() error { return nil }), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// newService opens the configured library and wraps it in a Service.
func newService() (*library.Service, io.Closer, error) {
	lib, closer, err := openLibrary(cfg.Library)
	if err != nil {
		return nil, nil, fmt.Errorf("opening library: %w", err)
	}
	return library.NewService(lib, pdftext.New(), log), closer, nil
}
