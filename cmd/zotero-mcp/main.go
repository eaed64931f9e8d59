// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the zotero-mcp CLI. The serve command
// runs the MCP server; search, retrieve, and collection run the same library
// operations from the shell.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/zotero-mcp/internal/secrets"
	"github.com/pdiddy/zotero-mcp/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the validated configuration, loaded before any subcommand runs.
	cfg types.Config

	// log writes to stderr; stdout belongs to command output and the MCP
	// stdio transport.
	log *logrus.Entry
)

// rootCmd is the base command for the zotero-mcp CLI.
var rootCmd = &cobra.Command{
	Use:   "zotero-mcp",
	Short: "MCP server for searching and reading a Zotero library",
	Long: `zotero-mcp gives an AI agent read access to a Zotero library over the
Model Context Protocol. It exposes two tools: search_zotero_library returns
normalized item metadata with full collection ancestry, and
retrieve_zotero_items_content returns note bodies and PDF text.

The library is reached through the Zotero web API, the local API of a running
Zotero desktop client, or directly from zotero.sqlite.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Logging starts at the configured level even if the rest of the
		// configuration turns out invalid.
		log = newLogger(viper.GetString("log.level"), viper.GetString("log.format"))

		s, err := secrets.Load(secrets.DefaultDir, log)
		if err != nil {
			return err
		}
		c, err := loadConfig(viper.GetViper(), s)
		if err != nil {
			return err
		}
		cfg = c
		log.WithFields(logrus.Fields{
			"mode": cfg.Library.Mode,
			"type": cfg.Library.Type,
			"id":   cfg.Library.ID,
		}).Debug("configuration loaded")
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./zotero-mcp.yaml or ~/.config/zotero-mcp/zotero-mcp.yaml)")
	pf.String("library-id", "", "Zotero user or group ID (env LIBRARY_ID)")
	pf.String("library-type", "", "library type: user or group (env LIBRARY_TYPE)")
	pf.String("mode", "", "backend: web, local, or sqlite (default local)")
	pf.String("data-dir", "", "Zotero data directory for sqlite mode")
	pf.String("log-level", "", "log level: debug, info, warn, error (default info)")
	pf.String("log-format", "", "log format: text or json (default text)")

	bindFlag("library.id", "library-id")
	bindFlag("library.type", "library-type")
	bindFlag("library.mode", "mode")
	bindFlag("library.data_dir", "data-dir")
	bindFlag("log.level", "log-level")
	bindFlag("log.format", "log-format")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("zotero-mcp")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "zotero-mcp"))
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	viper.SetEnvPrefix("ZOTERO_MCP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnv(viper.GetViper())
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the stderr logger. Unknown levels fall back to info.
func newLogger(level, format string) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logrus.NewEntry(logger).WithField("app", "zotero-mcp")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
