// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/zotero-mcp/internal/secrets"
	"github.com/pdiddy/zotero-mcp/pkg/types"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ZOTERO_MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)
	setDefaults(v)
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("LIBRARY_ID", "475425")

	c, err := loadConfig(newTestViper(), nil)
	require.NoError(t, err)
	assert.Equal(t, "475425", c.Library.ID)
	assert.Equal(t, types.LibraryUser, c.Library.Type)
	assert.Equal(t, types.ModeLocal, c.Library.Mode)
	assert.Equal(t, 30*time.Second, c.Library.Timeout)
	assert.Equal(t, defaultMaxRetries, c.Library.MaxRetries)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLoadConfig_PrefixedEnvWins(t *testing.T) {
	t.Setenv("LIBRARY_ID", "1")
	t.Setenv("ZOTERO_MCP_LIBRARY_ID", "2")
	t.Setenv("LIBRARY_TYPE", "group")
	t.Setenv("ZOTERO_MCP_LIBRARY_MODE", "web")

	c, err := loadConfig(newTestViper(), nil)
	require.NoError(t, err)
	assert.Equal(t, "2", c.Library.ID)
	assert.Equal(t, types.LibraryGroup, c.Library.Type)
	assert.Equal(t, types.ModeWeb, c.Library.Mode)
}

func TestLoadConfig_APIKeySources(t *testing.T) {
	t.Setenv("LIBRARY_ID", "1")
	s := map[string]string{secrets.ZoteroAPIKey: "from-secrets"}

	c, err := loadConfig(newTestViper(), s)
	require.NoError(t, err)
	assert.Equal(t, "from-secrets", c.Library.APIKey)

	t.Setenv("ZOTERO_API_KEY", "from-env")
	c, err = loadConfig(newTestViper(), s)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Library.APIKey)
}

func TestLoadConfig_FileKeyBeatsSecrets(t *testing.T) {
	t.Setenv("ZOTERO_API_KEY", "")
	t.Setenv("ZOTERO_MCP_LIBRARY_API_KEY", "")
	path := filepath.Join(t.TempDir(), "zotero-mcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("library:\n  id: \"1\"\n  api_key: from-file\n"), 0o644))

	v := newTestViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	c, err := loadConfig(v, map[string]string{secrets.ZoteroAPIKey: "from-secrets"})
	require.NoError(t, err)
	assert.Equal(t, "from-file", c.Library.APIKey)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zotero-mcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
library:
  mode: sqlite
  data_dir: /home/me/Zotero
  timeout: 5s
log:
  format: json
`), 0o644))

	v := newTestViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	c, err := loadConfig(v, nil)
	require.NoError(t, err)
	assert.Equal(t, types.ModeSQLite, c.Library.Mode)
	assert.Equal(t, "/home/me/Zotero", c.Library.DataDir)
	assert.Equal(t, 5*time.Second, c.Library.Timeout)
	assert.Equal(t, "json", c.Log.Format)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("LIBRARY_ID", "")
	t.Setenv("ZOTERO_MCP_LIBRARY_ID", "")

	_, err := loadConfig(newTestViper(), nil)
	assert.ErrorContains(t, err, "library id is required")
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ZMCP_TEST_FRESH=from-file\nZMCP_TEST_SET=from-file\n"), 0o644))
	t.Setenv("ZMCP_TEST_SET", "from-env")
	t.Setenv("ZMCP_TEST_FRESH", "")
	os.Unsetenv("ZMCP_TEST_FRESH")

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("ZMCP_TEST_FRESH"))
	assert.Equal(t, "from-env", os.Getenv("ZMCP_TEST_SET"))
}

func TestLoadDotEnv_Missing(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), ".env")))
}
