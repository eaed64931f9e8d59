// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file holds one secret: the filename is the key name and the trimmed
// file contents are the value.
//
// Supported key files: zotero-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultDir is where the CLI looks for secrets.
const DefaultDir = ".secrets/"

// ZoteroAPIKey names the file holding the Zotero Web API key.
const ZoteroAPIKey = "zotero-api-key"

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, log *logrus.Entry) (map[string]string, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.WithError(err).WithField("secret", name).Warn("could not read secret")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	if len(secrets) > 0 {
		log.WithField("keys", Names(secrets)).Debug("loaded secrets")
	}
	return secrets, nil
}

// Names returns the secret names in sorted order, never the values.
func Names(secrets map[string]string) []string {
	names := make([]string, 0, len(secrets))
	for k := range secrets {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
