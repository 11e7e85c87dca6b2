// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: anthropic-api-key, openai-api-key, google-credentials
// (a path to a service-account JSON file).
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Key names understood by the CLI, with the environment variable that
// overrides each one.
const (
	AnthropicAPIKey   = "anthropic-api-key"
	OpenAIAPIKey      = "openai-api-key"
	GoogleCredentials = "google-credentials"
)

var envOverrides = map[string]string{
	AnthropicAPIKey:   "ANTHROPIC_API_KEY",
	OpenAIAPIKey:      "OPENAI_API_KEY",
	GoogleCredentials: "GOOGLE_APPLICATION_CREDENTIALS",
}

// Set is a loaded collection of secrets keyed by file name.
type Set map[string]string

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty set.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Set)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Lookup returns the value for key. An explicit value wins, then the
// key's environment variable, then the file loaded from the secrets directory.
func (s Set) Lookup(key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env, ok := envOverrides[key]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	return s[key]
}

// Keys returns the loaded key names, sorted, without their values.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
