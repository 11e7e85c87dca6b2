// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Set
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AnthropicAPIKey, "  sk-ant-123  \n")
				writeFile(t, dir, OpenAIAPIKey, "sk-openai")
				writeFile(t, dir, GoogleCredentials, "/etc/sa.json\n")
				return dir
			},
			want: Set{
				AnthropicAPIKey:   "sk-ant-123",
				OpenAIAPIKey:      "sk-openai",
				GoogleCredentials: "/etc/sa.json",
			},
		},
		{
			name: "returns empty set for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Set{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AnthropicAPIKey, "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: Set{AnthropicAPIKey: "valid-key"},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, OpenAIAPIKey, "sk_real")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: Set{OpenAIAPIKey: "sk_real"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup(t *testing.T) {
	s := Set{AnthropicAPIKey: "from-file", "custom": "custom-file"}

	t.Setenv("ANTHROPIC_API_KEY", "")
	assert.Equal(t, "explicit", s.Lookup(AnthropicAPIKey, "explicit"))
	assert.Equal(t, "from-file", s.Lookup(AnthropicAPIKey, ""))

	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	assert.Equal(t, "from-env", s.Lookup(AnthropicAPIKey, ""))
	assert.Equal(t, "explicit", s.Lookup(AnthropicAPIKey, "explicit"))

	assert.Equal(t, "custom-file", s.Lookup("custom", ""))
	assert.Equal(t, "", s.Lookup("missing", ""))
}

func TestKeys(t *testing.T) {
	keys := Set{OpenAIAPIKey: "a", GoogleCredentials: "c", AnthropicAPIKey: "b"}.Keys()
	assert.Equal(t, []string{AnthropicAPIKey, GoogleCredentials, OpenAIAPIKey}, keys)
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
