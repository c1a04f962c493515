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
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ScienceONAuthKey, "  abcdef0123456789abcdef0123456789  \n")
				writeFile(t, dir, ScienceONClientID, "client42")
				writeFile(t, dir, GeminiAPIKey, "gm_key\n")
				return dir
			},
			want: map[string]string{
				ScienceONAuthKey:  "abcdef0123456789abcdef0123456789",
				ScienceONClientID: "client42",
				GeminiAPIKey:      "gm_key",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files and dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, GeminiAPIKey, "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, ".hidden", "ignored")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				GeminiAPIKey: "valid-key",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ScienceONMACAddress, "00:11:22:33:44:55")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
				return dir
			},
			want: map[string]string{
				ScienceONMACAddress: "00:11:22:33:44:55",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequire(t *testing.T) {
	s := map[string]string{
		ScienceONAuthKey:  "k",
		ScienceONClientID: "c",
	}

	assert.NoError(t, Require(s, ScienceONAuthKey, ScienceONClientID))

	err := Require(s, ScienceONAuthKey, GeminiAPIKey, ScienceONMACAddress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), GeminiAPIKey)
	assert.Contains(t, err.Error(), ScienceONMACAddress)
	assert.NotContains(t, err.Error(), ScienceONAuthKey)
}

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o600))
}
