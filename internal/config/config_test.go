package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRememberMeMissingFileReturnsDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GameUserSettings.ini")
	rm, err := LoadRememberMe(path)
	require.NoError(t, err)
	assert.False(t, rm.Enabled)
}

func TestSaveAndLoadRememberMeRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GameUserSettings.ini")

	require.NoError(t, SaveRememberMe(path, RememberMe{Enabled: true, Data: "refresh-token-value"}))

	rm, err := LoadRememberMe(path)
	require.NoError(t, err)
	assert.True(t, rm.Enabled)
	assert.Equal(t, "refresh-token-value", rm.Data)
}

func TestSaveRememberMePreservesOtherSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GameUserSettings.ini")
	require.NoError(t, os.WriteFile(path, []byte("[Other]\nKey=Value\n"), 0o644))

	require.NoError(t, SaveRememberMe(path, RememberMe{Enabled: false}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Other]")
	assert.Contains(t, string(data), "Key")
}

func TestDefaultAppValues(t *testing.T) {
	app := DefaultApp()
	assert.Equal(t, 10, app.Workers)
	assert.Equal(t, 3, app.FileRetries)
}

func TestLoadAppOverridesDefaultsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splash.toml")
	require.NoError(t, os.WriteFile(path, []byte("workers = 4\nobject_store_bucket = \"Custom\"\n"), 0o644))

	app, err := LoadApp(path)
	require.NoError(t, err)
	assert.Equal(t, 4, app.Workers)
	assert.Equal(t, "Custom", app.ObjectStoreBucket)
	assert.Equal(t, 3, app.FileRetries) // untouched default
}
