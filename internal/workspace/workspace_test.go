package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactFileNames(t *testing.T) {
	assert.Equal(t, "3_Bracket.stl", MeshFileName(3, "Bracket"))
	assert.Equal(t, "3_Bracket_geom.json", GeomFileName(3, "Bracket"))
	assert.Equal(t, "Workbench.cbf", DocumentFileName("Workbench"))
}

func TestResolve(t *testing.T) {
	t.Run("prefers APPDATA", func(t *testing.T) {
		t.Setenv("APPDATA", "/roaming")
		t.Setenv("XDG_DATA_HOME", "/xdg")

		c, err := Resolve("MyPlugin")
		require.NoError(t, err)
		assert.Equal(t, "/roaming", c.AppDataRoot)
		assert.Equal(t, DefaultVendorFolder, c.VendorFolder)
		assert.Equal(t, "MyPlugin", c.PluginName)
	})

	t.Run("falls back to XDG_DATA_HOME", func(t *testing.T) {
		t.Setenv("APPDATA", "")
		t.Setenv("XDG_DATA_HOME", "/xdg")

		c, err := Resolve("MyPlugin")
		require.NoError(t, err)
		assert.Equal(t, "/xdg", c.AppDataRoot)
	})

	t.Run("falls back to the home directory", func(t *testing.T) {
		t.Setenv("APPDATA", "")
		t.Setenv("XDG_DATA_HOME", "")

		c, err := Resolve("MyPlugin")
		require.NoError(t, err)
		assert.NotEmpty(t, c.AppDataRoot)
	})
}

func TestDirAndStaticPath(t *testing.T) {
	c := Config{AppDataRoot: "/root", VendorFolder: "Femsolve Kft", PluginName: "MyPlugin"}

	assert.Equal(t, filepath.Join("/root", "Femsolve Kft", "MyPlugin"), c.Dir())
	// Static paths are viewer-facing URL paths, always forward-slashed.
	assert.Equal(t, "MyPlugin/3_Bracket.stl", c.StaticPath("3_Bracket.stl"))
}

func TestWithPlugin(t *testing.T) {
	c := Config{AppDataRoot: "/root", VendorFolder: "v", PluginName: "old"}
	repathed := c.WithPlugin("new")

	assert.Equal(t, "new", repathed.PluginName)
	assert.Equal(t, "old", c.PluginName, "original config must be unchanged")
	assert.Equal(t, c.AppDataRoot, repathed.AppDataRoot)
}

func TestEnsure(t *testing.T) {
	c := Config{AppDataRoot: t.TempDir(), VendorFolder: "Femsolve Kft", PluginName: "MyPlugin"}

	require.NoError(t, c.Ensure())

	info, err := os.Stat(c.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Ensure is idempotent.
	assert.NoError(t, c.Ensure())
}

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.toml")

	want := Settings{Host: "127.0.0.1", Port: 9321, Plugin: "StressCheck", Document: "Chassis"}
	require.NoError(t, SaveSettings(path, want))

	got, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	got, err := LoadSettings(filepath.Join(t.TempDir(), "absent.toml"))

	assert.Error(t, err)
	assert.Equal(t, DefaultSettings(), got, "defaults must come back on load failure")
}
