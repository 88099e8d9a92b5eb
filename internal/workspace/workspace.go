// Package workspace resolves and names the per-plugin working directory that
// the bridge exports artifacts into and the viewer reads out-of-band.
package workspace

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// DefaultVendorFolder is the vendor segment of the working directory.
const DefaultVendorFolder = "Femsolve Kft"

// Config locates the session's working directory. It is resolved once at
// startup and injected wherever paths are built; no path logic branches on
// the platform anywhere else.
type Config struct {
	AppDataRoot  string
	VendorFolder string
	PluginName   string
}

// Resolve builds a Config for the given plugin name. The application-data
// root comes from APPDATA (Windows), then XDG_DATA_HOME, then the user's
// home directory. An unresolvable root is an error the caller degrades on;
// it must never crash the host.
func Resolve(pluginName string) (Config, error) {
	root := os.Getenv("APPDATA")
	if root == "" {
		root = os.Getenv("XDG_DATA_HOME")
	}
	if root == "" {
		home, err := homedir.Dir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve app data root: %w", err)
		}
		root = filepath.Join(home, ".local", "share")
	}
	return Config{
		AppDataRoot:  root,
		VendorFolder: DefaultVendorFolder,
		PluginName:   pluginName,
	}, nil
}

// WithPlugin returns a copy of the config pointed at a different plugin
// folder under the same root.
func (c Config) WithPlugin(pluginName string) Config {
	c.PluginName = pluginName
	return c
}

// Dir is the session's working directory: {root}/{vendor}/{plugin}.
func (c Config) Dir() string {
	return filepath.Join(c.AppDataRoot, c.VendorFolder, c.PluginName)
}

// Ensure creates the working directory if it does not exist.
func (c Config) Ensure() error {
	if err := os.MkdirAll(c.Dir(), 0o755); err != nil {
		return fmt.Errorf("create working directory %s: %w", c.Dir(), err)
	}
	return nil
}

// MeshFileName is the mesh artifact name for one published entity:
// {ordinal}_{name}.stl.
func MeshFileName(ordinal int, name string) string {
	return fmt.Sprintf("%d_%s.stl", ordinal, name)
}

// GeomFileName is the metadata artifact name for one published entity:
// {ordinal}_{name}_geom.json.
func GeomFileName(ordinal int, name string) string {
	return fmt.Sprintf("%d_%s_geom.json", ordinal, name)
}

// DocumentFileName is the serialized document name: {document}.cbf.
func DocumentFileName(documentName string) string {
	return documentName + ".cbf"
}

// StaticPath is the viewer-facing path of an artifact under the plugin's
// static folder. It is a URL path, so it always uses forward slashes.
func (c Config) StaticPath(fileName string) string {
	return path.Join(c.PluginName, fileName)
}

// Settings are the CLI-facing bridge settings, stored as TOML.
type Settings struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Plugin   string `toml:"plugin"`
	Document string `toml:"document"`
}

// DefaultSettings returns settings for a viewer on the default loopback port.
func DefaultSettings() Settings {
	return Settings{
		Host:     "127.0.0.1",
		Port:     8090,
		Plugin:   "FCSProject",
		Document: "Workbench",
	}
}

// LoadSettings reads settings from a TOML file, filling unset fields from
// the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// SaveSettings writes settings to a TOML file.
func SaveSettings(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}
