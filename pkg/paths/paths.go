// Package paths locates per-user hostrecon files.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigFileName is the file looked up in ConfigDir when --config is not given.
const ConfigFileName = "config.yaml"

// ConfigDir returns the config directory for hostrecon.
// Order: XDG_CONFIG_HOME/hostrecon, platform-specific fallback. It returns ""
// when no home directory can be resolved.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hostrecon")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "hostrecon")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "hostrecon")
}

// ConfigFile returns the default configuration file path, or "" when there is
// no config directory. The file may not exist.
func ConfigFile() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, ConfigFileName)
}
