// Package config loads ledger settings from flags, LEDGER_ environment variables and
// an optional YAML file.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appName = "ledger"

// ExpandPath resolves a leading ~ and $VAR references in a configured path.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~" || strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = home + strings.TrimPrefix(path, "~")
		}
	}
	return os.ExpandEnv(path)
}

// ConfigDir is where config.yaml is looked up: $XDG_CONFIG_HOME/ledger, falling back
// to ~/.config/ledger.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir holds the database: $XDG_DATA_HOME/ledger, falling back to
// ~/.local/share/ledger.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// DefaultDatabasePath is the database used when database.path is unset.
func DefaultDatabasePath() string {
	return filepath.Join(DataDir(), appName+".db")
}

func xdgDir(env, fallback string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName)
	}
	return filepath.Join(ExpandPath("~"), fallback, appName)
}
