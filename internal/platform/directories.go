package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Directories holds the per-user locations the application writes to
type Directories struct {
	// Config is where configuration and input history live
	Config string
	// Data is where logs and session transcripts live
	Data string
}

// GetDirectories returns the appropriate directories for the current
// platform and makes sure they exist
func GetDirectories(appName string) (*Directories, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	dirs := resolve(runtime.GOOS, homeDir, appName, os.Getenv)

	for _, dir := range []string{dirs.Config, dirs.Data} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &dirs, nil
}

func resolve(goos, homeDir, appName string, getenv func(string) string) Directories {
	switch goos {
	case "darwin":
		dir := filepath.Join(homeDir, "Library", "Application Support", appName)
		return Directories{Config: dir, Data: dir}

	case "windows":
		appData := getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		dir := filepath.Join(appData, appName)
		return Directories{Config: dir, Data: dir}

	default:
		// XDG base directories
		configHome := getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(homeDir, ".config")
		}
		dataHome := getenv("XDG_DATA_HOME")
		if dataHome == "" {
			dataHome = filepath.Join(homeDir, ".local", "share")
		}
		return Directories{
			Config: filepath.Join(configHome, appName),
			Data:   filepath.Join(dataHome, appName),
		}
	}
}

// SessionsDir is where recorded sessions are stored by default
func (d *Directories) SessionsDir() string {
	return filepath.Join(d.Data, "sessions")
}

// HistoryFile is the readline history location
func (d *Directories) HistoryFile() string {
	return filepath.Join(d.Config, "history")
}
