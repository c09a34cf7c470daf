package util

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}

	return err == nil && !info.IsDir()
}

// EnsureDirExists creates the given directory path if it doesn't already exist
func EnsureDirExists(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("ensure directory exists (%s): %w", path, err)
	}

	return nil
}

// SetupCloseHandler creates a 'listener' on a new goroutine which will notify the
// program if it receives an interrupt from the OS
func SetupCloseHandler() chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	return c
}

// StateDir returns the per-user state directory for app, following the XDG base
// directory layout. It falls back to the working directory.
func StateDir(app string) string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"), app)
}

// ConfigDir returns the per-user config directory for app.
func ConfigDir(app string) string {
	return xdgDir("XDG_CONFIG_HOME", ".config", app)
}

func xdgDir(envVar, homeRelative, app string) string {
	if base := os.Getenv(envVar); filepath.IsAbs(base) {
		return filepath.Join(base, app)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, homeRelative, app)
}
