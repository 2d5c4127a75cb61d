package instance

import (
	"os"
	"path/filepath"
)

// StoreDBPath returns the app-owned zapgate.db path. The store is shared
// across instances and scoped by instance id columns.
func StoreDBPath(dataDir string) string {
	return filepath.Join(dataDir, "zapgate.db")
}

// SessionDBPath returns the whatsmeow session.db path for an instance.
func SessionDBPath(dataDir, name string) string {
	return filepath.Join(dataDir, "sessions", name, "session.db")
}

// SessionDir returns the session directory for an instance.
func SessionDir(dataDir, name string) string {
	return filepath.Join(dataDir, "sessions", name)
}

// LogPath returns the daemon log file path.
func LogPath(dataDir string) string {
	return filepath.Join(dataDir, "logs", "zapgated.log")
}

// EnsureDirs creates the data directory tree with proper permissions.
func EnsureDirs(dataDir, name string) error {
	dirs := []string{
		dataDir,
		SessionDir(dataDir, name),
		filepath.Join(dataDir, "logs"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
