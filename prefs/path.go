package prefs

import (
	"os"
	"path/filepath"

	"github.com/scanlime-collective/roboodyssey/rerrors"
)

// configDirName is the directory created under the user's config
// directory for every file this package resolves.
const configDirName = "roboodyssey"

// JoinPath resolves path segments relative to the user's per-user
// config directory, creating the roboodyssey subdirectory (and any
// further path segments but the last) if it doesn't exist yet.
func JoinPath(path ...string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", rerrors.Errorf("prefs: resolving config directory: %w", err)
	}

	full := append([]string{dir, configDirName}, path...)
	joined := filepath.Join(full...)

	if err := os.MkdirAll(filepath.Dir(joined), 0o755); err != nil {
		return "", rerrors.Errorf("prefs: creating config directory: %w", err)
	}
	return joined, nil
}
