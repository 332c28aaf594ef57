// Package file implements the profile stores on the local filesystem:
// one JSON file per wallet, a manifest file and a JSON-lines log.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Layout under the output directory.
const (
	CacheDirName    = "cache"
	ManifestName    = "checkpoint_manifest.json"
	ProfileLogName  = "wallet_profiles.jsonl"
	filePermissions = 0o644
	dirPermissions  = 0o755
)

// writeJSONAtomic writes v to path via a temp file and rename so readers
// never observe a partial file.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, filePermissions); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
