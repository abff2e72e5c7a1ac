package platform

import (
	"fmt"
	"os"
	"runtime"
)

// Owner-only modes for files holding credentials and the directories
// containing them.
const (
	SecretFileMode os.FileMode = 0600
	SecretDirMode  os.FileMode = 0700
)

// Restrict makes path readable by its owner only, using SecretDirMode for
// directories and SecretFileMode otherwise. Windows has no Unix permission
// bits, so only the existence check applies there.
func Restrict(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("restricting %s: %w", path, err)
	}
	if runtime.GOOS == "windows" {
		return nil
	}
	mode := SecretFileMode
	if info.IsDir() {
		mode = SecretDirMode
	}
	if info.Mode().Perm() == mode {
		return nil
	}
	return os.Chmod(path, mode)
}
