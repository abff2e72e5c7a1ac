package solution

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/templater-labs/templater/internal/platform"
)

const backupStamp = "20060102150405"

// BackupName returns the backup file name for solutionName at now.
func BackupName(solutionName string, now time.Time) string {
	return strings.ReplaceAll(solutionName, " ", "-") + "_" + now.Format(backupStamp)
}

// Backup moves the configuration file into backupDir under a timestamped
// name, appending _N until the name is free, and returns the new path.
func Backup(configPath, backupDir, solutionName string, now time.Time) (string, error) {
	if !platform.Exists(configPath) {
		return "", fmt.Errorf("configuration file %s does not exist", configPath)
	}
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	base := BackupName(solutionName, now)
	dest := filepath.Join(backupDir, base+".json")
	for i := 1; platform.Exists(dest); i++ {
		dest = filepath.Join(backupDir, fmt.Sprintf("%s_%d.json", base, i))
	}

	if err := platform.MoveFile(configPath, dest); err != nil {
		return "", fmt.Errorf("backing up configuration: %w", err)
	}
	return dest, nil
}
