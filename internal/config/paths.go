package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/templater-labs/templater/internal/branding"
)

// Paths are the on-disk locations derived from the core directory.
type Paths struct {
	CoreDir            string
	SettingsFile       string
	TemplatesDir       string
	CatalogFile        string
	SolutionConfigFile string
	BackupDir          string
}

// NewPaths lays out every location under coreDir.
func NewPaths(coreDir string) Paths {
	return Paths{
		CoreDir:            coreDir,
		SettingsFile:       filepath.Join(coreDir, fileName+"."+fileType),
		TemplatesDir:       filepath.Join(coreDir, "templates"),
		CatalogFile:        filepath.Join(coreDir, "template_cache.json"),
		SolutionConfigFile: filepath.Join(coreDir, "solution_config.json"),
		BackupDir:          filepath.Join(coreDir, "solution_config_backups"),
	}
}

// Dir returns the core directory: $TEMPLATER_HOME when set, otherwise
// ~/.templater.
func Dir() string {
	if dir := os.Getenv(branding.EnvVar("HOME")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// DefaultPaths returns the layout under Dir.
func DefaultPaths() Paths {
	return NewPaths(Dir())
}

// EnsureDirs creates the core, templates and backup directories.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.CoreDir, p.TemplatesDir, p.BackupDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}
