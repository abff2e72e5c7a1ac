package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templater-labs/templater/internal/errs"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
	assert.Equal(t, int64(86400), s.SecondsBetweenTemplateUpdateChecks)
	assert.Equal(t, []string{"https://github.com/vonderborch/Templater-Templates"}, s.TemplateRepositories)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core", "settings.yaml")
	in := &Settings{
		GitWebPath:                         "https://git.example.com/",
		GitAPIURL:                          "https://git.example.com/api/v3",
		GitAccessToken:                     "ghp_secret1234",
		TemplateRepositories:               []string{"https://git.example.com/a/b", "https://git.example.com/c/d"},
		LastTemplatesUpdateCheck:           1700000000,
		SecondsBetweenTemplateUpdateChecks: 3600,
		SettingsVersion:                    "1.0",
	}
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, Save(path, Default()))

	t.Setenv("TEMPLATER_GIT_ACCESS_TOKEN", "from-env")
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", s.GitAccessToken)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("git_web_path: [unterminated"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
}

func TestLoadUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := Default()
	s.SettingsVersion = "2.0"
	require.NoError(t, Save(path, s))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindConfiguration))
	assert.Contains(t, err.Error(), "not supported")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Settings)
		expectErr bool
	}{
		{"defaults", func(*Settings) {}, false},
		{"relative web path", func(s *Settings) { s.GitWebPath = "github.com" }, true},
		{"ftp web path", func(s *Settings) { s.GitWebPath = "ftp://github.com/" }, true},
		{"bad api url", func(s *Settings) { s.GitAPIURL = "::" }, true},
		{"negative interval", func(s *Settings) { s.SecondsBetweenTemplateUpdateChecks = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			err := s.Validate()
			if tt.expectErr {
				require.Error(t, err)
				assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUniqueRepositories(t *testing.T) {
	s := &Settings{TemplateRepositories: []string{"a/b", " ", "c/d", "a/b", " c/d "}}
	assert.Equal(t, []string{"a/b", "c/d"}, s.UniqueRepositories())
}

func TestUpdateDue(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	s := &Settings{LastTemplatesUpdateCheck: now.Unix() - 100, SecondsBetweenTemplateUpdateChecks: 100}
	assert.True(t, s.UpdateDue(now))

	s.LastTemplatesUpdateCheck = now.Unix() - 99
	assert.False(t, s.UpdateDue(now))

	s.SecondsBetweenTemplateUpdateChecks = 0
	assert.False(t, s.UpdateDue(now.Add(time.Hour)))

	s.SecondsBetweenTemplateUpdateChecks = 10
	s.MarkUpdated(now)
	assert.False(t, s.UpdateDue(now))
	assert.True(t, s.UpdateDue(now.Add(10*time.Second)))
}

func TestMaskedToken(t *testing.T) {
	assert.Equal(t, "", (&Settings{}).MaskedToken())
	assert.Equal(t, "***", (&Settings{GitAccessToken: "abc"}).MaskedToken())
	assert.Equal(t, "******7890", (&Settings{GitAccessToken: "1234567890"}).MaskedToken())
}

func TestPaths(t *testing.T) {
	t.Setenv("TEMPLATER_HOME", filepath.Join(t.TempDir(), "home"))
	p := DefaultPaths()
	assert.Equal(t, os.Getenv("TEMPLATER_HOME"), p.CoreDir)
	assert.Equal(t, filepath.Join(p.CoreDir, "settings.yaml"), p.SettingsFile)
	assert.Equal(t, filepath.Join(p.CoreDir, "template_cache.json"), p.CatalogFile)

	require.NoError(t, p.EnsureDirs())
	for _, dir := range []string{p.CoreDir, p.TemplatesDir, p.BackupDir} {
		assert.DirExists(t, dir)
	}
}
