package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/templater-labs/templater/internal/branding"
	"github.com/templater-labs/templater/internal/config"
	"github.com/templater-labs/templater/internal/engine"
	"github.com/templater-labs/templater/internal/logging"
	"github.com/templater-labs/templater/internal/platform"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	logVerbose bool
	logFormat  string

	// app is built once per invocation by the root pre-run hook.
	app *engine.Engine

	// engineOptions are appended to the engine defaults; tests use them to
	// swap in fake collaborators.
	engineOptions []engine.Option

	now = time.Now
)

// Commands that never need settings or the template cache.
var standalone = map[string]bool{
	"version":      true,
	"report-issue": true,
	"help":         true,
	"completion":   true,
}

// Commands that must not trigger an automatic template update.
var noAutoUpdate = map[string]bool{
	"configure":        true,
	"update-templates": true,
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` packages an existing source tree into a reusable template archive,
keeps a local cache of templates published in remote repositories, and generates
new solutions from those templates.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&logVerbose, "verbose", "v", false, "Log every pipeline step")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	cfg := logging.DefaultConfig()
	cfg.Format = logFormat
	cfg.Output = cmd.ErrOrStderr()
	if logVerbose {
		cfg.Level = slog.LevelDebug
	}
	return logging.New(cfg)
}

// setup loads settings, creating them on first run, builds the engine and
// runs an automatic template update when one is due.
func setup(cmd *cobra.Command, args []string) error {
	name := cmd.Name()
	if standalone[name] {
		return nil
	}

	paths := config.DefaultPaths()
	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	settings, err := config.Load(paths.SettingsFile)
	if err != nil {
		return err
	}

	if !platform.Exists(paths.SettingsFile) && name != "configure" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Creating settings file...")
		if settings, err = configureSettings(newPrompter(), settings); err != nil {
			return err
		}
		if err := config.Save(paths.SettingsFile, settings); err != nil {
			return err
		}
	}

	logger := newLogger(cmd)
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithOutput(cmd.OutOrStdout()),
		engine.WithClock(now),
	}
	app = engine.New(settings, paths, append(opts, engineOptions...)...)

	if noAutoUpdate[name] || !app.UpdateDue(now()) {
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Checking for template updates...")
	res, err := app.UpdateTemplates(cmd.Context(), false)
	if err != nil {
		// A stale cache is still usable; the command carries on.
		logger.Warn("automatic template update failed", "error", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: template update failed: %v\n", err)
		return nil
	}
	printSyncSummary(cmd.ErrOrStderr(), res)
	return nil
}
