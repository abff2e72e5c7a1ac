package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/templater-labs/templater/internal/errs"
)

// Runner runs one command line in dir.
type Runner interface {
	Run(ctx context.Context, dir, command string) error
}

// UnsupportedPlatformError is returned by runners on platforms with no
// shell backend.
type UnsupportedPlatformError struct {
	GOOS string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("running commands is not supported on %s", e.GOOS)
}

// Shell runs commands through a command interpreter.
type Shell struct {
	// Program and Args prefix every command, e.g. /bin/sh -c.
	Program string
	Args    []string
	// Stdout and Stderr receive live output in addition to the capture kept
	// for error messages. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes command and returns a command execution error carrying the
// captured output when it fails or exits non-zero.
func (s *Shell) Run(ctx context.Context, dir, command string) error {
	args := append(append([]string(nil), s.Args...), command)
	cmd := exec.CommandContext(ctx, s.Program, args...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = writers(&out, s.Stdout)
	cmd.Stderr = writers(&out, s.Stderr)

	if err := cmd.Run(); err != nil {
		msg := fmt.Sprintf("command %q failed", command)
		if trimmed := strings.TrimSpace(out.String()); trimmed != "" {
			msg += ": " + trimmed
		}
		return errs.CommandExecution("run command", msg, err).WithPath(dir)
	}
	return nil
}

func writers(capture *bytes.Buffer, live io.Writer) io.Writer {
	if live == nil {
		return capture
	}
	return io.MultiWriter(capture, live)
}

type unsupported struct {
	goos string
}

func (u *unsupported) Run(context.Context, string, string) error {
	return errs.CommandExecution("run command", "no command backend", &UnsupportedPlatformError{GOOS: u.goos})
}

// ForOS returns the backend for goos.
func ForOS(goos string) Runner {
	switch goos {
	case "windows":
		return &Shell{Program: "cmd", Args: []string{"/C"}}
	case "linux", "darwin", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos", "aix":
		return &Shell{Program: "/bin/sh", Args: []string{"-c"}}
	default:
		return &unsupported{goos: goos}
	}
}

// Default returns the backend for the running platform.
func Default() Runner {
	return ForOS(runtime.GOOS)
}
