package platform

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/templater-labs/templater/internal/errs"
)

const (
	// DefaultRemoveAttempts is the retry budget of NewRemover.
	DefaultRemoveAttempts = 10
	// DefaultRemoveDelay is the fixed pause between removal attempts.
	DefaultRemoveDelay = 500 * time.Millisecond
)

// alwaysExcluded are never copied into a working tree.
var alwaysExcluded = map[string]bool{
	".git":      true,
	".DS_Store": true,
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// CopyDir recursively copies src to dst. Entries named in excluded are
// skipped; an exclusion matches either an entry's base name or its
// slash-separated path relative to src. Symlinks are skipped.
func CopyDir(src, dst string, excluded []string) error {
	skip := make(map[string]bool, len(excluded))
	for _, e := range excluded {
		e = strings.Trim(filepath.ToSlash(strings.TrimSpace(e)), "/")
		if e != "" {
			skip[e] = true
		}
	}
	return copyDir(src, dst, "", skip)
}

func copyDir(src, dst, rel string, skip map[string]bool) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()|0o700); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		relPath := name
		if rel != "" {
			relPath = rel + "/" + name
		}
		if alwaysExcluded[name] || skip[name] || skip[relPath] {
			continue
		}

		srcPath := filepath.Join(src, name)
		dstPath := filepath.Join(dst, name)

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath, relPath, skip); err != nil {
				return err
			}
		} else if entry.Type().IsRegular() {
			if err := CopyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// CopyFile copies a single file from src to dst, preserving permissions.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// MoveFile moves src to dst, replacing dst if it exists. When a rename is
// not possible (e.g., across filesystems) the file is copied and the source
// removed.
func MoveFile(src, dst string) error {
	if src == dst {
		return nil
	}
	if Exists(dst) {
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("removing existing %s: %w", dst, err)
		}
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := CopyFile(src, dst); err != nil {
		return fmt.Errorf("moving %s to %s: %w", src, dst, err)
	}
	return os.Remove(src)
}

// Remover deletes directory trees, retrying while the tree is locked.
type Remover struct {
	Attempts int
	Delay    time.Duration

	// removeAll and sleep are swapped out by tests.
	removeAll func(string) error
	sleep     func(time.Duration)
}

// NewRemover returns a Remover with the default budget.
func NewRemover() *Remover {
	return &Remover{
		Attempts:  DefaultRemoveAttempts,
		Delay:     DefaultRemoveDelay,
		removeAll: os.RemoveAll,
		sleep:     time.Sleep,
	}
}

// RemoveAll removes path and everything below it. A missing path is not an
// error. Each failed attempt is followed by a fixed pause; once the budget is
// spent a TransientIO error wrapping the last failure is returned.
func (r *Remover) RemoveAll(path string) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	removeAll := r.removeAll
	if removeAll == nil {
		removeAll = os.RemoveAll
	}
	sleep := r.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = removeAll(path)
		if lastErr == nil || errors.Is(lastErr, fs.ErrNotExist) {
			return nil
		}
		if i < attempts-1 {
			sleep(r.Delay)
		}
	}
	return errs.TransientIO("remove", fmt.Sprintf("directory still locked after %d attempts", attempts), lastErr).WithPath(path)
}

// CountTree returns the number of regular files and directories below root,
// root itself included when it is a directory.
func CountTree(root string) (files, dirs int, err error) {
	err = filepath.WalkDir(root, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			dirs++
		} else {
			files++
		}
		return nil
	})
	return files, dirs, err
}
