package generator

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/templater-labs/templater/internal/substitution"
)

const gitDir = ".git"

// pathSet matches registered entries by base name or slash-separated path
// relative to the solution root.
type pathSet map[string]bool

func newPathSet(entries []string) pathSet {
	s := make(pathSet, len(entries))
	for _, e := range entries {
		e = path.Clean(filepath.ToSlash(e))
		if e != "." && e != "" {
			s[e] = true
		}
	}
	return s
}

func (s pathSet) matches(name, rel string) bool {
	return s[name] || s[rel]
}

type walker struct {
	table      *substitution.Table
	renameOnly pathSet
	logger     *slog.Logger
}

// walk substitutes names and contents under dir. rel and newRel are the
// slash paths of dir relative to the root before and after substitution.
func (w *walker) walk(dir, rel, newRel string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		name := e.Name()
		if name == gitDir {
			continue
		}
		newName := w.table.Apply(name)
		entryRel := path.Join(rel, name)
		entryNewRel := path.Join(newRel, newName)
		registered := w.renameOnly.matches(name, entryRel) || w.renameOnly.matches(newName, entryNewRel)

		oldPath := filepath.Join(dir, name)
		newPath := filepath.Join(dir, newName)

		if e.IsDir() {
			next := oldPath
			nextRel := entryRel
			if !registered && newName != name {
				if err := os.Rename(oldPath, newPath); err != nil {
					return fmt.Errorf("renaming directory %s: %w", oldPath, err)
				}
				next = newPath
				nextRel = entryNewRel
			}
			if err := w.walk(next, entryRel, nextRel); err != nil {
				return err
			}
			continue
		}

		if newName != name {
			if err := os.Remove(newPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("replacing %s: %w", newPath, err)
			}
			if err := os.Rename(oldPath, newPath); err != nil {
				return fmt.Errorf("renaming %s: %w", oldPath, err)
			}
		}
		if registered {
			w.logger.Debug("rename-only entry, contents kept", "path", entryNewRel)
			continue
		}
		if err := w.rewrite(newPath); err != nil {
			return err
		}
	}
	return nil
}

// rewrite substitutes the contents of a file. Files holding NUL bytes are
// treated as binary and left alone.
func (w *walker) rewrite(p string) error {
	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("reading %s: %w", p, err)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		w.logger.Debug("binary file, contents kept", "path", p)
		return nil
	}
	out := w.table.Apply(string(data))
	if out == string(data) {
		return nil
	}
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", p, err)
	}
	if err := os.WriteFile(p, []byte(out), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	return nil
}
