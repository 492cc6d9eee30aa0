// Package scanner walks a workspace, checksums supported source files, and
// classifies them against the state recorded in the graph store.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Status classifies one file relative to the stored state.
type Status string

const (
	StatusNew       Status = "new"
	StatusModified  Status = "modified"
	StatusUnchanged Status = "unchanged"
	StatusDeleted   Status = "deleted"
)

// FileChange describes one workspace file and how it differs from the store.
type FileChange struct {
	Path         string
	AbsolutePath string
	Status       Status
	OldChecksum  string
	NewChecksum  string
	Size         int64
	Extension    string
	Language     string
}

// ChecksumSource yields the {relative path → checksum} map recorded on File
// nodes. Implemented by the graph store.
type ChecksumSource interface {
	StoredChecksums(ctx context.Context) (map[string]string, error)
}

// SupportedExtensions maps file extensions to the parser language that
// handles them.
var SupportedExtensions = map[string]string{
	".py":  "python",
	".cs":  "csharp",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
	".ts":  "typescript",
	".tsx": "typescript",
	".go":  "go",
}

// ignoreDirs are directory names skipped during the walk.
var ignoreDirs = map[string]struct{}{
	"__pycache__": {}, ".git": {}, ".svn": {}, ".hg": {}, "node_modules": {},
	"bin": {}, "obj": {}, ".vs": {}, ".vscode": {}, "build": {}, "dist": {},
	"target": {}, ".idea": {}, ".pytest_cache": {},
}

// dotAllowlist holds the only dot-prefixed names that are not ignored.
var dotAllowlist = map[string]struct{}{
	".gitignore": {},
	".env":       {},
}

const checksumChunkSize = 8 * 1024

// Scanner detects file changes for a workspace root.
type Scanner struct {
	checksums ChecksumSource
	logger    *slog.Logger

	// ExtraIgnoreDirs supplements the built-in ignore set, typically from
	// the workspace's .code-atlas.yml.
	ExtraIgnoreDirs []string
}

// New creates a Scanner backed by the given stored-checksum source.
func New(checksums ChecksumSource, logger *slog.Logger) *Scanner {
	return &Scanner{
		checksums: checksums,
		logger:    logger,
	}
}

// DetectChanges walks root and classifies every supported file as new,
// modified, unchanged, or deleted relative to the stored checksums.
// Unreadable entries are logged and skipped; a checksum failure drops that
// file from the change set without poisoning the rest of the walk.
func (s *Scanner) DetectChanges(ctx context.Context, root string) ([]FileChange, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", root)
	}

	stored, err := s.checksums.StoredChecksums(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored checksums: %w", err)
	}

	files, err := s.scan(root)
	if err != nil {
		return nil, err
	}

	changes := make([]FileChange, 0, len(files))
	seen := make(map[string]struct{}, len(files))

	for _, abs := range files {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			s.logger.Warn("cannot relativize path, skipping", "path", abs, "error", err)
			continue
		}
		rel = filepath.ToSlash(rel)

		stat, err := os.Stat(abs)
		if err != nil {
			s.logger.Warn("cannot stat file, skipping", "path", rel, "error", err)
			continue
		}

		sum, err := ChecksumFile(abs)
		if err != nil {
			s.logger.Warn("checksum failed, excluding file from change set", "path", rel, "error", err)
			continue
		}

		seen[rel] = struct{}{}
		ext := strings.ToLower(filepath.Ext(abs))

		change := FileChange{
			Path:         rel,
			AbsolutePath: abs,
			NewChecksum:  sum,
			Size:         stat.Size(),
			Extension:    ext,
			Language:     SupportedExtensions[ext],
		}

		old, known := stored[rel]
		switch {
		case !known:
			change.Status = StatusNew
		case old != sum:
			change.Status = StatusModified
			change.OldChecksum = old
		default:
			change.Status = StatusUnchanged
			change.OldChecksum = old
		}
		changes = append(changes, change)
	}

	for path, old := range stored {
		if _, present := seen[path]; present {
			continue
		}
		changes = append(changes, FileChange{
			Path:        path,
			Status:      StatusDeleted,
			OldChecksum: old,
		})
	}

	return changes, nil
}

// ToProcess filters a change set down to the files that need re-parsing.
func ToProcess(changes []FileChange) []FileChange {
	var out []FileChange
	for _, c := range changes {
		if c.Status == StatusNew || c.Status == StatusModified {
			out = append(out, c)
		}
	}
	return out
}

// Deleted filters a change set down to removed files.
func Deleted(changes []FileChange) []FileChange {
	var out []FileChange
	for _, c := range changes {
		if c.Status == StatusDeleted {
			out = append(out, c)
		}
	}
	return out
}

// scan returns the absolute paths of all supported files under root.
func (s *Scanner) scan(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("cannot access entry, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && s.ignoreName(name) {
				return fs.SkipDir
			}
			return nil
		}
		if s.ignoreName(name) {
			return nil
		}
		if _, ok := SupportedExtensions[strings.ToLower(filepath.Ext(name))]; ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk workspace: %w", err)
	}
	s.logger.Info("workspace scan complete", "supported_files", len(files))
	return files, nil
}

func (s *Scanner) ignoreName(name string) bool {
	if _, ok := ignoreDirs[name]; ok {
		return true
	}
	for _, extra := range s.ExtraIgnoreDirs {
		if name == extra {
			return true
		}
	}
	if strings.HasPrefix(name, ".") {
		_, allowed := dotAllowlist[name]
		return !allowed
	}
	return false
}

// ChecksumFile computes the SHA-256 of a file's bytes, streaming in fixed
// 8 KiB chunks so large files never load fully into memory.
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, checksumChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
