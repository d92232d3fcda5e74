// Package storage owns the two upload directories: staging, where incoming
// bytes land, and final, where accepted files are kept and served from.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

type Paths struct {
	stagingDir string
	finalDir   string
}

// NewPaths resolves both directories to absolute paths. It does not create them.
func NewPaths(stagingDir, finalDir string) (*Paths, error) {
	staging, err := filepath.Abs(stagingDir)
	if err != nil {
		return nil, fmt.Errorf("resolving staging directory: %w", err)
	}
	final, err := filepath.Abs(finalDir)
	if err != nil {
		return nil, fmt.Errorf("resolving final directory: %w", err)
	}
	return &Paths{stagingDir: staging, finalDir: final}, nil
}

// EnsureDirectories creates both directories if they are missing.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range p.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

func (p *Paths) StagingDir() string { return p.stagingDir }

func (p *Paths) FinalDir() string { return p.finalDir }

// Dirs lists the directories covered by retention, staging first.
func (p *Paths) Dirs() []string {
	return []string{p.stagingDir, p.finalDir}
}

func (p *Paths) FinalPath(storedName string) string {
	return filepath.Join(p.finalDir, storedName)
}

// Stage writes r into a uniquely named file in the staging directory and
// returns its path and size. The partial file is removed on failure.
func (p *Paths) Stage(r io.Reader) (string, int64, error) {
	path := filepath.Join(p.stagingDir, uuid.NewString()+".tmp")

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("creating staged file: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return "", 0, fmt.Errorf("writing staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("closing staged file: %w", err)
	}

	return path, size, nil
}

// MoveToFinal renames a staged file into the final directory. Both
// directories are expected on the same filesystem so the rename is atomic.
func (p *Paths) MoveToFinal(stagedPath, storedName string) (string, error) {
	dst := p.FinalPath(storedName)
	if err := os.Rename(stagedPath, dst); err != nil {
		return "", fmt.Errorf("moving %s into storage: %w", filepath.Base(stagedPath), err)
	}
	return dst, nil
}

// StoredName builds "{id}-{originalName}" with every character outside
// [A-Za-z0-9._-] replaced by '_'. Path separators are replaced too, so the
// result always names a file directly inside the final directory.
func StoredName(id, originalName string) string {
	if originalName == "" {
		originalName = "file"
	}
	return unsafeNameChars.ReplaceAllString(id+"-"+originalName, "_")
}
