// package archive unpacks uploaded history archives into a scratch directory
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/shzx/internal/shared"
	"github.com/dustin/go-humanize"
)

// DefaultStoreDir is the directory name the history store is expected under.
const DefaultStoreDir = "db"

// DefaultMaxExtracted caps the total uncompressed size of an archive.
const DefaultMaxExtracted int64 = 1 << 30

// Extract unzips the archive read from src (size bytes) into dest.
//
// Entries that would land outside dest are rejected with [shared.ErrInvalidArchive], as is an archive whose
// uncompressed contents exceed maxBytes. maxBytes <= 0 uses [DefaultMaxExtracted].
func Extract(src io.ReaderAt, size int64, dest string, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxExtracted
	}

	zr, err := zip.NewReader(src, size)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArchive, err)
	}

	root, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dest, err)
	}

	var written int64
	for _, f := range zr.File {
		target, err := entryPath(root, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", f.Name, err)
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}

		n, err := extractFile(f, target, maxBytes-written)
		written += n
		if err != nil {
			return err
		}
	}
	return nil
}

// ExtractFile opens the zip at path and extracts it into dest.
func ExtractFile(path, dest string, maxBytes int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArchive, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArchive, err)
	}
	return Extract(f, info.Size(), dest, maxBytes)
}

func entryPath(root, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: entry %q escapes the archive root", shared.ErrInvalidArchive, name)
	}

	target := filepath.Join(root, clean)
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: entry %q escapes the archive root", shared.ErrInvalidArchive, name)
	}
	return target, nil
}

func extractFile(f *zip.File, target string, remaining int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}

	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", shared.ErrInvalidArchive, f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer out.Close()

	// read one byte past the budget to detect overflow
	n, err := io.Copy(out, io.LimitReader(rc, remaining+1))
	if err != nil {
		return n, fmt.Errorf("%w: %s: %v", shared.ErrInvalidArchive, f.Name, err)
	}
	if n > remaining {
		return n, fmt.Errorf("%w: uncompressed size exceeds %s", shared.ErrInvalidArchive, humanize.IBytes(uint64(remaining)))
	}
	return n, nil
}

// FindStore returns the directory named name at the top of root, or inside root's single top-level folder.
//
// Returns [shared.ErrMissingStoreDir] when neither exists.
func FindStore(root, name string) (string, error) {
	if name == "" {
		name = DefaultStoreDir
	}

	direct := filepath.Join(root, name)
	if isDir(direct) {
		return direct, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", root, err)
	}

	var dirs []os.DirEntry
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), "__MACOSX") {
			dirs = append(dirs, e)
		}
	}
	if len(dirs) == 1 {
		nested := filepath.Join(root, dirs[0].Name(), name)
		if isDir(nested) {
			return nested, nil
		}
	}

	return "", shared.ErrMissingStoreDir
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Workspace is a scratch directory removed by Close.
type Workspace struct {
	dir string
}

// NewWorkspace creates a scratch directory under the system temp dir.
func NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "shzx-"+shared.GenerateID()[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace path.
func (w *Workspace) Dir() string { return w.dir }

// Path joins elem onto the workspace path.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.dir}, elem...)...)
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	if w == nil || w.dir == "" {
		return nil
	}
	err := os.RemoveAll(w.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove workspace: %w", err)
	}
	return nil
}

// Unpack extracts the archive at path into a new workspace and locates its store.
//
// The caller owns the returned workspace and must Close it. On error the workspace is already removed.
func Unpack(path string, maxBytes int64) (*Workspace, string, error) {
	ws, err := NewWorkspace()
	if err != nil {
		return nil, "", err
	}

	if err := ExtractFile(path, ws.Path("archive"), maxBytes); err != nil {
		ws.Close()
		return nil, "", err
	}

	store, err := FindStore(ws.Path("archive"), DefaultStoreDir)
	if err != nil {
		ws.Close()
		return nil, "", err
	}
	return ws, store, nil
}
