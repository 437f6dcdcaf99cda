package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/shzx/internal/shared"
	tu "github.com/desertthunder/shzx/internal/testing"
)

// buildZip returns an in-memory archive with the given entries; names ending in "/" are directories.
func buildZip(t *testing.T, entries map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if !strings.HasSuffix(name, "/") {
			w.Write([]byte(body))
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestExtract(t *testing.T) {
	t.Run("extracts files and directories", func(t *testing.T) {
		dest := t.TempDir()
		r := buildZip(t, map[string]string{
			"db/":            "",
			"db/CURRENT":     "MANIFEST-000001\n",
			"db/000001.log":  "data",
			"notes/read.txt": "hello",
		})

		if err := Extract(r, r.Size(), dest, 0); err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		tu.AssertDirExists(t, filepath.Join(dest, "db"))
		if got := tu.MustReadFile(t, filepath.Join(dest, "db", "CURRENT")); got != "MANIFEST-000001\n" {
			t.Errorf("unexpected CURRENT contents %q", got)
		}
		tu.AssertFileExists(t, filepath.Join(dest, "notes", "read.txt"))
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		for _, name := range []string{"../evil.txt", "db/../../evil.txt", "/abs/evil.txt"} {
			t.Run(name, func(t *testing.T) {
				parent := t.TempDir()
				dest := filepath.Join(parent, "out")
				r := buildZip(t, map[string]string{name: "x"})

				err := Extract(r, r.Size(), dest, 0)
				if !errors.Is(err, shared.ErrInvalidArchive) {
					t.Fatalf("expected ErrInvalidArchive, got %v", err)
				}
				if _, err := os.Stat(filepath.Join(parent, "evil.txt")); err == nil {
					t.Error("traversal entry was written outside dest")
				}
			})
		}
	})

	t.Run("enforces size cap", func(t *testing.T) {
		r := buildZip(t, map[string]string{"db/a": "12345", "db/b": "67890"})

		err := Extract(r, r.Size(), t.TempDir(), 8)
		if !errors.Is(err, shared.ErrInvalidArchive) {
			t.Fatalf("expected ErrInvalidArchive, got %v", err)
		}
		if !strings.Contains(err.Error(), "exceeds") {
			t.Errorf("expected size message, got %v", err)
		}
	})

	t.Run("exact size fits", func(t *testing.T) {
		r := buildZip(t, map[string]string{"db/a": "12345"})
		if err := Extract(r, r.Size(), t.TempDir(), 5); err != nil {
			t.Errorf("expected archive at the cap to extract, got %v", err)
		}
	})

	t.Run("rejects non-zip input", func(t *testing.T) {
		r := bytes.NewReader([]byte("definitely not a zip"))
		if err := Extract(r, r.Size(), t.TempDir(), 0); !errors.Is(err, shared.ErrInvalidArchive) {
			t.Errorf("expected ErrInvalidArchive, got %v", err)
		}
	})
}

func TestFindStore(t *testing.T) {
	t.Run("top level", func(t *testing.T) {
		root := t.TempDir()
		os.MkdirAll(filepath.Join(root, "db"), 0o755)

		got, err := FindStore(root, "db")
		if err != nil || got != filepath.Join(root, "db") {
			t.Errorf("expected top-level db, got %q, %v", got, err)
		}
	})

	t.Run("single wrapping folder", func(t *testing.T) {
		root := t.TempDir()
		os.MkdirAll(filepath.Join(root, "export", "db"), 0o755)
		os.MkdirAll(filepath.Join(root, "__MACOSX"), 0o755)

		got, err := FindStore(root, "")
		if err != nil || got != filepath.Join(root, "export", "db") {
			t.Errorf("expected nested db, got %q, %v", got, err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		root := t.TempDir()
		os.MkdirAll(filepath.Join(root, "a", "db"), 0o755)
		os.MkdirAll(filepath.Join(root, "b"), 0o755)
		os.WriteFile(filepath.Join(root, "db"), []byte("file, not dir"), 0o644)

		_, err := FindStore(root, "db")
		if !errors.Is(err, shared.ErrMissingStoreDir) {
			t.Errorf("expected ErrMissingStoreDir, got %v", err)
		}
		if shared.Classify(err) != shared.KindInput {
			t.Errorf("expected input error class, got %v", shared.Classify(err))
		}
	})
}

func TestWorkspace(t *testing.T) {
	ws, err := NewWorkspace()
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}
	os.WriteFile(ws.Path("x.txt"), []byte("x"), 0o644)
	tu.AssertFileExists(t, ws.Path("x.txt"))

	if err := ws.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Errorf("expected workspace to be removed, got %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Errorf("second Close() should be a no-op, got %v", err)
	}
}

func TestUnpack(t *testing.T) {
	t.Run("finds the store", func(t *testing.T) {
		zipPath := tu.StoreArchive(t, map[string]string{"k1": `{"track":{"title":"A","subtitle":"B"}}`})

		ws, store, err := Unpack(zipPath, 0)
		if err != nil {
			t.Fatalf("Unpack() error = %v", err)
		}
		defer ws.Close()

		if filepath.Base(store) != "db" {
			t.Errorf("expected db directory, got %s", store)
		}
		tu.AssertDirExists(t, store)
	})

	t.Run("missing db directory", func(t *testing.T) {
		root := t.TempDir()
		os.WriteFile(filepath.Join(root, "readme.txt"), []byte("no store here"), 0o644)
		zipPath := filepath.Join(t.TempDir(), "bad.zip")
		tu.ZipDir(t, root, zipPath)

		ws, _, err := Unpack(zipPath, 0)
		if !errors.Is(err, shared.ErrMissingStoreDir) {
			t.Fatalf("expected ErrMissingStoreDir, got %v", err)
		}
		if ws != nil {
			t.Error("expected workspace to be cleaned up on error")
		}
	})
}
