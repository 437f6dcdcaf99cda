package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/shzx/internal/shared"
	tu "github.com/desertthunder/shzx/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			catalog := tu.NewFakeCatalog()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Catalog:    catalog,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("cfg falls back to defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.cfg().Sync.PlaylistTitle != "Shazam Playlist" {
				t.Errorf("expected default playlist title, got %q", runner.cfg().Sync.PlaylistTitle)
			}
		})
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("missing file uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			config, err := runner.loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Server.Port != 8081 {
				t.Errorf("expected default port, got %d", config.Server.Port)
			}
		})

		t.Run("overlays file values", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(path, []byte("[sync]\nplaylist_title = \"Road Trip\"\nworkers = 4\n"), 0o644)

			config, err := NewRunner(RunnerOpts{}).loadConfig(path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Sync.PlaylistTitle != "Road Trip" || config.Sync.Workers != 4 {
				t.Errorf("expected overlaid sync config, got %+v", config.Sync)
			}
			if config.Sync.ExistingLimit != 2000 {
				t.Errorf("expected default existing_limit to survive, got %d", config.Sync.ExistingLimit)
			}
		})

		t.Run("invalid values are rejected", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(path, []byte("[sync]\nworkers = 0\n"), 0o644)

			_, err := NewRunner(RunnerOpts{}).loadConfig(path)
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("malformed TOML is rejected", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(path, []byte("[sync\n"), 0o644)

			_, err := NewRunner(RunnerOpts{}).loadConfig(path)
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("storePath", func(t *testing.T) {
		run := func(t *testing.T, args ...string) (string, func(), error) {
			t.Helper()
			var path string
			var cleanup func()
			var err error
			cmd := &cli.Command{
				Name:  "test",
				Flags: storeFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path, cleanup, err = NewRunner(RunnerOpts{Output: &bytes.Buffer{}}).storePath(cmd)
					return nil
				},
			}
			if runErr := cmd.Run(context.Background(), append([]string{"test"}, args...)); runErr != nil {
				t.Fatalf("failed to run command: %v", runErr)
			}
			return path, cleanup, err
		}

		t.Run("requires a source", func(t *testing.T) {
			if _, _, err := run(t); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("rejects both sources", func(t *testing.T) {
			if _, _, err := run(t, "--archive", "a.zip", "--db", "db"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("db is used as is", func(t *testing.T) {
			path, cleanup, err := run(t, "--db", "/data/db")
			if err != nil || path != "/data/db" {
				t.Fatalf("expected /data/db, got %q, %v", path, err)
			}
			cleanup()
		})

		t.Run("archive is unpacked and removed", func(t *testing.T) {
			zip := tu.StoreArchive(t, map[string]string{"k": `{"track":{"title":"A","subtitle":"B"}}`})
			path, cleanup, err := run(t, "--archive", zip)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			tu.AssertDirExists(t, path)
			cleanup()
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Errorf("expected %s to be removed, got %v", path, err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"serve", "sync", "extract", "history", "setup", "catalog", "proxy", "cache"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", shared.ErrMissingArgument), 2},
		{fmt.Errorf("%w: x", shared.ErrInvalidConfig), 2},
		{fmt.Errorf("%w: x", shared.ErrStoreOpen), 3},
		{fmt.Errorf("%w: x", shared.ErrAppendFailed), 4},
		{errors.New("other"), 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
