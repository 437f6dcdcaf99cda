package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shzx/internal/archive"
	"github.com/desertthunder/shzx/internal/repositories"
	"github.com/desertthunder/shzx/internal/services"
	"github.com/desertthunder/shzx/internal/shared"
	"github.com/desertthunder/shzx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	proxy      *services.ProxyClient
	httpClient *http.Client
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog      // replaces the YouTube client, already authenticated
	Proxy      *services.ProxyClient // replaces the raw proxy client
	HTTPClient *http.Client
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		proxy:      opts.Proxy,
		httpClient: opts.HTTPClient,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, syncCommand, extractCommand, historyCommand,
		setupCommand, catalogCommand, proxyCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config, falling back to the embedded defaults when the file is absent.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.config != nil {
		return ctx, nil
	}

	r.configPath = cmd.String("config")
	config, err := r.loadConfig(r.configPath)
	if err != nil {
		return ctx, err
	}
	r.config = config
	return ctx, nil
}

// After closes the database when a command opened it.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return shared.DefaultConfig(), nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	r.logger.Debug("loaded config", "path", path)
	return config, nil
}

func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// database opens the configured run ledger on first use. Returns nil when persistence is disabled.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.cfg().Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

// youtubeOptions builds client options from the sync config.
func (r *Runner) youtubeOptions() []services.YouTubeOption {
	sync := r.cfg().Sync
	return []services.YouTubeOption{
		services.WithHTTPClient(&http.Client{Transport: r.httpClient.Transport}),
		services.WithTimeout(sync.RequestTimeout()),
		services.WithRateLimit(sync.RateLimit),
	}
}

// authHeaders loads catalog auth headers from path, or the configured headers path when path is empty.
func (r *Runner) authHeaders(path string) (shared.AuthHeaders, error) {
	if path == "" {
		path = r.cfg().Credentials.YouTube.HeadersPath
	}
	return shared.LoadAuthHeaders(shared.FixedAuth(path))
}

// newCatalog returns an authenticated catalog client.
func (r *Runner) newCatalog(ctx context.Context, authPath string) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	headers, err := r.authHeaders(authPath)
	if err != nil {
		return nil, err
	}
	data, err := headers.JSON()
	if err != nil {
		return nil, err
	}

	yt := services.NewYouTubeService(r.cfg().Credentials.YouTube.ProxyURL, r.youtubeOptions()...)
	if err := yt.Authenticate(ctx, map[string]string{services.CredentialHeaders: string(data)}); err != nil {
		return nil, err
	}
	r.logger.Debug("catalog authenticated", "service", yt.Name(), "headers", headers.Names())
	return yt, nil
}

// newProxy returns the raw proxy client, forwarding auth headers when they can be loaded.
func (r *Runner) newProxy() *services.ProxyClient {
	if r.proxy != nil {
		return r.proxy
	}

	proxy := services.NewProxyClient(r.cfg().Credentials.YouTube.ProxyURL, r.httpClient)
	if headers, err := r.authHeaders(""); err == nil {
		if encoded, err := headers.Encoded(); err == nil {
			proxy.WithAuth(encoded)
		}
	}
	return proxy
}

// newPipeline wires the configured ledger and match cache into a pipeline.
func (r *Runner) newPipeline(opts tasks.ReconcileOptions) (*tasks.Pipeline, error) {
	options := []tasks.PipelineOption{tasks.WithLogger(r.logger)}

	db, err := r.database()
	if err != nil {
		return nil, err
	}
	if db != nil {
		options = append(options,
			tasks.WithMatchCache(repositories.NewMatchCacheRepository(db)),
			tasks.WithRunRecorder(repositories.NewRunRepository(db)),
		)
	}
	return tasks.NewPipeline(opts, options...), nil
}

// storePath resolves --archive or --db into a store directory. The returned func removes any unpacked archive.
func (r *Runner) storePath(cmd *cli.Command) (string, func(), error) {
	archivePath, dbPath := cmd.String("archive"), cmd.String("db")

	switch {
	case archivePath == "" && dbPath == "":
		return "", nil, fmt.Errorf("%w: either --archive or --db must be provided", shared.ErrMissingArgument)
	case archivePath != "" && dbPath != "":
		return "", nil, fmt.Errorf("%w: cannot specify both --archive and --db", shared.ErrInvalidArgument)
	case dbPath != "":
		return dbPath, func() {}, nil
	}

	ws, path, err := archive.Unpack(archivePath, 0)
	if err != nil {
		return "", nil, err
	}
	r.logger.Debug("unpacked archive", "archive", archivePath, "store", path)
	return path, func() {
		if err := ws.Close(); err != nil {
			r.logger.Warn("failed to remove workspace", "dir", ws.Dir(), "error", err)
		}
	}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
