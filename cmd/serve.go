package main

import (
	"context"
	"net/http"

	"github.com/desertthunder/shzx/internal/server"
	"github.com/desertthunder/shzx/internal/services"
	"github.com/desertthunder/shzx/internal/shared"
	"github.com/desertthunder/shzx/internal/tasks"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// Serve runs the upload service until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.cfg()

	maxUpload, err := cfg.Server.MaxUploadBytes()
	if err != nil {
		return err
	}

	pipeline, err := r.newPipeline(tasks.ReconcileOptionsFrom(cfg.Sync))
	if err != nil {
		return err
	}

	router := r.newRouter(pipeline, server.UploadConfig{
		HeadersPath: cfg.Credentials.YouTube.HeadersPath,
		MaxUpload:   maxUpload,
	})

	addr := cmd.String("addr")
	if addr == "" {
		addr = cfg.Server.Addr()
	}

	r.logger.Info("starting server",
		"addr", addr,
		"proxy", cfg.Credentials.YouTube.ProxyURL,
		"max_upload", humanize.IBytes(uint64(maxUpload)),
		"playlist", cfg.Sync.PlaylistTitle,
	)
	return server.NewServer(addr, router, r.logger).ListenAndServe(ctx)
}

func (r *Runner) newRouter(pipeline *tasks.Pipeline, cfg server.UploadConfig) *server.BasicRouter {
	factory := server.NewYouTubeFactory(r.cfg().Credentials.YouTube.ProxyURL, r.youtubeOptions()...)
	if r.catalog != nil {
		factory = func(context.Context, shared.AuthHeaders) (services.Catalog, error) { return r.catalog, nil }
	}

	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger), server.RequestLogger(r.logger))
	router.Handle(http.MethodGet, "/{$}", server.BannerHandler(version))
	router.Handler(server.NewUploadHandler(pipeline, factory, cfg, r.logger))
	return router
}
