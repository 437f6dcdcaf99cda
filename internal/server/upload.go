package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shzx/internal/archive"
	"github.com/desertthunder/shzx/internal/models"
	"github.com/desertthunder/shzx/internal/services"
	"github.com/desertthunder/shzx/internal/shared"
	"github.com/desertthunder/shzx/internal/tasks"
	"github.com/dustin/go-humanize"
)

// multipartMemory is how much of a form is held in memory before spilling to disk.
const multipartMemory = 8 << 20

// CatalogFactory builds an authenticated catalog client from request auth headers.
type CatalogFactory func(ctx context.Context, headers shared.AuthHeaders) (services.Catalog, error)

// NewYouTubeFactory returns a [CatalogFactory] that authenticates against the proxy at baseURL.
func NewYouTubeFactory(baseURL string, opts ...services.YouTubeOption) CatalogFactory {
	return func(ctx context.Context, headers shared.AuthHeaders) (services.Catalog, error) {
		data, err := headers.JSON()
		if err != nil {
			return nil, err
		}
		svc := services.NewYouTubeService(baseURL, opts...)
		if err := svc.Authenticate(ctx, map[string]string{services.CredentialHeaders: string(data)}); err != nil {
			return nil, err
		}
		return svc, nil
	}
}

// UploadHandler accepts a zipped history store and runs it through the pipeline.
type UploadHandler struct {
	pipeline     *tasks.Pipeline
	newCatalog   CatalogFactory
	headersPath  string
	maxUpload    int64
	maxExtracted int64
	logger       *log.Logger
}

// UploadConfig holds the limits and fallbacks an [UploadHandler] applies.
type UploadConfig struct {
	HeadersPath  string // used when a request carries no auth material
	MaxUpload    int64  // request body cap in bytes
	MaxExtracted int64  // uncompressed archive cap; <= 0 uses the archive default
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(pipeline *tasks.Pipeline, factory CatalogFactory, cfg UploadConfig, logger *log.Logger) *UploadHandler {
	return &UploadHandler{
		pipeline:     pipeline,
		newCatalog:   factory,
		headersPath:  cfg.HeadersPath,
		maxUpload:    cfg.MaxUpload,
		maxExtracted: cfg.MaxExtracted,
		logger:       logger,
	}
}

// Routes implements [Handler].
func (h *UploadHandler) Routes() []string { return []string{"/upload"} }

// ServeHTTP implements [http.Handler].
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.maxUpload > 0 {
		if r.ContentLength > h.maxUpload {
			h.tooLarge(w)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.tooLarge(w)
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "both a .zip file and auth headers are required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".zip") {
		writeError(w, http.StatusBadRequest, "only .zip files are accepted")
		return
	}

	src, err := h.authSource(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "both a .zip file and auth headers are required")
		return
	}
	if src.Reader != nil {
		if c, ok := src.Reader.(io.Closer); ok {
			defer c.Close()
		}
	}

	headers, err := shared.LoadAuthHeaders(src)
	if err != nil {
		writeError(w, StatusFor(err), fmt.Sprintf("invalid auth headers: %v", err))
		return
	}

	// a run proceeds to completion once started, even if the client goes away
	ctx := context.WithoutCancel(r.Context())

	catalog, err := h.newCatalog(ctx, headers)
	if err != nil {
		h.logger.Warn("catalog init failed", "error", err)
		writeError(w, StatusFor(err), fmt.Sprintf("failed to initialize catalog client: %v", err))
		return
	}

	report, err := h.run(ctx, file, header, catalog, r.FormValue("playlist"))
	if err != nil {
		h.logger.Error("upload run failed", "file", header.Filename, "kind", shared.Classify(err), "error", err)
		writeError(w, StatusFor(err), err.Error())
		return
	}

	h.logger.Info("upload run finished",
		"file", header.Filename, "playlist", report.PlaylistID,
		"added", report.SongsAdded, "skipped", report.SkippedCount, "failed", report.FailedCount)
	writeJSON(w, http.StatusOK, report)
}

func (h *UploadHandler) tooLarge(w http.ResponseWriter) {
	writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %s", humanize.IBytes(uint64(h.maxUpload))))
}

// authSource picks inline JSON, then an uploaded file, then the configured path.
func (h *UploadHandler) authSource(r *http.Request) (shared.AuthSource, error) {
	if raw := r.FormValue("headers_auth_json"); strings.TrimSpace(raw) != "" {
		return shared.InlineAuth(raw), nil
	}
	if f, _, err := r.FormFile("headers_auth_file"); err == nil {
		return shared.UploadedAuth(f), nil
	}
	if h.headersPath != "" {
		return shared.FixedAuth(h.headersPath), nil
	}
	return shared.AuthSource{}, shared.ErrMissingCredentials
}

func (h *UploadHandler) run(
	ctx context.Context, file multipart.File, header *multipart.FileHeader, catalog services.Catalog, playlist string,
) (*models.Report, error) {
	ws, err := archive.NewWorkspace()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			h.logger.Warn("failed to remove workspace", "dir", ws.Dir(), "error", err)
		}
	}()

	dest := ws.Path("archive")
	if err := archive.Extract(file, header.Size, dest, h.maxExtracted); err != nil {
		return nil, err
	}
	storePath, err := archive.FindStore(dest, archive.DefaultStoreDir)
	if err != nil {
		return nil, err
	}

	return h.pipeline.Run(ctx, tasks.SyncRequest{
		StorePath:     storePath,
		Catalog:       catalog,
		PlaylistTitle: playlist,
	}, nil)
}
