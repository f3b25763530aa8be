package handler

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/app/service"
	"github.com/atinyakov/shortlink/internal/storage"
)

// hostPlaceholder is replaced in the landing page with <scheme>://<host>.
const hostPlaceholder = "{{host}}"

type GetHandler struct {
	service   service.LinkServiceIface
	pages     fs.FS
	indexPath string
	logger    *zap.Logger
}

// NewGet creates the handler for read-only routes. The landing page is read
// from indexPath inside pages on every request.
func NewGet(s service.LinkServiceIface, pages fs.FS, indexPath string, l *zap.Logger) *GetHandler {
	return &GetHandler{
		service:   s,
		pages:     pages,
		indexPath: indexPath,
		logger:    l,
	}
}

// Index serves the landing page.
func (h *GetHandler) Index(res http.ResponseWriter, req *http.Request) {
	page, err := fs.ReadFile(h.pages, h.indexPath)
	if err != nil {
		h.logger.Error("cannot read landing page", zap.String("path", h.indexPath), zap.Error(err))
		writeError(res, http.StatusInternalServerError, msgHomeFailed)
		return
	}

	body := strings.ReplaceAll(string(page), hostPlaceholder, baseURL(req))

	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	res.WriteHeader(http.StatusOK)
	_, _ = res.Write([]byte(body))
}

// ByShort redirects to the original URL of the identifier in the path.
func (h *GetHandler) ByShort(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	shortID := chi.URLParam(req, "shortID")

	target, err := h.service.Resolve(ctx, shortID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(res, http.StatusNotFound, msgNotFound)
			return
		}
		h.logger.Error("cannot resolve link", zap.String("id", shortID), zap.Error(err))
		writeError(res, http.StatusInternalServerError, msgRetrieveFailed)
		return
	}

	res.Header().Set("Location", target)
	res.WriteHeader(http.StatusFound)
}

// Ping reports whether the store is reachable.
func (h *GetHandler) Ping(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	if err := h.service.PingContext(ctx); err != nil {
		h.logger.Warn("store ping failed", zap.Error(err))
		writeError(res, http.StatusInternalServerError, msgPingFailed)
		return
	}

	res.WriteHeader(http.StatusOK)
}
