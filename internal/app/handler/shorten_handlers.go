package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/app/service"
	"github.com/atinyakov/shortlink/internal/models"
)

// ShortenPrefix is stripped from the request URI to obtain the target.
const ShortenPrefix = "/new/"

type ShortenHandler struct {
	service service.LinkServiceIface
	logger  *zap.Logger
}

func NewShorten(s service.LinkServiceIface, l *zap.Logger) *ShortenHandler {
	return &ShortenHandler{
		service: s,
		logger:  l,
	}
}

// Shorten handles GET /new/<url>. Everything after the prefix, query
// included, is the original URL.
func (h *ShortenHandler) Shorten(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	original := strings.TrimPrefix(req.URL.RequestURI(), ShortenPrefix)

	link, created, err := h.service.Shorten(ctx, original)
	if err != nil {
		if errors.Is(err, service.ErrEmptyURL) {
			writeError(res, http.StatusBadRequest, msgURLRequired)
			return
		}
		if errors.Is(err, service.ErrURLTooLong) {
			writeError(res, http.StatusRequestURITooLong, msgURLTooLong)
			return
		}
		h.logger.Error("cannot shorten link", zap.String("url", original), zap.Error(err))
		writeError(res, http.StatusInternalServerError, msgShortenFailed)
		return
	}

	h.logger.Debug("shortened", zap.String("id", link.ID), zap.Bool("created", created))
	writeJSON(res, http.StatusOK, models.NewShortenResponse(baseURL(req), link.OriginalURL, link.ID))
}
