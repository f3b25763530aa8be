package handler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/mocks"
	"github.com/atinyakov/shortlink/internal/storage"
)

var testPages = fstest.MapFS{
	"index.html": {Data: []byte(`<a href="{{host}}/new/">{{host}}</a>`)},
}

func createTestHandler(mockService *mocks.MockLinkServiceIface) *GetHandler {
	return NewGet(mockService, testPages, "index.html", zap.NewNop())
}

// withShortID simulates chi's URLParam extraction.
func withShortID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("shortID", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestByShort(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockLinkServiceIface(ctrl)
	handler := createTestHandler(mockService)

	tests := []struct {
		name         string
		shortID      string
		target       string
		mockErr      error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Found",
			shortID:      "abc1234",
			target:       "http://example.com/page",
			expectedCode: http.StatusFound,
		},
		{
			name:         "Not found",
			shortID:      "unknown",
			mockErr:      storage.ErrNotFound,
			expectedCode: http.StatusNotFound,
			expectedBody: `{"error":true,"message":"Link not found"}`,
		},
		{
			name:         "Store error",
			shortID:      "broken1",
			mockErr:      fmt.Errorf("find by id: %w", errors.New("connection refused")),
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":true,"message":"Could not retrieve link"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService.EXPECT().Resolve(gomock.Any(), tt.shortID).Return(tt.target, tt.mockErr)

			req := withShortID(httptest.NewRequest(http.MethodGet, "/"+tt.shortID, nil), tt.shortID)
			w := httptest.NewRecorder()

			handler.ByShort(w, req)

			resp := w.Result()
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedCode, resp.StatusCode)
			if tt.expectedBody != "" {
				assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			} else {
				assert.Equal(t, tt.target, resp.Header.Get("Location"))
			}
		})
	}
}

func TestIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := createTestHandler(mocks.NewMockLinkServiceIface(ctrl))

	t.Run("plain http", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "sho.rt:3000"
		w := httptest.NewRecorder()

		handler.Index(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, `<a href="http://sho.rt:3000/new/">http://sho.rt:3000</a>`, w.Body.String())
	})

	t.Run("tls", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "sho.rt"
		req.TLS = &tls.ConnectionState{}
		w := httptest.NewRecorder()

		handler.Index(w, req)

		assert.Contains(t, w.Body.String(), `href="https://sho.rt/new/"`)
	})
}

func TestIndex_ReadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewGet(mocks.NewMockLinkServiceIface(ctrl), fstest.MapFS{}, "index.html", zap.NewNop())

	w := httptest.NewRecorder()
	handler.Index(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":true,"message":"Could not read home"}`, w.Body.String())
}

func TestPing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockLinkServiceIface(ctrl)
	handler := createTestHandler(mockService)

	t.Run("Success", func(t *testing.T) {
		mockService.EXPECT().PingContext(gomock.Any()).Return(nil)

		w := httptest.NewRecorder()
		handler.Ping(w, httptest.NewRequest(http.MethodGet, "/internal/ping", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Failure", func(t *testing.T) {
		mockService.EXPECT().PingContext(gomock.Any()).Return(errors.New("db error"))

		w := httptest.NewRecorder()
		handler.Ping(w, httptest.NewRequest(http.MethodGet, "/internal/ping", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestFallbackHandlers(t *testing.T) {
	w := httptest.NewRecorder()
	NotFound(w, httptest.NewRequest(http.MethodGet, "/a/b", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":true,"message":"Route not found"}`, w.Body.String())

	w = httptest.NewRecorder()
	MethodNotAllowed(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
