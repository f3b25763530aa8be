package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithGzip(t *testing.T) {
	tests := []struct {
		name           string
		acceptEncoding string
		contentType    string
		expectGzip     bool
	}{
		{"json accepted", "gzip, deflate", "application/json", true},
		{"html accepted", "gzip", "text/html; charset=utf-8", true},
		{"binary not compressed", "gzip", "image/png", false},
		{"no gzip accepted", "", "application/json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte("hello world"))
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Encoding", tt.acceptEncoding)

			rec := httptest.NewRecorder()
			WithGzip(handler).ServeHTTP(rec, req)
			resp := rec.Result()
			defer resp.Body.Close()

			encoding := resp.Header.Get("Content-Encoding")
			if !tt.expectGzip {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != "hello world" {
					t.Errorf("unexpected body: %s", body)
				}
				if encoding != "" {
					t.Errorf("expected no Content-Encoding, got %s", encoding)
				}
				return
			}

			if encoding != "gzip" {
				t.Fatalf("expected gzip encoding, got %q", encoding)
			}
			gr, err := gzip.NewReader(resp.Body)
			if err != nil {
				t.Fatalf("failed to read gzip body: %v", err)
			}
			defer gr.Close()
			unzipped, err := io.ReadAll(gr)
			if err != nil {
				t.Fatalf("failed to decompress body: %v", err)
			}
			if string(unzipped) != "hello world" {
				t.Errorf("unexpected body: %s", unzipped)
			}
		})
	}
}

func TestWithGzip_Redirect(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "http://example.com")
		w.WriteHeader(http.StatusFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/abc", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	WithGzip(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Errorf("expected 302, got %d", rec.Code)
	}
	if rec.Header().Get("Location") != "http://example.com" {
		t.Errorf("location lost: %q", rec.Header().Get("Location"))
	}
	if rec.Header().Get("Content-Encoding") != "" {
		t.Errorf("bodyless redirect should not be encoded")
	}
}
