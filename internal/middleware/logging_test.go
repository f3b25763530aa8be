package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestWithRequestLogging(t *testing.T) {
	var logBuf bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&logBuf),
		zapcore.InfoLevel,
	)
	logger := zap.New(core)

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":true}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/abc1234?x=1", nil)
	rec := httptest.NewRecorder()

	WithRequestLogging(logger)(handler).ServeHTTP(rec, req)

	if !handlerCalled {
		t.Fatal("handler was not called")
	}

	resp := rec.Result()
	body, _ := io.ReadAll(resp.Body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}
	if string(body) != `{"error":true}` {
		t.Errorf("unexpected response body: %s", body)
	}

	for _, want := range []string{`"method":"GET"`, `"url":"/abc1234?x=1"`, `"status":404`, `"size":14`, `"duration"`} {
		if !bytes.Contains(logBuf.Bytes(), []byte(want)) {
			t.Errorf("log %s does not contain %s", logBuf.String(), want)
		}
	}
}

func TestWithRequestLogging_ImplicitOK(t *testing.T) {
	var logBuf bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&logBuf),
		zapcore.InfoLevel,
	)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	WithRequestLogging(zap.New(core))(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !bytes.Contains(logBuf.Bytes(), []byte(`"status":200`)) {
		t.Errorf("expected status 200 in log, got %s", logBuf.String())
	}
}
