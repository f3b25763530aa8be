package intercepters_test

import (
	"context"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/shortlink/internal/intercepters"
)

func TestInterceptorLogger(t *testing.T) {
	// Create a zap observer to capture logs
	core, observedLogs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	il := intercepters.InterceptorLogger(logger)

	ctx := context.Background()

	tests := []struct {
		name     string
		level    logging.Level
		msg      string
		fields   []any
		wantLvl  zapcore.Level
		wantMsg  string
		wantKeys []string
	}{
		{
			name:    "Info level with call fields",
			level:   logging.LevelInfo,
			msg:     "finished call",
			fields:  []any{"grpc.method", "Shorten", "grpc.code", 0},
			wantLvl: zap.InfoLevel,
			wantMsg: "finished call",
			wantKeys: []string{
				"grpc.method",
				"grpc.code",
			},
		},
		{
			name:    "Debug level with bool field",
			level:   logging.LevelDebug,
			msg:     "started call",
			fields:  []any{"created", true},
			wantLvl: zap.DebugLevel,
			wantMsg: "started call",
			wantKeys: []string{
				"created",
			},
		},
		{
			name:    "Warn level with odd key type",
			level:   logging.LevelWarn,
			msg:     "slow call",
			fields:  []any{7, struct{ ID string }{ID: "abc1234"}},
			wantLvl: zap.WarnLevel,
			wantMsg: "slow call",
			wantKeys: []string{
				"7",
			},
		},
		{
			name:    "Error level dangling key",
			level:   logging.LevelError,
			msg:     "call failed",
			fields:  []any{"grpc.error"},
			wantLvl: zap.ErrorLevel,
			wantMsg: "call failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observedLogs.TakeAll()

			il.Log(ctx, tt.level, tt.msg, tt.fields...)

			logs := observedLogs.TakeAll()
			if len(logs) != 1 {
				t.Fatalf("expected 1 log entry, got %d", len(logs))
			}
			logEntry := logs[0]

			if logEntry.Level != tt.wantLvl {
				t.Errorf("got level %v, want %v", logEntry.Level, tt.wantLvl)
			}
			if logEntry.Message != tt.wantMsg {
				t.Errorf("got message %q, want %q", logEntry.Message, tt.wantMsg)
			}

			for _, key := range tt.wantKeys {
				found := false
				for _, f := range logEntry.Context {
					if f.Key == key {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected field key %q not found in log context", key)
				}
			}
		})
	}
}

func TestInterceptorLogger_UnknownLevelPanics(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	il := intercepters.InterceptorLogger(logger)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for unknown logging level, but did not panic")
		}
	}()

	il.Log(context.Background(), logging.Level(999), "panic test")
}
