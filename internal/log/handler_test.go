package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	ctxlog "github.com/citymarket/marketplace/internal/log"
	"github.com/citymarket/marketplace/internal/requestid"
)

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(ctxlog.NewContextHandler(slog.NewJSONHandler(buf, nil)))
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log record: %v", err)
	}
	return rec
}

func TestContextHandler_AddsRequestIDAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf).With("component", "test")

	ctx := requestid.WithRequestID(context.Background(), "req-1")
	ctx = ctxlog.With(ctx, slog.String("user_id", "user-1"))
	ctx = ctxlog.With(ctx, slog.String("city_id", "city-1"))
	logger.InfoContext(ctx, "hello")

	rec := decode(t, &buf)
	for key, want := range map[string]string{
		"request_id": "req-1",
		"user_id":    "user-1",
		"city_id":    "city-1",
		"component":  "test",
	} {
		if rec[key] != want {
			t.Errorf("%s = %v, want %q", key, rec[key], want)
		}
	}
}

func TestContextHandler_PlainContext(t *testing.T) {
	var buf bytes.Buffer
	newJSONLogger(&buf).InfoContext(context.Background(), "hello")

	rec := decode(t, &buf)
	if _, ok := rec["request_id"]; ok {
		t.Errorf("unexpected request_id in %v", rec)
	}
}

func TestWith_DoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf)

	parent := ctxlog.With(context.Background(), slog.String("a", "1"))
	_ = ctxlog.With(parent, slog.String("b", "2"))
	logger.InfoContext(parent, "hello")

	rec := decode(t, &buf)
	if _, ok := rec["b"]; ok {
		t.Errorf("child attr leaked into parent: %v", rec)
	}
}
