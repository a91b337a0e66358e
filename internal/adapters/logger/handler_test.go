package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/loom/internal/adapters/logger"
)

func TestPrettyHandler_Handle_Levels(t *testing.T) {
	tests := []struct {
		name       string
		level      slog.Level
		msg        string
		goldenName string
	}{
		{"info level", slog.LevelInfo, "information message", "handler_info"},
		{"warn level", slog.LevelWarn, "warning message", "handler_warn"},
		{"error level", slog.LevelError, "error message", "handler_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
			lg.Log(t.Context(), tt.level, tt.msg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestPrettyHandler_Attributes(t *testing.T) {
	tests := []struct {
		name  string
		build func(h slog.Handler) slog.Handler
		attrs []any
		want  string
	}{
		{
			name:  "record attributes",
			build: func(h slog.Handler) slog.Handler { return h },
			attrs: []any{"a", "1", "b", 2},
			want:  "msg a=1 b=2\n",
		},
		{
			name: "handler attributes come first",
			build: func(h slog.Handler) slog.Handler {
				return h.WithAttrs([]slog.Attr{slog.String("stage", "context")})
			},
			attrs: []any{"key", "v"},
			want:  "msg stage=context key=v\n",
		},
		{
			name:  "group attribute",
			build: func(h slog.Handler) slog.Handler { return h },
			attrs: []any{slog.Group("outer", slog.Group("inner", slog.String("k", "v")))},
			want:  "msg outer.inner.k=v\n",
		},
		{
			name:  "nested handler groups",
			build: func(h slog.Handler) slog.Handler { return h.WithGroup("cache").WithGroup("memo") },
			attrs: []any{"hits", 4},
			want:  "msg cache.memo.hits=4\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			lg := slog.New(tt.build(logger.NewPrettyHandler(buf, nil)))
			lg.Info("msg", tt.attrs...)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	level := &slog.LevelVar{}
	h := logger.NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: level})

	assert.False(t, h.Enabled(t.Context(), slog.LevelDebug))
	level.Set(slog.LevelDebug)
	assert.True(t, h.Enabled(t.Context(), slog.LevelDebug))
}
