package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(&buf, "debug", "text"), &buf
}

func TestSlogLogger_Levels_WriteExpectedOutput(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()

	tests := []struct {
		level string
		msg   string
		kv    string
	}{
		{"DEBUG", "dbg", "a=1"},
		{"INFO", "inf", "b=2"},
		{"WARN", "wrn", "c=3"},
		{"ERROR", "err", "d=4"},
	}

	for _, tc := range tests {
		assert.Contains(t, out, "level="+tc.level)
		assert.Contains(t, out, "msg="+tc.msg)
		assert.Contains(t, out, tc.kv)
	}
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("module", "sync", "edition", "e1").Info(context.Background(), "hello", "k", "v")

	out := buf.String()
	for _, s := range []string{"level=INFO", "msg=hello", "module=sync", "edition=e1", "k=v"} {
		assert.Contains(t, out, s)
	}
}

func TestNew_JSONFormatAndLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json")
	ctx := context.Background()

	log.Info(ctx, "dropped")
	log.Warn(ctx, "kept", "n", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNop_DoesNotPanic(t *testing.T) {
	log := Nop()
	ctx := context.TODO()
	log.Info(ctx, "ok")
	log.With("a", 1).Error(ctx, "ok")
}
