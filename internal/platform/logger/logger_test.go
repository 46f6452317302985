package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   Debug,
		"":        Info,
		"WARNING": Warn,
		" error ": Error,
		"nope":    Info,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestJSONLogger_WritesFieldsAndRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Info, Format: FormatJSON, App: "pet-records", Output: &buf})

	l.Debug("hidden", nil)
	l.With(map[string]any{"request_id": "abc"}).Info("hello", map[string]any{"pet_id": "p1", "": "skip"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "pet-records", entry["app"])
	assert.Equal(t, "abc", entry["request_id"])
	assert.Equal(t, "p1", entry["pet_id"])
	assert.NotContains(t, entry, "")
}

func TestFromContext_FallsBack(t *testing.T) {
	fallback := Nop()
	assert.Equal(t, fallback, FromContext(context.Background(), fallback))

	var buf bytes.Buffer
	l := New(Options{Level: Debug, Format: FormatJSON, Output: &buf})
	ctx := WithContext(context.Background(), l)
	FromContext(ctx, fallback).Info("from ctx", nil)
	assert.Contains(t, buf.String(), "from ctx")
}

func TestSlogBridge(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Info, Format: FormatJSON, Output: &buf})

	s := Slog(l)
	s.With("service", "outbox").WithGroup("run").Info("started", "attempt", 2)
	s.Debug("ignored")

	out := buf.String()
	assert.Contains(t, out, `"service":"outbox"`)
	assert.Contains(t, out, `"run.attempt":2`)
	assert.NotContains(t, out, "ignored")
}
