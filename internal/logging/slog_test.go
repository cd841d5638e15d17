package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json")
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("cycle finished", Count(2), Err(errors.New("boom")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug line should be filtered at info level")

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "cycle finished", rec["msg"])
	assert.Equal(t, float64(2), rec[KeyCount])
	assert.Equal(t, "boom", rec[KeyError])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "debug", "text")
	require.NoError(t, err)

	WithComponent(logger, "scheduler").Debug("sleeping")
	assert.Contains(t, buf.String(), "component=scheduler")
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", "text")
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestErrNil(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("ok", Err(nil))
	assert.NotContains(t, buf.String(), KeyError)
}

func TestAnonymizeEmail(t *testing.T) {
	assert.Equal(t, "", AnonymizeEmail(""))

	a := AnonymizeEmail("me@example.com")
	assert.True(t, strings.HasPrefix(a, "user:"))
	assert.NotContains(t, a, "example.com")
	assert.Equal(t, a, AnonymizeEmail("me@example.com"))
	assert.NotEqual(t, a, AnonymizeEmail("you@example.com"))
}
