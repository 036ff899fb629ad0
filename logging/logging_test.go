package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, INFO)

	l.Debug("hidden %d", 1)
	l.Info("shown %d", 2)
	l.WithPrefix("ws").Warning("tagged")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO]  shown 2")
	assert.Contains(t, out, "[WARN]  [ws] tagged")

	l.ChangeLogLevel(DEBUG)
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "[DEBUG] now visible")
}

func TestPrefixedLoggerSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, ERROR)
	child := l.WithPrefix("trader")

	l.ChangeLogLevel(DEBUG)
	child.Debug("after change")
	assert.Contains(t, buf.String(), "[trader] after change")
}

func TestHourlyWriterLayout(t *testing.T) {
	dir := t.TempDir()
	w, err := newHourlyWriter(filepath.Join(dir, "bot.log"), 1, 1, 0, false)
	require.NoError(t, err)
	defer w.Close()

	fixed := time.Date(2024, 3, 9, 7, 15, 0, 0, time.Local)
	w.now = func() time.Time { return fixed }

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "2024-03-09", "bot-07.log"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "hello"))
}

func TestHourlyWriterPrunesOldDays(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "2000-01-01")
	require.NoError(t, os.MkdirAll(old, 0o755))

	w, err := newHourlyWriter(filepath.Join(dir, "bot.log"), 1, 1, 3, false)
	require.NoError(t, err)
	defer w.Close()

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err), "old day directory should be pruned")
}

func TestNewHourlyWriterRejectsEmptyName(t *testing.T) {
	_, err := newHourlyWriter(".log", 1, 1, 0, false)
	assert.Error(t, err)
}
