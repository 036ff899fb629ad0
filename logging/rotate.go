package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	dayLayout  = "2006-01-02"
	hourLayout = "2006-01-02-15"
)

// hourlyWriter opens one lumberjack file per hour under a per-day directory:
// <dir>/<YYYY-MM-DD>/<name>-<HH><ext>. Day directories older than maxAge days
// are pruned when the day changes.
type hourlyWriter struct {
	dir  string
	name string
	ext  string

	maxSize    int
	maxBackups int
	maxAge     int
	compress   bool

	now func() time.Time

	mu       sync.Mutex
	key      string
	current  *lumberjack.Logger
	prunedOn string
}

func newHourlyWriter(path string, maxSize, maxBackups, maxAge int, compress bool) (*hourlyWriter, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if name == "" || name == "." {
		return nil, fmt.Errorf("invalid log file: %q", path)
	}
	if ext == "" {
		ext = ".log"
	}

	w := &hourlyWriter{
		dir:        filepath.Dir(path),
		name:       name,
		ext:        ext,
		maxSize:    maxSize,
		maxBackups: maxBackups,
		maxAge:     maxAge,
		compress:   compress,
		now:        time.Now,
	}
	if err := w.open(w.now()); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *hourlyWriter) pathFor(t time.Time) string {
	return filepath.Join(w.dir, t.Format(dayLayout), fmt.Sprintf("%s-%02d%s", w.name, t.Hour(), w.ext))
}

func (w *hourlyWriter) open(t time.Time) error {
	path := w.pathFor(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	w.key = t.Format(hourLayout)
	w.current = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    w.maxSize,
		MaxBackups: w.maxBackups,
		MaxAge:     w.maxAge,
		Compress:   w.compress,
	}

	today := t.Format(dayLayout)
	if w.maxAge > 0 && today != w.prunedOn {
		w.prunedOn = today
		return w.prune(t)
	}
	return nil
}

func (w *hourlyWriter) roll(t time.Time) error {
	if w.current != nil && w.key == t.Format(hourLayout) {
		return nil
	}
	if w.current != nil {
		_ = w.current.Close()
		w.current = nil
	}
	return w.open(t)
}

func (w *hourlyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.roll(w.now()); err != nil {
		return 0, err
	}
	return w.current.Write(p)
}

func (w *hourlyWriter) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.roll(w.now()); err != nil {
		return err
	}
	return w.current.Rotate()
}

func (w *hourlyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil {
		return nil
	}
	err := w.current.Close()
	w.current = nil
	w.key = ""
	return err
}

func (w *hourlyWriter) prune(t time.Time) error {
	y, m, d := t.Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, -(w.maxAge - 1))

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read log directory %q: %w", w.dir, err)
	}
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		day, err := time.ParseInLocation(dayLayout, ent.Name(), t.Location())
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			_ = os.RemoveAll(filepath.Join(w.dir, ent.Name()))
		}
	}
	return nil
}
