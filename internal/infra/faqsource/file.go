package faqsource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

// FileSource reads both datasets from one JSON, YAML or TOML file on every Load.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource constructs a source for path.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{path: path, logger: logger.With("component", "faqsource.file", "path", path)}
}

// Path returns the watched file.
func (s *FileSource) Path() string {
	return s.path
}

// Load reads and decodes the file, returning the audience's entries.
func (s *FileSource) Load(_ context.Context, audience faq.Audience) ([]faq.Entry, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read faq file: %w", err)
	}
	dataset, err := DecodeFile(s.path, raw)
	if err != nil {
		return nil, err
	}
	return dataset[audience], nil
}

// Watch calls onChange after the file is written, created or renamed into place.
// Bursts of events within debounce collapse into one call. It returns when ctx is done.
func (s *FileSource) Watch(ctx context.Context, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create faq watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so the directory is watched instead of the file.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)
	s.logger.Info("watching faq file")

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("faq watcher error", "error", err)
		case <-timer.C:
			s.logger.Info("faq file changed")
			onChange()
		}
	}
}

var _ faq.Source = (*FileSource)(nil)
