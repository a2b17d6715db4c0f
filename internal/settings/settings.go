// Package settings persists the backend base URL and keeps a live copy that
// the transport client reads on every request.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DefaultBaseURL is used while no endpoint has been configured.
const DefaultBaseURL = "https://wild-thunder-d361.siewertservices.workers.dev"

// Settings is the persisted endpoint configuration.
type Settings struct {
	APIBaseURL string `json:"api_base_url"`
}

// DefaultSettings points at the built-in endpoint.
func DefaultSettings() Settings {
	return Settings{APIBaseURL: DefaultBaseURL}
}

// NormalizeBaseURL trims the input, drops a trailing "/api" segment and any
// trailing slash. Input without scheme and host is rejected.
func NormalizeBaseURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, "/api")
	s = strings.TrimRight(s, "/")
	if s == "" {
		return "", errors.New("empty base url")
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base url %q: scheme must be http or https", s)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q: missing host", s)
	}
	return s, nil
}

// Load reads settings from path. A missing file or an empty api_base_url
// yields the default endpoint.
func Load(path string) (Settings, error) {
	if path == "" {
		return Settings{}, errors.New("empty settings path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}
	var s Settings
	if len(strings.TrimSpace(string(b))) > 0 {
		if err := json.Unmarshal(b, &s); err != nil {
			return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
		}
	}
	if strings.TrimSpace(s.APIBaseURL) == "" {
		s.APIBaseURL = DefaultBaseURL
	}
	return s, nil
}

// Save writes settings to path, creating parent directories if needed.
func Save(path string, s Settings) error {
	if path == "" {
		return errors.New("empty settings path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mk settings dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Store is the live endpoint configuration backed by a settings file.
type Store struct {
	path   string
	logger *log.Logger

	mu       sync.RWMutex
	current  Settings
	override string
}

// Open loads path into a Store. A nil logger discards output.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, logger: logger, current: s}, nil
}

// Path is the settings file location.
func (s *Store) Path() string { return s.path }

// BaseURL returns the override when one is set, else the stored endpoint.
func (s *Store) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.override != "" {
		return s.override
	}
	return s.current.APIBaseURL
}

// Settings returns the stored settings, without the override.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetOverride pins the endpoint for this process without persisting it. An
// empty value removes the override.
func (s *Store) SetOverride(raw string) error {
	var u string
	if strings.TrimSpace(raw) != "" {
		var err error
		if u, err = NormalizeBaseURL(raw); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.override = u
	s.mu.Unlock()
	return nil
}

// SetBaseURL normalizes and persists raw. An unusable value clears the stored
// endpoint, which falls back to the default on the next load, and is reported.
func (s *Store) SetBaseURL(raw string) error {
	u, normErr := NormalizeBaseURL(raw)

	s.mu.Lock()
	next := s.current
	next.APIBaseURL = u
	if err := Save(s.path, next); err != nil {
		s.mu.Unlock()
		return err
	}
	if u == "" {
		next.APIBaseURL = DefaultBaseURL
	}
	s.current = next
	s.mu.Unlock()

	if normErr != nil {
		s.logger.Printf("invalid base url %q cleared: %v", raw, normErr)
		return normErr
	}
	s.logger.Printf("base url set to %s", u)
	return nil
}

// Reload re-reads the settings file.
func (s *Store) Reload() error {
	next, err := Load(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	changed := next != s.current
	s.current = next
	s.mu.Unlock()
	if changed {
		s.logger.Printf("settings reloaded: base url %s", next.APIBaseURL)
	}
	return nil
}

// Watch reloads the store whenever the settings file changes, until ctx is
// done. The parent directory is watched so editors that replace the file are
// seen too.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mk settings dir: %w", err)
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch add: %w", err)
	}
	target := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Printf("reload settings: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				s.logger.Printf("watch error: %v", err)
			}
		}
	}
}
