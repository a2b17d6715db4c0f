// Package credentials stores the single bearer token used against the
// backend.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Fixed key under which the token is kept.
const (
	Service = "com.siewertsolutions.InkassoApp"
	Account = "apiBearerToken"
)

// EnvToken is the environment variable EnvStore reads.
const EnvToken = "INKASSO_API_TOKEN"

var (
	// ErrReadOnly is returned by stores that cannot be written.
	ErrReadOnly = errors.New("credential store is read-only")
	// ErrUnavailable is returned when the backing secret service cannot be
	// reached, e.g. on a headless machine without a keyring daemon.
	ErrUnavailable = errors.New("credential store unavailable")
)

// Store holds at most one token. Load returns "" and no error when nothing is
// stored.
type Store interface {
	Save(token string) error
	Load() (string, error)
	Delete() error
}

// FileStore keeps the token in a JSON file readable only by the owner. It is
// the fallback where no system keyring is available.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileEntry struct {
	Service string `json:"service"`
	Account string `json:"account"`
	Token   string `json:"token"`
}

// NewFileStore returns a store backed by path. The file is created on Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath is credentials.json in the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "inkasso", "credentials.json"), nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("refusing to store an empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("mk credentials dir: %w", err)
	}
	data, err := json.MarshalIndent(fileEntry{Service: Service, Account: Account, Token: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace credentials: %w", err)
	}
	return nil
}

func (s *FileStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read credentials: %w", err)
	}
	var e fileEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return "", fmt.Errorf("unmarshal credentials: %w", err)
	}
	if e.Service != Service || e.Account != Account {
		return "", nil
	}
	return e.Token, nil
}

// Delete removes the token. Deleting a missing token is not an error.
func (s *FileStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

// EnvStore reads the token from the environment.
type EnvStore struct {
	Var string
}

func (e EnvStore) name() string {
	if e.Var == "" {
		return EnvToken
	}
	return e.Var
}

func (e EnvStore) Save(string) error { return ErrReadOnly }

func (e EnvStore) Load() (string, error) {
	return strings.TrimSpace(os.Getenv(e.name())), nil
}

func (e EnvStore) Delete() error { return ErrReadOnly }

// Chain tries its stores in order: env, then the system keyring, then the
// file. Stores that are read-only or unavailable are skipped.
type Chain []Store

func skippable(err error) bool {
	return errors.Is(err, ErrReadOnly) || errors.Is(err, ErrUnavailable)
}

func (c Chain) Load() (string, error) {
	token, _, err := c.Find()
	return token, err
}

// Find returns the first stored token and the store holding it.
func (c Chain) Find() (string, Store, error) {
	for _, s := range c {
		token, err := s.Load()
		if skippable(err) {
			continue
		}
		if err != nil {
			return "", nil, err
		}
		if token != "" {
			return token, s, nil
		}
	}
	return "", nil, nil
}

func (c Chain) Save(token string) error {
	_, err := c.SaveTo(token)
	return err
}

// SaveTo writes token to the first store that accepts it and returns that
// store.
func (c Chain) SaveTo(token string) (Store, error) {
	for _, s := range c {
		err := s.Save(token)
		if skippable(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, ErrReadOnly
}

// Delete removes the token from every writable store so no stale copy is
// picked up later.
func (c Chain) Delete() error {
	deleted := false
	for _, s := range c {
		err := s.Delete()
		if skippable(err) {
			continue
		}
		if err != nil {
			return err
		}
		deleted = true
	}
	if !deleted {
		return ErrReadOnly
	}
	return nil
}

// Describe names where a store keeps the token, for user output.
func Describe(s Store) string {
	switch st := s.(type) {
	case EnvStore:
		return st.name()
	case KeyringStore:
		return "system keyring"
	case *FileStore:
		return st.Path()
	default:
		return fmt.Sprintf("%T", s)
	}
}

// Token adapts a Store to the transport token source.
type Token struct {
	Store Store
}

func (t Token) Token() (string, error) { return t.Store.Load() }

// Mask shows only the edges of a token.
func Mask(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
