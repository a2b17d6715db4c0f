package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{in: "https://example.com", want: "https://example.com"},
		{in: "  https://example.com/  ", want: "https://example.com"},
		{in: "https://example.com/api", want: "https://example.com"},
		{in: "https://example.com/api/", want: "https://example.com"},
		{in: "https://example.com/v2", want: "https://example.com/v2"},
		{in: "http://localhost:8787/api", want: "http://localhost:8787"},
		{in: "", wantErr: true},
		{in: "example.com", wantErr: true},
		{in: "ftp://example.com", wantErr: true},
	}
	for _, tt := range tests {
		got, err := NormalizeBaseURL(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizeBaseURL(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeBaseURL(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s.APIBaseURL != DefaultBaseURL {
		t.Fatalf("expected default base url, got %q", s.APIBaseURL)
	}
}

func TestLoadEmptyValueReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"api_base_url":""}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s.APIBaseURL != DefaultBaseURL {
		t.Fatalf("expected default base url, got %q", s.APIBaseURL)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"api_base_url":`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for corrupt settings")
	}
}

func TestStoreSetBaseURLPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	st, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := st.SetBaseURL(" https://inkasso.example.com/api/ "); err != nil {
		t.Fatalf("SetBaseURL error: %v", err)
	}
	if got := st.BaseURL(); got != "https://inkasso.example.com" {
		t.Fatalf("BaseURL = %q", got)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.APIBaseURL != "https://inkasso.example.com" {
		t.Fatalf("persisted base url = %q", reloaded.APIBaseURL)
	}
}

func TestStoreSetBaseURLInvalidClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	st, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := st.SetBaseURL("https://custom.example.com"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetBaseURL("not a url"); err == nil {
		t.Fatal("expected error for invalid url")
	}
	if got := st.BaseURL(); got != DefaultBaseURL {
		t.Fatalf("BaseURL after invalid set = %q, want default", got)
	}
}

func TestStoreOverride(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "settings.json"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SetOverride("http://localhost:9000/"); err != nil {
		t.Fatal(err)
	}
	if got := st.BaseURL(); got != "http://localhost:9000" {
		t.Fatalf("BaseURL = %q", got)
	}
	if st.Settings().APIBaseURL != DefaultBaseURL {
		t.Fatalf("override must not change stored settings")
	}
	if err := st.SetOverride(""); err != nil {
		t.Fatal(err)
	}
	if got := st.BaseURL(); got != DefaultBaseURL {
		t.Fatalf("BaseURL after clearing override = %q", got)
	}
}

func TestStoreWatchPicksUpExternalChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	st, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- st.Watch(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for st.BaseURL() != "https://other.example.com" {
		if time.Now().After(deadline) {
			t.Fatalf("watch did not pick up change, BaseURL = %q", st.BaseURL())
		}
		// Rewrite until the watcher is registered and sees it.
		if err := Save(path, Settings{APIBaseURL: "https://other.example.com"}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
