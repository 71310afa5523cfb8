package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestAddRecent(t *testing.T) {
	tests := []struct {
		name     string
		list     []string
		item     string
		max      int
		expected []string
	}{
		{"empty list", []string{}, "Reports", 9, []string{"Reports"}},
		{"moves duplicate to front", []string{"A", "B", "C"}, "B", 9, []string{"B", "A", "C"}},
		{"truncates", []string{"A", "B", "C"}, "D", 3, []string{"D", "A", "B"}},
		{"ignores empty", []string{"A"}, "", 9, []string{"A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddRecent(tt.list, tt.item, tt.max); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("AddRecent() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "none.json"))
	if cfg.Timeout != 30*time.Second || cfg.LogLevel != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.RecentFolders == nil {
		t.Error("RecentFolders should be non-nil")
	}
}

func TestLoadCorruptFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := Load(path)
	if cfg.BaseURL != Defaults().BaseURL {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	cfg := Load(path)
	cfg.BaseURL = "http://docs.example:9000"
	cfg.RememberFolder("Reports")
	cfg.RememberFolder("Invoices")
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got := Load(path)
	if got.BaseURL != "http://docs.example:9000" {
		t.Errorf("BaseURL = %q", got.BaseURL)
	}
	if !reflect.DeepEqual(got.RecentFolders, []string{"Invoices", "Reports"}) {
		t.Errorf("RecentFolders = %v", got.RecentFolders)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOCEXPLORER_BASE_URL", "http://env:1")
	t.Setenv("DOCEXPLORER_ROLE", "superAdmin")
	t.Setenv("DOCEXPLORER_TIMEOUT", "5s")
	t.Setenv("DOCEXPLORER_PRESERVE_EXPANSION", "true")
	t.Setenv("DOCEXPLORER_EMULATOR_HOST", "10.0.2.2")

	cfg := Load(filepath.Join(t.TempDir(), "cfg.json"))
	if cfg.BaseURL != "http://env:1" || cfg.Role != "superAdmin" || cfg.EmulatorHost != "10.0.2.2" {
		t.Errorf("string overrides not applied: %+v", cfg)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if !cfg.PreserveExpansion {
		t.Error("PreserveExpansion not applied")
	}
}

func TestEnvInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DOCEXPLORER_TIMEOUT", "soon")
	t.Setenv("DOCEXPLORER_PRESERVE_EXPANSION", "maybe")

	cfg := Load(filepath.Join(t.TempDir(), "cfg.json"))
	if cfg.Timeout != 30*time.Second || cfg.PreserveExpansion {
		t.Errorf("invalid env values should fall back: %+v", cfg)
	}
}

func TestSaveLeavesEnvOverridesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(`{"base_url": "http://file:1", "user_id": "u1"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOCEXPLORER_TOKEN", "secret-env-token")
	t.Setenv("DOCEXPLORER_BASE_URL", "http://staging:9999")
	t.Setenv("DOCEXPLORER_TIMEOUT", "5s")

	cfg := Load(path)
	if cfg.Token != "secret-env-token" || cfg.BaseURL != "http://staging:9999" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	cfg.RememberFolder("Reports")
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, leaked := range []string{"secret-env-token", "staging", `"5s"`} {
		if strings.Contains(string(data), leaked) {
			t.Errorf("saved file contains %q:\n%s", leaked, data)
		}
	}

	os.Unsetenv("DOCEXPLORER_TOKEN")
	os.Unsetenv("DOCEXPLORER_BASE_URL")
	os.Unsetenv("DOCEXPLORER_TIMEOUT")
	got := Load(path)
	if got.BaseURL != "http://file:1" || got.Token != "" || got.UserID != "u1" || got.Timeout != 30*time.Second {
		t.Errorf("reloaded config = %+v", got)
	}
	if !reflect.DeepEqual(got.RecentFolders, []string{"Reports"}) {
		t.Errorf("RecentFolders = %v", got.RecentFolders)
	}
}

func TestTimeoutFormats(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected time.Duration
	}{
		{"duration string", `{"user_id": "u1", "timeout": "45s"}`, 45 * time.Second},
		{"integer nanoseconds", `{"user_id": "u1", "timeout": 2000000000}`, 2 * time.Second},
		{"invalid string keeps default", `{"user_id": "u1", "timeout": "soon"}`, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.json")
			if err := os.WriteFile(path, []byte(tt.json), 0o600); err != nil {
				t.Fatal(err)
			}
			cfg := Load(path)
			if cfg.UserID != "u1" {
				t.Errorf("file dropped: %+v", cfg)
			}
			if cfg.Timeout != tt.expected {
				t.Errorf("Timeout = %v, want %v", cfg.Timeout, tt.expected)
			}
		})
	}
}

func TestSaveWritesTimeoutAsString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	cfg := Load(path)
	cfg.Timeout = 90 * time.Second
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"timeout": "1m30s"`) {
		t.Errorf("timeout not written as a duration:\n%s", data)
	}
	if got := Load(path); got.Timeout != 90*time.Second {
		t.Errorf("reloaded Timeout = %v", got.Timeout)
	}
}
