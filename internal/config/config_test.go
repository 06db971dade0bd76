package config

import (
	"testing"
	"time"
)

func TestGetenv(t *testing.T) {
	t.Setenv("TEST_GETENV", "value")

	if got := getenv("TEST_GETENV", "def"); got != "value" {
		t.Errorf("getenv() = %q, want %q", got, "value")
	}
	if got := getenv("TEST_GETENV_MISSING", "def"); got != "def" {
		t.Errorf("getenv() = %q, want default", got)
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   time.Duration
		want  time.Duration
	}{
		{name: "valid duration", value: "30s", def: 5 * time.Second, want: 30 * time.Second},
		{name: "invalid duration falls back", value: "nope", def: 5 * time.Second, want: 5 * time.Second},
		{name: "empty falls back", value: "", def: 5 * time.Second, want: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_DURATION", tt.value)
			}
			if got := mustDuration("TEST_DURATION", tt.def); got != tt.want {
				t.Errorf("mustDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "false")
	if got := mustBool("TEST_BOOL", true); got != false {
		t.Errorf("mustBool() = %v, want false", got)
	}

	t.Setenv("TEST_BOOL", "garbage")
	if got := mustBool("TEST_BOOL", true); got != true {
		t.Errorf("mustBool(garbage) = %v, want default true", got)
	}
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := getenvInt("TEST_INT", 7); got != 42 {
		t.Errorf("getenvInt() = %d, want 42", got)
	}

	t.Setenv("TEST_INT", "notanumber")
	if got := getenvInt("TEST_INT", 7); got != 7 {
		t.Errorf("getenvInt(invalid) = %d, want default 7", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.Username != "guest" {
		t.Errorf("Username = %q, want guest", cfg.Username)
	}
	if cfg.StoreBackend != "sqlite" {
		t.Errorf("StoreBackend = %q, want sqlite", cfg.StoreBackend)
	}
	if cfg.CatalogTimeout != 10*time.Second {
		t.Errorf("CatalogTimeout = %v, want 10s", cfg.CatalogTimeout)
	}
	if cfg.Ephemeral {
		t.Errorf("Ephemeral = true, want false by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TT_USERNAME", "alice")
	t.Setenv("TT_STORE_BACKEND", "memory")
	t.Setenv("TT_EPHEMERAL", "true")
	t.Setenv("TT_CATALOG_TIMEOUT", "3s")

	cfg := Load()

	if cfg.Username != "alice" {
		t.Errorf("Username = %q, want alice", cfg.Username)
	}
	if cfg.StoreBackend != "memory" {
		t.Errorf("StoreBackend = %q, want memory", cfg.StoreBackend)
	}
	if !cfg.Ephemeral {
		t.Errorf("Ephemeral = false, want true")
	}
	if cfg.CatalogTimeout != 3*time.Second {
		t.Errorf("CatalogTimeout = %v, want 3s", cfg.CatalogTimeout)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("TT_STORE_BACKEND", "cassandra")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked on unknown backend")
		}
	}()
	Load()
}
