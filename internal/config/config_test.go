package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Collection != "servies" || cfg.UI.NotificationTTL != 3*time.Second || cfg.UI.SearchCooldown != 3*time.Second {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.IsConfigured() {
		t.Fatal("no server URL configured")
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`server:
  url: http://catalog.local
api:
  collection: watchlog
  timeout: 5s
ui:
  search_debounce: 250ms
logging:
  level: DEBUG
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERVIES_SERVER_TOKEN", "from-env")
	t.Setenv("SERVIES_UI_PAGE_SIZE", "50")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.URL != "http://catalog.local" || cfg.Server.Token != "from-env" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.API.Collection != "watchlog" || cfg.API.Timeout != 5*time.Second {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.UI.SearchDebounce != 250*time.Millisecond || cfg.UI.PageSize != 50 || cfg.UI.SearchCooldown != 3*time.Second {
		t.Errorf("ui = %+v", cfg.UI)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Server.URL = "https://servies.example"
	cfg.API.Collection = "mine"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Server.URL != cfg.Server.URL || got.API.Collection != "mine" || got.UI.PageSize != cfg.UI.PageSize {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	_ = os.WriteFile(path, []byte("server: [unclosed"), 0644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
