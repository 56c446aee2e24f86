package model_test

import (
	"path/filepath"
	"testing"

	"github.com/nhle/tempmail/internal/model"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.API.BaseURL != "https://api.mail.tm" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSec != 15 {
		t.Errorf("TimeoutSec = %d", cfg.API.TimeoutSec)
	}
	if cfg.Display.PollIntervalSec != 2 {
		t.Errorf("PollIntervalSec = %d", cfg.Display.PollIntervalSec)
	}
	if cfg.Storage.Path == "" {
		t.Error("Storage.Path is empty")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	// First run writes the defaults into a directory that does not exist
	// yet; a later run must read the same values back.
	path := filepath.Join(t.TempDir(), "config", "tempmail", "config.yaml")

	cfg, err := model.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.API.BaseURL = "https://mail.example.com"
	cfg.Display.PollIntervalSec = 7

	if err := model.SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := model.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig after save: %v", err)
	}
	if got.API.BaseURL != "https://mail.example.com" {
		t.Errorf("BaseURL = %q", got.API.BaseURL)
	}
	if got.Display.PollIntervalSec != 7 {
		t.Errorf("PollIntervalSec = %d", got.Display.PollIntervalSec)
	}
	if got.API.TimeoutSec != 15 {
		t.Errorf("TimeoutSec = %d, want the default carried through", got.API.TimeoutSec)
	}
}
