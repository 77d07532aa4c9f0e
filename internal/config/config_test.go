package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Matching.TruncateLength != 46 {
		t.Errorf("TruncateLength = %d; want 46", cfg.Matching.TruncateLength)
	}
	if cfg.Folders.Library != "Library" || cfg.Folders.Albums != "Albums" {
		t.Errorf("unexpected folders %+v", cfg.Folders)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpexport.toml")
	content := `
[store]
path = "takeout.db"

[folders]
library = "Photos"

[push]
bucket = "photos"
workers = 4
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Path != "takeout.db" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.Folders.Library != "Photos" {
		t.Errorf("Folders.Library = %q", cfg.Folders.Library)
	}
	// untouched sections keep their defaults
	if cfg.Folders.Albums != "Albums" {
		t.Errorf("Folders.Albums = %q", cfg.Folders.Albums)
	}
	if cfg.Push.Workers != 4 || cfg.Push.Bucket != "photos" {
		t.Errorf("Push = %+v", cfg.Push)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "zero truncate length", content: "[matching]\ntruncate_length = 0\n"},
		{name: "empty library folder", content: "[folders]\nlibrary = \"\"\n"},
		{name: "bad toml", content: "[matching\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load() expected error for %s", tt.name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}
