package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable of an export run
type Config struct {
	Store    Store    `toml:"store"`
	Matching Matching `toml:"matching"`
	Folders  Folders  `toml:"folders"`
	Push     Push     `toml:"push"`
}

// Store locates the record store on disk
type Store struct {
	Path string `toml:"path"`
}

// Matching holds the naming conventions used by the indexer, extractor and matcher
type Matching struct {
	EditedMarker    string   `toml:"edited_marker"`
	AccountMarker   string   `toml:"account_marker"`
	TruncateLength  int      `toml:"truncate_length"`
	NoMediaMarkers  []string `toml:"no_media_markers"`
	AlbumMetaMarker string   `toml:"album_meta_marker"`
}

// Folders is the destination taxonomy
type Folders struct {
	ExportBase    string `toml:"export_base"`
	Library       string `toml:"library"`
	Albums        string `toml:"albums"`
	Trash         string `toml:"trash"`
	Hangouts      string `toml:"hangouts"`
	HangoutPrefix string `toml:"hangout_prefix"`
}

// Push configures the optional bucket upload of the exported tree
type Push struct {
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Folder    string `toml:"folder"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Workers   int    `toml:"workers"`
	Secure    bool   `toml:"secure"`
}

// Default returns the conventions of Google Takeout exports
func Default() *Config {
	return &Config{
		Store: Store{Path: "data.db"},
		Matching: Matching{
			EditedMarker:    "-edited",
			AccountMarker:   "account_id",
			TruncateLength:  46,
			NoMediaMarkers:  []string{"print-subscriptions", "shared_album_comments"},
			AlbumMetaMarker: "metadata",
		},
		Folders: Folders{
			ExportBase:    "GPhotos",
			Library:       "Library",
			Albums:        "Albums",
			Trash:         "Trashed",
			Hangouts:      "Hangouts",
			HangoutPrefix: "Hangout_",
		},
		Push: Push{
			Workers: 16,
			Secure:  true,
		},
	}
}

// Load reads a TOML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would make the heuristics meaningless
func (c *Config) Validate() error {
	if c.Matching.TruncateLength <= 0 {
		return fmt.Errorf("matching.truncate_length must be positive, got %d", c.Matching.TruncateLength)
	}
	if c.Matching.EditedMarker == "" {
		return fmt.Errorf("matching.edited_marker must not be empty")
	}
	for name, v := range map[string]string{
		"folders.library":  c.Folders.Library,
		"folders.albums":   c.Folders.Albums,
		"folders.trash":    c.Folders.Trash,
		"folders.hangouts": c.Folders.Hangouts,
	} {
		if v == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}
	if c.Push.Workers <= 0 {
		c.Push.Workers = 1
	}
	return nil
}
