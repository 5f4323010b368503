package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Defaults for settings a config file may leave out.
const (
	DefaultThumbnailSize    = 180
	DefaultThumbnailQuality = 85
	DefaultQueueSize        = 256
)

// Config represents the main configuration for hoard.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Database   DatabaseConfig   `toml:"database"`
	Storage    StorageConfig    `toml:"storage"`
	Thumbnail  ThumbnailConfig  `toml:"thumbnail"`
	Worker     WorkerConfig     `toml:"worker"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// FilesystemConfig holds filesystem-related settings.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore"`
}

// DatabaseConfig represents configuration for the archive database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// StorageConfig says where archived files and thumbnails are kept.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StorageConfig struct {
	Type          string `toml:"type"`                     // "filesystem" or "memory"
	FileRoot      string `toml:"file_root,omitempty"`      // only used for type=filesystem
	ThumbnailRoot string `toml:"thumbnail_root,omitempty"` // only used for type=filesystem
}

// ThumbnailConfig controls thumbnail generation at ingest.
type ThumbnailConfig struct {
	Enabled bool `toml:"enabled"`
	Size    int  `toml:"size"`    // bounding box edge in pixels
	Quality int  `toml:"quality"` // JPEG quality, 1-100
}

// WorkerConfig tunes the ingestion worker.
type WorkerConfig struct {
	QueueSize int `toml:"queue_size"` // capacity of the command and event queues
}

// NewConfig creates a new Config rooted at baseDir with every default filled in.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Storage: StorageConfig{
			Type:          "filesystem",
			FileRoot:      filepath.Join(baseDir, "files"),
			ThumbnailRoot: filepath.Join(baseDir, "thumbnails"),
		},
		Thumbnail: ThumbnailConfig{
			Enabled: true,
			Size:    DefaultThumbnailSize,
			Quality: DefaultThumbnailQuality,
		},
		Worker: WorkerConfig{QueueSize: DefaultQueueSize},
		Filesystem: FilesystemConfig{
			Ignore: []string{".git", ".DS_Store", "Thumbs.db"},
		},
	}
}

// applyDefaults fills numeric settings a hand-written file left at zero.
func (c *Config) applyDefaults() {
	if c.Thumbnail.Size <= 0 {
		c.Thumbnail.Size = DefaultThumbnailSize
	}
	if c.Thumbnail.Quality <= 0 {
		c.Thumbnail.Quality = DefaultThumbnailQuality
	}
	if c.Worker.QueueSize <= 0 {
		c.Worker.QueueSize = DefaultQueueSize
	}
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Thumbnail.Quality > 100 {
		return fmt.Errorf("thumbnail quality must be between 1 and 100, got %d", c.Thumbnail.Quality)
	}
	if c.Storage.Type == "filesystem" && (c.Storage.FileRoot == "" || c.Storage.ThumbnailRoot == "") {
		return fmt.Errorf("filesystem storage requires file_root and thumbnail_root")
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
