// Package config handles post-processor configuration loading and management.
package config

// Config holds all post-processor settings.
type Config struct {
	Thumbnails ThumbnailConfig `yaml:"thumbnails"`
	Klipper    KlipperConfig   `yaml:"klipper"`
	Logging    LoggingConfig   `yaml:"logging"`
}

// SizeConfig is one requested thumbnail size in pixels.
type SizeConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ThumbnailConfig holds preview rendering and embedding settings.
type ThumbnailConfig struct {
	Enabled bool `yaml:"enabled"`
	// Sizes are emitted in order into the G-code header.
	Sizes     []SizeConfig `yaml:"sizes"`
	FaceColor string       `yaml:"face_color"`
	EdgeColor string       `yaml:"edge_color"`
	// AnchorPrefix locates the slicer comment line the header replaces.
	AnchorPrefix string `yaml:"anchor_prefix"`
}

// KlipperConfig holds firmware annotation settings.
type KlipperConfig struct {
	Metadata      bool `yaml:"metadata"`
	LayerProgress bool `yaml:"layer_progress"`
	Timelapse     bool `yaml:"timelapse"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Thumbnails: ThumbnailConfig{
			Enabled: true,
			Sizes: []SizeConfig{
				{Width: 32, Height: 32},
				{Width: 300, Height: 300},
			},
			FaceColor:    "#FF6B35",
			EdgeColor:    "#1A1A1A",
			AnchorPrefix: ";Generated",
		},
		Klipper: KlipperConfig{
			Metadata:      true,
			LayerProgress: true,
			Timelapse:     true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
