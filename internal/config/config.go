// Package config handles exporter configuration loading and management.
package config

// Config holds all exporter settings.
type Config struct {
	Export   ExportConfig  `yaml:"export"`
	Textures TextureConfig `yaml:"textures"`
	Import   ImportConfig  `yaml:"import"`
	Logging  LoggingConfig `yaml:"logging"`
}

// ExportConfig controls how BOJ files are written.
type ExportConfig struct {
	AtomicWrite bool `yaml:"atomic_write"` // Write through a temp file and rename
	Validate    bool `yaml:"validate"`     // Check vertex indices before encoding
}

// TextureConfig controls how referenced textures are located and written.
type TextureConfig struct {
	SearchPaths []string `yaml:"search_paths"` // Directories searched for source images
	Archives    []string `yaml:"archives"`     // GRF archives searched after SearchPaths
	Overwrite   bool     `yaml:"overwrite"`    // Replace existing PNG files
	Strict      bool     `yaml:"strict"`       // Fail the export on missing textures
	MagentaKey  bool     `yaml:"magenta_key"`  // Treat pure magenta as transparent
}

// ImportConfig holds scene import settings.
type ImportConfig struct {
	PrimitiveCells int `yaml:"primitive_cells"` // Marching cubes resolution for generated primitives
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			AtomicWrite: false,
			Validate:    true,
		},
		Textures: TextureConfig{
			SearchPaths: []string{"."},
			Overwrite:   false,
			Strict:      false,
			MagentaKey:  true,
		},
		Import: ImportConfig{
			PrimitiveCells: 32,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
