package types

// Config represents the main configuration for forklab.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Catalog CatalogConfig `yaml:"catalog"`
	Engine  EngineConfig  `yaml:"engine"`
}

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig defines persistence settings.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // Path to the sqlite database file
}

// CatalogConfig defines scenario/challenge content settings.
type CatalogConfig struct {
	Dir string `yaml:"dir"` // Directory of extra YAML catalog files (optional)
}

// EngineConfig defines simulation engine settings.
type EngineConfig struct {
	OrphanReparenting bool `yaml:"orphan_reparenting"` // Exit with live children orphans them instead of failing
	MaxNodes          int  `yaml:"max_nodes"`          // Upper bound on nodes per tree (0 = unlimited)
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    "./forklab.db",
		},
		Catalog: CatalogConfig{
			Dir: "",
		},
		Engine: EngineConfig{
			OrphanReparenting: true,
			MaxNodes:          64,
		},
	}
}
