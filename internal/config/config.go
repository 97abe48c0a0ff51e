package config

// Config is the resolved service configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Catalog   CatalogConfig
	Selection SelectionConfig
	Export    ExportConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port     int
	MaxConns int
}

type StorageConfig struct {
	DataDir string
}

// CatalogConfig points at a catalog document. An empty Path selects the
// embedded default catalog.
type CatalogConfig struct {
	Path string
}

type SelectionConfig struct {
	AutoSchedule bool
}

type ExportConfig struct {
	ColumnPadding int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:     4100,
			MaxConns: 64,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Export: ExportConfig{
			ColumnPadding: 2,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend and environment
// variables.
//
// On macOS the backend is UserDefaults (domain: com.sparelist.app).
// Elsewhere it is a JSON file at $XDG_CONFIG_HOME/sparelist/config.json.
//
// Environment variables (SPARELIST_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}
