package config

// DefaultExtensions are the inbox file types picked up by the importer.
var DefaultExtensions = []string{".json", ".csv", ".xlsx", ".pdf", ".docx", ".rtf", ".odt", ".txt"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 60
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/predicate/data/predicate.db"
	}
	cfg.Ranking.ApplyDefaults()
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = 5000
	}
	if cfg.Import.Extensions == nil {
		cfg.Import.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if cfg.Import.DebounceMillis == 0 {
		cfg.Import.DebounceMillis = 500
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Import.Directories) > 0 && cfg.Import.Recursive == nil {
		t := true
		cfg.Import.Recursive = &t
	}
}
