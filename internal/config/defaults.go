package config

// Default scenario reference point and media attribution, matching the
// baseline seed data shipped with the demo.
const (
	DefaultRefLat   = 48.247165
	DefaultRefLon   = 39.950965
	DefaultMediaRef = "/media/airbushlt_rus_trs_trad.mkv"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Storage.Driver == "" {
		if cfg.Storage.DatabaseURL != "" {
			cfg.Storage.Driver = "postgres"
		} else {
			cfg.Storage.Driver = "sqlite"
		}
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/c2demo.db"
	}
	if cfg.Scenario.SeedPath == "" {
		cfg.Scenario.SeedPath = "./seeds/baseline.sql"
	}
	if cfg.Scenario.BackupDir == "" {
		cfg.Scenario.BackupDir = "./backups"
	}
	if cfg.Scenario.RestoreScope == "" {
		cfg.Scenario.RestoreScope = "units"
	}
	if cfg.Chat.MediaRef == "" {
		cfg.Chat.MediaRef = DefaultMediaRef
	}
	if cfg.Chat.RefLat == 0 && cfg.Chat.RefLon == 0 {
		cfg.Chat.RefLat = DefaultRefLat
		cfg.Chat.RefLon = DefaultRefLon
	}
}
