package config

// LoggingConfig configures the session's zap logger, mirroring the
// teacher's internal/config/logging.go shape (level + debug toggle) cut
// down to what internal/logging.NewProduction needs.
type LoggingConfig struct {
	Level string `yaml:"level"` // not read by session.New: the logger runs at info, or debug when Debug is set
	Debug bool   `yaml:"debug"`
}
