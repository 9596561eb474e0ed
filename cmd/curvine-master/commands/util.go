package commands

import (
	"github.com/curviron/master/internal/config"
	"github.com/curviron/master/internal/logger"
)

// InitLogger configures the global logger from loaded configuration.
func InitLogger(cfg *config.Config) error {
	return logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}
