package drivers

import (
	"log"
	"os"
	"time"

	"gorm.io/gorm/logger"
)

// NewGormLogger builds the SQL logger for a level name: "info" shows every
// statement, "warn" slow statements and errors, "error" only errors.
// Anything else is silent.
func NewGormLogger(logLevel string) logger.Interface {
	var level logger.LogLevel
	switch logLevel {
	case "info":
		level = logger.Info
	case "warn":
		level = logger.Warn
	case "error":
		level = logger.Error
	default:
		return logger.Default.LogMode(logger.Silent)
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
}
