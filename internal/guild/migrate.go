package guild

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate applies the guild settings schema using Gorm's AutoMigrate.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "guild.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying guild settings schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&Prefix{}, &AllowedChannel{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("guild settings schema migration failed")
		}
		return eris.Wrap(err, "auto migrating guild settings schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("guild settings schema migration complete")
	}

	return nil
}
