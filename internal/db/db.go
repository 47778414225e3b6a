package db

import (
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gigfolio/gigfolio_be/internal/logger"
	"github.com/gigfolio/gigfolio_be/internal/models"
)

// Connect opens the postgres pool.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
		Logger: gormlogger.New(slog.NewLogLogger(logger.Get().Handler(), slog.LevelInfo), gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.PortfolioSubmission{},
		&models.Cart{},
		&models.Booking{},
		&models.Transaction{},
		&models.PointsTransaction{},
	)
}
