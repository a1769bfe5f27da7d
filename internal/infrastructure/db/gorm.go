package db

import (
	"log"
	"time"

	"prescreen-engine/internal/domain/audit"
	"prescreen-engine/internal/domain/batch"
	"prescreen-engine/internal/domain/lead"
	"prescreen-engine/internal/domain/program"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func OpenGorm(dsn string) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn))
}

func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	log.Println("gorm: connected")
	return db, nil
}

// Migrate brings the schema up to date. Results and audit entries are
// append-only tables; nothing here ever drops or rewrites their rows.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&lead.Lead{},
		&lead.Result{},
		&lead.HardPull{},
		&batch.Batch{},
		&program.Program{},
		&audit.Entry{},
	)
}
