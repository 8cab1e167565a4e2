package db

import (
	"fmt"

	"github.com/rckrdmrd/glit-backend-sub002/config"
	dbmysql "github.com/rckrdmrd/glit-backend-sub002/db/mysql"
	dbpostgres "github.com/rckrdmrd/glit-backend-sub002/db/postgres"
	dbsqlite "github.com/rckrdmrd/glit-backend-sub002/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeSQLite   = "sqlite"
	ModeMySQL    = "mysql"
	ModePostgres = "postgres"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLife)
	case ModePostgres:
		return dbpostgres.Open(dbpostgres.Options{
			DSN:         cfg.PostgresDSN,
			ReplicaDSNs: cfg.ReplicaDSNs,
			MaxOpen:     cfg.MaxOpenConns,
			MaxIdle:     cfg.MaxIdleConns,
			MaxLife:     cfg.ConnMaxLife,
		})
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
