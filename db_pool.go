package rolewatch

import (
	"time"

	"github.com/fernandezvara/dbkit"
)

// PoolConfig holds connection pool settings for DBStore.
type PoolConfig struct {
	MaxOpenConnections    int           `envconfig:"MAX_OPEN_CONNS" default:"25" validate:"gte=1"`
	MaxIdleConnections    int           `envconfig:"MAX_IDLE_CONNS" default:"5" validate:"gte=0"`
	ConnectionMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"30m"`
	ConnectionMaxIdleTime time.Duration `envconfig:"CONN_MAX_IDLE_TIME" default:"5m"`
}

// DefaultPoolConfig returns pool settings suited to most services.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConnections:    25,
		MaxIdleConnections:    5,
		ConnectionMaxLifetime: 30 * time.Minute,
		ConnectionMaxIdleTime: 5 * time.Minute,
	}
}

// ConfigurePool updates the database connection pool settings.
func (s *DBStore) ConfigurePool(cfg PoolConfig) error {
	db, ok := s.db.(*dbkit.DBKit)
	if !ok {
		return NewError(ErrNoTransaction, "pool configuration requires a dbkit.DBKit instance")
	}

	bunDB := db.Bun()
	if bunDB == nil {
		return NewError(ErrDatabaseError, "database instance not available")
	}

	bunDB.SetMaxOpenConns(cfg.MaxOpenConnections)
	bunDB.SetMaxIdleConns(cfg.MaxIdleConnections)
	bunDB.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)
	bunDB.SetConnMaxIdleTime(cfg.ConnectionMaxIdleTime)
	return nil
}
