package rolewatch

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Health performs a comprehensive health check of the database connection.
// Returns detailed status including latency and connection pool statistics.
func (s *DBStore) Health(ctx context.Context) dbkit.HealthStatus {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.Health(ctx)
	}

	// Inside a transaction only a basic ping is possible
	return dbkit.HealthStatus{
		Healthy: s.IsHealthy(ctx),
		Error:   "Limited health check - not a DBKit instance",
	}
}

// IsHealthy reports whether the database is reachable.
func (s *DBStore) IsHealthy(ctx context.Context) bool {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.IsHealthy(ctx)
	}
	return s.Ping(ctx) == nil
}

// PoolStats returns connection pool statistics for monitoring.
// Returns zero values when the store is bound to a transaction.
func (s *DBStore) PoolStats() dbkit.PoolStats {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return dbkit.PoolStatsFromSQL(db.Stats())
	}
	return dbkit.PoolStats{}
}

// Ping implements HealthChecker.
func (s *DBStore) Ping(ctx context.Context) error {
	var result int
	err := s.db.NewSelect().ColumnExpr("1").Scan(ctx, &result)
	if err != nil {
		return NewError(ErrDatabaseError, "ping failed").WithCause(err)
	}
	return nil
}
