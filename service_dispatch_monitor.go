package rolewatch

import (
	"sync"
	"sync/atomic"
	"time"
)

// DispatchMetrics provides event delivery statistics.
type DispatchMetrics struct {
	DispatchedEvents int64     `json:"dispatched_events"`
	PropagatedEvents int64     `json:"propagated_events"`
	SuppressedEvents int64     `json:"suppressed_events"`
	DeferredEvents   int64     `json:"deferred_events"`
	FailedDeliveries int64     `json:"failed_deliveries"`
	LastReset        time.Time `json:"last_reset"`
}

// dispatchMonitor holds the internal dispatch counters
type dispatchMonitor struct {
	dispatched int64
	propagated int64
	suppressed int64
	deferred   int64
	failed     int64
	lastReset  time.Time
	mu         sync.RWMutex
}

// newDispatchMonitor creates a new dispatch monitor
func newDispatchMonitor() *dispatchMonitor {
	return &dispatchMonitor{
		lastReset: time.Now(),
	}
}

// recordDispatched counts an event handed to the sink. Propagated events are
// counted in both totals.
func (dm *dispatchMonitor) recordDispatched(propagated bool) {
	atomic.AddInt64(&dm.dispatched, 1)
	if propagated {
		atomic.AddInt64(&dm.propagated, 1)
	}
}

// recordSuppressed counts an event dropped by a firing gate
func (dm *dispatchMonitor) recordSuppressed() {
	atomic.AddInt64(&dm.suppressed, 1)
}

// recordDeferred counts a mutation waiting for its holder to be saved
func (dm *dispatchMonitor) recordDeferred() {
	atomic.AddInt64(&dm.deferred, 1)
}

// recordFailure counts a reported delivery failure
func (dm *dispatchMonitor) recordFailure() {
	atomic.AddInt64(&dm.failed, 1)
}

// getMetrics returns the current dispatch metrics
func (dm *dispatchMonitor) getMetrics() DispatchMetrics {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	return DispatchMetrics{
		DispatchedEvents: atomic.LoadInt64(&dm.dispatched),
		PropagatedEvents: atomic.LoadInt64(&dm.propagated),
		SuppressedEvents: atomic.LoadInt64(&dm.suppressed),
		DeferredEvents:   atomic.LoadInt64(&dm.deferred),
		FailedDeliveries: atomic.LoadInt64(&dm.failed),
		LastReset:        dm.lastReset,
	}
}

// reset resets all metrics
func (dm *dispatchMonitor) reset() {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	atomic.StoreInt64(&dm.dispatched, 0)
	atomic.StoreInt64(&dm.propagated, 0)
	atomic.StoreInt64(&dm.suppressed, 0)
	atomic.StoreInt64(&dm.deferred, 0)
	atomic.StoreInt64(&dm.failed, 0)
	dm.lastReset = time.Now()
}
