package storage

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status classification thresholds, percent of the capacity ceiling. Fixed
// policy constants, deliberately not per-instance configuration.
const (
	WarningThresholdPercent  = 70
	CriticalThresholdPercent = 90
)

type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Usage is a point-in-time report of store consumption.
type Usage struct {
	UsedBytes      int64  `json:"usedBytes"`
	UsedKB         int64  `json:"usedKB"`
	CapacityBytes  int64  `json:"capacityBytes"`
	PercentageUsed int    `json:"percentageUsed"`
	Status         Status `json:"status"`
	Message        string `json:"message"`
}

// Monitor computes store usage against the capacity ceiling. The scan
// measures every key in the store, not just the project namespace, because
// other features' records consume the same budget. It only measures string
// lengths, never parses values, so polling it from a foreground loop is
// cheap.
type Monitor struct {
	store KVStore
	log   *zap.Logger
}

func NewMonitor(store KVStore, log *zap.Logger) *Monitor {
	return &Monitor{store: store, log: log}
}

func (m *Monitor) Usage() Usage {
	used := StoreUsedBytes(m.store)
	capacity := m.store.Capacity()

	percent := 0
	if capacity > 0 {
		percent = int(used * 100 / capacity)
	}
	if percent > 100 {
		percent = 100
	}

	u := Usage{
		UsedBytes:      used,
		UsedKB:         used / 1024,
		CapacityBytes:  capacity,
		PercentageUsed: percent,
		Status:         StatusHealthy,
	}
	switch {
	case percent >= CriticalThresholdPercent:
		u.Status = StatusCritical
		u.Message = fmt.Sprintf("Critical: %dKB used (%d%%). Please delete old projects.", u.UsedKB, percent)
	case percent >= WarningThresholdPercent:
		u.Status = StatusWarning
		u.Message = fmt.Sprintf("Warning: %dKB used (%d%%). Consider deleting old projects.", u.UsedKB, percent)
	default:
		u.Message = fmt.Sprintf("%dKB used (%d%%)", u.UsedKB, percent)
	}
	return u
}

// Start polls usage on the given interval and invokes onStatus with each
// report. The returned stop function cancels the poll; it is idempotent and
// must be called on teardown.
func (m *Monitor) Start(interval time.Duration, onStatus func(Usage)) (stop func()) {
	done := make(chan struct{})
	var once sync.Once
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				u := m.Usage()
				if u.Status != StatusHealthy {
					m.log.Warn("storage pressure",
						zap.String("status", string(u.Status)),
						zap.Int("percent", u.PercentageUsed),
						zap.Int64("used_kb", u.UsedKB))
				}
				if onStatus != nil {
					onStatus(u)
				}
			}
		}
	}()
	return func() { once.Do(func() { close(done) }) }
}
