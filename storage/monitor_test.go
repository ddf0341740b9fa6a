package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fill writes a single entry whose key+value length equals size.
func fill(t *testing.T, store *MemStore, key string, size int) {
	t.Helper()
	require.NoError(t, store.Set(key, strings.Repeat("x", size-len(key))))
}

func TestUsageCountsKeyAndValueLengths(t *testing.T) {
	store := NewMemStore(1000)
	monitor := NewMonitor(store, zap.NewNop())

	require.NoError(t, store.Set("abc", "defgh"))

	u := monitor.Usage()
	assert.Equal(t, int64(8), u.UsedBytes)
	assert.Equal(t, int64(1000), u.CapacityBytes)
	assert.Equal(t, 0, u.PercentageUsed)
	assert.Equal(t, StatusHealthy, u.Status)
}

func TestUsageCountsEveryKey(t *testing.T) {
	store := NewMemStore(1000)
	monitor := NewMonitor(store, zap.NewNop())

	fill(t, store, ProjectsKey, 100)
	fill(t, store, "user_preferences", 100)
	fill(t, store, "unrelated_feature", 100)

	u := monitor.Usage()
	assert.Equal(t, int64(300), u.UsedBytes, "all keys share the budget, not just projects")
	assert.Equal(t, 30, u.PercentageUsed)
}

func TestUsageStatusThresholds(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		percent int
		status  Status
	}{
		{"healthy below warning", 690, 69, StatusHealthy},
		{"warning at 70", 700, 70, StatusWarning},
		{"warning below critical", 890, 89, StatusWarning},
		{"critical at 90", 900, 90, StatusCritical},
		{"critical at ceiling", 1000, 100, StatusCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewMemStore(1000)
			fill(t, store, "k", tc.size)

			u := NewMonitor(store, zap.NewNop()).Usage()
			assert.Equal(t, tc.percent, u.PercentageUsed)
			assert.Equal(t, tc.status, u.Status)
			assert.NotEmpty(t, u.Message)
		})
	}
}

func TestUsagePercentClampedAtHundred(t *testing.T) {
	// Capacity shrank below existing content, e.g. after a config change.
	store := NewMemStore(1 << 20)
	fill(t, store, "k", 500)
	store.capacity = 100

	u := NewMonitor(store, zap.NewNop()).Usage()
	assert.Equal(t, 100, u.PercentageUsed)
	assert.Equal(t, StatusCritical, u.Status)
}

func TestUsageEmptyStore(t *testing.T) {
	u := NewMonitor(NewMemStore(1000), zap.NewNop()).Usage()
	assert.Equal(t, int64(0), u.UsedBytes)
	assert.Equal(t, 0, u.PercentageUsed)
	assert.Equal(t, StatusHealthy, u.Status)
}

func TestQuotaMonotonicity(t *testing.T) {
	repo, store := newTestRepo(1 << 20)
	monitor := NewMonitor(store, zap.NewNop())

	prev := monitor.Usage().UsedBytes
	for i := 0; i < 5; i++ {
		p := sampleProject("Mono")
		p.ScriptText = strings.Repeat("evidence ", 100*(i+1))
		require.True(t, repo.Save(p))

		used := monitor.Usage().UsedBytes
		assert.Greater(t, used, prev, "adding projects must grow reported usage")
		prev = used
	}
}

func TestMonitorStartReportsAndStops(t *testing.T) {
	store := NewMemStore(1000)
	fill(t, store, "k", 950)
	monitor := NewMonitor(store, zap.NewNop())

	reports := make(chan Usage, 16)
	stop := monitor.Start(5*time.Millisecond, func(u Usage) { reports <- u })

	select {
	case u := <-reports:
		assert.Equal(t, StatusCritical, u.Status)
	case <-time.After(time.Second):
		t.Fatal("monitor never reported")
	}
	stop()
	stop() // idempotent
}
