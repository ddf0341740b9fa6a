package storage

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"truecrime-studio/models"
)

type saveCounter struct {
	count int32
}

func (c *saveCounter) save(*models.Project) bool {
	atomic.AddInt32(&c.count, 1)
	return true
}

func (c *saveCounter) total() int32 {
	return atomic.LoadInt32(&c.count)
}

func contentSnapshot() *models.Project {
	return &models.Project{ID: "project-1", Name: "Snap", ScriptText: "something"}
}

func TestSchedulerCoalescesBurst(t *testing.T) {
	counter := &saveCounter{}
	sched := NewScheduler(30*time.Millisecond, contentSnapshot, counter.save, zap.NewNop())
	defer sched.Dispose()

	for i := 0; i < 20; i++ {
		sched.NotifyChange()
		time.Sleep(time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), counter.total(), "a burst of edits produces exactly one save")
}

func TestSchedulerSavesPerQuietPeriod(t *testing.T) {
	counter := &saveCounter{}
	sched := NewScheduler(10*time.Millisecond, contentSnapshot, counter.save, zap.NewNop())
	defer sched.Dispose()

	for i := 0; i < 3; i++ {
		sched.NotifyChange()
		time.Sleep(50 * time.Millisecond)
	}

	assert.Equal(t, int32(3), counter.total(), "edits separated by quiet windows each save")
}

func TestSchedulerSkipsEmptySnapshot(t *testing.T) {
	counter := &saveCounter{}
	sched := NewScheduler(10*time.Millisecond, func() *models.Project {
		return &models.Project{ID: "project-1", Name: "Untitled"}
	}, counter.save, zap.NewNop())
	defer sched.Dispose()

	sched.NotifyChange()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), counter.total(), "contentless state is never persisted")
}

func TestSchedulerSkipsNilSnapshot(t *testing.T) {
	counter := &saveCounter{}
	sched := NewScheduler(10*time.Millisecond, func() *models.Project { return nil }, counter.save, zap.NewNop())
	defer sched.Dispose()

	sched.NotifyChange()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), counter.total())
}

func TestSchedulerFlushSavesImmediately(t *testing.T) {
	counter := &saveCounter{}
	sched := NewScheduler(time.Hour, contentSnapshot, counter.save, zap.NewNop())
	defer sched.Dispose()

	sched.NotifyChange()
	sched.Flush()
	assert.Equal(t, int32(1), counter.total())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), counter.total(), "flush cancels the pending timer")
}

func TestSchedulerDisposeCancelsPending(t *testing.T) {
	counter := &saveCounter{}
	sched := NewScheduler(20*time.Millisecond, contentSnapshot, counter.save, zap.NewNop())

	sched.NotifyChange()
	sched.Dispose()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), counter.total(), "no save fires after dispose")

	sched.NotifyChange()
	sched.Flush()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), counter.total(), "disposed scheduler stays inert")
}

func TestSchedulerDisposeWaitsOutInFlightSave(t *testing.T) {
	counter := &saveCounter{}
	entered := make(chan struct{})
	release := make(chan struct{})
	snapshot := func() *models.Project {
		close(entered)
		<-release
		return contentSnapshot()
	}
	sched := NewScheduler(time.Millisecond, snapshot, counter.save, zap.NewNop())

	sched.NotifyChange()
	<-entered

	disposed := make(chan struct{})
	go func() {
		sched.Dispose()
		close(disposed)
	}()

	select {
	case <-disposed:
		t.Fatal("Dispose returned while a save was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-disposed:
	case <-time.After(time.Second):
		t.Fatal("Dispose never returned")
	}

	assert.Equal(t, int32(1), counter.total(), "the in-flight save lands before Dispose returns")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), counter.total(), "nothing fires once Dispose has returned")
}

func TestCreateEditReload(t *testing.T) {
	repo, _ := newTestRepo(1 << 20)

	// Session-level state the scheduler observes.
	current := &models.Project{Name: "The Vanishing", CurrentPhase: models.PhaseScript}
	sched := NewScheduler(10*time.Millisecond,
		func() *models.Project {
			copied := *current
			return &copied
		},
		func(p *models.Project) bool {
			if !repo.Save(p) {
				return false
			}
			current.ID = p.ID
			current.CreatedAt = p.CreatedAt
			return true
		},
		zap.NewNop())
	defer sched.Dispose()

	// Typing a long script in several edits within one window.
	words := strings.Repeat("midnight confession riverbank detective alibi ", 300)
	for i := 1; i <= 4; i++ {
		current.ScriptText = words[:len(words)*i/4]
		sched.NotifyChange()
	}

	require.Eventually(t, func() bool { return current.ID != "" }, time.Second, 5*time.Millisecond)

	reloaded := repo.Get(current.ID)
	require.NotNil(t, reloaded)
	assert.Equal(t, "The Vanishing", reloaded.Name)
	assert.Equal(t, models.PhaseScript, reloaded.CurrentPhase)
	assert.Equal(t, words, reloaded.ScriptText, "reload returns the final edit, not an intermediate one")
	require.Len(t, repo.GetAll(), 1, "autosaves of one session never duplicate the project")
}
