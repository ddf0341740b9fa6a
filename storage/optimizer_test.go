package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"truecrime-studio/models"
)

func newTestOptimizer(capacity int64) (*Optimizer, *Repository, *Monitor) {
	repo, store := newTestRepo(capacity)
	monitor := NewMonitor(store, zap.NewNop())
	return NewOptimizer(repo, monitor, zap.NewNop()), repo, monitor
}

// saveAt saves a project whose CreatedAt is pinned to the given instant.
func saveAt(t *testing.T, repo *Repository, name string, at time.Time) string {
	t.Helper()
	repo.now = func() time.Time { return at }
	p := sampleProject(name)
	require.True(t, repo.Save(p))
	repo.now = time.Now
	return p.ID
}

func TestEvictOldestRemovesInCreationOrder(t *testing.T) {
	opt, repo, _ := newTestOptimizer(1 << 20)

	base := time.Now().Add(-time.Hour)
	first := saveAt(t, repo, "First", base)
	second := saveAt(t, repo, "Second", base.Add(time.Minute))
	third := saveAt(t, repo, "Third", base.Add(2*time.Minute))

	// A negative target can never be reached, so the pass drains the store.
	res := opt.EvictOldest(-1)

	require.Len(t, res.Evicted, 3)
	assert.Equal(t, []string{first, second, third}, res.Evicted)
	assert.True(t, res.Exhausted, "draining every project without reaching target reports exhaustion")
	assert.Greater(t, res.FreedBytes, int64(0))
}

func TestEvictOldestStopsAtTarget(t *testing.T) {
	opt, repo, monitor := newTestOptimizer(1 << 20)
	store := repo.store.(*MemStore)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		repo.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		p := sampleProject("Filler")
		p.ScriptText = strings.Repeat("testimony ", 80)
		require.True(t, repo.Save(p))
	}
	repo.now = time.Now

	// Pin the ceiling so current content sits at ~85%.
	store.capacity = StoreUsedBytes(store) * 100 / 85
	require.Greater(t, monitor.Usage().PercentageUsed, 70)

	res := opt.EvictOldest(70)

	assert.False(t, res.Exhausted)
	assert.NotEmpty(t, res.Evicted)
	assert.LessOrEqual(t, monitor.Usage().PercentageUsed, 70)
	assert.NotEmpty(t, repo.GetAll(), "eviction stops once under target, it does not drain the store")
}

func TestEvictOldestNoopWhenUnderTarget(t *testing.T) {
	opt, repo, _ := newTestOptimizer(1 << 20)
	saveAt(t, repo, "Small", time.Now())

	res := opt.EvictOldest(70)
	assert.Empty(t, res.Evicted)
	assert.False(t, res.Exhausted)
	require.Len(t, repo.GetAll(), 1)
}

func TestAutoRecoverOnlyActsOnCritical(t *testing.T) {
	opt, repo, _ := newTestOptimizer(1 << 20)
	saveAt(t, repo, "Keep", time.Now())

	opt.AutoRecover(Usage{Status: StatusWarning, PercentageUsed: 75}, 70)
	require.Len(t, repo.GetAll(), 1, "warning status never evicts")

	opt.AutoRecover(Usage{Status: StatusHealthy}, 70)
	require.Len(t, repo.GetAll(), 1)
}

func TestStoragePressureAutoRecovery(t *testing.T) {
	opt, repo, monitor := newTestOptimizer(1 << 20)
	store := repo.store.(*MemStore)

	base := time.Now().Add(-time.Hour)
	var newest string
	for i := 0; i < 6; i++ {
		repo.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		p := sampleProject("Case")
		p.ScriptText = strings.Repeat("witness statement ", 60)
		require.True(t, repo.Save(p))
		newest = p.ID
	}
	repo.now = time.Now

	// Pin the ceiling so current content sits at ~95%.
	store.capacity = StoreUsedBytes(store) * 100 / 95

	u := monitor.Usage()
	require.Equal(t, StatusCritical, u.Status, "fixture must start critical")

	opt.AutoRecover(u, 70)

	after := monitor.Usage()
	assert.LessOrEqual(t, after.PercentageUsed, 70)
	assert.NotNil(t, repo.Get(newest), "the newest project survives recovery")
}

func TestShrinkStripsPreviewImagesOnly(t *testing.T) {
	opt, repo, _ := newTestOptimizer(1 << 20)

	p := sampleProject("Shrinkable")
	p.StoryboardData = &models.StoryboardData{
		Scenes: []models.StoryboardScene{
			{SceneID: "scene-1", Duration: 10, ScriptExcerpt: "cold open", PreviewImage: strings.Repeat("A", 2048)},
			{SceneID: "scene-2", Duration: 12, ScriptExcerpt: "interview", PreviewImageURL: "https://cdn.example.com/s2.png"},
		},
		TotalScenes: 2,
	}
	require.True(t, repo.Save(p))
	updatedBefore := repo.Get(p.ID).UpdatedAt

	require.True(t, opt.Shrink(p.ID))

	got := repo.Get(p.ID)
	require.NotNil(t, got)
	assert.Empty(t, got.StoryboardData.Scenes[0].PreviewImage)
	assert.Equal(t, "cold open", got.StoryboardData.Scenes[0].ScriptExcerpt)
	assert.Equal(t, "https://cdn.example.com/s2.png", got.StoryboardData.Scenes[1].PreviewImageURL)
	assert.Equal(t, p.ScriptText, got.ScriptText)
	assert.Equal(t, updatedBefore.UnixNano(), got.UpdatedAt.UnixNano(),
		"shrinking is storage-side maintenance, not an edit")
}

func TestShrinkReportsNoChange(t *testing.T) {
	opt, repo, _ := newTestOptimizer(1 << 20)

	p := sampleProject("No Previews")
	require.True(t, repo.Save(p))

	assert.False(t, opt.Shrink(p.ID), "project without preview payloads has nothing to shrink")
	assert.False(t, opt.Shrink("project-0"), "unknown id")
}

func TestShrinkAll(t *testing.T) {
	opt, repo, monitor := newTestOptimizer(1 << 20)

	withPreview := sampleProject("Heavy")
	withPreview.StoryboardData = &models.StoryboardData{
		Scenes:      []models.StoryboardScene{{SceneID: "scene-1", PreviewImage: strings.Repeat("B", 4096)}},
		TotalScenes: 1,
	}
	require.True(t, repo.Save(withPreview))
	require.True(t, repo.Save(sampleProject("Light")))

	before := monitor.Usage().UsedBytes
	assert.Equal(t, 1, opt.ShrinkAll())
	assert.Less(t, monitor.Usage().UsedBytes, before)

	assert.Equal(t, 0, opt.ShrinkAll(), "second pass finds nothing to strip")
}

func TestOldestFirstOrdering(t *testing.T) {
	opt, repo, _ := newTestOptimizer(1 << 20)

	base := time.Now().Add(-time.Hour)
	c := saveAt(t, repo, "C", base.Add(2*time.Minute))
	a := saveAt(t, repo, "A", base)
	b := saveAt(t, repo, "B", base.Add(time.Minute))

	ordered := opt.OldestFirst()
	require.Len(t, ordered, 3)
	assert.Equal(t, []string{a, b, c}, []string{ordered[0].ID, ordered[1].ID, ordered[2].ID})
}
