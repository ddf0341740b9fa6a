package storage

import (
	"sort"

	"go.uber.org/zap"

	"truecrime-studio/models"
)

// Optimizer reclaims store space, either destructively (whole-project
// eviction, oldest first) or non-destructively (stripping large embedded
// payloads while keeping every textual field).
type Optimizer struct {
	repo    *Repository
	monitor *Monitor
	log     *zap.Logger
}

func NewOptimizer(repo *Repository, monitor *Monitor, log *zap.Logger) *Optimizer {
	return &Optimizer{repo: repo, monitor: monitor, log: log}
}

// EvictResult reports what an eviction pass did.
type EvictResult struct {
	Evicted    []string `json:"evicted"`
	FreedBytes int64    `json:"freedBytes"`
	// Exhausted is set when every project was removed and usage still
	// exceeds the target. Callers must surface this to the user: all
	// project data is gone and the store is still over budget.
	Exhausted bool `json:"exhausted"`
}

// EvictOldest removes whole projects, strictly oldest-CreatedAt-first (ties
// broken by stored order), until usage is at or below targetPercent or no
// projects remain. Each eviction destroys an entire project, not just its
// large payloads. This is the last-resort path; Shrink and ShrinkAll exist
// so callers rarely have to reach it.
func (o *Optimizer) EvictOldest(targetPercent int) EvictResult {
	var res EvictResult
	for {
		u := o.monitor.Usage()
		if u.PercentageUsed <= targetPercent {
			return res
		}
		projects := o.repo.GetAll()
		if len(projects) == 0 {
			res.Exhausted = true
			o.log.Warn("eviction exhausted: no projects left and storage still over target",
				zap.Int("target_percent", targetPercent),
				zap.Int("percent_used", u.PercentageUsed))
			return res
		}
		oldest := projects[0]
		for _, p := range projects[1:] {
			if p.CreatedAt.Before(oldest.CreatedAt) {
				oldest = p
			}
		}
		size := models.EncodedSize(&oldest)
		if !o.repo.Delete(oldest.ID) {
			// Rewrite failed; bail rather than spin.
			return res
		}
		res.Evicted = append(res.Evicted, oldest.ID)
		res.FreedBytes += size
		// Data-loss event from the user's perspective. Log it loudly.
		o.log.Warn("evicted project to reclaim storage",
			zap.String("project_id", oldest.ID),
			zap.String("project_name", oldest.Name),
			zap.Int64("freed_bytes", size),
			zap.Int("target_percent", targetPercent))
	}
}

// AutoRecover is the critical-status reaction: silent destructive eviction
// down to targetPercent, a deliberate availability-over-retention trade-off.
// Wire it to the monitor's poll callback.
func (o *Optimizer) AutoRecover(u Usage, targetPercent int) {
	if u.Status != StatusCritical {
		return
	}
	o.log.Warn("storage critical, auto-evicting oldest projects",
		zap.Int("percent_used", u.PercentageUsed),
		zap.Int("target_percent", targetPercent))
	res := o.EvictOldest(targetPercent)
	o.log.Warn("auto-eviction finished",
		zap.Strings("evicted", res.Evicted),
		zap.Int64("freed_bytes", res.FreedBytes),
		zap.Bool("exhausted", res.Exhausted))
}

// Shrink rewrites one project with its storyboard preview images removed,
// keeping all textual and structural data. UpdatedAt is left untouched:
// shrinking is a storage-side transform, not a user edit, and bumping the
// timestamp would also promote the project in the eviction order.
func (o *Optimizer) Shrink(id string) bool {
	projects := o.repo.GetAll()
	changed := false
	for i := range projects {
		if projects[i].ID != id {
			continue
		}
		changed = shrinkProject(&projects[i])
		break
	}
	if !changed {
		return false
	}
	return o.repo.replaceAll(projects)
}

// ShrinkAll applies Shrink to every stored project in one rewrite. Returns
// the number of projects that actually lost payload.
func (o *Optimizer) ShrinkAll() int {
	projects := o.repo.GetAll()
	count := 0
	for i := range projects {
		if shrinkProject(&projects[i]) {
			count++
		}
	}
	if count > 0 && !o.repo.replaceAll(projects) {
		return 0
	}
	return count
}

func shrinkProject(p *models.Project) bool {
	if p.StoryboardData == nil {
		return false
	}
	changed := false
	for i := range p.StoryboardData.Scenes {
		if p.StoryboardData.Scenes[i].PreviewImage != "" {
			p.StoryboardData.Scenes[i].PreviewImage = ""
			changed = true
		}
	}
	return changed
}

// OldestFirst returns the stored projects sorted by CreatedAt ascending,
// the order eviction consumes them in. Exposed for the storage status API.
func (o *Optimizer) OldestFirst() []models.Project {
	projects := o.repo.GetAll()
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})
	return projects
}
