package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"truecrime-studio/models"
)

// ProjectsKey is the single namespace key holding the serialized collection:
// a JSON array of projects, rewritten wholesale on every mutation.
const ProjectsKey = "truecrime_projects"

// Repository is CRUD over the stored project collection. Every save is a
// read-modify-write of the entire collection, so cost is proportional to
// total stored bytes, not to the project being saved.
//
// Storage-level failures never escape as errors: they are caught, logged,
// and reported as a false return. Callers must not assume a save succeeded;
// the quota monitor's next poll surfaces the pressure that caused it.
type Repository struct {
	store KVStore
	log   *zap.Logger

	// mu serializes read-modify-write cycles. API handlers and queue workers
	// share this repository; without it two overlapping saves would race
	// with last-write-wins semantics.
	mu sync.Mutex

	now func() time.Time
}

func NewRepository(store KVStore, log *zap.Logger) *Repository {
	return &Repository{store: store, log: log, now: time.Now}
}

// NewProjectID returns a fresh time-based project id.
func NewProjectID(t time.Time) string {
	return fmt.Sprintf("project-%d", t.UnixNano())
}

// Save writes project into the collection: replace when a record with the
// same id exists, append otherwise. A project with no id gets one assigned,
// along with CreatedAt; on replace the stored CreatedAt wins over whatever
// the caller passed; UpdatedAt is refreshed on every save. The repository is
// the sole writer of all three fields. Returns whether the write landed.
func (r *Repository) Save(p *models.Project) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if p.ID == "" {
		p.ID = NewProjectID(now)
		p.CreatedAt = now
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	projects := r.loadAll()
	replaced := false
	for i := range projects {
		if projects[i].ID == p.ID {
			// CreatedAt is fixed at first save; whatever the caller carries
			// (zero included) is overridden by the stored record, or the
			// eviction order would follow caller mistakes.
			p.CreatedAt = projects[i].CreatedAt
			projects[i] = *p
			replaced = true
			break
		}
	}
	if !replaced {
		projects = append(projects, *p)
	}
	return r.writeAll(projects)
}

// GetAll returns the full collection. Absent or corrupted data yields an
// empty slice, never an error: an external wipe (version upgrade, user
// clearing the store) is a valid state, not a failure.
func (r *Repository) GetAll() []models.Project {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadAll()
}

// Get returns the project with the given id, or nil when not found.
func (r *Repository) Get(id string) *models.Project {
	for _, p := range r.GetAll() {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

// Delete removes the project with the given id and rewrites the collection.
// Returns whether a record was actually removed and the rewrite landed.
func (r *Repository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	projects := r.loadAll()
	kept := projects[:0]
	found := false
	for _, p := range projects {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return false
	}
	return r.writeAll(kept)
}

// loadAll reads and deserializes the collection. Caller holds mu.
func (r *Repository) loadAll() []models.Project {
	data, ok := r.store.Get(ProjectsKey)
	if !ok {
		return []models.Project{}
	}
	projects, skipped := models.DecodeProjects([]byte(data))
	if projects == nil {
		r.log.Error("project collection unreadable, treating as empty",
			zap.Int("bytes", len(data)))
		return []models.Project{}
	}
	if skipped > 0 {
		r.log.Warn("skipped corrupt project records",
			zap.Int("skipped", skipped),
			zap.Int("kept", len(projects)))
	}
	return projects
}

// writeAll serializes and writes the collection. Caller holds mu.
func (r *Repository) writeAll(projects []models.Project) bool {
	data, err := models.EncodeProjects(projects)
	if err != nil {
		r.log.Error("encode project collection failed", zap.Error(err))
		return false
	}
	if err := r.store.Set(ProjectsKey, string(data)); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			r.log.Error("project save rejected, storage quota exceeded",
				zap.Int("collection_bytes", len(data)),
				zap.Int64("capacity_bytes", r.store.Capacity()))
		} else {
			r.log.Error("project save failed", zap.Error(err))
		}
		return false
	}
	return true
}

// replaceAll swaps the entire stored collection without touching any
// timestamps. Used by the optimizer, whose rewrites are storage-side
// transforms, not user edits.
func (r *Repository) replaceAll(projects []models.Project) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeAll(projects)
}
