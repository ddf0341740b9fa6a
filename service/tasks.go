package service

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"truecrime-studio/models"
)

// taskRetention matches how long finished task records stay queryable.
const taskRetention = 24 * time.Hour

// TaskRegistry keeps generation task progress records in memory with a
// retention window. Tasks are transient status, not project data, so they
// never touch the persistent store or its quota.
type TaskRegistry struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{cache: gocache.New(taskRetention, time.Hour)}
}

// Create registers a new pending task and returns it.
func (r *TaskRegistry) Create(id, taskType, message string) *models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	t := &models.Task{
		ID:        id,
		Type:      taskType,
		Status:    models.TaskStatusPending,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.cache.Set(id, t, gocache.DefaultExpiration)
	return t
}

// Get returns the task with the given id, or nil when unknown or expired.
func (r *TaskRegistry) Get(id string) *models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.cache.Get(id)
	if !ok {
		return nil
	}
	t := v.(*models.Task)
	copied := *t
	return &copied
}

// Update mutates a task record in place. Nil fields leave the current value.
func (r *TaskRegistry) Update(id, status string, progress *int, message string, result *models.TaskResult, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.cache.Get(id)
	if !ok {
		return
	}
	t := v.(*models.Task)
	if status != "" {
		t.Status = status
	}
	if progress != nil {
		t.Progress = *progress
	}
	if message != "" {
		t.Message = message
	}
	if result != nil {
		t.Result = *result
	}
	if errMsg != "" {
		t.Error = errMsg
	}
	t.UpdatedAt = time.Now()
	r.cache.Set(id, t, gocache.DefaultExpiration)
}
