package models

import "time"

// Task statuses, used uniformly across the queue, registry and API.
const (
	TaskStatusPending    = "pending"
	TaskStatusProcessing = "processing"
	TaskStatusSuccess    = "finished"
	TaskStatusFailed     = "failed"
)

// Generation task types, one per pipeline phase that calls an upstream
// service.
const (
	TaskTypeResearch   = "generate_research"
	TaskTypeScript     = "generate_script"
	TaskTypeStoryboard = "generate_storyboard"
	TaskTypeVoiceover  = "generate_voiceover"
	TaskTypeRender     = "render_video"
)

// TaskResult carries the minimal locator for whatever the task produced.
type TaskResult struct {
	ResourceType string `json:"resource_type,omitempty"` // "research", "script", "storyboard", "audio", "video"
	ResourceURL  string `json:"resource_url,omitempty"`
	RenderID     string `json:"render_id,omitempty"`
}

// Task is one generation job's progress record. Tasks are transient: they
// live in the in-memory registry with a retention window, never in the
// persistent project store.
type Task struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message"`
	Result    TaskResult `json:"result"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Terminal reports whether the task has finished, successfully or not.
func (t *Task) Terminal() bool {
	return t.Status == TaskStatusSuccess || t.Status == TaskStatusFailed
}
