package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"truecrime-studio/config"
)

const typeGenerate = "task:generate"

// TaskPayload is the queue message: everything else lives in the registry.
type TaskPayload struct {
	TaskID string `json:"task_id"`
	Type   string `json:"type"`
	// Phase inputs; only the fields for the task's type are set.
	CaseName    string  `json:"case_name,omitempty"`
	Timeframe   string  `json:"timeframe,omitempty"`
	VisualStyle string  `json:"visual_style,omitempty"`
	VoiceStyle  string  `json:"voice_style,omitempty"`
	Speed       float64 `json:"speed,omitempty"`
	Pitch       float64 `json:"pitch,omitempty"`
}

// Queue enqueues generation tasks onto the redis-backed worker pool.
type Queue struct {
	client *asynq.Client
	log    *zap.Logger
}

func NewQueue(cfg *config.Config, log *zap.Logger) *Queue {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	return &Queue{client: client, log: log}
}

// Enqueue submits one generation task. Retrying against the upstream service
// happens inside the handler via the retry helper; the queue-level retry
// only covers worker crashes.
func (q *Queue) Enqueue(p TaskPayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(typeGenerate, payload,
		asynq.MaxRetry(1),
		asynq.Timeout(20*time.Minute),
		asynq.Retention(taskRetention),
	)
	info, err := q.client.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	q.log.Info("task enqueued",
		zap.String("task_id", p.TaskID),
		zap.String("type", p.Type),
		zap.String("queue_id", info.ID))
	return nil
}

// Close releases the redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}
