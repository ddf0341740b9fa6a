package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GetTaskStatus GET /v1/api/tasks/:task_id
func (h *Handler) GetTaskStatus(c *gin.Context) {
	t := h.Tasks.Get(c.Param("task_id"))
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

// TaskProgressWebSocket GET /tasks/:task_id/ws — pushes the task record
// whenever status or progress changes, then closes after the terminal push.
func (h *Handler) TaskProgressWebSocket(c *gin.Context) {
	taskID := c.Param("task_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	t := h.Tasks.Get(taskID)
	if t == nil {
		_ = conn.WriteJSON(gin.H{"error": "task not found"})
		return
	}
	if err := conn.WriteJSON(t); err != nil {
		return
	}
	if t.Terminal() {
		return
	}

	prevStatus := t.Status
	prevProgress := t.Progress

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		cur := h.Tasks.Get(taskID)
		if cur == nil {
			return
		}
		if cur.Status != prevStatus || cur.Progress != prevProgress {
			if err := conn.WriteJSON(cur); err != nil {
				return
			}
			prevStatus = cur.Status
			prevProgress = cur.Progress
		}
		if cur.Terminal() {
			return
		}
	}
}
