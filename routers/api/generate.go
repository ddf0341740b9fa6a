package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"truecrime-studio/models"
	"truecrime-studio/service"
)

// kickoff creates the task record, enqueues it, and answers with the task id
// the client polls (or subscribes to over the websocket).
func (h *Handler) kickoff(c *gin.Context, payload service.TaskPayload, message string) {
	payload.TaskID = uuid.NewString()
	t := h.Tasks.Create(payload.TaskID, payload.Type, message)
	if err := h.Queue.Enqueue(payload); err != nil {
		h.Tasks.Update(payload.TaskID, models.TaskStatusFailed, nil, "", nil, err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task": t})
}

// GenerateResearch POST /v1/api/generate/research
func (h *Handler) GenerateResearch(c *gin.Context) {
	var req struct {
		CaseName  string `json:"caseName" binding:"required"`
		Timeframe string `json:"timeframe"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.kickoff(c, service.TaskPayload{
		Type:      models.TaskTypeResearch,
		CaseName:  req.CaseName,
		Timeframe: req.Timeframe,
	}, "Researching case...")
}

// GenerateScript POST /v1/api/generate/script
func (h *Handler) GenerateScript(c *gin.Context) {
	if h.Session.Snapshot().ResearchData == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "run research first"})
		return
	}
	h.kickoff(c, service.TaskPayload{Type: models.TaskTypeScript}, "Generating script...")
}

// GenerateStoryboard POST /v1/api/generate/storyboard
func (h *Handler) GenerateStoryboard(c *gin.Context) {
	var req struct {
		VisualStyle string `json:"visualStyle"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.Session.Snapshot().ScriptText == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "generate a script first"})
		return
	}
	h.kickoff(c, service.TaskPayload{
		Type:        models.TaskTypeStoryboard,
		VisualStyle: req.VisualStyle,
	}, "Generating storyboard...")
}

// GenerateVoiceover POST /v1/api/generate/voiceover
func (h *Handler) GenerateVoiceover(c *gin.Context) {
	var req struct {
		VoiceStyle string  `json:"voiceStyle"`
		Speed      float64 `json:"speed"`
		Pitch      float64 `json:"pitch"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.Session.Snapshot().ScriptText == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "generate a script first"})
		return
	}
	if req.VoiceStyle == "" {
		req.VoiceStyle = "dramatic"
	}
	if req.Speed == 0 {
		req.Speed = 1.0
	}
	h.kickoff(c, service.TaskPayload{
		Type:       models.TaskTypeVoiceover,
		VoiceStyle: req.VoiceStyle,
		Speed:      req.Speed,
		Pitch:      req.Pitch,
	}, "Generating voiceover...")
}

// RenderVideo POST /v1/api/render
func (h *Handler) RenderVideo(c *gin.Context) {
	snap := h.Session.Snapshot()
	if snap.VideoData == nil || len(snap.VideoData.Scenes) == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "assemble a timeline first"})
		return
	}
	h.kickoff(c, service.TaskPayload{Type: models.TaskTypeRender}, "Submitting render job...")
}

// RenderStatus GET /v1/api/render/:render_id/status — thin proxy over the
// external status-polling contract.
func (h *Handler) RenderStatus(c *gin.Context) {
	st, err := h.Services.CheckRenderStatus(c.Request.Context(), c.Param("render_id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"render": st})
}
