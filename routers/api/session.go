package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"truecrime-studio/models"
)

// sessionPatch carries partial updates from the editing UI. Only present
// fields are applied; each applied field restarts the autosave debounce.
type sessionPatch struct {
	Name           *string                `json:"name"`
	CurrentPhase   *int                   `json:"currentPhase"`
	Config         *models.ProjectConfig  `json:"config"`
	ScriptText     *string                `json:"scriptText"`
	VideoData      *models.VideoData      `json:"videoData"`
	StoryboardData *models.StoryboardData `json:"storyboardData"`
}

// GetSession GET /v1/api/session
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"project": h.Session.Snapshot()})
}

// UpdateSession PUT /v1/api/session
func (h *Handler) UpdateSession(c *gin.Context) {
	var patch sessionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.Name != nil {
		h.Session.SetName(*patch.Name)
	}
	if patch.CurrentPhase != nil {
		if *patch.CurrentPhase < models.PhaseDiscovery || *patch.CurrentPhase > models.PhaseExport {
			c.JSON(http.StatusBadRequest, gin.H{"error": "currentPhase out of range"})
			return
		}
		h.Session.SetPhase(*patch.CurrentPhase)
	}
	if patch.Config != nil {
		h.Session.SetConfig(*patch.Config)
	}
	if patch.ScriptText != nil {
		h.Session.SetScriptText(*patch.ScriptText)
	}
	if patch.StoryboardData != nil {
		h.Session.SetStoryboardData(patch.StoryboardData)
	}
	if patch.VideoData != nil {
		h.Session.SetVideoData(patch.VideoData)
	}
	c.JSON(http.StatusOK, gin.H{"project": h.Session.Snapshot()})
}
