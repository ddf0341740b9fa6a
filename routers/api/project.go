package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"truecrime-studio/models"
)

// projectSummary is the listing shape: everything except the heavy content
// slices, plus the serialized footprint so the UI can show what each
// project costs.
type projectSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
	CurrentPhase int    `json:"currentPhase"`
	SizeBytes    int64  `json:"sizeBytes"`
}

// ListProjects GET /v1/api/projects
func (h *Handler) ListProjects(c *gin.Context) {
	projects := h.Repo.GetAll()
	summaries := make([]projectSummary, 0, len(projects))
	for i := range projects {
		p := &projects[i]
		summaries = append(summaries, projectSummary{
			ID:           p.ID,
			Name:         p.Name,
			CreatedAt:    p.CreatedAt.Format(timeLayout),
			UpdatedAt:    p.UpdatedAt.Format(timeLayout),
			CurrentPhase: p.CurrentPhase,
			SizeBytes:    models.EncodedSize(p),
		})
	}
	c.JSON(http.StatusOK, gin.H{"projects": summaries})
}

// GetProject GET /v1/api/projects/:project_id
func (h *Handler) GetProject(c *gin.Context) {
	p := h.Repo.Get(c.Param("project_id"))
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

// DeleteProject DELETE /v1/api/projects/:project_id
func (h *Handler) DeleteProject(c *gin.Context) {
	id := c.Param("project_id")
	if !h.Session.Delete(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// SaveProject POST /v1/api/projects — persists the current session
// immediately, bypassing the debounce.
func (h *Handler) SaveProject(c *gin.Context) {
	p, ok := h.Session.SaveNow()
	if !ok {
		// Fails soft: the write did not land (most likely quota); report it
		// as a status, not a 5xx, and let the storage status endpoint tell
		// the rest of the story.
		c.JSON(http.StatusOK, gin.H{"saved": false, "project": p, "storage": h.Monitor.Usage()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true, "project": p})
}

// LoadProject POST /v1/api/projects/:project_id/load
func (h *Handler) LoadProject(c *gin.Context) {
	id := c.Param("project_id")
	if !h.Session.Load(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": h.Session.Snapshot()})
}

// NewProject POST /v1/api/projects/new
func (h *Handler) NewProject(c *gin.Context) {
	h.Session.Reset()
	c.JSON(http.StatusOK, gin.H{"project": h.Session.Snapshot()})
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
