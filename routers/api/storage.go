package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StorageStatus GET /v1/api/storage/status
func (h *Handler) StorageStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"storage": h.Monitor.Usage()})
}

// CleanupStorage POST /v1/api/storage/cleanup — destructive, explicit:
// evicts oldest projects until usage is at or below the target.
func (h *Handler) CleanupStorage(c *gin.Context) {
	var req struct {
		TargetPercent int `json:"targetPercent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TargetPercent <= 0 || req.TargetPercent > 100 {
		req.TargetPercent = h.RecoveryPercent
	}
	res := h.Optimizer.EvictOldest(req.TargetPercent)
	status := h.Monitor.Usage()
	if res.Exhausted {
		// All project data is gone and the store is still over target:
		// callers cannot be allowed to miss this.
		c.JSON(http.StatusOK, gin.H{
			"result":  res,
			"storage": status,
			"warning": "all projects evicted, storage still above target",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "storage": status})
}

// OptimizeStorage POST /v1/api/storage/optimize — non-destructive: strips
// storyboard preview images from every stored project.
func (h *Handler) OptimizeStorage(c *gin.Context) {
	count := h.Optimizer.ShrinkAll()
	c.JSON(http.StatusOK, gin.H{"optimized": count, "storage": h.Monitor.Usage()})
}

// OptimizeProject POST /v1/api/projects/:project_id/optimize
func (h *Handler) OptimizeProject(c *gin.Context) {
	id := c.Param("project_id")
	if h.Repo.Get(id) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	shrunk := h.Optimizer.Shrink(id)
	c.JSON(http.StatusOK, gin.H{"optimized": shrunk, "storage": h.Monitor.Usage()})
}
