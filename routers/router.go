package routers

import (
	"github.com/gin-gonic/gin"

	"truecrime-studio/routers/api"
)

func InitRouter(h *api.Handler) *gin.Engine {
	r := gin.Default()
	v1 := r.Group("/v1/api")
	{
		v1.GET("/projects", h.ListProjects)
		v1.POST("/projects", h.SaveProject)
		v1.POST("/projects/new", h.NewProject)
		v1.GET("/projects/:project_id", h.GetProject)
		v1.DELETE("/projects/:project_id", h.DeleteProject)
		v1.POST("/projects/:project_id/load", h.LoadProject)
		v1.POST("/projects/:project_id/optimize", h.OptimizeProject)

		v1.GET("/session", h.GetSession)
		v1.PUT("/session", h.UpdateSession)

		v1.GET("/storage/status", h.StorageStatus)
		v1.POST("/storage/cleanup", h.CleanupStorage)
		v1.POST("/storage/optimize", h.OptimizeStorage)

		v1.POST("/generate/research", h.GenerateResearch)
		v1.POST("/generate/script", h.GenerateScript)
		v1.POST("/generate/storyboard", h.GenerateStoryboard)
		v1.POST("/generate/voiceover", h.GenerateVoiceover)
		v1.POST("/render", h.RenderVideo)
		v1.GET("/render/:render_id/status", h.RenderStatus)

		v1.GET("/tasks/:task_id", h.GetTaskStatus)
	}
	r.GET("/tasks/:task_id/ws", h.TaskProgressWebSocket)
	return r
}
