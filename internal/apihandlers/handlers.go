package apihandlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/app"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/butler"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
)

type APIHandler struct {
	App *app.App
}

func NewAPIHandler(a *app.App) *APIHandler {
	return &APIHandler{App: a}
}

// RegisterRoutes mounts the queue API under /api/v1.
func (h *APIHandler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		queueGroup := v1.Group("/queue")
		{
			queueGroup.POST("", h.AddJobHandler)
			queueGroup.GET("", h.ListQueueHandler)
			queueGroup.GET("/stats", h.StatsHandler)
			queueGroup.DELETE("/completed", h.ClearCompletedHandler)
			queueGroup.GET("/:id", h.GetJobHandler)
			queueGroup.DELETE("/:id", h.RemoveJobHandler)
			queueGroup.POST("/:id/retry", h.RetryJobHandler)
			queueGroup.PUT("/:id/priority", h.SetPriorityHandler)
		}
		v1.GET("/artifacts/:id", h.GetArtifactHandler)
	}

	router.GET("/health", h.HealthHandler)
}

type addJobRequest struct {
	SourceRef string `json:"sourceRef" binding:"required"`
	Label     string `json:"label"`
	Priority  bool   `json:"priority"`
}

func (h *APIHandler) AddJobHandler(c *gin.Context) {
	var req addJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	label := req.Label
	if label == "" {
		label = req.SourceRef
	}
	job := butler.NewAnalysisJob(req.SourceRef, label, h.App.Config.Scheduler.MaxRetries)
	id := h.App.Scheduler.Enqueue(job, req.Priority)

	stored, err := h.App.Jobs.Get(id)
	if err != nil {
		Internal(c, fmt.Sprintf("AddJobHandler: failed to read back job %s: %v", id, err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": stored})
}

func (h *APIHandler) ListQueueHandler(c *gin.Context) {
	jobs := h.App.Jobs.Sorted()
	c.JSON(http.StatusOK, gin.H{"data": jobs, "count": len(jobs)})
}

func (h *APIHandler) GetJobHandler(c *gin.Context) {
	job, err := h.App.Jobs.Get(c.Param("id"))
	if err != nil {
		NotFound(c, fmt.Sprintf("No job with id %q", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": job})
}

func (h *APIHandler) StatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.App.Jobs.Stats()})
}

func (h *APIHandler) RetryJobHandler(c *gin.Context) {
	id := c.Param("id")
	if err := h.App.Scheduler.Retry(id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			NotFound(c, fmt.Sprintf("No job with id %q", id))
			return
		}
		if errors.Is(err, models.ErrInvalidState) {
			Conflict(c, "Only failed jobs can be retried")
			return
		}
		Internal(c, fmt.Sprintf("RetryJobHandler: %v", err))
		return
	}
	job, _ := h.App.Jobs.Get(id)
	c.JSON(http.StatusOK, gin.H{"data": job})
}

type setPriorityRequest struct {
	Priority *bool `json:"priority" binding:"required"`
}

func (h *APIHandler) SetPriorityHandler(c *gin.Context) {
	var req setPriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	id := c.Param("id")
	if err := h.App.Scheduler.SetPriority(id, *req.Priority); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			NotFound(c, fmt.Sprintf("No job with id %q", id))
			return
		}
		if errors.Is(err, models.ErrInvalidState) {
			Conflict(c, "Job state does not allow a priority change")
			return
		}
		Internal(c, fmt.Sprintf("SetPriorityHandler: %v", err))
		return
	}
	job, _ := h.App.Jobs.Get(id)
	c.JSON(http.StatusOK, gin.H{"data": job})
}

func (h *APIHandler) RemoveJobHandler(c *gin.Context) {
	id := c.Param("id")
	if err := h.App.Scheduler.Remove(id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			NotFound(c, fmt.Sprintf("No job with id %q", id))
			return
		}
		if errors.Is(err, models.ErrInvalidState) {
			Conflict(c, "Cannot remove a running job")
			return
		}
		Internal(c, fmt.Sprintf("RemoveJobHandler: %v", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"removed": id}})
}

func (h *APIHandler) ClearCompletedHandler(c *gin.Context) {
	removed := h.App.Scheduler.ClearCompleted()
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"removed": removed}})
}

func (h *APIHandler) GetArtifactHandler(c *gin.Context) {
	art, err := h.App.Artifacts.Load(c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			NotFound(c, fmt.Sprintf("No artifact for job %q", c.Param("id")))
			return
		}
		Internal(c, fmt.Sprintf("GetArtifactHandler: %v", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": art})
}

func (h *APIHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"inFlight": h.App.Scheduler.InFlight(),
	})
}
