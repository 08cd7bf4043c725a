package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classloop/classloop-backend/internal/domain"
	"github.com/classloop/classloop-backend/internal/http/middleware"
	"github.com/classloop/classloop-backend/internal/http/response"
	"github.com/classloop/classloop-backend/internal/services"
)

type ProgressHandler struct {
	progress services.ProgressService
}

func NewProgressHandler(progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// GET /api/students/:id/progress
func (h *ProgressHandler) Get(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	resolved, err := h.progress.Get(c.Request.Context(), middleware.SchoolID(c), studentID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": resolved})
}

// PUT /api/students/:id/progress
func (h *ProgressHandler) ApplyOverride(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	var snap domain.ProgressSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	resolved, err := h.progress.ApplyOverride(c.Request.Context(), middleware.SchoolID(c), studentID, snap)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": resolved})
}
