package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classloop/classloop-backend/internal/domain"
	"github.com/classloop/classloop-backend/internal/http/middleware"
	"github.com/classloop/classloop-backend/internal/http/response"
	"github.com/classloop/classloop-backend/internal/services"
)

type AssignmentHandler struct {
	ledger services.TaskLedger
}

func NewAssignmentHandler(ledger services.TaskLedger) *AssignmentHandler {
	return &AssignmentHandler{ledger: ledger}
}

type setStatusRequest struct {
	IDs    []uuid.UUID       `json:"ids"`
	Status domain.TaskStatus `json:"status"`
}

// PATCH /api/assignments/status
func (h *AssignmentHandler) SetStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.ledger.SetStatus(c.Request.Context(), middleware.SchoolID(c), middleware.ActorID(c), req.IDs, req.Status)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}

// POST /api/assignments
func (h *AssignmentHandler) CreateManual(c *gin.Context) {
	var req services.ManualAssignmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	req.SchoolID = middleware.SchoolID(c)

	row, err := h.ledger.CreateManual(c.Request.Context(), req)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignment": row})
}

// POST /api/assignments/:id/attempt
func (h *AssignmentHandler) IncrementAttempt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.ledger.IncrementAttempt(c.Request.Context(), middleware.SchoolID(c), id); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"incremented": true})
}

// GET /api/assignments?student_id=...&date=...  or  ?teacher_id=...&date=...
func (h *AssignmentHandler) Daily(c *gin.Context) {
	date := c.Query("date")
	schoolID := middleware.SchoolID(c)

	if raw := c.Query("student_id"); raw != "" {
		studentID, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		rows, err := h.ledger.DailyForStudent(c.Request.Context(), schoolID, studentID, date)
		if err != nil {
			response.RespondAppError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"assignments": rows})
		return
	}

	if raw := c.Query("teacher_id"); raw != "" {
		teacherID, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		rows, err := h.ledger.DailyForTeacher(c.Request.Context(), schoolID, teacherID, date)
		if err != nil {
			response.RespondAppError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"assignments": rows})
		return
	}

	response.RespondError(c, http.StatusBadRequest, "bad_request", errMissingScope)
}

var errMissingScope = errors.New("student_id or teacher_id query parameter required")
