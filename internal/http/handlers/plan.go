package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classloop/classloop-backend/internal/http/middleware"
	"github.com/classloop/classloop-backend/internal/http/response"
	"github.com/classloop/classloop-backend/internal/services"
)

type PlanHandler struct {
	publisher services.PlanPublisher
}

func NewPlanHandler(publisher services.PlanPublisher) *PlanHandler {
	return &PlanHandler{publisher: publisher}
}

type publishPlanRequest struct {
	Plan      services.PlanInput      `json:"plan"`
	Templates []services.TaskTemplate `json:"templates"`
}

// POST /api/plans
func (h *PlanHandler) Publish(c *gin.Context) {
	var req publishPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	req.Plan.SchoolID = middleware.SchoolID(c)
	req.Plan.TeacherID = middleware.ActorID(c)

	result, err := h.publisher.Publish(c.Request.Context(), req.Plan, req.Templates)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}

// DELETE /api/plans/:date
func (h *PlanHandler) Withdraw(c *gin.Context) {
	date := c.Param("date")
	err := h.publisher.Withdraw(c.Request.Context(), middleware.SchoolID(c), middleware.ActorID(c), date)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"withdrawn": true})
}
