package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classloop/classloop-backend/internal/http/middleware"
	"github.com/classloop/classloop-backend/internal/http/response"
	"github.com/classloop/classloop-backend/internal/services"
)

type SettlementHandler struct {
	settlement services.Settlement
}

func NewSettlementHandler(settlement services.Settlement) *SettlementHandler {
	return &SettlementHandler{settlement: settlement}
}

type settleRequest struct {
	BonusExp int `json:"bonus_exp"`
}

// POST /api/students/:id/settle
func (h *SettlementHandler) SettleStudent(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.settlement.Settle(c.Request.Context(), middleware.SchoolID(c), studentID, req.BonusExp)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}

// POST /api/students/:id/pass-outstanding
func (h *SettlementHandler) PassOutstanding(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	passed, err := h.settlement.PassOutstanding(c.Request.Context(), middleware.SchoolID(c), studentID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"passed": passed})
}

// POST /api/classes/settle
func (h *SettlementHandler) SettleClass(c *gin.Context) {
	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.settlement.SettleClass(c.Request.Context(), middleware.SchoolID(c), middleware.ActorID(c), req.BonusExp)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}
