package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/services"
)

// PipelineHandler serves the maintenance endpoints called by scheduled jobs.
type PipelineHandler struct {
	transactionService services.TransactionServicer
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(transactionService services.TransactionServicer) *PipelineHandler {
	return &PipelineHandler{transactionService: transactionService}
}

// BackfillRequest optionally limits a backfill to one user.
type BackfillRequest struct {
	UserID string `json:"user_id" binding:"omitempty,uuid"`
}

// Backfill fills the missing currency snapshots of stored movements
// @Summary     Backfill snapshots
// @Description Fill missing currency snapshots using today's rates. Without user_id every user is scanned.
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body BackfillRequest false "Optional user scope"
// @Success     200 {object} services.BackfillResult "Backfill result"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Exchange rates unavailable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /pipeline/backfill [post]
func (h *PipelineHandler) Backfill(c *gin.Context) {
	var req BackfillRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	result, err := h.transactionService.BackfillSnapshots(c.Request.Context(), req.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
