package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/insights"
	"github.com/BudHamud/safe/internal/services"
)

// InsightsHandler serves the read-only summaries: dashboard, stats and the
// recurring payments checklist.
type InsightsHandler struct {
	insightsService services.InsightsServicer
}

// NewInsightsHandler creates a new InsightsHandler.
func NewInsightsHandler(insightsService services.InsightsServicer) *InsightsHandler {
	return &InsightsHandler{insightsService: insightsService}
}

type statsQuery struct {
	viewQuery
	Year     int    `form:"year" binding:"omitempty,min=1970,max=9999"`
	Month    int    `form:"month" binding:"omitempty,min=1,max=12"`
	Category string `form:"category" binding:"max=100"`
}

// window is the month when one is given, otherwise the whole year.
func (q statsQuery) window(now time.Time) insights.Window {
	year := q.Year
	if year == 0 {
		year = now.Year()
	}
	if q.Month == 0 {
		return insights.YearWindow(year)
	}
	return insights.Window{Year: year, Month: time.Month(q.Month)}
}

// GetDashboard returns the main screen summary
// @Summary     Dashboard
// @Description Totals, goal progress, top categories, recent movements and pending recurring payments
// @Tags        insights
// @Produce     json
// @Security    BearerAuth
// @Param       currency      query string false "Display currency (ILS, USD, EUR, ARS)"
// @Param       date_fallback query string false "Unreadable date policy (epoch, today)"
// @Success     200 {object} insights.Dashboard "Dashboard"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard [get]
func (h *InsightsHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	opts, err := bindViewOptions(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dashboard, err := h.insightsService.Dashboard(userID, opts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetStats returns the statistics of a month or a year
// @Summary     Stats
// @Tags        insights
// @Produce     json
// @Security    BearerAuth
// @Param       year          query int    false "Year (default current)"
// @Param       month         query int    false "Month 1-12; omit for the whole year"
// @Param       category      query string false "Drill into one category"
// @Param       currency      query string false "Display currency (ILS, USD, EUR, ARS)"
// @Param       date_fallback query string false "Unreadable date policy (epoch, today)"
// @Success     200 {object} insights.Stats "Stats"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stats [get]
func (h *InsightsHandler) GetStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q statsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	stats, err := h.insightsService.Stats(userID, q.window(time.Now()), q.Category, q.options())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetChecklist returns the recurring obligations of the current month
// @Summary     Recurring checklist
// @Tags        insights
// @Produce     json
// @Security    BearerAuth
// @Param       currency      query string false "Display currency (ILS, USD, EUR, ARS)"
// @Param       date_fallback query string false "Unreadable date policy (epoch, today)"
// @Success     200 {array}  recurring.Entry "Checklist entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /checklist [get]
func (h *InsightsHandler) GetChecklist(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	opts, err := bindViewOptions(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entries, err := h.insightsService.Checklist(userID, opts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"checklist": entries})
}
