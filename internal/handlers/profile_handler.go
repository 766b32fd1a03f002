package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/BudHamud/safe/internal/catalog"
	"github.com/BudHamud/safe/internal/currency"
	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/insights"
	"github.com/BudHamud/safe/internal/models"
	"github.com/BudHamud/safe/internal/services"
)

// ProfileHandler serves the profile view and the user's settings.
type ProfileHandler struct {
	userService     services.UserServicer
	categoryService services.CategoryServicer
	insightsService services.InsightsServicer
	auditService    services.AuditServicer
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(
	userService services.UserServicer,
	categoryService services.CategoryServicer,
	insightsService services.InsightsServicer,
	auditService services.AuditServicer,
) *ProfileHandler {
	return &ProfileHandler{
		userService:     userService,
		categoryService: categoryService,
		insightsService: insightsService,
		auditService:    auditService,
	}
}

// ProfileResponse is the profile screen: the user, how often each category
// is used and where the month stands against the goal.
type ProfileResponse struct {
	User       UserResponse         `json:"user"`
	Categories []catalog.Usage      `json:"categories"`
	Goal       *insights.GoalStatus `json:"goal"`
}

// UpdateGoalRequest represents the request payload for changing the monthly goal.
type UpdateGoalRequest struct {
	MonthlyGoal decimal.Decimal `json:"monthly_goal"`
}

// UpdatePreferencesRequest represents the request payload for the display settings.
// An empty travel_mode_start turns travel mode off.
type UpdatePreferencesRequest struct {
	DisplayCurrency *string `json:"display_currency" binding:"omitempty,display_currency"`
	TravelModeStart *string `json:"travel_mode_start"`
}

// GetProfile handles the retrieval of the authenticated user's profile
// @Summary     Get user profile
// @Description Get the profile, category usage and goal status of the authenticated user
// @Tags        profile
// @Produce     json
// @Security    BearerAuth
// @Param       currency      query string false "Display currency (ILS, USD, EUR, ARS)"
// @Param       date_fallback query string false "Unreadable date policy (epoch, today)"
// @Success     200 {object} ProfileResponse "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
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

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	usage, err := h.categoryService.GetCategoryUsage(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.insightsService.GoalStatus(userID, opts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{User: newUserResponse(user), Categories: usage, Goal: goal})
}

// GetGoal returns the monthly goal status of the current month
// @Summary     Get goal status
// @Tags        profile
// @Produce     json
// @Security    BearerAuth
// @Param       currency      query string false "Display currency (ILS, USD, EUR, ARS)"
// @Param       date_fallback query string false "Unreadable date policy (epoch, today)"
// @Success     200 {object} insights.GoalStatus "Goal status"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile/goal [get]
func (h *ProfileHandler) GetGoal(c *gin.Context) {
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

	goal, err := h.insightsService.GoalStatus(userID, opts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, goal)
}

// UpdateGoal handles changing the monthly goal
// @Summary     Update monthly goal
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateGoalRequest true "New goal, in the stored currency"
// @Success     200 {object} UserResponse "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile/goal [put]
func (h *ProfileHandler) UpdateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.MonthlyGoal.IsNegative() {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly_goal must not be negative"))
		return
	}

	user, err := h.userService.UpdateMonthlyGoal(userID, req.MonthlyGoal)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateProfile, models.AuditResourceUser, userID, c.ClientIP(),
		map[string]interface{}{"monthly_goal": req.MonthlyGoal.String()})

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// UpdatePreferences handles changing the display currency and travel mode
// @Summary     Update preferences
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdatePreferencesRequest true "Preferences to change"
// @Success     200 {object} UserResponse "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile/preferences [put]
func (h *ProfileHandler) UpdatePreferences(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var update services.PreferencesUpdate
	if req.DisplayCurrency != nil {
		code := currency.Code(*req.DisplayCurrency)
		update.DisplayCurrency = &code
	}
	update.TravelModeStart = req.TravelModeStart

	user, err := h.userService.UpdatePreferences(userID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.DisplayCurrency != nil {
		changes["display_currency"] = *req.DisplayCurrency
	}
	if req.TravelModeStart != nil {
		changes["travel_mode_start"] = *req.TravelModeStart
	}
	h.auditService.Log(userID, services.AuditUpdateProfile, models.AuditResourceUser, userID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}
