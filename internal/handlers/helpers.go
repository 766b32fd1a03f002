package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/BudHamud/safe/internal/currency"
	"github.com/BudHamud/safe/internal/dates"
	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/logger"
	"github.com/BudHamud/safe/internal/services"
	"github.com/BudHamud/safe/internal/uuid"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString("userID")
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter.
//
//nolint:unparam // every route names its parameter "id" today
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// viewQuery holds the query parameters shared by every read view.
type viewQuery struct {
	Currency     string `form:"currency" binding:"omitempty,display_currency"`
	DateFallback string `form:"date_fallback" binding:"omitempty,date_fallback"`
}

func (q viewQuery) options() services.ViewOptions {
	policy, _ := dates.ParsePolicy(q.DateFallback)
	return services.ViewOptions{Currency: currency.Code(q.Currency), Fallback: policy}
}

// bindViewOptions parses ?currency= and ?date_fallback=.
func bindViewOptions(c *gin.Context) (services.ViewOptions, error) {
	var q viewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return services.ViewOptions{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return q.options(), nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Named("handlers").Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		appErr = apperrors.ErrInternalServer
	} else if appErr.Internal != nil {
		logger.Named("handlers").Errorw("app error",
			"code", appErr.Code,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
		)
	}

	c.JSON(appErr.StatusCode, ErrorResponse{Error: ErrorDetail{Code: appErr.Code, Message: appErr.Message}})
}
