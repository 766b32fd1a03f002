package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/BudHamud/safe/internal/currency"
	"github.com/BudHamud/safe/internal/dates"
	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/models"
	"github.com/BudHamud/safe/internal/pagination"
	"github.com/BudHamud/safe/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	insightsService    services.InsightsServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(
	transactionService services.TransactionServicer,
	insightsService services.InsightsServicer,
	auditService services.AuditServicer,
) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		insightsService:    insightsService,
		auditService:       auditService,
	}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
// Amount is in Currency; the stored currency is used when Currency is empty.
type CreateTransactionRequest struct {
	Desc              string                 `json:"desc" binding:"max=500"`
	Amount            decimal.Decimal        `json:"amount"`
	Currency          string                 `json:"currency" binding:"omitempty,display_currency"`
	Tag               string                 `json:"tag" binding:"required,max=100"`
	Type              models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	Date              string                 `json:"date" binding:"max=32"`
	Icon              string                 `json:"icon" binding:"max=16"`
	Details           string                 `json:"details" binding:"max=1000"`
	ExcludeFromBudget bool                   `json:"exclude_from_budget"`
	GoalType          models.GoalType        `json:"goal_type" binding:"omitempty,goal_type"`
	Periodicity       *int                   `json:"periodicity" binding:"omitempty,min=1"`
	PaymentMethod     string                 `json:"payment_method" binding:"max=32"`
	CardDigits        string                 `json:"card_digits" binding:"omitempty,len=4,numeric"`
}

func (r CreateTransactionRequest) input() services.TransactionInput {
	return services.TransactionInput{
		Desc:              r.Desc,
		Amount:            r.Amount,
		Currency:          currency.Code(r.Currency),
		Tag:               r.Tag,
		Type:              r.Type,
		Date:              r.Date,
		Icon:              r.Icon,
		Details:           r.Details,
		ExcludeFromBudget: r.ExcludeFromBudget,
		GoalType:          r.GoalType,
		Periodicity:       r.Periodicity,
		PaymentMethod:     r.PaymentMethod,
		CardDigits:        r.CardDigits,
	}
}

// UpdateTransactionRequest represents the request payload for updating a transaction.
// A new amount or currency recomputes the stored snapshots.
type UpdateTransactionRequest struct {
	Desc              *string                 `json:"desc" binding:"omitempty,max=500"`
	Amount            *decimal.Decimal        `json:"amount"`
	Currency          *string                 `json:"currency" binding:"omitempty,display_currency"`
	Tag               *string                 `json:"tag" binding:"omitempty,min=1,max=100"`
	Type              *models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	Date              *string                 `json:"date" binding:"omitempty,max=32"`
	Icon              *string                 `json:"icon" binding:"omitempty,max=16"`
	Details           *string                 `json:"details" binding:"omitempty,max=1000"`
	ExcludeFromBudget *bool                   `json:"exclude_from_budget"`
	GoalType          *models.GoalType        `json:"goal_type" binding:"omitempty,goal_type"`
	Periodicity       *int                    `json:"periodicity" binding:"omitempty,min=1"`
	PaymentMethod     *string                 `json:"payment_method" binding:"omitempty,max=32"`
	CardDigits        *string                 `json:"card_digits" binding:"omitempty,len=4,numeric"`
}

func (r UpdateTransactionRequest) update() services.TransactionUpdate {
	upd := services.TransactionUpdate{
		Desc:              r.Desc,
		Amount:            r.Amount,
		Tag:               r.Tag,
		Type:              r.Type,
		Date:              r.Date,
		Icon:              r.Icon,
		Details:           r.Details,
		ExcludeFromBudget: r.ExcludeFromBudget,
		GoalType:          r.GoalType,
		Periodicity:       r.Periodicity,
		PaymentMethod:     r.PaymentMethod,
		CardDigits:        r.CardDigits,
	}
	if r.Currency != nil {
		code := currency.Code(*r.Currency)
		upd.Currency = &code
	}
	return upd
}

// listQuery holds the movement list filters.
type listQuery struct {
	viewQuery
	Search   string `form:"search" binding:"max=200"`
	Year     int    `form:"year" binding:"omitempty,min=1970,max=9999"`
	Month    int    `form:"month" binding:"omitempty,min=1,max=12"`
	Category string `form:"category" binding:"max=100"`
	Type     string `form:"type" binding:"omitempty,transaction_type"`
}

// periodQuery selects a calendar month. Missing fields default to today.
type periodQuery struct {
	viewQuery
	Year  int `form:"year" binding:"omitempty,min=1970,max=9999"`
	Month int `form:"month" binding:"omitempty,min=1,max=12"`
}

func (q periodQuery) period(now time.Time) dates.Period {
	p := dates.PeriodOf(now)
	if q.Year != 0 {
		p.Year = q.Year
	}
	if q.Month != 0 {
		p.Month = time.Month(q.Month)
	}
	return p
}

// GetUserTransactions handles the retrieval of the movement list
// @Summary     List transactions
// @Description Paginated movement list, newest first, with optional filters and currency projection
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 10, max 100)"
// @Param       search        query string false "Case-insensitive match on description, category or details"
// @Param       year          query int    false "Filter by year"
// @Param       month         query int    false "Filter by month (1-12)"
// @Param       category      query string false "Filter by category"
// @Param       type          query string false "Filter by type (income, expense)"
// @Param       currency      query string false "Project amounts into this currency"
// @Param       date_fallback query string false "Unreadable date policy (epoch, today)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	opts := q.options()
	filter := services.TransactionFilter{
		Search:   q.Search,
		Year:     q.Year,
		Month:    time.Month(q.Month),
		Category: q.Category,
		Type:     models.TransactionType(q.Type),
		Currency: opts.Currency,
		Fallback: opts.Fallback,
	}

	result, err := h.transactionService.ListTransactions(userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMonthSummary returns the totals and top categories of one month
// @Summary     Month summary
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       year          query int    false "Year (default current)"
// @Param       month         query int    false "Month 1-12 (default current)"
// @Param       currency      query string false "Display currency"
// @Param       date_fallback query string false "Unreadable date policy (epoch, today)"
// @Success     200 {object} insights.MonthSummary "Month summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/summary [get]
func (h *TransactionHandler) GetMonthSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q periodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	summary, err := h.insightsService.MonthSummary(userID, q.period(time.Now()), q.options())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Create a new income or expense. Entered amounts are converted to the stored currency and every snapshot is frozen.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Exchange rates unavailable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request.Context(), userID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateTransaction, models.AuditResourceTransaction, transaction.ID, c.ClientIP(),
		map[string]interface{}{"type": transaction.Type, "amount": transaction.Amount.String(), "tag": transaction.Tag})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles updating an existing transaction
// @Summary     Update transaction
// @Description Change the given fields of a transaction. A new amount or currency recomputes the snapshots.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     503 {object} ErrorResponse "Exchange rates unavailable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request.Context(), userID, txID, req.update())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateTransaction, models.AuditResourceTransaction, txID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteTransaction, models.AuditResourceTransaction, transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// CancelRecurrence stops a recurring obligation from showing in the checklist
// @Summary     Cancel recurrence
// @Description Mark a recurring expense and every earlier payment of the same obligation as cancelled
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} AffectedResponse "Number of cancelled movements"
// @Failure     400 {object} ErrorResponse "Not a recurring expense"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/cancel-recurrence [post]
func (h *TransactionHandler) CancelRecurrence(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	n, err := h.transactionService.CancelRecurrence(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCancelRecurrence, models.AuditResourceTransaction, transactionID, c.ClientIP(),
		map[string]interface{}{"affected": n})

	c.JSON(http.StatusOK, AffectedResponse{Affected: n})
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}

// AffectedResponse reports how many movements a bulk operation changed.
type AffectedResponse struct {
	Affected int64 `json:"affected"`
}
