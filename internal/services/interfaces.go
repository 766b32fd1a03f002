package services

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BudHamud/safe/internal/catalog"
	"github.com/BudHamud/safe/internal/currency"
	"github.com/BudHamud/safe/internal/dates"
	"github.com/BudHamud/safe/internal/fileio"
	"github.com/BudHamud/safe/internal/insights"
	"github.com/BudHamud/safe/internal/models"
	"github.com/BudHamud/safe/internal/pagination"
	"github.com/BudHamud/safe/internal/recurring"
)

// PreferencesUpdate holds the profile settings a user may change. Nil
// fields are left alone; an empty TravelModeStart turns travel mode off.
type PreferencesUpdate struct {
	DisplayCurrency *currency.Code
	TravelModeStart *string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(username, password string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	AttemptLogin(username, password string) (*models.User, error)
	UpdateMonthlyGoal(userID string, goal decimal.Decimal) (*models.User, error)
	UpdatePreferences(userID string, update PreferencesUpdate) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// TransactionFilter narrows the movement list. Zero values match
// everything.
type TransactionFilter struct {
	Search   string
	Year     int
	Month    time.Month
	Category string
	Type     models.TransactionType
	// Currency projects the returned amounts. Empty keeps stored amounts.
	Currency currency.Code
	Fallback dates.Policy
}

// TransactionInput is a new movement as entered. Amount is in Currency.
type TransactionInput struct {
	Desc              string
	Amount            decimal.Decimal
	Currency          currency.Code
	Tag               string
	Type              models.TransactionType
	Date              string
	Icon              string
	Details           string
	ExcludeFromBudget bool
	GoalType          models.GoalType
	Periodicity       *int
	PaymentMethod     string
	CardDigits        string
}

// TransactionUpdate changes the non-nil fields of a movement. A new Amount
// or Currency recomputes every snapshot.
type TransactionUpdate struct {
	Desc              *string
	Amount            *decimal.Decimal
	Currency          *currency.Code
	Tag               *string
	Type              *models.TransactionType
	Date              *string
	Icon              *string
	Details           *string
	ExcludeFromBudget *bool
	GoalType          *models.GoalType
	Periodicity       *int
	PaymentMethod     *string
	CardDigits        *string
}

// BackfillResult reports a snapshot backfill run.
type BackfillResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	ListTransactions(userID string, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	GetUserTransactions(userID string) ([]models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, update TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	CancelRecurrence(userID, transactionID string) (int64, error)
	BackfillSnapshots(ctx context.Context, userID string) (*BackfillResult, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	ListCategories(userID string) ([]catalog.Category, error)
	GetCategoryUsage(userID string) ([]catalog.Usage, error)
	CreateCategory(userID, label, icon string) (*catalog.Category, error)
	RenameCategory(userID, oldTag, newTag, newIcon string) (int64, error)
	MergeCategory(userID, fromTag, intoTag string) (int64, error)
	DeleteCategory(userID, tag string) (int64, error)
}

// ViewOptions selects how a view is computed. An empty Currency uses the
// user's display currency.
type ViewOptions struct {
	Currency currency.Code
	Fallback dates.Policy
}

// InsightsServicer defines the contract for the read-only summaries.
type InsightsServicer interface {
	Dashboard(userID string, opts ViewOptions) (*insights.Dashboard, error)
	Stats(userID string, window insights.Window, category string, opts ViewOptions) (*insights.Stats, error)
	Checklist(userID string, opts ViewOptions) ([]recurring.Entry, error)
	MonthSummary(userID string, period dates.Period, opts ViewOptions) (*insights.MonthSummary, error)
	GoalStatus(userID string, opts ViewOptions) (*insights.GoalStatus, error)
}

// ImportResult reports an import run.
type ImportResult struct {
	Imported  int  `json:"imported"`
	WithRates bool `json:"with_rates"`
}

// ImportServicer defines the contract for spreadsheet import and export.
type ImportServicer interface {
	Import(ctx context.Context, userID, fileName string, r io.Reader) (*ImportResult, error)
	Export(userID string, format fileio.Format, w io.Writer) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
