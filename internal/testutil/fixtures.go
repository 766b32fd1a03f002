package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BudHamud/safe/internal/models"
)

// TestPassword is the password of every fixture user.
const TestPassword = "password123"

var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a unique username and a monthly goal
// of 1000.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithUsername(t, db, fmt.Sprintf("user%d", nextID()))
}

// CreateTestUserWithUsername creates a user with the given username.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:        username,
		Password:        string(hash),
		MonthlyGoal:     decimal.NewFromInt(1000),
		DisplayCurrency: "ILS",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// TxOption customizes a fixture transaction.
type TxOption func(*models.Transaction)

// WithTag sets tag and icon.
func WithTag(tag, icon string) TxOption {
	return func(tx *models.Transaction) { tx.Tag, tx.Icon = tag, icon }
}

// WithDesc sets the description.
func WithDesc(desc string) TxOption {
	return func(tx *models.Transaction) { tx.Desc = desc }
}

// WithGoal sets the goal type and periodicity.
func WithGoal(goal models.GoalType, periodicity int) TxOption {
	return func(tx *models.Transaction) {
		tx.GoalType = goal
		if periodicity > 0 {
			tx.Periodicity = &periodicity
		}
	}
}

// WithSnapshots sets all four snapshots. Amount becomes the ILS value.
func WithSnapshots(usd, ars, ils, eur string) TxOption {
	return func(tx *models.Transaction) {
		d := func(s string) *decimal.Decimal {
			v := decimal.RequireFromString(s)
			return &v
		}
		tx.AmountUSD, tx.AmountARS, tx.AmountILS, tx.AmountEUR = d(usd), d(ars), d(ils), d(eur)
		tx.Amount = *tx.AmountILS
	}
}

// CreateTestTransaction stores a one-off movement without snapshots.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, txType models.TransactionType, amount int64, date string, opts ...TxOption) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:   userID,
		Desc:     fmt.Sprintf("movement %d", nextID()),
		Amount:   decimal.NewFromInt(amount),
		Tag:      "Comida",
		Icon:     "🍔",
		Type:     txType,
		Date:     date,
		GoalType: models.GoalTypeOneOff,
	}
	for _, opt := range opts {
		opt(tx)
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestCustomCategory stores a category override.
func CreateTestCustomCategory(t *testing.T, db *gorm.DB, userID, label, icon string, hidden bool) *models.CustomCategory {
	t.Helper()

	c := &models.CustomCategory{UserID: userID, Label: label, Icon: icon, Hidden: hidden}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return c
}
