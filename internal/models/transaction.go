package models

import (
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// GoalType says how a movement relates to the monthly goal and whether it recurs.
type GoalType string

const (
	GoalTypeOneOff  GoalType = "unico"
	GoalTypeMonthly GoalType = "mensual"
	GoalTypePeriod  GoalType = "periodo"
	GoalTypeSavings GoalType = "meta"
)

// IsRecurring reports whether the goal type describes a repeating obligation.
func (g GoalType) IsRecurring() bool {
	return g == GoalTypeMonthly || g == GoalTypePeriod
}

// Valid reports whether g is one of the known goal types.
func (g GoalType) Valid() bool {
	switch g {
	case GoalTypeOneOff, GoalTypeMonthly, GoalTypePeriod, GoalTypeSavings:
		return true
	}
	return false
}

// Transaction is one movement in a user's log.
//
// Amount is the stored value every aggregate is computed from. The Amount*
// columns freeze the conversion into each display currency at save time and
// may be missing on imported or legacy rows. Date is kept exactly as entered.
type Transaction struct {
	Base
	UserID            string           `gorm:"type:uuid;not null;index" json:"user_id"`
	Desc              string           `gorm:"column:description;not null" json:"desc"`
	Amount            decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"amount"`
	AmountUSD         *decimal.Decimal `gorm:"column:amount_usd;type:numeric(18,2)" json:"amount_usd,omitempty"`
	AmountARS         *decimal.Decimal `gorm:"column:amount_ars;type:numeric(18,2)" json:"amount_ars,omitempty"`
	AmountILS         *decimal.Decimal `gorm:"column:amount_ils;type:numeric(18,2)" json:"amount_ils,omitempty"`
	AmountEUR         *decimal.Decimal `gorm:"column:amount_eur;type:numeric(18,2)" json:"amount_eur,omitempty"`
	Tag               string           `gorm:"not null;index" json:"tag"`
	Type              TransactionType  `gorm:"not null" json:"type"`
	Date              string           `gorm:"not null" json:"date"`
	Icon              string           `json:"icon"`
	Details           string           `json:"details,omitempty"`
	ExcludeFromBudget bool             `gorm:"not null;default:false" json:"exclude_from_budget"`
	GoalType          GoalType         `gorm:"not null;default:unico" json:"goal_type"`
	IsCancelled       bool             `gorm:"not null;default:false" json:"is_cancelled"`
	Periodicity       *int             `json:"periodicity,omitempty"`
	PaymentMethod     string           `json:"payment_method,omitempty"`
	CardDigits        string           `gorm:"size:4" json:"card_digits,omitempty"`
}

// IsExpense reports whether t is an expense.
func (t *Transaction) IsExpense() bool { return t.Type == TransactionTypeExpense }

// IsIncome reports whether t is income.
func (t *Transaction) IsIncome() bool { return t.Type == TransactionTypeIncome }

// HasSnapshots reports whether all four currency snapshots are present.
func (t *Transaction) HasSnapshots() bool {
	return t.AmountUSD != nil && t.AmountARS != nil && t.AmountILS != nil && t.AmountEUR != nil
}
