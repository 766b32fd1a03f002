package models

import (
	"github.com/shopspring/decimal"
)

// User is an account holder together with the preferences the views read.
type User struct {
	Base
	Username         string          `gorm:"uniqueIndex;not null" json:"username"`
	Password         string          `gorm:"not null" json:"-"`
	MonthlyGoal      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"monthly_goal"`
	DisplayCurrency  string          `gorm:"size:3;not null;default:ILS" json:"display_currency"`
	TravelModeStart  *string         `json:"travel_mode_start,omitempty"`
	RefreshTokenHash string          `gorm:"size:64" json:"-"`
}
