// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// displayCurrencies are the codes a transaction can be entered or shown in.
var displayCurrencies = map[string]bool{
	"ILS": true, "USD": true, "EUR": true, "ARS": true,
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("display_currency", validateDisplayCurrency)
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("goal_type", validateGoalType)
		_ = v.RegisterValidation("date_fallback", validateDateFallback)
	}
}

func validateDisplayCurrency(fl validator.FieldLevel) bool {
	return displayCurrencies[fl.Field().String()]
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateGoalType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "unico", "mensual", "periodo", "meta":
		return true
	}
	return false
}

func validateDateFallback(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "epoch", "today":
		return true
	}
	return false
}
