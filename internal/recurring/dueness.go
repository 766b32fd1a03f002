package recurring

import (
	"fmt"

	"github.com/BudHamud/safe/internal/dates"
	"github.com/BudHamud/safe/internal/models"
)

// DuenessChecker decides whether one occurrence of a recurring obligation
// makes it due in the given month.
type DuenessChecker interface {
	IsDue(tx *models.Transaction, occurred dates.Date, period dates.Period) bool
}

// MonthlyChecker treats every occurrence as due every month.
type MonthlyChecker struct{}

// IsDue always returns true.
func (MonthlyChecker) IsDue(_ *models.Transaction, _ dates.Date, _ dates.Period) bool {
	return true
}

// PeriodChecker schedules an occurrence every Periodicity months counted
// from the month it is dated in. Occurrences dated after the period, or
// without a positive periodicity, are never due.
type PeriodChecker struct{}

// IsDue returns true on the anchor month and every Periodicity months after.
func (PeriodChecker) IsDue(tx *models.Transaction, occurred dates.Date, period dates.Period) bool {
	if tx.Periodicity == nil || *tx.Periodicity <= 0 {
		return false
	}
	diff := period.MonthsSince(occurred.Period())
	return diff >= 0 && diff%*tx.Periodicity == 0
}

var duenessStrategies = map[models.GoalType]DuenessChecker{
	models.GoalTypeMonthly: MonthlyChecker{},
	models.GoalTypePeriod:  PeriodChecker{},
}

// GetDuenessChecker returns the checker for a recurring goal type.
func GetDuenessChecker(goalType models.GoalType) (DuenessChecker, error) {
	checker, ok := duenessStrategies[goalType]
	if !ok {
		return nil, fmt.Errorf("goal type %q does not recur", goalType)
	}
	return checker, nil
}

// CadenceLabel is the short badge shown next to an obligation.
func CadenceLabel(tx *models.Transaction) string {
	if tx.GoalType == models.GoalTypeMonthly {
		return "MENSUAL"
	}
	if tx.Periodicity == nil {
		return "PERIODO"
	}
	switch n := *tx.Periodicity; n {
	case 12:
		return "ANUAL"
	case 6:
		return "SEMESTRAL"
	default:
		return fmt.Sprintf("CADA %dM", n)
	}
}
