package insights

import (
	"github.com/BudHamud/safe/internal/catalog"
	"github.com/BudHamud/safe/internal/dates"
	"github.com/BudHamud/safe/internal/models"
	"github.com/BudHamud/safe/internal/recurring"

	"github.com/shopspring/decimal"
)

// Preferences is the per-user configuration the views read.
type Preferences struct {
	MonthlyGoal   decimal.Decimal
	SavingsTarget decimal.Decimal
	// TravelStart, when set, limits the views to movements dated on or
	// after it.
	TravelStart *dates.Date
}

const (
	dashboardTopCategories = 3
	dashboardRecent        = 7
	movementTopCategories  = 5
)

// Dashboard is the home screen summary for the current month.
type Dashboard struct {
	Month               string               `json:"month"`
	AllTime             Totals               `json:"all_time"`
	MonthTotals         Totals               `json:"month_totals"`
	GoalExpense         decimal.Decimal      `json:"goal_expense"`
	MonthlyGoal         decimal.Decimal      `json:"monthly_goal"`
	GoalProgress        decimal.Decimal      `json:"goal_progress"`
	PreviousGoalExpense decimal.Decimal      `json:"previous_goal_expense"`
	SpendingChange      decimal.Decimal      `json:"spending_change"`
	SavingsTarget       decimal.Decimal      `json:"savings_target"`
	TopCategories       []CategoryShare      `json:"top_categories"`
	Recent              []models.Transaction `json:"recent"`
	Checklist           []recurring.Entry    `json:"checklist"`
	TravelMode          bool                 `json:"travel_mode"`
	TravelModeStart     string               `json:"travel_mode_start,omitempty"`
}

// scope applies travel mode to txs.
func (e Engine) scope(txs []models.Transaction, prefs Preferences) []models.Transaction {
	if prefs.TravelStart == nil {
		return txs
	}
	return e.Since(txs, *prefs.TravelStart)
}

// Dashboard builds the home summary. txs must be in the display currency.
// The checklist always sees the full log, travel mode only narrows the
// totals and lists.
func (e Engine) Dashboard(txs []models.Transaction, prefs Preferences) Dashboard {
	view := append([]models.Transaction(nil), e.scope(txs, prefs)...)
	e.SortNewestFirst(view)

	period := dates.PeriodOf(e.Now)
	month := e.InWindow(view, MonthWindow(period))
	prev := e.InWindow(view, MonthWindow(period.Prev()))

	goalExpense := GoalExpense(month, DashboardRules)
	prevGoal := GoalExpense(prev, DashboardRules)

	var goalTxs []models.Transaction
	for i := range month {
		if DashboardRules.Counts(&month[i]) {
			goalTxs = append(goalTxs, month[i])
		}
	}

	recent := view
	if len(recent) > dashboardRecent {
		recent = recent[:dashboardRecent]
	}

	d := Dashboard{
		Month:               period.String(),
		AllTime:             Sum(view),
		MonthTotals:         Sum(month),
		GoalExpense:         goalExpense,
		MonthlyGoal:         prefs.MonthlyGoal,
		GoalProgress:        GoalProgress(goalExpense, prefs.MonthlyGoal),
		PreviousGoalExpense: prevGoal,
		SpendingChange:      MonthOverMonth(goalExpense, prevGoal),
		SavingsTarget:       prefs.SavingsTarget,
		TopCategories:       nonNil(Breakdown(goalTxs, dashboardTopCategories)),
		Recent:              nonNilTx(recent),
		Checklist:           e.Checklist(txs),
	}
	if prefs.TravelStart != nil {
		d.TravelMode = true
		d.TravelModeStart = prefs.TravelStart.ISO()
	}
	return d
}

// Checklist reconciles recurring obligations for the current month.
func (e Engine) Checklist(txs []models.Transaction) []recurring.Entry {
	entries := recurring.Reconcile(txs, recurring.Options{Now: e.Now, Fallback: e.Fallback})
	if entries == nil {
		entries = []recurring.Entry{}
	}
	return entries
}

// Stats is the metrics screen for a selected year or month.
type Stats struct {
	Year              int                  `json:"year"`
	Month             int                  `json:"month,omitempty"`
	Totals            Totals               `json:"totals"`
	GoalExpense       decimal.Decimal      `json:"goal_expense"`
	GoalProgress      *decimal.Decimal     `json:"goal_progress,omitempty"`
	MonthlyGoal       decimal.Decimal      `json:"monthly_goal"`
	Categories        []CategoryShare      `json:"categories"`
	Trend             [12]decimal.Decimal  `json:"trend"`
	TrendMax          decimal.Decimal      `json:"trend_max"`
	Years             []int                `json:"years"`
	Category          string               `json:"category,omitempty"`
	CategoryMovements []models.Transaction `json:"category_movements,omitempty"`
}

// Stats builds the metrics for w. category, when not empty, also lists the
// window's movements under that tag. Goal progress is only reported for
// single-month windows.
func (e Engine) Stats(txs []models.Transaction, w Window, category string, prefs Preferences) Stats {
	view := e.scope(txs, prefs)
	inWindow := e.InWindow(view, w)
	goalExpense := GoalExpense(inWindow, DashboardRules)

	s := Stats{
		Year:        w.Year,
		Month:       int(w.Month),
		Totals:      Sum(inWindow),
		GoalExpense: goalExpense,
		MonthlyGoal: prefs.MonthlyGoal,
		Categories:  nonNil(Breakdown(inWindow, 0)),
		Trend:       e.YearTrend(view, w.Year, DashboardRules),
		Years:       e.Years(view),
	}
	if w.IsMonth() {
		p := GoalProgress(goalExpense, prefs.MonthlyGoal)
		s.GoalProgress = &p
	}

	s.TrendMax = decimal.Max(decimal.NewFromInt(1), append([]decimal.Decimal{prefs.MonthlyGoal}, s.Trend[:]...)...)

	if category != "" {
		s.Category = category
		s.CategoryMovements = []models.Transaction{}
		for i := range inWindow {
			if catalog.Matches(inWindow[i].Tag, category) {
				s.CategoryMovements = append(s.CategoryMovements, inWindow[i])
			}
		}
		e.SortNewestFirst(s.CategoryMovements)
	}
	return s
}

// MonthSummary is the header of the movement list for one month.
type MonthSummary struct {
	Month         string          `json:"month"`
	Totals        Totals          `json:"totals"`
	TopCategories []CategoryShare `json:"top_categories"`
	GoalExpense   decimal.Decimal `json:"goal_expense"`
	GoalProgress  decimal.Decimal `json:"goal_progress"`
}

// MonthSummary summarizes period p. Its goal ring counts recurring
// expenses, unlike the dashboard.
func (e Engine) MonthSummary(txs []models.Transaction, p dates.Period, prefs Preferences) MonthSummary {
	month := e.InWindow(e.scope(txs, prefs), MonthWindow(p))
	goal := GoalExpense(month, MovementRules)
	return MonthSummary{
		Month:         p.String(),
		Totals:        Sum(month),
		TopCategories: nonNil(Breakdown(month, movementTopCategories)),
		GoalExpense:   goal,
		GoalProgress:  GoalProgress(goal, prefs.MonthlyGoal),
	}
}

// GoalStatus is the profile goal card.
type GoalStatus struct {
	MonthlyGoal decimal.Decimal `json:"monthly_goal"`
	Spent       decimal.Decimal `json:"spent"`
	Percent     int64           `json:"percent"`
	DaysLeft    int             `json:"days_left"`
}

// GoalStatus reports this month's goal consumption with the percentage
// rounded to a whole number.
func (e Engine) GoalStatus(txs []models.Transaction, prefs Preferences) GoalStatus {
	period := dates.PeriodOf(e.Now)
	spent := GoalExpense(e.InWindow(e.scope(txs, prefs), MonthWindow(period)), DashboardRules)
	return GoalStatus{
		MonthlyGoal: prefs.MonthlyGoal,
		Spent:       spent,
		Percent:     GoalProgress(spent, prefs.MonthlyGoal).Round(0).IntPart(),
		DaysLeft:    period.DaysLeft(e.Today()),
	}
}

func nonNil(s []CategoryShare) []CategoryShare {
	if s == nil {
		return []CategoryShare{}
	}
	return s
}

func nonNilTx(s []models.Transaction) []models.Transaction {
	if s == nil {
		return []models.Transaction{}
	}
	return s
}
