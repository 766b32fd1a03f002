package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BudHamud/safe/internal/currency"
	"github.com/BudHamud/safe/internal/dates"
	"github.com/BudHamud/safe/internal/insights"
	"github.com/BudHamud/safe/internal/models"
	"github.com/BudHamud/safe/internal/testutil"
)

// seedInsights stores an April 2024 log: income, two goal expenses, two
// paid recurring obligations and one March expense.
func seedInsights(t *testing.T, db *gorm.DB, userID string) {
	t.Helper()
	add := func(typ models.TransactionType, amount int64, date string, opts ...testutil.TxOption) {
		testutil.CreateTestTransaction(t, db, userID, typ, amount, date, opts...)
	}
	expense := models.TransactionTypeExpense
	add(models.TransactionTypeIncome, 2000, "2024-04-01", testutil.WithTag("Ingreso", "💼"), testutil.WithSnapshots("500", "500000", "2000", "250"))
	add(expense, 200, "2024-04-05", testutil.WithTag("Comida", "🍔"), testutil.WithSnapshots("50", "50000", "200", "25"))
	add(expense, 100, "Hoy", testutil.WithTag("Transporte", "🚌"), testutil.WithSnapshots("25", "25000", "100", "12.5"))
	add(expense, 900, "2024-04-01", testutil.WithDesc("Renta"), testutil.WithTag("Alquiler", "🏠"), testutil.WithGoal(models.GoalTypeMonthly, 0),
		testutil.WithSnapshots("225", "225000", "900", "112.5"))
	add(expense, 400, "2024-03-10", testutil.WithTag("Comida", "🍔"), testutil.WithSnapshots("100", "100000", "400", "50"))
	add(expense, 50, "2024-04-03", testutil.WithDesc("Gym"), testutil.WithTag("Salud", "💊"), testutil.WithGoal(models.GoalTypeMonthly, 0))
}

func TestInsightsService(t *testing.T) {
	pinClock(t, april15)
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewInsightsService(db, decimal.NewFromInt(200))
	user := testutil.CreateTestUser(t, db)

	seedInsights(t, db, user.ID)

	t.Run("dashboard_in_ils", func(t *testing.T) {
		d, err := svc.Dashboard(user.ID, ViewOptions{})
		testutil.AssertNoError(t, err)
		if d.Month != "2024-04" {
			t.Errorf("month = %s", d.Month)
		}
		// goal excludes the two recurring expenses
		assertDecimal(t, "goal expense", d.GoalExpense, "300")
		assertDecimal(t, "goal progress", d.GoalProgress, "30")
		assertDecimal(t, "previous", d.PreviousGoalExpense, "400")
		assertDecimal(t, "month expense", d.MonthTotals.Expense, "1250")
		assertDecimal(t, "savings target", d.SavingsTarget, "200")
		if len(d.Checklist) != 2 {
			t.Errorf("checklist = %+v", d.Checklist)
		}
	})

	t.Run("dashboard_in_usd_keeps_unsnapshotted_amounts", func(t *testing.T) {
		d, err := svc.Dashboard(user.ID, ViewOptions{Currency: currency.USD})
		testutil.AssertNoError(t, err)
		assertDecimal(t, "goal expense", d.GoalExpense, "75")
		// Gym has no snapshot, so its stored 50 is shown as is
		assertDecimal(t, "month expense", d.MonthTotals.Expense, "350")
	})

	t.Run("display_currency_preference", func(t *testing.T) {
		eur := currency.EUR
		_, err := NewUserService(db, decimal.Zero).UpdatePreferences(user.ID, PreferencesUpdate{DisplayCurrency: &eur})
		testutil.AssertNoError(t, err)
		defer db.Model(&models.User{}).Where("id = ?", user.ID).Update("display_currency", "ILS")

		g, err := svc.GoalStatus(user.ID, ViewOptions{})
		testutil.AssertNoError(t, err)
		assertDecimal(t, "spent in eur", g.Spent, "37.5")
	})

	t.Run("checklist", func(t *testing.T) {
		entries, err := svc.Checklist(user.ID, ViewOptions{})
		testutil.AssertNoError(t, err)
		if len(entries) != 2 {
			t.Fatalf("entries = %+v", entries)
		}
		for _, e := range entries {
			if !e.IsPaid {
				t.Errorf("%s should be paid this month", e.Label)
			}
		}
	})

	t.Run("stats_year", func(t *testing.T) {
		st, err := svc.Stats(user.ID, insights.YearWindow(2024), "comida", ViewOptions{})
		testutil.AssertNoError(t, err)
		if st.GoalProgress != nil {
			t.Error("year windows carry no goal progress")
		}
		assertDecimal(t, "march trend", st.Trend[2], "400")
		assertDecimal(t, "april trend", st.Trend[3], "300")
		if len(st.CategoryMovements) != 2 {
			t.Errorf("category movements = %d, want 2", len(st.CategoryMovements))
		}
	})

	t.Run("month_summary_counts_recurring", func(t *testing.T) {
		m, err := svc.MonthSummary(user.ID, dates.Period{Year: 2024, Month: time.April}, ViewOptions{})
		testutil.AssertNoError(t, err)
		assertDecimal(t, "goal expense", m.GoalExpense, "1250")
		if len(m.TopCategories) != 4 {
			t.Errorf("top categories = %+v", m.TopCategories)
		}
	})

	t.Run("goal_status", func(t *testing.T) {
		g, err := svc.GoalStatus(user.ID, ViewOptions{})
		testutil.AssertNoError(t, err)
		if g.Percent != 30 || g.DaysLeft != 15 {
			t.Errorf("goal status = %+v", g)
		}
	})

	t.Run("travel_mode", func(t *testing.T) {
		start := "2024-04-04"
		_, err := NewUserService(db, decimal.Zero).UpdatePreferences(user.ID, PreferencesUpdate{TravelModeStart: &start})
		testutil.AssertNoError(t, err)

		d, err := svc.Dashboard(user.ID, ViewOptions{})
		testutil.AssertNoError(t, err)
		if !d.TravelMode {
			t.Fatal("travel mode should be on")
		}
		assertDecimal(t, "goal expense since start", d.GoalExpense, "300")
		assertDecimal(t, "all time income", d.AllTime.Income, "0")
	})

	t.Run("unknown_user", func(t *testing.T) {
		_, err := svc.Dashboard("0190d7a4-0000-7000-8000-00000000ffff", ViewOptions{})
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}
