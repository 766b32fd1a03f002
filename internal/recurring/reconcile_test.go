package recurring

import (
	"testing"
	"time"

	"github.com/BudHamud/safe/internal/dates"
	"github.com/BudHamud/safe/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var april = time.Date(2024, time.April, 10, 12, 0, 0, 0, time.Local)

func intPtr(n int) *int { return &n }

func expense(id, desc, tag, date string, goal models.GoalType) models.Transaction {
	return models.Transaction{
		Base:     models.Base{ID: id},
		Desc:     desc,
		Tag:      tag,
		Date:     date,
		Type:     models.TransactionTypeExpense,
		GoalType: goal,
		Amount:   decimal.NewFromInt(100),
	}
}

func TestPeriodChecker(t *testing.T) {
	tx := expense("p", "Seguro", "Auto", "2024-01-05", models.GoalTypePeriod)
	tx.Periodicity = intPtr(6)
	anchor := dates.Date{Year: 2024, Month: time.January, Day: 5}

	var checker PeriodChecker
	for offset := 0; offset <= 24; offset++ {
		period := anchor.Period()
		for i := 0; i < offset; i++ {
			period = period.Next()
		}
		want := offset%6 == 0
		assert.Equal(t, want, checker.IsDue(&tx, anchor, period), "offset %d", offset)
	}

	assert.False(t, checker.IsDue(&tx, anchor, anchor.Period().Prev()), "not due before the anchor")

	tx.Periodicity = nil
	assert.False(t, checker.IsDue(&tx, anchor, anchor.Period()))
	tx.Periodicity = intPtr(0)
	assert.False(t, checker.IsDue(&tx, anchor, anchor.Period()))
}

func TestGetDuenessChecker(t *testing.T) {
	_, err := GetDuenessChecker(models.GoalTypeMonthly)
	assert.NoError(t, err)
	_, err = GetDuenessChecker(models.GoalTypeOneOff)
	assert.Error(t, err)
}

func TestCadenceLabel(t *testing.T) {
	tx := expense("x", "a", "b", "Hoy", models.GoalTypePeriod)
	tx.Periodicity = intPtr(12)
	assert.Equal(t, "ANUAL", CadenceLabel(&tx))
	tx.Periodicity = intPtr(6)
	assert.Equal(t, "SEMESTRAL", CadenceLabel(&tx))
	tx.Periodicity = intPtr(3)
	assert.Equal(t, "CADA 3M", CadenceLabel(&tx))
	tx.GoalType = models.GoalTypeMonthly
	assert.Equal(t, "MENSUAL", CadenceLabel(&tx))
}

func TestReconcile_PaidAcrossOccurrences(t *testing.T) {
	txs := []models.Transaction{
		expense("old", "Alquiler", "Vivienda", "10/03/2024", models.GoalTypeMonthly),
		expense("new", " alquiler ", "VIVIENDA", "Hoy", models.GoalTypeMonthly),
	}

	entries := Reconcile(txs, Options{Now: april})
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsPaid)
	assert.Equal(t, "new", entries[0].Transaction.ID)
	assert.Equal(t, "alquiler-vivienda", entries[0].Key)
	assert.Nil(t, entries[0].Draft, "paid entries carry no draft")
}

func TestReconcile_PaidFlagSurvivesNewerUnpaidOccurrence(t *testing.T) {
	txs := []models.Transaction{
		expense("paid", "Gym", "Salud", "02/04/2024", models.GoalTypeMonthly),
		expense("future", "Gym", "Salud", "02/05/2024", models.GoalTypeMonthly),
	}

	entries := Reconcile(txs, Options{Now: april})
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsPaid)
	assert.Equal(t, "future", entries[0].Transaction.ID)
	assert.Equal(t, 2, entries[0].DueDay)
}

func TestReconcile_MonthlyWithoutCurrentOccurrenceIsPending(t *testing.T) {
	tx := expense("rent", "Alquiler", "Vivienda", "05/01/2024", models.GoalTypeMonthly)
	ils := decimal.NewFromInt(3700)
	tx.AmountILS = &ils
	tx.Icon = "🏠"

	entries := Reconcile([]models.Transaction{tx}, Options{Now: april})
	require.Len(t, entries, 1)
	assert.False(t, entries[0].IsPaid)
	assert.Equal(t, 5, entries[0].DueDay)
	assert.Equal(t, "Alquiler", entries[0].Label)

	require.NotNil(t, entries[0].Draft)
	assert.True(t, entries[0].Draft.Amount.Equal(ils))
	assert.Equal(t, "ILS", entries[0].Draft.Currency)
	assert.Equal(t, "🏠", entries[0].Draft.Icon)
	assert.Equal(t, models.GoalTypeMonthly, entries[0].Draft.GoalType)
}

func TestReconcile_PeriodDueness(t *testing.T) {
	quarterly := expense("q", "Impuesto", "Estado", "2024-01-15", models.GoalTypePeriod)
	quarterly.Periodicity = intPtr(3)
	bimonthly := expense("b", "Agua", "Servicios", "2024-01-20", models.GoalTypePeriod)
	bimonthly.Periodicity = intPtr(2)

	entries := Reconcile([]models.Transaction{quarterly, bimonthly}, Options{Now: april})
	require.Len(t, entries, 1, "January + 3 months is April, +2 is not")
	assert.Equal(t, "q", entries[0].Transaction.ID)
	assert.False(t, entries[0].IsPaid)
	assert.Equal(t, "CADA 3M", entries[0].Cadence)
}

func TestReconcile_Filters(t *testing.T) {
	cancelled := expense("c", "Netflix", "Ocio", "Hoy", models.GoalTypeMonthly)
	cancelled.IsCancelled = true
	income := expense("i", "Sueldo", "Trabajo", "Hoy", models.GoalTypeMonthly)
	income.Type = models.TransactionTypeIncome
	oneOff := expense("o", "Cena", "Comida", "Hoy", models.GoalTypeOneOff)

	entries := Reconcile([]models.Transaction{cancelled, income, oneOff}, Options{Now: april})
	assert.Empty(t, entries)
}

func TestReconcile_Ordering(t *testing.T) {
	txs := []models.Transaction{
		expense("a", "Luz", "Servicios", "20/03/2024", models.GoalTypeMonthly),
		expense("b", "Internet", "Servicios", "03/04/2024", models.GoalTypeMonthly),
		expense("c", "Alquiler", "Vivienda", "01/03/2024", models.GoalTypeMonthly),
		expense("d", "Gas", "Servicios", "01/04/2024", models.GoalTypeMonthly),
	}

	entries := Reconcile(txs, Options{Now: april})
	require.Len(t, entries, 4)
	ids := []string{entries[0].Transaction.ID, entries[1].Transaction.ID, entries[2].Transaction.ID, entries[3].Transaction.ID}
	assert.Equal(t, []string{"c", "a", "d", "b"}, ids)
	assert.Len(t, Pending(entries), 2)
}

func TestReconcile_UnparseableDateFallback(t *testing.T) {
	tx := expense("x", "Club", "Ocio", "sin fecha", models.GoalTypeMonthly)

	entries := Reconcile([]models.Transaction{tx}, Options{Now: april, Fallback: dates.FallbackEpoch})
	require.Len(t, entries, 1)
	assert.False(t, entries[0].IsPaid)

	entries = Reconcile([]models.Transaction{tx}, Options{Now: april, Fallback: dates.FallbackToday})
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsPaid)
	assert.Equal(t, 10, entries[0].DueDay)
}

func TestOccurrences(t *testing.T) {
	cancelled := expense("c", "Luz", "Servicios", "01/01/2024", models.GoalTypeMonthly)
	cancelled.IsCancelled = true
	txs := []models.Transaction{
		expense("a", "Luz", "Servicios", "01/03/2024", models.GoalTypeMonthly),
		expense("b", "LUZ ", "servicios", "01/04/2024", models.GoalTypeMonthly),
		cancelled,
		expense("d", "Luz", "Otros", "01/04/2024", models.GoalTypeMonthly),
	}
	assert.Equal(t, []string{"a", "b"}, Occurrences(txs, &txs[0]))
}
