package testutil_test

import (
	"testing"

	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/models"
	"github.com/BudHamud/safe/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"users", "transactions", "custom_categories", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	a := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, a)
	b := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, b)

	testutil.CreateTestUser(t, a)

	var count int64
	b.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("second database sees %d users, want 0", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, 250, "2024-03-01",
		testutil.WithTag("Alquiler", "🏠"),
		testutil.WithGoal(models.GoalTypePeriod, 3),
		testutil.WithSnapshots("68.5", "70000", "250", "63.1"),
	)

	var stored models.Transaction
	if err := db.First(&stored, "id = ?", tx.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Tag != "Alquiler" || stored.GoalType != models.GoalTypePeriod {
		t.Errorf("unexpected stored movement: %+v", stored)
	}
	if stored.Periodicity == nil || *stored.Periodicity != 3 {
		t.Errorf("periodicity = %v, want 3", stored.Periodicity)
	}
	if !stored.HasSnapshots() || stored.AmountUSD.String() != "68.5" {
		t.Errorf("snapshots not stored: %+v", stored)
	}

	cat := testutil.CreateTestCustomCategory(t, db, user.ID, "Mascotas", "🐶", false)
	if cat.ID == "" || cat.Hidden {
		t.Errorf("unexpected category: %+v", cat)
	}
}

func TestAssertAppError(t *testing.T) {
	testutil.AssertAppError(t, apperrors.ErrTransactionNotFound, "TRANSACTION_NOT_FOUND")
	testutil.AssertAppError(t, apperrors.Wrap(apperrors.ErrRatesUnavailable, nil), "RATES_UNAVAILABLE")
	testutil.AssertNoError(t, nil)
}
