package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BudHamud/safe/internal/currency"
	"github.com/BudHamud/safe/internal/dates"
	"github.com/BudHamud/safe/internal/insights"
	"github.com/BudHamud/safe/internal/logger"
	"github.com/BudHamud/safe/internal/models"
	"github.com/BudHamud/safe/internal/recurring"
)

// insightsService computes the dashboard, stats, checklist and goal views
// from the full movement log.
type insightsService struct {
	db            *gorm.DB
	savingsTarget decimal.Decimal
}

// NewInsightsService creates a new InsightsServicer.
func NewInsightsService(db *gorm.DB, savingsTarget decimal.Decimal) InsightsServicer {
	return &insightsService{db: db, savingsTarget: savingsTarget}
}

// viewInput is everything a view needs: the log in display currency, the
// engine and the user's preferences.
type viewInput struct {
	txs    []models.Transaction
	engine insights.Engine
	prefs  insights.Preferences
}

func (s *insightsService) prepare(userID string, opts ViewOptions) (*viewInput, error) {
	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}
	txs, err := loadTransactions(s.db, userID)
	if err != nil {
		return nil, err
	}

	code := opts.Currency
	if code == "" {
		code = displayCurrency(user)
	}
	now := timeNow()

	prefs := insights.Preferences{
		MonthlyGoal:   user.MonthlyGoal,
		SavingsTarget: s.savingsTarget,
	}
	if user.TravelModeStart != nil {
		if d, ok := dates.Parse(*user.TravelModeStart, now); ok {
			prefs.TravelStart = &d
		} else {
			logger.Named("insights").Warnw("ignoring unparseable travel mode start",
				"user_id", userID, "travel_mode_start", *user.TravelModeStart)
		}
	}

	return &viewInput{
		txs:    project(txs, code),
		engine: insights.New(now, opts.Fallback),
		prefs:  prefs,
	}, nil
}

func displayCurrency(user *models.User) currency.Code {
	code, err := currency.ParseCode(user.DisplayCurrency)
	if err != nil {
		return currency.Stored
	}
	return code
}

// Dashboard builds the home summary for the current month.
func (s *insightsService) Dashboard(userID string, opts ViewOptions) (*insights.Dashboard, error) {
	in, err := s.prepare(userID, opts)
	if err != nil {
		return nil, err
	}
	d := in.engine.Dashboard(in.txs, in.prefs)
	return &d, nil
}

// Stats builds the metrics screen for a year or month window.
func (s *insightsService) Stats(userID string, window insights.Window, category string, opts ViewOptions) (*insights.Stats, error) {
	in, err := s.prepare(userID, opts)
	if err != nil {
		return nil, err
	}
	st := in.engine.Stats(in.txs, window, category, in.prefs)
	return &st, nil
}

// Checklist reconciles the recurring obligations of the current month.
func (s *insightsService) Checklist(userID string, opts ViewOptions) ([]recurring.Entry, error) {
	in, err := s.prepare(userID, opts)
	if err != nil {
		return nil, err
	}
	return in.engine.Checklist(in.txs), nil
}

// MonthSummary summarizes one month of the movement list.
func (s *insightsService) MonthSummary(userID string, period dates.Period, opts ViewOptions) (*insights.MonthSummary, error) {
	in, err := s.prepare(userID, opts)
	if err != nil {
		return nil, err
	}
	m := in.engine.MonthSummary(in.txs, period, in.prefs)
	return &m, nil
}

// GoalStatus reports this month's goal card.
func (s *insightsService) GoalStatus(userID string, opts ViewOptions) (*insights.GoalStatus, error) {
	in, err := s.prepare(userID, opts)
	if err != nil {
		return nil, err
	}
	g := in.engine.GoalStatus(in.txs, in.prefs)
	return &g, nil
}
