package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BudHamud/safe/internal/catalog"
	"github.com/BudHamud/safe/internal/currency"
	"github.com/BudHamud/safe/internal/dates"
	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/insights"
	"github.com/BudHamud/safe/internal/logger"
	"github.com/BudHamud/safe/internal/models"
	"github.com/BudHamud/safe/internal/pagination"
	"github.com/BudHamud/safe/internal/rates"
	"github.com/BudHamud/safe/internal/recurring"
)

// timeNow is the clock every service reads. Tests pin it.
var timeNow = time.Now

const backfillBatchSize = 200

// transactionService handles transaction-related business logic.
type transactionService struct {
	db      *gorm.DB
	rates   rates.Source
	catalog *catalog.Catalog
}

// NewTransactionService creates a new TransactionServicer. Saving a
// movement needs a rate table from source.
func NewTransactionService(db *gorm.DB, source rates.Source, cat *catalog.Catalog) TransactionServicer {
	if cat == nil {
		cat = catalog.Default()
	}
	return &transactionService{db: db, rates: source, catalog: cat}
}

// loadTransactions returns every movement of a user in storage order.
func loadTransactions(db *gorm.DB, userID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := db.Where("user_id = ?", userID).Order("created_at, id").Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txs, nil
}

// project converts txs to code and logs movements that had no snapshot.
func project(txs []models.Transaction, code currency.Code) []models.Transaction {
	out, missing := currency.ProjectAll(txs, code)
	if len(missing) > 0 {
		logger.Named("currency").Debugw("movements without snapshot, showing stored amount",
			"currency", code,
			"count", len(missing),
			"transaction_ids", missing,
		)
	}
	return out
}

// ListTransactions returns one page of the filtered movement list, newest
// first by normalized date.
func (s *transactionService) ListTransactions(userID string, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	txs, err := loadTransactions(s.db, userID)
	if err != nil {
		return nil, err
	}

	engine := insights.New(timeNow(), filter.Fallback)
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	matched := make([]models.Transaction, 0, len(txs))
	for i := range txs {
		tx := &txs[i]
		if search != "" &&
			!strings.Contains(strings.ToLower(tx.Desc), search) &&
			!strings.Contains(strings.ToLower(tx.Tag), search) {
			continue
		}
		if filter.Category != "" && !catalog.Matches(tx.Tag, filter.Category) {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if filter.Year != 0 || filter.Month != 0 {
			d := engine.DateOf(tx)
			if filter.Year != 0 && d.Year != filter.Year {
				continue
			}
			if filter.Month != 0 && d.Month != filter.Month {
				continue
			}
		}
		matched = append(matched, *tx)
	}

	engine.SortNewestFirst(matched)
	if filter.Currency != "" {
		matched = project(matched, filter.Currency)
	}

	resp := pagination.Slice(matched, page)
	return &resp, nil
}

// GetUserTransactions returns the full log in stored amounts.
func (s *transactionService) GetUserTransactions(userID string) ([]models.Transaction, error) {
	return loadTransactions(s.db, userID)
}

// GetTransactionByID retrieves a movement owned by the user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &tx, nil
}

// CreateTransaction saves a movement with its currency snapshots. The write
// is refused when no rate table can be fetched.
func (s *transactionService) CreateTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if strings.TrimSpace(in.Tag) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}

	tx := &models.Transaction{
		UserID:            userID,
		Desc:              strings.TrimSpace(in.Desc),
		Tag:               strings.TrimSpace(in.Tag),
		Type:              in.Type,
		Date:              strings.TrimSpace(in.Date),
		Icon:              in.Icon,
		Details:           in.Details,
		ExcludeFromBudget: in.ExcludeFromBudget,
		GoalType:          in.GoalType,
		Periodicity:       in.Periodicity,
		PaymentMethod:     in.PaymentMethod,
		CardDigits:        in.CardDigits,
	}
	if tx.Type == "" {
		tx.Type = models.TransactionTypeExpense
	}
	if tx.GoalType == "" {
		tx.GoalType = models.GoalTypeOneOff
	}
	if tx.Desc == "" {
		tx.Desc = tx.Tag
	}
	if tx.Date == "" {
		tx.Date = dates.Of(timeNow()).ISO()
	}
	if tx.Icon == "" {
		tx.Icon = s.catalog.IconFor(tx)
	}
	if err := validateKinds(tx); err != nil {
		return nil, err
	}

	code, err := inputCurrency(in.Currency)
	if err != nil {
		return nil, err
	}
	if err := s.applySnapshots(ctx, tx, in.Amount, code); err != nil {
		return nil, err
	}

	if err := s.db.Create(tx).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tx, nil
}

// UpdateTransaction applies a partial update. Changing the amount or its
// currency refetches rates and recomputes every snapshot.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, update TransactionUpdate) (*models.Transaction, error) {
	tx, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	if update.Desc != nil {
		tx.Desc = strings.TrimSpace(*update.Desc)
	}
	if update.Tag != nil {
		if strings.TrimSpace(*update.Tag) == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
		}
		tx.Tag = strings.TrimSpace(*update.Tag)
	}
	if update.Type != nil {
		tx.Type = *update.Type
	}
	if update.Date != nil {
		tx.Date = strings.TrimSpace(*update.Date)
	}
	if update.Icon != nil {
		tx.Icon = *update.Icon
	}
	if update.Details != nil {
		tx.Details = *update.Details
	}
	if update.ExcludeFromBudget != nil {
		tx.ExcludeFromBudget = *update.ExcludeFromBudget
	}
	if update.GoalType != nil {
		tx.GoalType = *update.GoalType
	}
	if update.Periodicity != nil {
		tx.Periodicity = update.Periodicity
	}
	if update.PaymentMethod != nil {
		tx.PaymentMethod = *update.PaymentMethod
	}
	if update.CardDigits != nil {
		tx.CardDigits = *update.CardDigits
	}
	if err := validateKinds(tx); err != nil {
		return nil, err
	}

	if update.Amount != nil || update.Currency != nil {
		amount := tx.Amount
		if update.Amount != nil {
			amount = *update.Amount
		}
		if !amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		var raw currency.Code
		if update.Currency != nil {
			raw = *update.Currency
		}
		code, err := inputCurrency(raw)
		if err != nil {
			return nil, err
		}
		if err := s.applySnapshots(ctx, tx, amount, code); err != nil {
			return nil, err
		}
	}

	if err := s.db.Save(tx).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tx, nil
}

// DeleteTransaction soft-deletes a movement.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	result := s.db.Where("id = ? AND user_id = ?", transactionID, userID).Delete(&models.Transaction{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// CancelRecurrence stops a recurring obligation. Every occurrence of its
// group is marked cancelled so the checklist drops it, and the number of
// movements changed is returned.
func (s *transactionService) CancelRecurrence(userID, transactionID string) (int64, error) {
	tx, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return 0, err
	}
	if !tx.GoalType.IsRecurring() || !tx.IsExpense() {
		return 0, apperrors.ErrNotRecurring
	}

	all, err := loadTransactions(s.db, userID)
	if err != nil {
		return 0, err
	}
	ids := append(recurring.Occurrences(all, tx), tx.ID)

	result := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND id IN ? AND is_cancelled = ?", userID, ids, false).
		Update("is_cancelled", true)
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}

// BackfillSnapshots fills missing currency snapshots, treating the stored
// amount as ILS. An empty userID runs over every user.
func (s *transactionService) BackfillSnapshots(ctx context.Context, userID string) (*BackfillResult, error) {
	table, err := s.rates.GetRates(ctx, currency.USD)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRatesUnavailable, err)
	}

	query := s.db.Model(&models.Transaction{}).
		Where("amount_usd IS NULL OR amount_ars IS NULL OR amount_ils IS NULL OR amount_eur IS NULL")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	log := logger.Named("backfill")
	res := &BackfillResult{}
	var batch []models.Transaction
	err = query.FindInBatches(&batch, backfillBatchSize, func(db *gorm.DB, _ int) error {
		for i := range batch {
			res.Scanned++
			changed, err := currency.Backfill(&batch[i], table)
			if err != nil {
				log.Warnw("skipping movement", "transaction_id", batch[i].ID, "error", err)
				continue
			}
			if !changed {
				continue
			}
			if err := s.db.Model(&batch[i]).Select("amount_usd", "amount_ars", "amount_ils", "amount_eur").Updates(&batch[i]).Error; err != nil {
				return err
			}
			res.Updated++
		}
		return ctx.Err()
	}).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	log.Infow("backfill finished", "user_id", userID, "scanned", res.Scanned, "updated", res.Updated)
	return res, nil
}

// applySnapshots converts amount from code into every currency, stores the
// ILS value and notes the original entry when it was not ILS.
func (s *transactionService) applySnapshots(ctx context.Context, tx *models.Transaction, amount decimal.Decimal, code currency.Code) error {
	table, err := s.rates.GetRates(ctx, currency.USD)
	if err != nil {
		logger.Named("rates").Warnw("rate fetch failed, refusing write", "user_id", tx.UserID, "error", err)
		return apperrors.Wrap(apperrors.ErrRatesUnavailable, err)
	}
	amounts, err := currency.Convert(amount, code, table)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrRatesUnavailable, err)
	}
	amounts.Apply(tx)
	if code != currency.Stored {
		tx.Details = currency.AppendOriginNote(tx.Details, code, amount)
	}
	return nil
}

func inputCurrency(raw currency.Code) (currency.Code, error) {
	if raw == "" {
		return currency.Stored, nil
	}
	code, err := currency.ParseCode(string(raw))
	if err != nil {
		return "", apperrors.ErrInvalidCurrency
	}
	return code, nil
}

func validateKinds(tx *models.Transaction) error {
	if tx.Type != models.TransactionTypeIncome && tx.Type != models.TransactionTypeExpense {
		return apperrors.ErrInvalidTransactionType
	}
	if !tx.GoalType.Valid() {
		return apperrors.ErrInvalidGoalType
	}
	if tx.GoalType == models.GoalTypePeriod {
		if tx.Periodicity == nil || *tx.Periodicity < 1 {
			return apperrors.ErrInvalidPeriodicity
		}
	}
	return nil
}
