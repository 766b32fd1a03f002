package services

import (
	"context"
	"errors"
	"io"

	"gorm.io/gorm"

	"github.com/BudHamud/safe/internal/catalog"
	"github.com/BudHamud/safe/internal/currency"
	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/fileio"
	"github.com/BudHamud/safe/internal/dates"
	"github.com/BudHamud/safe/internal/insights"
	"github.com/BudHamud/safe/internal/logger"
	"github.com/BudHamud/safe/internal/rates"
)

const importBatchSize = 100

// importService moves the log in and out of spreadsheets.
type importService struct {
	db      *gorm.DB
	rates   rates.Source
	catalog *catalog.Catalog
}

// NewImportService creates a new ImportServicer. source may be nil, in
// which case imported rows are stored without snapshots.
func NewImportService(db *gorm.DB, source rates.Source, cat *catalog.Catalog) ImportServicer {
	if cat == nil {
		cat = catalog.Default()
	}
	return &importService{db: db, rates: source, catalog: cat}
}

// Import reads every sheet of the file and stores one movement per row.
// Amounts are taken as ILS. When a rate table is available the snapshots
// are filled as well; otherwise the rows wait for a backfill.
func (s *importService) Import(ctx context.Context, userID, fileName string, r io.Reader) (*ImportResult, error) {
	format, err := fileio.FormatOf(fileName)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrImportFailed, err.Error())
	}

	txs, err := fileio.Read(format, r, fileio.ImportOptions{Now: timeNow(), FileName: fileName})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrImportFailed, err)
	}
	if len(txs) == 0 {
		return &ImportResult{}, nil
	}

	log := logger.Named("import")
	table := s.rateTable(ctx)

	for i := range txs {
		txs[i].UserID = userID
		txs[i].Icon = s.catalog.ImportIcon(txs[i].Tag)
		if table == nil {
			continue
		}
		if _, err := currency.Backfill(&txs[i], table); err != nil {
			log.Warnw("row left without snapshots", "row", i, "error", err)
		}
	}

	if err := s.db.CreateInBatches(txs, importBatchSize).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	log.Infow("import finished", "user_id", userID, "file", fileName, "rows", len(txs), "with_rates", table != nil)
	return &ImportResult{Imported: len(txs), WithRates: table != nil}, nil
}

func (s *importService) rateTable(ctx context.Context) *currency.Table {
	if s.rates == nil {
		return nil
	}
	table, err := s.rates.GetRates(ctx, currency.USD)
	if err != nil {
		logger.Named("import").Warnw("importing without snapshots",
			"error", err,
			"unavailable", errors.Is(err, rates.ErrUnavailable),
		)
		return nil
	}
	return table
}

// Export writes the user's log, newest first, in stored amounts.
func (s *importService) Export(userID string, format fileio.Format, w io.Writer) error {
	txs, err := loadTransactions(s.db, userID)
	if err != nil {
		return err
	}
	insights.New(timeNow(), dates.FallbackEpoch).SortNewestFirst(txs)
	if err := fileio.Write(format, w, txs); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
