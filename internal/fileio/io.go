package fileio

import (
	"errors"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/BudHamud/safe/internal/models"
)

// Read parses every sheet of the file into movements, in file order. Icons
// are left empty for the caller to fill.
func Read(format Format, r io.Reader, opts ImportOptions) ([]models.Transaction, error) {
	rr := newRowReader(opts)
	switch format {
	case FormatXLSX:
		if err := readXLSX(r, rr); err != nil {
			return nil, err
		}
	case FormatCSV:
		if err := readCSV(r, rr); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return rr.out, nil
}

func readXLSX(r io.Reader, rr *rowReader) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return fmt.Errorf("read sheet %q: %w", name, err)
		}
		rr.sheet(rows)
	}
	return nil
}

func readCSV(r io.Reader, rr *rowReader) error {
	rows, err := gocsv.LazyCSVReader(r).ReadAll()
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return errors.New("csv file is empty")
	}
	rr.sheet(rows)
	return nil
}

// Write exports txs in the given order.
func Write(format Format, w io.Writer, txs []models.Transaction) error {
	switch format {
	case FormatXLSX:
		return writeXLSX(w, txs)
	case FormatCSV:
		if err := gocsv.Marshal(toRecords(txs), w); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q", format)
}

func writeXLSX(w io.Writer, txs []models.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i := range txs {
		tx := &txs[i]
		row := []interface{}{tx.Date, tx.Tag, signed(tx).InexactFloat64(), tx.Desc, tx.Details}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
