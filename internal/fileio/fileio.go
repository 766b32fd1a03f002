// Package fileio reads and writes the movement log as spreadsheets. XLSX
// goes through excelize, CSV through gocsv.
package fileio

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/BudHamud/safe/internal/models"
)

// Format is a supported file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const (
	// SheetName is the worksheet exports are written to.
	SheetName = "Movimientos"
	// BaseName is the export file name without extension.
	BaseName = "Historial_Movimientos"

	defaultDesc = "Importado"
	defaultTag  = "custom"
)

// Header is the export column order.
var Header = []string{"Fecha", "Categoria", "Monto", "Descripcion", "Detalles"}

// ParseFormat accepts "xlsx" or "csv" in any case. Empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// FormatOf picks the format from a file name extension.
func FormatOf(name string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", fmt.Errorf("file %q has no extension", name)
	}
	return ParseFormat(ext)
}

// FileName returns the download name for f.
func (f Format) FileName() string { return BaseName + "." + string(f) }

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// columns maps a logical field to the header spellings it is read from,
// compared lower-cased and without accents.
var columns = map[string][]string{
	"amount":  {"monto", "amount", "valor", "precio"},
	"desc":    {"descripcion", "desc", "concepto", "titulo"},
	"tag":     {"categoria", "tag", "clase"},
	"date":    {"fecha", "date", "dia"},
	"details": {"detalles", "details", "notas"},
}

func foldHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(h)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

// layout resolves each logical field to the first matching column index.
func layout(header []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for field, names := range columns {
		for i, h := range header {
			if contains(names, foldHeader(h)) {
				idx[field] = i
				break
			}
		}
	}
	return idx
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ImportOptions controls how rows become movements.
type ImportOptions struct {
	// Now supplies the default date for a file whose first rows carry none,
	// and the year when neither the row nor the file name has one.
	Now time.Time
	// FileName is searched for a 20xx year used to complete D/M dates. The
	// year may sit next to any non-digit, underscores included.
	FileName string
}

var (
	yearInName = regexp.MustCompile(`(?:^|\D)(20\d{2})(?:\D|$)`)
	dayMonth   = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}$`)
	amountJunk = regexp.MustCompile(`[^0-9.\-+]`)
	leadingNum = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)`)
)

// rowReader turns sheet rows into movements, carrying the last seen date
// across rows and sheets.
type rowReader struct {
	fallbackYear string
	lastDate     string
	out          []models.Transaction
}

func newRowReader(opts ImportOptions) *rowReader {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	year := strconv.Itoa(now.Year())
	if m := yearInName.FindStringSubmatch(filepath.Base(opts.FileName)); m != nil {
		year = m[1]
	}
	return &rowReader{fallbackYear: year, lastDate: now.Format("2006-01-02")}
}

func (r *rowReader) sheet(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	cols := layout(rows[0])
	for _, row := range rows[1:] {
		get := func(field string) string {
			i, ok := cols[field]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		r.row(get("amount"), get("desc"), get("tag"), get("date"), get("details"))
	}
}

func (r *rowReader) row(rawAmount, desc, tag, date, details string) {
	if dayMonth.MatchString(date) {
		date = date + "/" + r.fallbackYear
	}
	if date != "" {
		r.lastDate = date
	} else {
		date = r.lastDate
	}

	amount, income := ParseAmount(rawAmount)
	if amount.IsZero() && desc == "" && tag == "" {
		return
	}

	tx := models.Transaction{
		Desc:     desc,
		Amount:   amount,
		Tag:      tag,
		Type:     models.TransactionTypeExpense,
		Date:     date,
		Details:  details,
		GoalType: models.GoalTypeOneOff,
	}
	if income {
		tx.Type = models.TransactionTypeIncome
	}
	if tx.Desc == "" {
		tx.Desc = defaultDesc
	}
	if tx.Tag == "" {
		tx.Tag = defaultTag
	}
	r.out = append(r.out, tx)
}

// ParseAmount reads a spreadsheet amount cell. The first comma is taken as
// the decimal point, anything but digits, dots and signs is dropped, and
// the longest numeric prefix is used. A '+' anywhere marks income. The
// returned amount is never negative.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := amountJunk.ReplaceAllString(strings.Replace(raw, ",", ".", 1), "")
	income := strings.Contains(s, "+")
	s = strings.Replace(s, "+", "", 1)
	num := leadingNum.FindString(s)
	if num == "" {
		return decimal.Zero, income
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(num, "+"))
	if err != nil {
		return decimal.Zero, income
	}
	return d.Abs(), income
}

// record is one exported row.
type record struct {
	Date     string `csv:"Fecha"`
	Category string `csv:"Categoria"`
	Amount   string `csv:"Monto"`
	Desc     string `csv:"Descripcion"`
	Details  string `csv:"Detalles"`
}

// signed returns the export amount: expenses negative, income positive.
func signed(tx *models.Transaction) decimal.Decimal {
	if tx.IsExpense() {
		return tx.Amount.Abs().Neg()
	}
	return tx.Amount.Abs()
}

func toRecords(txs []models.Transaction) []record {
	out := make([]record, len(txs))
	for i := range txs {
		out[i] = record{
			Date:     txs[i].Date,
			Category: txs[i].Tag,
			Amount:   signed(&txs[i]).String(),
			Desc:     txs[i].Desc,
			Details:  txs[i].Details,
		}
	}
	return out
}
