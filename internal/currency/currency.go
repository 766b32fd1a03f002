// Package currency selects display amounts from a transaction's frozen
// conversion snapshots and computes those snapshots at save time.
package currency

import (
	"fmt"
	"strings"
	"time"

	"github.com/BudHamud/safe/internal/models"

	"github.com/shopspring/decimal"
)

// Code is a supported display currency.
type Code string

const (
	ILS Code = "ILS"
	USD Code = "USD"
	EUR Code = "EUR"
	ARS Code = "ARS"
)

// Codes lists the supported currencies in snapshot column order.
var Codes = []Code{USD, ARS, ILS, EUR}

// Stored is the currency of Transaction.Amount for rows written by this service.
const Stored = ILS

// ParseCode accepts a supported code in any letter case.
func ParseCode(s string) (Code, error) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case ILS, USD, EUR, ARS:
		return c, nil
	}
	return "", fmt.Errorf("unsupported currency %q", s)
}

// Symbol returns the glyph shown in front of amounts.
func (c Code) Symbol() string {
	switch c {
	case ILS:
		return "₪"
	case EUR:
		return "€"
	default:
		return "$"
	}
}

// Snapshot returns the frozen amount for c, or nil when it was never stored.
func Snapshot(tx *models.Transaction, c Code) *decimal.Decimal {
	switch c {
	case USD:
		return tx.AmountUSD
	case ARS:
		return tx.AmountARS
	case ILS:
		return tx.AmountILS
	case EUR:
		return tx.AmountEUR
	}
	return nil
}

// Project returns the amount to display for tx in c: the snapshot when
// present, otherwise the untranslated stored amount. The second result
// reports whether a snapshot was used. tx is not modified.
func Project(tx *models.Transaction, c Code) (decimal.Decimal, bool) {
	if s := Snapshot(tx, c); s != nil {
		return *s, true
	}
	return tx.Amount, false
}

// ProjectAll returns display copies of txs with Amount replaced by the
// projection into c, plus the IDs of rows that had no snapshot for c. The
// input slice and its elements are left untouched.
func ProjectAll(txs []models.Transaction, c Code) ([]models.Transaction, []string) {
	out := make([]models.Transaction, len(txs))
	var missing []string
	for i := range txs {
		out[i] = txs[i]
		amt, ok := Project(&txs[i], c)
		out[i].Amount = amt
		if !ok {
			missing = append(missing, txs[i].ID)
		}
	}
	return out, missing
}

// Table holds exchange rates as units of each currency per one unit of Base.
type Table struct {
	Base      Code                     `json:"base"`
	Rates     map[Code]decimal.Decimal `json:"rates"`
	FetchedAt time.Time                `json:"fetched_at"`
}

// Rate returns the units of c per one unit of the table base.
func (t *Table) Rate(c Code) (decimal.Decimal, error) {
	if c == t.Base {
		return decimal.NewFromInt(1), nil
	}
	r, ok := t.Rates[c]
	if !ok || !r.IsPositive() {
		return decimal.Zero, fmt.Errorf("no %s rate in %s table", c, t.Base)
	}
	return r, nil
}

// Rebase expresses the table relative to another base currency.
func (t *Table) Rebase(base Code) (*Table, error) {
	if base == t.Base {
		return t, nil
	}
	pivot, err := t.Rate(base)
	if err != nil {
		return nil, err
	}
	out := &Table{Base: base, Rates: make(map[Code]decimal.Decimal, len(Codes)), FetchedAt: t.FetchedAt}
	for _, c := range Codes {
		r, err := t.Rate(c)
		if err != nil {
			return nil, err
		}
		out.Rates[c] = r.Div(pivot)
	}
	return out, nil
}

// Amounts is one value expressed in every supported currency.
type Amounts map[Code]decimal.Decimal

// Convert expresses amount, entered in from, in every supported currency.
// The entered currency keeps the exact input; the others are rounded to
// cents.
func Convert(amount decimal.Decimal, from Code, t *Table) (Amounts, error) {
	fromRate, err := t.Rate(from)
	if err != nil {
		return nil, err
	}
	inBase := amount.Div(fromRate)
	out := make(Amounts, len(Codes))
	for _, c := range Codes {
		if c == from {
			out[c] = amount
			continue
		}
		r, err := t.Rate(c)
		if err != nil {
			return nil, err
		}
		out[c] = inBase.Mul(r).Round(2)
	}
	return out, nil
}

// Apply writes the snapshots to tx and sets the stored amount to the ILS
// value.
func (a Amounts) Apply(tx *models.Transaction) {
	set := func(c Code) *decimal.Decimal {
		v := a[c]
		return &v
	}
	tx.AmountUSD = set(USD)
	tx.AmountARS = set(ARS)
	tx.AmountILS = set(ILS)
	tx.AmountEUR = set(EUR)
	tx.Amount = a[Stored]
}

// OriginNote is appended to details when a movement was entered in a
// currency other than the stored one.
func OriginNote(from Code, amount decimal.Decimal) string {
	return fmt.Sprintf("*(Cargado originalmente como %s %s)*", from, amount.String())
}

// AppendOriginNote adds the origin note to details on its own line.
func AppendOriginNote(details string, from Code, amount decimal.Decimal) string {
	note := OriginNote(from, amount)
	if strings.Contains(details, note) {
		return details
	}
	if strings.TrimSpace(details) == "" {
		return note
	}
	return details + "\n\n" + note
}

// Backfill fills the missing snapshots of a legacy row whose stored amount
// is taken to be ILS. It reports whether anything changed. Existing
// snapshots are kept.
func Backfill(tx *models.Transaction, t *Table) (bool, error) {
	if tx.HasSnapshots() {
		return false, nil
	}
	amounts, err := Convert(tx.Amount, Stored, t)
	if err != nil {
		return false, err
	}
	for _, c := range Codes {
		ptr := Snapshot(tx, c)
		if ptr != nil {
			continue
		}
		v := amounts[c]
		switch c {
		case USD:
			tx.AmountUSD = &v
		case ARS:
			tx.AmountARS = &v
		case ILS:
			tx.AmountILS = &v
		case EUR:
			tx.AmountEUR = &v
		}
	}
	return true, nil
}
