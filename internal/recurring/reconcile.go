// Package recurring builds the monthly checklist of recurring obligations
// from a flat movement log.
//
// An obligation has no row of its own. Every expense sharing a normalized
// description and tag, with a recurring goal type, is one occurrence of it,
// and the newest occurrence supplies the details shown.
package recurring

import (
	"sort"
	"strings"
	"time"

	"github.com/BudHamud/safe/internal/dates"
	"github.com/BudHamud/safe/internal/models"

	"github.com/shopspring/decimal"
)

// Entry is one obligation's status for the month.
type Entry struct {
	Key         string             `json:"key"`
	Label       string             `json:"label"`
	Transaction models.Transaction `json:"transaction"`
	IsPaid      bool               `json:"is_paid"`
	DueDay      int                `json:"due_day"`
	Cadence     string             `json:"cadence"`
	Draft       *Draft             `json:"draft,omitempty"`
}

// Draft pre-fills the entry form when a pending obligation is paid. The
// amount is the ILS snapshot of the canonical occurrence.
type Draft struct {
	Desc              string                 `json:"desc"`
	Amount            decimal.Decimal        `json:"amount"`
	Currency          string                 `json:"currency"`
	Tag               string                 `json:"tag"`
	Icon              string                 `json:"icon"`
	Type              models.TransactionType `json:"type"`
	GoalType          models.GoalType        `json:"goal_type"`
	Periodicity       *int                   `json:"periodicity,omitempty"`
	ExcludeFromBudget bool                   `json:"exclude_from_budget"`
}

// Options tunes Reconcile.
type Options struct {
	// Now fixes the current month and resolves "Hoy"/"Ayer".
	Now time.Time
	// Fallback resolves occurrence dates that cannot be parsed.
	Fallback dates.Policy
}

// Key identifies the obligation a movement belongs to.
func Key(desc, tag string) string {
	return strings.ToLower(strings.TrimSpace(desc)) + "-" + strings.ToLower(strings.TrimSpace(tag))
}

// Eligible reports whether tx takes part in reconciliation: an expense with
// a recurring goal type that has not been cancelled.
func Eligible(tx *models.Transaction) bool {
	return tx.IsExpense() && tx.GoalType.IsRecurring() && !tx.IsCancelled
}

type group struct {
	entry  Entry
	latest dates.Date
	order  int
}

// Reconcile returns the obligations due in the month of opts.Now.
//
// Occurrences whose own schedule is not due this month are skipped. An
// obligation is paid when any due occurrence is dated this month or carries
// the literal "Hoy" date. Pending entries come first, then by day of month.
func Reconcile(txs []models.Transaction, opts Options) []Entry {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	period := dates.PeriodOf(opts.Now)

	groups := make(map[string]*group)
	for i := range txs {
		tx := &txs[i]
		if !Eligible(tx) {
			continue
		}
		checker, err := GetDuenessChecker(tx.GoalType)
		if err != nil {
			continue
		}

		occurred := dates.Normalize(tx.Date, opts.Now, opts.Fallback)
		if !checker.IsDue(tx, occurred, period) {
			continue
		}
		paid := period.Contains(occurred) || dates.IsToday(tx.Date)

		key := Key(tx.Desc, tx.Tag)
		g, ok := groups[key]
		if !ok {
			groups[key] = &group{entry: newEntry(key, tx, occurred, paid), latest: occurred, order: len(groups)}
			continue
		}
		if occurred.After(g.latest) {
			wasPaid := g.entry.IsPaid
			g.entry = newEntry(key, tx, occurred, wasPaid || paid)
			g.latest = occurred
			continue
		}
		if paid {
			g.entry.IsPaid = true
		}
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.entry.IsPaid != b.entry.IsPaid {
			return !a.entry.IsPaid
		}
		if a.entry.DueDay != b.entry.DueDay {
			return a.entry.DueDay < b.entry.DueDay
		}
		return a.order < b.order
	})

	out := make([]Entry, len(ordered))
	for i, g := range ordered {
		e := g.entry
		if !e.IsPaid {
			e.Draft = draftFrom(&e.Transaction)
		}
		out[i] = e
	}
	return out
}

func newEntry(key string, tx *models.Transaction, occurred dates.Date, paid bool) Entry {
	return Entry{
		Key:         key,
		Label:       strings.TrimSpace(tx.Desc),
		Transaction: *tx,
		IsPaid:      paid,
		DueDay:      occurred.Day,
		Cadence:     CadenceLabel(tx),
	}
}

func draftFrom(tx *models.Transaction) *Draft {
	amount := tx.Amount
	if tx.AmountILS != nil {
		amount = *tx.AmountILS
	}
	return &Draft{
		Desc:              tx.Desc,
		Amount:            amount,
		Currency:          "ILS",
		Tag:               tx.Tag,
		Icon:              tx.Icon,
		Type:              models.TransactionTypeExpense,
		GoalType:          tx.GoalType,
		Periodicity:       tx.Periodicity,
		ExcludeFromBudget: tx.ExcludeFromBudget,
	}
}

// Pending returns the entries not yet paid.
func Pending(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if !e.IsPaid {
			out = append(out, e)
		}
	}
	return out
}

// Occurrences returns the IDs of every non-cancelled movement belonging to
// the same obligation as tx.
func Occurrences(txs []models.Transaction, tx *models.Transaction) []string {
	key := Key(tx.Desc, tx.Tag)
	var ids []string
	for i := range txs {
		if Eligible(&txs[i]) && Key(txs[i].Desc, txs[i].Tag) == key {
			ids = append(ids, txs[i].ID)
		}
	}
	return ids
}
