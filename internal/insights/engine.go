// Package insights computes the period-scoped statistics behind the
// dashboard, stats and movement views from an in-memory movement list.
//
// Nothing here is cached or stored: every call recomputes from the slice it
// is given. Callers project amounts into the display currency first.
package insights

import (
	"sort"
	"time"

	"github.com/BudHamud/safe/internal/catalog"
	"github.com/BudHamud/safe/internal/dates"
	"github.com/BudHamud/safe/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// GoalRules decides which expenses count against the monthly goal.
type GoalRules struct {
	// ExcludeRecurring leaves mensual and periodo expenses out of the goal;
	// they are tracked by the checklist instead.
	ExcludeRecurring bool
	// HonorBudgetExclusion leaves expenses flagged excludeFromBudget out.
	HonorBudgetExclusion bool
}

var (
	// DashboardRules drive the dashboard, stats and year trend.
	DashboardRules = GoalRules{ExcludeRecurring: true, HonorBudgetExclusion: true}
	// MovementRules drive the goal ring of the movement list, which counts
	// recurring expenses too.
	MovementRules = GoalRules{ExcludeRecurring: false, HonorBudgetExclusion: true}
)

// Counts reports whether tx is a goal-relevant expense under r.
func (r GoalRules) Counts(tx *models.Transaction) bool {
	if !tx.IsExpense() {
		return false
	}
	if r.HonorBudgetExclusion && tx.ExcludeFromBudget {
		return false
	}
	if r.ExcludeRecurring && tx.GoalType.IsRecurring() {
		return false
	}
	return true
}

// Engine carries the clock and date policy shared by every computation.
type Engine struct {
	Now      time.Time
	Fallback dates.Policy
}

// New returns an Engine. A zero now means time.Now.
func New(now time.Time, fallback dates.Policy) Engine {
	if now.IsZero() {
		now = time.Now()
	}
	return Engine{Now: now, Fallback: fallback}
}

// DateOf normalizes the stored date of tx.
func (e Engine) DateOf(tx *models.Transaction) dates.Date {
	return dates.Normalize(tx.Date, e.Now, e.Fallback)
}

// Today is the current calendar day.
func (e Engine) Today() dates.Date { return dates.Of(e.Now) }

// Window is a whole calendar year, or one month of it when Month is set.
type Window struct {
	Year  int
	Month time.Month
}

// MonthWindow returns the window for period p.
func MonthWindow(p dates.Period) Window { return Window{Year: p.Year, Month: p.Month} }

// YearWindow returns the window for a whole year.
func YearWindow(year int) Window { return Window{Year: year} }

// IsMonth reports whether w covers a single month.
func (w Window) IsMonth() bool { return w.Month != 0 }

// Period returns the month of w. It is only meaningful when IsMonth.
func (w Window) Period() dates.Period { return dates.Period{Year: w.Year, Month: w.Month} }

// Contains reports whether d falls inside w.
func (w Window) Contains(d dates.Date) bool {
	if d.Year != w.Year {
		return false
	}
	return !w.IsMonth() || d.Month == w.Month
}

// InWindow returns the movements whose normalized date falls inside w.
func (e Engine) InWindow(txs []models.Transaction, w Window) []models.Transaction {
	var out []models.Transaction
	for i := range txs {
		if w.Contains(e.DateOf(&txs[i])) {
			out = append(out, txs[i])
		}
	}
	return out
}

// Since keeps movements dated on or after start. Relative dates always pass.
func (e Engine) Since(txs []models.Transaction, start dates.Date) []models.Transaction {
	var out []models.Transaction
	for i := range txs {
		if dates.IsRelative(txs[i].Date) || !e.DateOf(&txs[i]).Before(start) {
			out = append(out, txs[i])
		}
	}
	return out
}

// SortNewestFirst orders txs by normalized date, newest first. Equal dates
// keep their input order.
func (e Engine) SortNewestFirst(txs []models.Transaction) {
	type keyed struct {
		date dates.Date
		tx   models.Transaction
	}
	k := make([]keyed, len(txs))
	for i := range txs {
		k[i] = keyed{date: e.DateOf(&txs[i]), tx: txs[i]}
	}
	sort.SliceStable(k, func(a, b int) bool { return k[a].date.After(k[b].date) })
	for i := range k {
		txs[i] = k[i].tx
	}
}

// Totals is income against expense for a set of movements.
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// Sum partitions txs by type.
func Sum(txs []models.Transaction) Totals {
	var t Totals
	for i := range txs {
		switch txs[i].Type {
		case models.TransactionTypeIncome:
			t.Income = t.Income.Add(txs[i].Amount)
		case models.TransactionTypeExpense:
			t.Expense = t.Expense.Add(txs[i].Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// GoalExpense sums the goal-relevant expenses of txs.
func GoalExpense(txs []models.Transaction, rules GoalRules) decimal.Decimal {
	total := decimal.Zero
	for i := range txs {
		if rules.Counts(&txs[i]) {
			total = total.Add(txs[i].Amount)
		}
	}
	return total
}

// GoalProgress is spent as a percentage of goal, clamped to [0, 100]. A
// non-positive goal yields zero.
func GoalProgress(spent, goal decimal.Decimal) decimal.Decimal {
	if !goal.IsPositive() {
		return decimal.Zero
	}
	pct := spent.Div(goal).Mul(hundred)
	switch {
	case pct.GreaterThan(hundred):
		return hundred
	case pct.IsNegative():
		return decimal.Zero
	}
	return pct
}

// MonthOverMonth is the percentage change from previous to current, zero
// when previous is not positive.
func MonthOverMonth(current, previous decimal.Decimal) decimal.Decimal {
	if !previous.IsPositive() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred)
}

// CategoryShare is one tag's slice of an expense total.
type CategoryShare struct {
	Tag     string          `json:"tag"`
	Icon    string          `json:"icon"`
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}

// Breakdown groups the expenses of txs by tag, largest first, keeping the
// first topN when topN is positive. Percentages are of the total over the
// same expenses and are truncated to two decimals, so they never sum past
// 100. Tags are grouped case- and accent-insensitively under the first
// spelling seen.
func Breakdown(txs []models.Transaction, topN int) []CategoryShare {
	idx := make(map[string]int)
	var shares []CategoryShare
	total := decimal.Zero
	for i := range txs {
		tx := &txs[i]
		if !tx.IsExpense() {
			continue
		}
		total = total.Add(tx.Amount)
		key := catalog.Normalize(tx.Tag)
		if at, ok := idx[key]; ok {
			shares[at].Amount = shares[at].Amount.Add(tx.Amount)
			continue
		}
		idx[key] = len(shares)
		shares = append(shares, CategoryShare{Tag: tx.Tag, Icon: tx.Icon, Amount: tx.Amount})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Amount.GreaterThan(shares[j].Amount)
	})
	for i := range shares {
		if total.IsPositive() {
			shares[i].Percent = shares[i].Amount.Div(total).Mul(hundred).Truncate(2)
		}
	}
	if topN > 0 && len(shares) > topN {
		shares = shares[:topN]
	}
	return shares
}

// YearTrend sums goal-relevant expenses per calendar month of year.
func (e Engine) YearTrend(txs []models.Transaction, year int, rules GoalRules) [12]decimal.Decimal {
	var buckets [12]decimal.Decimal
	for i := range txs {
		if !rules.Counts(&txs[i]) {
			continue
		}
		d := e.DateOf(&txs[i])
		if d.Year == year {
			buckets[d.Month-1] = buckets[d.Month-1].Add(txs[i].Amount)
		}
	}
	return buckets
}

// Years lists the years movements are dated in, newest first, always
// including the current year. Fallback dates before 2000 are ignored.
func (e Engine) Years(txs []models.Transaction) []int {
	seen := map[int]bool{e.Now.Year(): true}
	for i := range txs {
		if y := e.DateOf(&txs[i]).Year; y > 2000 {
			seen[y] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
