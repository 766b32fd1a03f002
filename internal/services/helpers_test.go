package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BudHamud/safe/internal/currency"
	"github.com/BudHamud/safe/internal/rates"
)

// testRates: 1 USD = 4 ILS = 0.5 EUR = 1000 ARS.
func testRates() rates.Source {
	return rates.Static{Table: &currency.Table{
		Base: currency.USD,
		Rates: map[currency.Code]decimal.Decimal{
			currency.ILS: decimal.NewFromInt(4),
			currency.EUR: decimal.RequireFromString("0.5"),
			currency.ARS: decimal.NewFromInt(1000),
		},
	}}
}

type downSource struct{}

func (downSource) GetRates(context.Context, currency.Code) (*currency.Table, error) {
	return nil, errors.Join(rates.ErrUnavailable, errors.New("dial tcp: timeout"))
}

// pinClock fixes timeNow for the duration of the test.
func pinClock(t *testing.T, now time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = prev })
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
