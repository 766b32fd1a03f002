// Package rates fetches the exchange-rate table used to freeze currency
// snapshots when a movement is saved.
package rates

import (
	"context"
	"errors"
	"fmt"

	"github.com/BudHamud/safe/internal/currency"
)

// ErrUnavailable is returned by every Source when a usable table could not
// be obtained. Callers abort the write instead of storing unconverted data.
var ErrUnavailable = errors.New("exchange rates unavailable")

// Source returns a rate table relative to base.
type Source interface {
	GetRates(ctx context.Context, base currency.Code) (*currency.Table, error)
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}

// Static is a fixed table, used in place of the network in tests.
type Static struct {
	Table *currency.Table
}

// GetRates implements Source.
func (s Static) GetRates(_ context.Context, base currency.Code) (*currency.Table, error) {
	if s.Table == nil {
		return nil, unavailable("no static table configured")
	}
	t, err := s.Table.Rebase(base)
	if err != nil {
		return nil, unavailable("%v", err)
	}
	return t, nil
}
