package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/BudHamud/safe/internal/currency"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	defaultUSDURL = "https://api.exchangerate-api.com/v4/latest/USD"
	defaultARSURL = "https://dolarapi.com/v1/dolares/blue"
	userAgent     = "safe-tracker/1.0"
)

// HTTPSource builds a USD-based table from two public endpoints: a global
// table for ILS and EUR, and the informal ("blue") dollar quote for ARS.
// Both are queried in parallel; the table is only returned when both
// succeed.
type HTTPSource struct {
	httpClient *http.Client
	usdURL     string
	arsURL     string
	timeout    time.Duration
	now        func() time.Time
}

// NewHTTPSource creates an HTTPSource. Empty URLs select the public
// defaults. A non-positive timeout falls back to five seconds.
func NewHTTPSource(httpClient *http.Client, usdURL, arsURL string, timeout time.Duration) *HTTPSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if usdURL == "" {
		usdURL = defaultUSDURL
	}
	if arsURL == "" {
		arsURL = defaultARSURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSource{
		httpClient: httpClient,
		usdURL:     usdURL,
		arsURL:     arsURL,
		timeout:    timeout,
		now:        time.Now,
	}
}

type globalRatesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

type blueDollarResponse struct {
	Compra decimal.Decimal `json:"compra"`
	Venta  decimal.Decimal `json:"venta"`
}

// GetRates implements Source.
func (s *HTTPSource) GetRates(ctx context.Context, base currency.Code) (*currency.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var global globalRatesResponse
	var blue blueDollarResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.getJSON(gctx, s.usdURL, &global) })
	g.Go(func() error { return s.getJSON(gctx, s.arsURL, &blue) })
	if err := g.Wait(); err != nil {
		return nil, unavailable("%v", err)
	}

	table := &currency.Table{
		Base:      currency.USD,
		Rates:     make(map[currency.Code]decimal.Decimal, len(currency.Codes)),
		FetchedAt: s.now(),
	}
	for _, c := range []currency.Code{currency.ILS, currency.EUR} {
		r, ok := global.Rates[string(c)]
		if !ok || !r.IsPositive() {
			return nil, unavailable("global table has no %s rate", c)
		}
		table.Rates[c] = r
	}
	if !blue.Venta.IsPositive() {
		return nil, unavailable("invalid ARS quote %s", blue.Venta)
	}
	table.Rates[currency.ARS] = blue.Venta

	out, err := table.Rebase(base)
	if err != nil {
		return nil, unavailable("%v", err)
	}
	return out, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building rates request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rates http request to %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rates request to %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding rates response from %s: %w", url, err)
	}
	return nil
}
