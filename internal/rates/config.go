package rates

import (
	"context"
	"net/http"
	"time"

	"github.com/BudHamud/safe/internal/config"
	"github.com/BudHamud/safe/internal/logger"
)

// FromConfig builds the live rate source. Tables are cached in redis when
// RedisAddr is set and reachable, in process memory otherwise.
func FromConfig(ctx context.Context, cfg *config.Config) Source {
	source := NewHTTPSource(&http.Client{}, cfg.RatesUSDURL, cfg.RatesARSURL, cfg.RatesTimeout)

	var store Store = NewMemoryStore()
	if cfg.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		rdb, err := ConnectRedis(pingCtx, cfg.RedisAddr)
		if err != nil {
			logger.Named("rates").Warnw("redis unavailable, caching rates in memory", "addr", cfg.RedisAddr, "error", err)
		} else {
			store = NewRedisStore(rdb)
		}
	}

	return NewCachedSource(source, store, cfg.RatesCacheTTL)
}
