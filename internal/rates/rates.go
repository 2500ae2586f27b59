// Package rates holds the cached USD to LRD exchange rate and the pure
// conversion arithmetic. Converted amounts are for display only; settlement
// always happens in the product's listed currency.
package rates

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	// FallbackRate is used whenever the upstream source is unavailable.
	// Approximate LRD street rate per 1 USD.
	FallbackRate = 195.0

	// DefaultTTL is how long a fetched rate stays fresh.
	DefaultTTL = time.Hour
)

// LRD is the Liberian dollar unit.
var LRD = currency.MustParseISO("LRD")

// Source fetches the current LRD-per-USD rate from an upstream provider.
type Source interface {
	FetchRate(ctx context.Context) (float64, error)
}

// Cache keeps the last fetched rate for a TTL. It is constructed once per
// process and injected into callers; Rate never fails, falling back to the
// hardcoded constant when the source does.
type Cache struct {
	source   Source
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
	fallback float64

	mu        sync.Mutex
	rate      float64
	lastFetch time.Time
}

// NewCache creates a rate cache around source.
func NewCache(source Source, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		source:   source,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		fallback: FallbackRate,
	}
}

// WithClock overrides the cache's clock. Tests only.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Rate returns the cached LRD-per-USD rate, re-fetching once the TTL has
// passed. A failed fetch returns the fallback constant and leaves any
// previously cached value intact for the next attempt.
func (c *Cache) Rate(ctx context.Context) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.lastFetch.IsZero() && now.Sub(c.lastFetch) < c.ttl {
		return c.rate
	}

	rate, err := c.source.FetchRate(ctx)
	if err != nil {
		c.logger.Warn("rate fetch failed, using fallback", "error", err, "fallback", c.fallback)
		if c.lastFetch.IsZero() {
			return c.fallback
		}
		// Stale beats fallback if we ever fetched successfully.
		return c.rate
	}

	c.rate = rate
	c.lastFetch = now
	return c.rate
}

// Convert converts a minor-unit amount between currencies at the given
// LRD-per-USD rate. Identity when the currencies match; rounding is
// half-up. The result must never be used for settlement math.
func Convert(amountMinorUnits int64, from, to currency.Unit, rate float64) int64 {
	if from.String() == to.String() {
		return amountMinorUnits
	}

	amount := decimal.NewFromInt(amountMinorUnits)
	r := decimal.NewFromFloat(rate)

	var converted decimal.Decimal
	switch {
	case from.String() == currency.USD.String():
		converted = amount.Mul(r)
	case to.String() == currency.USD.String():
		converted = amount.Div(r)
	default:
		// Cross rates between two non-USD currencies are not supported;
		// the platform only displays USD and LRD.
		return amountMinorUnits
	}

	// decimal.Round is half away from zero, which is half-up for prices.
	return converted.Round(0).IntPart()
}

// DisplayWholeUnits truncates a minor-unit amount to whole currency units
// for display. LRD is customarily shown without cents.
func DisplayWholeUnits(amountMinorUnits int64) int64 {
	return amountMinorUnits / 100
}
