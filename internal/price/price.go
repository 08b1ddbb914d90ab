// Package price looks up the fiat value of a token.
package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
)

// ErrUnavailable is returned when no price could be obtained.
var ErrUnavailable = errors.New("price unavailable")

// Defaults for the in-memory quote cache.
const (
	DefaultCacheSize = 64
	DefaultCacheTTL  = time.Minute
)

// Fetcher retrieves JSON documents. *nodeapi.Client satisfies it.
type Fetcher interface {
	FetchJSON(ctx context.Context, rawURL string, v interface{}) error
}

// Source provides fiat quotes.
type Source interface {
	Price(ctx context.Context, symbol, currency string) (float64, error)
}

// CryptoCompare queries the CryptoCompare single-price endpoint and caches
// quotes for a short time.
type CryptoCompare struct {
	fetch   Fetcher
	baseURL string
	cache   *expirable.LRU[string, float64]
}

// NewCryptoCompare creates a client for the endpoint at baseURL.
func NewCryptoCompare(fetch Fetcher, baseURL string, ttl time.Duration) *CryptoCompare {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CryptoCompare{
		fetch:   fetch,
		baseURL: baseURL,
		cache:   expirable.NewLRU[string, float64](DefaultCacheSize, nil, ttl),
	}
}

// Price returns the value of one symbol unit in currency.
func (c *CryptoCompare) Price(ctx context.Context, symbol, currency string) (float64, error) {
	symbol = strings.ToUpper(symbol)
	currency = strings.ToUpper(currency)
	key := symbol + "/" + currency
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}

	q := url.Values{}
	q.Set("fsym", symbol)
	q.Set("tsyms", currency)
	u := c.baseURL + "?" + q.Encode()

	var body map[string]json.RawMessage
	if err := c.fetch.FetchJSON(ctx, u, &body); err != nil {
		log.Price.Debug().Err(err).Str("pair", key).Msg("Price request failed")
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if raw, ok := body["Response"]; ok {
		var status string
		_ = json.Unmarshal(raw, &status)
		if status == "Error" {
			var msg string
			_ = json.Unmarshal(body["Message"], &msg)
			return 0, fmt.Errorf("%w: %s", ErrUnavailable, msg)
		}
	}
	raw, ok := body[currency]
	if !ok {
		return 0, fmt.Errorf("%w: no %s quote for %s", ErrUnavailable, currency, symbol)
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.cache.Add(key, v)
	log.Price.Debug().Str("pair", key).Float64("price", v).Msg("Fetched price")
	return v, nil
}
