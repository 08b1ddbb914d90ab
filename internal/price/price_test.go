package price

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArkEcosystemArchive/ark-cli/internal/nodeapi"
)

func priceServer(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "ARK", r.URL.Query().Get("fsym"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCryptoCompare_Price(t *testing.T) {
	var hits int32
	srv := priceServer(t, `{"USD":0.2531}`, &hits)
	cc := NewCryptoCompare(nodeapi.New(time.Second), srv.URL, time.Minute)

	v, err := cc.Price(context.Background(), "ark", "usd")
	require.NoError(t, err)
	assert.InDelta(t, 0.2531, v, 1e-9)

	_, err = cc.Price(context.Background(), "ARK", "USD")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second lookup served from cache")
}

func TestCryptoCompare_ErrorResponse(t *testing.T) {
	var hits int32
	srv := priceServer(t, `{"Response":"Error","Message":"There is no data for the symbol ARK ."}`, &hits)
	cc := NewCryptoCompare(nodeapi.New(time.Second), srv.URL, time.Minute)

	_, err := cc.Price(context.Background(), "ARK", "XYZ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "no data")
}

func TestCryptoCompare_MissingCurrency(t *testing.T) {
	var hits int32
	srv := priceServer(t, `{"EUR":0.22}`, &hits)
	cc := NewCryptoCompare(nodeapi.New(time.Second), srv.URL, time.Minute)

	_, err := cc.Price(context.Background(), "ARK", "USD")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestCryptoCompare_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()

	cc := NewCryptoCompare(nodeapi.New(200*time.Millisecond), u, time.Minute)
	_, err := cc.Price(context.Background(), "ARK", "USD")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestCryptoCompare_CacheExpires(t *testing.T) {
	var hits int32
	srv := priceServer(t, `{"USD":1.5}`, &hits)
	cc := NewCryptoCompare(nodeapi.New(time.Second), srv.URL, 20*time.Millisecond)

	_, err := cc.Price(context.Background(), "ARK", "USD")
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = cc.Price(context.Background(), "ARK", "USD")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
