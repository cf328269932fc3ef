package binanceclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"candlecache/internal/ports"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// newTestClient points a client at a stub HTTP server.
func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{APIKey: "key", SecretKey: "secret", Logger: &mockLogger{}})
	require.NoError(t, err)
	c.futuresClient.BaseURL = baseURL
	return c
}

func TestToSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", toSymbol("BTC/USDT"))
	assert.Equal(t, "ETHUSDT", toSymbol("eth/usdt"))
	assert.Equal(t, "BTCUSDT", toSymbol("BTCUSDT"))
}

func TestTranslateKline(t *testing.T) {
	kline := &futures.Kline{
		OpenTime:  1500000000000,
		CloseTime: 1500000299999,
		Open:      "100.5",
		High:      "101.0",
		Low:       "99.5",
		Close:     "100.75",
		Volume:    "1234.5",
	}

	candle, err := translateKline(kline)
	require.NoError(t, err)
	assert.Equal(t, int64(1500000000000), candle.Timestamp)
	assert.Equal(t, 100.5, candle.Open)
	assert.Equal(t, 101.0, candle.High)
	assert.Equal(t, 99.5, candle.Low)
	assert.Equal(t, 100.75, candle.Close)
	assert.Equal(t, 1234.5, candle.Volume)
}

func TestTranslateKline_BadData(t *testing.T) {
	_, err := translateKline(nil)
	assert.Error(t, err)

	_, err = translateKline(&futures.Kline{Open: "not-a-number", High: "1", Low: "1", Close: "1", Volume: "1"})
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/ping", r.URL.Path)
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL).Ping(context.Background())
	assert.NoError(t, err)
}

func TestPing_TranslatesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"code":-1003,"msg":"Too many requests queued."}`))
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL).Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrRateLimited)
}
