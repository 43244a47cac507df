package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/coingecko"
	"cryptodash/internal/coins"
	"cryptodash/internal/dashboard"
)

// stubFetcher replays a canned payload or error.
type stubFetcher struct {
	chart *coingecko.MarketChart
	err   error
}

func (s *stubFetcher) FetchMarketChart(ctx context.Context, coinID string, days int) (*coingecko.MarketChart, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.chart, nil
}

func twoPointChart() *coingecko.MarketChart {
	return &coingecko.MarketChart{
		Prices: []coingecko.Point{
			{Timestamp: 1700000000000, Value: decimal.NewFromInt(100)},
			{Timestamp: 1700086400000, Value: decimal.NewFromInt(110)},
		},
		TotalVolumes: []coingecko.Point{
			{Timestamp: 1700000000000, Value: decimal.NewFromInt(1000)},
			{Timestamp: 1700086400000, Value: decimal.NewFromInt(2000)},
		},
	}
}

// newTestServer wires a server over a stub fetcher with a long refresh
// interval so only explicit events produce views.
func newTestServer(t *testing.T, fetcher coingecko.Fetcher) (*Server, *dashboard.Dispatcher) {
	t.Helper()

	registry, err := coins.NewRegistry(coins.DefaultEntries())
	require.NoError(t, err)

	svc := dashboard.NewService(registry, fetcher, 60)
	dispatcher := dashboard.NewDispatcher(dashboard.DispatcherConfig{RefreshInterval: time.Hour}, svc)
	require.NoError(t, dispatcher.Start(context.Background()))
	t.Cleanup(func() { dispatcher.Stop() })

	return New(":0", svc, dispatcher), dispatcher
}

func getJSON(t *testing.T, ts *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

// Test_Server_Health tests the liveness endpoint
func Test_Server_Health(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{chart: twoPointChart()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	var body map[string]string
	status := getJSON(t, ts, "/healthz", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

// Test_Server_Coins tests the selector endpoint
func Test_Server_Coins(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{chart: twoPointChart()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	var body struct {
		Tickers []string `json:"tickers"`
		Default string   `json:"default"`
	}
	status := getJSON(t, ts, "/api/coins", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "BTC", body.Default, "the first registry entry is the default")
	assert.Contains(t, body.Tickers, "ETH")
	assert.Contains(t, body.Tickers, "XRP")
}

// Test_Server_Dashboard tests the one-shot snapshot endpoint
func Test_Server_Dashboard(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{chart: twoPointChart()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	var view dashboard.View
	status := getJSON(t, ts, "/api/dashboard?coin=ETH", &view)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ETH", view.Ticker)
	assert.Equal(t, "ethereum", view.CoinID, "selecting ETH must resolve to ethereum")
	require.NotNil(t, view.Metrics)
	assert.True(t, view.Metrics.LatestPrice.Equal(decimal.NewFromInt(110)))
	assert.Len(t, view.Figures, 3)
	assert.Nil(t, view.Banner)
}

// Test_Server_Dashboard_UnknownCoin tests the 404 path
func Test_Server_Dashboard_UnknownCoin(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{chart: twoPointChart()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	var body map[string]string
	status := getJSON(t, ts, "/api/dashboard?coin=NOPE", &body)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body["error"], "unknown ticker")
}

// Test_Server_Dashboard_UpstreamError tests the end-to-end error banner path:
// a simulated HTTP 500 from the provider must produce the error banner and
// zero chart figures.
func Test_Server_Dashboard_UpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	client, err := coingecko.NewClient(&coingecko.ClientConfig{
		BaseURL:     upstream.URL,
		MaxAttempts: 1,
	})
	require.NoError(t, err)

	s, _ := newTestServer(t, client)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	var view dashboard.View
	status := getJSON(t, ts, "/api/dashboard?coin=BTC", &view)

	assert.Equal(t, http.StatusOK, status, "a failed fetch is still a renderable view")
	require.NotNil(t, view.Banner)
	assert.Equal(t, dashboard.BannerError, view.Banner.Level)
	assert.Empty(t, view.Figures, "the error path renders no charts")
	assert.Nil(t, view.Metrics)
}

// Test_Server_Index tests that the embedded page is served at the root
func Test_Server_Index(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{chart: twoPointChart()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	buf := make([]byte, 1024)
	n, _ := resp.Body.Read(buf)
	assert.Contains(t, string(buf[:n]), "Cryptocurrency Dashboard")
}

// Test_Server_WebSocket tests the live stream: initial view on connect and a
// fresh view on coin selection.
func Test_Server_WebSocket(t *testing.T) {
	s, _ := newTestServer(t, &stubFetcher{chart: twoPointChart()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readView := func() dashboard.View {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var view dashboard.View
		require.NoError(t, json.Unmarshal(raw, &view))
		return view
	}

	first := readView()
	assert.Equal(t, "BTC", first.Ticker, "the default coin streams on connect")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"coin":"XRP"}`)))
	selected := readView()
	assert.Equal(t, "XRP", selected.Ticker)
	assert.Equal(t, "ripple", selected.CoinID, "selecting XRP must resolve to ripple")
}
