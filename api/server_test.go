package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aouyang1/iotacanvas/api/models"
	"github.com/aouyang1/iotacanvas/settings"
	"github.com/aouyang1/iotacanvas/store"
	"github.com/aouyang1/iotacanvas/wallet"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeWallet struct {
	balance   atomic.Int64
	calls     atomic.Int32
	addresses atomic.Int32
	fail      atomic.Bool
}

func (f *fakeWallet) handler(w http.ResponseWriter, r *http.Request) {
	if f.fail.Load() {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "node unreachable"})
		return
	}
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/balance":
		f.calls.Add(1)
		json.NewEncoder(w).Encode(map[string]int64{"balance": f.balance.Load()})
	case r.Method == http.MethodPost && r.URL.Path == "/addresses":
		n := f.addresses.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"address": strings.Repeat("A", 80) + string(rune('0'+n))})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type fakeRefresher struct {
	requested int
}

func (f *fakeRefresher) RequestRefresh() bool {
	f.requested++
	return f.requested == 1
}

type testEnv struct {
	ws     *WebServer
	db     *store.Database
	wallet *fakeWallet
	redis  *miniredis.Miniredis
	root   string
}

func newTestEnv(t *testing.T, withWallet bool) *testEnv {
	t.Helper()
	root := t.TempDir()
	db, err := store.NewDatabase(filepath.Join(root, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{db: db, root: root}
	opts := Options{
		ArtworkDir: filepath.Join(root, "artwork"),
		QRPath:     filepath.Join(root, "static", "images", "receive_address_qr.jpg"),
		Refresher:  &fakeRefresher{},
	}
	if withWallet {
		env.wallet = &fakeWallet{}
		env.wallet.balance.Store(1000)
		srv := httptest.NewServer(http.HandlerFunc(env.wallet.handler))
		t.Cleanup(srv.Close)

		env.redis = miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: env.redis.Addr()})
		t.Cleanup(func() { rdb.Close() })

		opts.Wallet = wallet.NewClient(srv.URL, time.Second)
		opts.BalanceCache = wallet.NewBalanceCache(rdb, time.Minute)
	}

	env.ws, err = NewWebServer(db, opts)
	require.NoError(t, err)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.ws.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestGetUserSettings(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/user_settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, settings.Defaults(), decode[settings.Record](t, w))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestUpdateSettingsReturnsRecord(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodPost, "/update_settings", `{"art_refresh_rate": 12, "refresh_unit": "day"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rec := decode[settings.Record](t, w)
	assert.Equal(t, 12, rec.ArtRefreshRate)
	assert.Equal(t, "day", rec.RefreshUnit)

	stored, err := env.db.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rec, *stored)
}

func TestUpdateSettingsRejects(t *testing.T) {
	env := newTestEnv(t, false)
	for _, body := range []string{
		`{"seed": "ABC"}`,
		`{"refresh_unit": "fortnight"}`,
		`{"art_refresh_rate": 0}`,
		`{"art_refresh_rate": "often"}`,
		`{"art_refresh_enabled": 1}`,
		`{"display_off_time": "25:00"}`,
		`{"art_refresh_rate": 5, "gpio_like": -1}`,
		`{}`,
		`not json`,
	} {
		w := env.do(t, http.MethodPost, "/update_settings", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.NotEmpty(t, decode[models.ErrorResponse](t, w).Error, body)
	}

	stored, err := env.db.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), *stored)
}

func TestIotaSettingsWithoutWallet(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/iota_settings", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.IotaSettingsResponse](t, w)
	assert.Equal(t, store.DefaultNode, resp.Node)
	assert.Empty(t, resp.ReceiveAddress)
	assert.NotContains(t, w.Body.String(), "seed")

	w = env.do(t, http.MethodGet, "/static/images/receive_address_qr.jpg", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIotaSettingsGeneratesAddressAndQR(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodGet, "/iota_settings", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[models.IotaSettingsResponse](t, w)
	assert.Len(t, first.ReceiveAddress, 81)
	assert.Equal(t, 1, first.AddrIndex)

	// the address is kept once generated
	w = env.do(t, http.MethodGet, "/iota_settings", "")
	assert.Equal(t, first, decode[models.IotaSettingsResponse](t, w))
	assert.Equal(t, int32(1), env.wallet.addresses.Load())

	w = env.do(t, http.MethodGet, "/static/images/receive_address_qr.jpg", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte{0xff, 0xd8}, w.Body.Bytes()[:2])
}

func TestIotaSettingsWalletFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.wallet.fail.Store(true)

	w := env.do(t, http.MethodGet, "/iota_settings", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decode[models.ErrorResponse](t, w).Error, "node unreachable")
}

func TestIotaSettingsConcurrentFirstRequests(t *testing.T) {
	env := newTestEnv(t, true)

	const n = 8
	var wg sync.WaitGroup
	codes := make([]int, n)
	addrs := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/iota_settings", nil)
			w := httptest.NewRecorder()
			env.ws.Handler().ServeHTTP(w, req)
			codes[i] = w.Code
			var resp models.IotaSettingsResponse
			if json.Unmarshal(w.Body.Bytes(), &resp) == nil {
				addrs[i] = resp.ReceiveAddress
			}
		}()
	}
	wg.Wait()

	for i := range n {
		assert.Equal(t, http.StatusOK, codes[i])
		assert.Equal(t, addrs[0], addrs[i])
	}
	assert.Equal(t, int32(1), env.wallet.addresses.Load())

	state, err := env.db.GetIotaState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, state.AddrIndex)
}

func TestIotaBalance(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodGet, "/iota_balance", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.BalanceResponse](t, w)
	require.NotNil(t, resp.CurrentBalance)
	assert.Equal(t, int64(1000), *resp.CurrentBalance)

	// served from the cache until it expires
	env.wallet.balance.Store(2000)
	w = env.do(t, http.MethodGet, "/iota_balance", "")
	assert.Equal(t, int64(1000), *decode[models.BalanceResponse](t, w).CurrentBalance)
	assert.Equal(t, int32(1), env.wallet.calls.Load())

	env.redis.FastForward(2 * time.Minute)
	w = env.do(t, http.MethodGet, "/iota_balance", "")
	assert.Equal(t, int64(2000), *decode[models.BalanceResponse](t, w).CurrentBalance)

	env.redis.FastForward(2 * time.Minute)
	env.wallet.fail.Store(true)
	w = env.do(t, http.MethodGet, "/iota_balance", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestIotaBalanceWithoutWallet(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/iota_balance", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"current_balance": null}`, w.Body.String())
}

func TestArtwork(t *testing.T) {
	env := newTestEnv(t, false)
	dir := filepath.Join(env.root, "artwork")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("jpg"), 0o644))
	require.NoError(t, env.db.SetCurrentArtwork(context.Background(), "b.png"))

	w := env.do(t, http.MethodGet, "/artwork", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.ArtworkResponse](t, w)
	assert.Equal(t, "b.png", resp.CurrentArtwork)
	assert.Equal(t, []string{"a.jpg", "b.png"}, resp.Artworks)
	assert.Nil(t, resp.LastRefreshTime)

	w = env.do(t, http.MethodGet, "/artwork/a.jpg/image", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpg", w.Body.String())

	w = env.do(t, http.MethodGet, "/artwork/missing.png/image", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodGet, "/artwork/test.db/image", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshArtwork(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodPost, "/artwork/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "artwork refresh started", decode[models.RefreshResponse](t, w).Message)

	w = env.do(t, http.MethodPost, "/artwork/refresh", "")
	assert.Equal(t, "artwork refresh already requested", decode[models.RefreshResponse](t, w).Message)

	env.ws.refresher = nil
	w = env.do(t, http.MethodPost, "/artwork/refresh", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUIPanels(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `hx-get="/ui/settings"`)

	w = env.do(t, http.MethodGet, "/ui/settings", "")
	assert.Contains(t, w.Body.String(), `name="art_refresh_rate"`)

	w = env.do(t, http.MethodGet, "/ui/balance", "")
	assert.Contains(t, w.Body.String(), "1000 i")

	w = env.do(t, http.MethodGet, "/ui/art", "")
	assert.Contains(t, w.Body.String(), "No artwork yet.")

	env.wallet.fail.Store(true)
	env.redis.FlushAll()
	w = env.do(t, http.MethodGet, "/ui/balance", "")
	assert.Contains(t, w.Body.String(), "Error:")
}

func TestStaticAndHealth(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/static/css/style.css", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/favicon.ico", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

	w = env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[models.HealthResponse](t, w).Status)

	w = env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
