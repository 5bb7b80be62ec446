package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Ashwinpatel7/Eazyvenue/internal/config"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "test-cache",
		MaxBodyBytes: 1 << 20,
		Methods:      map[string]bool{http.MethodGet: true},
	}
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestResponseCacheMissThenHit(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := cacheConfig()

	calls := 0
	e := echo.New()
	e.GET("/venues", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"items": []string{"hall"}})
	}, NewResponseCache(cfg, rdb))

	first := serve(e, http.MethodGet, "/venues")
	if first.Code != http.StatusOK || first.Header().Get("X-Cache") != cacheMiss {
		t.Fatalf("first: code=%d x-cache=%q", first.Code, first.Header().Get("X-Cache"))
	}
	second := serve(e, http.MethodGet, "/venues")
	if second.Header().Get("X-Cache") != cacheHit {
		t.Fatalf("second: x-cache=%q", second.Header().Get("X-Cache"))
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("cached body %q differs from %q", second.Body.String(), first.Body.String())
	}
	if ct := second.Header().Get(echo.HeaderContentType); ct == "" || ct != first.Header().Get(echo.HeaderContentType) {
		t.Fatalf("content type not restored: %q", ct)
	}
	if calls != 1 {
		t.Fatalf("handler called %d times, want 1", calls)
	}

	if other := serve(e, http.MethodGet, "/venues?page=2"); other.Header().Get("X-Cache") != cacheMiss {
		t.Fatalf("different query should miss, got %q", other.Header().Get("X-Cache"))
	}
}

func TestResponseCacheSkipsErrors(t *testing.T) {
	_, rdb := newRedis(t)

	calls := 0
	e := echo.New()
	e.GET("/venues/:id", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
	}, NewResponseCache(cacheConfig(), rdb))

	serve(e, http.MethodGet, "/venues/x")
	rec := serve(e, http.MethodGet, "/venues/x")
	if rec.Code != http.StatusNotFound || rec.Header().Get("X-Cache") != cacheMiss {
		t.Fatalf("error response was cached: code=%d x-cache=%q", rec.Code, rec.Header().Get("X-Cache"))
	}
	if calls != 2 {
		t.Fatalf("handler called %d times, want 2", calls)
	}
}

func TestCacheInvalidatorPurgesOnSuccess(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := cacheConfig()
	if err := mr.Set("unrelated", "keep"); err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	e.GET("/venues", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"items": []string{}})
	}, NewResponseCache(cfg, rdb))
	e.POST("/bookings", func(c echo.Context) error {
		return c.JSON(http.StatusCreated, echo.Map{"id": "b1"})
	}, NewCacheInvalidator(cfg, rdb))
	e.POST("/rejected", func(c echo.Context) error {
		return c.JSON(http.StatusConflict, echo.Map{"error": "venue is not available"})
	}, NewCacheInvalidator(cfg, rdb))

	serve(e, http.MethodGet, "/venues")
	if rec := serve(e, http.MethodGet, "/venues"); rec.Header().Get("X-Cache") != cacheHit {
		t.Fatalf("expected warm cache, got %q", rec.Header().Get("X-Cache"))
	}

	serve(e, http.MethodPost, "/rejected")
	if rec := serve(e, http.MethodGet, "/venues"); rec.Header().Get("X-Cache") != cacheHit {
		t.Fatalf("failed mutation purged cache: %q", rec.Header().Get("X-Cache"))
	}

	serve(e, http.MethodPost, "/bookings")
	if rec := serve(e, http.MethodGet, "/venues"); rec.Header().Get("X-Cache") != cacheMiss {
		t.Fatalf("expected miss after mutation, got %q", rec.Header().Get("X-Cache"))
	}
	if !mr.Exists("unrelated") {
		t.Fatal("purge removed a key outside the cache prefix")
	}
}

func TestCacheDisabledWithoutRedis(t *testing.T) {
	cfg := cacheConfig()
	e := echo.New()
	e.GET("/venues", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, NewResponseCache(cfg, nil), NewCacheInvalidator(cfg, nil))

	rec := serve(e, http.MethodGet, "/venues")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" {
		t.Fatalf("code=%d x-cache=%q", rec.Code, rec.Header().Get("X-Cache"))
	}
}

func TestRateLimiterRejectsAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            2 * time.Hour,
		KeyStrategy:    "ip_route",
		Prefix:         "test-rl",
	}

	e := echo.New()
	e.POST("/bookings", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, NewRateLimiter(cfg, rdb))
	e.POST("/venues", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, NewRateLimiter(cfg, rdb))

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodPost, "/bookings")
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: code=%d", i, rec.Code)
		}
	}
	rec := serve(e, http.MethodPost, "/bookings")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("missing limit headers: %v", rec.Header())
	}

	if other := serve(e, http.MethodPost, "/venues"); other.Code != http.StatusCreated {
		t.Fatalf("separate route shares bucket: code=%d", other.Code)
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour, Prefix: "rl"}
	mr.Close()

	e := echo.New()
	e.POST("/bookings", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, NewRateLimiter(cfg, rdb))

	for i := 0; i < 3; i++ {
		if rec := serve(e, http.MethodPost, "/bookings"); rec.Code != http.StatusCreated {
			t.Fatalf("request %d: code=%d", i, rec.Code)
		}
	}
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
	req.RemoteAddr = "192.0.2.7:4000"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/bookings")

	cases := map[string]string{
		"ip":       "rl:ip:192.0.2.7",
		"route":    "rl:route:POST /bookings",
		"ip_route": "rl:ip:192.0.2.7:route:POST /bookings",
		"":         "rl:ip:192.0.2.7:route:POST /bookings",
	}
	for strategy, want := range cases {
		got := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
		if got != want {
			t.Errorf("strategy %q: got %q want %q", strategy, got, want)
		}
	}
}
