package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/a11yoverlay/internal/ctxkeys"
	"github.com/BaSui01/a11yoverlay/internal/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

func errorCode(t *testing.T, body string) string {
	t.Helper()
	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	assert.False(t, env.Success)
	return env.Error.Code
}

func TestSecurityHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := SecurityHeaders()(inner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
}

func TestSecurityHeaders_ChainedWithOtherMiddleware(t *testing.T) {
	handler := Chain(okHandler(), SecurityHeaders(), RequestID())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(okHandler(), mark("a"), mark("b"), mark("c")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRequestID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ctxkeys.RequestID(r.Context())
	})
	handler := RequestID()(inner)

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		id := w.Header().Get("X-Request-ID")
		assert.True(t, strings.HasPrefix(id, "req-"))
		assert.Equal(t, id, seen)
	})

	t.Run("preserved", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "client-42")
		handler.ServeHTTP(w, r)
		assert.Equal(t, "client-42", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "client-42", seen)
	})

	t.Run("oversized replaced", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", strings.Repeat("x", 200))
		handler.ServeHTTP(w, r)
		assert.True(t, strings.HasPrefix(w.Header().Get("X-Request-ID"), "req-"))
	})
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/analyze-page", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w.Body.String()))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic recovered", logs.All()[0].Message)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("tea"))
	}), RequestID(), RequestLogger(zap.New(core)))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/brew", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, 3, fields["bytes"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestAPIKeyAuth(t *testing.T) {
	skip := []string{"/", "/health"}

	tests := []struct {
		name       string
		keys       []string
		allowQuery bool
		path       string
		header     string
		wantStatus int
	}{
		{name: "no keys configured", keys: nil, path: "/api/analyze-page", wantStatus: http.StatusOK},
		{name: "skip path", keys: []string{"k1"}, path: "/health", wantStatus: http.StatusOK},
		{name: "valid header", keys: []string{"k1", "k2"}, path: "/api/analyze-page", header: "k2", wantStatus: http.StatusOK},
		{name: "missing key", keys: []string{"k1"}, path: "/api/analyze-page", wantStatus: http.StatusUnauthorized},
		{name: "wrong key", keys: []string{"k1"}, path: "/api/analyze-page", header: "nope", wantStatus: http.StatusUnauthorized},
		{name: "query key allowed", keys: []string{"k1"}, allowQuery: true, path: "/ws/transcribe?api_key=k1", wantStatus: http.StatusOK},
		{name: "query key disallowed", keys: []string{"k1"}, path: "/ws/transcribe?api_key=k1", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := APIKeyAuth(tt.keys, skip, tt.allowQuery, zaptest.NewLogger(t))(okHandler())
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				r.Header.Set("X-API-Key", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "UNAUTHORIZED", errorCode(t, w.Body.String()))
			}
		})
	}
}

func TestAPIKeyAuth_InjectsKey(t *testing.T) {
	var got string
	handler := APIKeyAuth([]string{"k1"}, nil, false, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ctxkeys.APIKey(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil)
	r.Header.Set("X-API-Key", "k1")
	handler.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "k1", got)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	handler := RateLimiter(ctx, 0.001, 2, zap.NewNop())(okHandler())
	do := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/analyze-page", nil)
		r.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001").Code)
	limited := do("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, limited.Body.String()))
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	// 其他 IP 独立计数
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000").Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	handler := RateLimiter(context.Background(), 0, 0, zap.NewNop())(okHandler())
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestCORS(t *testing.T) {
	const ext = "chrome-extension://abcdef"

	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		wantStatus  int
		wantAllowed string
	}{
		{name: "listed origin", allowed: []string{ext}, method: http.MethodPost, origin: ext, wantStatus: http.StatusOK, wantAllowed: ext},
		{name: "listed preflight", allowed: []string{ext}, method: http.MethodOptions, origin: ext, wantStatus: http.StatusNoContent, wantAllowed: ext},
		{name: "unlisted preflight", allowed: []string{ext}, method: http.MethodOptions, origin: "https://evil.example", wantStatus: http.StatusForbidden},
		{name: "unlisted request", allowed: []string{ext}, method: http.MethodGet, origin: "https://evil.example", wantStatus: http.StatusOK},
		{name: "nothing configured", method: http.MethodOptions, origin: ext, wantStatus: http.StatusForbidden},
		{name: "wildcard", allowed: []string{"*"}, method: http.MethodGet, origin: "https://any.example", wantStatus: http.StatusOK, wantAllowed: "https://any.example"},
		{name: "same origin", allowed: []string{ext}, method: http.MethodGet, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(tt.allowed)(okHandler())
			r := httptest.NewRequest(tt.method, "/api/analyze-page", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllowed, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"/health", "/health"},
		{"/api/analyze-page", "/api/analyze-page"},
		{"/api/interpret-command", "/api/interpret-command"},
		{"/ws/transcribe", "/ws/transcribe"},
		{"/api/sessions/my-tab", "/api/sessions/:id"},
		{"/api/sessions/550e8400-e29b-41d4-a716-446655440000", "/api/sessions/:id"},
		{"/api/sessions/", "/api/sessions/"},
		{"/unknown/12345", "/unknown/:id"},
		{"/unknown/page", "/unknown/page"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePath(tt.in))
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	const ns = "cmd_middleware_test"
	collector := metrics.NewCollector(ns, zap.NewNop())
	handler := MetricsMiddleware(collector)(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sessions/tab-7", nil))

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() != ns+"_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["path"] == "/api/sessions/:id" && labels["method"] == http.MethodGet {
				found = true
				assert.Equal(t, float64(1), m.GetCounter().GetValue())
			}
		}
	}
	assert.True(t, found, "expected normalized path label")
}

func TestWrappersKeepHijacker(t *testing.T) {
	var ok bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = w.(http.Hijacker)
	})
	collector := metrics.NewCollector("cmd_hijack_test", zap.NewNop())
	handler := Chain(inner, RequestLogger(zap.NewNop()), MetricsMiddleware(collector), OTelTracing())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws/transcribe", nil))
	assert.True(t, ok)
}
