package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	require.Equal(t, "/chat/message", normalizePath("/chat/message"))
	require.Equal(t, "/health", normalizePath("/health"))
	require.Equal(t, "/chat/history/:sessionId",
		normalizePath("/chat/history/2d60b3f4-4f1a-4c35-9d0a-9c1e6f0a1b2c"))
	require.Equal(t, "/chat/history/", normalizePath("/chat/history/"))
}

func TestLoggerNormalizesRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	path := "/chat/history/" + uuid.New().String()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "/chat/history/:sessionId", entry["route"])
	require.Equal(t, path, entry["path"])
	require.EqualValues(t, http.StatusOK, entry["status"])
	require.EqualValues(t, 2, entry["bytes"])
}

func TestLoggerUsesErrorLevelOnServerError(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/chat/message", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "error", entry["level"])
	require.EqualValues(t, http.StatusInternalServerError, entry["status"])
}

func TestRateLimiterFailsOpenWithoutRedis(t *testing.T) {
	rl := NewRateLimiter(nil, zerolog.Nop(), 1, time.Minute)

	var calls int
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/message", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, 5, calls)
}

func TestRateLimiterIgnoresOtherRoutes(t *testing.T) {
	rl := NewRateLimiter(nil, zerolog.Nop(), 1, time.Minute)

	var calls int
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/chat/history/abc", nil))
	require.Equal(t, 2, calls)
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestValidateRequestRejectsNonJSONPost(t *testing.T) {
	handler := ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader("text=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
