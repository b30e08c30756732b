package middleware

import (
	"bufio"
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogger swaps the global logger for one writing to a buffer.
func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), sc.Text())
		out = append(out, m)
	}
	return out
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/trips", func(c *gin.Context) {
		seen = asString(c.Value(requestIDKey))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trips", nil))
	assert.Len(t, w.Header().Get(requestIDHeader), 36, "generated uuid")
	assert.Equal(t, seen, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/trips", nil)
	req.Header.Set("x-request-id", "client-rid-7")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "client-rid-7", w.Header().Get(requestIDHeader))
	assert.Equal(t, "client-rid-7", seen)
}

func TestLogger_LevelFollowsOutcome(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Logger(LogOptions{}))
	r.GET("/trips/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/trips/:id/document", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	r.POST("/trips", func(c *gin.Context) {
		_ = c.Error(errors.New("bind failed"))
		c.Status(http.StatusBadRequest)
	})

	send := func(method, path string) {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set(userIDHeader, "traveler-3")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	send(http.MethodGet, "/trips/t-1")
	send(http.MethodGet, "/nowhere")
	send(http.MethodGet, "/trips/t-1/document")
	send(http.MethodPost, "/trips")

	lines := logLines(t, buf)
	require.Len(t, lines, 4)

	want := []struct{ level, path string }{
		{"info", "/trips/:id"},
		{"warn", "/nowhere"},
		{"error", "/trips/:id/document"},
		{"error", "/trips"},
	}
	for i, w := range want {
		assert.Equal(t, w.level, lines[i]["level"], "line %d", i)
		assert.Equal(t, w.path, lines[i]["path"], "line %d", i)
		assert.Equal(t, "traveler-3", lines[i]["user_id"])
		assert.NotEmpty(t, lines[i]["request_id"])
		assert.Contains(t, lines[i], "latency")
	}
	assert.Contains(t, lines[3]["errors"], "bind failed")
	assert.EqualValues(t, http.StatusBadRequest, lines[3]["status"])
}

func TestLogger_ScrubsQueryAndHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Logger(LogOptions{MaskHeaders: []string{" x-api-key "}, LogHeaders: true}))
	r.GET("/places/photos", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet,
		"/places/photos?location=Louvre&contact=ana.m+trip@example.com&trip=123e4567-e89b-12d3-a456-426614174000", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("Cookie", "sid=abc")
	req.Header.Set("X-Api-Key", "k-999")
	req.Header.Set("X-Note", "call +44 20 7946 0958")
	r.ServeHTTP(httptest.NewRecorder(), req)

	raw := buf.String()
	for _, secret := range []string{"secret-token", "sid=abc", "k-999", "example.com", "e89b", "7946"} {
		assert.NotContains(t, raw, secret)
	}

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	query, _ := lines[0]["query"].(string)
	assert.Contains(t, query, "location=Louvre")
	assert.Contains(t, query, "[REDACTED:email]")
	assert.Contains(t, query, "[REDACTED:id]")

	headers, ok := lines[0]["headers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "[REDACTED]", headers["Authorization"])
	assert.Equal(t, "[REDACTED]", headers["Cookie"])
	assert.Equal(t, "[REDACTED]", headers["X-Api-Key"])
	assert.Contains(t, headers["X-Note"], "[REDACTED:phone]")
}

func TestLogger_HeadersOffByDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(Logger(LogOptions{}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "headers")
	assert.Equal(t, DemoUser, lines[0]["user_id"])
}

func TestRedact(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"Paris in spring", "Paris in spring"},
		{"mail x@y.io", "mail [REDACTED:email]"},
		{"trip 123e4567-e89b-12d3-a456-426614174000", "trip [REDACTED:id]"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Redact(tc.in), tc.in)
	}
	assert.NotContains(t, Redact("ring +1 212-555-1212"), "1212")
}

func TestUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		ctx    any
		header string
		want   string
	}{
		{"nothing", nil, "", DemoUser},
		{"header trimmed", nil, "  u42 ", "u42"},
		{"context wins", "from-auth", "u42", "from-auth"},
		{"non-string context ignored", 7, "u42", "u42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				c.Request.Header.Set(userIDHeader, tc.header)
			}
			if tc.ctx != nil {
				c.Set(userIDKey, tc.ctx)
			}
			assert.Equal(t, tc.want, UserID(c))
		})
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("before write", func(t *testing.T) {
		buf := captureLogger(t)
		r := gin.New()
		r.Use(RequestID(), Logger(LogOptions{}), Recovery())
		r.POST("/trips/:id/generation", func(c *gin.Context) { panic("worker exploded") })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/trips/t1/generation", nil))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "internal_error", body["code"])
		assert.Equal(t, w.Header().Get(requestIDHeader), body["request_id"])

		var msgs []any
		for _, l := range logLines(t, buf) {
			msgs = append(msgs, l["message"])
		}
		assert.Contains(t, msgs, "panic recovered")
	})

	t.Run("after write", func(t *testing.T) {
		captureLogger(t)
		r := gin.New()
		r.Use(RequestID(), Recovery())
		r.GET("/trips/:id/document", func(c *gin.Context) {
			c.String(http.StatusOK, "<h1>partial")
			panic("late")
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trips/t1/document", nil))
		assert.Equal(t, "<h1>partial", w.Body.String())
	})
}

func TestLoggerFrom(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("global fallback", func(t *testing.T) {
		buf := captureLogger(t)
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		LoggerFrom(c).Info().Msg("plain")

		lines := logLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "plain", lines[0]["message"])
		assert.NotContains(t, lines[0], "request_id")
	})

	t.Run("request scoped", func(t *testing.T) {
		buf := captureLogger(t)
		r := gin.New()
		r.Use(RequestID(), Logger(LogOptions{}))
		r.GET("/costs/usage", func(c *gin.Context) {
			LoggerFrom(c).Info().Msg("scoped")
			c.Status(http.StatusOK)
		})
		req := httptest.NewRequest(http.MethodGet, "/costs/usage", nil)
		req.Header.Set(requestIDHeader, "rid-scope")
		r.ServeHTTP(httptest.NewRecorder(), req)

		lines := logLines(t, buf)
		require.Len(t, lines, 2)
		assert.Equal(t, "scoped", lines[0]["message"])
		assert.Equal(t, "rid-scope", lines[0]["request_id"])
	})
}

func TestTruncateAndAsString(t *testing.T) {
	assert.Equal(t, "x", asString("x"))
	assert.Empty(t, asString(42))
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "abc", truncate("abc", 0))
	assert.Equal(t, "abcde…", truncate("abcdefgh", 5))
}
