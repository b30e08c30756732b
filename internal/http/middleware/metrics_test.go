package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RouteLabelsAndInflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/trips/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })
	r.POST("/trips/:id/generation", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	baseGet := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/trips/:id", "200"))
	baseGen := testutil.ToFloat64(httpReqs.WithLabelValues("POST", "/trips/:id/generation", "202"))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404"))

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trips/"+id, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET /trips/%s -> %d", id, w.Code)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/trips/a/generation", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("POST generation -> %d", w.Code)
	}
	for _, p := range []string{"/wp-admin", "/.env"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/trips/:id", "200")); got != baseGet+3 {
		t.Fatalf("route counter = %v; want %v", got, baseGet+3)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("POST", "/trips/:id/generation", "202")); got != baseGen+1 {
		t.Fatalf("generation counter = %v; want %v", got, baseGen+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404")); got != baseMiss+2 {
		t.Fatalf("unmatched counter = %v; want %v", got, baseMiss+2)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}
