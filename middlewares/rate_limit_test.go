package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLimiters() {
	visitorsMu.Lock()
	visitors = make(map[string]*visitor)
	visitorsMu.Unlock()

	ballotVisitorsMu.Lock()
	ballotVisitors = make(map[string]*visitor)
	ballotVisitorsMu.Unlock()
}

func TestRateLimitBursts(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		middleware gin.HandlerFunc
		burst      int
	}{
		{"general", RateLimitMiddleware(), 100},
		{"ballots", BallotRateLimitMiddleware(), 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resetLimiters()
			r := gin.New()
			r.Use(tc.middleware)
			r.POST("/limited", func(c *gin.Context) { c.Status(http.StatusOK) })

			send := func(ip string) int {
				req := httptest.NewRequest(http.MethodPost, "/limited", nil)
				req.RemoteAddr = ip + ":5000"
				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)
				return w.Code
			}

			for i := 0; i < tc.burst; i++ {
				require.Equal(t, http.StatusOK, send("198.51.100.7"), "request %d", i+1)
			}
			assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.7"))

			// buckets are per client IP
			assert.Equal(t, http.StatusOK, send("198.51.100.8"))
		})
	}
}

func TestCleanupVisitors(t *testing.T) {
	resetLimiters()

	getVisitor("10.0.0.1")
	getBallotVisitor("10.0.0.1")
	visitorsMu.Lock()
	visitors["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	visitorsMu.Unlock()

	CleanupVisitors(10 * time.Minute)

	visitorsMu.Lock()
	_, general := visitors["10.0.0.1"]
	visitorsMu.Unlock()
	ballotVisitorsMu.Lock()
	_, ballot := ballotVisitors["10.0.0.1"]
	ballotVisitorsMu.Unlock()

	assert.False(t, general, "idle visitor should be dropped")
	assert.True(t, ballot, "recent ballot visitor should stay")
}
