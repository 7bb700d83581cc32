package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitor holds the rate limiter and the last time we saw this IP.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	// General API visitors
	visitors   = make(map[string]*visitor)
	visitorsMu sync.Mutex

	// Stricter visitors for ballot casting
	ballotVisitors   = make(map[string]*visitor)
	ballotVisitorsMu sync.Mutex
)

// 5 requests/second average, burst of 100.
func newVisitorLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(200*time.Millisecond), 100)
}

// 1 ballot every 2 seconds on average, burst of 10.
func newBallotVisitorLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(2*time.Second), 10)
}

func lookup(mu *sync.Mutex, m map[string]*visitor, ip string, mk func() *rate.Limiter) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	v, exists := m[ip]
	if !exists {
		limiter := mk()
		m[ip] = &visitor{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func getVisitor(ip string) *rate.Limiter {
	return lookup(&visitorsMu, visitors, ip, newVisitorLimiter)
}

func getBallotVisitor(ip string) *rate.Limiter {
	return lookup(&ballotVisitorsMu, ballotVisitors, ip, newBallotVisitorLimiter)
}

// CleanupVisitors drops limiters not seen within maxIdle.
func CleanupVisitors(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)
	for _, set := range []struct {
		mu *sync.Mutex
		m  map[string]*visitor
	}{{&visitorsMu, visitors}, {&ballotVisitorsMu, ballotVisitors}} {
		set.mu.Lock()
		for ip, v := range set.m {
			if v.lastSeen.Before(cutoff) {
				delete(set.m, ip)
			}
		}
		set.mu.Unlock()
	}
}

// RateLimitMiddleware applies a simple per-IP rate limit for all routes.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := getVisitor(c.ClientIP())

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please slow down.",
			})
			return
		}

		c.Next()
	}
}

// BallotRateLimitMiddleware applies a stricter per-IP limit to ballot casting.
func BallotRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := getBallotVisitor(c.ClientIP())

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many ballots. Please wait and try again.",
			})
			return
		}

		c.Next()
	}
}
