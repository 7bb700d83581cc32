package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Agora/auth"
	"Agora/config"
	"Agora/generation"
	"Agora/mailer"
	"Agora/models"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testStart = time.Date(2025, 5, 5, 12, 0, 0, 0, time.UTC)

// each request gets its own client IP so the shared rate limiters stay out of the way
var ipCounter atomic.Int32

type envelope struct {
	Status   int             `json:"status"`
	Response json.RawMessage `json:"response"`
	Error    interface{}     `json:"error"`
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls []uint
	err   error
}

func (g *fakeGenerator) Generate(_ context.Context, voteID uint) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, voteID)
	return g.err
}

func (g *fakeGenerator) Calls() []uint {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]uint(nil), g.calls...)
}

type fakeMailer struct {
	mu       sync.Mutex
	receipts []mailer.Receipt
}

func (m *fakeMailer) SendPremiumReceipt(_ context.Context, r mailer.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts = append(m.receipts, r)
	return nil
}

type testEnv struct {
	server *Server
	clock  *clockwork.FakeClock
	gen    *fakeGenerator
	mail   *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	auth.SetSecret("test-secret")
	t.Cleanup(func() { auth.SetSecret("") })
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))
	require.NoError(t, models.EnsureConstraints(db))

	clock := clockwork.NewFakeClockAt(testStart)
	gen := &fakeGenerator{}
	mail := &fakeMailer{}

	server := &Server{
		DB:    db,
		Clock: clock,
		Config: &config.Config{
			SiteName:             "Agora",
			SiteURL:              "https://agora.example.com",
			SiteDefaultImage:     "https://agora.example.com/og.png",
			CORSOrigins:          []string{"https://agora.example.com"},
			PaymentWebhookSecret: "whsec_test",
		},
		Coordinator: generation.NewCoordinator(
			generation.NewGormStore(db),
			gen,
			generation.WithClock(clock),
			generation.WithSettleDelay(0),
		),
		Mailer: mail,
	}
	server.setupRouter()
	return &testEnv{server: server, clock: clock, gen: gen, mail: mail}
}

func token(t *testing.T, userID string, admin bool) string {
	t.Helper()
	claims := auth.Claims{UserID: userID, Username: userID}
	if admin {
		claims.Role = "admin"
	}
	tok, err := auth.CreateToken(claims, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	n := ipCounter.Add(1)
	req.RemoteAddr = fmt.Sprintf("10.%d.%d.%d:4000", n>>16&0xff, n>>8&0xff, n&0xff)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	e.server.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Response, into))
	}
	return env
}
