package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mlopezgez/group-habits-tracking/internal/clerk"
	"github.com/mlopezgez/group-habits-tracking/internal/middleware"
	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/security"
	"github.com/mlopezgez/group-habits-tracking/internal/services"
	"github.com/mlopezgez/group-habits-tracking/internal/testutil"
)

var (
	testWebhookSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("handler-webhook-secret"))

	// Wednesday, so the progress week started two days earlier.
	testNow = time.Date(2025, 10, 22, 12, 0, 0, 0, time.UTC)
)

// stubVerifier accepts tokens of the form "valid:<clerkID>".
type stubVerifier struct{}

func (stubVerifier) Verify(token string) (string, error) {
	if token == "" {
		return "", clerk.ErrNoToken
	}
	if clerkID, ok := strings.CutPrefix(token, "valid:"); ok && clerkID != "" {
		return clerkID, nil
	}
	return "", clerk.ErrInvalidToken
}

type stubAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
	err     error
}

func (a *stubAudit) Log(ctx context.Context, entry *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, *entry)
	return nil
}

func (a *stubAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type testEnv struct {
	app     *fiber.App
	mem     *testutil.MemoryStore
	audit   *stubAudit
	logs    *observer.ObservedLogs
	healthy bool
}

type envOption func(*Config)

func withoutWebhookSecret() envOption {
	return func(cfg *Config) { cfg.Webhook = nil }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	zl := zap.New(core)
	logger := security.NewLoggerFrom(zl)

	mem := testutil.NewMemoryStore()
	cal := services.NewCalendar(time.UTC).WithClock(func() time.Time { return testNow })
	svc := services.New(mem.Store(), nil, cal, zl)

	webhook, err := clerk.NewWebhookVerifier(testWebhookSecret)
	require.NoError(t, err)

	secCfg := security.DefaultSecurityConfig()
	env := &testEnv{mem: mem, audit: &stubAudit{}, logs: logs, healthy: true}

	cfg := Config{
		Services:         svc,
		Audit:            env.audit,
		Validation:       security.NewValidationService(secCfg),
		Logger:           logger,
		Webhook:          webhook,
		ChatPollInterval: 2 * time.Second,
		Health:           func(ctx context.Context) bool { return env.healthy },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	sm := middleware.NewSecurityMiddleware(logger, secCfg, nil)
	t.Cleanup(sm.Stop)
	auth := middleware.NewAuthenticator(stubVerifier{}, svc.Identity, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		Views:        NewViews(false),
	})
	Register(app, New(cfg), auth, sm, "/sign-in")
	env.app = app
	return env
}

// do sends a request as the user linked to clerkID; an empty clerkID sends
// it anonymously.
func (e *testEnv) do(t *testing.T, method, target, clerkID string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = strings.NewReader(string(raw))
		}
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if clerkID != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer valid:"+clerkID)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func newJSONRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func eventField(event string) zapcore.Field {
	return zap.String("event_type", event)
}

func httpBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}
