package middleware

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mlopezgez/group-habits-tracking/internal/metrics"
	"github.com/mlopezgez/group-habits-tracking/internal/security"
)

// Named per-user limits.
const (
	LimitCheckIn = "check_in"
	LimitMessage = "message"
	LimitJoin    = "join"
)

// SecurityMiddleware provides centralized security functionality.
type SecurityMiddleware struct {
	logger   *security.Logger
	config   *security.SecurityConfig
	monitor  *security.SecurityMonitor
	limiters map[string]*security.RateLimiter
}

// NewSecurityMiddleware creates the middleware set and its rate limiters.
// Call Stop on shutdown.
func NewSecurityMiddleware(logger *security.Logger, config *security.SecurityConfig, alerter security.Alerter) *SecurityMiddleware {
	if alerter == nil {
		alerter = security.LogAlerter{Logger: logger}
	}
	newLimiter := func(max int) *security.RateLimiter {
		return security.NewRateLimiter(max, config.RateLimitWindow, config.RateLimitIdleTTL, config.RateLimitSweepGap)
	}
	return &SecurityMiddleware{
		logger:  logger,
		config:  config,
		monitor: security.NewSecurityMonitor(logger, config, alerter),
		limiters: map[string]*security.RateLimiter{
			LimitCheckIn: newLimiter(config.RateLimitCheckIn),
			LimitMessage: newLimiter(config.RateLimitMessage),
			LimitJoin:    newLimiter(config.RateLimitJoin),
		},
	}
}

// Stop releases the rate limiters' background sweepers.
func (sm *SecurityMiddleware) Stop() {
	for _, l := range sm.limiters {
		l.Stop()
	}
}

// RateLimit applies the named per-user limit. It must run after the user is
// resolved; anonymous callers are keyed by IP.
func (sm *SecurityMiddleware) RateLimit(name string) fiber.Handler {
	limiter, ok := sm.limiters[name]
	if !ok {
		panic("middleware: unknown rate limit " + name)
	}

	return func(c *fiber.Ctx) error {
		identifier := "ip:" + c.IP()
		actorID := ""
		if user := CurrentUser(c); user != nil {
			identifier = "user:" + user.ID
			actorID = user.ID
		}

		if !limiter.Allow(identifier) {
			sm.logger.SecurityEvent(security.EventRateLimitExceeded, actorID, c.IP(), c.Get(fiber.HeaderUserAgent),
				map[string]interface{}{
					"limit": name,
					"max":   limiter.Limit(),
					"path":  c.Path(),
				})
			metrics.RecordRateLimited(name)

			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(sm.config.RateLimitWindow.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests, please try again later"})
		}

		return c.Next()
	}
}

// RequestLogger logs every request and reports denials to the security
// monitor. Errors returned by later handlers are rendered here so the logged
// status is the one the client sees.
func (sm *SecurityMiddleware) RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := handleError(c, c.Next())

		status := c.Response().StatusCode()
		sm.logger.HTTPRequest(
			c.Method(),
			c.Path(),
			status,
			time.Since(start).Milliseconds(),
			c.IP(),
			c.Get(fiber.HeaderUserAgent),
		)

		if status == fiber.StatusUnauthorized || status == fiber.StatusForbidden || status == fiber.StatusTooManyRequests {
			if status == fiber.StatusForbidden {
				actorID := ""
				if user := CurrentUser(c); user != nil {
					actorID = user.ID
				}
				sm.logger.SecurityEvent(security.EventUnauthorizedAccess, actorID, c.IP(), c.Get(fiber.HeaderUserAgent),
					map[string]interface{}{
						"method": c.Method(),
						"path":   c.Path(),
					})
			}
			sm.monitor.MonitorDenial(c.UserContext(), c.IP(), status)
		}

		return err
	}
}

// Metrics records request counts and latency per matched route. The in-flight
// gauge is released even when a later handler panics; mount recover.New after
// this middleware so the panic is rendered as a 500 before it is recorded.
func (sm *SecurityMiddleware) Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		done := metrics.RequestStarted()
		defer func() {
			done(c.Method(), c.Route().Path, c.Response().StatusCode())
		}()
		return handleError(c, c.Next())
	}
}

// SecureHeaders adds security headers to responses.
func (sm *SecurityMiddleware) SecureHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; connect-src 'self'; frame-ancestors 'none'")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		if sm.config.StrictTransport {
			c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		return c.Next()
	}
}

// SameOriginWrites rejects state-changing requests whose Origin header names
// another host. Requests without an Origin header pass.
func (sm *SecurityMiddleware) SameOriginWrites() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}

		u, err := url.Parse(origin)
		if err != nil || !strings.EqualFold(u.Host, c.Hostname()) {
			sm.logger.SecurityEvent(security.EventUnauthorizedAccess, "", c.IP(), c.Get(fiber.HeaderUserAgent),
				map[string]interface{}{
					"method": c.Method(),
					"path":   c.Path(),
					"origin": origin,
					"reason": "cross_origin_write",
				})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Cross-origin request rejected"})
		}

		return c.Next()
	}
}
