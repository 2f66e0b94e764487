// Package handlers implements the HTTP surface: the JSON API, the identity
// provider webhook and the server-rendered pages.
package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mlopezgez/group-habits-tracking/internal/apperror"
	"github.com/mlopezgez/group-habits-tracking/internal/clerk"
	"github.com/mlopezgez/group-habits-tracking/internal/database"
	"github.com/mlopezgez/group-habits-tracking/internal/middleware"
	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/security"
	"github.com/mlopezgez/group-habits-tracking/internal/services"
)

// AuditLogger records mutating actions.
type AuditLogger interface {
	Log(ctx context.Context, entry *models.AuditLog) error
}

// Config collects the handler dependencies.
type Config struct {
	Services   *services.Services
	Audit      AuditLogger
	Validation *security.ValidationService
	Logger     *security.Logger

	// Webhook is nil when no signing secret is configured; deliveries are
	// then answered 500.
	Webhook *clerk.WebhookVerifier

	ChatPollInterval time.Duration

	// Health reports database liveness; defaults to database.IsConnected.
	Health func(ctx context.Context) bool
}

// Handler serves every route of the application.
type Handler struct {
	svc          *services.Services
	audit        AuditLogger
	validate     *security.ValidationService
	logger       *security.Logger
	webhook      *clerk.WebhookVerifier
	pollInterval time.Duration
	healthy      func(ctx context.Context) bool
}

// New creates a Handler.
func New(cfg Config) *Handler {
	if cfg.Health == nil {
		cfg.Health = database.IsConnected
	}
	return &Handler{
		svc:          cfg.Services,
		audit:        cfg.Audit,
		validate:     cfg.Validation,
		logger:       cfg.Logger,
		webhook:      cfg.Webhook,
		pollInterval: cfg.ChatPollInterval,
		healthy:      cfg.Health,
	}
}

var errInvalidBody = apperror.New(apperror.InvalidInput, "Invalid request body")

// bind decodes the JSON body into dst and validates it.
func (h *Handler) bind(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return errInvalidBody
		}
	}
	return h.validate.Struct(dst)
}

func success(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}

// record writes an audit entry. Failures are logged and never surfaced.
func (h *Handler) record(c *fiber.Ctx, user *models.User, action, objectType, objectID string) {
	entry := &models.AuditLog{
		ActorID:    &user.ID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   &objectID,
		IP:         c.IP(),
		UserAgent:  c.Get(fiber.HeaderUserAgent),
	}
	if err := h.audit.Log(c.UserContext(), entry); err != nil {
		h.logger.Error("failed to write audit log", err,
			zap.String("action", action),
			zap.String("object_id", objectID))
	}
}

func currentUser(c *fiber.Ctx) *models.User {
	return middleware.CurrentUser(c)
}
