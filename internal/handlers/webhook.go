package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mlopezgez/group-habits-tracking/internal/clerk"
	"github.com/mlopezgez/group-habits-tracking/internal/metrics"
	"github.com/mlopezgez/group-habits-tracking/internal/security"
)

// IdentityWebhook applies user lifecycle events from the identity provider.
// Deliveries are verified against the signing secret before anything is
// applied; unverifiable deliveries are answered 400.
//
// Route: POST /webhooks/identity
// Events: user.created, user.updated (upsert), user.deleted (delete, cascading)
func (h *Handler) IdentityWebhook(c *fiber.Ctx) error {
	if h.webhook == nil {
		h.logger.Critical("identity webhook received but no signing secret is configured", errors.New("CLERK_WEBHOOK_SECRET is not set"))
		return c.Status(fiber.StatusInternalServerError).SendString("Error: Webhook secret not configured")
	}

	headers := http.Header{}
	for _, name := range []string{clerk.HeaderID, clerk.HeaderTimestamp, clerk.HeaderSignature} {
		if v := c.Get(name); v != "" {
			headers.Set(name, v)
		}
	}
	if !clerk.HasSignatureHeaders(headers) {
		h.rejectWebhook(c, "missing_headers")
		return c.Status(fiber.StatusBadRequest).SendString("Error: Missing svix headers")
	}

	evt, err := h.webhook.Verify(c.Body(), headers)
	if err != nil {
		h.rejectWebhook(c, err.Error())
		return c.Status(fiber.StatusBadRequest).SendString("Error: Verification error")
	}

	ctx := c.UserContext()
	switch evt.Type {
	case clerk.EventUserCreated, clerk.EventUserUpdated:
		if evt.Data.ID == "" {
			metrics.RecordWebhook(evt.Type, errors.New("no user id"))
			return c.Status(fiber.StatusBadRequest).SendString("Error: Missing user id")
		}
		attrs := evt.Data.Identity()
		if attrs.Email == "" {
			metrics.RecordWebhook(evt.Type, errors.New("no email"))
			return c.Status(fiber.StatusBadRequest).SendString("Error: No email address")
		}
		_, err = h.svc.Identity.Sync(ctx, attrs)

	case clerk.EventUserDeleted:
		if evt.Data.ID != "" {
			err = h.svc.Identity.Remove(ctx, evt.Data.ID)
		}

	default:
		h.logger.Info("ignoring identity webhook event", zap.String("type", evt.Type))
	}

	metrics.RecordWebhook(evt.Type, err)
	if err != nil {
		return err
	}

	h.logger.SecurityEvent(security.EventWebhookApplied, "", c.IP(), c.Get(fiber.HeaderUserAgent),
		map[string]interface{}{"type": evt.Type, "clerk_id": evt.Data.ID})
	return c.SendString("Webhook processed")
}

func (h *Handler) rejectWebhook(c *fiber.Ctx, reason string) {
	metrics.RecordWebhook("unverified", errors.New(reason))
	h.logger.SecurityEvent(security.EventWebhookRejected, "", c.IP(), c.Get(fiber.HeaderUserAgent),
		map[string]interface{}{"reason": reason})
}
