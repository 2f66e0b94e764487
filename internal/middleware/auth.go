// Package middleware provides the Fiber middleware that resolves the calling
// user and applies request-wide security and observability concerns.
package middleware

import (
	"context"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/mlopezgez/group-habits-tracking/internal/apperror"
	"github.com/mlopezgez/group-habits-tracking/internal/clerk"
	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/security"
)

const userLocal = "user"

// ErrUnauthenticated is answered when a request carries no valid identity.
var ErrUnauthenticated = apperror.New(apperror.Unauthenticated, "Unauthorized")

// SessionVerifier turns a session token into a provider user id.
type SessionVerifier interface {
	Verify(token string) (string, error)
}

// UserResolver maps a provider user id to the local user, creating it when
// needed.
type UserResolver interface {
	Resolve(ctx context.Context, clerkID string) (*models.User, error)
}

// Authenticator resolves the calling user for protected routes.
type Authenticator struct {
	verifier SessionVerifier
	users    UserResolver
	logger   *security.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(verifier SessionVerifier, users UserResolver, logger *security.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, users: users, logger: logger}
}

// RequireUser protects API routes. Requests without a valid session token are
// answered 401; the resolved *models.User is stored for handlers.
//
// Context Locals Set:
//   - user: *models.User
func (a *Authenticator) RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := a.authenticate(c)
		if err != nil {
			return err
		}
		c.Locals(userLocal, user)
		return c.Next()
	}
}

// RequirePageUser protects page routes. Anonymous visitors are redirected to
// signInURL with a redirect_url back to the requested page.
func (a *Authenticator) RequirePageUser(signInURL string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := a.authenticate(c)
		if errors.Is(err, ErrUnauthenticated) {
			return c.Redirect(SignInRedirect(signInURL, c.OriginalURL()), fiber.StatusSeeOther)
		}
		if err != nil {
			return err
		}
		c.Locals(userLocal, user)
		return c.Next()
	}
}

func (a *Authenticator) authenticate(c *fiber.Ctx) (*models.User, error) {
	token := clerk.TokenFromRequest(c.Get(fiber.HeaderAuthorization), c.Cookies(clerk.SessionCookie))

	clerkID, err := a.verifier.Verify(token)
	if err != nil {
		event := security.EventInvalidToken
		if errors.Is(err, clerk.ErrNoToken) {
			event = security.EventUnauthenticated
		}
		a.logger.SecurityEvent(event, "", c.IP(), c.Get(fiber.HeaderUserAgent), map[string]interface{}{
			"path":   c.Path(),
			"reason": err.Error(),
		})
		return nil, ErrUnauthenticated
	}

	user, err := a.users.Resolve(c.UserContext(), clerkID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CurrentUser returns the user stored by RequireUser or RequirePageUser.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocal).(*models.User)
	return user
}

// SetUser stores user as the current user. Used by tests and by routes that
// resolve identity themselves.
func SetUser(c *fiber.Ctx, user *models.User) {
	c.Locals(userLocal, user)
}

// SignInRedirect builds the sign-in location carrying a return path.
func SignInRedirect(signInURL, returnTo string) string {
	u, err := url.Parse(signInURL)
	if err != nil {
		return signInURL
	}
	q := u.Query()
	q.Set("redirect_url", returnTo)
	u.RawQuery = q.Encode()
	return u.String()
}
