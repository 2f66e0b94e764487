// Package clerk talks to the external identity provider: it verifies session
// tokens, fetches user profiles from the backend API and verifies signed
// webhook deliveries.
package clerk

import (
	"strings"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
)

// EmailAddress is one address attached to a provider user.
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// User is the provider's user object as returned by the backend API and
// embedded in webhook events.
type User struct {
	ID                    string         `json:"id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	ImageURL              *string        `json:"image_url"`
	PrimaryEmailAddressID *string        `json:"primary_email_address_id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	Deleted               bool           `json:"deleted"`
}

// PrimaryEmail returns the primary address, falling back to the first one.
// It returns "" when the user has no address.
func (u User) PrimaryEmail() string {
	if u.PrimaryEmailAddressID != nil {
		for _, e := range u.EmailAddresses {
			if e.ID == *u.PrimaryEmailAddressID {
				return e.EmailAddress
			}
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

// DisplayName joins first and last name; nil when both are blank.
func (u User) DisplayName() *string {
	var parts []string
	for _, p := range []*string{u.FirstName, u.LastName} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	name := strings.Join(parts, " ")
	return &name
}

// Identity converts the provider user into the attributes the identity
// bridge stores.
func (u User) Identity() models.IdentityAttributes {
	attrs := models.IdentityAttributes{
		ClerkID: u.ID,
		Email:   u.PrimaryEmail(),
		Name:    u.DisplayName(),
	}
	if u.ImageURL != nil && *u.ImageURL != "" {
		img := *u.ImageURL
		attrs.ProfileImage = &img
	}
	return attrs
}
