package clerk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	clerksdk "github.com/clerk/clerk-sdk-go/v2"
	sdkuser "github.com/clerk/clerk-sdk-go/v2/user"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
)

// ErrUserNotFound is returned when the provider has no user with the id.
var ErrUserNotFound = errors.New("provider user not found")

// Client calls the provider's backend API through the official SDK.
type Client struct {
	users *sdkuser.Client
}

// NewClient creates a backend API client. apiURL is the API root without the
// version segment. httpClient may be nil.
func NewClient(apiURL, secretKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	config := &clerksdk.ClientConfig{}
	config.Key = clerksdk.String(secretKey)
	config.URL = clerksdk.String(apiURL)
	config.HTTPClient = httpClient
	return &Client{users: sdkuser.NewClient(config)}
}

// GetUser fetches one user by provider id.
func (c *Client) GetUser(ctx context.Context, clerkID string) (*User, error) {
	u, err := c.users.Get(ctx, clerkID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetch provider user: %w", err)
	}
	return fromSDKUser(u), nil
}

// FetchIdentity implements the identity bridge's profile lookup.
func (c *Client) FetchIdentity(ctx context.Context, clerkID string) (*models.IdentityAttributes, error) {
	user, err := c.GetUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	attrs := user.Identity()
	return &attrs, nil
}

func isNotFound(err error) bool {
	var apiErr *clerksdk.APIErrorResponse
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.HTTPStatusCode == http.StatusNotFound {
		return true
	}
	for _, e := range apiErr.Errors {
		if e.Code == "resource_not_found" {
			return true
		}
	}
	return false
}

func fromSDKUser(u *clerksdk.User) *User {
	out := &User{
		ID:                    u.ID,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		ImageURL:              u.ImageURL,
		PrimaryEmailAddressID: u.PrimaryEmailAddressID,
	}
	for _, e := range u.EmailAddresses {
		if e != nil {
			out.EmailAddresses = append(out.EmailAddresses, EmailAddress{ID: e.ID, EmailAddress: e.EmailAddress})
		}
	}
	return out
}
