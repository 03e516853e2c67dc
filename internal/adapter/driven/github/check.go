package github

import (
	"context"
	"fmt"
	"time"
)

// Identity describes the token and the watched owner as seen by the REST API.
type Identity struct {
	Login         string
	OwnerLogin    string
	OwnerType     string // "User" or "Organization".
	RateRemaining int
	RateLimit     int
	RateReset     time.Time
}

// IsOrganization reports whether the owner is an organization. The
// discussions query looks the login up with user(login:), which does not
// resolve organizations.
func (id *Identity) IsOrganization() bool {
	return id.OwnerType == "Organization"
}

// Verify checks the token against the REST API and looks up owner.
func (c *Client) Verify(ctx context.Context, owner string) (*Identity, error) {
	me, resp, err := c.rest.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("getting authenticated user: %w", err)
	}

	id := &Identity{Login: me.GetLogin()}
	if resp != nil {
		id.RateRemaining = resp.Rate.Remaining
		id.RateLimit = resp.Rate.Limit
		id.RateReset = resp.Rate.Reset.Time
	}

	if owner == "" {
		return id, nil
	}

	o, _, err := c.rest.Users.Get(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("looking up owner %q: %w", owner, err)
	}
	id.OwnerLogin = o.GetLogin()
	id.OwnerType = o.GetType()

	return id, nil
}
