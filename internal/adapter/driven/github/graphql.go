package github

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/discusswatch/internal/domain/model"
)

// FetchDiscussions runs the discussions query for owner and returns the
// parsed repositories with the raw body.
//
// The HTTP status is not inspected: a non-2xx body is decoded like any other
// and only fails the call if it does not match the expected shape.
func (c *Client) FetchDiscussions(ctx context.Context, owner string) (*model.FetchResult, error) {
	reqBody := BuildDiscussionsQuery(owner, c.pageSize)

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", c.userAgent).
		SetBody(reqBody).
		Post(c.graphqlURL)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %w", ErrTransport, c.graphqlURL, err)
	}

	raw := resp.Body()
	c.logger.Debug("graphql: discussions query",
		"owner", owner,
		"status", resp.StatusCode(),
		"bytes", len(raw),
		"duration", time.Since(start).Round(time.Millisecond),
		"rate_remaining", resp.Header().Get("X-RateLimit-Remaining"),
	)

	if !resp.IsSuccess() {
		c.logger.Warn("graphql: non-2xx response, decoding body anyway", "status", resp.StatusCode(), "owner", owner)
	}

	repos, gqlErrs, err := parseDiscussions(raw)
	if err != nil {
		return nil, fmt.Errorf("discussions for %s (HTTP %d): %w", owner, resp.StatusCode(), err)
	}

	if len(gqlErrs) > 0 {
		c.logger.Warn("graphql: response contains errors",
			"errors", gqlErrs[0].Message,
			"count", len(gqlErrs),
			"owner", owner,
		)
	}

	return &model.FetchResult{Repositories: repos, Raw: raw}, nil
}
