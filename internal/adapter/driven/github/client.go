// Package github implements the DiscussionSource port against the GitHub
// GraphQL API, plus a REST-based credential check.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"

	"github.com/ericfisherdev/discusswatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DiscussionSource = (*Client)(nil)

const (
	defaultGraphQLURL = "https://api.github.com/graphql"
	defaultUserAgent  = "discusswatch"
	defaultTimeout    = 30 * time.Second
)

// Options holds optional Client settings. Zero values select defaults.
type Options struct {
	GraphQLURL string
	UserAgent  string
	PageSize   int
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Client talks to the GitHub API on behalf of a single token.
type Client struct {
	http       *resty.Client
	rest       *gh.Client
	graphqlURL string
	userAgent  string
	pageSize   int
	logger     *slog.Logger
}

// NewClient creates a Client with the following transport stacks:
//
// GraphQL: oauth2 static token (Authorization: Bearer) -> go-github-ratelimit
// (secondary rate limit middleware, sleeps on 429) -> default transport,
// driven through resty.
//
// REST: go-github with PAT auth -> go-github-ratelimit -> httpcache (ETag
// conditional requests).
func NewClient(token string, opts Options) *Client {
	graphqlBase := github_ratelimit.NewClient(http.DefaultTransport)

	cacheTransport := httpcache.NewMemoryCacheTransport()
	rest := gh.NewClient(github_ratelimit.NewClient(cacheTransport)).WithAuthToken(token)

	return newClient(graphqlBase, rest, token, opts)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
// The GraphQL endpoint is derived from baseURL unless opts.GraphQLURL is set.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string, opts Options) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	rest := gh.NewClient(httpClient).WithAuthToken(token)
	rest.BaseURL = u

	if opts.GraphQLURL == "" {
		graphqlU := *u
		graphqlU.Path = "/graphql"
		opts.GraphQLURL = graphqlU.String()
	}

	return newClient(httpClient, rest, token, opts), nil
}

func newClient(base *http.Client, rest *gh.Client, token string, opts Options) *Client {
	if opts.GraphQLURL == "" {
		opts.GraphQLURL = defaultGraphQLURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	// oauth2.NewClient takes its base transport from the context value.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	return &Client{
		http:       resty.NewWithClient(authed).SetTimeout(opts.Timeout),
		rest:       rest,
		graphqlURL: opts.GraphQLURL,
		userAgent:  opts.UserAgent,
		pageSize:   opts.PageSize,
		logger:     opts.Logger,
	}
}
