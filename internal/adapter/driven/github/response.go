package github

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ericfisherdev/discusswatch/internal/domain/model"
)

// Errors returned by the GraphQL client. Every one of them aborts the run.
var (
	// ErrTransport wraps network, DNS, TLS and timeout failures.
	ErrTransport = errors.New("graphql transport failure")
	// ErrMalformedResponse is returned when the body does not decode into the expected shape.
	ErrMalformedResponse = errors.New("malformed graphql response")
	// ErrGraphQL is returned when the API answered with errors and no user data.
	ErrGraphQL = errors.New("graphql API error")
)

// discussionsResponse mirrors
// data.user.repositories.edges[].node.{name, discussions.edges[].node{...}}.
// Pointers mark the levels that GitHub may return as null.
type discussionsResponse struct {
	Data *struct {
		User *struct {
			Repositories struct {
				Edges []struct {
					Node struct {
						Name        string `json:"name"`
						Discussions struct {
							Edges []struct {
								Node discussionNode `json:"node"`
							} `json:"edges"`
						} `json:"discussions"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"repositories"`
		} `json:"user"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type discussionNode struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Comments struct {
		TotalCount *int `json:"totalCount"`
	} `json:"comments"`
	CreatedAt string `json:"createdAt"`
}

type graphqlError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// parseDiscussions decodes a raw GraphQL response body into repositories.
// Decoding is all-or-nothing: any structural problem returns an error and no
// repositories.
func parseDiscussions(raw []byte) ([]model.Repository, []graphqlError, error) {
	var resp discussionsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if resp.Data == nil || resp.Data.User == nil {
		if len(resp.Errors) > 0 {
			return nil, resp.Errors, fmt.Errorf("%w: %s", ErrGraphQL, resp.Errors[0].Message)
		}
		return nil, nil, fmt.Errorf("%w: missing data.user", ErrMalformedResponse)
	}

	edges := resp.Data.User.Repositories.Edges
	repos := make([]model.Repository, 0, len(edges))
	for _, edge := range edges {
		repo := model.Repository{
			Name:        edge.Node.Name,
			Discussions: make([]model.Discussion, 0, len(edge.Node.Discussions.Edges)),
		}
		for _, d := range edge.Node.Discussions.Edges {
			n := d.Node
			if n.Comments.TotalCount == nil {
				return nil, resp.Errors, fmt.Errorf("%w: discussion %s in %s has no comments.totalCount", ErrMalformedResponse, n.ID, repo.Name)
			}
			if *n.Comments.TotalCount < 0 {
				return nil, resp.Errors, fmt.Errorf("%w: discussion %s in %s has negative comment count %d", ErrMalformedResponse, n.ID, repo.Name, *n.Comments.TotalCount)
			}
			repo.Discussions = append(repo.Discussions, model.Discussion{
				ID:           n.ID,
				Title:        n.Title,
				URL:          n.URL,
				CreatedAt:    n.CreatedAt,
				CommentCount: *n.Comments.TotalCount,
			})
		}
		repos = append(repos, repo)
	}

	return repos, resp.Errors, nil
}
