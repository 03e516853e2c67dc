package github

import "fmt"

// Page size bounds for the repositories and discussions connections.
// GitHub rejects first: values above 100.
const (
	DefaultPageSize = 100
	maxPageSize     = 100
)

// discussionsQueryTemplate requests, for one login, the most recently updated
// repositories and for each of them the most recently updated discussions.
// Only the first page of either connection is read.
const discussionsQueryTemplate = `query($login: String!) {
	user(login: $login) {
		repositories(first: %[1]d, orderBy: {field: UPDATED_AT, direction: DESC}) {
			edges {
				node {
					name
					discussions(first: %[1]d, orderBy: {field: UPDATED_AT, direction: DESC}) {
						edges {
							node {
								id
								title
								url
								comments {
									totalCount
								}
								createdAt
							}
						}
					}
				}
			}
		}
	}
}`

// GraphQLRequest is the JSON body sent to the GitHub GraphQL API.
type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// BuildDiscussionsQuery returns the discussions query document bound to owner.
// It is a pure function: equal inputs give equal outputs. pageSize is clamped
// to [1, 100]; zero selects DefaultPageSize.
func BuildDiscussionsQuery(owner string, pageSize int) GraphQLRequest {
	switch {
	case pageSize == 0:
		pageSize = DefaultPageSize
	case pageSize < 1:
		pageSize = 1
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}

	return GraphQLRequest{
		Query: fmt.Sprintf(discussionsQueryTemplate, pageSize),
		Variables: map[string]any{
			"login": owner,
		},
	}
}
