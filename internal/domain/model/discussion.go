package model

// Discussion represents a GitHub Discussions thread.
//
// CreatedAt holds the RFC3339 timestamp exactly as returned by the API. It is
// parsed by the filter so a single bad value only drops that discussion.
type Discussion struct {
	ID           string
	Title        string
	URL          string
	CreatedAt    string
	CommentCount int
}

// Match is a discussion selected for notification, paired with the name of
// the repository it belongs to.
type Match struct {
	RepositoryName string
	Discussion     Discussion
}
