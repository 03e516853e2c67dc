package model

// Repository is one repository of the watched owner together with the
// discussions the API returned for it. Discussions keep the server order
// (most recently updated first).
type Repository struct {
	Name        string
	Discussions []Discussion
}

// FetchResult is the outcome of a single discussions query: the parsed
// repositories plus the raw response body they were decoded from.
type FetchResult struct {
	Repositories []Repository
	Raw          []byte
}
