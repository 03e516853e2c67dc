package model

// Report summarizes a single pipeline run.
type Report struct {
	Owner        string
	Repositories int
	Matched      int // Uncommented discussions inside the window.
	Skipped      int // Discussions dropped because createdAt did not parse.
	Duplicates   int // Matches suppressed by the seen store.
	Sent         int
	Failed       int
}
