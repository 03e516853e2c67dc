package application

import (
	"iter"
	"time"

	"github.com/ericfisherdev/discusswatch/internal/domain/model"
)

// SkipFunc is called for every discussion the filter drops because its
// creation timestamp could not be parsed.
type SkipFunc func(repository string, d model.Discussion, err error)

// FilterDiscussions lazily yields (repository name, discussion) pairs for
// discussions created within window that have no comments. Iteration follows
// the upstream order: repositories first, then discussions within each.
//
// A discussion whose CreatedAt is not valid RFC3339 is reported to onSkip (if
// non-nil) and iteration continues with its siblings.
func FilterDiscussions(repos []model.Repository, window model.QueryWindow, onSkip SkipFunc) iter.Seq2[string, model.Discussion] {
	return func(yield func(string, model.Discussion) bool) {
		for _, repo := range repos {
			for _, d := range repo.Discussions {
				created, err := time.Parse(time.RFC3339, d.CreatedAt)
				if err != nil {
					if onSkip != nil {
						onSkip(repo.Name, d, err)
					}
					continue
				}
				if !window.Contains(created) || d.CommentCount != 0 {
					continue
				}
				if !yield(repo.Name, d) {
					return
				}
			}
		}
	}
}

// Collect drains a filter sequence into a slice of matches.
func Collect(seq iter.Seq2[string, model.Discussion]) []model.Match {
	var matches []model.Match
	for repo, d := range seq {
		matches = append(matches, model.Match{RepositoryName: repo, Discussion: d})
	}
	return matches
}
