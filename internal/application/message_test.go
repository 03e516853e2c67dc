package application_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/discusswatch/internal/application"
	"github.com/ericfisherdev/discusswatch/internal/domain/model"
)

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name  string
		match model.Match
		want  string
	}{
		{
			name: "with repository",
			match: model.Match{
				RepositoryName: "repo-a",
				Discussion:     model.Discussion{Title: "Help needed", URL: "https://github.com/o/repo-a/discussions/1"},
			},
			want: "New discussion in repo-a: Help needed\nhttps://github.com/o/repo-a/discussions/1",
		},
		{
			name:  "without repository",
			match: model.Match{Discussion: model.Discussion{Title: "Help needed", URL: "https://x/1"}},
			want:  "New discussion: Help needed\nhttps://x/1",
		},
		{
			name: "html stripped and control characters escaped",
			match: model.Match{
				RepositoryName: "r",
				Discussion:     model.Discussion{Title: "Use <b>Vec&lt;T&gt;</b> & friends", URL: "https://x/2"},
			},
			want: "New discussion in r: Use Vec&lt;T&gt; &amp; friends\nhttps://x/2",
		},
		{
			name:  "quotes kept",
			match: model.Match{RepositoryName: "r", Discussion: model.Discussion{Title: `What's "new"?`, URL: "u"}},
			want:  "New discussion in r: What's \"new\"?\nu",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, application.FormatMessage(tt.match))
		})
	}
}

func TestFormatFailure(t *testing.T) {
	msg := application.FormatFailure("octocat", errors.New("unexpected <EOF>"))

	assert.Contains(t, msg, "octocat")
	assert.Contains(t, msg, "unexpected &lt;EOF&gt;")
}

func TestFormatDebugEcho(t *testing.T) {
	short := application.FormatDebugEcho([]byte(`{"data":{}}`))
	assert.Equal(t, "GraphQL response:\n```{\"data\":{}}```", short)

	long := application.FormatDebugEcho([]byte(strings.Repeat("é", 2000)))
	assert.Contains(t, long, "(truncated)")
	assert.Less(t, len(long), 3100)
	assert.NotContains(t, long, "�")
}
