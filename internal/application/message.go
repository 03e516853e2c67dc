package application

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ericfisherdev/discusswatch/internal/domain/model"
)

// maxEchoBytes keeps the debug echo below Slack's practical message length.
const maxEchoBytes = 3000

var (
	// Policies are safe for concurrent use once built.
	stripPolicy = bluemonday.StrictPolicy()

	mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// FormatMessage renders the notification text for a matched discussion.
func FormatMessage(m model.Match) string {
	title := slackText(m.Discussion.Title)
	if m.RepositoryName == "" {
		return fmt.Sprintf("New discussion: %s\n%s", title, m.Discussion.URL)
	}
	return fmt.Sprintf("New discussion in %s: %s\n%s", slackText(m.RepositoryName), title, m.Discussion.URL)
}

// FormatFailure renders the message posted when a run aborts and failure
// notifications are enabled.
func FormatFailure(owner string, err error) string {
	return fmt.Sprintf("discusswatch: checking discussions for %s failed: %s", slackText(owner), slackText(err.Error()))
}

// FormatDebugEcho wraps the raw GraphQL response in a code block, truncated
// on a rune boundary.
func FormatDebugEcho(raw []byte) string {
	body := raw
	truncated := false
	if len(body) > maxEchoBytes {
		cut := maxEchoBytes
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
		truncated = true
	}

	var b strings.Builder
	b.WriteString("GraphQL response:\n```")
	b.WriteString(mrkdwnEscaper.Replace(string(body)))
	if truncated {
		b.WriteString("\n... (truncated)")
	}
	b.WriteString("```")
	return b.String()
}

// slackText strips any HTML from s and escapes the characters Slack treats as
// control sequences in message text.
func slackText(s string) string {
	plain := html.UnescapeString(stripPolicy.Sanitize(s))
	return mrkdwnEscaper.Replace(strings.TrimSpace(plain))
}
