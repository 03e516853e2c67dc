// Package slack implements the Notifier port on top of the Slack Web API.
package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	slackgo "github.com/slack-go/slack"

	"github.com/ericfisherdev/discusswatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*Notifier)(nil)

// ErrEmptyChannel is returned by Send when no destination channel is given.
var ErrEmptyChannel = errors.New("slack channel is empty")

// Notifier posts plain text messages with a bot token.
type Notifier struct {
	client *slackgo.Client
	logger *slog.Logger

	checkOnce sync.Once
}

// NewNotifier creates a Notifier authenticated with the given bot token.
func NewNotifier(token string, logger *slog.Logger) *Notifier {
	return NewNotifierWithClient(slackgo.New(token), logger)
}

// NewNotifierWithClient wraps an existing slack client. Used by tests to point
// the client at an httptest server via slack.OptionAPIURL.
func NewNotifierWithClient(client *slackgo.Client, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{client: client, logger: logger}
}

// Send posts text to channel. Channel may be a name with or without a leading
// "#", or a channel ID. Bot tokens are bound to a single workspace, so the
// workspace argument is only compared against the token's team on first use.
func (n *Notifier) Send(ctx context.Context, workspace, channel, text string) error {
	channel = strings.TrimPrefix(strings.TrimSpace(channel), "#")
	if channel == "" {
		return ErrEmptyChannel
	}

	n.checkOnce.Do(func() { n.checkWorkspace(ctx, workspace) })

	_, ts, err := n.client.PostMessageContext(ctx, channel, slackgo.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("posting to #%s: %w", channel, err)
	}

	n.logger.Debug("slack message posted", "channel", channel, "ts", ts)
	return nil
}

func (n *Notifier) checkWorkspace(ctx context.Context, workspace string) {
	if workspace == "" {
		return
	}
	auth, err := n.client.AuthTestContext(ctx)
	if err != nil {
		n.logger.Warn("slack auth test failed", "error", err)
		return
	}
	if !matchesWorkspace(auth, workspace) {
		n.logger.Warn("slack token belongs to a different workspace",
			"configured", workspace,
			"team", auth.Team,
			"url", auth.URL,
		)
	}
}

// matchesWorkspace accepts the team name, team ID or the subdomain of the
// workspace URL.
func matchesWorkspace(auth *slackgo.AuthTestResponse, workspace string) bool {
	if strings.EqualFold(auth.Team, workspace) || strings.EqualFold(auth.TeamID, workspace) {
		return true
	}
	host := strings.TrimPrefix(strings.TrimPrefix(auth.URL, "https://"), "http://")
	sub, _, _ := strings.Cut(host, ".")
	return strings.EqualFold(sub, workspace)
}
