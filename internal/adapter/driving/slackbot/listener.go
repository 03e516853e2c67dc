// Package slackbot is the driving adapter that runs the pipeline when a
// message in the configured channel starts with the trigger word.
package slackbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ttlcache "github.com/jellydator/ttlcache/v3"
	slackgo "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/ericfisherdev/discusswatch/internal/application"
)

// Listener consumes Socket Mode events and invokes the pipeline on commands.
type Listener struct {
	api         *slackgo.Client
	trigger     application.Trigger
	triggerWord string
	channel     string
	logger      *slog.Logger

	// ReplyErrors answers a failed command in its thread. Off by default, a
	// failed run is otherwise only logged.
	ReplyErrors bool

	channelInfoCache *ttlcache.Cache[string, *slackgo.Channel]
	// handled remembers recent message timestamps. A mention in a channel
	// arrives both as a message and as an app_mention event.
	handled *ttlcache.Cache[string, struct{}]
}

// NewListener creates a Listener. api must carry both the bot token and an
// app-level token for Socket Mode. channel may be a name or an ID.
func NewListener(api *slackgo.Client, trigger application.Trigger, triggerWord, channel string, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		api:              api,
		trigger:          trigger,
		triggerWord:      triggerWord,
		channel:          strings.TrimPrefix(channel, "#"),
		logger:           logger,
		channelInfoCache: ttlcache.New(ttlcache.WithTTL[string, *slackgo.Channel](time.Hour * 24)),
		handled:          ttlcache.New(ttlcache.WithTTL[string, struct{}](10 * time.Minute)),
	}
}

// Run connects to Slack and handles events until ctx is canceled.
func (l *Listener) Run(ctx context.Context) error {
	socket := socketmode.New(l.api)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-socket.Events:
				if !ok {
					return
				}
				l.dispatch(ctx, socket, evt)
			}
		}
	}()

	if err := socket.RunContext(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("slack socket mode: %w", err)
	}
	return nil
}

func (l *Listener) dispatch(ctx context.Context, socket *socketmode.Client, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnected:
		l.logger.Info("connected to slack", "trigger_word", l.triggerWord, "channel", l.channel)
	case socketmode.EventTypeConnectionError:
		l.logger.Warn("slack connection error", "data", evt.Data)
	case socketmode.EventTypeEventsAPI:
		if evt.Request != nil {
			socket.Ack(*evt.Request)
		}
		payload, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			l.logger.Error("unexpected events API payload", "type", fmt.Sprintf("%T", evt.Data))
			return
		}
		if payload.Type != slackevents.CallbackEvent {
			return
		}
		switch ev := payload.InnerEvent.Data.(type) {
		case *slackevents.MessageEvent:
			l.handleMessage(ctx, incomingMessage{
				Channel: ev.Channel, Text: ev.Text, TS: ev.TimeStamp,
				BotID: ev.BotID, SubType: ev.SubType,
			})
		case *slackevents.AppMentionEvent:
			l.handleMessage(ctx, incomingMessage{
				Channel: ev.Channel, Text: ev.Text, TS: ev.TimeStamp,
				BotID: ev.BotID,
			})
		}
	}
}

type incomingMessage struct {
	Channel string
	Text    string
	TS      string
	BotID   string
	SubType string
}

// handleMessage runs the pipeline if msg is a command in the watched channel.
// It reports whether the pipeline was invoked.
func (l *Listener) handleMessage(ctx context.Context, msg incomingMessage) bool {
	if msg.BotID != "" || msg.SubType != "" {
		return false
	}

	owner, ok := ParseCommand(msg.Text, l.triggerWord)
	if !ok {
		return false
	}

	key := msg.Channel + ":" + msg.TS
	if l.handled.Has(key) {
		return false
	}

	if !l.watching(ctx, msg.Channel) {
		l.logger.Debug("ignoring command outside watched channel", "channel", msg.Channel)
		return false
	}
	l.handled.Set(key, struct{}{}, ttlcache.DefaultTTL)

	payload := &application.TriggerPayload{Owner: owner, Source: "slack"}
	if err := l.trigger.Invoke(ctx, payload); err != nil {
		l.logger.Error("pipeline run failed", "owner", owner, "error", err)
		if l.ReplyErrors {
			l.replyError(ctx, msg, err)
		}
	}
	return true
}

// watching reports whether channelID is the configured channel, matching by
// ID first and then by name.
func (l *Listener) watching(ctx context.Context, channelID string) bool {
	if l.channel == "" || strings.EqualFold(l.channel, channelID) {
		return true
	}
	channel, err := l.channelInfo(ctx, channelID)
	if err != nil {
		l.logger.Warn("channel lookup failed", "channel", channelID, "error", err)
		return false
	}
	return strings.EqualFold(channel.Name, l.channel)
}

func (l *Listener) channelInfo(ctx context.Context, channelID string) (*slackgo.Channel, error) {
	if item := l.channelInfoCache.Get(channelID); item != nil {
		return item.Value(), nil
	}
	channel, err := l.api.GetConversationInfoContext(ctx, &slackgo.GetConversationInfoInput{ChannelID: channelID})
	if err != nil {
		return nil, fmt.Errorf("failed to get channel info: %w", err)
	}
	l.channelInfoCache.Set(channelID, channel, ttlcache.DefaultTTL)
	return channel, nil
}

func (l *Listener) replyError(ctx context.Context, msg incomingMessage, runErr error) {
	text := fmt.Sprintf("Could not check discussions: %s", runErr)
	if _, _, err := l.api.PostMessageContext(ctx, msg.Channel,
		slackgo.MsgOptionText(text, false),
		slackgo.MsgOptionTS(msg.TS),
	); err != nil {
		l.logger.Warn("posting error reply failed", "error", err)
	}
}
