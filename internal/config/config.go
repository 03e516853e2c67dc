// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/discusswatch/internal/domain/model"
)

// Defaults for every configuration key. Placeholder values mirror the ones
// the bot has always shipped with so a bare deployment still starts.
const (
	DefaultGitHubToken    = "some_random_digits"
	DefaultOwner          = "alabulei1"
	DefaultSlackWorkspace = "secondstate"
	DefaultSlackChannel   = "github-status"
	DefaultLookbackDays   = 1
	DefaultTimeToInvoke   = "35 12"
	DefaultTriggerWord    = "diss"
	DefaultListenAddr     = "127.0.0.1:8080"
	DefaultPageSize       = 100
	DefaultUserAgent      = "discusswatch"
	DefaultGraphQLURL     = "https://api.github.com/graphql"

	// MaxPageSize is GitHub's per-connection limit for GraphQL pagination.
	MaxPageSize = 100
)

// Config holds the application configuration loaded from environment variables.
// It is built once at startup and passed to the components that need it.
type Config struct {
	GitHubToken    string
	Owner          string
	SlackWorkspace string
	SlackChannel   string
	LookbackDays   int
	TimeToInvoke   string
	TriggerWord    string

	SlackBotToken string
	SlackAppToken string
	WebhookSecret string
	ListenAddr    string

	Granularity model.Granularity
	PageSize    int
	UserAgent   string
	GraphQLURL  string

	// DebugEchoResponse posts the raw GraphQL response to the channel before
	// any discussion message. Diagnostic only.
	DebugEchoResponse bool
	// NotifyFailures posts a message to the channel when a run aborts.
	NotifyFailures bool
	// ReplyErrors answers a failed chat command in its thread.
	ReplyErrors bool
	// SeenDBPath enables the SQLite seen store when non-empty.
	SeenDBPath string
}

// Load reads configuration from environment variables. Absent keys fall back
// to their defaults; values that fail to parse fall back to the default too
// and are reported with a warning. Load never fails on a missing key.
//
// Keys: github_token, owner, slack_workspace, slack_channel, n_days,
// time_to_invoke, trigger_word, slack_bot_token, slack_app_token,
// webhook_secret, listen_addr, date_granularity, page_size, user_agent,
// graphql_url, debug_echo_response, notify_failures, reply_errors,
// seen_db_path.
func Load() *Config {
	granularity, err := model.ParseGranularity(stringEnv("date_granularity", string(model.GranularityDay)))
	if err != nil {
		slog.Warn("invalid date_granularity, using default", "error", err, "default", model.GranularityDay)
		granularity = model.GranularityDay
	}

	lookback := intEnv("n_days", DefaultLookbackDays)
	if lookback < 0 {
		slog.Warn("n_days must not be negative, using default", "value", lookback, "default", DefaultLookbackDays)
		lookback = DefaultLookbackDays
	}

	return &Config{
		GitHubToken:    stringEnv("github_token", DefaultGitHubToken),
		Owner:          stringEnv("owner", DefaultOwner),
		SlackWorkspace: stringEnv("slack_workspace", DefaultSlackWorkspace),
		SlackChannel:   stringEnv("slack_channel", DefaultSlackChannel),
		LookbackDays:   lookback,
		TimeToInvoke:   stringEnv("time_to_invoke", DefaultTimeToInvoke),
		TriggerWord:    stringEnv("trigger_word", DefaultTriggerWord),

		SlackBotToken: stringEnv("slack_bot_token", ""),
		SlackAppToken: stringEnv("slack_app_token", ""),
		WebhookSecret: stringEnv("webhook_secret", ""),
		ListenAddr:    stringEnv("listen_addr", DefaultListenAddr),

		Granularity: granularity,
		PageSize:    ClampPageSize(intEnv("page_size", DefaultPageSize)),
		UserAgent:   stringEnv("user_agent", DefaultUserAgent),
		GraphQLURL:  stringEnv("graphql_url", DefaultGraphQLURL),

		DebugEchoResponse: boolEnv("debug_echo_response", false),
		NotifyFailures:    boolEnv("notify_failures", false),
		ReplyErrors:       boolEnv("reply_errors", false),
		SeenDBPath:        stringEnv("seen_db_path", ""),
	}
}

// Window returns the lookback window ending at now.
func (c *Config) Window(now time.Time) model.QueryWindow {
	return model.NewQueryWindow(now, c.LookbackDays, c.Granularity)
}

// CronSpec expands TimeToInvoke into a standard five-field cron expression.
// "M H" gets day-of-month, month and weekday wildcards appended; "M H D"
// gets month and weekday wildcards; a full five-field value is used as is.
func (c *Config) CronSpec() (string, error) {
	fields := strings.Fields(c.TimeToInvoke)
	switch len(fields) {
	case 2:
		fields = append(fields, "*", "*", "*")
	case 3:
		fields = append(fields, "*", "*")
	case 5:
	default:
		return "", fmt.Errorf("time_to_invoke %q: want 2, 3 or 5 cron fields, got %d", c.TimeToInvoke, len(fields))
	}
	return strings.Join(fields, " "), nil
}

// HasSlackBot returns true when a bot token is configured for posting messages.
func (c *Config) HasSlackBot() bool {
	return c.SlackBotToken != ""
}

// ClampPageSize bounds n to [1, MaxPageSize].
func ClampPageSize(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

func stringEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func boolEnv(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("invalid boolean in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}
