package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	githubadapter "github.com/ericfisherdev/discusswatch/internal/adapter/driven/github"
	slackadapter "github.com/ericfisherdev/discusswatch/internal/adapter/driven/slack"
	sqliteadapter "github.com/ericfisherdev/discusswatch/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/discusswatch/internal/application"
	"github.com/ericfisherdev/discusswatch/internal/config"
	"github.com/ericfisherdev/discusswatch/internal/domain/port/driven"
)

// graphqlTimeout bounds one GraphQL round trip.
const graphqlTimeout = 20 * time.Second

var errNoSlackToken = errors.New("slack_bot_token is not set (use --dry-run to print messages instead)")

// app holds the adapters wired for one process.
type app struct {
	pipeline *application.PipelineService
	db       *sqliteadapter.DB
}

// newApp wires the pipeline from configuration. The caller must call close.
func newApp(ctx context.Context, cfg *config.Config, opts *rootOptions, stdout io.Writer) (*app, error) {
	logger := slog.Default()
	gh := newGitHubClient(cfg)

	var notifier driven.Notifier
	switch {
	case opts.dryRun:
		notifier = &printNotifier{w: stdout}
	case cfg.HasSlackBot():
		notifier = slackadapter.NewNotifier(cfg.SlackBotToken, logger)
	default:
		return nil, errNoSlackToken
	}

	a := &app{}

	var seen driven.SeenStore
	if cfg.SeenDBPath != "" {
		db, err := sqliteadapter.NewDB(ctx, cfg.SeenDBPath)
		if err != nil {
			return nil, err
		}
		version, err := sqliteadapter.RunMigrations(db.Writer)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		slog.Info("seen store opened", "path", cfg.SeenDBPath, "schema_version", version)
		a.db = db
		seen = sqliteadapter.NewSeenRepo(db)
	}

	a.pipeline = application.NewPipelineService(gh, notifier, seen, application.PipelineConfig{
		Owner:             cfg.Owner,
		Workspace:         cfg.SlackWorkspace,
		Channel:           cfg.SlackChannel,
		LookbackDays:      cfg.LookbackDays,
		Granularity:       cfg.Granularity,
		DebugEchoResponse: cfg.DebugEchoResponse,
		NotifyFailures:    cfg.NotifyFailures,
	}, logger)

	return a, nil
}

func newGitHubClient(cfg *config.Config) *githubadapter.Client {
	return githubadapter.NewClient(cfg.GitHubToken, githubadapter.Options{
		GraphQLURL: cfg.GraphQLURL,
		UserAgent:  cfg.UserAgent,
		PageSize:   cfg.PageSize,
		Timeout:    graphqlTimeout,
		Logger:     slog.Default(),
	})
}

func (a *app) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// printNotifier writes messages to w. Used by --dry-run.
type printNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printNotifier) Send(_ context.Context, workspace, channel, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.w, "[%s #%s]\n%s\n\n", workspace, channel, text)
	return err
}
