// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/discusswatch/internal/domain/model"
	"github.com/ericfisherdev/discusswatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ Trigger = (*PipelineService)(nil)

// PipelineConfig holds the per-deployment settings of a pipeline run.
type PipelineConfig struct {
	Owner        string
	Workspace    string
	Channel      string
	LookbackDays int
	Granularity  model.Granularity

	DebugEchoResponse bool
	NotifyFailures    bool

	// Now defaults to time.Now.
	Now func() time.Time
}

// RunRequest describes a single pipeline invocation.
type RunRequest struct {
	// Owner overrides PipelineConfig.Owner when non-empty.
	Owner  string
	Source string
}

// PipelineService fetches discussions for an owner, selects the unanswered
// ones inside the lookback window and announces each of them.
type PipelineService struct {
	source   driven.DiscussionSource
	notifier driven.Notifier
	seen     driven.SeenStore
	cfg      PipelineConfig
	logger   *slog.Logger

	// mu serializes runs so overlapping triggers never interleave sends.
	mu sync.Mutex
}

// NewPipelineService creates a PipelineService. seen may be nil, in which case
// every matching run re-announces the same discussions.
func NewPipelineService(
	source driven.DiscussionSource,
	notifier driven.Notifier,
	seen driven.SeenStore,
	cfg PipelineConfig,
	logger *slog.Logger,
) *PipelineService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineService{
		source:   source,
		notifier: notifier,
		seen:     seen,
		cfg:      cfg,
		logger:   logger,
	}
}

// Invoke runs the pipeline on behalf of a trigger adapter.
func (s *PipelineService) Invoke(ctx context.Context, payload *TriggerPayload) error {
	var req RunRequest
	if payload != nil {
		req = RunRequest{Owner: payload.Owner, Source: payload.Source}
	}
	_, err := s.Run(ctx, req)
	return err
}

// Run performs one fetch and zero or more sends. A fetch or parse failure
// aborts the run before anything is sent. A failed send is logged and
// counted, and the remaining matches are still sent.
func (s *PipelineService) Run(ctx context.Context, req RunRequest) (model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := req.Owner
	if owner == "" {
		owner = s.cfg.Owner
	}
	source := req.Source
	if source == "" {
		source = "manual"
	}
	logger := s.logger.With("owner", owner, "source", source)
	report := model.Report{Owner: owner}

	window := model.NewQueryWindow(s.cfg.Now(), s.cfg.LookbackDays, s.cfg.Granularity)

	result, err := s.source.FetchDiscussions(ctx, owner)
	if err != nil {
		logger.Error("fetching discussions failed", "error", err)
		if s.cfg.NotifyFailures {
			if sendErr := s.notifier.Send(ctx, s.cfg.Workspace, s.cfg.Channel, FormatFailure(owner, err)); sendErr != nil {
				logger.Error("sending failure notification failed", "error", sendErr)
			}
		}
		return report, fmt.Errorf("fetching discussions for %s: %w", owner, err)
	}
	report.Repositories = len(result.Repositories)

	if s.cfg.DebugEchoResponse {
		if err := s.notifier.Send(ctx, s.cfg.Workspace, s.cfg.Channel, FormatDebugEcho(result.Raw)); err != nil {
			logger.Warn("debug echo failed", "error", err)
		}
	}

	onSkip := func(repo string, d model.Discussion, err error) {
		report.Skipped++
		logger.Warn("skipping discussion with invalid createdAt",
			"repository", repo,
			"discussion_id", d.ID,
			"created_at", d.CreatedAt,
			"error", err,
		)
	}

	for repo, d := range FilterDiscussions(result.Repositories, window, onSkip) {
		report.Matched++

		if s.alreadySeen(ctx, logger, d.ID) {
			report.Duplicates++
			continue
		}

		text := FormatMessage(model.Match{RepositoryName: repo, Discussion: d})
		if err := s.notifier.Send(ctx, s.cfg.Workspace, s.cfg.Channel, text); err != nil {
			report.Failed++
			logger.Error("sending notification failed",
				"repository", repo,
				"discussion_id", d.ID,
				"error", err,
			)
			continue
		}
		report.Sent++

		if s.seen != nil {
			if err := s.seen.MarkSeen(ctx, d.ID, repo, s.cfg.Now()); err != nil {
				logger.Warn("recording seen discussion failed", "discussion_id", d.ID, "error", err)
			}
		}
	}

	if s.seen != nil {
		pruned, err := s.seen.Prune(ctx, window.Earliest())
		if err != nil {
			logger.Warn("pruning seen discussions failed", "error", err)
		} else if pruned > 0 {
			logger.Debug("pruned seen discussions", "count", pruned)
		}
	}

	logger.Info("discussion check complete",
		"repositories", report.Repositories,
		"matched", report.Matched,
		"sent", report.Sent,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"duplicates", report.Duplicates,
	)

	return report, nil
}

// alreadySeen reports false when no store is configured or the lookup fails.
func (s *PipelineService) alreadySeen(ctx context.Context, logger *slog.Logger, id string) bool {
	if s.seen == nil {
		return false
	}
	seen, err := s.seen.Seen(ctx, id)
	if err != nil {
		logger.Warn("seen lookup failed, sending anyway", "discussion_id", id, "error", err)
		return false
	}
	return seen
}
