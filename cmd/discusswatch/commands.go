package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	slackgo "github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/discusswatch/internal/adapter/driving/schedule"
	"github.com/ericfisherdev/discusswatch/internal/adapter/driving/slackbot"
	"github.com/ericfisherdev/discusswatch/internal/adapter/driving/webhook"
	"github.com/ericfisherdev/discusswatch/internal/application"
	"github.com/ericfisherdev/discusswatch/internal/config"
)

// scheduledRunTimeout bounds a single cron-triggered run.
const scheduledRunTimeout = 5 * time.Minute

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check discussions once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, config.Load(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.pipeline.Run(ctx, application.RunRequest{Owner: owner, Source: "cli"})
			if err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d notifications failed", report.Failed, report.Failed+report.Sent)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "GitHub login to check instead of the configured owner")
	return cmd
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Check discussions on the time_to_invoke cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			spec, err := cfg.CronSpec()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cfg, opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.close()

			s, err := schedule.NewScheduler(spec, a.pipeline, scheduledRunTimeout, slog.Default())
			if err != nil {
				return err
			}
			return s.Run(ctx)
		},
	}
}

func newWebhookCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "webhook",
		Short: "Serve GitHub webhooks and check discussions on each accepted event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()

			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cfg, opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.close()

			if cfg.WebhookSecret == "" {
				slog.Warn("webhook_secret is not set, deliveries are not authenticated")
			}

			h := webhook.NewHandler(a.pipeline, cfg.WebhookSecret, cfg.Owner, slog.Default())
			srv := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           webhook.NewServeMux(h, slog.Default()),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				slog.Info("webhook server starting", "addr", cfg.ListenAddr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return fmt.Errorf("webhook server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				slog.Info("shutting down")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("webhook server shutdown: %w", err)
				}
				return nil
			})

			if err := g.Wait(); err != nil {
				return err
			}
			slog.Info("shutdown complete")
			return nil
		},
	}
}

func newListenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Check discussions when the trigger word is posted in the Slack channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if cfg.SlackBotToken == "" || cfg.SlackAppToken == "" {
				return fmt.Errorf("listen requires slack_bot_token and slack_app_token")
			}

			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cfg, opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.close()

			api := slackgo.New(cfg.SlackBotToken, slackgo.OptionAppLevelToken(cfg.SlackAppToken))
			if _, err := api.AuthTestContext(ctx); err != nil {
				return fmt.Errorf("slack_bot_token is invalid: %w", err)
			}

			l := slackbot.NewListener(api, a.pipeline, cfg.TriggerWord, cfg.SlackChannel, slog.Default())
			l.ReplyErrors = cfg.ReplyErrors
			return l.Run(ctx)
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the GitHub token, owner and schedule configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			out := cmd.OutOrStdout()

			spec, err := cfg.CronSpec()
			if err != nil {
				return err
			}
			s, err := schedule.NewScheduler(spec, nil, 0, slog.Default())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			id, err := newGitHubClient(cfg).Verify(ctx, cfg.Owner)
			if err != nil {
				return err
			}

			kind := "user"
			if id.IsOrganization() {
				kind = "organization"
			}
			fmt.Fprintf(out, "token:     authenticated as %s\n", id.Login)
			fmt.Fprintf(out, "owner:     %s (%s)\n", id.OwnerLogin, kind)
			fmt.Fprintf(out, "rate:      %d/%d remaining, resets %s\n", id.RateRemaining, id.RateLimit, id.RateReset.Format(time.RFC3339))
			fmt.Fprintf(out, "schedule:  %q, next run %s\n", spec, s.Next(time.Now()).Format(time.RFC3339))
			fmt.Fprintf(out, "window:    %d day(s), %s granularity\n", cfg.LookbackDays, cfg.Granularity)
			fmt.Fprintf(out, "slack:     #%s in %s (bot token set: %t)\n", cfg.SlackChannel, cfg.SlackWorkspace, cfg.HasSlackBot())
			return nil
		},
	}
}
