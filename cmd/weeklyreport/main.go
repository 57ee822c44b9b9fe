// Package main provides the weeklyreport binary entry point. It runs
// the weekly report pipeline either as one-shot commands (preview,
// final) or as a long-lived ops server with trigger endpoints.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/weeklyreport/internal/api"
	"github.com/dgallion1/weeklyreport/internal/collect"
	"github.com/dgallion1/weeklyreport/internal/config"
	"github.com/dgallion1/weeklyreport/internal/docbuild"
	"github.com/dgallion1/weeklyreport/internal/gdocs"
	"github.com/dgallion1/weeklyreport/internal/generate"
	"github.com/dgallion1/weeklyreport/internal/notify"
	"github.com/dgallion1/weeklyreport/internal/pipeline"
	"github.com/dgallion1/weeklyreport/internal/state"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weeklyreport",
		Short: "Weekly product team report automation",
		Long: `weeklyreport collects Jira and Google Sheets activity, generates a
narrative with OpenAI, builds a formatted Google Doc for review, and
distributes the finished report as a PDF.

All configuration comes from environment variables (JIRA_*, GOOGLE_*,
OPENAI_API_KEY, SENDGRID_API_KEY, ...).`,
		SilenceUsage: true,
	}

	cmd.AddCommand(previewCmd(), finalCmd(), serveCmd(), statusCmd())

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("weeklyreport version %s\n", version)
		},
	})

	return cmd
}

func previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Build this week's draft report and announce it for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhase(cmd.Context(), func(ctx context.Context, d *deps) error {
				return d.runner.Preview(ctx)
			})
		},
	}
}

func finalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "final",
		Short: "Export the reviewed report as PDF and distribute it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhase(cmd.Context(), func(ctx context.Context, d *deps) error {
				return d.runner.Final(ctx)
			})
		},
	}
}

func statusCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print recent run history from the local state database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			store, err := state.Open(cfg.StatePath)
			if err != nil {
				return fmt.Errorf("open state db: %w", err)
			}
			defer store.Close()

			history, err := store.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(history)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to print")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ops HTTP server with manual trigger endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			d, err := buildDeps(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer d.close()

			srv := api.NewServer(d.runner, d.store, d.llmStats, log, d.cfg)
			httpServer := &http.Server{
				Addr:         ":" + d.cfg.Port,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 60 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown.
			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
				log.Info("shutting down...")

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			log.Info("starting weeklyreport", "port", d.cfg.Port, "environment", d.cfg.Environment)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
}

func runPhase(ctx context.Context, phase func(context.Context, *deps) error) error {
	log := newLogger()
	d, err := buildDeps(ctx, log)
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := context.WithTimeout(ctx, 15*time.Minute)
	defer cancel()
	return phase(ctx, d)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// deps is the fully wired pipeline plus everything that needs closing.
type deps struct {
	cfg      config.Config
	runner   *pipeline.Runner
	store    *state.Store
	llmStats *generate.LLMStats

	closers []func()
}

func (d *deps) close() {
	for _, fn := range d.closers {
		fn()
	}
}

func buildDeps(ctx context.Context, log *slog.Logger) (*deps, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := state.Open(cfg.StatePath)
	if err != nil {
		// History tracking is optional; the run itself still works.
		log.Warn("state db unavailable, history disabled", "path", cfg.StatePath, "error", err)
		store = nil
	}
	if n, err := store.CleanupOlderThan(ctx, time.Now().Add(-cfg.HistoryRetention)); err != nil {
		log.Warn("history cleanup failed", "error", err)
	} else if n > 0 {
		log.Info("pruned old executions", "rows", n)
	}

	googleHTTP := gdocs.NewHTTPClient(ctx, gdocs.OAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RefreshToken: cfg.GoogleRefreshToken,
	})
	docs := gdocs.NewClient(googleHTTP, "")
	drive := gdocs.NewDriveClient(googleHTTP, "")

	jira := collect.NewJiraClient(cfg.JiraBaseURL, cfg.JiraEmail, cfg.JiraAPIToken)
	sheets := collect.NewSheetsClient(googleHTTP, "")
	collector := collect.NewCollector(jira, sheets, cfg.JiraBoards, cfg.SheetIDs, log)

	openai := generate.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	generator := generate.NewGenerator(openai, log)

	sendgrid := notify.NewSendGridClient(cfg.SendGridAPIKey)
	notifier := notify.NewNotifier(sendgrid, cfg.FromEmail, cfg.FromName,
		cfg.PreviewRecipients, cfg.FinalRecipients, log)

	builder := docbuild.NewBuilder(docs, drive, cfg.DriveFolderID, log)
	resolver := docbuild.NewLocator(drive, log)

	runner := pipeline.NewRunner(collector, generator, builder, resolver, drive,
		notifier, store, cfg.DriveFolderID, log)

	return &deps{
		cfg:      cfg,
		runner:   runner,
		store:    store,
		llmStats: openai.Stats,
		closers: []func(){
			func() { store.Close() },
			docs.Close, drive.Close, jira.Close, sheets.Close,
			openai.Close, sendgrid.Close,
		},
	}, nil
}
