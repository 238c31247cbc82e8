package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	dashboardadapter "agentlens/internal/adapter/driven/dashboard"
	githubadapter "agentlens/internal/adapter/driven/github"
	sqliteadapter "agentlens/internal/adapter/driven/sqlite"
	httphandler "agentlens/internal/adapter/driving/http"
	"agentlens/internal/application"
	"agentlens/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agentlens",
		Short:         "Track autonomous agent runs and rank their pull requests for review",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newEnrichCmd())
	root.AddCommand(newReviewCmd())
	root.AddCommand(newSessionCmd())

	return root
}

// app bundles the wired adapters and services behind every subcommand.
type app struct {
	cfg     *config.Config
	db      *sqliteadapter.DB
	extract *application.ExtractService // nil when no source is configured
	enrich  *application.EnrichService
	review  *application.ReviewService
}

// buildApp loads configuration and wires the full dependency graph.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if err := sqliteadapter.InitSchema(ctx, db, cfg.SchemaPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	runStore := sqliteadapter.NewRunRepo(db)
	prStore := sqliteadapter.NewPRRepo(db)

	enrichSvc := application.NewEnrichService(githubadapter.NewClient(cfg.GitHubToken), prStore)
	if !cfg.HasGitHubToken() {
		slog.Info("no github token configured, enrichment runs against the public rate limit")
	}

	var extractSvc *application.ExtractService
	if cfg.HasSource() {
		session, err := dashboardadapter.LoadSession(cfg.SessionFile)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		source := dashboardadapter.NewClient(cfg.SourceURL, session)
		extractSvc = application.NewExtractService(source, runStore)
	} else {
		slog.Info("no source url configured, extraction disabled")
	}

	return &app{
		cfg:     cfg,
		db:      db,
		extract: extractSvc,
		enrich:  enrichSvc,
		review:  application.NewReviewService(runStore, prStore, enrichSvc),
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server with scheduled extraction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			slog.Info("database opened", "path", a.cfg.DBPath)

			// Scheduled extraction only runs when a source is configured.
			scheduler := cron.New()
			if a.extract != nil {
				_, err := scheduler.AddFunc(a.cfg.ExtractSchedule, func() {
					if _, err := a.extract.RunPass(ctx); err != nil {
						slog.Error("scheduled extraction failed", "error", err)
					}
				})
				if err != nil {
					return fmt.Errorf("register extraction schedule: %w", err)
				}
				scheduler.Start()
				slog.Info("extraction scheduled", "schedule", a.cfg.ExtractSchedule)
			}

			handler := httphandler.NewServeMux(httphandler.NewHandler(a.review, slog.Default()), slog.Default())
			srv := &http.Server{
				Addr:              a.cfg.ListenAddr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			go func() {
				slog.Info("http server starting", "addr", a.cfg.ListenAddr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("http server error", "error", err)
				}
			}()

			<-ctx.Done()
			slog.Info("shutting down")

			<-scheduler.Stop().Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("http server shutdown error", "error", err)
			}

			slog.Info("shutdown complete")
			return nil
		},
	}
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Run a single extraction pass against the configured source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if a.extract == nil {
				return errors.New("AGENTLENS_SOURCE_URL is not set")
			}

			stats, err := a.extract.RunPass(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "pass %s: extracted %d, skipped %d\n",
				stats.PassID, stats.Extracted, stats.Skipped)
			return nil
		},
	}
}

func newEnrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich <pr-url>",
		Short: "Fetch and store pull request details for a single PR URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			pr, err := a.enrich.Enrich(ctx, args[0])
			if err != nil {
				return err
			}
			if pr == nil {
				return fmt.Errorf("no pull request data for %q", args[0])
			}

			return printJSON(cmd, pr)
		},
	}
}

func newReviewCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Print the ranked review of recent pull requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.review.ReviewTopPRs(ctx, limit)
			if err != nil {
				return err
			}

			return printJSON(cmd, report)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of pull requests to rank")

	return cmd
}

func newSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Store the dashboard session credential read from stdin",
		Long: "Reads the opaque session credential produced by the dashboard login flow " +
			"from stdin and writes it atomically to AGENTLENS_SESSION_FILE.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.SessionFile == "" {
				return errors.New("AGENTLENS_SESSION_FILE is not set")
			}

			blob, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read session from stdin: %w", err)
			}
			if len(blob) == 0 {
				return errors.New("empty session credential on stdin")
			}

			if err := dashboardadapter.SaveSession(cfg.SessionFile, string(blob)); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "session stored in %s\n", cfg.SessionFile)
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
