package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scholarqa/internal/config"
	"github.com/kailas-cloud/scholarqa/internal/domain/answer"
	"github.com/kailas-cloud/scholarqa/internal/domain/query"
	"github.com/kailas-cloud/scholarqa/internal/export"
	logpkg "github.com/kailas-cloud/scholarqa/internal/logger"
	"github.com/kailas-cloud/scholarqa/internal/metrics"
	"github.com/kailas-cloud/scholarqa/internal/retry"
	anthropicCompleter "github.com/kailas-cloud/scholarqa/internal/transport/anthropic"
	chiTransport "github.com/kailas-cloud/scholarqa/internal/transport/chi"
	"github.com/kailas-cloud/scholarqa/internal/transport/llamacloud"
	openaiCompleter "github.com/kailas-cloud/scholarqa/internal/transport/openai"
	askuc "github.com/kailas-cloud/scholarqa/internal/usecase/ask"
	healthuc "github.com/kailas-cloud/scholarqa/internal/usecase/health"
	"github.com/kailas-cloud/scholarqa/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scholarqa",
		Short: "Question answering over an academic paper index",
		Long: `ScholarQA answers research questions by retrieving relevant passages
from a managed document index and grounding an LLM completion in them.
Every answer cites the source passages it was built from.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(versionCmd(), serveCmd(), askCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("scholarqa %s (%s, %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

// loadConfig loads .env (if present) and the environment's YAML config.
func loadConfig() (config.Config, string, error) {
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, env, err
	}
	return cfg, env, nil
}

// buildPipeline wires the retrieval client, the configured completion
// provider, and the pipeline service. Composition root.
func buildPipeline(cfg config.Config, logger *zap.Logger) (*askuc.Service, *healthuc.Service, error) {
	retriever := llamacloud.NewRetriever(&llamacloud.Config{
		BaseURL:        cfg.Retrieval.BaseURL,
		APIKey:         cfg.Retrieval.APIKey,
		IndexName:      cfg.Retrieval.IndexName,
		ProjectName:    cfg.Retrieval.ProjectName,
		OrganizationID: cfg.Retrieval.OrganizationID,
		Timeout:        time.Duration(cfg.Pipeline.RequestTimeoutSec) * time.Second,
		Logger:         logger,
	})

	provCfg := cfg.Completion.Providers[cfg.Completion.Provider]

	var completer interface {
		askuc.Completer
		healthuc.CompletionChecker
	}
	switch cfg.Completion.Provider {
	case "anthropic":
		completer = anthropicCompleter.NewCompleter(&anthropicCompleter.Config{
			APIKey:  provCfg.APIKey,
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			Logger:  logger,
		})
	case "openai":
		completer = openaiCompleter.NewCompleter(&openaiCompleter.Config{
			APIKey:  provCfg.APIKey,
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			Logger:  logger,
		})
	default:
		return nil, nil, fmt.Errorf("unknown completion provider %q", cfg.Completion.Provider)
	}

	askSvc := askuc.New(retriever, completer, askuc.Config{
		Limits: query.Limits{
			MinLength: cfg.Query.MinLength,
			MaxLength: cfg.Query.MaxLength,
		},
		DefaultTopK:    cfg.Retrieval.DefaultTopK,
		MinScore:       cfg.Retrieval.MinScore,
		Temperature:    cfg.Completion.Temperature,
		MaxTokens:      cfg.Completion.MaxTokens,
		MetadataFields: cfg.Metadata.Fields,
		Retry: retry.NewPolicy(
			cfg.Retry.MaxAttempts,
			time.Duration(cfg.Retry.BaseDelayMS)*time.Millisecond,
		),
	}, logger)

	healthSvc := healthuc.New(retriever, completer)
	return askSvc, healthSvc, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, env, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			logger.Info("Starting scholarqa API server",
				zap.String("version", version.Version),
				zap.String("commit", version.Commit),
				zap.String("env", env),
				zap.Int("http_port", cfg.HTTP.Port),
				zap.String("index", cfg.Retrieval.IndexName),
				zap.String("completion_provider", cfg.Completion.Provider),
			)

			metrics.RegisterPipelineMetrics()

			askSvc, healthSvc, err := buildPipeline(cfg, logger)
			if err != nil {
				return err
			}
			server := chiTransport.NewServer(askSvc, healthSvc, logger)

			r := chi.NewRouter()
			r.Use(jsonRecoverer(logger))
			r.Use(chiMiddleware.RequestID)
			r.Use(wideEventMiddleware(logger))
			r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
			r.Use(metrics.Middleware())
			r.Use(chiMiddleware.Timeout(time.Duration(cfg.Pipeline.RequestTimeoutSec) * time.Second))
			server.Register(r)

			addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
			srv := &http.Server{
				Addr:         addr,
				Handler:      r,
				ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
				WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
			}

			// Graceful shutdown
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

			go func() {
				logger.Info("Starting HTTP server", zap.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("HTTP server error", zap.Error(err))
				}
			}()

			<-quit
			logger.Info("Received shutdown signal")

			shutdownCtx, cancel := context.WithTimeout(
				context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Error during shutdown", zap.Error(err))
			}

			logger.Info("Server stopped gracefully")
			return nil
		},
	}
}

func askCmd() *cobra.Command {
	var (
		topK        int
		temperature float64
		exportPath  string
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a single question and print the cited sources",
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Println("Example queries:")
				for _, q := range askuc.ExampleQueries() {
					fmt.Printf("  - %s\n", q)
				}
				return nil
			}
			question := strings.Join(args, " ")

			cfg, env, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			metrics.RegisterPipelineMetrics()

			askSvc, _, err := buildPipeline(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(
				context.Background(), time.Duration(cfg.Pipeline.RequestTimeoutSec)*time.Second)
			defer cancel()

			outcome, err := askSvc.Ask(ctx, question, askuc.Params{
				TopK:        topK,
				Temperature: temperature,
			})
			if err != nil {
				return err
			}

			printOutcome(outcome)

			if exportPath != "" {
				data, err := export.Marshal(export.FromOutcome(outcome))
				if err != nil {
					return fmt.Errorf("serialize export: %w", err)
				}
				if err := os.WriteFile(exportPath, data, 0o600); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Printf("\nSaved to %s\n", exportPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 0, "number of passages to retrieve (default from config)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "completion temperature (default from config)")
	cmd.Flags().StringVar(&exportPath, "export", "", "write the answer and sources to a JSON file")
	return cmd
}

const sourcePreviewChars = 200

func printOutcome(o answer.Outcome) {
	if o.NoResults() {
		fmt.Println("No relevant passages found. Try rephrasing the question.")
		return
	}

	fmt.Println(o.Text())

	fmt.Printf("\nSources (%d):\n", len(o.Sources()))
	for _, src := range o.Sources() {
		fmt.Printf("\n[%d] relevance %.2f\n", src.Rank(), src.Score())
		for k, v := range src.Metadata() {
			fmt.Printf("    %s: %s\n", displayLabel(k), v)
		}
		fmt.Printf("    %s\n", preview(src.Text()))
	}

	stats := o.Stats()
	fmt.Printf("\n%d sources, avg relevance %.2f, %d context chars, %.1fs\n",
		stats.SourceCount, stats.AvgRelevance, stats.ContextChars, stats.ProcessingSeconds)
}

// displayLabel turns a metadata key like "file_name" into "File Name".
func displayLabel(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// preview flattens and shortens a passage for terminal display, never
// splitting a rune.
func preview(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= sourcePreviewChars {
		return s
	}
	return string([]rune(s)[:sourcePreviewChars]) + "..."
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
