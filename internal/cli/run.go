package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/discord-day-summarizer/internal/collector"
	"github.com/discord-day-summarizer/internal/config"
	"github.com/discord-day-summarizer/internal/dates"
	"github.com/discord-day-summarizer/internal/discord"
	"github.com/discord-day-summarizer/internal/events"
	"github.com/discord-day-summarizer/internal/llm"
	"github.com/discord-day-summarizer/internal/models"
	"github.com/discord-day-summarizer/internal/notify"
	"github.com/discord-day-summarizer/internal/report"
	"github.com/discord-day-summarizer/internal/scheduler"
	"github.com/discord-day-summarizer/internal/storage"
	"github.com/discord-day-summarizer/internal/summary"
)

var (
	startDate   string
	endDate     string
	maxMessages int
	outputDir   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch messages for a date range and generate the report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if maxMessages > 0 {
			cfg.MaxMessagesPerChannel = maxMessages
		}
		if outputDir != "" {
			cfg.OutputDir = outputDir
		}

		logger := setupLogger(cfg.LogLevel, cfg.Environment)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runOnce(ctx, cfg, logger)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run reports on the configured cron schedule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.ScheduleCron == "" {
			return fmt.Errorf("SCHEDULE_CRON is not set")
		}

		logger := setupLogger(cfg.LogLevel, cfg.Environment)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sched := scheduler.New(cfg.ScheduleCron, func(runCtx context.Context) error {
			return runOnce(runCtx, cfg, logger)
		}, logger)
		return sched.Start(ctx)
	},
}

func init() {
	runCmd.Flags().StringVarP(&startDate, "start-date", "s", "", "start date (YYYY-MM-DD, today, yesterday, or 'N days ago')")
	runCmd.Flags().StringVarP(&endDate, "end-date", "e", "", "end date (same formats as --start-date)")
	runCmd.Flags().IntVar(&maxMessages, "max-messages", 0, "per-channel message limit (overrides MAX_MESSAGES_PER_CHANNEL)")
	runCmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for report files (overrides OUTPUT_DIR)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
}

// runOnce performs a single fetch-summarize-report cycle.
func runOnce(ctx context.Context, cfg *models.Config, logger zerolog.Logger) error {
	window, err := dates.Resolve(startDate, endDate, time.Now())
	if err != nil {
		return err
	}
	logger.Info().
		Str("window", window.String()).
		Str("guild_id", cfg.GuildID).
		Msg("Starting report run")

	sink := events.Console(logger)

	client := discord.NewClient(cfg.DiscordToken, logger)
	coll := collector.New(client, cfg.MaxMessagesPerChannel, cfg.FetchWorkers, sink, logger)
	collected, err := coll.Run(ctx, cfg.GuildID, window)
	if err != nil {
		return err
	}
	for name, skipErr := range collected.Skipped {
		logger.Warn().Str("channel", name).Err(skipErr).Msg("Channel skipped")
	}

	gen, err := newGenerator(cfg, logger)
	if err != nil {
		return err
	}
	if closer, ok := gen.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	pipeline := summary.New(gen, cfg.SummaryWorkers, sink, logger)
	result := pipeline.Summarize(ctx, window, collected.ServerName, collected.Channels, collected.Messages)

	mdPath, htmlPath, err := report.Write(cfg.OutputDir, result, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info().
		Str("markdown", mdPath).
		Str("html", htmlPath).
		Int("channels", len(result.Digests)).
		Int("messages", result.TotalMessages()).
		Msg("Report written")
	fmt.Printf("\n%s\n\n%s\n", report.Title(window, time.Now()), preview(result.AggregateSummary, 500))

	if cfg.ArchiveEnabled() {
		if err := archiveReport(ctx, cfg, mdPath, result, logger); err != nil {
			logger.Error().Err(err).Msg("Failed to archive report")
		}
	}
	if cfg.NotifyEnabled() {
		if err := sendReport(cfg, result, logger); err != nil {
			logger.Error().Err(err).Msg("Failed to send report notification")
		}
	}
	return nil
}

func newGenerator(cfg *models.Config, logger zerolog.Logger) (llm.Generator, error) {
	opts := llm.Options{
		Temperature: cfg.LLMTemperature,
		TopP:        cfg.LLMTopP,
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     time.Duration(cfg.LLMTimeout) * time.Second,
	}
	switch cfg.LLMBackend {
	case config.BackendGemini:
		return llm.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, opts, logger), nil
	case config.BackendOllama:
		return llm.NewOllama(cfg.OllamaURL, cfg.OllamaModel, opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown LLM backend: %s", cfg.LLMBackend)
	}
}

func archiveReport(ctx context.Context, cfg *models.Config, mdPath string, result models.RunResult, logger zerolog.Logger) error {
	markdown, err := os.ReadFile(mdPath)
	if err != nil {
		return fmt.Errorf("failed to read report file: %w", err)
	}
	store, err := storage.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseTimeout, logger)
	if err != nil {
		return err
	}
	return store.SaveReport(ctx, storage.NewReportRecord(cfg.GuildID, string(markdown), result))
}

func sendReport(cfg *models.Config, result models.RunResult, logger zerolog.Logger) error {
	notifier, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, logger)
	if err != nil {
		return err
	}
	return notifier.SendReport(result)
}

func preview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
