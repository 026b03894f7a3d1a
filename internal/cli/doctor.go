package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/discord-day-summarizer/internal/config"
	"github.com/discord-day-summarizer/internal/discord"
	"github.com/discord-day-summarizer/internal/llm"
	"github.com/discord-day-summarizer/internal/storage"
)

var pullModel bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify configuration, Discord access, and the LLM backend",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		printCheck("configuration", err)
		if err != nil {
			return fmt.Errorf("cannot continue without valid configuration")
		}

		logger := setupLogger("error", cfg.Environment)
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		failed := false

		client := discord.NewClient(cfg.DiscordToken, logger)
		user, err := client.Me(ctx)
		printCheck("discord token", err)
		if err != nil {
			failed = true
		} else {
			fmt.Printf("    authenticated as %s\n", user.Username)
		}

		guild, err := client.Guild(ctx, cfg.GuildID)
		printCheck("guild access", err)
		if err != nil {
			failed = true
		} else {
			fmt.Printf("    server: %s\n", guild.Name)
		}

		switch cfg.LLMBackend {
		case config.BackendOllama:
			ollama := llm.NewOllama(cfg.OllamaURL, cfg.OllamaModel, llm.Options{Timeout: 10 * time.Second}, logger)
			version, err := ollama.Version(ctx)
			printCheck("ollama server", err)
			if err != nil {
				failed = true
				break
			}
			fmt.Printf("    version %s\n", version)
			found, err := ollama.HasModel(ctx)
			if err == nil && !found && pullModel {
				fmt.Printf("    pulling %s (this can take a while)...\n", cfg.OllamaModel)
				// The pull carries its own generous timeout.
				if err = ollama.Pull(cmd.Context()); err == nil {
					found = true
				}
			}
			if err == nil && !found {
				err = fmt.Errorf("model %q is not pulled (run: ollama pull %s, or doctor --pull)", cfg.OllamaModel, cfg.OllamaModel)
			}
			printCheck("ollama model", err)
			if err != nil {
				failed = true
			}
		case config.BackendGemini:
			var keyErr error
			if cfg.GeminiAPIKey == "" {
				keyErr = fmt.Errorf("GEMINI_API_KEY is empty")
			}
			printCheck("gemini api key", keyErr)
			if keyErr != nil {
				failed = true
			}
		}

		if cfg.ArchiveEnabled() {
			store, err := storage.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseTimeout, logger)
			if err == nil {
				err = store.Ping(ctx)
			}
			printCheck("report archive", err)
			if err != nil {
				failed = true
			}
		}

		if failed {
			return fmt.Errorf("one or more checks failed")
		}
		fmt.Println("\nAll checks passed")
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&pullModel, "pull", false, "pull the configured Ollama model if it is missing")
	rootCmd.AddCommand(doctorCmd)
}

func printCheck(name string, err error) {
	if err != nil {
		fmt.Printf("[FAIL] %s: %v\n", name, err)
		return
	}
	fmt.Printf("[ OK ] %s\n", name)
}
