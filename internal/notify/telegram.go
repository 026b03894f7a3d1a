// Package notify delivers the finished report summary to a Telegram chat.
// Delivery is optional and strictly after the run completes.
package notify

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/discord-day-summarizer/internal/models"
	"github.com/discord-day-summarizer/internal/report"
)

// maxMessageLength keeps the delivery under Telegram's 4096 character cap,
// leaving room for the header.
const maxMessageLength = 3500

// TelegramNotifier sends report summaries to a single chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegram creates a notifier for the given bot token and chat.
func NewTelegram(token string, chatID int64, logger zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		logger: logger.With().Str("component", "notify").Logger(),
	}, nil
}

// SendReport delivers the executive summary of a finished run.
func (n *TelegramNotifier) SendReport(result models.RunResult) error {
	text := fmt.Sprintf("%s\n\n%s", report.Title(result.Window, time.Now().UTC()), result.AggregateSummary)

	if runes := []rune(text); len(runes) > maxMessageLength {
		text = string(runes[:maxMessageLength]) + "\n\n...[truncated]"
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Int64("chat_id", n.chatID).Msg("Failed to deliver report")
		return fmt.Errorf("failed to send report: %w", err)
	}

	n.logger.Info().Int64("chat_id", n.chatID).Msg("Report delivered")
	return nil
}
