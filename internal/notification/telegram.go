package notification

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	internalerrors "github.com/olegiv/logvalidator-go/internal/errors"
	"github.com/olegiv/logvalidator-go/internal/report"
	"github.com/olegiv/logvalidator-go/internal/validator"
)

const (
	maxMessageLength = 4096
	// minMessageInterval is the minimum time between messages to the same channel
	minMessageInterval = 1 * time.Second
	// maxRetries is the maximum number of retry attempts for sending messages
	maxRetries = 3
	// baseRetryDelay is the initial delay between retries (doubles each attempt)
	baseRetryDelay = 2 * time.Second
	// maxListedFiles caps the invalid files listed in one report
	maxListedFiles = 50
)

// sender is the part of tgbotapi.BotAPI used to deliver messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramClient posts batch validation reports to a Telegram channel
type TelegramClient struct {
	bot             sender
	botName         string
	reportChannel   int64
	hostname        string
	lastMessageTime time.Time
}

// NewTelegramClient creates a new Telegram client
func NewTelegramClient(botToken string, reportChannel int64) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		// The library echoes the request URL, which embeds the token.
		return nil, internalerrors.Wrapf(err, "failed to create Telegram bot")
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &TelegramClient{
		bot:           bot,
		botName:       bot.Self.UserName,
		reportChannel: reportChannel,
		hostname:      hostname,
	}, nil
}

// SendBatchReport sends the summary of a validation run to the report channel
func (t *TelegramClient) SendBatchReport(inputs []string, results []*validator.Result) error {
	message := t.formatMessage(inputs, results)

	if err := t.sendToChannel(t.reportChannel, message); err != nil {
		return fmt.Errorf("failed to send to report channel: %w", err)
	}
	return nil
}

// formatMessage formats a validation run into a Telegram message
func (t *TelegramClient) formatMessage(inputs []string, results []*validator.Result) string {
	totals := report.Tally(results)

	var msg strings.Builder

	status := "✅"
	if totals.Invalid > 0 {
		status = "🔴"
	}

	// Header
	msg.WriteString(fmt.Sprintf("%s *Log Validation Report*\n", status))
	msg.WriteString(fmt.Sprintf("🖥 Host\\: %s\n", escapeMarkdown(t.hostname)))
	msg.WriteString(fmt.Sprintf("📅 Date\\: %s\n", escapeMarkdown(time.Now().Format("2006-01-02 15:04:05"))))
	msg.WriteString(fmt.Sprintf("📂 Input\\: %s\n\n", escapeMarkdown(strings.Join(inputs, ", "))))

	// Totals
	msg.WriteString("📋 *Totals*\n")
	msg.WriteString(fmt.Sprintf("• Files\\: %d\n", totals.Files))
	msg.WriteString(fmt.Sprintf("• Valid\\: %d\n", totals.Valid))
	msg.WriteString(fmt.Sprintf("• Invalid\\: %d\n", totals.Invalid))
	if totals.Skipped > 0 {
		msg.WriteString(fmt.Sprintf("• Not evaluated\\: %d\n", totals.Skipped))
	}
	msg.WriteString("\n")

	// Content errors
	if len(totals.ContentErrors) > 0 {
		msg.WriteString("⚡ *Content Errors*\n")
		for _, kind := range []string{validator.ContentErrEmpty, validator.ContentErrTruncated, validator.ContentErrInvalid} {
			if n := totals.ContentErrors[kind]; n > 0 {
				msg.WriteString(fmt.Sprintf("• %s\\: %d\n", escapeMarkdown(kind), n))
			}
		}
		msg.WriteString("\n")
	}

	// Invalid files
	if totals.Invalid > 0 {
		msg.WriteString(fmt.Sprintf("🔴 *Invalid Files* \\(%d\\)\n", totals.Invalid))
		listed := 0
		for _, res := range results {
			if res.IsValid == nil || res.IsValid.All {
				continue
			}
			if listed == maxListedFiles {
				msg.WriteString(escapeMarkdown(fmt.Sprintf("... and %d more", totals.Invalid-listed)))
				msg.WriteString("\n")
				break
			}
			listed++
			msg.WriteString(fmt.Sprintf("%d\\. %s \\- %s\n", listed,
				escapeMarkdown(filepath.Base(res.File)), escapeMarkdown(invalidReason(res))))
		}
	}

	return msg.String()
}

// invalidReason describes why a result failed
func invalidReason(res *validator.Result) string {
	if res.Content != nil && res.Content.Error != "" {
		return res.Content.Error
	}

	var reasons []string
	if !res.IsValid.IPs {
		reasons = append(reasons, "too few remote addresses")
	}
	if !res.IsValid.Dates {
		reasons = append(reasons, "content date does not match file name")
	}
	return strings.Join(reasons, "; ")
}

// sendToChannel sends a message to a Telegram channel with rate limiting
func (t *TelegramClient) sendToChannel(channelID int64, message string) error {
	// Split message if it exceeds Telegram's limit
	messages := t.splitMessage(message)

	for _, msg := range messages {
		t.waitForRateLimit()

		msgConfig := tgbotapi.NewMessage(channelID, msg)
		msgConfig.ParseMode = "MarkdownV2"

		// Send with exponential backoff retry
		if err := t.sendWithRetry(msgConfig); err != nil {
			return err
		}

		t.lastMessageTime = time.Now()
	}

	return nil
}

// waitForRateLimit ensures minimum interval between messages
func (t *TelegramClient) waitForRateLimit() {
	if t.lastMessageTime.IsZero() {
		return
	}

	elapsed := time.Since(t.lastMessageTime)
	if elapsed < minMessageInterval {
		time.Sleep(minMessageInterval - elapsed)
	}
}

// sendWithRetry sends a message with exponential backoff retry
func (t *TelegramClient) sendWithRetry(msgConfig tgbotapi.MessageConfig) error {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		_, err := t.bot.Send(msgConfig)
		if err == nil {
			return nil
		}

		lastErr = err

		// Check if this is a rate limit error (429)
		if isRateLimitError(err) {
			retryAfter := extractRetryAfter(err)
			if retryAfter > 0 {
				time.Sleep(time.Duration(retryAfter) * time.Second)
				continue
			}
		}

		// Exponential backoff for other errors
		if attempt < maxRetries {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1)) // 2s, 4s, 8s...
			time.Sleep(delay)
		}
	}

	return internalerrors.Wrapf(lastErr, "failed to send message after %d retries", maxRetries)
}

// isRateLimitError checks if the error is a Telegram rate limit error (429)
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") || strings.Contains(errStr, "Too Many Requests")
}

// extractRetryAfter extracts the retry_after value from a rate limit error
func extractRetryAfter(err error) int {
	if err == nil {
		return 0
	}

	// Example: "Too Many Requests: retry after 30"
	errStr := err.Error()

	if idx := strings.Index(strings.ToLower(errStr), "retry after "); idx != -1 {
		remaining := errStr[idx+len("retry after "):]
		var seconds int
		if _, err := fmt.Sscanf(remaining, "%d", &seconds); err == nil {
			return seconds
		}
	}

	// Conservative default when the value is missing
	return 30
}

// splitMessage splits a long message into multiple messages
func (t *TelegramClient) splitMessage(message string) []string {
	if len(message) <= maxMessageLength {
		return []string{message}
	}

	var messages []string
	lines := strings.Split(message, "\n")
	var currentMsg strings.Builder

	for _, line := range lines {
		if currentMsg.Len()+len(line)+1 > maxMessageLength {
			if currentMsg.Len() > 0 {
				messages = append(messages, currentMsg.String())
				currentMsg.Reset()
			}

			// If a single line is too long, split it
			if len(line) > maxMessageLength {
				for i := 0; i < len(line); i += maxMessageLength {
					end := i + maxMessageLength
					if end > len(line) {
						end = len(line)
					}
					messages = append(messages, line[i:end])
				}
				continue
			}
		}

		currentMsg.WriteString(line)
		currentMsg.WriteString("\n")
	}

	if currentMsg.Len() > 0 {
		messages = append(messages, currentMsg.String())
	}

	return messages
}

// escapeMarkdown escapes special characters for Telegram MarkdownV2
func escapeMarkdown(text string) string {
	// See: https://core.telegram.org/bots/api#markdownv2-style
	specialChars := []string{
		"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!", ":",
	}

	result := text
	for _, char := range specialChars {
		result = strings.ReplaceAll(result, char, "\\"+char)
	}

	return result
}

// GetBotInfo returns information about the bot
func (t *TelegramClient) GetBotInfo() map[string]interface{} {
	return map[string]interface{}{
		"username":       t.botName,
		"report_channel": t.reportChannel,
		"hostname":       t.hostname,
	}
}

// Close releases the Telegram client
func (t *TelegramClient) Close() error {
	if bot, ok := t.bot.(*tgbotapi.BotAPI); ok {
		bot.StopReceivingUpdates()
	}
	return nil
}
