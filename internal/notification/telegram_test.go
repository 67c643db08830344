package notification

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/olegiv/logvalidator-go/internal/validator"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	errs []error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func testResults() []*validator.Result {
	return []*validator.Result{
		{File: "/data/2024-05-15_scielo.cl.log.gz", IsValid: &validator.Verdict{IPs: true, Dates: true, All: true}},
		{
			File:    "/data/2024-05-16_scielo.cl.log.gz",
			Content: &validator.ContentResult{Error: validator.ContentErrTruncated},
			IsValid: &validator.Verdict{},
		},
		{File: "/data/2024-05-17_scielo.ar.log.gz", IsValid: &validator.Verdict{IPs: true}},
	}
}

func TestFormatMessage(t *testing.T) {
	client := &TelegramClient{hostname: "mirror-01"}

	message := client.formatMessage([]string{"/data"}, testResults())

	for _, want := range []string{
		"*Log Validation Report*",
		"Host\\: mirror\\-01",
		"Files\\: 3",
		"Valid\\: 1",
		"Invalid\\: 2",
		"File is truncated\\: 1",
		"2024\\-05\\-16\\_scielo\\.cl\\.log\\.gz \\- File is truncated",
		"content date does not match file name",
	} {
		if !strings.Contains(message, want) {
			t.Errorf("message missing %q:\n%s", want, message)
		}
	}

	if !containsEscaped(message, ":") {
		t.Error("Colons should be escaped with \\:")
	}
}

func TestFormatMessage_CapsListedFiles(t *testing.T) {
	client := &TelegramClient{hostname: "h"}

	var results []*validator.Result
	for i := 0; i < maxListedFiles+5; i++ {
		results = append(results, &validator.Result{
			File:    fmt.Sprintf("/data/f%03d.log", i),
			IsValid: &validator.Verdict{},
		})
	}

	message := client.formatMessage([]string{"/data"}, results)
	if !strings.Contains(message, "and 5 more") {
		t.Errorf("expected overflow marker:\n%s", message)
	}
}

func TestSendBatchReport(t *testing.T) {
	fake := &fakeSender{}
	client := &TelegramClient{bot: fake, reportChannel: -100123, hostname: "h"}

	if err := client.SendBatchReport([]string{"/data"}, testResults()); err != nil {
		t.Fatalf("SendBatchReport() error = %v", err)
	}

	if len(fake.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.sent))
	}
	if fake.sent[0].ChatID != -100123 {
		t.Errorf("expected chat -100123, got %d", fake.sent[0].ChatID)
	}
	if fake.sent[0].ParseMode != "MarkdownV2" {
		t.Errorf("expected MarkdownV2, got %q", fake.sent[0].ParseMode)
	}
}

func TestSendWithRetry_RateLimited(t *testing.T) {
	fake := &fakeSender{errs: []error{errors.New("Too Many Requests: retry after 0")}}
	client := &TelegramClient{bot: fake, hostname: "h"}

	// A zero retry_after falls back to exponential backoff.
	if err := client.sendWithRetry(tgbotapi.NewMessage(1, "x")); err != nil {
		t.Fatalf("sendWithRetry() error = %v", err)
	}
	if len(fake.sent) != 1 {
		t.Errorf("expected a successful resend, got %d messages", len(fake.sent))
	}
}

func TestSplitMessage(t *testing.T) {
	client := &TelegramClient{}

	short := "short message"
	if got := client.splitMessage(short); len(got) != 1 || got[0] != short {
		t.Errorf("short message should not be split: %v", got)
	}

	line := strings.Repeat("a", 100)
	long := strings.Repeat(line+"\n", 100)
	parts := client.splitMessage(long)
	if len(parts) < 2 {
		t.Fatalf("expected multiple parts, got %d", len(parts))
	}
	for i, p := range parts {
		if len(p) > maxMessageLength {
			t.Errorf("part %d exceeds limit: %d", i, len(p))
		}
	}

	huge := strings.Repeat("b", maxMessageLength*2+10)
	if parts := client.splitMessage(huge); len(parts) != 3 {
		t.Errorf("expected 3 parts for an oversized line, got %d", len(parts))
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "a.b", want: "a\\.b"},
		{in: "2024-05-15_scielo", want: "2024\\-05\\-15\\_scielo"},
		{in: `back\slash`, want: `back\\slash`},
	}

	for _, tt := range tests {
		if got := escapeMarkdown(tt.in); got != tt.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRateLimitHelpers(t *testing.T) {
	if isRateLimitError(nil) {
		t.Error("nil is not a rate limit error")
	}
	if !isRateLimitError(errors.New("Too Many Requests: retry after 7")) {
		t.Error("expected rate limit error")
	}
	if got := extractRetryAfter(errors.New("Too Many Requests: retry after 7")); got != 7 {
		t.Errorf("extractRetryAfter() = %d, want 7", got)
	}
	if got := extractRetryAfter(errors.New("429")); got != 30 {
		t.Errorf("extractRetryAfter() default = %d, want 30", got)
	}
}

func containsEscaped(s, char string) bool {
	escaped := "\\" + char
	return strings.Contains(s, escaped)
}
