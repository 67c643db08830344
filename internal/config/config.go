package config

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/olegiv/logvalidator-go/internal/grammar"
	"github.com/olegiv/logvalidator-go/internal/report"
	"github.com/olegiv/logvalidator-go/internal/sampler"
	"github.com/olegiv/logvalidator-go/internal/source"
	"github.com/olegiv/logvalidator-go/internal/validator"
)

// CLIOptions holds command-line argument overrides.
// Nil pointers and zero values mean "not given on the command line".
type CLIOptions struct {
	SampleSize          *float64 // -s: fraction of lines to sample
	BufferSize          *int     // -b: bytes read to detect the file type
	DaysDelta           *int     // -d: tolerated distance from the file-name date
	Workers             *int     // -w: files validated in parallel
	OutputFormat        string   // -o: text or json
	NoPathValidation    bool     // --no_path_validation
	NoContentValidation bool     // --no_content_validation
	Notify              bool     // --notify: post a summary to Telegram
}

// Config holds all application configuration
type Config struct {
	// Sampling and thresholds
	SampleSize       float64
	MinSampleLines   int
	MinRemotePercent float64
	DaysDelta        int
	BufferSize       int

	// Line handling
	CountUnmatchedAsUnknown bool
	Grammars                []string // empty means the built-in precedence
	Timezone                string   // empty means the local zone

	// Validation switches
	ApplyPathValidation    bool
	ApplyContentValidation bool

	// Execution
	Workers      int
	OutputFormat string

	// Application
	LogLevel string
	LogDir   string

	// Telegram
	TelegramBotToken      string
	TelegramReportChannel int64
	Notify                bool

	location *time.Location
}

var telegramTokenRegex = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// Load loads configuration from .env file and environment variables
// Priority: .env file > OS environment variables
// For CLI overrides, use LoadWithCLI instead
func Load() (*Config, error) {
	return LoadWithCLI(nil)
}

// LoadWithCLI loads configuration with CLI argument overrides
// Priority: CLI args > .env file > OS environment variables
func LoadWithCLI(cli *CLIOptions) (*Config, error) {
	// Set up viper first to read OS environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// godotenv.Load() sets OS env vars from .env, which viper will then read
	_ = godotenv.Load()

	setDefaults()

	config := &Config{
		SampleSize:       viper.GetFloat64("SAMPLE_SIZE"),
		MinSampleLines:   viper.GetInt("MIN_NUMBER_OF_SAMPLE_LINES"),
		MinRemotePercent: viper.GetFloat64("MIN_ACCEPTABLE_PERCENT_OF_REMOTE_IPS"),
		DaysDelta:        viper.GetInt("DAYS_DELTA"),
		BufferSize:       viper.GetInt("BUFFER_SIZE"),

		CountUnmatchedAsUnknown: viper.GetBool("COUNT_UNMATCHED_AS_UNKNOWN"),
		Grammars:                splitList(viper.GetString("GRAMMARS")),
		Timezone:                viper.GetString("TIMEZONE"),

		ApplyPathValidation:    true,
		ApplyContentValidation: true,

		Workers:      viper.GetInt("WORKERS"),
		OutputFormat: viper.GetString("OUTPUT_FORMAT"),

		LogLevel: viper.GetString("LOG_LEVEL"),
		LogDir:   viper.GetString("LOG_DIR"),

		TelegramBotToken:      viper.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramReportChannel: viper.GetInt64("TELEGRAM_CHANNEL_REPORT_ID"),
	}

	// Apply CLI overrides (highest priority)
	if cli != nil {
		config.applyCLI(cli)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) applyCLI(cli *CLIOptions) {
	if cli.SampleSize != nil {
		c.SampleSize = *cli.SampleSize
	}
	if cli.BufferSize != nil {
		c.BufferSize = *cli.BufferSize
	}
	if cli.DaysDelta != nil {
		c.DaysDelta = *cli.DaysDelta
	}
	if cli.Workers != nil {
		c.Workers = *cli.Workers
	}
	if cli.OutputFormat != "" {
		c.OutputFormat = cli.OutputFormat
	}
	if cli.NoPathValidation {
		c.ApplyPathValidation = false
	}
	if cli.NoContentValidation {
		c.ApplyContentValidation = false
	}
	c.Notify = cli.Notify
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("SAMPLE_SIZE", validator.DefaultSampleFraction)
	viper.SetDefault("MIN_NUMBER_OF_SAMPLE_LINES", validator.DefaultMinSampleLines)
	viper.SetDefault("MIN_ACCEPTABLE_PERCENT_OF_REMOTE_IPS", validator.DefaultMinRemotePercent)
	viper.SetDefault("DAYS_DELTA", validator.DefaultDaysDelta)
	viper.SetDefault("BUFFER_SIZE", source.DefaultBufferSize)
	viper.SetDefault("COUNT_UNMATCHED_AS_UNKNOWN", true)
	viper.SetDefault("GRAMMARS", "")
	viper.SetDefault("TIMEZONE", "")
	viper.SetDefault("WORKERS", 4)
	viper.SetDefault("OUTPUT_FORMAT", report.FormatText)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_DIR", "./logs")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Out-of-range SAMPLE_SIZE and DAYS_DELTA fall back downstream.
	if math.IsNaN(c.SampleSize) {
		return fmt.Errorf("SAMPLE_SIZE must be a number")
	}
	if c.MinSampleLines < 0 {
		return fmt.Errorf("MIN_NUMBER_OF_SAMPLE_LINES cannot be negative")
	}
	if c.MinRemotePercent < 0 || c.MinRemotePercent > 100 {
		return fmt.Errorf("MIN_ACCEPTABLE_PERCENT_OF_REMOTE_IPS must be between 0 and 100")
	}
	if c.BufferSize < 16 || c.BufferSize > 1<<20 {
		return fmt.Errorf("BUFFER_SIZE must be between 16 and 1048576")
	}
	if c.Workers < 1 || c.Workers > 64 {
		return fmt.Errorf("WORKERS must be between 1 and 64")
	}

	if len(c.Grammars) > 0 {
		if _, err := grammar.NewBuiltinRegistry().Set(c.Grammars...); err != nil {
			return fmt.Errorf("GRAMMARS: %w", err)
		}
	}

	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE is not a known zone: %w", err)
	}
	c.location = loc

	if c.OutputFormat != report.FormatText && c.OutputFormat != report.FormatJSON {
		return fmt.Errorf("OUTPUT_FORMAT must be '%s' or '%s' (got: %s)", report.FormatText, report.FormatJSON, c.OutputFormat)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	return c.validateTelegram()
}

// validateTelegram checks the notifier settings. They are only required
// when a report was requested, but a token that is set must be well formed.
func (c *Config) validateTelegram() error {
	if c.Notify && c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when --notify is set")
	}
	if c.TelegramBotToken != "" && !telegramTokenRegex.MatchString(c.TelegramBotToken) {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN has invalid format (expected: 'number:token')")
	}

	if c.Notify && c.TelegramReportChannel == 0 {
		return fmt.Errorf("TELEGRAM_CHANNEL_REPORT_ID is required when --notify is set")
	}
	if c.TelegramReportChannel != 0 && c.TelegramReportChannel > -100 {
		return fmt.Errorf("TELEGRAM_CHANNEL_REPORT_ID must be a supergroup/channel ID (starts with -100)")
	}

	return nil
}

// Location returns the zone used to read timestamps without an offset.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// GrammarSet returns the configured grammar precedence.
func (c *Config) GrammarSet() (*grammar.Set, error) {
	if len(c.Grammars) == 0 {
		return grammar.Default(), nil
	}
	return grammar.NewBuiltinRegistry().Set(c.Grammars...)
}

// ValidatorOptions maps the configuration onto validator options.
func (c *Config) ValidatorOptions(log zerolog.Logger) (validator.Options, error) {
	grammars, err := c.GrammarSet()
	if err != nil {
		return validator.Options{}, err
	}

	opts := validator.DefaultOptions()
	opts.SampleFraction = c.SampleSize
	opts.MinSampleLines = c.MinSampleLines
	opts.DaysDelta = c.DaysDelta
	opts.MinRemotePercent = c.MinRemotePercent
	opts.BufferSize = c.BufferSize
	opts.ApplyPathValidation = c.ApplyPathValidation
	opts.ApplyContentValidation = c.ApplyContentValidation
	opts.CountUnmatchedAsUnknown = c.CountUnmatchedAsUnknown
	opts.Location = c.Location()
	opts.Grammars = grammars
	opts.Logger = log
	return opts, nil
}

// SampleSizeClamped reports whether SAMPLE_SIZE falls outside the accepted
// range and will be replaced by a full scan.
func (c *Config) SampleSizeClamped() bool {
	return sampler.ClampFraction(c.SampleSize) != c.SampleSize
}

// NotificationEnabled returns true if a Telegram report should be sent
func (c *Config) NotificationEnabled() bool {
	return c.Notify && c.TelegramBotToken != "" && c.TelegramReportChannel != 0
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
