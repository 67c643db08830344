package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olegiv/go-logger"
	"github.com/spf13/cobra"

	"github.com/olegiv/logvalidator-go/internal/batch"
	"github.com/olegiv/logvalidator-go/internal/config"
	"github.com/olegiv/logvalidator-go/internal/logging"
	"github.com/olegiv/logvalidator-go/internal/notification"
	"github.com/olegiv/logvalidator-go/internal/report"
	"github.com/olegiv/logvalidator-go/internal/source"
	"github.com/olegiv/logvalidator-go/internal/validator"
)

type validateFlags struct {
	paths               []string
	sampleSize          float64
	bufferSize          int
	daysDelta           int
	workers             int
	output              string
	noPathValidation    bool
	noContentValidation bool
	notify              bool
}

func newValidateCmd() *cobra.Command {
	f := &validateFlags{}

	cmd := &cobra.Command{
		Use:   "validate -p PATH [flags]",
		Short: "Validate a log file, a directory of logs or a glob pattern",
		Long: `Validate one or more access log files. PATH may be a file, a directory
(every regular file below it is checked) or a doublestar glob pattern.

Examples:
  log-validator validate -p /var/log/scielo/2024-05-15_scielo.cl.log.gz
  log-validator validate -p /var/log/scielo -s 0.2 -d 3
  log-validator validate -p "/var/log/scielo/**/*.log.gz" -o json
  log-validator validate -p /var/log/scielo --no_path_validation --notify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli := f.cliOptions(cmd)
			return runValidate(cmd.Context(), cmd.OutOrStdout(), f.paths, cli)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&f.paths, "path", "p", nil, "File, directory or glob pattern to be checked (repeatable)")
	flags.Float64VarP(&f.sampleSize, "sample_size", "s", validator.DefaultSampleFraction, "Fraction of lines to be checked; values outside [0.001, 1] check every line")
	flags.IntVarP(&f.bufferSize, "buffer_size", "b", source.DefaultBufferSize, "Bytes read for file type detection")
	flags.IntVarP(&f.daysDelta, "days_delta", "d", validator.DefaultDaysDelta, "Days tolerated between the file name date and the dates in the content")
	flags.IntVarP(&f.workers, "workers", "w", batch.DefaultWorkers, "Files validated in parallel")
	flags.StringVarP(&f.output, "output", "o", "", "Output format: text, json (default from OUTPUT_FORMAT)")
	flags.BoolVar(&f.noPathValidation, "no_path_validation", false, "Deactivate path validation")
	flags.BoolVar(&f.noContentValidation, "no_content_validation", false, "Deactivate content validation")
	flags.BoolVar(&f.notify, "notify", false, "Send a summary to the Telegram report channel")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}

// cliOptions keeps only the flags given on the command line, so unset
// flags fall back to the environment.
func (f *validateFlags) cliOptions(cmd *cobra.Command) *config.CLIOptions {
	cli := &config.CLIOptions{
		OutputFormat:        f.output,
		NoPathValidation:    f.noPathValidation,
		NoContentValidation: f.noContentValidation,
		Notify:              f.notify,
	}

	flags := cmd.Flags()
	if flags.Changed("sample_size") {
		cli.SampleSize = &f.sampleSize
	}
	if flags.Changed("buffer_size") {
		cli.BufferSize = &f.bufferSize
	}
	if flags.Changed("days_delta") {
		cli.DaysDelta = &f.daysDelta
	}
	if flags.Changed("workers") {
		cli.Workers = &f.workers
	}
	return cli
}

func runValidate(parent context.Context, out io.Writer, paths []string, cli *config.CLIOptions) error {
	if parent == nil {
		parent = context.Background()
	}

	// Load configuration with CLI overrides
	cfg, err := config.LoadWithCLI(cli)
	if err != nil {
		return &exitError{code: exitFailure, err: fmt.Errorf("configuration error: %w", err)}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Console output would interleave with JSON lines on stdout
	baseLog := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		LogDir:     cfg.LogDir,
		Filename:   "log-validator.log",
		MaxSizeMB:  10,
		MaxBackups: 5,
		Console:    cfg.OutputFormat == report.FormatText,
	})
	log := logging.NewSecure(baseLog)
	defer func() {
		if err := log.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close logger: %v\n", err)
		}
	}()

	if cfg.SampleSizeClamped() {
		log.Warn().Float64("sample_size", cfg.SampleSize).Msg("Sample size out of range, checking every line")
	}
	if cfg.DaysDelta < 0 {
		log.Warn().Int("days_delta", cfg.DaysDelta).Int("default", validator.DefaultDaysDelta).Msg("Negative days delta, using the default")
	}

	log.Info().
		Strs("inputs", paths).
		Float64("sample_size", cfg.SampleSize).
		Int("days_delta", cfg.DaysDelta).
		Int("workers", cfg.Workers).
		Bool("path_validation", cfg.ApplyPathValidation).
		Bool("content_validation", cfg.ApplyContentValidation).
		Msg("Starting log validation")

	results, err := validatePaths(ctx, out, cfg, log, paths)
	if err != nil {
		log.Error().Err(err).Msg("Validation failed")
		return err
	}

	if cfg.NotificationEnabled() {
		if err := notify(cfg, log, paths, results); err != nil {
			log.Error().Err(err).Msg("Failed to send Telegram report")
			return err
		}
	}

	return nil
}

func validatePaths(ctx context.Context, out io.Writer, cfg *config.Config, log *logging.SecureLogger, paths []string) ([]*validator.Result, error) {
	startTime := time.Now()

	opts, err := cfg.ValidatorOptions(log.Zerolog("validator"))
	if err != nil {
		return nil, fmt.Errorf("failed to build validator options: %w", err)
	}

	renderer, err := report.New(cfg.OutputFormat, out)
	if err != nil {
		return nil, err
	}

	pool := batch.NewPool(validator.New(opts), cfg.Workers, log.Zerolog("batch"))
	resultsCh, errc := pool.Run(ctx, paths)

	var results []*validator.Result
	var renderErr error
	for res := range resultsCh {
		results = append(results, res)
		if renderErr == nil {
			renderErr = renderer.Render(res)
		}
	}

	if err := <-errc; err != nil {
		return results, fmt.Errorf("failed to validate %v: %w", paths, err)
	}
	if renderErr != nil {
		return results, fmt.Errorf("failed to write report: %w", renderErr)
	}

	totals := report.Tally(results)
	log.Info().
		Int("files", totals.Files).
		Int("valid", totals.Valid).
		Int("invalid", totals.Invalid).
		Int("skipped", totals.Skipped).
		Dur("elapsed", time.Since(startTime)).
		Msg("Validation completed")
	if len(totals.InvalidFiles) > 0 {
		log.Warn().Strs("files", totals.InvalidFiles).Msg("Invalid log files found")
	}

	return results, nil
}

func notify(cfg *config.Config, log *logging.SecureLogger, paths []string, results []*validator.Result) error {
	client, err := notification.NewTelegramClient(cfg.TelegramBotToken, cfg.TelegramReportChannel)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Telegram client")
		}
	}()

	if err := client.SendBatchReport(paths, results); err != nil {
		return err
	}

	info := client.GetBotInfo()
	log.Info().Interface("bot", info["username"]).Msg("Telegram report sent")
	return nil
}
