// Package validator checks access-log files: it samples their content,
// aggregates address and date signals, and reduces them to verdicts.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/olegiv/logvalidator-go/internal/grammar"
	"github.com/olegiv/logvalidator-go/internal/pathinfo"
	"github.com/olegiv/logvalidator-go/internal/sampler"
	"github.com/olegiv/logvalidator-go/internal/source"
	"github.com/olegiv/logvalidator-go/internal/timestamp"
)

// Defaults for Options.
const (
	DefaultSampleFraction = 0.1
	DefaultMinSampleLines = 1000
)

// Content error messages, as reported in a ContentResult.
const (
	ContentErrEmpty     = "File is empty"
	ContentErrTruncated = "File is truncated"
	ContentErrInvalid   = "File is invalid"
)

// RunMode tells whether a path is validated as a file or a directory.
type RunMode string

// Run modes.
const (
	ModeFile      RunMode = "validate-file"
	ModeDirectory RunMode = "validate-directory"
)

// ExecutionMode returns the run mode for path. A missing path yields an
// error wrapping fs.ErrNotExist.
func ExecutionMode(path string) (RunMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot validate %s: %w", path, err)
	}

	switch {
	case info.Mode().IsRegular():
		return ModeFile, nil
	case info.IsDir():
		return ModeDirectory, nil
	default:
		return "", fmt.Errorf("cannot validate %s: %w", path, os.ErrNotExist)
	}
}

// Options configures a Validator.
type Options struct {
	SampleFraction          float64
	MinSampleLines          int
	DaysDelta               int
	MinRemotePercent        float64
	BufferSize              int
	ApplyPathValidation     bool
	ApplyContentValidation  bool
	CountUnmatchedAsUnknown bool
	Location                *time.Location
	Grammars                *grammar.Set
	Logger                  zerolog.Logger
}

// DefaultOptions returns the default validation options.
func DefaultOptions() Options {
	return Options{
		SampleFraction:          DefaultSampleFraction,
		MinSampleLines:          DefaultMinSampleLines,
		DaysDelta:               DefaultDaysDelta,
		MinRemotePercent:        DefaultMinRemotePercent,
		BufferSize:              source.DefaultBufferSize,
		ApplyPathValidation:     true,
		ApplyContentValidation:  true,
		CountUnmatchedAsUnknown: true,
		Logger:                  zerolog.Nop(),
	}
}

// Mode records which validations were applied.
type Mode struct {
	PathValidation    bool `json:"path_validation"`
	ContentValidation bool `json:"content_validation"`
}

// Verdict holds the boolean outcomes of a validation.
type Verdict struct {
	IPs   bool `json:"ips"`
	Dates bool `json:"dates"`
	All   bool `json:"all"`
}

// ContentResult is either a Summary or a content-level error.
type ContentResult struct {
	Summary *Summary
	Error   string
}

type contentErrorJSON struct {
	Summary struct {
		TotalLines struct {
			Error string `json:"error"`
		} `json:"total_lines"`
	} `json:"summary"`
}

type contentSummaryJSON struct {
	Summary *Summary `json:"summary"`
}

// MarshalJSON renders {"summary": {...}} or, on error,
// {"summary": {"total_lines": {"error": msg}}}.
func (c ContentResult) MarshalJSON() ([]byte, error) {
	if c.Error != "" {
		var out contentErrorJSON
		out.Summary.TotalLines.Error = c.Error
		return json.Marshal(out)
	}
	return json.Marshal(contentSummaryJSON{Summary: c.Summary})
}

// Result is the outcome of validating one file. It is not modified after
// Validate returns.
type Result struct {
	File         string                         `json:"file"`
	Mode         Mode                           `json:"mode"`
	Path         *pathinfo.Attributes           `json:"path,omitempty"`
	Content      *ContentResult                 `json:"content,omitempty"`
	ProbableDate *pathinfo.Attr[timestamp.Date] `json:"probable_date,omitempty"`
	IsValid      *Verdict                       `json:"is_valid,omitempty"`
}

// Valid reports whether content validation ran and passed.
func (r *Result) Valid() bool {
	return r.IsValid != nil && r.IsValid.All
}

// Validator validates log files. It is safe for concurrent use.
type Validator struct {
	opts     Options
	opener   *source.Opener
	analyzer *Analyzer
	logger   zerolog.Logger
}

// New creates a validator from opts.
func New(opts Options) *Validator {
	grammars := opts.Grammars
	if grammars == nil {
		grammars = grammar.Default()
	}

	return &Validator{
		opts:   opts,
		opener: source.NewOpener(source.NewClassifier(opts.BufferSize)),
		analyzer: NewAnalyzer(
			grammars,
			timestamp.NewNormalizer(opts.Location),
			opts.CountUnmatchedAsUnknown,
			opts.Logger,
		),
		logger: opts.Logger,
	}
}

// Validate runs the enabled validations against the file at path.
func (v *Validator) Validate(path string) *Result {
	res := &Result{
		File: path,
		Mode: Mode{
			PathValidation:    v.opts.ApplyPathValidation,
			ContentValidation: v.opts.ApplyContentValidation,
		},
	}

	if v.opts.ApplyPathValidation {
		res.Path = pathinfo.Extract(path, v.opener.Classifier())
	}

	if !v.opts.ApplyContentValidation {
		return res
	}

	res.Content = v.ValidateContent(path)

	var datetimes map[timestamp.Key]int
	if res.Content.Summary != nil {
		datetimes = res.Content.Summary.Datetimes
	}

	verdict := &Verdict{IPs: ValidateIPDistribution(res.Content.Summary, v.opts.MinRemotePercent)}

	probable, err := ProbableDate(datetimes)
	if err != nil {
		attr := pathinfo.Failed[timestamp.Date](err)
		res.ProbableDate = &attr
	} else {
		attr := pathinfo.Value(probable)
		res.ProbableDate = &attr
	}

	var pathDate string
	if res.Path != nil {
		pathDate, _ = res.Path.Date.Get()
	}
	verdict.Dates = ValidateDateConsistency(pathDate, datetimes, probable, v.opts.DaysDelta)
	verdict.All = verdict.IPs && verdict.Dates
	res.IsValid = verdict

	v.logger.Debug().
		Str("file", path).
		Bool("ips", verdict.IPs).
		Bool("dates", verdict.Dates).
		Msg("File validated")

	return res
}

// ValidateContent counts the lines of path, samples them, and returns the
// content summary or a content-level error.
func (v *Validator) ValidateContent(path string) *ContentResult {
	total, err := v.opener.CountLines(path)
	if err != nil {
		return v.contentError(path, err)
	}

	plan, err := sampler.NewPlan(total, v.opts.SampleFraction, v.opts.MinSampleLines)
	if err != nil {
		return v.contentError(path, err)
	}

	stream, err := v.opener.Open(path)
	if err != nil {
		return v.contentError(path, err)
	}
	defer func() { _ = stream.Close() }()

	summary, err := v.analyzer.Analyze(stream, plan)
	if err != nil {
		return v.contentError(path, err)
	}

	return &ContentResult{Summary: summary}
}

func (v *Validator) contentError(path string, err error) *ContentResult {
	v.logger.Debug().Str("file", path).Err(err).Msg("Content validation failed")
	return &ContentResult{Error: contentErrorMessage(err)}
}

func contentErrorMessage(err error) string {
	switch {
	case errors.Is(err, source.ErrEmptyFile), errors.Is(err, sampler.ErrEmptyFile):
		return ContentErrEmpty
	case errors.Is(err, source.ErrTruncatedFile):
		return ContentErrTruncated
	default:
		return ContentErrInvalid
	}
}
