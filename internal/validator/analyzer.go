package validator

import (
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/olegiv/logvalidator-go/internal/address"
	"github.com/olegiv/logvalidator-go/internal/grammar"
	"github.com/olegiv/logvalidator-go/internal/sampler"
	"github.com/olegiv/logvalidator-go/internal/timestamp"
)

// LineSource yields decoded lines until io.EOF.
type LineSource interface {
	Next() (string, error)
}

// IPTally counts sampled lines per address class.
type IPTally struct {
	Local   int `json:"local"`
	Remote  int `json:"remote"`
	Unknown int `json:"unknown"`
}

// Add counts one line of class c.
func (t *IPTally) Add(c address.Class) {
	switch c {
	case address.Local:
		t.Local++
	case address.Remote:
		t.Remote++
	default:
		t.Unknown++
	}
}

// Summary is the aggregate of one sampled pass over a file.
type Summary struct {
	IPs          IPTally               `json:"ips"`
	Datetimes    map[timestamp.Key]int `json:"datetimes"`
	InvalidLines int                   `json:"invalid_lines"`
	TotalLines   int                   `json:"total_lines"`
	SampledLines int                   `json:"sampled_lines"`
	Stride       int                   `json:"stride"`
}

// Analyzer runs the sampled content pass.
type Analyzer struct {
	grammars       *grammar.Set
	normalizer     *timestamp.Normalizer
	countUnmatched bool
	logger         zerolog.Logger
}

// NewAnalyzer creates an analyzer. When countUnmatched is set, lines no
// grammar accepts are tallied as unknown addresses as well as invalid lines.
func NewAnalyzer(grammars *grammar.Set, normalizer *timestamp.Normalizer, countUnmatched bool, logger zerolog.Logger) *Analyzer {
	if grammars == nil {
		grammars = grammar.Default()
	}
	if normalizer == nil {
		normalizer = timestamp.NewNormalizer(nil)
	}
	return &Analyzer{
		grammars:       grammars,
		normalizer:     normalizer,
		countUnmatched: countUnmatched,
		logger:         logger,
	}
}

// Analyze consumes lines in one sequential pass and aggregates the lines
// selected by plan. Read errors abort the pass.
func (a *Analyzer) Analyze(lines LineSource, plan sampler.Plan) (*Summary, error) {
	s := &Summary{
		Datetimes:  make(map[timestamp.Key]int),
		TotalLines: plan.TotalLines,
		Stride:     plan.Stride,
	}
	grammarHits := make(map[string]int)

	for n := 1; ; n++ {
		line, err := lines.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !plan.Includes(n) {
			continue
		}

		s.SampledLines++
		if name := a.analyzeLine(strings.TrimSpace(line), s); name != "" {
			grammarHits[name]++
		}
	}

	a.logger.Debug().
		Int("total_lines", s.TotalLines).
		Int("sampled_lines", s.SampledLines).
		Int("invalid_lines", s.InvalidLines).
		Interface("grammars", grammarHits).
		Msg("Content pass complete")

	return s, nil
}

// analyzeLine updates s with one sampled line and returns the name of the
// grammar that matched it, if any.
func (a *Analyzer) analyzeLine(line string, s *Summary) string {
	m, ok := a.grammars.Match(line)
	if !ok {
		s.InvalidLines++
		if a.countUnmatched {
			s.IPs.Unknown++
		}
		return ""
	}

	s.IPs.Add(address.ClassifyList(m.Address.Tokens()))

	key, err := a.normalize(m.Date)
	if err != nil {
		s.InvalidLines++
		return m.Grammar
	}
	s.Datetimes[key]++

	return m.Grammar
}

func (a *Analyzer) normalize(d grammar.DateEvidence) (timestamp.Key, error) {
	switch v := d.(type) {
	case grammar.FormattedDate:
		return a.normalizer.FromFormatted(string(v))
	case grammar.EpochSeconds:
		return a.normalizer.FromEpoch(string(v))
	default:
		return timestamp.Key{}, timestamp.ErrDateParse
	}
}
