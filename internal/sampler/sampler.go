// Package sampler decides which lines of a log file are evaluated.
//
// Selection is a fixed stride over the 1-based line numbers of the file, so
// the same file always yields the same sample, the sample covers the whole
// file rather than a prefix, and work is bounded by the requested fraction.
package sampler

import (
	"errors"
	"fmt"
)

// Fraction bounds. Requests outside [MinFraction, MaxFraction] fall back to
// a full scan.
const (
	MinFraction = 0.001
	MaxFraction = 1.0
)

// ErrEmptyFile is returned when a plan would evaluate no line at all.
var ErrEmptyFile = errors.New("file is empty")

// Plan is a deterministic sampling plan for one file.
type Plan struct {
	TotalLines  int     `json:"total_lines"`
	Fraction    float64 `json:"fraction"`
	SampleLines int     `json:"sample_lines"`
	Stride      int     `json:"stride"`
}

// NewPlan builds the plan for a file with totalLines lines.
// Files with at most minLines lines are always fully evaluated.
func NewPlan(totalLines int, fraction float64, minLines int) (Plan, error) {
	fraction = ClampFraction(fraction)
	if totalLines <= minLines {
		fraction = MaxFraction
	}

	sampleLines := int(float64(totalLines) * fraction)
	if sampleLines <= 0 {
		return Plan{}, fmt.Errorf("%w: %d lines at fraction %g", ErrEmptyFile, totalLines, fraction)
	}

	return Plan{
		TotalLines:  totalLines,
		Fraction:    fraction,
		SampleLines: sampleLines,
		Stride:      totalLines / sampleLines,
	}, nil
}

// ClampFraction maps out-of-range fractions to a full scan.
func ClampFraction(fraction float64) float64 {
	if fraction > MaxFraction || fraction < MinFraction {
		return MaxFraction
	}
	return fraction
}

// Includes reports whether the 1-based line number n is evaluated.
func (p Plan) Includes(n int) bool {
	if p.Stride <= 0 || n < 1 || n > p.TotalLines {
		return false
	}
	return n%p.Stride == 0
}

// Indices returns every evaluated line number in increasing order.
func (p Plan) Indices() []int {
	if p.Stride <= 0 {
		return nil
	}
	indices := make([]int, 0, p.TotalLines/p.Stride)
	for n := p.Stride; n <= p.TotalLines; n += p.Stride {
		indices = append(indices, n)
	}
	return indices
}
