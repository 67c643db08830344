package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		fraction   float64
		minLines   int
		wantFrac   float64
		wantSample int
		wantStride int
	}{
		{name: "full scan", total: 100, fraction: 1, minLines: 0, wantFrac: 1, wantSample: 100, wantStride: 1},
		{name: "ten percent", total: 10000, fraction: 0.1, minLines: 1000, wantFrac: 0.1, wantSample: 1000, wantStride: 10},
		{name: "small file forced to full scan", total: 1000, fraction: 0.1, minLines: 1000, wantFrac: 1, wantSample: 1000, wantStride: 1},
		{name: "zero fraction clamped", total: 5000, fraction: 0, minLines: 10, wantFrac: 1, wantSample: 5000, wantStride: 1},
		{name: "fraction above one clamped", total: 5000, fraction: 100, minLines: 10, wantFrac: 1, wantSample: 5000, wantStride: 1},
		{name: "lower bound kept", total: 100000, fraction: 0.001, minLines: 10, wantFrac: 0.001, wantSample: 100, wantStride: 1000},
		{name: "uneven stride", total: 10, fraction: 0.4, minLines: 0, wantFrac: 0.4, wantSample: 4, wantStride: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlan(tt.total, tt.fraction, tt.minLines)
			require.NoError(t, err)
			assert.Equal(t, tt.total, p.TotalLines)
			assert.InDelta(t, tt.wantFrac, p.Fraction, 1e-9)
			assert.Equal(t, tt.wantSample, p.SampleLines)
			assert.Equal(t, tt.wantStride, p.Stride)
		})
	}
}

func TestNewPlan_Empty(t *testing.T) {
	_, err := NewPlan(0, 0.5, 0)
	assert.ErrorIs(t, err, ErrEmptyFile)

	// 3 lines at 10% with no small-file override rounds down to zero lines.
	_, err = NewPlan(3, 0.1, -1)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestIndicesProperties(t *testing.T) {
	fractions := []float64{0.001, 0.01, 0.1, 0.25, 0.33, 0.5, 0.9, 1}
	for total := 1; total <= 300; total += 7 {
		for _, f := range fractions {
			p, err := NewPlan(total, f, 0)
			if err != nil {
				require.ErrorIs(t, err, ErrEmptyFile)
				continue
			}

			idx := p.Indices()
			require.NotEmpty(t, idx, "total=%d fraction=%g", total, f)
			for i, n := range idx {
				require.LessOrEqual(t, n, total)
				require.True(t, p.Includes(n))
				if i > 0 {
					require.Greater(t, n, idx[i-1])
				}
			}
			assert.Equal(t, idx, p.Indices(), "indices must be deterministic")
			assert.GreaterOrEqual(t, len(idx), p.SampleLines)
		}
	}
}

func TestIncludes(t *testing.T) {
	p, err := NewPlan(10, 0.4, 0)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 4, 6, 8, 10}, p.Indices())
	assert.False(t, p.Includes(0))
	assert.False(t, p.Includes(1))
	assert.True(t, p.Includes(2))
	assert.False(t, p.Includes(12))

	var zero Plan
	assert.False(t, zero.Includes(1))
	assert.Nil(t, zero.Indices())
}
