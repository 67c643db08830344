package report

import (
	"github.com/olegiv/logvalidator-go/internal/validator"
)

// Totals aggregates a batch of results.
type Totals struct {
	Files         int
	Valid         int
	Invalid       int
	Skipped       int
	ContentErrors map[string]int
	InvalidFiles  []string
}

// Tally computes totals over results.
func Tally(results []*validator.Result) Totals {
	t := Totals{ContentErrors: make(map[string]int)}

	for _, res := range results {
		t.Files++

		if res.Content != nil && res.Content.Error != "" {
			t.ContentErrors[res.Content.Error]++
		}

		switch {
		case res.IsValid == nil:
			t.Skipped++
		case res.IsValid.All:
			t.Valid++
		default:
			t.Invalid++
			t.InvalidFiles = append(t.InvalidFiles, res.File)
		}
	}

	return t
}
