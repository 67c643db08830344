package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/olegiv/logvalidator-go/internal/pathinfo"
	"github.com/olegiv/logvalidator-go/internal/timestamp"
	"github.com/olegiv/logvalidator-go/internal/validator"
)

func sampleResult() *validator.Result {
	probable := pathinfo.Value(timestamp.Date{Year: 2024, Month: 5, Day: 15})
	return &validator.Result{
		File: "/data/2024-05-15_scielo.cl.log.gz",
		Mode: validator.Mode{PathValidation: true, ContentValidation: true},
		Path: &pathinfo.Attributes{
			Date:       pathinfo.Value("2024-05-15"),
			Collection: pathinfo.Value("chl"),
			Paperboy:   pathinfo.Value(true),
			MIMEType:   pathinfo.Value("application/gzip"),
			Extension:  pathinfo.Failed[string](errors.New("no ext")),
		},
		Content: &validator.ContentResult{Summary: &validator.Summary{
			IPs:          validator.IPTally{Local: 4, Remote: 14},
			Datetimes:    map[timestamp.Key]int{{Year: 2024, Month: 5, Day: 15, Hour: 3}: 18},
			TotalLines:   18,
			SampledLines: 18,
			Stride:       1,
		}},
		ProbableDate: &probable,
		IsValid:      &validator.Verdict{IPs: true, Dates: true, All: true},
	}
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewJSONRenderer(&buf)

	if err := renderer.Render(sampleResult()); err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, buf.String())
	}

	if got["probable_date"] != "2024-05-15" {
		t.Errorf("expected probable_date 2024-05-15, got %v", got["probable_date"])
	}
	path := got["path"].(map[string]any)
	if path["collection"] != "chl" {
		t.Errorf("expected collection chl, got %v", path["collection"])
	}
	ext := path["extension"].(map[string]any)
	if ext["error"] != "no ext" {
		t.Errorf("expected inline extension error, got %v", path["extension"])
	}
	summary := got["content"].(map[string]any)["summary"].(map[string]any)
	if summary["datetimes"].(map[string]any)["2024-05-15T03"] != float64(18) {
		t.Errorf("unexpected datetimes: %v", summary["datetimes"])
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("expected one JSON object per line")
	}
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextRenderer(&buf).Render(sampleResult()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"/data/2024-05-15_scielo.cl.log.gz",
		"VALID",
		"collection=chl",
		"error(no ext)",
		"remote=14",
		"probable_date=2024-05-15",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "INVALID") {
		t.Errorf("valid result rendered as invalid:\n%s", out)
	}
}

func TestTextRenderer_ContentErrorAndSkipped(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextRenderer(&buf)

	failed := &validator.Result{
		File:    "/data/empty.log",
		Content: &validator.ContentResult{Error: validator.ContentErrEmpty},
		IsValid: &validator.Verdict{},
	}
	skipped := &validator.Result{File: "/data/only-path.log"}

	if err := r.Render(failed); err != nil {
		t.Fatal(err)
	}
	if err := r.Render(skipped); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{"INVALID", validator.ContentErrEmpty, "SKIPPED", "probable_date=-"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	if r, err := New(FormatJSON, &buf); err != nil {
		t.Fatal(err)
	} else if _, ok := r.(*JSONRenderer); !ok {
		t.Errorf("expected *JSONRenderer, got %T", r)
	}

	if r, err := New("", &buf); err != nil {
		t.Fatal(err)
	} else if _, ok := r.(*TextRenderer); !ok {
		t.Errorf("expected *TextRenderer, got %T", r)
	}

	if _, err := New("yaml", &buf); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestTally(t *testing.T) {
	results := []*validator.Result{
		sampleResult(),
		{File: "b", Content: &validator.ContentResult{Error: validator.ContentErrTruncated}, IsValid: &validator.Verdict{}},
		{File: "c", Content: &validator.ContentResult{Error: validator.ContentErrTruncated}, IsValid: &validator.Verdict{}},
		{File: "d"},
	}

	got := Tally(results)

	if got.Files != 4 || got.Valid != 1 || got.Invalid != 2 || got.Skipped != 1 {
		t.Errorf("unexpected totals: %+v", got)
	}
	if got.ContentErrors[validator.ContentErrTruncated] != 2 {
		t.Errorf("expected 2 truncated files, got %v", got.ContentErrors)
	}
	if len(got.InvalidFiles) != 2 || got.InvalidFiles[0] != "b" {
		t.Errorf("unexpected invalid files: %v", got.InvalidFiles)
	}
}
