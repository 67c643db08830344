// Package report renders validation results for terminals and pipes.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/olegiv/logvalidator-go/internal/pathinfo"
	"github.com/olegiv/logvalidator-go/internal/validator"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Renderer writes validation results to an output stream.
type Renderer interface {
	Render(res *validator.Result) error
}

// New returns the renderer for format.
func New(format string, w io.Writer) (Renderer, error) {
	switch format {
	case FormatText, "":
		return NewTextRenderer(w), nil
	case FormatJSON:
		return NewJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("unknown output format: %q (expected %s or %s)", format, FormatText, FormatJSON)
	}
}

// ---------------------------------------------------------------------------
// Text Renderer
// ---------------------------------------------------------------------------

var (
	styleFile    = lipgloss.NewStyle().Bold(true)
	styleValid   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)  // green
	styleInvalid = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red
	styleSkipped = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))            // gray
	styleLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Width(9)    // cyan
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
)

// TextRenderer prints one block per result with a colored status tag.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer returns a Renderer that writes text to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) Render(res *validator.Result) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s\n", styleFile.Render(res.File), statusTag(res))

	if p := res.Path; p != nil {
		fmt.Fprintf(&sb, "  %s date=%s collection=%s paperboy=%s mimetype=%s extension=%s\n",
			styleLabel.Render("path"),
			attrText(p.Date), attrText(p.Collection), attrText(p.Paperboy),
			attrText(p.MIMEType), attrText(p.Extension))
	}

	if c := res.Content; c != nil {
		if c.Error != "" {
			fmt.Fprintf(&sb, "  %s %s\n", styleLabel.Render("content"), styleError.Render(c.Error))
		} else if s := c.Summary; s != nil {
			fmt.Fprintf(&sb, "  %s lines=%d sampled=%d stride=%d invalid=%d local=%d remote=%d unknown=%d\n",
				styleLabel.Render("content"),
				s.TotalLines, s.SampledLines, s.Stride, s.InvalidLines,
				s.IPs.Local, s.IPs.Remote, s.IPs.Unknown)
		}
	}

	if v := res.IsValid; v != nil {
		probable := "-"
		if res.ProbableDate != nil {
			probable = attrText(*res.ProbableDate)
		}
		fmt.Fprintf(&sb, "  %s ips=%t dates=%t probable_date=%s\n",
			styleLabel.Render("verdict"), v.IPs, v.Dates, probable)
	}

	_, err := io.WriteString(r.w, sb.String())
	return err
}

func statusTag(res *validator.Result) string {
	switch {
	case res.IsValid == nil:
		return styleSkipped.Render("SKIPPED")
	case res.IsValid.All:
		return styleValid.Render("VALID")
	default:
		return styleInvalid.Render("INVALID")
	}
}

func attrText[T any](a pathinfo.Attr[T]) string {
	if msg := a.Err(); msg != "" {
		return styleError.Render("error(" + msg + ")")
	}
	v, ok := a.Get()
	if !ok {
		return "-"
	}
	return fmt.Sprint(v)
}

// ---------------------------------------------------------------------------
// JSON Renderer
// ---------------------------------------------------------------------------

// JSONRenderer prints each result as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(res *validator.Result) error {
	return r.enc.Encode(res)
}
