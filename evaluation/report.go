package evaluation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

// Report is the structured form of an evaluation summary.
type Report struct {
	Backend  string    `json:"backend" yaml:"backend"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// Section is one dimension of the report.
type Section struct {
	Dimension Dimension       `json:"dimension" yaml:"dimension"`
	Groups    []AggregateStat `json:"groups,omitempty" yaml:"groups,omitempty"`
	Error     string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewReport collects agg into a Report without further computation.
func NewReport(backend string, agg *Aggregation) Report {
	r := Report{Backend: backend}
	for _, dim := range agg.Dimensions() {
		sec := Section{Dimension: dim, Groups: agg.Stats(dim)}
		if err := agg.Err(dim); err != nil {
			sec.Error = err.Error()
		}
		r.Sections = append(r.Sections, sec)
	}
	return r
}

// RenderYAML writes the report as YAML.
func RenderYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("render yaml: %w", err)
	}
	return enc.Close()
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	return nil
}

// RenderText writes the human readable summary: header, overall WER and
// CER, per-speaker WER, then common vs personal WER. Rates use four
// decimals.
func RenderText(w io.Writer, r Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n=== %s EVALUATION RESULTS (Normalized) ===\n", strings.ToUpper(r.Backend))

	for _, sec := range r.Sections {
		switch sec.Dimension {
		case DimensionOverall:
			if sec.Error != "" {
				fmt.Fprintf(&b, "error: %s\n", sec.Error)
				continue
			}
			for _, g := range sec.Groups {
				fmt.Fprintf(&b, "Overall mean WER : %.4f\n", g.MeanWER)
				fmt.Fprintf(&b, "Overall mean CER : %.4f\n", g.MeanCER)
			}
		case DimensionSpeaker:
			b.WriteString("\n-- Per-speaker WER --\n")
			if sec.Error != "" {
				fmt.Fprintf(&b, "error: %s\n", sec.Error)
				continue
			}
			labels := make([]string, len(sec.Groups))
			for i, g := range sec.Groups {
				labels[i] = "Speaker " + g.Group.Value
			}
			writeAligned(&b, labels, sec.Groups)
		case DimensionCategory:
			b.WriteString("\n-- Common vs personal WER --\n")
			if sec.Error != "" {
				fmt.Fprintf(&b, "error: %s\n", sec.Error)
				continue
			}
			labels := make([]string, len(sec.Groups))
			for i, g := range sec.Groups {
				labels[i] = categoryLabel(g.Group.Value)
			}
			writeAligned(&b, labels, sec.Groups)
		default:
			fmt.Fprintf(&b, "\n-- %s --\n", sec.Dimension)
			if sec.Error != "" {
				fmt.Fprintf(&b, "error: %s\n", sec.Error)
				continue
			}
			labels := make([]string, len(sec.Groups))
			for i, g := range sec.Groups {
				labels[i] = g.Group.Value
			}
			writeAligned(&b, labels, sec.Groups)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeAligned(b *strings.Builder, labels []string, groups []AggregateStat) {
	width := 0
	for _, l := range labels {
		width = max(width, runewidth.StringWidth(l))
	}
	for i, g := range groups {
		fmt.Fprintf(b, "%s : %.4f\n", runewidth.FillRight(labels[i], width), g.MeanWER)
	}
}

func categoryLabel(v string) string {
	switch v {
	case GroupCommon:
		return "Common"
	case GroupPersonal:
		return "Personal"
	}
	return v
}
