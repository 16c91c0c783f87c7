// Package chart turns aggregated report results into chart descriptors and
// hands them to a rendering sink.
//
// A descriptor is backend-neutral: the PNG sink draws it with go-chart, the
// Mermaid sink writes an xychart-beta block, the S3 sink uploads the PNG.
package chart

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/store"
)

// Kind is the chart type.
type Kind string

const (
	// Bar draws one bar per label.
	Bar Kind = "bar"
	// Line draws each series as a connected line.
	Line Kind = "line"
)

// Series colours, as CSS hex codes.
const (
	ColorRed     = "#ff0000"
	ColorBlue    = "#0000ff"
	ColorSkyBlue = "#87ceeb"
)

// Series is one named run of labelled values.
type Series struct {
	Name   string    `json:"name" yaml:"name"`
	Labels []string  `json:"labels" yaml:"labels"`
	Values []float64 `json:"values" yaml:"values"`
	Color  string    `json:"color,omitempty" yaml:"color,omitempty"`
}

// Len returns the number of points in the series.
func (s Series) Len() int {
	return min(len(s.Labels), len(s.Values))
}

// Chart describes a chart independently of how it is drawn.
type Chart struct {
	Kind   Kind     `json:"kind" yaml:"kind"`
	Title  string   `json:"title" yaml:"title"`
	XLabel string   `json:"x_label" yaml:"x_label"`
	YLabel string   `json:"y_label" yaml:"y_label"`
	Series []Series `json:"series" yaml:"series"`

	// XTicks, when set, are the x-axis labels in display order.
	XTicks []string `json:"x_ticks,omitempty" yaml:"x_ticks,omitempty"`

	RotateLabels bool `json:"rotate_labels,omitempty" yaml:"rotate_labels,omitempty"`
	Markers      bool `json:"markers,omitempty" yaml:"markers,omitempty"`
	Legend       bool `json:"legend,omitempty" yaml:"legend,omitempty"`
	Grid         bool `json:"grid,omitempty" yaml:"grid,omitempty"`
}

// Empty reports whether no series has any points.
func (c *Chart) Empty() bool {
	for _, s := range c.Series {
		if s.Len() > 0 {
			return false
		}
	}
	return true
}

// Slug returns a file-name-safe version of the title.
func (c *Chart) Slug() string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(c.Title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "chart"
	}
	return slug
}

// IntersectionCameras builds the startup bar chart: one bar per
// intersection, in the order given. Returns nil when rows is empty.
func IntersectionCameras(rows []store.IntersectionCount) *Chart {
	if len(rows) == 0 {
		return nil
	}

	s := Series{Name: "Red Light Cameras", Color: ColorSkyBlue}
	for _, r := range rows {
		s.Labels = append(s.Labels, r.Name)
		s.Values = append(s.Values, float64(r.Count))
	}

	return &Chart{
		Kind:         Bar,
		Title:        "Number of Red Light Cameras at Each Intersection",
		XLabel:       "Intersection",
		YLabel:       "Number of Cameras",
		Series:       []Series{s},
		XTicks:       s.Labels,
		RotateLabels: true,
	}
}

// MonthlyViolations builds the per-month line chart for one camera. Each
// series keeps its own months; the x-axis shows the union of both.
func MonthlyViolations(camera, year string, red, speed []store.NamedCount) *Chart {
	redSeries := countSeries("Red Violations", ColorRed, red)
	speedSeries := countSeries("Speed Violations", ColorBlue, speed)

	return &Chart{
		Kind:    Line,
		Title:   fmt.Sprintf("Monthly Violations for Camera %s in %s", camera, year),
		XLabel:  "Month",
		YLabel:  "Number of Violations",
		Series:  []Series{redSeries, speedSeries},
		XTicks:  unionLabels(red, speed),
		Markers: true,
		Legend:  true,
		Grid:    true,
	}
}

// YearComparison builds the two-bar red vs. speed chart for a year.
func YearComparison(year string, totals store.Pair) *Chart {
	return &Chart{
		Kind:   Bar,
		Title:  fmt.Sprintf("Red Light vs. Speed Violations in %s", year),
		YLabel: "Number of Violations",
		Series: []Series{
			{Name: "Red Light Violations", Labels: []string{"Red Light Violations"}, Values: []float64{float64(totals.Red)}, Color: ColorRed},
			{Name: "Speed Violations", Labels: []string{"Speed Violations"}, Values: []float64{float64(totals.Speed)}, Color: ColorBlue},
		},
		XTicks: []string{"Red Light Violations", "Speed Violations"},
	}
}

func countSeries(name, color string, rows []store.NamedCount) Series {
	s := Series{Name: name, Color: color, Labels: []string{}, Values: []float64{}}
	for _, r := range rows {
		s.Labels = append(s.Labels, r.Name)
		s.Values = append(s.Values, float64(r.Count))
	}
	return s
}

// unionLabels merges two label lists that are each in ascending order.
func unionLabels(a, b []store.NamedCount) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b) || (i < len(a) && a[i].Name < b[j].Name):
			out = append(out, a[i].Name)
			i++
		case i >= len(a) || b[j].Name < a[i].Name:
			out = append(out, b[j].Name)
			j++
		default:
			out = append(out, a[i].Name)
			i++
			j++
		}
	}
	return out
}
