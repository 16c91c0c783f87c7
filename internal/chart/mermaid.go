package chart

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Mermaid writes charts as Mermaid xychart-beta diagrams. With W set, the
// diagram goes to W; otherwise to <Dir>/<slug>.mmd.
type Mermaid struct {
	W   io.Writer
	Dir string
	log logrus.FieldLogger
}

// NewMermaid returns a Mermaid sink writing every diagram to w.
func NewMermaid(w io.Writer, log logrus.FieldLogger) *Mermaid {
	return &Mermaid{W: w, log: sinkLogger(log, "mermaid")}
}

// NewMermaidDir returns a Mermaid sink writing one file per chart into dir.
func NewMermaidDir(dir string, log logrus.FieldLogger) *Mermaid {
	return &Mermaid{Dir: dir, log: sinkLogger(log, "mermaid")}
}

// Render implements Sink.
func (m *Mermaid) Render(_ context.Context, c *Chart) error {
	if c == nil {
		return nil
	}
	text := GenerateMermaid(c)

	if m.W != nil {
		_, err := io.WriteString(m.W, text)
		return err
	}

	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	path := filepath.Join(m.Dir, c.Slug()+".mmd")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	m.log.WithField("path", path).Info("chart written")
	return nil
}

// GenerateMermaid renders c as an xychart-beta block. Every series is
// aligned to the x-axis categories; a category missing from a series is
// plotted as 0.
func GenerateMermaid(c *Chart) string {
	categories := c.XTicks
	if len(categories) == 0 {
		for _, s := range c.Series {
			categories = append(categories, s.Labels[:s.Len()]...)
		}
	}

	var sb strings.Builder
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", escapeMermaidString(c.Title)))

	quoted := make([]string, len(categories))
	for i, cat := range categories {
		quoted[i] = fmt.Sprintf("\"%s\"", escapeMermaidString(cat))
	}
	if c.XLabel != "" {
		sb.WriteString(fmt.Sprintf("    x-axis \"%s\" [%s]\n", escapeMermaidString(c.XLabel), strings.Join(quoted, ", ")))
	} else {
		sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(quoted, ", ")))
	}
	sb.WriteString(fmt.Sprintf("    y-axis \"%s\"\n", escapeMermaidString(c.YLabel)))

	switch c.Kind {
	case Bar:
		// Bars from all series share one row so each category keeps its bar.
		values := make([]float64, len(categories))
		for _, s := range c.Series {
			alignInto(values, categories, s)
		}
		sb.WriteString(fmt.Sprintf("    bar [%s]\n", joinValues(values)))
	case Line:
		for _, s := range c.Series {
			if s.Len() == 0 {
				continue
			}
			values := make([]float64, len(categories))
			alignInto(values, categories, s)
			sb.WriteString(fmt.Sprintf("    line [%s]\n", joinValues(values)))
		}
	}

	return sb.String()
}

func alignInto(values []float64, categories []string, s Series) {
	index := make(map[string]int, len(categories))
	for i, cat := range categories {
		if _, seen := index[cat]; !seen {
			index[cat] = i
		}
	}
	for i := 0; i < s.Len(); i++ {
		if j, ok := index[s.Labels[i]]; ok {
			values[j] += s.Values[i]
		}
	}
}

func joinValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}

// escapeMermaidString escapes characters that would end a quoted label.
func escapeMermaidString(s string) string {
	s = strings.ReplaceAll(s, "\"", "#quot;")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
