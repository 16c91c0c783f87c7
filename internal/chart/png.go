package chart

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// PNG renders charts to <dir>/<slug>.png.
type PNG struct {
	Dir    string
	Width  int
	Height int
	log    logrus.FieldLogger
}

// NewPNG returns a PNG sink writing into dir.
func NewPNG(dir string, width, height int, log logrus.FieldLogger) *PNG {
	return &PNG{Dir: dir, Width: width, Height: height, log: sinkLogger(log, "png")}
}

// Render implements Sink.
func (p *PNG) Render(_ context.Context, c *Chart) error {
	if c == nil {
		return nil
	}
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}

	var buf bytes.Buffer
	if err := EncodePNG(&buf, c, p.Width, p.Height, p.log); err != nil {
		return err
	}

	path := filepath.Join(p.Dir, c.Slug()+".png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	p.log.WithField("path", path).Info("chart written")
	return nil
}

// EncodePNG draws c as a PNG image into w. Degenerate data that go-chart
// refuses to draw (no points, a single point, all zeros) produces a blank
// placeholder image instead of an error.
func EncodePNG(w io.Writer, c *Chart, width, height int, log logrus.FieldLogger) error {
	var buf bytes.Buffer
	var err error
	switch c.Kind {
	case Bar:
		err = barChart(c, width, height).Render(gochart.PNG, &buf)
	case Line:
		err = lineChart(c, width, height).Render(gochart.PNG, &buf)
	default:
		return fmt.Errorf("unsupported chart kind %q", c.Kind)
	}
	if err != nil {
		if log != nil {
			log.WithError(err).WithField("title", c.Title).Warn("chart render failed; writing blank placeholder")
		}
		return png.Encode(w, blank(width, height))
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func barChart(c *Chart, width, height int) gochart.BarChart {
	var bars []gochart.Value
	var maxY float64
	for _, s := range c.Series {
		style := gochart.Style{}
		if s.Color != "" {
			col := drawing.ParseColor(s.Color)
			style = gochart.Style{FillColor: col, StrokeColor: col}
		}
		for i := 0; i < s.Len(); i++ {
			bars = append(bars, gochart.Value{Label: s.Labels[i], Value: s.Values[i], Style: style})
			maxY = math.Max(maxY, s.Values[i])
		}
	}

	xStyle := gochart.Style{}
	if c.RotateLabels {
		xStyle.TextRotationDegrees = 90
	}

	bc := gochart.BarChart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      xStyle,
		YAxis: gochart.YAxis{
			Name:           c.YLabel,
			Range:          &gochart.ContinuousRange{Min: 0, Max: niceMax(maxY)},
			ValueFormatter: gochart.IntValueFormatter,
		},
		Bars: bars,
	}
	if n := len(bars); n > 0 {
		bc.BarWidth = max(2, (width-120)/n-bc.BarSpacing-4)
		bc.BarWidth = min(bc.BarWidth, 80)
	}
	return bc
}

func lineChart(c *Chart, width, height int) gochart.Chart {
	ticks := c.XTicks
	position := make(map[string]float64, len(ticks))
	var xTicks []gochart.Tick
	for i, label := range ticks {
		x := tickValue(label, i)
		position[label] = x
		xTicks = append(xTicks, gochart.Tick{Value: x, Label: label})
	}
	// go-chart needs at least two distinct x values.
	if len(xTicks) == 1 {
		xTicks = append(xTicks, gochart.Tick{Value: xTicks[0].Value + 1, Label: ""})
	}

	var series []gochart.Series
	var maxY float64
	for _, s := range c.Series {
		if s.Len() == 0 {
			continue
		}
		cs := gochart.ContinuousSeries{Name: s.Name}
		for i := 0; i < s.Len(); i++ {
			x, ok := position[s.Labels[i]]
			if !ok {
				x = tickValue(s.Labels[i], i)
			}
			cs.XValues = append(cs.XValues, x)
			cs.YValues = append(cs.YValues, s.Values[i])
			maxY = math.Max(maxY, s.Values[i])
		}
		col := drawing.ParseColor(s.Color)
		cs.Style = gochart.Style{StrokeColor: col, StrokeWidth: 2}
		if c.Markers {
			cs.Style.DotColor = col
			cs.Style.DotWidth = 4
		}
		series = append(series, cs)
	}

	grid := gochart.Style{Hidden: true}
	if c.Grid {
		grid = gochart.Style{StrokeColor: drawing.ColorFromHex("dddddd"), StrokeWidth: 1}
	}

	ch := gochart.Chart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:           c.XLabel,
			Ticks:          xTicks,
			GridMajorStyle: grid,
		},
		YAxis: gochart.YAxis{
			Name:           c.YLabel,
			Range:          &gochart.ContinuousRange{Min: 0, Max: niceMax(maxY)},
			ValueFormatter: gochart.IntValueFormatter,
			GridMajorStyle: grid,
		},
		Series: series,
	}
	if c.Legend {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}
	return ch
}

// tickValue places a label on the x-axis: numeric labels (months, years)
// at their value, anything else at its 1-based position.
func tickValue(label string, i int) float64 {
	if v, err := strconv.Atoi(label); err == nil {
		return float64(v)
	}
	return float64(i + 1)
}

// niceMax pads the y-axis above the largest value and never returns 0.
func niceMax(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return math.Ceil(v * 1.1)
}

func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img
}

func sinkLogger(log logrus.FieldLogger, sink string) logrus.FieldLogger {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return log.WithField("sink", sink)
}
