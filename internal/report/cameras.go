package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/chart"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/store"
)

// SearchResult is report 1.
type SearchResult struct {
	Pattern       string               `json:"pattern" yaml:"pattern"`
	Intersections []store.Intersection `json:"intersections" yaml:"intersections"`
}

// FindIntersections searches intersections by name prefix.
func FindIntersections(ctx context.Context, cat Catalog, pattern string) (*SearchResult, error) {
	rows, err := cat.FindIntersections(ctx, pattern)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Pattern: pattern, Intersections: rows}, nil
}

func (r *SearchResult) WriteText(w io.Writer) error {
	tw := &textWriter{w: w}
	if len(r.Intersections) == 0 {
		fmt.Fprintln(tw, "No intersections found matching your input.")
		return tw.err
	}
	fmt.Fprintln(tw, "\nResults:")
	fmt.Fprintln(tw, "ID   | Intersection Name")
	fmt.Fprintln(tw, strings.Repeat("-", 24))
	for _, in := range r.Intersections {
		fmt.Fprintf(tw, "%-4d | %s\n", in.ID, in.Name)
	}
	fmt.Fprintln(tw)
	return tw.err
}

func (r *SearchResult) Charts() []*chart.Chart { return nil }

// CamerasAtResult is report 2.
type CamerasAtResult struct {
	Intersection string         `json:"intersection" yaml:"intersection"`
	Red          []store.Camera `json:"red_cameras" yaml:"red_cameras"`
	Speed        []store.Camera `json:"speed_cameras" yaml:"speed_cameras"`
}

// CamerasAt lists the red light and speed cameras at an intersection.
func CamerasAt(ctx context.Context, cat Catalog, intersection string) (*CamerasAtResult, error) {
	red, err := cat.CamerasAt(ctx, store.RedLight, intersection)
	if err != nil {
		return nil, err
	}
	speed, err := cat.CamerasAt(ctx, store.Speed, intersection)
	if err != nil {
		return nil, err
	}
	return &CamerasAtResult{Intersection: intersection, Red: red, Speed: speed}, nil
}

func (r *CamerasAtResult) WriteText(w io.Writer) error {
	tw := &textWriter{w: w}
	if len(r.Red) == 0 && len(r.Speed) == 0 {
		fmt.Fprintln(tw, "No red light cameras found at that intersection.")
		fmt.Fprintln(tw, "No speed cameras found at that intersection.")
		fmt.Fprintln(tw)
		return tw.err
	}

	if len(r.Red) > 0 {
		fmt.Fprintln(tw, "\nRed Light Cameras:")
		writeCameras(tw, r.Red)
	} else {
		fmt.Fprintln(tw, "\nNo red light cameras found at that intersection.")
	}

	if len(r.Speed) > 0 {
		fmt.Fprintln(tw, "\nSpeed Cameras:")
		writeCameras(tw, r.Speed)
	} else {
		fmt.Fprintln(tw, "\nNo speed cameras found at that intersection.")
	}

	fmt.Fprintln(tw)
	return tw.err
}

func (r *CamerasAtResult) Charts() []*chart.Chart { return nil }

// IntersectionShare is a per-intersection camera count with its share of
// the category total.
type IntersectionShare struct {
	store.IntersectionCount `yaml:",inline"`
	Percent                 float64 `json:"percent" yaml:"percent"`
}

// CamerasPerIntersectionResult is report 4.
type CamerasPerIntersectionResult struct {
	RedTotal   int64               `json:"red_total" yaml:"red_total"`
	SpeedTotal int64               `json:"speed_total" yaml:"speed_total"`
	Red        []IntersectionShare `json:"red" yaml:"red"`
	Speed      []IntersectionShare `json:"speed" yaml:"speed"`
}

// CamerasPerIntersection counts cameras per intersection for both
// categories, each as a share of its category's total.
func CamerasPerIntersection(ctx context.Context, cat Catalog) (*CamerasPerIntersectionResult, error) {
	res := &CamerasPerIntersectionResult{}
	var err error

	if res.RedTotal, err = cat.CameraCount(ctx, store.RedLight); err != nil {
		return nil, err
	}
	if res.SpeedTotal, err = cat.CameraCount(ctx, store.Speed); err != nil {
		return nil, err
	}

	red, err := cat.CamerasPerIntersection(ctx, store.RedLight)
	if err != nil {
		return nil, err
	}
	speed, err := cat.CamerasPerIntersection(ctx, store.Speed)
	if err != nil {
		return nil, err
	}

	res.Red = shares(red, res.RedTotal)
	res.Speed = shares(speed, res.SpeedTotal)
	return res, nil
}

func shares(rows []store.IntersectionCount, total int64) []IntersectionShare {
	out := make([]IntersectionShare, len(rows))
	for i, r := range rows {
		out[i] = IntersectionShare{IntersectionCount: r, Percent: Percent(r.Count, total)}
	}
	return out
}

func (r *CamerasPerIntersectionResult) WriteText(w io.Writer) error {
	tw := &textWriter{w: w}
	fmt.Fprintln(tw, "\nNumber of Red Light Cameras at Each Intersection")
	writeShares(tw, r.Red)
	fmt.Fprintln(tw, "\nNumber of Speed Cameras at Each Intersection")
	writeShares(tw, r.Speed)
	fmt.Fprintln(tw)
	return tw.err
}

func writeShares(w io.Writer, rows []IntersectionShare) {
	for _, s := range rows {
		fmt.Fprintf(w, " %s (%d) : %d (%s)\n", s.Name, s.ID, s.Count, FormatPercent(s.Percent))
	}
}

func (r *CamerasPerIntersectionResult) Charts() []*chart.Chart { return nil }

// StreetResult is report 9.
type StreetResult struct {
	Street string         `json:"street" yaml:"street"`
	Red    []store.Camera `json:"red_cameras" yaml:"red_cameras"`
	Speed  []store.Camera `json:"speed_cameras" yaml:"speed_cameras"`
}

// CamerasOnStreet lists cameras whose address contains street.
func CamerasOnStreet(ctx context.Context, cat Catalog, street string) (*StreetResult, error) {
	red, err := cat.CamerasOnStreet(ctx, store.RedLight, street)
	if err != nil {
		return nil, err
	}
	speed, err := cat.CamerasOnStreet(ctx, store.Speed, street)
	if err != nil {
		return nil, err
	}
	return &StreetResult{Street: street, Red: red, Speed: speed}, nil
}

// WriteText reports each category on its own, so a street with only speed
// cameras still says it has no red light cameras.
func (r *StreetResult) WriteText(w io.Writer) error {
	tw := &textWriter{w: w}
	fmt.Fprintln(tw, "\nCameras on Street:", r.Street)

	if len(r.Red) > 0 {
		fmt.Fprintln(tw, "\nRed Light Cameras:")
		writeCameras(tw, r.Red)
	} else {
		fmt.Fprintln(tw, "\nNo red light cameras found on that street.")
	}

	if len(r.Speed) > 0 {
		fmt.Fprintln(tw, "\nSpeed Cameras:")
		writeCameras(tw, r.Speed)
	} else {
		fmt.Fprintln(tw, "\nNo speed cameras found on that street.")
	}

	fmt.Fprintln(tw)
	return tw.err
}

func (r *StreetResult) Charts() []*chart.Chart { return nil }
