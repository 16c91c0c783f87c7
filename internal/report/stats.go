package report

import (
	"context"
	"fmt"
	"io"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/chart"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/store"
)

// StatsResult holds the general statistics shown before the menu.
type StatsResult struct {
	RedCameras      int64                     `json:"red_cameras" yaml:"red_cameras"`
	PerIntersection []store.IntersectionCount `json:"red_cameras_per_intersection" yaml:"red_cameras_per_intersection"`
}

// Stats counts red light cameras overall and per intersection.
func Stats(ctx context.Context, cat Catalog) (*StatsResult, error) {
	total, err := cat.CameraCount(ctx, store.RedLight)
	if err != nil {
		return nil, err
	}
	per, err := cat.CamerasPerIntersection(ctx, store.RedLight)
	if err != nil {
		return nil, err
	}
	return &StatsResult{RedCameras: total, PerIntersection: per}, nil
}

// WriteText implements Result.
func (r *StatsResult) WriteText(w io.Writer) error {
	tw := &textWriter{w: w}
	fmt.Fprintln(tw, "General Statistics:")
	fmt.Fprintf(tw, "  Number of Red Light Cameras: %s\n", Count(r.RedCameras))
	return tw.err
}

// Charts implements Result. No chart is emitted when no intersection has
// a red light camera.
func (r *StatsResult) Charts() []*chart.Chart {
	if c := chart.IntersectionCameras(r.PerIntersection); c != nil {
		return []*chart.Chart{c}
	}
	return nil
}
