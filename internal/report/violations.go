package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/chart"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/store"
)

// DateResult is report 3.
type DateResult struct {
	Date         string  `json:"date" yaml:"date"`
	Red          int64   `json:"red" yaml:"red"`
	Speed        int64   `json:"speed" yaml:"speed"`
	Total        int64   `json:"total" yaml:"total"`
	RedPercent   float64 `json:"red_percent" yaml:"red_percent"`
	SpeedPercent float64 `json:"speed_percent" yaml:"speed_percent"`
}

// ViolationsOnDate splits the violations recorded on date by category.
func ViolationsOnDate(ctx context.Context, cat Catalog, date string) (*DateResult, error) {
	p, err := cat.ViolationsOnDate(ctx, date)
	if err != nil {
		return nil, err
	}
	total := p.Total()
	return &DateResult{
		Date:         date,
		Red:          p.Red,
		Speed:        p.Speed,
		Total:        total,
		RedPercent:   Percent(p.Red, total),
		SpeedPercent: Percent(p.Speed, total),
	}, nil
}

func (r *DateResult) WriteText(w io.Writer) error {
	tw := &textWriter{w: w}
	if r.Total == 0 {
		fmt.Fprintln(tw, "No violations on record for that date.")
	} else {
		fmt.Fprintln(tw, "\nNumber of Red Light Violations:", Count(r.Red), "("+FormatPercent(r.RedPercent)+")")
		fmt.Fprintln(tw, "Number of Speed Violations:", Count(r.Speed), "("+FormatPercent(r.SpeedPercent)+")")
		fmt.Fprintln(tw, "Total Number of Violations:", Count(r.Total))
	}
	fmt.Fprintln(tw)
	return tw.err
}

func (r *DateResult) Charts() []*chart.Chart { return nil }

// PairedResult is the shared shape of reports 5, 6 and 7: the two
// category lists as queried and the rows printed from them.
type PairedResult struct {
	Red   []store.NamedCount `json:"red" yaml:"red"`
	Speed []store.NamedCount `json:"speed" yaml:"speed"`
	Rows  []PairedRow        `json:"rows" yaml:"rows"`
}

func (r *PairedResult) writeTable(w io.Writer, heading, column string, dashes int) error {
	tw := &textWriter{w: w}
	fmt.Fprintln(tw, "\n"+heading)
	fmt.Fprintf(tw, "%s | Red Violations | Speed Violations\n", column)
	fmt.Fprintln(tw, strings.Repeat("-", dashes))
	writePairedRows(tw, r.Rows)
	return tw.err
}

func (r *PairedResult) Charts() []*chart.Chart { return nil }

func pairedQuery(query func(store.Category) ([]store.NamedCount, error)) (PairedResult, error) {
	red, err := query(store.RedLight)
	if err != nil {
		return PairedResult{}, err
	}
	speed, err := query(store.Speed)
	if err != nil {
		return PairedResult{}, err
	}
	return PairedResult{Red: red, Speed: speed, Rows: PairRows(red, speed)}, nil
}

// IntersectionViolationsResult is report 5.
type IntersectionViolationsResult struct {
	Year         string `json:"year" yaml:"year"`
	PairedResult `yaml:",inline"`
}

// ViolationsByIntersection counts a year's violations per intersection.
func ViolationsByIntersection(ctx context.Context, cat Catalog, year string) (*IntersectionViolationsResult, error) {
	p, err := pairedQuery(func(c store.Category) ([]store.NamedCount, error) {
		return cat.ViolationsByIntersection(ctx, c, year)
	})
	if err != nil {
		return nil, err
	}
	return &IntersectionViolationsResult{Year: year, PairedResult: p}, nil
}

func (r *IntersectionViolationsResult) WriteText(w io.Writer) error {
	if err := r.writeTable(w, fmt.Sprintf("Violations at Intersections in %s:", r.Year), "Intersection", 47); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// YearlyViolationsResult is report 6.
type YearlyViolationsResult struct {
	Camera       string `json:"camera" yaml:"camera"`
	PairedResult `yaml:",inline"`
}

// ViolationsByYear counts a camera's violations per year.
func ViolationsByYear(ctx context.Context, cat Catalog, camera string) (*YearlyViolationsResult, error) {
	p, err := pairedQuery(func(c store.Category) ([]store.NamedCount, error) {
		return cat.ViolationsByYear(ctx, c, camera)
	})
	if err != nil {
		return nil, err
	}
	return &YearlyViolationsResult{Camera: camera, PairedResult: p}, nil
}

func (r *YearlyViolationsResult) WriteText(w io.Writer) error {
	if err := r.writeTable(w, fmt.Sprintf("Violations for Camera %s:", r.Camera), "Year", 41); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// MonthlyViolationsResult is report 7.
type MonthlyViolationsResult struct {
	Camera       string `json:"camera" yaml:"camera"`
	Year         string `json:"year" yaml:"year"`
	PairedResult `yaml:",inline"`
}

// ViolationsByMonth counts a camera's violations per month of a year.
func ViolationsByMonth(ctx context.Context, cat Catalog, camera, year string) (*MonthlyViolationsResult, error) {
	p, err := pairedQuery(func(c store.Category) ([]store.NamedCount, error) {
		return cat.ViolationsByMonth(ctx, c, camera, year)
	})
	if err != nil {
		return nil, err
	}
	return &MonthlyViolationsResult{Camera: camera, Year: year, PairedResult: p}, nil
}

func (r *MonthlyViolationsResult) WriteText(w io.Writer) error {
	if err := r.writeTable(w, fmt.Sprintf("Violations for Camera %s in %s:", r.Camera, r.Year), "Month", 41); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// Charts plots both categories by month, even when there is no data.
func (r *MonthlyViolationsResult) Charts() []*chart.Chart {
	return []*chart.Chart{chart.MonthlyViolations(r.Camera, r.Year, r.Red, r.Speed)}
}

// YearComparisonResult is report 8.
type YearComparisonResult struct {
	Year  string `json:"year" yaml:"year"`
	Red   int64  `json:"red" yaml:"red"`
	Speed int64  `json:"speed" yaml:"speed"`
}

// CompareYear totals a year's red light and speed violations.
func CompareYear(ctx context.Context, cat Catalog, year string) (*YearComparisonResult, error) {
	p, err := cat.ViolationsInYear(ctx, year)
	if err != nil {
		return nil, err
	}
	return &YearComparisonResult{Year: year, Red: p.Red, Speed: p.Speed}, nil
}

func (r *YearComparisonResult) WriteText(w io.Writer) error {
	tw := &textWriter{w: w}
	fmt.Fprintf(tw, "\nViolations Comparison for %s:\n", r.Year)
	fmt.Fprintf(tw, "Red Light Violations: %d\n", r.Red)
	fmt.Fprintf(tw, "Speed Violations: %d\n", r.Speed)
	fmt.Fprintln(tw)
	return tw.err
}

func (r *YearComparisonResult) Charts() []*chart.Chart {
	return []*chart.Chart{chart.YearComparison(r.Year, store.Pair{Red: r.Red, Speed: r.Speed})}
}
