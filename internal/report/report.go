// Package report implements the nine camera reports and the startup
// statistics. Each report runs its catalog queries, returns a Result that
// renders itself as text, and names the charts it wants emitted.
//
// The dispatch table maps a menu option ("1".."9") to its report. Reports
// never hold the database handle themselves; the Catalog is passed in on
// every run.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/chart"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/store"
)

// ErrUnknownReport is returned by Lookup for an option not in the table.
var ErrUnknownReport = errors.New("unknown report")

// ErrMissingParam is returned by Report.Run when too few arguments are given.
var ErrMissingParam = errors.New("missing report parameter")

// Catalog is the set of read queries the reports use. *store.Store
// implements it.
type Catalog interface {
	CameraCount(ctx context.Context, cat store.Category) (int64, error)
	CamerasPerIntersection(ctx context.Context, cat store.Category) ([]store.IntersectionCount, error)
	FindIntersections(ctx context.Context, pattern string) ([]store.Intersection, error)
	CamerasAt(ctx context.Context, cat store.Category, intersection string) ([]store.Camera, error)
	CamerasOnStreet(ctx context.Context, cat store.Category, street string) ([]store.Camera, error)
	ViolationsOnDate(ctx context.Context, date string) (store.Pair, error)
	ViolationsInYear(ctx context.Context, year string) (store.Pair, error)
	ViolationsByIntersection(ctx context.Context, cat store.Category, year string) ([]store.NamedCount, error)
	ViolationsByYear(ctx context.Context, cat store.Category, camera string) ([]store.NamedCount, error)
	ViolationsByMonth(ctx context.Context, cat store.Category, camera, year string) ([]store.NamedCount, error)
}

var _ Catalog = (*store.Store)(nil)

// Result is the outcome of one report.
type Result interface {
	// WriteText writes the report's text layout.
	WriteText(w io.Writer) error
	// Charts returns the charts to emit, possibly none.
	Charts() []*chart.Chart
}

// Param is one free-text input a report asks for.
type Param struct {
	Name        string
	Prompt      string
	Description string
	// Trim strips surrounding whitespace from the answer. Name searches
	// keep the input as typed.
	Trim bool
}

// Report is one entry of the dispatch table.
type Report struct {
	Option string
	Title  string
	Params []Param
	run    func(ctx context.Context, cat Catalog, args []string) (Result, error)
}

// Run executes the report with args given in Params order. Arguments of
// parameters marked Trim are stripped of surrounding whitespace, whichever
// surface they came from.
func (r Report) Run(ctx context.Context, cat Catalog, args ...string) (Result, error) {
	if err := r.CheckArgs(len(args)); err != nil {
		return nil, err
	}
	clean := make([]string, len(args))
	copy(clean, args)
	for i, p := range r.Params {
		if p.Trim {
			clean[i] = strings.TrimSpace(clean[i])
		}
	}
	return r.run(ctx, cat, clean)
}

// CheckArgs reports whether n arguments cover every parameter.
func (r Report) CheckArgs(n int) error {
	if n < len(r.Params) {
		return fmt.Errorf("%w: report %s needs %s", ErrMissingParam, r.Option, r.paramNames())
	}
	return nil
}

func (r Report) paramNames() string {
	names := make([]string, len(r.Params))
	for i, p := range r.Params {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

var table = []Report{
	{
		Option: "1",
		Title:  "Find an intersection by name",
		Params: []Param{{
			Name:        "pattern",
			Prompt:      "Enter the name of the intersection to find (wildcards _ and % allowed): ",
			Description: "Intersection name prefix; % matches any sequence and _ any single character",
		}},
		run: func(ctx context.Context, cat Catalog, args []string) (Result, error) {
			return FindIntersections(ctx, cat, args[0])
		},
	},
	{
		Option: "2",
		Title:  "Find all cameras at an intersection",
		Params: []Param{{
			Name:        "intersection",
			Prompt:      "Enter the name of the intersection (no wildcards allowed): ",
			Description: "Exact intersection name",
		}},
		run: func(ctx context.Context, cat Catalog, args []string) (Result, error) {
			return CamerasAt(ctx, cat, args[0])
		},
	},
	{
		Option: "3",
		Title:  "Percentage of violations for a specific date",
		Params: []Param{{
			Name:        "date",
			Prompt:      "Enter the date that you would like to look at (format should be YYYY-MM-DD): ",
			Description: "Violation date as YYYY-MM-DD",
			Trim:        true,
		}},
		run: func(ctx context.Context, cat Catalog, args []string) (Result, error) {
			return ViolationsOnDate(ctx, cat, args[0])
		},
	},
	{
		Option: "4",
		Title:  "Number of cameras at each intersection",
		run: func(ctx context.Context, cat Catalog, _ []string) (Result, error) {
			return CamerasPerIntersection(ctx, cat)
		},
	},
	{
		Option: "5",
		Title:  "Number of violations at each intersection, given a year",
		Params: []Param{{
			Name:        "year",
			Prompt:      "Enter the year (YYYY) to look for violations: ",
			Description: "Four-digit year",
			Trim:        true,
		}},
		run: func(ctx context.Context, cat Catalog, args []string) (Result, error) {
			return ViolationsByIntersection(ctx, cat, args[0])
		},
	},
	{
		Option: "6",
		Title:  "Number of violations by year, given a camera ID",
		Params: []Param{{
			Name:        "camera",
			Prompt:      "Enter the camera ID to get violations per year: ",
			Description: "Camera ID",
			Trim:        true,
		}},
		run: func(ctx context.Context, cat Catalog, args []string) (Result, error) {
			return ViolationsByYear(ctx, cat, args[0])
		},
	},
	{
		Option: "7",
		Title:  "Number of violations by month, given a camera ID and year",
		Params: []Param{
			{
				Name:        "camera",
				Prompt:      "Enter the camera ID and year (YYYY) to get violations per month: ",
				Description: "Camera ID",
				Trim:        true,
			},
			{
				Name:        "year",
				Prompt:      "Enter the year (YYYY): ",
				Description: "Four-digit year",
				Trim:        true,
			},
		},
		run: func(ctx context.Context, cat Catalog, args []string) (Result, error) {
			return ViolationsByMonth(ctx, cat, args[0], args[1])
		},
	},
	{
		Option: "8",
		Title:  "Compare the number of red light and speed violations, given a year",
		Params: []Param{{
			Name:        "year",
			Prompt:      "Enter the year (YYYY) to compare red light and speed violations: ",
			Description: "Four-digit year",
			Trim:        true,
		}},
		run: func(ctx context.Context, cat Catalog, args []string) (Result, error) {
			return CompareYear(ctx, cat, args[0])
		},
	},
	{
		Option: "9",
		Title:  "Find cameras located on a street",
		Params: []Param{{
			Name:        "street",
			Prompt:      "Enter the street name to find cameras: ",
			Description: "Substring of the camera address",
			Trim:        true,
		}},
		run: func(ctx context.Context, cat Catalog, args []string) (Result, error) {
			return CamerasOnStreet(ctx, cat, args[0])
		},
	},
}

// All returns the dispatch table in menu order.
func All() []Report {
	out := make([]Report, len(table))
	copy(out, table)
	return out
}

// Lookup finds the report for a menu option.
func Lookup(option string) (Report, error) {
	for _, r := range table {
		if r.Option == option {
			return r, nil
		}
	}
	return Report{}, fmt.Errorf("%w: %q", ErrUnknownReport, option)
}
