package store

import (
	"context"
	"fmt"
)

// Check is the outcome of one database health check.
type Check struct {
	Name    string   `json:"name" yaml:"name"`
	Passed  bool     `json:"passed" yaml:"passed"`
	Issues  int64    `json:"issues" yaml:"issues"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
}

// Tables lists the tables every report reads.
var Tables = []string{"Intersections", "RedCameras", "SpeedCameras", "RedViolations", "SpeedViolations"}

// TableCounts returns the row count of each table in Tables order. A
// missing table is an error.
func (s *Store) TableCounts(ctx context.Context) ([]NamedCount, error) {
	out := make([]NamedCount, 0, len(Tables))
	for _, t := range Tables {
		n, err := s.count(ctx, "SELECT COUNT(*) FROM "+t)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		out = append(out, NamedCount{Name: t, Count: n})
	}
	return out, nil
}

// Doctor runs the read-only health checks: every table is present, every
// camera points at a known intersection, every violation at a known camera
// of its category, and every violation date has the YYYY-MM-DD shape the
// year and month reports slice.
func (s *Store) Doctor(ctx context.Context) []Check {
	present := Check{Name: "tables", Passed: true}
	for _, t := range Tables {
		if _, err := s.count(ctx, "SELECT COUNT(*) FROM "+t); err != nil {
			present.Passed = false
			present.Issues++
			present.Details = append(present.Details, fmt.Sprintf("%s: %v", t, err))
		}
	}
	checks := []Check{present}
	if !present.Passed {
		return checks
	}

	for _, cat := range []Category{RedLight, Speed} {
		t, _ := tablesFor(cat)
		checks = append(checks,
			s.countCheck(ctx, fmt.Sprintf("orphan %s cameras", cat), fmt.Sprintf(`
				SELECT COUNT(*) FROM %[1]s
				LEFT JOIN Intersections ON %[1]s.Intersection_ID = Intersections.Intersection_ID
				WHERE Intersections.Intersection_ID IS NULL`, t.cameras)),
			s.countCheck(ctx, fmt.Sprintf("orphan %s violations", cat), fmt.Sprintf(`
				SELECT COUNT(*) FROM %[1]s
				LEFT JOIN %[2]s ON %[1]s.Camera_ID = %[2]s.Camera_ID
				WHERE %[2]s.Camera_ID IS NULL`, t.violations, t.cameras)),
			s.countCheck(ctx, fmt.Sprintf("malformed %s violation dates", cat), fmt.Sprintf(`
				SELECT COUNT(*) FROM %s
				WHERE length(Violation_Date) <> 10 OR substr(Violation_Date, 5, 1) <> '-'`, t.violations)),
		)
	}
	return checks
}

// countCheck passes when query counts zero rows.
func (s *Store) countCheck(ctx context.Context, name, query string) Check {
	n, err := s.count(ctx, query)
	if err != nil {
		return Check{Name: name, Issues: 1, Details: []string{err.Error()}}
	}
	return Check{Name: name, Passed: n == 0, Issues: n}
}
