package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Violation dates are stored as YYYY-MM-DD text, so year and month are
// plain substrings. substr works the same in SQLite, MySQL/Dolt and
// PostgreSQL, unlike strftime/EXTRACT.
const (
	yearExpr  = "substr(Violation_Date, 1, 4)"
	monthExpr = "substr(Violation_Date, 6, 2)"
)

// ViolationsOnDate counts red light and speed violations recorded on date.
func (s *Store) ViolationsOnDate(ctx context.Context, date string) (Pair, error) {
	var p Pair
	var err error
	if p.Red, err = s.count(ctx, "SELECT COUNT(*) FROM RedViolations WHERE Violation_Date = ?", date); err != nil {
		return Pair{}, fmt.Errorf("count red violations on %s: %w", date, err)
	}
	if p.Speed, err = s.count(ctx, "SELECT COUNT(*) FROM SpeedViolations WHERE Violation_Date = ?", date); err != nil {
		return Pair{}, fmt.Errorf("count speed violations on %s: %w", date, err)
	}
	return p, nil
}

// ViolationsInYear counts red light and speed violations recorded in year.
func (s *Store) ViolationsInYear(ctx context.Context, year string) (Pair, error) {
	var p Pair
	var err error
	if p.Red, err = s.count(ctx, "SELECT COUNT(*) FROM RedViolations WHERE "+yearExpr+" = ?", year); err != nil {
		return Pair{}, fmt.Errorf("count red violations in %s: %w", year, err)
	}
	if p.Speed, err = s.count(ctx, "SELECT COUNT(*) FROM SpeedViolations WHERE "+yearExpr+" = ?", year); err != nil {
		return Pair{}, fmt.Errorf("count speed violations in %s: %w", year, err)
	}
	return p, nil
}

// ViolationsByIntersection counts a category's violations in year per
// intersection, in intersection id order.
func (s *Store) ViolationsByIntersection(ctx context.Context, cat Category, year string) ([]NamedCount, error) {
	t, err := tablesFor(cat)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, fmt.Sprintf(`
		SELECT Intersections.Intersection, COUNT(%[2]s.Violation_ID)
		FROM %[2]s
		JOIN %[1]s ON %[2]s.Camera_ID = %[1]s.Camera_ID
		JOIN Intersections ON %[1]s.Intersection_ID = Intersections.Intersection_ID
		WHERE substr(%[2]s.Violation_Date, 1, 4) = ?
		GROUP BY Intersections.Intersection_ID, Intersections.Intersection
		ORDER BY Intersections.Intersection_ID ASC`, t.cameras, t.violations), year)
	if err != nil {
		return nil, fmt.Errorf("query %s violations by intersection in %s: %w", cat, year, err)
	}
	defer rows.Close()

	return scanNamedCounts(rows)
}

// ViolationsByYear counts a camera's violations of a category per year.
// A camera id that is not an integer matches nothing.
func (s *Store) ViolationsByYear(ctx context.Context, cat Category, camera string) ([]NamedCount, error) {
	t, err := tablesFor(cat)
	if err != nil {
		return nil, err
	}
	id, ok := parseCameraID(camera)
	if !ok {
		return nil, nil
	}
	rows, err := s.query(ctx, fmt.Sprintf(`
		SELECT %[2]s, COUNT(*) FROM %[1]s
		WHERE Camera_ID = ?
		GROUP BY %[2]s
		ORDER BY %[2]s ASC`, t.violations, yearExpr), id)
	if err != nil {
		return nil, fmt.Errorf("query %s violations by year for camera %d: %w", cat, id, err)
	}
	defer rows.Close()

	return scanNamedCounts(rows)
}

// ViolationsByMonth counts a camera's violations of a category in year per
// two-digit month.
func (s *Store) ViolationsByMonth(ctx context.Context, cat Category, camera, year string) ([]NamedCount, error) {
	t, err := tablesFor(cat)
	if err != nil {
		return nil, err
	}
	id, ok := parseCameraID(camera)
	if !ok {
		return nil, nil
	}
	rows, err := s.query(ctx, fmt.Sprintf(`
		SELECT %[2]s, COUNT(*) FROM %[1]s
		WHERE Camera_ID = ? AND %[3]s = ?
		GROUP BY %[2]s
		ORDER BY %[2]s ASC`, t.violations, monthExpr, yearExpr), id, year)
	if err != nil {
		return nil, fmt.Errorf("query %s violations by month for camera %d in %s: %w", cat, id, year, err)
	}
	defer rows.Close()

	return scanNamedCounts(rows)
}

func scanNamedCounts(rows *sql.Rows) ([]NamedCount, error) {
	var out []NamedCount
	for rows.Next() {
		var nc NamedCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}

func parseCameraID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return id, err == nil
}
