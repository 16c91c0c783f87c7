package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CameraCount returns the number of cameras in a category.
func (s *Store) CameraCount(ctx context.Context, cat Category) (int64, error) {
	t, err := tablesFor(cat)
	if err != nil {
		return 0, err
	}
	n, err := s.count(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", t.cameras))
	if err != nil {
		return 0, fmt.Errorf("count %s cameras: %w", cat, err)
	}
	return n, nil
}

// CamerasPerIntersection counts the cameras of a category at every
// intersection that has at least one, largest count first.
func (s *Store) CamerasPerIntersection(ctx context.Context, cat Category) ([]IntersectionCount, error) {
	t, err := tablesFor(cat)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, fmt.Sprintf(`
		SELECT Intersections.Intersection_ID, Intersections.Intersection, COUNT(%[1]s.Camera_ID)
		FROM %[1]s
		JOIN Intersections ON %[1]s.Intersection_ID = Intersections.Intersection_ID
		GROUP BY Intersections.Intersection_ID, Intersections.Intersection
		ORDER BY COUNT(%[1]s.Camera_ID) DESC, Intersections.Intersection_ID ASC`, t.cameras))
	if err != nil {
		return nil, fmt.Errorf("query %s cameras per intersection: %w", cat, err)
	}
	defer rows.Close()

	var out []IntersectionCount
	for rows.Next() {
		var ic IntersectionCount
		if err := rows.Scan(&ic.ID, &ic.Name, &ic.Count); err != nil {
			return nil, fmt.Errorf("scan %s cameras per intersection: %w", cat, err)
		}
		out = append(out, ic)
	}
	return out, rows.Err()
}

// CamerasAt returns the cameras of a category at the intersection with
// exactly the given name, ordered by camera id.
func (s *Store) CamerasAt(ctx context.Context, cat Category, intersection string) ([]Camera, error) {
	t, err := tablesFor(cat)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, fmt.Sprintf(`
		SELECT %[1]s.Camera_ID, %[1]s.Address
		FROM %[1]s
		JOIN Intersections ON %[1]s.Intersection_ID = Intersections.Intersection_ID
		WHERE Intersections.Intersection = ?
		ORDER BY %[1]s.Camera_ID ASC`, t.cameras), intersection)
	if err != nil {
		return nil, fmt.Errorf("query %s cameras at %q: %w", cat, intersection, err)
	}
	defer rows.Close()

	return scanCameras(rows)
}

// CamerasOnStreet returns the cameras of a category whose address contains
// street. LIKE wildcards in street are passed through.
func (s *Store) CamerasOnStreet(ctx context.Context, cat Category, street string) ([]Camera, error) {
	t, err := tablesFor(cat)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, fmt.Sprintf(`
		SELECT %[1]s.Camera_ID, %[1]s.Address
		FROM %[1]s
		WHERE %[1]s.Address LIKE ?
		ORDER BY %[1]s.Camera_ID ASC`, t.cameras), "%"+street+"%")
	if err != nil {
		return nil, fmt.Errorf("query %s cameras on %q: %w", cat, street, err)
	}
	defer rows.Close()

	return scanCameras(rows)
}

func scanCameras(rows *sql.Rows) ([]Camera, error) {
	var out []Camera
	for rows.Next() {
		var c Camera
		if err := rows.Scan(&c.ID, &c.Address); err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func tablesFor(cat Category) (struct{ cameras, violations string }, error) {
	t, ok := tables[cat]
	if !ok {
		return t, fmt.Errorf("unknown camera category %q", cat)
	}
	return t, nil
}
