package store

import (
	"context"
	"fmt"
)

// FindIntersections searches intersections whose name starts with pattern.
// A trailing % is appended, so the caller's % and _ wildcards keep their
// LIKE meaning. Only intersections with at least one speed camera match.
// Results are ordered by speed camera count descending, then id ascending.
func (s *Store) FindIntersections(ctx context.Context, pattern string) ([]Intersection, error) {
	rows, err := s.query(ctx, `
		SELECT
			Intersections.Intersection_ID,
			Intersections.Intersection,
			COUNT(SpeedCameras.Camera_ID) AS num_speed_cameras
		FROM SpeedCameras
		JOIN Intersections ON SpeedCameras.Intersection_ID = Intersections.Intersection_ID
		WHERE Intersections.Intersection LIKE ?
		GROUP BY Intersections.Intersection_ID, Intersections.Intersection
		ORDER BY num_speed_cameras DESC, Intersections.Intersection_ID ASC`, pattern+"%")
	if err != nil {
		return nil, fmt.Errorf("query intersections like %q: %w", pattern, err)
	}
	defer rows.Close()

	var out []Intersection
	for rows.Next() {
		var in Intersection
		if err := rows.Scan(&in.ID, &in.Name, &in.SpeedCameras); err != nil {
			return nil, fmt.Errorf("scan intersection: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
