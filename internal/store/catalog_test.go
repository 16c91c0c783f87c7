package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/store/storetest"
)

func TestCameraCount(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	red, err := st.CameraCount(ctx, RedLight)
	if err != nil {
		t.Fatalf("count red: %v", err)
	}
	if red != 4 {
		t.Errorf("red cameras = %d, want 4", red)
	}

	speed, err := st.CameraCount(ctx, Speed)
	if err != nil {
		t.Fatalf("count speed: %v", err)
	}
	if speed != 9 {
		t.Errorf("speed cameras = %d, want 9", speed)
	}
}

func TestUnknownCategory(t *testing.T) {
	st := testStore(t)
	if _, err := st.CameraCount(context.Background(), Category("bus")); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestFindIntersectionsOrdering(t *testing.T) {
	st := testStore(t)

	got, err := st.FindIntersections(context.Background(), "Main%")
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	want := []Intersection{
		{ID: 7, Name: "Main St and Oak St", SpeedCameras: 3},
		{ID: 10, Name: "Main St and Elm St", SpeedCameras: 3},
		{ID: 1, Name: "Main St and 1st Ave", SpeedCameras: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindIntersections = %+v, want %+v", got, want)
	}

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.SpeedCameras < cur.SpeedCameras ||
			(prev.SpeedCameras == cur.SpeedCameras && prev.ID > cur.ID) {
			t.Errorf("rows %d and %d out of order: %+v, %+v", i-1, i, prev, cur)
		}
	}
}

func TestFindIntersectionsWildcards(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	tests := []struct {
		pattern string
		wantIDs []int64
	}{
		{"Main", []int64{7, 10, 1}},
		{"%Lake", []int64{3}},
		{"Stat_ St", []int64{3}},
		{"Western", nil}, // no speed cameras there
		{"Nowhere", nil},
	}

	for _, tt := range tests {
		got, err := st.FindIntersections(ctx, tt.pattern)
		if err != nil {
			t.Fatalf("find %q: %v", tt.pattern, err)
		}
		var ids []int64
		for _, in := range got {
			ids = append(ids, in.ID)
		}
		if !reflect.DeepEqual(ids, tt.wantIDs) {
			t.Errorf("FindIntersections(%q) ids = %v, want %v", tt.pattern, ids, tt.wantIDs)
		}
	}
}

func TestCamerasAt(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	red, err := st.CamerasAt(ctx, RedLight, "Main St and 1st Ave")
	if err != nil {
		t.Fatalf("red cameras: %v", err)
	}
	wantRed := []Camera{{101, "1 W Main St"}, {102, "2 W Main St"}}
	if !reflect.DeepEqual(red, wantRed) {
		t.Errorf("red = %+v, want %+v", red, wantRed)
	}

	speed, err := st.CamerasAt(ctx, Speed, "Halsted St and Madison St")
	if err != nil {
		t.Fatalf("speed cameras: %v", err)
	}
	if len(speed) != 0 {
		t.Errorf("expected no speed cameras at Halsted, got %+v", speed)
	}

	// Exact match only: wildcards are literal here.
	none, err := st.CamerasAt(ctx, RedLight, "Main%")
	if err != nil {
		t.Fatalf("red cameras: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected exact match semantics, got %+v", none)
	}
}

func TestCamerasOnStreet(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	red, err := st.CamerasOnStreet(ctx, RedLight, "State")
	if err != nil {
		t.Fatalf("red: %v", err)
	}
	if len(red) != 0 {
		t.Errorf("expected no red cameras on State, got %+v", red)
	}

	speed, err := st.CamerasOnStreet(ctx, Speed, "State")
	if err != nil {
		t.Fatalf("speed: %v", err)
	}
	want := []Camera{{208, "300 N State St"}, {209, "310 N State St"}}
	if !reflect.DeepEqual(speed, want) {
		t.Errorf("speed = %+v, want %+v", speed, want)
	}
}

func TestCamerasPerIntersectionSumsToTotal(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	for _, cat := range []Category{RedLight, Speed} {
		rows, err := st.CamerasPerIntersection(ctx, cat)
		if err != nil {
			t.Fatalf("%s per intersection: %v", cat, err)
		}
		total, err := st.CameraCount(ctx, cat)
		if err != nil {
			t.Fatalf("%s count: %v", cat, err)
		}

		var sum int64
		for i, r := range rows {
			sum += r.Count
			if i > 0 && rows[i-1].Count < r.Count {
				t.Errorf("%s rows not ordered by count desc: %+v", cat, rows)
			}
		}
		if sum != total {
			t.Errorf("%s per-intersection sum = %d, want total %d", cat, sum, total)
		}
	}

	red, _ := st.CamerasPerIntersection(ctx, RedLight)
	want := []IntersectionCount{
		{1, "Main St and 1st Ave", 2},
		{3, "State St and Lake St", 1},
		{4, "Halsted St and Madison St", 1},
	}
	if !reflect.DeepEqual(red, want) {
		t.Errorf("red per intersection = %+v, want %+v", red, want)
	}
}

func TestViolationsOnDate(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	got, err := st.ViolationsOnDate(ctx, "2023-07-04")
	if err != nil {
		t.Fatalf("on date: %v", err)
	}
	if got != (Pair{Red: 1, Speed: 2}) {
		t.Errorf("2023-07-04 = %+v, want {1 2}", got)
	}

	empty, err := st.ViolationsOnDate(ctx, "2023-01-01")
	if err != nil {
		t.Fatalf("on date: %v", err)
	}
	if empty.Total() != 0 {
		t.Errorf("2023-01-01 = %+v, want zero", empty)
	}

	// Malformed input simply matches nothing.
	bad, err := st.ViolationsOnDate(ctx, "07/04/2023")
	if err != nil {
		t.Fatalf("malformed date: %v", err)
	}
	if bad.Total() != 0 {
		t.Errorf("malformed date = %+v, want zero", bad)
	}
}

func TestViolationsInYear(t *testing.T) {
	st := testStore(t)

	got, err := st.ViolationsInYear(context.Background(), "2022")
	if err != nil {
		t.Fatalf("in year: %v", err)
	}
	if got != (Pair{Red: 4, Speed: 4}) {
		t.Errorf("2022 = %+v, want {4 4}", got)
	}
}

func TestViolationsByIntersection(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	red, err := st.ViolationsByIntersection(ctx, RedLight, "2023")
	if err != nil {
		t.Fatalf("red: %v", err)
	}
	wantRed := []NamedCount{{"Main St and 1st Ave", 1}, {"Halsted St and Madison St", 1}}
	if !reflect.DeepEqual(red, wantRed) {
		t.Errorf("red = %+v, want %+v", red, wantRed)
	}

	speed, err := st.ViolationsByIntersection(ctx, Speed, "2023")
	if err != nil {
		t.Fatalf("speed: %v", err)
	}
	wantSpeed := []NamedCount{{"State St and Lake St", 1}, {"Main St and Oak St", 1}}
	if !reflect.DeepEqual(speed, wantSpeed) {
		t.Errorf("speed = %+v, want %+v", speed, wantSpeed)
	}
}

func TestViolationsByYear(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	red, err := st.ViolationsByYear(ctx, RedLight, "101")
	if err != nil {
		t.Fatalf("red: %v", err)
	}
	wantRed := []NamedCount{{"2021", 1}, {"2022", 3}, {"2023", 1}}
	if !reflect.DeepEqual(red, wantRed) {
		t.Errorf("red = %+v, want %+v", red, wantRed)
	}

	speed, err := st.ViolationsByYear(ctx, Speed, "101")
	if err != nil {
		t.Fatalf("speed: %v", err)
	}
	wantSpeed := []NamedCount{{"2022", 3}}
	if !reflect.DeepEqual(speed, wantSpeed) {
		t.Errorf("speed = %+v, want %+v", speed, wantSpeed)
	}

	none, err := st.ViolationsByYear(ctx, RedLight, "abc")
	if err != nil {
		t.Fatalf("non-numeric camera: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("non-numeric camera matched %+v", none)
	}
}

func TestViolationsByMonth(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	red, err := st.ViolationsByMonth(ctx, RedLight, "101", "2022")
	if err != nil {
		t.Fatalf("red: %v", err)
	}
	wantRed := []NamedCount{{"01", 2}, {"02", 1}}
	if !reflect.DeepEqual(red, wantRed) {
		t.Errorf("red = %+v, want %+v", red, wantRed)
	}

	speed, err := st.ViolationsByMonth(ctx, Speed, "101", "2022")
	if err != nil {
		t.Fatalf("speed: %v", err)
	}
	wantSpeed := []NamedCount{{"01", 1}, {"03", 2}}
	if !reflect.DeepEqual(speed, wantSpeed) {
		t.Errorf("speed = %+v, want %+v", speed, wantSpeed)
	}
}

func TestEmptyDatabase(t *testing.T) {
	st := openFixture(t, storetest.Empty(t))
	ctx := context.Background()

	n, err := st.CameraCount(ctx, RedLight)
	if err != nil || n != 0 {
		t.Errorf("CameraCount = %d, %v; want 0, nil", n, err)
	}

	rows, err := st.CamerasPerIntersection(ctx, RedLight)
	if err != nil || len(rows) != 0 {
		t.Errorf("CamerasPerIntersection = %+v, %v; want empty", rows, err)
	}

	months, err := st.ViolationsByMonth(ctx, Speed, "1", "2022")
	if err != nil || len(months) != 0 {
		t.Errorf("ViolationsByMonth = %+v, %v; want empty", months, err)
	}
}
