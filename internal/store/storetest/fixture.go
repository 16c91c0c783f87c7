// Package storetest builds SQLite fixture databases with the traffic camera
// schema for tests.
package storetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// SchemaSQL mirrors the tables of the distributed camera database.
const SchemaSQL = `
CREATE TABLE Intersections (
    Intersection_ID INTEGER PRIMARY KEY,
    Intersection TEXT NOT NULL
);

CREATE TABLE RedCameras (
    Camera_ID INTEGER PRIMARY KEY,
    Intersection_ID INTEGER NOT NULL REFERENCES Intersections(Intersection_ID),
    Address TEXT NOT NULL
);

CREATE TABLE SpeedCameras (
    Camera_ID INTEGER PRIMARY KEY,
    Intersection_ID INTEGER NOT NULL REFERENCES Intersections(Intersection_ID),
    Address TEXT NOT NULL
);

CREATE TABLE RedViolations (
    Violation_ID INTEGER PRIMARY KEY AUTOINCREMENT,
    Camera_ID INTEGER NOT NULL REFERENCES RedCameras(Camera_ID),
    Violation_Date TEXT NOT NULL,
    Num_Violations INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE SpeedViolations (
    Violation_ID INTEGER PRIMARY KEY AUTOINCREMENT,
    Camera_ID INTEGER NOT NULL REFERENCES SpeedCameras(Camera_ID),
    Violation_Date TEXT NOT NULL,
    Num_Violations INTEGER NOT NULL DEFAULT 1
);
`

// Intersection is a fixture row for Intersections.
type Intersection struct {
	ID   int64
	Name string
}

// Camera is a fixture row for RedCameras or SpeedCameras.
type Camera struct {
	ID           int64
	Intersection int64
	Address      string
}

// Violation is a fixture row for RedViolations or SpeedViolations.
type Violation struct {
	Camera int64
	Date   string
}

// Dataset is the content written into a fixture database.
type Dataset struct {
	Intersections   []Intersection
	RedCameras      []Camera
	SpeedCameras    []Camera
	RedViolations   []Violation
	SpeedViolations []Violation
}

// Default is the dataset most tests run against.
//
// Notable shapes:
//   - "Main St..." intersections 7 and 10 tie at three speed cameras.
//   - camera 101 exists in both camera tables; its red violations span
//     2021-2023 while its speed violations only cover 2022.
//   - only speed camera addresses contain "State".
//   - intersection 5 has no cameras at all.
var Default = Dataset{
	Intersections: []Intersection{
		{1, "Main St and 1st Ave"},
		{3, "State St and Lake St"},
		{4, "Halsted St and Madison St"},
		{5, "Western Ave and 63rd St"},
		{7, "Main St and Oak St"},
		{10, "Main St and Elm St"},
	},
	RedCameras: []Camera{
		{101, 1, "1 W Main St"},
		{102, 1, "2 W Main St"},
		{103, 4, "800 W Madison St"},
		{104, 3, "20 E Lake St"},
	},
	SpeedCameras: []Camera{
		{101, 1, "1 W Main St"},
		{201, 7, "100 N Main St"},
		{202, 7, "120 N Main St"},
		{203, 7, "140 N Main St"},
		{204, 10, "500 S Main St"},
		{205, 10, "520 S Main St"},
		{206, 10, "540 S Main St"},
		{208, 3, "300 N State St"},
		{209, 3, "310 N State St"},
	},
	RedViolations: []Violation{
		{101, "2021-03-05"},
		{101, "2022-01-10"},
		{101, "2022-01-15"},
		{101, "2022-02-01"},
		{101, "2023-06-30"},
		{103, "2022-01-20"},
		{103, "2023-07-04"},
	},
	SpeedViolations: []Violation{
		{101, "2022-01-11"},
		{101, "2022-03-02"},
		{101, "2022-03-03"},
		{201, "2022-05-05"},
		{201, "2023-07-04"},
		{208, "2023-07-04"},
	},
}

// New writes the Default dataset to a fresh SQLite file and returns its path.
func New(t testing.TB) string {
	t.Helper()
	return Build(t, Default)
}

// Empty writes the schema with no rows and returns the file path.
func Empty(t testing.TB) string {
	t.Helper()
	return Build(t, Dataset{})
}

// Build writes ds to a fresh SQLite file under t.TempDir and returns its path.
func Build(t testing.TB, ds Dataset) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cameras.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(SchemaSQL); err != nil {
		t.Fatalf("create fixture schema: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin fixture tx: %v", err)
	}
	defer tx.Rollback()

	for _, in := range ds.Intersections {
		mustExec(t, tx, "INSERT INTO Intersections (Intersection_ID, Intersection) VALUES (?, ?)", in.ID, in.Name)
	}
	for _, c := range ds.RedCameras {
		mustExec(t, tx, "INSERT INTO RedCameras (Camera_ID, Intersection_ID, Address) VALUES (?, ?, ?)", c.ID, c.Intersection, c.Address)
	}
	for _, c := range ds.SpeedCameras {
		mustExec(t, tx, "INSERT INTO SpeedCameras (Camera_ID, Intersection_ID, Address) VALUES (?, ?, ?)", c.ID, c.Intersection, c.Address)
	}
	for _, v := range ds.RedViolations {
		mustExec(t, tx, "INSERT INTO RedViolations (Camera_ID, Violation_Date) VALUES (?, ?)", v.Camera, v.Date)
	}
	for _, v := range ds.SpeedViolations {
		mustExec(t, tx, "INSERT INTO SpeedViolations (Camera_ID, Violation_Date) VALUES (?, ?)", v.Camera, v.Date)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit fixture: %v", err)
	}
	return path
}

func mustExec(t testing.TB, tx *sql.Tx, query string, args ...any) {
	t.Helper()
	if _, err := tx.Exec(query, args...); err != nil {
		t.Fatalf("fixture exec %q: %v", query, err)
	}
}
