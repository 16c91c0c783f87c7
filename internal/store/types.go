package store

// Category distinguishes the two camera/violation record sets.
type Category string

const (
	// RedLight selects RedCameras and RedViolations.
	RedLight Category = "red"
	// Speed selects SpeedCameras and SpeedViolations.
	Speed Category = "speed"
)

// tables maps a category to its camera and violation tables.
var tables = map[Category]struct{ cameras, violations string }{
	RedLight: {"RedCameras", "RedViolations"},
	Speed:    {"SpeedCameras", "SpeedViolations"},
}

// Intersection is an intersection search hit with its speed camera count.
type Intersection struct {
	ID           int64  `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	SpeedCameras int64  `json:"speed_cameras" yaml:"speed_cameras"`
}

// Camera is a red light or speed camera.
type Camera struct {
	ID      int64  `json:"id" yaml:"id"`
	Address string `json:"address" yaml:"address"`
}

// IntersectionCount is a per-intersection camera count.
type IntersectionCount struct {
	ID    int64  `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Count int64  `json:"count" yaml:"count"`
}

// NamedCount is a count keyed by a group label: an intersection name, a
// four-digit year or a two-digit month.
type NamedCount struct {
	Name  string `json:"name" yaml:"name"`
	Count int64  `json:"count" yaml:"count"`
}

// Pair holds a red light total and a speed total.
type Pair struct {
	Red   int64 `json:"red" yaml:"red"`
	Speed int64 `json:"speed" yaml:"speed"`
}

// Total returns Red + Speed.
func (p Pair) Total() int64 {
	return p.Red + p.Speed
}
