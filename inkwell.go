package inkwell

import (
	"errors"
	"math"
)

// Sentinel errors. Operations wrap them with context; test with errors.Is.
var (
	// ErrNoSession is returned by transform operations called while no
	// session is active.
	ErrNoSession = errors.New("inkwell: no active transform session")
	// ErrCaptureFailed is returned when a target's content cannot be captured.
	ErrCaptureFailed = errors.New("inkwell: capture failed")
	// ErrRenderFailed is returned when a final render cannot be produced.
	ErrRenderFailed = errors.New("inkwell: render failed")
	// ErrUnknownLayer is returned by surface providers for a missing layer.
	ErrUnknownLayer = errors.New("inkwell: unknown layer")
	// ErrHistoryBounds is returned by undo or redo past either end of history.
	ErrHistoryBounds = errors.New("inkwell: history bounds")
)

// Vec2 is a 2D vector used for positions, offsets, sizes, and directions
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v multiplied by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the Euclidean distance between v and o.
func (v Vec2) Dist(o Vec2) float64 { return math.Hypot(v.X-o.X, v.Y-o.Y) }

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec2 {
	return Vec2{r.X + r.Width/2, r.Y + r.Height/2}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Corners returns the four corners in clockwise order starting top-left.
func (r Rect) Corners() [4]Vec2 {
	return [4]Vec2{
		{r.X, r.Y},
		{r.X + r.Width, r.Y},
		{r.X + r.Width, r.Y + r.Height},
		{r.X, r.Y + r.Height},
	}
}

// rectFromPoints returns the axis-aligned bounding box of pts.
func rectFromPoints(pts []Vec2) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// TouchID identifies a physical contact. It is stable from contact start
// until release.
type TouchID int64

// TouchKind is the hardware classification of a contact.
type TouchKind uint8

const (
	TouchDirect   TouchKind = iota // finger on the glass
	TouchStylus                    // active stylus carrying force and tilt
	TouchIndirect                  // trackpad or other indirect pointer
)

func (k TouchKind) String() string {
	switch k {
	case TouchDirect:
		return "direct"
	case TouchStylus:
		return "stylus"
	case TouchIndirect:
		return "indirect"
	default:
		return "unknown"
	}
}

// SampleFlags records which optional hardware fields a sample carries.
// Values can be combined with bitwise OR.
type SampleFlags uint8

const (
	FlagForce    SampleFlags = 1 << iota // Force is valid
	FlagAltitude                         // Altitude is valid
	FlagAzimuth                          // Azimuth is valid
	FlagRadius                           // MajorRadius/MinorRadius are valid
)

// TouchSample is one hardware report for a contact. A new sample with the
// same ID supersedes the previous one on each update.
type TouchSample struct {
	ID       TouchID
	Kind     TouchKind
	Position Vec2
	// Force is the raw normalized force, expected in [0, 1].
	Force float64
	// Altitude is the pen angle from the surface in radians, pi/2 = perpendicular.
	Altitude float64
	// Azimuth is the pen direction around the contact point in radians.
	Azimuth     float64
	MajorRadius float64
	MinorRadius float64
	// Timestamp is the hardware time in milliseconds.
	Timestamp float64
	Flags     SampleFlags
}

// normalize defaults absent or out-of-range fields so downstream stages never
// see NaN or missing data. Absent force becomes 0; absent altitude becomes
// pi/2 (no tilt).
func (s TouchSample) normalize() TouchSample {
	if s.Flags&FlagForce == 0 || math.IsNaN(s.Force) {
		s.Force = 0
	}
	if s.Flags&FlagAltitude == 0 || math.IsNaN(s.Altitude) {
		s.Altitude = math.Pi / 2
	}
	s.Altitude = clamp(s.Altitude, 0, math.Pi/2)
	if s.Flags&FlagAzimuth == 0 || math.IsNaN(s.Azimuth) {
		s.Azimuth = 0
	}
	s.Azimuth = math.Mod(s.Azimuth, 2*math.Pi)
	if s.Azimuth < 0 {
		s.Azimuth += 2 * math.Pi
	}
	if s.Flags&FlagRadius == 0 || math.IsNaN(s.MajorRadius) || s.MajorRadius < 0 {
		s.MajorRadius = 0
		s.MinorRadius = 0
	}
	return s
}

// valid reports whether the sample has a usable position.
func (s TouchSample) valid() bool {
	return !math.IsNaN(s.Position.X) && !math.IsNaN(s.Position.Y) &&
		!math.IsInf(s.Position.X, 0) && !math.IsInf(s.Position.Y, 0)
}

// TouchFrame is the set of contacts live at one hardware report. A contact
// present in the previous drained frame and absent from this one has ended.
type TouchFrame struct {
	Timestamp float64
	Touches   []TouchSample
}

// StrokePoint is one processed stylus point, ready for a stroke renderer.
type StrokePoint struct {
	Position  Vec2
	Pressure  float64
	Tilt      TiltVector
	Altitude  float64
	Azimuth   float64
	Timestamp float64
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
