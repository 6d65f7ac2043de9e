package inkwell

import "math"

// GestureType is the committed kind of a finger gesture.
type GestureType uint8

const (
	GestureTap    GestureType = iota // short two- or three-finger touch without travel
	GesturePinch                     // distance between two fingers changed (zoom)
	GestureRotate                    // angle between two fingers changed
	GesturePan                       // two-finger centroid moved
)

func (g GestureType) String() string {
	switch g {
	case GestureTap:
		return "tap"
	case GesturePinch:
		return "pinch"
	case GestureRotate:
		return "rotate"
	case GesturePan:
		return "pan"
	default:
		return "unknown"
	}
}

// GesturePhase is the lifecycle stage of a continuous gesture. Taps are
// always reported as PhaseEnded.
type GesturePhase uint8

const (
	PhaseBegan GesturePhase = iota
	PhaseChanged
	PhaseEnded
)

// GestureEvent describes one recognized gesture frame. Scale, Rotation and
// Translation are relative to the cluster baseline captured when the
// fingers landed; the Delta fields are relative to the previous event.
type GestureEvent struct {
	Type    GestureType
	Phase   GesturePhase
	Fingers int

	Centroid Vec2
	Distance float64
	Angle    float64

	Scale       float64
	Rotation    float64
	Translation Vec2

	DeltaScale       float64
	DeltaRotation    float64
	DeltaTranslation Vec2
}

// ClusterKind is the instantaneous classification of a finger cluster.
type ClusterKind uint8

const (
	ClusterNone        ClusterKind = iota // no gesture candidate
	ClusterTwoFinger                      // pinch/rotate/pan candidate
	ClusterThreeFinger                    // three-finger tap candidate
)

// GestureCluster is the stateless per-frame geometry of the accepted finger
// touches. Distance and Angle are only set for two fingers.
type GestureCluster struct {
	Kind     ClusterKind
	Fingers  int
	Centroid Vec2
	Distance float64
	Angle    float64
}

// ClassifyGesture classifies the current finger touches. Stylus contacts
// must be excluded by the caller.
func ClassifyGesture(points []Vec2) GestureCluster {
	switch len(points) {
	case 2:
		d := points[1].Sub(points[0])
		return GestureCluster{
			Kind:     ClusterTwoFinger,
			Fingers:  2,
			Centroid: points[0].Add(points[1]).Scale(0.5),
			Distance: d.Len(),
			Angle:    math.Atan2(d.Y, d.X),
		}
	case 3:
		c := points[0].Add(points[1]).Add(points[2]).Scale(1.0 / 3)
		return GestureCluster{Kind: ClusterThreeFinger, Fingers: 3, Centroid: c}
	default:
		return GestureCluster{Kind: ClusterNone, Fingers: len(points)}
	}
}

// gestureTracker turns per-frame clusters into committed gestures. It keeps
// a baseline from the frame the cluster formed so scale and rotation are
// measured against it, and waits for all fingers to lift after a cluster
// ends before starting another.
type gestureTracker struct {
	cfg GestureConfig

	active      bool
	waitRelease bool
	fingers     int
	committed   bool
	kind        GestureType
	startTime   float64

	base      GestureCluster
	last      GestureCluster
	maxTravel float64

	prevScale       float64
	prevRotation    float64
	prevTranslation Vec2
}

// update consumes the cluster for one frame at time now (ms) and calls emit
// for every gesture event produced.
func (g *gestureTracker) update(c GestureCluster, now float64, emit func(GestureEvent)) {
	if g.active && c.Fingers != g.fingers {
		g.finish(c.Fingers < g.fingers, now, emit)
	}
	if c.Fingers == 0 {
		g.waitRelease = false
	}
	if !g.active {
		if c.Kind == ClusterNone || g.waitRelease {
			return
		}
		g.begin(c, now)
		return
	}

	g.last = c
	translation := c.Centroid.Sub(g.base.Centroid)
	travel := translation.Len()
	if c.Kind == ClusterTwoFinger {
		travel = math.Max(travel, math.Abs(c.Distance-g.base.Distance)/2)
	}
	g.maxTravel = math.Max(g.maxTravel, travel)

	if c.Kind != ClusterTwoFinger {
		return
	}

	scale := 1.0
	if g.base.Distance > 0 {
		scale = c.Distance / g.base.Distance
	}
	rotation := normalizeAngle(c.Angle - g.base.Angle)

	phase := PhaseChanged
	if !g.committed {
		switch {
		case math.Abs(scale-1) > g.cfg.PinchThreshold:
			g.kind = GesturePinch
		case math.Abs(rotation) > g.cfg.RotateThreshold:
			g.kind = GestureRotate
		case translation.Len() > g.cfg.PanThreshold:
			g.kind = GesturePan
		default:
			return
		}
		g.committed = true
		phase = PhaseBegan
	} else if scale == g.prevScale && rotation == g.prevRotation && translation == g.prevTranslation {
		return
	}

	emit(g.event(phase, scale, rotation, translation))
}

func (g *gestureTracker) begin(c GestureCluster, now float64) {
	g.active = true
	g.fingers = c.Fingers
	g.committed = false
	g.startTime = now
	g.base = c
	g.last = c
	g.maxTravel = 0
	g.prevScale = 1
	g.prevRotation = 0
	g.prevTranslation = Vec2{}
}

// finish ends the active cluster. lifted is true when fingers were removed
// rather than added.
func (g *gestureTracker) finish(lifted bool, now float64, emit func(GestureEvent)) {
	switch {
	case g.committed:
		ev := g.event(PhaseEnded, g.prevScale, g.prevRotation, g.prevTranslation)
		ev.DeltaScale, ev.DeltaRotation, ev.DeltaTranslation = 0, 0, Vec2{}
		emit(ev)
	case lifted && now-g.startTime <= g.cfg.TapMaxDuration && g.maxTravel <= g.cfg.TapSlop:
		emit(GestureEvent{
			Type:     GestureTap,
			Phase:    PhaseEnded,
			Fingers:  g.fingers,
			Centroid: g.last.Centroid,
			Distance: g.last.Distance,
			Angle:    g.last.Angle,
			Scale:    1,
		})
	}
	g.active = false
	g.committed = false
	if lifted {
		g.waitRelease = true
	}
}

func (g *gestureTracker) event(phase GesturePhase, scale, rotation float64, translation Vec2) GestureEvent {
	ev := GestureEvent{
		Type:        g.kind,
		Phase:       phase,
		Fingers:     g.fingers,
		Centroid:    g.last.Centroid,
		Distance:    g.last.Distance,
		Angle:       g.last.Angle,
		Scale:       scale,
		Rotation:    rotation,
		Translation: translation,
	}
	if g.prevScale > 0 {
		ev.DeltaScale = scale / g.prevScale
	}
	ev.DeltaRotation = normalizeAngle(rotation - g.prevRotation)
	ev.DeltaTranslation = translation.Sub(g.prevTranslation)
	g.prevScale = scale
	g.prevRotation = rotation
	g.prevTranslation = translation
	return ev
}

// reset drops any in-progress cluster without emitting.
func (g *gestureTracker) reset() {
	cfg := g.cfg
	*g = gestureTracker{cfg: cfg}
}

// normalizeAngle wraps a into (-pi, pi].
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
