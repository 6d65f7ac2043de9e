package inkwell

import "math"

const (
	defaultHitRadius    = 20
	rotateHandleOffset  = 30
	minDragDistance     = 1e-6
	minHandleScaleRatio = 1e-3
)

// TransformMode selects the handle layout and how scale handles behave.
type TransformMode uint8

const (
	ModeFree        TransformMode = iota // aspect lock follows the settings
	ModeUniform                          // scale handles keep the aspect ratio
	ModeDistort                          // scale handles change each axis freely
	ModePerspective                      // four free corner handles
	ModeWarp                             // grid of mesh control points
)

func (m TransformMode) String() string {
	switch m {
	case ModeFree:
		return "free"
	case ModeUniform:
		return "uniform"
	case ModeDistort:
		return "distort"
	case ModePerspective:
		return "perspective"
	case ModeWarp:
		return "warp"
	default:
		return "unknown"
	}
}

// HandleKind identifies what a handle drives.
type HandleKind uint8

const (
	HandleMove        HandleKind = iota // drag inside the bounds
	HandleCorner                        // corner of the transformed bounds
	HandleEdge                          // edge midpoint of the transformed bounds
	HandleRotate                        // above the top edge
	HandlePerspective                   // perspective quad corner
	HandleWarp                          // warp mesh vertex
)

func (k HandleKind) String() string {
	switch k {
	case HandleMove:
		return "move"
	case HandleCorner:
		return "corner"
	case HandleEdge:
		return "edge"
	case HandleRotate:
		return "rotate"
	case HandlePerspective:
		return "perspective"
	case HandleWarp:
		return "warp"
	default:
		return "unknown"
	}
}

// Handle is an interactive control point in canvas coordinates. Index
// orders corners and edges clockwise from the top-left corner or top edge;
// warp handles are indexed row-major.
type Handle struct {
	Kind     HandleKind
	Index    int
	Position Vec2
}

// scaleHandles lays out the corner, edge and rotate handles around tb.
func scaleHandles(tb Rect) []Handle {
	c := tb.Corners()
	hs := make([]Handle, 0, 9)
	for i, p := range c {
		hs = append(hs, Handle{Kind: HandleCorner, Index: i, Position: p})
	}
	for i := range c {
		mid := c[i].Add(c[(i+1)%4]).Scale(0.5)
		hs = append(hs, Handle{Kind: HandleEdge, Index: i, Position: mid})
	}
	ctr := tb.Center()
	hs = append(hs, Handle{Kind: HandleRotate, Position: Vec2{ctr.X, tb.Y - rotateHandleOffset}})
	return hs
}

func perspectiveHandles(quad [4]Vec2) []Handle {
	hs := make([]Handle, 4)
	for i, p := range quad {
		hs[i] = Handle{Kind: HandlePerspective, Index: i, Position: p}
	}
	return hs
}

func warpHandles(pts []Vec2) []Handle {
	hs := make([]Handle, len(pts))
	for i, p := range pts {
		hs[i] = Handle{Kind: HandleWarp, Index: i, Position: p}
	}
	return hs
}

// hitHandle returns the handle nearest to p whose square hit area of the
// given half-size contains p.
func hitHandle(handles []Handle, p Vec2, radius float64) (Handle, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, h := range handles {
		if math.Abs(p.X-h.Position.X) > radius || math.Abs(p.Y-h.Position.Y) > radius {
			continue
		}
		if d := p.Dist(h.Position); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Handle{}, false
	}
	return handles[best], true
}

// dragState is the snapshot taken when a handle drag begins. Every drag
// update is computed from it, not from the previous update, so results do
// not accumulate error.
type dragState struct {
	handle  Handle
	start   Vec2
	params  Params
	center  Vec2
	corners [4]Vec2
	mesh    *WarpMesh
}

// rotateVec rotates v by r radians.
func rotateVec(v Vec2, r float64) Vec2 {
	sin, cos := math.Sincos(r)
	return Vec2{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

// axisRatio returns |cur|/|start|, or 1 when the start is too close to the
// axis to give a meaningful ratio.
func axisRatio(cur, start float64) float64 {
	if math.Abs(start) < minDragDistance {
		return 1
	}
	return math.Max(math.Abs(cur)/math.Abs(start), minHandleScaleRatio)
}

// moveUpdate translates by the drag delta.
func (d *dragState) moveUpdate(p Vec2) ParamUpdate {
	delta := p.Sub(d.start)
	return ParamUpdate{X: Ptr(d.params.X + delta.X), Y: Ptr(d.params.Y + delta.Y)}
}

// cornerUpdate scales by the ratio of the current to the starting distance
// from the bounds center. Unlocked, each axis uses its own ratio measured in
// the content's rotated frame.
func (d *dragState) cornerUpdate(p Vec2, locked bool) ParamUpdate {
	cur := p.Sub(d.center)
	start := d.start.Sub(d.center)
	if locked {
		r := axisRatio(cur.Len(), start.Len())
		return ParamUpdate{ScaleX: Ptr(d.params.ScaleX * r), ScaleY: Ptr(d.params.ScaleY * r)}
	}
	lc := rotateVec(cur, -d.params.Rotation)
	ls := rotateVec(start, -d.params.Rotation)
	return ParamUpdate{
		ScaleX: Ptr(d.params.ScaleX * axisRatio(lc.X, ls.X)),
		ScaleY: Ptr(d.params.ScaleY * axisRatio(lc.Y, ls.Y)),
	}
}

// edgeUpdate scales the axis perpendicular to the dragged edge. Locked, the
// other axis follows by the same ratio.
func (d *dragState) edgeUpdate(p Vec2, locked bool) ParamUpdate {
	lc := rotateVec(p.Sub(d.center), -d.params.Rotation)
	ls := rotateVec(d.start.Sub(d.center), -d.params.Rotation)
	var r float64
	vertical := d.handle.Index%2 == 0
	if vertical {
		r = axisRatio(lc.Y, ls.Y)
	} else {
		r = axisRatio(lc.X, ls.X)
	}
	switch {
	case locked:
		return ParamUpdate{ScaleX: Ptr(d.params.ScaleX * r), ScaleY: Ptr(d.params.ScaleY * r)}
	case vertical:
		return ParamUpdate{ScaleY: Ptr(d.params.ScaleY * r)}
	default:
		return ParamUpdate{ScaleX: Ptr(d.params.ScaleX * r)}
	}
}

// rotateUpdate turns by the change in angle of the touch around the bounds
// center since the drag began.
func (d *dragState) rotateUpdate(p Vec2) ParamUpdate {
	cur := p.Sub(d.center)
	start := d.start.Sub(d.center)
	if cur.Len() < minDragDistance || start.Len() < minDragDistance {
		return ParamUpdate{}
	}
	delta := math.Atan2(cur.Y, cur.X) - math.Atan2(start.Y, start.X)
	return ParamUpdate{Rotation: Ptr(normalizeAngle(d.params.Rotation + delta))}
}
