package inkwell

// Params are the transform parameters of a session. Rotation and skew are in
// radians. Anchor is the pivot as a fraction of the captured bounds.
type Params struct {
	X, Y             float64
	ScaleX, ScaleY   float64
	Rotation         float64
	SkewX, SkewY     float64
	AnchorX, AnchorY float64
	FlipX, FlipY     bool
}

// IdentityParams returns parameters that leave content unchanged, pivoting
// around the center of the bounds.
func IdentityParams() Params {
	return Params{ScaleX: 1, ScaleY: 1, AnchorX: 0.5, AnchorY: 0.5}
}

// ParamUpdate is a partial change to Params. Nil fields are left alone.
// Scale sets both axis scales at once.
type ParamUpdate struct {
	X, Y             *float64
	Scale            *float64
	ScaleX, ScaleY   *float64
	Rotation         *float64
	SkewX, SkewY     *float64
	AnchorX, AnchorY *float64
	FlipX, FlipY     *bool
}

// Ptr returns a pointer to v. It is a convenience for building ParamUpdates.
func Ptr[T any](v T) *T {
	return &v
}

// merge applies u on top of p. With aspectLock set, a single-axis scale
// change keeps the previous ratio between the axes.
func (p Params) merge(u ParamUpdate, aspectLock bool) Params {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.X, u.X)
	set(&p.Y, u.Y)
	set(&p.Rotation, u.Rotation)
	set(&p.SkewX, u.SkewX)
	set(&p.SkewY, u.SkewY)
	set(&p.AnchorX, u.AnchorX)
	set(&p.AnchorY, u.AnchorY)
	if u.FlipX != nil {
		p.FlipX = *u.FlipX
	}
	if u.FlipY != nil {
		p.FlipY = *u.FlipY
	}

	switch {
	case u.Scale != nil:
		p.ScaleX, p.ScaleY = *u.Scale, *u.Scale
	case aspectLock && u.ScaleX != nil && u.ScaleY == nil:
		if p.ScaleX != 0 {
			p.ScaleY *= *u.ScaleX / p.ScaleX
		}
		p.ScaleX = *u.ScaleX
	case aspectLock && u.ScaleY != nil && u.ScaleX == nil:
		if p.ScaleY != 0 {
			p.ScaleX *= *u.ScaleY / p.ScaleY
		}
		p.ScaleY = *u.ScaleY
	default:
		set(&p.ScaleX, u.ScaleX)
		set(&p.ScaleY, u.ScaleY)
	}
	return p
}

// anchorPoint returns the pivot in canvas coordinates.
func (p Params) anchorPoint(bounds Rect) Vec2 {
	return Vec2{bounds.X + p.AnchorX*bounds.Width, bounds.Y + p.AnchorY*bounds.Height}
}

// composeMatrix builds the content matrix for p over bounds:
//
//	M = Translate(X, Y) * Translate(anchor) * Rotate * Scale(flip) * Skew * Translate(-anchor)
//
// Rotation, scale and skew pivot around the anchor, and the position offset
// is applied last.
func composeMatrix(p Params, bounds Rect) [6]float64 {
	a := p.anchorPoint(bounds)
	sx, sy := p.ScaleX, p.ScaleY
	if p.FlipX {
		sx = -sx
	}
	if p.FlipY {
		sy = -sy
	}
	return chainAffine(
		translateAffine(p.X, p.Y),
		translateAffine(a.X, a.Y),
		rotateAffine(p.Rotation),
		scaleAffine(sx, sy),
		skewAffine(p.SkewX, p.SkewY),
		translateAffine(-a.X, -a.Y),
	)
}
