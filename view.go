package inkwell

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const (
	defaultMinZoom = 0.1
	defaultMaxZoom = 32
)

// viewAnim holds active tweens for an animated view change.
type viewAnim struct {
	tweens [4]*gween.Tween
	done   [4]bool
}

// View maps between screen space and canvas space. Gestures drive it:
// pinch zooms around the finger centroid, rotate turns around it, and pan
// drags the canvas.
type View struct {
	// X and Y are the canvas point shown at the viewport center.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom).
	Zoom float64
	// Rotation is the canvas rotation in radians (clockwise on screen).
	Rotation float64
	// Viewport is the screen-space rectangle the canvas is shown in.
	Viewport Rect

	MinZoom, MaxZoom float64

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	dirty         bool

	anim *viewAnim
}

// NewView creates a view whose canvas coordinates equal screen coordinates.
func NewView(viewport Rect) *View {
	c := viewport.Center()
	return &View{
		X:        c.X,
		Y:        c.Y,
		Zoom:     1,
		Viewport: viewport,
		MinZoom:  defaultMinZoom,
		MaxZoom:  defaultMaxZoom,
		dirty:    true,
	}
}

// computeViewMatrix recomputes the cached view matrix if dirty.
//
// viewMatrix = Translate(cx, cy) * Scale(zoom) * Rotate(rotation) * Translate(-X, -Y)
func (v *View) computeViewMatrix() [6]float64 {
	if !v.dirty {
		return v.viewMatrix
	}
	v.dirty = false
	c := v.Viewport.Center()
	v.viewMatrix = chainAffine(
		translateAffine(c.X, c.Y),
		scaleAffine(v.Zoom, v.Zoom),
		rotateAffine(v.Rotation),
		translateAffine(-v.X, -v.Y),
	)
	v.invViewMatrix, _ = invertAffine(v.viewMatrix)
	return v.viewMatrix
}

// Matrix returns the canvas-to-screen matrix.
func (v *View) Matrix() [6]float64 {
	return v.computeViewMatrix()
}

// CanvasToScreen converts a canvas point to screen coordinates.
func (v *View) CanvasToScreen(p Vec2) Vec2 {
	return transformPoint(v.computeViewMatrix(), p)
}

// ScreenToCanvas converts a screen point to canvas coordinates.
func (v *View) ScreenToCanvas(p Vec2) Vec2 {
	v.computeViewMatrix()
	return transformPoint(v.invViewMatrix, p)
}

// VisibleBounds returns the axis-aligned canvas-space rectangle covered by
// the viewport.
func (v *View) VisibleBounds() Rect {
	v.computeViewMatrix()
	return transformedAABB(v.invViewMatrix, v.Viewport)
}

// MarkDirty forces a recomputation of the view matrix.
func (v *View) MarkDirty() {
	v.dirty = true
}

// ZoomAround multiplies the zoom by factor keeping the canvas point under
// the screen point fixed. The zoom is clamped to [MinZoom, MaxZoom].
func (v *View) ZoomAround(screen Vec2, factor float64) {
	if factor <= 0 || math.IsNaN(factor) {
		return
	}
	before := v.ScreenToCanvas(screen)
	v.Zoom = clamp(v.Zoom*factor, v.MinZoom, v.MaxZoom)
	v.dirty = true
	v.pin(before, screen)
}

// RotateAround turns the view by delta radians around the screen point.
func (v *View) RotateAround(screen Vec2, delta float64) {
	before := v.ScreenToCanvas(screen)
	v.Rotation = normalizeAngle(v.Rotation + delta)
	v.dirty = true
	v.pin(before, screen)
}

// PanBy drags the canvas by a screen-space delta.
func (v *View) PanBy(delta Vec2) {
	v.computeViewMatrix()
	inv := v.invViewMatrix
	d := Vec2{inv[0]*delta.X + inv[2]*delta.Y, inv[1]*delta.X + inv[3]*delta.Y}
	v.X -= d.X
	v.Y -= d.Y
	v.dirty = true
}

// pin moves the view so canvas point c appears at screen point s.
func (v *View) pin(c, s Vec2) {
	after := v.ScreenToCanvas(s)
	v.X += c.X - after.X
	v.Y += c.Y - after.Y
	v.dirty = true
}

// ApplyGesture updates the view from a continuous gesture. Taps are ignored.
func (v *View) ApplyGesture(ev GestureEvent) {
	v.anim = nil
	switch ev.Type {
	case GesturePinch:
		v.ZoomAround(ev.Centroid, ev.DeltaScale)
	case GestureRotate:
		v.RotateAround(ev.Centroid, ev.DeltaRotation)
	case GesturePan:
		v.PanBy(ev.DeltaTranslation)
	}
}

// AnimateTo tweens the view to the given center, zoom, and rotation over
// duration seconds.
func (v *View) AnimateTo(x, y, zoom, rotation float64, duration float32, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.OutCubic
	}
	zoom = clamp(zoom, v.MinZoom, v.MaxZoom)
	v.anim = &viewAnim{tweens: [4]*gween.Tween{
		gween.New(float32(v.X), float32(x), duration, easeFn),
		gween.New(float32(v.Y), float32(y), duration, easeFn),
		gween.New(float32(v.Zoom), float32(zoom), duration, easeFn),
		gween.New(float32(v.Rotation), float32(rotation), duration, easeFn),
	}}
}

// ResetView animates back to the identity mapping.
func (v *View) ResetView(duration float32) {
	c := v.Viewport.Center()
	v.AnimateTo(c.X, c.Y, 1, 0, duration, ease.InOutQuad)
}

// Animating reports whether a tween is in progress.
func (v *View) Animating() bool {
	return v.anim != nil
}

// Update advances any running animation by dt seconds.
func (v *View) Update(dt float32) {
	if v.anim == nil {
		return
	}
	fields := [4]*float64{&v.X, &v.Y, &v.Zoom, &v.Rotation}
	all := true
	for i, tw := range v.anim.tweens {
		if v.anim.done[i] {
			continue
		}
		val, done := tw.Update(dt)
		*fields[i] = float64(val)
		v.anim.done[i] = done
		if !done {
			all = false
		}
	}
	v.dirty = true
	if all {
		v.anim = nil
	}
}
