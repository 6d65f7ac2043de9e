package inkwell

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"slices"
	"time"
)

// TransformSession is the state of one active transform. The session owns
// Original exclusively; it is released on commit or cancel.
type TransformSession struct {
	Target   Target
	Original *image.RGBA
	// Bounds is the captured region in canvas coordinates.
	Bounds  Rect
	Params  Params
	Matrix  [6]float64
	Handles []Handle
	Mode    TransformMode
	Started time.Time

	// corners are perspective offsets from the affine-mapped bounds corners.
	corners [4]Vec2
	mesh    *WarpMesh
}

// Quad returns the destination corners: the bounds corners mapped through
// Matrix plus any perspective offsets.
func (s *TransformSession) Quad() [4]Vec2 {
	c := s.Bounds.Corners()
	var q [4]Vec2
	for i := range c {
		q[i] = transformPoint(s.Matrix, c[i]).Add(s.corners[i])
	}
	return q
}

// Mesh returns the warp mesh.
func (s *TransformSession) Mesh() *WarpMesh { return s.mesh }

// MeshPoints returns the warp control points in canvas coordinates.
func (s *TransformSession) MeshPoints() []Vec2 {
	return s.mesh.points(s.homography(), s.Bounds)
}

// TransformedBounds returns the axis-aligned bounds of the transformed
// content.
func (s *TransformSession) TransformedBounds() Rect {
	if s.mesh.deformed() {
		return rectFromPoints(s.MeshPoints())
	}
	q := s.Quad()
	return rectFromPoints(q[:])
}

func (s *TransformSession) perspective() bool {
	return s.corners != [4]Vec2{}
}

func (s *TransformSession) homography() homography {
	return quadToQuad(s.Bounds.Corners(), s.Quad())
}

// layout regenerates the handles for the current mode.
func (s *TransformSession) layout() {
	switch s.Mode {
	case ModePerspective:
		s.Handles = perspectiveHandles(s.Quad())
	case ModeWarp:
		s.Handles = warpHandles(s.MeshPoints())
	default:
		s.Handles = scaleHandles(s.TransformedBounds())
	}
}

// plan snapshots the geometry for rendering. A deformed mesh takes
// precedence over perspective, which takes precedence over the matrix.
func (s *TransformSession) plan() renderPlan {
	p := renderPlan{kind: planAffine, src: s.Original, bounds: s.Bounds, matrix: s.Matrix}
	switch {
	case s.mesh.deformed():
		p.kind = planWarp
		p.mesh = s.mesh.clone()
		p.points = s.MeshPoints()
	case s.perspective():
		p.kind = planPerspective
		p.quad = s.Quad()
	}
	return p
}

// Transformer runs transform sessions against a SurfaceProvider. At most one
// session is active; starting another cancels the first. All methods belong
// to the frame goroutine.
type Transformer struct {
	surfaces SurfaceProvider
	bus      *EventBus
	history  *History
	cfg      TransformConfig
	mode     TransformMode

	session *TransformSession
	drag    *dragState
	preview *previewWorker

	// HitRadius is the half-size of the square handle hit area in canvas
	// units. Zero uses 20.
	HitRadius float64
}

// NewTransformer creates a transformer. A nil history gets a new one with
// the default capacity; a nil bus disables events.
func NewTransformer(surfaces SurfaceProvider, bus *EventBus, history *History, cfg TransformConfig) *Transformer {
	if history == nil {
		history = NewHistory(defaultHistoryCap)
	}
	if cfg.WarpGrid < 2 {
		cfg.WarpGrid = defaultWarpGrid
	}
	t := &Transformer{surfaces: surfaces, bus: bus, history: history, cfg: cfg}
	t.preview = newPreviewWorker(func(p Preview, tag TransformEvent) {
		if t.bus == nil {
			return
		}
		tag.Bounds = p.Bounds
		tag.Image = p.Image
		t.bus.Publish(Event{Type: EventTransformPreview, Transform: tag})
	})
	return t
}

// Configure replaces the transform options. The active session keeps its
// warp grid size.
func (t *Transformer) Configure(cfg TransformConfig) {
	if cfg.WarpGrid < 2 {
		cfg.WarpGrid = defaultWarpGrid
	}
	t.cfg = cfg
}

// History returns the undo history.
func (t *Transformer) History() *History { return t.history }

// Active reports whether a session is in progress.
func (t *Transformer) Active() bool { return t.session != nil }

// Session returns a copy of the active session.
func (t *Transformer) Session() (TransformSession, bool) {
	if t.session == nil {
		return TransformSession{}, false
	}
	s := *t.session
	s.Handles = slices.Clone(s.Handles)
	return s, true
}

// Mode returns the mode used by the active and future sessions.
func (t *Transformer) Mode() TransformMode { return t.mode }

// Start captures target and begins a session. A nil bounds uses the
// target's natural extent. An active session is cancelled first, restoring
// its target. If capture fails the transformer stays idle.
func (t *Transformer) Start(target Target, bounds *Rect) error {
	if t.session != nil {
		Logger().Info("inkwell: cancelling active transform for new session")
		_ = t.Cancel()
	}
	img, r, ok := t.surfaces.Capture(target, bounds)
	if !ok || img == nil || r.Empty() {
		Logger().Warn("inkwell: transform capture failed", "target", target.Kind.String(), "layer", target.Layer())
		return fmt.Errorf("start %s transform on %q: %w", target.Kind, target.Layer(), ErrCaptureFailed)
	}
	orig := positioned(img, r)
	s := &TransformSession{
		Target:   target,
		Original: orig,
		Bounds:   rectFromImage(orig.Rect),
		Params:   IdentityParams(),
		Mode:     t.mode,
		Started:  time.Now(),
		mesh:     newWarpMesh(t.cfg.WarpGrid),
	}
	s.Matrix = composeMatrix(s.Params, s.Bounds)
	s.layout()
	t.session = s
	t.drag = nil

	Logger().Info("inkwell: transform started",
		"target", target.Kind.String(), "layer", target.Layer(), "bounds", s.Bounds)
	t.publish(EventTransformStarted, Handle{})
	return nil
}

// positioned returns img as an RGBA image whose bounds are r in canvas
// coordinates, copying when the provider returned a differently placed image.
func positioned(img image.Image, r Rect) *image.RGBA {
	pr := PixelRect(r)
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect == pr {
		return rgba
	}
	dst := image.NewRGBA(pr)
	draw.Draw(dst, pr, img, img.Bounds().Min, draw.Src)
	return dst
}

// Update merges u into the session parameters, applies snapping when
// enabled, and schedules a preview.
func (t *Transformer) Update(u ParamUpdate) error {
	s := t.session
	if s == nil {
		return t.noSession("update")
	}
	s.Params = s.Params.merge(u, t.aspectLocked())
	t.recompose()
	return nil
}

// Reset restores identity parameters and clears perspective and warp
// offsets.
func (t *Transformer) Reset() error {
	s := t.session
	if s == nil {
		return t.noSession("reset")
	}
	s.Params = IdentityParams()
	s.corners = [4]Vec2{}
	s.mesh.Reset()
	t.recompose()
	return nil
}

// SetMode changes the handle layout. Parameters are unchanged. Without a
// session the mode applies to the next one.
func (t *Transformer) SetMode(m TransformMode) {
	t.mode = m
	s := t.session
	if s == nil || s.Mode == m {
		return
	}
	s.Mode = m
	t.drag = nil
	s.layout()
	t.publish(EventTransformModeChanged, Handle{})
}

// SetCorner moves perspective corner i (0..3, clockwise from top-left) to p.
// Moves that would make the quad non-convex are ignored.
func (t *Transformer) SetCorner(i int, p Vec2) error {
	s := t.session
	if s == nil {
		return t.noSession("set corner")
	}
	if i < 0 || i > 3 {
		return fmt.Errorf("set corner: index %d out of range", i)
	}
	base := transformPoint(s.Matrix, s.Bounds.Corners()[i])
	t.setCornerOffset(i, p.Sub(base))
	return nil
}

// SetWarpPoint moves warp vertex (col, row) to p.
func (t *Transformer) SetWarpPoint(col, row int, p Vec2) error {
	s := t.session
	if s == nil {
		return t.noSession("set warp point")
	}
	n := s.mesh.size
	if col < 0 || row < 0 || col >= n || row >= n {
		return fmt.Errorf("set warp point: vertex (%d,%d) out of range", col, row)
	}
	rest, _ := s.homography().apply(s.mesh.restPoint(s.Bounds, col, row))
	off := p.Sub(rest)
	s.mesh.SetVertex(col, row, off.X, off.Y)
	t.refresh()
	return nil
}

func (t *Transformer) setCornerOffset(i int, off Vec2) {
	s := t.session
	prev := s.corners
	s.corners[i] = off
	if !convexQuad(s.Quad()) {
		s.corners = prev
		return
	}
	t.refresh()
}

// Commit renders the captured content through the final geometry at full
// quality, writes it into the target and records a history entry. If the
// render or the write fails the session is cancelled instead.
func (t *Transformer) Commit() error {
	s := t.session
	if s == nil {
		return t.noSession("commit")
	}
	t.drag = nil
	_ = t.preview.wait(true)

	before, after, out, err := t.compose(s)
	if err == nil {
		err = t.surfaces.Apply(s.Target, after)
	}
	if err != nil {
		Logger().Warn("inkwell: transform commit failed, cancelling", "err", err)
		_ = t.Cancel()
		return fmt.Errorf("commit transform: %w", err)
	}

	t.history.Record(HistoryEntry{
		Target:    s.Target,
		Params:    s.Params,
		Mode:      s.Mode,
		Timestamp: time.Now(),
		Before:    before,
		After:     after,
	})
	ev := t.event(s, Handle{})
	ev.Bounds = rectFromImage(out.Rect)
	ev.Image = out
	t.release()
	Logger().Info("inkwell: transform committed",
		"target", s.Target.Kind.String(), "layer", s.Target.Layer(), "history", t.history.Len())
	t.publishEvent(Event{Type: EventTransformCommitted, Transform: ev})
	return nil
}

// compose renders the session and snapshots the region it changes, before
// and after. The region is the captured bounds plus the rendered content,
// clipped to the layer. The captured bounds are cleared before the rendered
// content is drawn over them.
func (t *Transformer) compose(s *TransformSession) (before, after, out *image.RGBA, err error) {
	out, err = s.plan().render(context.Background(), QualityFinal)
	if err != nil {
		return nil, nil, nil, err
	}
	layer, ok := t.surfaces.Surface(s.Target.Layer())
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: layer %q: %w", ErrRenderFailed, s.Target.Layer(), ErrUnknownLayer)
	}
	captured := PixelRect(s.Bounds)
	dirty := captured.Union(out.Rect).Intersect(layer.Bounds())
	if dirty.Empty() {
		return nil, nil, nil, fmt.Errorf("transformed content is off the layer: %w", ErrRenderFailed)
	}
	before = cloneRGBA(layer, dirty)
	after = cloneRGBA(layer, dirty)
	draw.Draw(after, captured, image.Transparent, image.Point{}, draw.Src)
	draw.Draw(after, out.Rect, out, out.Rect.Min, draw.Over)
	return before, after, out, nil
}

// Cancel writes the captured content back unchanged and ends the session.
func (t *Transformer) Cancel() error {
	s := t.session
	if s == nil {
		return t.noSession("cancel")
	}
	ev := t.event(s, Handle{})
	err := t.surfaces.Apply(s.Target, s.Original)
	t.release()
	Logger().Info("inkwell: transform cancelled", "target", s.Target.Kind.String(), "layer", s.Target.Layer())
	t.publishEvent(Event{Type: EventTransformCancelled, Transform: ev})
	if err != nil {
		return fmt.Errorf("cancel transform: %w", err)
	}
	return nil
}

// release drops the session and its captured content and discards any
// preview work.
func (t *Transformer) release() {
	t.preview.reset()
	t.session.Original = nil
	t.session = nil
	t.drag = nil
}

// Undo restores the content before the newest committed transform. An
// active session is cancelled first.
func (t *Transformer) Undo() error {
	if t.session != nil {
		_ = t.Cancel()
	}
	e, ok := t.history.Undo()
	if !ok {
		return fmt.Errorf("undo: %w", ErrHistoryBounds)
	}
	if err := t.surfaces.Apply(e.Target, e.Before); err != nil {
		t.history.Redo()
		return fmt.Errorf("undo: %w", err)
	}
	return nil
}

// Redo reapplies the next undone transform.
func (t *Transformer) Redo() error {
	if t.session != nil {
		_ = t.Cancel()
	}
	e, ok := t.history.Redo()
	if !ok {
		return fmt.Errorf("redo: %w", ErrHistoryBounds)
	}
	if err := t.surfaces.Apply(e.Target, e.After); err != nil {
		t.history.Undo()
		return fmt.Errorf("redo: %w", err)
	}
	return nil
}

// HitTest returns the handle under p. A point inside the transformed bounds
// but on no handle yields a HandleMove.
func (t *Transformer) HitTest(p Vec2) (Handle, bool) {
	s := t.session
	if s == nil {
		return Handle{}, false
	}
	if h, ok := hitHandle(s.Handles, p, t.hitRadius()); ok {
		return h, true
	}
	if s.TransformedBounds().Contains(p.X, p.Y) {
		return Handle{Kind: HandleMove, Position: p}, true
	}
	return Handle{}, false
}

// BeginDrag starts a handle drag at p. It returns false if p hits nothing.
func (t *Transformer) BeginDrag(p Vec2) bool {
	h, ok := t.HitTest(p)
	if !ok {
		return false
	}
	s := t.session
	t.drag = &dragState{
		handle:  h,
		start:   p,
		params:  s.Params,
		center:  s.TransformedBounds().Center(),
		corners: s.corners,
		mesh:    s.mesh.clone(),
	}
	t.publish(EventHandleSelected, h)
	return true
}

// Dragging reports whether a handle drag is in progress.
func (t *Transformer) Dragging() bool { return t.drag != nil }

// DragTo continues the active drag to p.
func (t *Transformer) DragTo(p Vec2) error {
	s := t.session
	if s == nil {
		return t.noSession("drag")
	}
	d := t.drag
	if d == nil {
		return nil
	}
	locked := t.aspectLocked()
	switch d.handle.Kind {
	case HandleMove:
		return t.Update(d.moveUpdate(p))
	case HandleCorner:
		return t.Update(d.cornerUpdate(p, locked))
	case HandleEdge:
		return t.Update(d.edgeUpdate(p, locked))
	case HandleRotate:
		return t.Update(d.rotateUpdate(p))
	case HandlePerspective:
		i := d.handle.Index
		t.setCornerOffset(i, d.corners[i].Add(p.Sub(d.start)))
	case HandleWarp:
		i := d.handle.Index
		off := d.mesh.offsets[i].Add(p.Sub(d.start))
		s.mesh.offsets[i] = off
		t.refresh()
	}
	return nil
}

// EndDrag finishes the active drag.
func (t *Transformer) EndDrag() {
	t.drag = nil
}

// Preview returns the newest completed preview of the active session.
func (t *Transformer) Preview() (Preview, bool) {
	if t.session == nil {
		return Preview{}, false
	}
	return t.preview.last()
}

// WaitPreview blocks until no preview render is in flight.
func (t *Transformer) WaitPreview() error {
	return t.preview.wait(false)
}

// Close cancels any active session and stops preview work.
func (t *Transformer) Close() {
	if t.session != nil {
		_ = t.Cancel()
	}
	t.preview.reset()
}

func (t *Transformer) aspectLocked() bool {
	switch t.mode {
	case ModeUniform:
		return true
	case ModeDistort:
		return false
	default:
		return t.cfg.AspectLock
	}
}

func (t *Transformer) hitRadius() float64 {
	if t.HitRadius > 0 {
		return t.HitRadius
	}
	return defaultHitRadius
}

// recompose snaps the parameters when enabled, rebuilds the matrix and
// refreshes handles and preview.
func (t *Transformer) recompose() {
	s := t.session
	if t.cfg.Snapping {
		s.Params = snapParams(s.Params)
	}
	s.Matrix = composeMatrix(s.Params, s.Bounds)
	t.refresh()
}

// refresh regenerates handles, publishes an update and schedules a preview.
func (t *Transformer) refresh() {
	s := t.session
	s.layout()
	t.publish(EventTransformUpdated, Handle{})
	t.preview.submit(s.plan(), t.event(s, Handle{}))
}

func (t *Transformer) noSession(op string) error {
	reportViolation(t.bus, 0, op+" without an active transform session")
	return fmt.Errorf("%s: %w", op, ErrNoSession)
}

func (t *Transformer) event(s *TransformSession, h Handle) TransformEvent {
	return TransformEvent{
		Target: s.Target,
		Mode:   s.Mode,
		Params: s.Params,
		Matrix: s.Matrix,
		Bounds: s.TransformedBounds(),
		Handle: h,
	}
}

func (t *Transformer) publish(typ EventType, h Handle) {
	t.publishEvent(Event{Type: typ, Transform: t.event(t.session, h)})
}

func (t *Transformer) publishEvent(ev Event) {
	if t.bus != nil {
		t.bus.Publish(ev)
	}
}
