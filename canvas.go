package inkwell

import "errors"

// Canvas owns the input and transform state of one open document. Create
// one per document with NewCanvas and release it with Close; canvases share
// nothing, so several can run side by side.
//
// Each frame, Update drains the pipeline and dispatches the queued events.
// The canvas itself reacts to some of them:
//   - pinch, rotate and pan gestures move the View
//   - a two-finger tap undoes and a three-finger tap redoes
//   - while a transform session is active, pencil contacts drive its handles
//
// Other handlers registered on Bus see every event as well.
type Canvas struct {
	settings    Settings
	surfaces    SurfaceProvider
	bus         *EventBus
	view        *View
	pipeline    *Pipeline
	history     *History
	transformer *Transformer
	handlers    []CallbackHandle
	// nextTransform holds transform options staged by UpdateSettings.
	nextTransform *TransformConfig
	closed      bool
}

// CanvasOptions configures NewCanvas. Zero values use defaults.
type CanvasOptions struct {
	// Settings nil uses DefaultSettings.
	Settings *Settings
	// Viewport is the screen rectangle the canvas is shown in.
	Viewport Rect
	// EventCapacity bounds the event queue. Zero uses 1024.
	EventCapacity int
	// HistoryCapacity bounds the undo history. Zero uses 50.
	HistoryCapacity int
}

// NewCanvas creates a canvas over surfaces.
func NewCanvas(surfaces SurfaceProvider, opts CanvasOptions) (*Canvas, error) {
	if surfaces == nil {
		return nil, errors.New("inkwell: NewCanvas requires a SurfaceProvider")
	}
	s := DefaultSettings()
	if opts.Settings != nil {
		s = *opts.Settings
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	bus := NewEventBus(opts.EventCapacity)
	history := NewHistory(opts.HistoryCapacity)
	c := &Canvas{
		settings:    s,
		surfaces:    surfaces,
		bus:         bus,
		view:        NewView(opts.Viewport),
		pipeline:    NewPipeline(s, bus),
		history:     history,
		transformer: NewTransformer(surfaces, bus, history, s.Transform),
	}
	c.pipeline.SetView(c.view)
	c.handlers = append(c.handlers,
		bus.OnEvent(MaskOf(EventGesture), c.onGesture),
		bus.OnEvent(MaskOf(EventPencilDown, EventPencilMove, EventPencilUp), c.onPencil),
	)
	return c, nil
}

// Bus returns the event bus.
func (c *Canvas) Bus() *EventBus { return c.bus }

// View returns the canvas view.
func (c *Canvas) View() *View { return c.view }

// Pipeline returns the touch ingest pipeline.
func (c *Canvas) Pipeline() *Pipeline { return c.pipeline }

// Transformer returns the transform engine.
func (c *Canvas) Transformer() *Transformer { return c.transformer }

// History returns the undo history.
func (c *Canvas) History() *History { return c.history }

// Surfaces returns the surface provider.
func (c *Canvas) Surfaces() SurfaceProvider { return c.surfaces }

// Settings returns the current settings.
func (c *Canvas) Settings() Settings { return c.settings }

// UpdateSettings validates s and stages it. Settings returns s at once, but
// input and transform options both take effect on the next Update, before
// that frame's events are dispatched.
func (c *Canvas) UpdateSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := c.pipeline.UpdateSettings(s); err != nil {
		return err
	}
	c.settings = s
	c.nextTransform = &s.Transform
	return nil
}

// Update runs one frame: drain input, dispatch events and advance view
// animation by dt seconds. It returns the number of events dispatched.
func (c *Canvas) Update(dt float32) int {
	if c.closed {
		return 0
	}
	c.pipeline.Drain()
	if c.nextTransform != nil {
		c.transformer.Configure(*c.nextTransform)
		c.nextTransform = nil
	}
	n := c.bus.Dispatch()
	c.view.Update(dt)
	return n
}

// Close cancels any active transform, removes the canvas handlers and
// drops per-touch state. The canvas must not be used afterwards.
func (c *Canvas) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.transformer.Close()
	for _, h := range c.handlers {
		h.Remove()
	}
	c.handlers = nil
	c.pipeline.Reset()
}

func (c *Canvas) onGesture(ev Event) {
	g := ev.Gesture
	if g.Type != GestureTap {
		c.view.ApplyGesture(g)
		return
	}
	var err error
	switch g.Fingers {
	case 2:
		err = c.transformer.Undo()
	case 3:
		err = c.transformer.Redo()
	}
	if err != nil {
		Logger().Debug("inkwell: tap history step", "fingers", g.Fingers, "err", err)
	}
}

// onPencil routes stylus contacts to transform handles while a session is
// active. Hit areas stay a constant size on screen.
func (c *Canvas) onPencil(ev Event) {
	t := c.transformer
	if !t.Active() {
		return
	}
	p := ev.Point.Position
	switch ev.Type {
	case EventPencilDown:
		t.HitRadius = defaultHitRadius / c.view.Zoom
		t.BeginDrag(p)
	case EventPencilMove:
		if t.Dragging() {
			_ = t.DragTo(p)
		}
	case EventPencilUp:
		if t.Dragging() {
			_ = t.DragTo(p)
			t.EndDrag()
		}
	}
}
