package inkwell

import (
	"slices"
	"sync"
	"time"
)

const (
	// defaultMaxPending is the number of undrained hardware frames kept
	// before the oldest is discarded.
	defaultMaxPending = 32
	// frameBudget is the per-frame processing budget at 120 Hz.
	frameBudget = time.Second / 120
)

// contact is the per-touch session state owned by the pipeline for the
// lifetime of one physical contact.
type contact struct {
	sample   TouchSample
	screen   Vec2
	accepted bool
	pencil   bool
	history  []StrokePoint
}

// update stores a new sample, keeping the screen position for gestures and
// the canvas position for strokes and palm rejection.
func (c *contact) update(s TouchSample, v *View) {
	c.screen = s.Position
	if v != nil {
		s.Position = v.ScreenToCanvas(s.Position)
	}
	c.sample = s
}

// Pipeline buffers raw hardware touch frames and drains them once per
// rendering frame. It owns per-touch state, runs palm rejection, pressure
// and tilt shaping, prediction and gesture tracking, and publishes the
// results on an EventBus.
//
// Push may be called from any goroutine. Drain and the remaining methods
// belong to the frame goroutine.
type Pipeline struct {
	mu            sync.Mutex
	pending       []TouchFrame
	maxPending    int
	nextSettings  Settings
	settingsDirty bool

	settings Settings
	bus      *EventBus
	view     *View
	pressure *PressureResponse
	palm     *PalmRejectionFilter
	gestures gestureTracker

	contacts     map[TouchID]*contact
	pencilID     TouchID
	pencil       *TouchSample
	pencilDownAt float64 // timestamp of the active pencil's first sample
	live         map[TouchID]struct{}

	injectQueue []TouchFrame
	injectClock float64

	frameBuf  []TouchFrame
	newStylus []TouchSample
	held      []TouchID
	fingerIDs []TouchID
	fingerBuf []Vec2
	published int
	debug     bool
	lastStats drainStats
}

// drainStats holds per-drain metrics. Logged at debug level when debug
// mode is on.
type drainStats struct {
	frames   int
	samples  int
	events   int
	duration time.Duration
}

// NewPipeline creates a pipeline publishing to bus.
func NewPipeline(s Settings, bus *EventBus) *Pipeline {
	if err := s.Validate(); err != nil {
		Logger().Warn("inkwell: invalid settings, using defaults", "err", err)
		s = DefaultSettings()
	}
	if bus == nil {
		bus = NewEventBus(defaultEventCap)
	}
	return &Pipeline{
		maxPending: defaultMaxPending,
		settings:   s,
		bus:        bus,
		pressure:   NewPressureResponse(s),
		palm:       NewPalmRejectionFilter(s.PalmRejection, s.Palm),
		gestures:   gestureTracker{cfg: s.Gesture},
		contacts:   make(map[TouchID]*contact),
		live:       make(map[TouchID]struct{}),
	}
}

// Bus returns the bus events are published on.
func (p *Pipeline) Bus() *EventBus { return p.bus }

// SetView converts incoming screen positions to canvas coordinates through
// v. Pass nil to use screen coordinates unchanged.
func (p *Pipeline) SetView(v *View) { p.view = v }

// SetDebugMode enables per-drain statistics logging.
func (p *Pipeline) SetDebugMode(enabled bool) { p.debug = enabled }

// Settings returns the settings applied to the most recent drain.
func (p *Pipeline) Settings() Settings { return p.settings }

// UpdateSettings schedules new settings. They take effect at the start of
// the next Drain; already-emitted points are unaffected.
func (p *Pipeline) UpdateSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.nextSettings = s
	p.settingsDirty = true
	p.mu.Unlock()
	return nil
}

// Push buffers a hardware frame. It copies the touch slice so callers may
// reuse their buffers. When more than the pending limit is queued the
// oldest frame is discarded; because frames carry the full live contact
// set, a later frame still reflects every release.
func (p *Pipeline) Push(f TouchFrame) {
	f.Touches = slices.Clone(f.Touches)
	p.mu.Lock()
	if len(p.pending) >= p.maxPending {
		copy(p.pending, p.pending[1:])
		p.pending = p.pending[:len(p.pending)-1]
		Logger().Warn("inkwell: touch frame backlog full, dropping oldest frame")
	}
	p.pending = append(p.pending, f)
	p.mu.Unlock()
}

// Pencil returns the active stylus sample, if any.
func (p *Pipeline) Pencil() (TouchSample, bool) {
	if p.pencil == nil {
		return TouchSample{}, false
	}
	return *p.pencil, true
}

// ActiveContacts returns the number of live contacts, rejected ones included.
func (p *Pipeline) ActiveContacts() int { return len(p.contacts) }

// IsRejected reports whether id is currently classified as palm contact.
func (p *Pipeline) IsRejected(id TouchID) bool { return p.palm.IsRejected(id) }

// Drain processes every buffered frame in arrival order, plus at most one
// injected frame, and returns the number of frames processed. Call once
// per rendering frame.
func (p *Pipeline) Drain() int {
	t0 := time.Now()

	p.mu.Lock()
	p.frameBuf = append(p.frameBuf[:0], p.pending...)
	p.pending = p.pending[:0]
	if p.settingsDirty {
		p.applySettings(p.nextSettings)
		p.settingsDirty = false
	}
	p.mu.Unlock()

	if len(p.injectQueue) > 0 {
		p.frameBuf = append(p.frameBuf, p.injectQueue[0])
		copy(p.injectQueue, p.injectQueue[1:])
		p.injectQueue = p.injectQueue[:len(p.injectQueue)-1]
	}

	stats := drainStats{frames: len(p.frameBuf)}
	before := p.published
	for i := range p.frameBuf {
		stats.samples += len(p.frameBuf[i].Touches)
		p.processFrame(p.frameBuf[i])
		p.frameBuf[i] = TouchFrame{}
	}
	stats.events = p.published - before
	stats.duration = time.Since(t0)
	p.lastStats = stats

	if stats.duration > frameBudget {
		Logger().Warn("inkwell: input drain exceeded frame budget",
			"duration", stats.duration, "budget", frameBudget, "frames", stats.frames)
	} else if p.debug {
		Logger().Debug("inkwell: drain",
			"frames", stats.frames, "samples", stats.samples,
			"events", stats.events, "duration", stats.duration)
	}
	return stats.frames
}

func (p *Pipeline) applySettings(s Settings) {
	p.settings = s
	p.pressure.Configure(s)
	p.palm.Enabled = s.PalmRejection
	p.palm.Config = s.Palm
	p.gestures.cfg = s.Gesture
}

// processFrame runs one frame through the per-contact state machine.
func (p *Pipeline) processFrame(f TouchFrame) {
	clear(p.live)
	p.newStylus = p.newStylus[:0]
	p.held = p.held[:0]

	now := f.Timestamp
	for i := range f.Touches {
		s := &f.Touches[i]
		if !s.valid() {
			// Keep a known contact alive on a malformed report instead of
			// treating it as a release.
			if _, ok := p.contacts[s.ID]; ok {
				p.live[s.ID] = struct{}{}
				p.held = append(p.held, s.ID)
			}
			continue
		}
		*s = s.normalize()
		p.live[s.ID] = struct{}{}
		if s.Timestamp > now {
			now = s.Timestamp
		}
	}

	// Stylus contacts first so fingers landing in the same frame see the pencil.
	for _, s := range f.Touches {
		if !p.usable(s) || s.Kind != TouchStylus {
			continue
		}
		if c, ok := p.contacts[s.ID]; ok {
			c.update(s, p.view)
			if c.pencil {
				p.pencil = &c.sample
				p.emitPencil(EventPencilMove, c)
			}
			continue
		}
		p.newStylus = append(p.newStylus, s)
	}
	p.startStylus()

	for _, s := range f.Touches {
		if !p.usable(s) || s.Kind == TouchStylus {
			continue
		}
		if c, ok := p.contacts[s.ID]; ok {
			c.update(s, p.view)
			continue
		}
		c := &contact{}
		c.update(s, p.view)
		c.accepted = p.palm.Classify(c.sample, p.palmReference())
		p.contacts[s.ID] = c
	}

	for id, c := range p.contacts {
		if _, ok := p.live[id]; ok {
			continue
		}
		p.endContact(id, c)
	}
	p.palm.Prune(p.live)

	p.trackGestures(now)
}

// palmReference returns the pencil as seen by palm rejection: its current
// position stamped with its pencil-down time, so the delay window runs from
// contact start.
func (p *Pipeline) palmReference() *TouchSample {
	if p.pencil == nil {
		return nil
	}
	ref := *p.pencil
	ref.Timestamp = p.pencilDownAt
	return &ref
}

// usable reports whether s carries fresh data this frame.
func (p *Pipeline) usable(s TouchSample) bool {
	if !s.valid() || slices.Contains(p.held, s.ID) {
		return false
	}
	_, ok := p.live[s.ID]
	return ok
}

func (p *Pipeline) publish(ev Event) {
	p.published++
	p.bus.Publish(ev)
}

// startStylus admits at most one new stylus contact. When no pencil is
// active the most recent candidate wins; every other stylus identifier is
// ignored for its whole contact and reported.
func (p *Pipeline) startStylus() {
	if len(p.newStylus) == 0 {
		return
	}
	winner := -1
	if p.pencil == nil {
		winner = 0
		for i, s := range p.newStylus {
			if s.Timestamp > p.newStylus[winner].Timestamp {
				winner = i
			}
		}
	}
	for i, s := range p.newStylus {
		c := &contact{}
		c.update(s, p.view)
		p.contacts[s.ID] = c
		if i != winner {
			reportViolation(p.bus, s.ID, "second simultaneous stylus contact")
			continue
		}
		c.accepted = true
		c.pencil = true
		p.pencilID = s.ID
		p.pencil = &c.sample
		p.pencilDownAt = c.sample.Timestamp
		p.pressure.Reset()
		p.emitPencil(EventPencilDown, c)
	}
}

func (p *Pipeline) endContact(id TouchID, c *contact) {
	delete(p.contacts, id)
	if c.pencil && p.pencilID == id {
		pt := StrokePoint{}
		if n := len(c.history); n > 0 {
			pt = c.history[n-1]
		}
		p.publish(Event{Type: EventPencilUp, TouchID: id, Point: pt})
		p.pencil = nil
		p.pencilID = 0
		p.pressure.Reset()
		return
	}
	p.palm.Release(id)
}

// emitPencil shapes the contact's latest sample into a stroke point, updates
// its history window and publishes it.
func (p *Pipeline) emitPencil(t EventType, c *contact) {
	s := c.sample
	var speed float64
	if n := len(c.history); n > 0 {
		prev := c.history[n-1]
		if dt := s.Timestamp - prev.Timestamp; dt > 0 {
			speed = s.Position.Dist(prev.Position) / dt
		}
	}
	pt := StrokePoint{
		Position:  s.Position,
		Pressure:  p.pressure.ProcessWithSpeed(s.Force, speed),
		Tilt:      Tilt(s.Altitude, s.Azimuth, 2*p.settings.TiltSensitivity),
		Altitude:  s.Altitude,
		Azimuth:   s.Azimuth,
		Timestamp: s.Timestamp,
	}
	if len(c.history) == historyWindow {
		copy(c.history, c.history[1:])
		c.history = c.history[:historyWindow-1]
	}
	c.history = append(c.history, pt)

	ev := Event{Type: t, TouchID: s.ID, Point: pt}
	if t == EventPencilMove && p.settings.PredictiveTouch {
		ev.Predicted = Predict(pt, c.history, p.settings.PredictionFrames)
	}
	p.publish(ev)
}

// trackGestures feeds the accepted finger cluster, in screen space, to the
// gesture tracker. Fingers are ordered by identifier so two-finger angles
// are stable.
func (p *Pipeline) trackGestures(now float64) {
	p.fingerIDs = p.fingerIDs[:0]
	for id, c := range p.contacts {
		if c.accepted && !c.pencil && c.sample.Kind != TouchStylus {
			p.fingerIDs = append(p.fingerIDs, id)
		}
	}
	slices.Sort(p.fingerIDs)
	p.fingerBuf = p.fingerBuf[:0]
	for _, id := range p.fingerIDs {
		p.fingerBuf = append(p.fingerBuf, p.contacts[id].screen)
	}
	p.gestures.update(ClassifyGesture(p.fingerBuf), now, func(ev GestureEvent) {
		p.publish(Event{Type: EventGesture, Gesture: ev})
	})
}

// Reset ends every contact without emitting events and clears queued
// frames. Used when a document closes.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.pending = p.pending[:0]
	p.mu.Unlock()
	p.injectQueue = p.injectQueue[:0]
	clear(p.contacts)
	clear(p.live)
	p.palm.Prune(p.live)
	p.pencil = nil
	p.pencilID = 0
	p.pressure.Reset()
	p.gestures.reset()
}
