package inkwell

// injectFingerBase is the first identifier used for injected finger contacts.
const injectFingerBase TouchID = 1000

// InjectFrame queues a synthetic hardware frame. Injected frames are
// consumed one per Drain, after any pushed hardware frames, so a sequence
// of injections plays back over consecutive frames. A zero frame timestamp
// is replaced by the injection clock, which advances at 120 Hz.
func (p *Pipeline) InjectFrame(f TouchFrame) {
	p.injectClock += predictionFrameMs
	if f.Timestamp == 0 {
		f.Timestamp = p.injectClock
	}
	touches := make([]TouchSample, len(f.Touches))
	for i, s := range f.Touches {
		if s.Timestamp == 0 {
			s.Timestamp = f.Timestamp
		}
		touches[i] = s
	}
	f.Touches = touches
	p.injectQueue = append(p.injectQueue, f)
}

// InjectStroke queues a stylus stroke: a press at from, frames-2 linearly
// interpolated moves, a final move at to, and an empty release frame. The
// whole sequence consumes frames+1 frames. Minimum frames is 2.
func (p *Pipeline) InjectStroke(id TouchID, from, to Vec2, frames int, force float64) {
	if frames < 2 {
		frames = 2
	}
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(frames-1)
		p.InjectFrame(TouchFrame{Touches: []TouchSample{{
			ID:       id,
			Kind:     TouchStylus,
			Position: lerpVec(from, to, t),
			Force:    force,
			Altitude: 1.2,
			Azimuth:  0,
			Flags:    FlagForce | FlagAltitude | FlagAzimuth,
		}}})
	}
	p.InjectFrame(TouchFrame{})
}

// InjectFingers queues fingers moving from starts to ends over frames
// frames, followed by an empty release frame. starts and ends must have the
// same length; extra entries in either are ignored.
func (p *Pipeline) InjectFingers(starts, ends []Vec2, frames int) {
	n := min(len(starts), len(ends))
	if frames < 1 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		t := 0.0
		if frames > 1 {
			t = float64(i) / float64(frames-1)
		}
		touches := make([]TouchSample, n)
		for k := 0; k < n; k++ {
			touches[k] = TouchSample{
				ID:          injectFingerBase + TouchID(k),
				Kind:        TouchDirect,
				Position:    lerpVec(starts[k], ends[k], t),
				MajorRadius: 6,
				MinorRadius: 6,
				Flags:       FlagRadius,
			}
		}
		p.InjectFrame(TouchFrame{Touches: touches})
	}
	p.InjectFrame(TouchFrame{})
}

// InjectTap queues a press at points held for one frame, then a release.
func (p *Pipeline) InjectTap(points ...Vec2) {
	p.InjectFingers(points, points, 1)
}

// PendingInjections returns the number of injected frames not yet drained.
func (p *Pipeline) PendingInjections() int {
	return len(p.injectQueue)
}

func lerpVec(a, b Vec2, t float64) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}
