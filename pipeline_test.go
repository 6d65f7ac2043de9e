package inkwell

import (
	"math"
	"testing"
)

// drainAll drains the pipeline until no injected frames remain and returns
// every published event in order.
func drainAll(p *Pipeline) []Event {
	for p.PendingInjections() > 0 {
		p.Drain()
	}
	return collect(p.Bus())
}

func collect(b *EventBus) []Event {
	var out []Event
	for b.Len() > 0 {
		out = append(out, <-b.Events())
	}
	return out
}

func eventTypes(evs []Event) []EventType {
	out := make([]EventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

func newTestPipeline() *Pipeline {
	return NewPipeline(DefaultSettings(), NewEventBus(256))
}

func stylus(id TouchID, x, y, force, ts float64) TouchSample {
	return TouchSample{
		ID:        id,
		Kind:      TouchStylus,
		Position:  Vec2{x, y},
		Force:     force,
		Timestamp: ts,
		Flags:     FlagForce,
	}
}

func finger(id TouchID, x, y, radius, ts float64) TouchSample {
	return TouchSample{
		ID:          id,
		Kind:        TouchDirect,
		Position:    Vec2{x, y},
		MajorRadius: radius,
		MinorRadius: radius,
		Timestamp:   ts,
		Flags:       FlagRadius,
	}
}

func TestPipelineStroke(t *testing.T) {
	p := newTestPipeline()
	p.InjectStroke(1, Vec2{0, 0}, Vec2{100, 0}, 5, 0.8)
	if p.PendingInjections() != 6 {
		t.Fatalf("PendingInjections = %d, want 6", p.PendingInjections())
	}

	evs := drainAll(p)
	want := []EventType{EventPencilDown, EventPencilMove, EventPencilMove, EventPencilMove, EventPencilMove, EventPencilUp}
	got := eventTypes(evs)
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	assertNear(t, "down pressure", evs[0].Point.Pressure, 0.8)
	assertVec(t, "last move", evs[4].Point.Position, Vec2{100, 0}, epsilon)
	assertVec(t, "up position", evs[5].Point.Position, Vec2{100, 0}, epsilon)
	if evs[0].Point.Tilt.Magnitude == 0 {
		t.Error("injected stroke should carry tilt")
	}
	if len(evs[0].Predicted) != 0 {
		t.Error("pencil-down should carry no predictions")
	}
	for i := 1; i <= 4; i++ {
		if len(evs[i].Predicted) != defaultPredictionFrames {
			t.Errorf("move %d predictions = %d, want %d", i, len(evs[i].Predicted), defaultPredictionFrames)
		}
	}
	if _, ok := p.Pencil(); ok {
		t.Error("pencil should be released")
	}
}

func TestPipelinePredictionDisabled(t *testing.T) {
	s := DefaultSettings()
	s.PredictiveTouch = false
	p := NewPipeline(s, NewEventBus(64))
	p.InjectStroke(1, Vec2{0, 0}, Vec2{50, 50}, 4, 0.5)
	for _, ev := range drainAll(p) {
		if len(ev.Predicted) != 0 {
			t.Fatalf("%s carried predictions with prediction disabled", ev.Type)
		}
	}
}

func TestPipelineSecondStylus(t *testing.T) {
	p := newTestPipeline()
	p.Push(TouchFrame{Timestamp: 20, Touches: []TouchSample{
		stylus(1, 10, 10, 0.5, 10),
		stylus(2, 50, 50, 0.5, 20),
	}})
	p.Drain()
	evs := collect(p.Bus())
	if len(evs) != 2 {
		t.Fatalf("events = %v, want violation and down", eventTypes(evs))
	}
	if evs[0].Type != EventProtocolViolation || evs[0].TouchID != 1 {
		t.Errorf("first = %s for %d, want violation for 1", evs[0].Type, evs[0].TouchID)
	}
	if evs[1].Type != EventPencilDown || evs[1].TouchID != 2 {
		t.Errorf("second = %s for %d, want down for 2", evs[1].Type, evs[1].TouchID)
	}

	// The ignored stylus stays ignored while it is held.
	p.Push(TouchFrame{Timestamp: 30, Touches: []TouchSample{
		stylus(1, 12, 12, 0.5, 30),
		stylus(2, 52, 52, 0.5, 30),
	}})
	p.Drain()
	for _, ev := range collect(p.Bus()) {
		if ev.TouchID == 1 {
			t.Errorf("ignored stylus produced %s", ev.Type)
		}
	}
}

func TestPipelineStylusWhileActive(t *testing.T) {
	p := newTestPipeline()
	p.Push(TouchFrame{Touches: []TouchSample{stylus(1, 0, 0, 0.5, 0)}})
	p.Push(TouchFrame{Touches: []TouchSample{stylus(1, 1, 0, 0.5, 8), stylus(2, 40, 0, 0.5, 8)}})
	p.Drain()
	got := eventTypes(collect(p.Bus()))
	want := []EventType{EventPencilDown, EventPencilMove, EventProtocolViolation}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestPipelinePalmRejection(t *testing.T) {
	p := newTestPipeline()
	p.Push(TouchFrame{Timestamp: 1000, Touches: []TouchSample{stylus(1, 100, 100, 0.5, 1000)}})
	p.Push(TouchFrame{Timestamp: 1020, Touches: []TouchSample{
		stylus(1, 101, 100, 0.5, 1020),
		finger(2, 110, 105, 5, 1020),
	}})
	p.Drain()
	if !p.IsRejected(2) {
		t.Error("finger near a fresh pencil-down should be rejected")
	}
	if p.ActiveContacts() != 2 {
		t.Errorf("ActiveContacts = %d, want 2", p.ActiveContacts())
	}

	// Release clears the rejection.
	p.Push(TouchFrame{Timestamp: 1030, Touches: []TouchSample{stylus(1, 102, 100, 0.5, 1030)}})
	p.Drain()
	if p.IsRejected(2) {
		t.Error("rejection should end with the contact")
	}
}

func TestPipelineRejectedFingersMakeNoGesture(t *testing.T) {
	p := newTestPipeline()
	p.Push(TouchFrame{Timestamp: 0, Touches: []TouchSample{finger(1, 0, 0, 30, 0), finger(2, 40, 0, 30, 0)}})
	p.Push(TouchFrame{Timestamp: 10})
	p.Drain()
	for _, ev := range collect(p.Bus()) {
		if ev.Type == EventGesture {
			t.Errorf("palm contacts produced gesture %s", ev.Gesture.Type)
		}
	}
}

func TestPipelineMalformedSampleKeepsContact(t *testing.T) {
	p := newTestPipeline()
	p.Push(TouchFrame{Touches: []TouchSample{stylus(1, 10, 10, 0.5, 0)}})
	p.Push(TouchFrame{Touches: []TouchSample{stylus(1, math.NaN(), 10, 0.5, 8)}})
	p.Drain()
	got := eventTypes(collect(p.Bus()))
	if len(got) != 1 || got[0] != EventPencilDown {
		t.Errorf("events = %v, want only pencil-down", got)
	}
	if _, ok := p.Pencil(); !ok {
		t.Error("pencil should still be active after a malformed sample")
	}
}

func TestPipelineMissingForce(t *testing.T) {
	p := newTestPipeline()
	s := stylus(1, 0, 0, 0.9, 0)
	s.Flags = 0
	p.Push(TouchFrame{Touches: []TouchSample{s}})
	p.Drain()
	evs := collect(p.Bus())
	if len(evs) != 1 {
		t.Fatalf("events = %v", eventTypes(evs))
	}
	if evs[0].Point.Pressure != 0 {
		t.Errorf("pressure = %v with no force flag, want 0", evs[0].Point.Pressure)
	}
	if evs[0].Point.Tilt != (TiltVector{}) {
		t.Errorf("tilt = %+v with no altitude, want zero", evs[0].Point.Tilt)
	}
}

func TestPipelineTapGesture(t *testing.T) {
	p := newTestPipeline()
	p.InjectTap(Vec2{100, 100}, Vec2{140, 100})
	evs := drainAll(p)
	if len(evs) != 1 || evs[0].Type != EventGesture {
		t.Fatalf("events = %v, want one gesture", eventTypes(evs))
	}
	if evs[0].Gesture.Type != GestureTap || evs[0].Gesture.Fingers != 2 {
		t.Errorf("gesture = %+v, want two-finger tap", evs[0].Gesture)
	}
}

func TestPipelinePinchGesture(t *testing.T) {
	p := newTestPipeline()
	p.InjectFingers([]Vec2{{100, 100}, {200, 100}}, []Vec2{{50, 100}, {250, 100}}, 6)
	evs := drainAll(p)
	if len(evs) < 2 {
		t.Fatalf("events = %v, want pinch began..ended", eventTypes(evs))
	}
	first, last := evs[0].Gesture, evs[len(evs)-1].Gesture
	if first.Type != GesturePinch || first.Phase != PhaseBegan {
		t.Errorf("first = %s phase %d", first.Type, first.Phase)
	}
	if last.Phase != PhaseEnded {
		t.Errorf("last phase = %d, want ended", last.Phase)
	}
	assertNear(t, "final scale", last.Scale, 2)
}

func TestPipelineUpdateSettingsNextDrain(t *testing.T) {
	p := newTestPipeline()
	s := DefaultSettings()
	s.Smoothing = 0.2
	if err := p.UpdateSettings(s); err != nil {
		t.Fatal(err)
	}
	if p.Settings().Smoothing != 0.7 {
		t.Error("settings should not change before Drain")
	}
	p.Drain()
	if p.Settings().Smoothing != 0.2 {
		t.Errorf("Smoothing = %v after Drain, want 0.2", p.Settings().Smoothing)
	}

	s.PressureCurve = "nope"
	if err := p.UpdateSettings(s); err == nil {
		t.Error("invalid settings should be refused")
	}
}

func TestPipelineBacklog(t *testing.T) {
	p := newTestPipeline()
	for i := 0; i < defaultMaxPending+8; i++ {
		p.Push(TouchFrame{Timestamp: float64(i)})
	}
	if n := p.Drain(); n != defaultMaxPending {
		t.Errorf("Drain = %d, want %d", n, defaultMaxPending)
	}
}

func TestPipelinePushCopiesTouches(t *testing.T) {
	p := newTestPipeline()
	buf := []TouchSample{stylus(1, 10, 10, 0.5, 0)}
	p.Push(TouchFrame{Touches: buf})
	buf[0].Position = Vec2{999, 999}
	p.Drain()
	evs := collect(p.Bus())
	assertVec(t, "down", evs[0].Point.Position, Vec2{10, 10}, epsilon)
}

func TestPipelineView(t *testing.T) {
	p := newTestPipeline()
	v := NewView(Rect{Width: 200, Height: 200})
	v.ZoomAround(Vec2{100, 100}, 2)
	p.SetView(v)
	p.Push(TouchFrame{Touches: []TouchSample{stylus(1, 150, 100, 0.5, 0)}})
	p.Drain()
	evs := collect(p.Bus())
	assertVec(t, "canvas position", evs[0].Point.Position, Vec2{125, 100}, 1e-9)
}

func TestPipelineReset(t *testing.T) {
	p := newTestPipeline()
	p.Push(TouchFrame{Touches: []TouchSample{stylus(1, 0, 0, 0.5, 0), finger(2, 300, 300, 5, 0)}})
	p.Drain()
	collect(p.Bus())
	p.InjectTap(Vec2{1, 1})
	p.Reset()
	if p.ActiveContacts() != 0 || p.PendingInjections() != 0 {
		t.Errorf("after Reset contacts = %d injections = %d", p.ActiveContacts(), p.PendingInjections())
	}
	if _, ok := p.Pencil(); ok {
		t.Error("pencil should be cleared")
	}
	p.Drain()
	if evs := collect(p.Bus()); len(evs) != 0 {
		t.Errorf("Reset emitted %v", eventTypes(evs))
	}
}

func TestInjectFrameClock(t *testing.T) {
	p := newTestPipeline()
	p.InjectFrame(TouchFrame{Touches: []TouchSample{{ID: 1}}})
	p.InjectFrame(TouchFrame{Timestamp: 500})
	if got := p.injectQueue[0].Timestamp; !approxEqual(got, predictionFrameMs, 1e-9) {
		t.Errorf("first timestamp = %v, want %v", got, predictionFrameMs)
	}
	if got := p.injectQueue[0].Touches[0].Timestamp; got != p.injectQueue[0].Timestamp {
		t.Errorf("sample timestamp = %v, want frame timestamp", got)
	}
	if p.injectQueue[1].Timestamp != 500 {
		t.Errorf("explicit timestamp = %v, want 500", p.injectQueue[1].Timestamp)
	}
}

func TestInjectOneFramePerDrain(t *testing.T) {
	p := newTestPipeline()
	p.InjectFingers([]Vec2{{0, 0}}, []Vec2{{10, 0}}, 3)
	if p.PendingInjections() != 4 {
		t.Fatalf("PendingInjections = %d, want 4", p.PendingInjections())
	}
	for want := 3; want >= 0; want-- {
		if n := p.Drain(); n != 1 {
			t.Fatalf("Drain = %d, want 1", n)
		}
		if p.PendingInjections() != want {
			t.Fatalf("PendingInjections = %d, want %d", p.PendingInjections(), want)
		}
	}
}
