package inkwell

import (
	"image"
	"sync/atomic"
)

const defaultEventCap = 1024

// EventType identifies a kind of published event.
type EventType uint8

const (
	EventPencilDown        EventType = iota // stylus contact started
	EventPencilMove                         // stylus moved; carries predictions when enabled
	EventPencilUp                           // stylus contact ended
	EventGesture                            // finger gesture began, changed, or ended
	EventTransformStarted                   // a transform session captured its target
	EventTransformUpdated                   // parameters changed
	EventTransformPreview                   // a preview render finished
	EventTransformCommitted                 // final render written to the target
	EventTransformCancelled                 // original content restored
	EventTransformModeChanged               // handle layout regenerated for a new mode
	EventHandleSelected                     // a handle drag began
	EventProtocolViolation                  // a reported, non-fatal misuse
	eventTypeCount
)

var eventTypeNames = [...]string{
	"pencil-down", "pencil-move", "pencil-up", "gesture",
	"transform-started", "transform-updated", "transform-preview",
	"transform-committed", "transform-cancelled", "transform-mode-changed",
	"handle-selected", "protocol-violation",
}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "unknown"
}

// EventMask selects event types for a handler.
type EventMask uint32

// MaskAll matches every event type.
const MaskAll EventMask = 1<<eventTypeCount - 1

// MaskOf builds a mask from event types.
func MaskOf(types ...EventType) EventMask {
	var m EventMask
	for _, t := range types {
		m |= 1 << t
	}
	return m
}

// Has reports whether the mask includes t.
func (m EventMask) Has(t EventType) bool {
	return m&(1<<t) != 0
}

// TransformEvent carries transform lifecycle data.
type TransformEvent struct {
	Target Target
	Mode   TransformMode
	Params Params
	Matrix [6]float64
	Bounds Rect
	Handle Handle
	// Image is the rendered content for preview and commit events.
	Image image.Image
}

// Event is a typed message published on the EventBus. Only the fields
// relevant to Type are populated.
type Event struct {
	Type    EventType
	TouchID TouchID
	// Pencil fields (EventPencilDown, EventPencilMove, EventPencilUp)
	Point     StrokePoint
	Predicted []PredictedPoint
	// Gesture fields (EventGesture)
	Gesture GestureEvent
	// Transform fields (EventTransform*, EventHandleSelected)
	Transform TransformEvent
	// Reason describes a protocol violation.
	Reason string
}

type eventHandler struct {
	id   uint32
	mask EventMask
	fn   func(Event)
}

// EventBus is a bounded FIFO of events with a handler registry. Publish
// never blocks: when the queue is full the event is dropped and counted.
// Ordering is preserved per publisher. Publish may be called from any
// goroutine; Dispatch and handler registration belong to the frame
// goroutine.
type EventBus struct {
	ch       chan Event
	handlers []eventHandler
	nextID   uint32
	dropped  atomic.Uint64
}

// NewEventBus creates a bus holding at most capacity undelivered events.
func NewEventBus(capacity int) *EventBus {
	if capacity <= 0 {
		capacity = defaultEventCap
	}
	return &EventBus{ch: make(chan Event, capacity)}
}

// Publish enqueues ev. It returns false if the queue was full.
func (b *EventBus) Publish(ev Event) bool {
	select {
	case b.ch <- ev:
		return true
	default:
		n := b.dropped.Add(1)
		Logger().Warn("inkwell: event queue full, dropping event",
			"type", ev.Type.String(), "dropped", n)
		return false
	}
}

// Events exposes the queue for consumers that prefer to receive directly.
// Mixing direct receives with Dispatch splits the stream between them.
func (b *EventBus) Events() <-chan Event {
	return b.ch
}

// Len returns the number of queued events.
func (b *EventBus) Len() int {
	return len(b.ch)
}

// Dropped returns how many events were discarded because the queue was full.
func (b *EventBus) Dropped() uint64 {
	return b.dropped.Load()
}

// Dispatch delivers every queued event to the matching handlers in
// registration order and returns the number of events drained. Events
// published by handlers during Dispatch are delivered on the next call.
func (b *EventBus) Dispatch() int {
	n := len(b.ch)
	for i := 0; i < n; i++ {
		ev := <-b.ch
		for _, h := range b.handlers {
			if h.mask.Has(ev.Type) {
				h.fn(ev)
			}
		}
	}
	return n
}

// OnEvent registers fn for the event types in mask.
func (b *EventBus) OnEvent(mask EventMask, fn func(Event)) CallbackHandle {
	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, eventHandler{id: id, mask: mask, fn: fn})
	return CallbackHandle{id: id, bus: b}
}

// CallbackHandle allows removing a registered handler.
type CallbackHandle struct {
	id  uint32
	bus *EventBus
}

// Remove unregisters this handler so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.bus == nil {
		return
	}
	s := h.bus.handlers
	for i := range s {
		if s[i].id == h.id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = eventHandler{}
			h.bus.handlers = s[:len(s)-1]
			return
		}
	}
}

// reportViolation publishes and logs a non-fatal protocol violation.
func reportViolation(b *EventBus, id TouchID, reason string) {
	Logger().Warn("inkwell: protocol violation", "reason", reason, "touch", int64(id))
	if b != nil {
		b.Publish(Event{Type: EventProtocolViolation, TouchID: id, Reason: reason})
	}
}
