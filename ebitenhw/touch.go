// Package ebitenhw connects inkwell to Ebitengine: it polls touches and the
// mouse into touch frames, stores layers as ebiten images, and runs a Canvas
// inside an ebiten.Game.
package ebitenhw

import (
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/inkwell"
)

// MouseTouchID is the identifier used for the mouse when it acts as a stylus.
const MouseTouchID inkwell.TouchID = -1

// touchIDBase offsets ebiten touch identifiers so they never collide with
// the mouse or injected contacts.
const touchIDBase inkwell.TouchID = 1 << 20

// TouchSource polls Ebitengine input once per tick and produces a
// TouchFrame holding every live contact. Ebitengine reports neither force
// nor contact radius for touches, so touches are direct contacts with
// those fields absent.
type TouchSource struct {
	// MouseAsStylus reports the left mouse button as a stylus contact.
	MouseAsStylus bool
	// MouseForce is the force reported for the mouse stylus. Holding Shift
	// reports full force.
	MouseForce float64
	// MouseAltitude is the pen altitude reported for the mouse stylus in
	// radians. Zero reports no tilt.
	MouseAltitude float64

	start    time.Time
	touchIDs []ebiten.TouchID
	touches  []inkwell.TouchSample
}

// NewTouchSource creates a source with the mouse enabled as a stylus.
func NewTouchSource() *TouchSource {
	return &TouchSource{
		MouseAsStylus: true,
		MouseForce:    0.5,
		start:         time.Now(),
	}
}

// Poll reads the current input state. The returned frame's slice is reused
// by the next Poll; Pipeline.Push copies it.
func (s *TouchSource) Poll() inkwell.TouchFrame {
	now := float64(time.Since(s.start).Microseconds()) / 1000
	s.touches = s.touches[:0]

	s.touchIDs = ebiten.AppendTouchIDs(s.touchIDs[:0])
	for _, tid := range s.touchIDs {
		x, y := ebiten.TouchPosition(tid)
		s.touches = append(s.touches, inkwell.TouchSample{
			ID:        touchIDBase + inkwell.TouchID(tid),
			Kind:      inkwell.TouchDirect,
			Position:  inkwell.Vec2{X: float64(x), Y: float64(y)},
			Timestamp: now,
		})
	}

	if s.MouseAsStylus && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		force := s.MouseForce
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			force = 1
		}
		sample := inkwell.TouchSample{
			ID:        MouseTouchID,
			Kind:      inkwell.TouchStylus,
			Position:  inkwell.Vec2{X: float64(mx), Y: float64(my)},
			Force:     force,
			Timestamp: now,
			Flags:     inkwell.FlagForce,
		}
		if s.MouseAltitude > 0 {
			sample.Altitude = math.Min(s.MouseAltitude, math.Pi/2)
			sample.Flags |= inkwell.FlagAltitude
		}
		s.touches = append(s.touches, sample)
	}

	return inkwell.TouchFrame{Timestamp: now, Touches: s.touches}
}
