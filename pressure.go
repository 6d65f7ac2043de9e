package inkwell

import (
	"errors"
	"fmt"
	"math"

	"github.com/tanema/gween/ease"
)

const (
	pressureDeadzone = 0.05
	// speedForFullThinning is the stroke speed (px/ms) at which velocity
	// attenuation reaches its maximum.
	speedForFullThinning = 4.0
)

// CurveKind selects a pressure response curve.
type CurveKind uint8

const (
	CurveLinear    CurveKind = iota // identity
	CurveQuadratic                  // x^2
	CurveCubic                      // x^3
	CurveCustom                     // piecewise linear through Points
	CurveEase                       // gween easing function
)

// PressureCurve is a closed variant over the supported response curves.
// Points is only read for CurveCustom and Ease only for CurveEase.
type PressureCurve struct {
	Kind   CurveKind
	Points []float64
	Ease   ease.TweenFunc
}

var errBadCurve = errors.New("inkwell: invalid pressure curve")

// easePresets maps preset names to easing functions usable as curves.
var easePresets = map[string]ease.TweenFunc{
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
}

// ParsePressureCurve resolves a curve name. points is used for "custom" and
// must hold at least two values.
func ParsePressureCurve(name string, points []float64) (PressureCurve, error) {
	switch name {
	case "linear":
		return PressureCurve{Kind: CurveLinear}, nil
	case "quadratic":
		return PressureCurve{Kind: CurveQuadratic}, nil
	case "cubic":
		return PressureCurve{Kind: CurveCubic}, nil
	case "custom":
		if len(points) < 2 {
			return PressureCurve{}, fmt.Errorf("%w: custom curve needs at least 2 points, got %d", errBadCurve, len(points))
		}
		pts := make([]float64, len(points))
		for i, p := range points {
			pts[i] = clamp(p, 0, 1)
		}
		return PressureCurve{Kind: CurveCustom, Points: pts}, nil
	}
	if fn, ok := easePresets[name]; ok {
		return PressureCurve{Kind: CurveEase, Ease: fn}, nil
	}
	return PressureCurve{}, fmt.Errorf("%w: unknown curve %q", errBadCurve, name)
}

// applyCurve maps x in [0, 1] through the curve. The result is clamped to [0, 1].
func applyCurve(c PressureCurve, x float64) float64 {
	var y float64
	switch c.Kind {
	case CurveQuadratic:
		y = x * x
	case CurveCubic:
		y = x * x * x
	case CurveCustom:
		y = customCurve(c.Points, x)
	case CurveEase:
		if c.Ease == nil {
			y = x
		} else {
			y = float64(c.Ease(float32(x), 0, 1, 1))
		}
	default:
		y = x
	}
	return clamp(y, 0, 1)
}

// customCurve interpolates between the two control points bracketing
// position = x * (N-1).
func customCurve(pts []float64, x float64) float64 {
	n := len(pts)
	if n == 0 {
		return x
	}
	if n == 1 {
		return pts[0]
	}
	pos := x * float64(n-1)
	i := int(math.Floor(pos))
	if i >= n-1 {
		return pts[n-1]
	}
	if i < 0 {
		return pts[0]
	}
	frac := pos - float64(i)
	return pts[i] + (pts[i+1]-pts[i])*frac
}

// sensitivityCurve applies output = v ^ (2 - sensitivity), sensitivity in [0, 2].
func sensitivityCurve(v, sensitivity float64) float64 {
	if v <= 0 {
		return 0
	}
	return clamp(math.Pow(v, 2-clamp(sensitivity, 0, 2)), 0, 1)
}

// PressureResponse turns raw stylus force into a shaped, smoothed pressure.
// It holds the last emitted value; call Reset when the stylus lifts.
type PressureResponse struct {
	Curve PressureCurve
	// Sensitivity in [0, 2]; 1 leaves the curve unchanged.
	Sensitivity float64
	// Smoothing in [0, 1]; see Settings.Smoothing.
	Smoothing float64
	// VelocitySensitivity in [0, 1] thins pressure at high stroke speed.
	VelocitySensitivity float64

	last    float64
	hasLast bool
}

// NewPressureResponse creates a response configured from settings.
func NewPressureResponse(s Settings) *PressureResponse {
	p := &PressureResponse{}
	p.Configure(s)
	return p
}

// Configure updates the curve parameters without touching smoothing state.
func (p *PressureResponse) Configure(s Settings) {
	p.Curve = s.Curve()
	p.Sensitivity = 2 * clamp(s.PressureSensitivity, 0, 1)
	p.Smoothing = clamp(s.Smoothing, 0, 1)
	p.VelocitySensitivity = clamp(s.VelocitySensitivity, 0, 1)
}

// Process maps one raw force sample to an output pressure in [0, 1].
// Inputs below the deadzone yield 0 and leave smoothing state unchanged.
func (p *PressureResponse) Process(force float64) float64 {
	return p.ProcessWithSpeed(force, 0)
}

// ProcessWithSpeed is Process with velocity attenuation for a stroke moving
// at speed px/ms.
func (p *PressureResponse) ProcessWithSpeed(force, speed float64) float64 {
	if math.IsNaN(force) || force < pressureDeadzone {
		return 0
	}
	x := clamp(force, 0, 1)
	v := sensitivityCurve(applyCurve(p.Curve, x), p.Sensitivity)

	if p.VelocitySensitivity > 0 && speed > 0 {
		k := math.Min(speed/speedForFullThinning, 1)
		v *= 1 - p.VelocitySensitivity*0.5*k
	}

	out := v
	if p.hasLast {
		factor := 1 - p.Smoothing
		out = p.last*factor + v*(1-factor)
	}
	out = clamp(out, 0, 1)
	p.last = out
	p.hasLast = true
	return out
}

// Last returns the most recently emitted pressure.
func (p *PressureResponse) Last() float64 {
	return p.last
}

// Reset clears smoothing state. Called when stylus contact ends.
func (p *PressureResponse) Reset() {
	p.last = 0
	p.hasLast = false
}
