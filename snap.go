package inkwell

import "math"

const degToRad = math.Pi / 180

const (
	rotationSnapStep      = 45 * degToRad
	rotationSnapThreshold = 5 * degToRad
	scaleSnapThreshold    = 0.05
	positionSnapPitch     = 10
)

// scalePresets are the scale values a snapped axis scale settles on.
var scalePresets = [...]float64{0.25, 0.5, 1, 1.5, 2, 3, 4}

// snapRotation moves r to the nearest multiple of 45 degrees when within
// 5 degrees of it.
func snapRotation(r float64) float64 {
	n := math.Round(r/rotationSnapStep) * rotationSnapStep
	if math.Abs(r-n) <= rotationSnapThreshold {
		return n
	}
	return r
}

// snapScale moves s to the closest preset within 0.05, keeping its sign.
func snapScale(s float64) float64 {
	a := math.Abs(s)
	for _, p := range scalePresets {
		if math.Abs(a-p) <= scaleSnapThreshold {
			return math.Copysign(p, s)
		}
	}
	return s
}

func snapPosition(v float64) float64 {
	return math.Round(v/positionSnapPitch) * positionSnapPitch
}

// snapParams applies every snap rule. The result is a fixed point:
// snapParams(snapParams(p)) == snapParams(p).
func snapParams(p Params) Params {
	p.Rotation = snapRotation(p.Rotation)
	p.ScaleX = snapScale(p.ScaleX)
	p.ScaleY = snapScale(p.ScaleY)
	p.X = snapPosition(p.X)
	p.Y = snapPosition(p.Y)
	return p
}
