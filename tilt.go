package inkwell

import "math"

// tiltThreshold is the magnitude below which the pen counts as upright.
const tiltThreshold = 0.1

// TiltVector is the processed pen tilt. Angle is the azimuth; X and Y are
// the magnitude decomposed along it.
type TiltVector struct {
	Magnitude float64
	Angle     float64
	X, Y      float64
}

// Tilt converts altitude (0 = flat, pi/2 = perpendicular) and azimuth into a
// tilt vector. sensitivity is in [0, 2] and shapes magnitude the same way
// pressure sensitivity shapes force. Tilt is a pure function.
func Tilt(altitude, azimuth, sensitivity float64) TiltVector {
	if math.IsNaN(altitude) {
		altitude = math.Pi / 2
	}
	altitude = clamp(altitude, 0, math.Pi/2)
	mag := 1 - altitude/(math.Pi/2)
	if mag < tiltThreshold {
		return TiltVector{}
	}
	mag = sensitivityCurve(mag, sensitivity)
	sin, cos := math.Sincos(azimuth)
	return TiltVector{
		Magnitude: mag,
		Angle:     azimuth,
		X:         cos * mag,
		Y:         sin * mag,
	}
}
