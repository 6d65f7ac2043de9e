package inkwell

import "math"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// Affine matrices are stored as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |

func translateAffine(x, y float64) [6]float64 {
	return [6]float64{1, 0, 0, 1, x, y}
}

func scaleAffine(sx, sy float64) [6]float64 {
	return [6]float64{sx, 0, 0, sy, 0, 0}
}

func rotateAffine(r float64) [6]float64 {
	sin, cos := math.Sincos(r)
	return [6]float64{cos, sin, -sin, cos, 0, 0}
}

func skewAffine(kx, ky float64) [6]float64 {
	var tx, ty float64
	if kx != 0 {
		tx = math.Tan(kx)
	}
	if ky != 0 {
		ty = math.Tan(ky)
	}
	return [6]float64{1, ty, tx, 1, 0, 0}
}

// multiplyAffine multiplies two 2D affine matrices: result = p * c.
// Points are transformed by c first, then by p.
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// chainAffine multiplies matrices left to right: chainAffine(A, B, C) = A*B*C.
func chainAffine(ms ...[6]float64) [6]float64 {
	out := identityTransform
	for _, m := range ms {
		out = multiplyAffine(out, m)
	}
	return out
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix and false if the matrix is singular.
func invertAffine(m [6]float64) ([6]float64, bool) {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform, false
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}, true
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, p Vec2) Vec2 {
	return Vec2{m[0]*p.X + m[2]*p.Y + m[4], m[1]*p.X + m[3]*p.Y + m[5]}
}

// transformedAABB maps the four corners of r through m and returns their
// axis-aligned bounding box.
func transformedAABB(m [6]float64, r Rect) Rect {
	c := r.Corners()
	pts := [4]Vec2{
		transformPoint(m, c[0]),
		transformPoint(m, c[1]),
		transformPoint(m, c[2]),
		transformPoint(m, c[3]),
	}
	return rectFromPoints(pts[:])
}
