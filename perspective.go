package inkwell

import "math"

// homography is a 3x3 projective transform. A point maps as
//
//	x' = (a11*x + a21*y + a31) / (a13*x + a23*y + a33)
//	y' = (a12*x + a22*y + a32) / (a13*x + a23*y + a33)
type homography struct {
	a11, a12, a13 float64
	a21, a22, a23 float64
	a31, a32, a33 float64
}

// quadToQuad solves the transform taking each src corner to the matching
// dst corner. Corners are ordered top-left, top-right, bottom-right,
// bottom-left.
func quadToQuad(src, dst [4]Vec2) homography {
	return squareToQuad(dst).times(quadToSquare(src))
}

// squareToQuad maps the unit square (0,0) (1,0) (1,1) (0,1) onto q.
func squareToQuad(q [4]Vec2) homography {
	dx3 := q[0].X - q[1].X + q[2].X - q[3].X
	dy3 := q[0].Y - q[1].Y + q[2].Y - q[3].Y
	if dx3 == 0 && dy3 == 0 {
		return homography{
			a11: q[1].X - q[0].X, a21: q[2].X - q[1].X, a31: q[0].X,
			a12: q[1].Y - q[0].Y, a22: q[2].Y - q[1].Y, a32: q[0].Y,
			a13: 0, a23: 0, a33: 1,
		}
	}
	dx1 := q[1].X - q[2].X
	dx2 := q[3].X - q[2].X
	dy1 := q[1].Y - q[2].Y
	dy2 := q[3].Y - q[2].Y
	den := dx1*dy2 - dx2*dy1
	a13 := (dx3*dy2 - dx2*dy3) / den
	a23 := (dx1*dy3 - dx3*dy1) / den
	return homography{
		a11: q[1].X - q[0].X + a13*q[1].X, a21: q[3].X - q[0].X + a23*q[3].X, a31: q[0].X,
		a12: q[1].Y - q[0].Y + a13*q[1].Y, a22: q[3].Y - q[0].Y + a23*q[3].Y, a32: q[0].Y,
		a13: a13, a23: a23, a33: 1,
	}
}

// quadToSquare is the inverse of squareToQuad up to scale.
func quadToSquare(q [4]Vec2) homography {
	return squareToQuad(q).adjoint()
}

// adjoint returns the transpose of the cofactor matrix. It is the inverse
// scaled by the determinant, which projective mapping ignores.
func (h homography) adjoint() homography {
	return homography{
		a11: h.a22*h.a33 - h.a23*h.a32,
		a21: h.a23*h.a31 - h.a21*h.a33,
		a31: h.a21*h.a32 - h.a22*h.a31,
		a12: h.a13*h.a32 - h.a12*h.a33,
		a22: h.a11*h.a33 - h.a13*h.a31,
		a32: h.a12*h.a31 - h.a11*h.a32,
		a13: h.a12*h.a23 - h.a13*h.a22,
		a23: h.a13*h.a21 - h.a11*h.a23,
		a33: h.a11*h.a22 - h.a12*h.a21,
	}
}

// times returns h * o: points are mapped by o first.
func (h homography) times(o homography) homography {
	return homography{
		a11: h.a11*o.a11 + h.a21*o.a12 + h.a31*o.a13,
		a21: h.a11*o.a21 + h.a21*o.a22 + h.a31*o.a23,
		a31: h.a11*o.a31 + h.a21*o.a32 + h.a31*o.a33,
		a12: h.a12*o.a11 + h.a22*o.a12 + h.a32*o.a13,
		a22: h.a12*o.a21 + h.a22*o.a22 + h.a32*o.a23,
		a32: h.a12*o.a31 + h.a22*o.a32 + h.a32*o.a33,
		a13: h.a13*o.a11 + h.a23*o.a12 + h.a33*o.a13,
		a23: h.a13*o.a21 + h.a23*o.a22 + h.a33*o.a23,
		a33: h.a13*o.a31 + h.a23*o.a32 + h.a33*o.a33,
	}
}

// apply maps p. It returns false when p maps to the line at infinity.
func (h homography) apply(p Vec2) (Vec2, bool) {
	den := h.a13*p.X + h.a23*p.Y + h.a33
	if math.Abs(den) < 1e-12 {
		return Vec2{}, false
	}
	return Vec2{
		(h.a11*p.X + h.a21*p.Y + h.a31) / den,
		(h.a12*p.X + h.a22*p.Y + h.a32) / den,
	}, true
}

// convexQuad reports whether q is a strictly convex quadrilateral. A
// perspective mapping is only well defined for those.
func convexQuad(q [4]Vec2) bool {
	sign := 0.0
	for i := range q {
		a := q[(i+1)%4].Sub(q[i])
		b := q[(i+2)%4].Sub(q[(i+1)%4])
		cross := a.X*b.Y - a.Y*b.X
		if math.Abs(cross) < 1e-9 {
			return false
		}
		if sign == 0 {
			sign = cross
		} else if (cross > 0) != (sign > 0) {
			return false
		}
	}
	return true
}
