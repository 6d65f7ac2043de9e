package inkwell

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertVec(t *testing.T, name string, got, want Vec2, eps float64) {
	t.Helper()
	if !approxEqual(got.X, want.X, eps) || !approxEqual(got.Y, want.Y, eps) {
		t.Errorf("%s = (%v, %v), want (%v, %v)", name, got.X, got.Y, want.X, want.Y)
	}
}

func assertMatrix(t *testing.T, name string, got, want [6]float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

func TestMultiplyAffineOrder(t *testing.T) {
	// Scale then translate: the point is scaled first.
	m := multiplyAffine(translateAffine(10, 0), scaleAffine(2, 2))
	assertVec(t, "p", transformPoint(m, Vec2{1, 1}), Vec2{12, 2}, epsilon)

	// Translate then scale: the translation is scaled too.
	m = multiplyAffine(scaleAffine(2, 2), translateAffine(10, 0))
	assertVec(t, "p", transformPoint(m, Vec2{1, 1}), Vec2{22, 2}, epsilon)
}

func TestChainAffineEmpty(t *testing.T) {
	assertMatrix(t, "chain()", chainAffine(), identityTransform)
}

func TestInvertAffineRoundTrip(t *testing.T) {
	m := chainAffine(translateAffine(30, -12), rotateAffine(0.7), scaleAffine(2, 0.5), skewAffine(0.2, 0))
	inv, ok := invertAffine(m)
	if !ok {
		t.Fatal("invertAffine reported singular")
	}
	assertMatrix(t, "m*inv", multiplyAffine(m, inv), identityTransform)

	p := Vec2{17, 42}
	assertVec(t, "round trip", transformPoint(inv, transformPoint(m, p)), p, 1e-9)
}

func TestInvertAffineSingular(t *testing.T) {
	inv, ok := invertAffine(scaleAffine(0, 1))
	if ok {
		t.Error("expected singular matrix")
	}
	assertMatrix(t, "inv", inv, identityTransform)
}

func TestRotateAffineQuarterTurn(t *testing.T) {
	// Y points down, so a positive quarter turn takes +X to +Y.
	assertVec(t, "rot", transformPoint(rotateAffine(math.Pi/2), Vec2{1, 0}), Vec2{0, 1}, 1e-12)
}

func TestTransformedAABB(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	got := transformedAABB(rotateAffine(math.Pi/4), r)
	d := 10 * math.Sqrt2
	assertNear(t, "width", got.Width, d)
	assertNear(t, "height", got.Height, d/2+d/2)
	assertNear(t, "x", got.X, -d/2)
	assertNear(t, "y", got.Y, 0)
}

func TestRectHelpers(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 30, Height: 40}
	if !r.Contains(10, 20) || !r.Contains(40, 60) {
		t.Error("edges should be inside")
	}
	if r.Contains(41, 20) {
		t.Error("(41,20) should be outside")
	}
	assertVec(t, "center", r.Center(), Vec2{25, 40}, epsilon)
	if (Rect{Width: 0, Height: 5}).Empty() != true {
		t.Error("zero width rect should be empty")
	}
	c := r.Corners()
	assertVec(t, "corner 2", c[2], Vec2{40, 60}, epsilon)

	bb := rectFromPoints([]Vec2{{5, 9}, {-1, 3}, {2, 12}})
	if bb != (Rect{X: -1, Y: 3, Width: 6, Height: 9}) {
		t.Errorf("rectFromPoints = %+v", bb)
	}
}

func TestTouchSampleNormalize(t *testing.T) {
	s := TouchSample{Force: 0.8, Altitude: 0.3, Azimuth: -math.Pi / 2}.normalize()
	if s.Force != 0 {
		t.Errorf("absent force = %v, want 0", s.Force)
	}
	assertNear(t, "absent altitude", s.Altitude, math.Pi/2)
	assertNear(t, "absent azimuth", s.Azimuth, 0)

	s = TouchSample{
		Force:    math.NaN(),
		Altitude: 3,
		Azimuth:  -math.Pi / 2,
		Flags:    FlagForce | FlagAltitude | FlagAzimuth,
	}.normalize()
	if s.Force != 0 {
		t.Errorf("NaN force = %v, want 0", s.Force)
	}
	assertNear(t, "clamped altitude", s.Altitude, math.Pi/2)
	assertNear(t, "wrapped azimuth", s.Azimuth, 3*math.Pi/2)
}

func TestTouchSampleValid(t *testing.T) {
	if !(TouchSample{Position: Vec2{1, 2}}).valid() {
		t.Error("finite position should be valid")
	}
	if (TouchSample{Position: Vec2{math.NaN(), 2}}).valid() {
		t.Error("NaN position should be invalid")
	}
	if (TouchSample{Position: Vec2{1, math.Inf(1)}}).valid() {
		t.Error("Inf position should be invalid")
	}
}
