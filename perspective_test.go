package inkwell

import "testing"

func TestQuadToQuadCorners(t *testing.T) {
	src := Rect{X: 10, Y: 20, Width: 100, Height: 50}.Corners()
	dst := [4]Vec2{{0, 0}, {140, 15}, {120, 90}, {-10, 70}}
	h := quadToQuad(src, dst)
	for i := range src {
		got, ok := h.apply(src[i])
		if !ok {
			t.Fatalf("corner %d mapped to infinity", i)
		}
		assertVec(t, "corner", got, dst[i], 1e-6)
	}
}

func TestQuadToQuadRoundTrip(t *testing.T) {
	a := [4]Vec2{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	b := [4]Vec2{{10, 5}, {90, 0}, {110, 120}, {-5, 95}}
	fwd := quadToQuad(a, b)
	inv := quadToQuad(b, a)
	for _, p := range []Vec2{{50, 50}, {12, 80}, {99, 1}} {
		q, _ := fwd.apply(p)
		back, ok := inv.apply(q)
		if !ok {
			t.Fatalf("inverse of %v failed", q)
		}
		assertVec(t, "round trip", back, p, 1e-6)
	}
}

func TestSquareToQuadParallelogram(t *testing.T) {
	q := [4]Vec2{{0, 0}, {10, 0}, {15, 10}, {5, 10}}
	h := squareToQuad(q)
	if h.a13 != 0 || h.a23 != 0 {
		t.Errorf("parallelogram should be affine, got a13=%v a23=%v", h.a13, h.a23)
	}
	got, _ := h.apply(Vec2{0.5, 0.5})
	assertVec(t, "center", got, Vec2{7.5, 5}, 1e-12)
}

func TestHomographyIdentity(t *testing.T) {
	r := Rect{X: 3, Y: 4, Width: 30, Height: 40}.Corners()
	h := quadToQuad(r, r)
	got, _ := h.apply(Vec2{17, 29})
	assertVec(t, "identity", got, Vec2{17, 29}, 1e-9)
}

func TestConvexQuad(t *testing.T) {
	tests := []struct {
		name string
		q    [4]Vec2
		want bool
	}{
		{"square", [4]Vec2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, true},
		{"counter-clockwise", [4]Vec2{{0, 0}, {0, 10}, {10, 10}, {10, 0}}, true},
		{"trapezoid", [4]Vec2{{2, 0}, {8, 0}, {10, 10}, {0, 10}}, true},
		{"bowtie", [4]Vec2{{0, 0}, {10, 10}, {10, 0}, {0, 10}}, false},
		{"dart", [4]Vec2{{0, 0}, {10, 0}, {3, 3}, {0, 10}}, false},
		{"degenerate", [4]Vec2{{0, 0}, {5, 0}, {10, 0}, {0, 10}}, false},
	}
	for _, tt := range tests {
		if got := convexQuad(tt.q); got != tt.want {
			t.Errorf("%s: convexQuad = %v, want %v", tt.name, got, tt.want)
		}
	}
}
