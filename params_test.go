package inkwell

import (
	"math"
	"testing"
)

var testBounds = Rect{X: 0, Y: 0, Width: 100, Height: 100}

func TestComposeMatrixIdentity(t *testing.T) {
	assertMatrix(t, "identity", composeMatrix(IdentityParams(), Rect{X: 13, Y: 7, Width: 40, Height: 90}), identityTransform)
}

func TestComposeMatrixRotatesAroundAnchor(t *testing.T) {
	p := IdentityParams()
	p.Rotation = math.Pi / 2
	m := composeMatrix(p, testBounds)
	assertVec(t, "anchor", transformPoint(m, Vec2{50, 50}), Vec2{50, 50}, 1e-9)
	assertVec(t, "top-left", transformPoint(m, Vec2{0, 0}), Vec2{100, 0}, 1e-9)

	p.AnchorX, p.AnchorY = 0, 0
	m = composeMatrix(p, testBounds)
	assertVec(t, "corner anchor", transformPoint(m, Vec2{0, 0}), Vec2{0, 0}, 1e-9)
	assertVec(t, "corner anchor x", transformPoint(m, Vec2{100, 0}), Vec2{0, 100}, 1e-9)
}

func TestComposeMatrixTranslationLast(t *testing.T) {
	p := IdentityParams()
	p.ScaleX, p.ScaleY = 2, 2
	p.X, p.Y = 10, -5
	m := composeMatrix(p, testBounds)
	// Scaled about the center, then offset.
	assertVec(t, "top-left", transformPoint(m, Vec2{0, 0}), Vec2{-40, -55}, 1e-9)
}

func TestComposeMatrixFlip(t *testing.T) {
	p := IdentityParams()
	p.FlipX = true
	m := composeMatrix(p, testBounds)
	assertVec(t, "flip x", transformPoint(m, Vec2{0, 10}), Vec2{100, 10}, 1e-9)

	p = IdentityParams()
	p.FlipY = true
	m = composeMatrix(p, testBounds)
	assertVec(t, "flip y", transformPoint(m, Vec2{10, 0}), Vec2{10, 100}, 1e-9)
}

func TestComposeMatrixSkew(t *testing.T) {
	p := IdentityParams()
	p.SkewX = math.Pi / 4
	m := composeMatrix(p, testBounds)
	// A 45 degree horizontal skew shifts x by the distance from the anchor row.
	assertVec(t, "bottom", transformPoint(m, Vec2{50, 100}), Vec2{100, 100}, 1e-9)
	assertVec(t, "anchor row", transformPoint(m, Vec2{0, 50}), Vec2{0, 50}, 1e-9)
}

func TestParamsMerge(t *testing.T) {
	base := IdentityParams()
	base.ScaleX, base.ScaleY = 2, 1

	tests := []struct {
		name   string
		u      ParamUpdate
		locked bool
		sx, sy float64
	}{
		{"uniform", ParamUpdate{Scale: Ptr(3.0)}, false, 3, 3},
		{"uniform wins over axes", ParamUpdate{Scale: Ptr(3.0), ScaleX: Ptr(9.0)}, true, 3, 3},
		{"free x", ParamUpdate{ScaleX: Ptr(4.0)}, false, 4, 1},
		{"locked x", ParamUpdate{ScaleX: Ptr(4.0)}, true, 4, 2},
		{"locked y", ParamUpdate{ScaleY: Ptr(0.5)}, true, 1, 0.5},
		{"locked both", ParamUpdate{ScaleX: Ptr(5.0), ScaleY: Ptr(6.0)}, true, 5, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.merge(tt.u, tt.locked)
			assertNear(t, "scaleX", got.ScaleX, tt.sx)
			assertNear(t, "scaleY", got.ScaleY, tt.sy)
		})
	}
}

func TestParamsMergeLeavesUnsetFields(t *testing.T) {
	p := IdentityParams()
	p.X, p.Rotation, p.FlipY = 5, 1, true
	got := p.merge(ParamUpdate{Y: Ptr(7.0), FlipX: Ptr(true)}, false)
	want := p
	want.Y, want.FlipX = 7, true
	if got != want {
		t.Errorf("merge = %+v, want %+v", got, want)
	}
}
