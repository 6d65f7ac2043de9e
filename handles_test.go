package inkwell

import (
	"math"
	"testing"
)

func TestScaleHandlesLayout(t *testing.T) {
	hs := scaleHandles(Rect{X: 0, Y: 0, Width: 100, Height: 50})
	if len(hs) != 9 {
		t.Fatalf("len = %d, want 9", len(hs))
	}
	want := []struct {
		kind HandleKind
		pos  Vec2
	}{
		{HandleCorner, Vec2{0, 0}},
		{HandleCorner, Vec2{100, 0}},
		{HandleCorner, Vec2{100, 50}},
		{HandleCorner, Vec2{0, 50}},
		{HandleEdge, Vec2{50, 0}},
		{HandleEdge, Vec2{100, 25}},
		{HandleEdge, Vec2{50, 50}},
		{HandleEdge, Vec2{0, 25}},
		{HandleRotate, Vec2{50, -30}},
	}
	for i, w := range want {
		if hs[i].Kind != w.kind {
			t.Errorf("handle %d kind = %v, want %v", i, hs[i].Kind, w.kind)
		}
		assertVec(t, hs[i].Kind.String(), hs[i].Position, w.pos, 1e-12)
	}
}

func TestHitHandle(t *testing.T) {
	hs := scaleHandles(Rect{X: 0, Y: 0, Width: 100, Height: 50})
	tests := []struct {
		name string
		p    Vec2
		kind HandleKind
		idx  int
		ok   bool
	}{
		{"near corner", Vec2{98, 3}, HandleCorner, 1, true},
		{"rotate", Vec2{50, -25}, HandleRotate, 0, true},
		{"edge", Vec2{95, 27}, HandleEdge, 1, true},
		{"miss", Vec2{500, 500}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := hitHandle(hs, tt.p, defaultHitRadius)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && (h.Kind != tt.kind || h.Index != tt.idx) {
				t.Errorf("hit %v/%d, want %v/%d", h.Kind, h.Index, tt.kind, tt.idx)
			}
		})
	}
}

func testDrag(h Handle, start Vec2) *dragState {
	return &dragState{handle: h, start: start, params: IdentityParams(), center: Vec2{50, 50}}
}

func TestDragMove(t *testing.T) {
	d := testDrag(Handle{Kind: HandleMove}, Vec2{10, 10})
	d.params.X = 5
	u := d.moveUpdate(Vec2{15, 30})
	assertNear(t, "x", *u.X, 10)
	assertNear(t, "y", *u.Y, 20)
}

func TestDragCorner(t *testing.T) {
	d := testDrag(Handle{Kind: HandleCorner, Index: 2}, Vec2{100, 100})

	u := d.cornerUpdate(Vec2{150, 150}, true)
	assertNear(t, "locked x", *u.ScaleX, 2)
	assertNear(t, "locked y", *u.ScaleY, 2)

	u = d.cornerUpdate(Vec2{150, 125}, false)
	assertNear(t, "free x", *u.ScaleX, 2)
	assertNear(t, "free y", *u.ScaleY, 1.5)

	// Measured in the content frame once rotated.
	d = testDrag(Handle{Kind: HandleCorner, Index: 2}, Vec2{50, 100})
	d.params.Rotation = math.Pi / 2
	u = d.cornerUpdate(Vec2{50, 150}, false)
	assertNear(t, "rotated x", *u.ScaleX, 2)
	assertNear(t, "rotated y", *u.ScaleY, 1)
}

func TestDragEdge(t *testing.T) {
	d := testDrag(Handle{Kind: HandleEdge, Index: 1}, Vec2{100, 50})
	u := d.edgeUpdate(Vec2{125, 50}, false)
	assertNear(t, "right x", *u.ScaleX, 1.5)
	if u.ScaleY != nil {
		t.Error("unlocked right edge changed ScaleY")
	}
	u = d.edgeUpdate(Vec2{125, 50}, true)
	assertNear(t, "locked y", *u.ScaleY, 1.5)

	d = testDrag(Handle{Kind: HandleEdge, Index: 0}, Vec2{50, 0})
	u = d.edgeUpdate(Vec2{50, -50}, false)
	assertNear(t, "top y", *u.ScaleY, 2)
	if u.ScaleX != nil {
		t.Error("unlocked top edge changed ScaleX")
	}
}

func TestDragRotateIsRelative(t *testing.T) {
	d := testDrag(Handle{Kind: HandleRotate}, Vec2{50, -30})
	d.params.Rotation = 0.1
	u := d.rotateUpdate(Vec2{130, 50})
	assertNear(t, "rotation", *u.Rotation, 0.1+math.Pi/2)

	if u := d.rotateUpdate(Vec2{50, 50}); u.Rotation != nil {
		t.Error("touch on the center should not rotate")
	}
}

func TestAxisRatio(t *testing.T) {
	assertNear(t, "normal", axisRatio(-30, 10), 3)
	assertNear(t, "degenerate start", axisRatio(5, 0), 1)
	assertNear(t, "collapse", axisRatio(0, 10), minHandleScaleRatio)
}
