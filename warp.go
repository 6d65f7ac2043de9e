package inkwell

import (
	"context"
	"image"
	"math"
)

// defaultWarpGrid is the number of warp control points per side.
const defaultWarpGrid = 5

// WarpMesh is a regular grid of control points over the captured bounds.
// Each vertex is stored as an offset from its rest position, which follows
// the session's affine and perspective state.
type WarpMesh struct {
	size    int
	offsets []Vec2
}

func newWarpMesh(size int) *WarpMesh {
	if size < 2 {
		size = defaultWarpGrid
	}
	return &WarpMesh{size: size, offsets: make([]Vec2, size*size)}
}

// Size returns the number of control points per side.
func (m *WarpMesh) Size() int { return m.size }

// Offset returns the displacement of a vertex from its rest position.
func (m *WarpMesh) Offset(col, row int) Vec2 {
	return m.offsets[row*m.size+col]
}

// SetVertex offsets a single vertex by (dx, dy) from its rest position.
func (m *WarpMesh) SetVertex(col, row int, dx, dy float64) {
	m.offsets[row*m.size+col] = Vec2{dx, dy}
}

// Reset returns every vertex to its rest position.
func (m *WarpMesh) Reset() {
	clear(m.offsets)
}

// deformed reports whether any vertex is off its rest position.
func (m *WarpMesh) deformed() bool {
	for _, o := range m.offsets {
		if o != (Vec2{}) {
			return true
		}
	}
	return false
}

func (m *WarpMesh) clone() *WarpMesh {
	c := &WarpMesh{size: m.size, offsets: make([]Vec2, len(m.offsets))}
	copy(c.offsets, m.offsets)
	return c
}

// restPoint returns the source-space position of vertex (col, row).
func (m *WarpMesh) restPoint(src Rect, col, row int) Vec2 {
	step := float64(m.size - 1)
	return Vec2{
		src.X + src.Width*float64(col)/step,
		src.Y + src.Height*float64(row)/step,
	}
}

// points returns the vertex positions in canvas space, row-major: rest
// positions mapped through h plus each vertex offset.
func (m *WarpMesh) points(h homography, src Rect) []Vec2 {
	out := make([]Vec2, len(m.offsets))
	for row := 0; row < m.size; row++ {
		for col := 0; col < m.size; col++ {
			i := row*m.size + col
			p, _ := h.apply(m.restPoint(src, col, row))
			out[i] = p.Add(m.offsets[i])
		}
	}
	return out
}

// invBilinear finds (u, v) in the unit square such that the bilinear patch
// through a (0,0), b (1,0), c (1,1), d (0,1) passes through p.
func invBilinear(p, a, b, c, d Vec2) (u, v float64, ok bool) {
	cross := func(x, y Vec2) float64 { return x.X*y.Y - x.Y*y.X }
	e := b.Sub(a)
	f := d.Sub(a)
	g := a.Sub(b).Add(c).Sub(d)
	h := p.Sub(a)

	k2 := cross(g, f)
	k1 := cross(e, f) + cross(h, g)
	k0 := cross(h, e)

	solveU := func(v float64) float64 {
		dx := e.X + g.X*v
		dy := e.Y + g.Y*v
		if math.Abs(dx) > math.Abs(dy) {
			return (h.X - f.X*v) / dx
		}
		return (h.Y - f.Y*v) / dy
	}
	inside := func(x float64) bool { return x >= -1e-9 && x <= 1+1e-9 }

	if math.Abs(k2) < 1e-9 {
		if math.Abs(k1) < 1e-12 {
			return 0, 0, false
		}
		v = -k0 / k1
		u = solveU(v)
		return u, v, inside(u) && inside(v)
	}
	w := k1*k1 - 4*k0*k2
	if w < 0 {
		return 0, 0, false
	}
	w = math.Sqrt(w)
	ik2 := 0.5 / k2
	v = (-k1 - w) * ik2
	u = solveU(v)
	if inside(u) && inside(v) {
		return u, v, true
	}
	v = (-k1 + w) * ik2
	u = solveU(v)
	return u, v, inside(u) && inside(v)
}

// renderWarp resamples src through the deformed mesh. Each destination
// pixel inside a mesh cell is mapped back to the cell's source rectangle by
// inverse bilinear interpolation.
func renderWarp(ctx context.Context, src *image.RGBA, srcRect Rect, mesh *WarpMesh, pts []Vec2, q Quality) (*image.RGBA, error) {
	out := PixelRect(rectFromPoints(pts))
	if out.Empty() {
		return nil, ErrRenderFailed
	}
	dst := image.NewRGBA(out)
	n := mesh.size
	cellW := srcRect.Width / float64(n-1)
	cellH := srcRect.Height / float64(n-1)
	for row := 0; row < n-1; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for col := 0; col < n-1; col++ {
			a := pts[row*n+col]
			b := pts[row*n+col+1]
			c := pts[(row+1)*n+col+1]
			d := pts[(row+1)*n+col]
			cell := PixelRect(rectFromPoints([]Vec2{a, b, c, d})).Intersect(out)
			sx0 := srcRect.X + float64(col)*cellW
			sy0 := srcRect.Y + float64(row)*cellH
			for y := cell.Min.Y; y < cell.Max.Y; y++ {
				for x := cell.Min.X; x < cell.Max.X; x++ {
					u, v, ok := invBilinear(Vec2{float64(x) + 0.5, float64(y) + 0.5}, a, b, c, d)
					if !ok {
						continue
					}
					px := sample(src, Vec2{sx0 + u*cellW, sy0 + v*cellH}, q)
					setRGBA(dst, x, y, px)
				}
			}
		}
	}
	return dst, nil
}
