package inkwell

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Quality selects the resampling used to render transformed content.
type Quality uint8

const (
	// QualityPreview favors speed: approximate bilinear for affine content,
	// nearest neighbor for perspective and warp.
	QualityPreview Quality = iota
	// QualityFinal uses Catmull-Rom for affine content and bilinear for
	// perspective and warp.
	QualityFinal
)

func (q Quality) interpolator() draw.Interpolator {
	if q == QualityFinal {
		return draw.CatmullRom
	}
	return draw.ApproxBiLinear
}

type planKind uint8

const (
	planAffine planKind = iota
	planPerspective
	planWarp
)

// renderPlan is an immutable snapshot of a session's geometry. Rendering a
// plan never touches the session, so previews can run in the background.
type renderPlan struct {
	kind   planKind
	src    *image.RGBA
	bounds Rect
	matrix [6]float64
	quad   [4]Vec2
	mesh   *WarpMesh
	points []Vec2
}

// render produces the transformed content positioned in canvas space.
func (p renderPlan) render(ctx context.Context, q Quality) (*image.RGBA, error) {
	if p.src == nil {
		return nil, fmt.Errorf("render: no content: %w", ErrRenderFailed)
	}
	var (
		img *image.RGBA
		err error
	)
	switch p.kind {
	case planPerspective:
		img, err = renderPerspective(ctx, p.src, p.bounds, p.quad, q)
	case planWarp:
		img, err = renderWarp(ctx, p.src, p.bounds, p.mesh, p.points, q)
	default:
		img, err = renderAffine(ctx, p.src, p.matrix, q)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("render: %w", err)
	}
	return img, nil
}

// renderAffine draws src through m with x/image/draw.
func renderAffine(ctx context.Context, src *image.RGBA, m [6]float64, q Quality) (*image.RGBA, error) {
	if _, ok := invertAffine(m); !ok {
		return nil, fmt.Errorf("singular matrix: %w", ErrRenderFailed)
	}
	out := PixelRect(transformedAABB(m, rectFromImage(src.Bounds())))
	if out.Empty() {
		return nil, fmt.Errorf("empty output: %w", ErrRenderFailed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dst := image.NewRGBA(out)
	s2d := f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
	q.interpolator().Transform(dst, s2d, src, src.Bounds(), draw.Over, nil)
	return dst, nil
}

// renderPerspective maps every destination pixel back through the inverse
// homography from bounds to quad.
func renderPerspective(ctx context.Context, src *image.RGBA, bounds Rect, quad [4]Vec2, q Quality) (*image.RGBA, error) {
	if !convexQuad(quad) {
		return nil, fmt.Errorf("perspective quad is not convex: %w", ErrRenderFailed)
	}
	inv := quadToQuad(quad, bounds.Corners())
	out := PixelRect(rectFromPoints(quad[:]))
	if out.Empty() {
		return nil, fmt.Errorf("empty output: %w", ErrRenderFailed)
	}
	dst := image.NewRGBA(out)
	for y := out.Min.Y; y < out.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := out.Min.X; x < out.Max.X; x++ {
			s, ok := inv.apply(Vec2{float64(x) + 0.5, float64(y) + 0.5})
			if !ok || !bounds.Contains(s.X, s.Y) {
				continue
			}
			setRGBA(dst, x, y, sample(src, s, q))
		}
	}
	return dst, nil
}

// sample reads src at continuous position p, where pixel (x, y) covers
// [x, x+1) x [y, y+1). Pixels outside src are transparent.
func sample(src *image.RGBA, p Vec2, q Quality) color.RGBA {
	if q == QualityPreview {
		return pixelAt(src, int(math.Floor(p.X)), int(math.Floor(p.Y)))
	}
	fx := p.X - 0.5
	fy := p.Y - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	c00 := pixelAt(src, x0, y0)
	c10 := pixelAt(src, x0+1, y0)
	c01 := pixelAt(src, x0, y0+1)
	c11 := pixelAt(src, x0+1, y0+1)
	lerp := func(a, b, c, d uint8) uint8 {
		top := float64(a)*(1-tx) + float64(b)*tx
		bot := float64(c)*(1-tx) + float64(d)*tx
		return uint8(math.Round(top*(1-ty) + bot*ty))
	}
	return color.RGBA{
		R: lerp(c00.R, c10.R, c01.R, c11.R),
		G: lerp(c00.G, c10.G, c01.G, c11.G),
		B: lerp(c00.B, c10.B, c01.B, c11.B),
		A: lerp(c00.A, c10.A, c01.A, c11.A),
	}
}

func pixelAt(img *image.RGBA, x, y int) color.RGBA {
	if !(image.Point{x, y}).In(img.Rect) {
		return color.RGBA{}
	}
	i := img.PixOffset(x, y)
	s := img.Pix[i : i+4 : i+4]
	return color.RGBA{s[0], s[1], s[2], s[3]}
}

func setRGBA(img *image.RGBA, x, y int, c color.RGBA) {
	if c.A == 0 {
		return
	}
	img.SetRGBA(x, y, c)
}

// toRGBA returns img as an *image.RGBA, copying only when needed.
func toRGBA(img image.Image) *image.RGBA {
	if r, ok := img.(*image.RGBA); ok {
		return r
	}
	return cloneRGBA(img, img.Bounds())
}
