package ebitenhw

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/inkwell"
)

// LayerStore is an inkwell.SurfaceProvider over ebiten images. Pixels are
// read back from the GPU for captures, so Capture and Apply must run during
// the game loop.
type LayerStore struct {
	width, height int
	layers        map[string]*ebiten.Image
	order         []string
}

// NewLayerStore creates a store of the given size with an empty main layer.
func NewLayerStore(width, height int) *LayerStore {
	l := &LayerStore{width: width, height: height, layers: make(map[string]*ebiten.Image)}
	l.AddLayer(inkwell.MainLayer)
	return l
}

// AddLayer creates an empty layer, or returns the existing one with that id.
func (l *LayerStore) AddLayer(id string) *ebiten.Image {
	if img, ok := l.layers[id]; ok {
		return img
	}
	img := ebiten.NewImage(l.width, l.height)
	l.layers[id] = img
	l.order = append(l.order, id)
	return img
}

// Layer returns the image backing a layer.
func (l *LayerStore) Layer(id string) (*ebiten.Image, bool) {
	img, ok := l.layers[id]
	return img, ok
}

// Surface implements inkwell.SurfaceProvider.
func (l *LayerStore) Surface(id string) (draw.Image, bool) {
	img, ok := l.layers[id]
	if !ok {
		return nil, false
	}
	return img, true
}

// Capture implements inkwell.SurfaceProvider.
func (l *LayerStore) Capture(t inkwell.Target, bounds *inkwell.Rect) (image.Image, inkwell.Rect, bool) {
	layer, ok := l.layers[t.Layer()]
	if !ok {
		return nil, inkwell.Rect{}, false
	}
	full := readRGBA(layer, layer.Bounds())

	var r image.Rectangle
	switch {
	case bounds != nil:
		r = inkwell.PixelRect(*bounds)
	case t.Kind == inkwell.TargetSelection:
		r = inkwell.PixelRect(t.Region)
	default:
		r = inkwell.OpaqueBounds(full)
		if r.Empty() {
			r = full.Rect
		}
	}
	r = r.Intersect(full.Rect)
	if r.Empty() {
		return nil, inkwell.Rect{}, false
	}
	out := image.NewRGBA(r)
	draw.Draw(out, r, full, r.Min, draw.Src)
	return out, inkwell.Rect{
		X: float64(r.Min.X), Y: float64(r.Min.Y),
		Width: float64(r.Dx()), Height: float64(r.Dy()),
	}, true
}

// Apply implements inkwell.SurfaceProvider.
func (l *LayerStore) Apply(t inkwell.Target, img image.Image) error {
	layer, ok := l.layers[t.Layer()]
	if !ok {
		return fmt.Errorf("apply %s %q: %w", t.Kind, t.Layer(), inkwell.ErrUnknownLayer)
	}
	r := img.Bounds().Intersect(layer.Bounds())
	if r.Empty() {
		return nil
	}
	// WritePixels needs tightly packed rows.
	packed := image.NewRGBA(r)
	draw.Draw(packed, r, img, r.Min, draw.Src)
	layer.SubImage(r).(*ebiten.Image).WritePixels(packed.Pix)
	return nil
}

// Draw renders every layer in creation order onto dst through geoM.
func (l *LayerStore) Draw(dst *ebiten.Image, geoM ebiten.GeoM) {
	l.DrawExcept(dst, geoM, "", image.Rectangle{})
}

// DrawExcept is like Draw but leaves out the hole rectangle of one layer.
// Game uses it to hide content a transform session has lifted off its layer.
func (l *LayerStore) DrawExcept(dst *ebiten.Image, geoM ebiten.GeoM, id string, hole image.Rectangle) {
	var op ebiten.DrawImageOptions
	op.Filter = ebiten.FilterLinear
	for _, lid := range l.order {
		img := l.layers[lid]
		if lid != id || hole.Empty() {
			op.GeoM = geoM
			dst.DrawImage(img, &op)
			continue
		}
		for _, r := range holeParts(img.Bounds(), hole) {
			// A sub-image is drawn with its Min at the origin.
			op.GeoM.Reset()
			op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
			op.GeoM.Concat(geoM)
			dst.DrawImage(img.SubImage(r).(*ebiten.Image), &op)
		}
	}
}

// holeParts splits full minus hole into at most four disjoint bands: above,
// below, left and right of the hole.
func holeParts(full, hole image.Rectangle) []image.Rectangle {
	hole = hole.Intersect(full)
	if hole.Empty() {
		return []image.Rectangle{full}
	}
	parts := []image.Rectangle{
		image.Rect(full.Min.X, full.Min.Y, full.Max.X, hole.Min.Y),
		image.Rect(full.Min.X, hole.Max.Y, full.Max.X, full.Max.Y),
		image.Rect(full.Min.X, hole.Min.Y, hole.Min.X, hole.Max.Y),
		image.Rect(hole.Max.X, hole.Min.Y, full.Max.X, hole.Max.Y),
	}
	out := parts[:0]
	for _, r := range parts {
		if !r.Empty() {
			out = append(out, r)
		}
	}
	return out
}

func readRGBA(img *ebiten.Image, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(r)
	img.SubImage(r).(*ebiten.Image).ReadPixels(out.Pix)
	return out
}

// geoM converts an inkwell affine matrix to an ebiten.GeoM.
func geoM(m [6]float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}
