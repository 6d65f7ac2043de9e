package inkwell

import (
	"fmt"
	"image"
	"image/draw"
	"math"
)

// MainLayer is the layer addressed by TargetCanvas.
const MainLayer = "main"

// TargetKind selects what a transform operates on.
type TargetKind uint8

const (
	TargetLayer     TargetKind = iota // a whole layer's content
	TargetSelection                   // a region of a layer
	TargetCanvas                      // the main canvas layer
)

func (k TargetKind) String() string {
	switch k {
	case TargetLayer:
		return "layer"
	case TargetSelection:
		return "selection"
	case TargetCanvas:
		return "canvas"
	default:
		return "unknown"
	}
}

// Target identifies the content a transform session captures and writes.
type Target struct {
	Kind    TargetKind
	LayerID string
	// Region is the selection rectangle in canvas coordinates. Only used by
	// TargetSelection.
	Region Rect
}

// Layer returns the layer the target lives on.
func (t Target) Layer() string {
	if t.Kind == TargetCanvas || t.LayerID == "" {
		return MainLayer
	}
	return t.LayerID
}

// SurfaceProvider is the rendering collaborator transform sessions read from
// and write to. Images exchanged through it are positioned in canvas
// coordinates: an image's Bounds are where it lives on the layer.
type SurfaceProvider interface {
	// Capture copies the target's current content. A nil bounds captures the
	// target's natural extent. It returns false if the target does not exist.
	Capture(t Target, bounds *Rect) (image.Image, Rect, bool)
	// Surface returns the live drawable surface of a layer.
	Surface(id string) (draw.Image, bool)
	// Apply writes img into the target's layer at img.Bounds(), replacing
	// the pixels there.
	Apply(t Target, img image.Image) error
}

// MemorySurface is an in-memory SurfaceProvider backed by RGBA layers. It is
// used headless and in tests.
type MemorySurface struct {
	width, height int
	layers        map[string]*image.RGBA
	order         []string
}

// NewMemorySurface creates a surface of the given size with an empty main
// layer.
func NewMemorySurface(width, height int) *MemorySurface {
	m := &MemorySurface{
		width:  width,
		height: height,
		layers: make(map[string]*image.RGBA),
	}
	m.AddLayer(MainLayer)
	return m
}

// AddLayer creates an empty layer, or returns the existing one with that id.
func (m *MemorySurface) AddLayer(id string) *image.RGBA {
	if l, ok := m.layers[id]; ok {
		return l
	}
	l := image.NewRGBA(image.Rect(0, 0, m.width, m.height))
	m.layers[id] = l
	m.order = append(m.order, id)
	return l
}

// Layers returns layer ids in creation order.
func (m *MemorySurface) Layers() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Surface implements SurfaceProvider.
func (m *MemorySurface) Surface(id string) (draw.Image, bool) {
	l, ok := m.layers[id]
	if !ok {
		return nil, false
	}
	return l, true
}

// Capture implements SurfaceProvider. Without explicit bounds a selection
// captures its region and a layer captures the bounding box of its visible
// pixels, or the whole layer when it is empty.
func (m *MemorySurface) Capture(t Target, bounds *Rect) (image.Image, Rect, bool) {
	l, ok := m.layers[t.Layer()]
	if !ok {
		return nil, Rect{}, false
	}
	var r image.Rectangle
	switch {
	case bounds != nil:
		r = PixelRect(*bounds)
	case t.Kind == TargetSelection:
		r = PixelRect(t.Region)
	default:
		r = OpaqueBounds(l)
		if r.Empty() {
			r = l.Bounds()
		}
	}
	r = r.Intersect(l.Bounds())
	if r.Empty() {
		return nil, Rect{}, false
	}
	return cloneRGBA(l, r), rectFromImage(r), true
}

// Apply implements SurfaceProvider.
func (m *MemorySurface) Apply(t Target, img image.Image) error {
	l, ok := m.layers[t.Layer()]
	if !ok {
		return fmt.Errorf("apply %s %q: %w", t.Kind, t.Layer(), ErrUnknownLayer)
	}
	draw.Draw(l, img.Bounds(), img, img.Bounds().Min, draw.Src)
	return nil
}

// PixelRect converts r to the smallest integer rectangle covering it.
// Surface providers use it to turn capture bounds into pixel regions.
func PixelRect(r Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)), int(math.Ceil(r.Y+r.Height)),
	)
}

func rectFromImage(r image.Rectangle) Rect {
	return Rect{X: float64(r.Min.X), Y: float64(r.Min.Y), Width: float64(r.Dx()), Height: float64(r.Dy())}
}

// cloneRGBA copies the r region of src into a new image with the same bounds.
func cloneRGBA(src image.Image, r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(r)
	draw.Draw(dst, r, src, r.Min, draw.Src)
	return dst
}

// OpaqueBounds returns the bounding box of pixels with non-zero alpha, or
// an empty rectangle when every pixel is transparent.
func OpaqueBounds(img *image.RGBA) image.Rectangle {
	b := img.Bounds()
	out := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] == 0 {
				continue
			}
			px := image.Rect(x, y, x+1, y+1)
			if out.Empty() {
				out = px
			} else {
				out = out.Union(px)
			}
		}
	}
	return out
}
