package ebitenhw

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/inkwell"
)

const (
	handleSize = 8
	wheelZoom  = 0.1
)

var (
	clearColor  = color.RGBA{R: 0xf4, G: 0xf1, B: 0xea, A: 0xff}
	handleColor = color.RGBA{R: 0x2d, G: 0x7f, B: 0xf9, A: 0xff}
)

// RunConfig configures Run.
type RunConfig struct {
	Title   string
	Width   int
	Height  int
	ShowFPS bool
	// Settings nil uses inkwell.DefaultSettings.
	Settings *inkwell.Settings
}

// Game is an ebiten.Game driving an inkwell.Canvas. Each tick it polls
// input, feeds the pipeline and updates the canvas; Draw shows the layers
// through the canvas view, the active transform preview and its handles.
type Game struct {
	Canvas *inkwell.Canvas
	Layers *LayerStore
	Touch  *TouchSource

	// OnDraw, if set, is called after the canvas is drawn.
	OnDraw func(screen *ebiten.Image)
	// ScreenshotDir is where Screenshot writes. Empty uses "screenshots".
	ScreenshotDir string

	width, height int
	showFPS       bool

	previewGen uint64
	previewImg *ebiten.Image

	screenshots []string
}

// NewGame creates a game with a layer store and canvas sized to the window.
func NewGame(cfg RunConfig) (*Game, error) {
	layers := NewLayerStore(cfg.Width, cfg.Height)
	canvas, err := inkwell.NewCanvas(layers, inkwell.CanvasOptions{
		Settings: cfg.Settings,
		Viewport: inkwell.Rect{Width: float64(cfg.Width), Height: float64(cfg.Height)},
	})
	if err != nil {
		return nil, fmt.Errorf("ebitenhw: %w", err)
	}
	return &Game{
		Canvas:  canvas,
		Layers:  layers,
		Touch:   NewTouchSource(),
		width:   cfg.Width,
		height:  cfg.Height,
		showFPS: cfg.ShowFPS,
	}, nil
}

// Run creates a window and runs game until it is closed. game is usually a
// *Game or a type embedding one.
func Run(game ebiten.Game, cfg RunConfig) error {
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	return ebiten.RunGame(game)
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	g.Canvas.Pipeline().Push(g.Touch.Poll())

	if _, dy := ebiten.Wheel(); dy != 0 {
		mx, my := ebiten.CursorPosition()
		g.Canvas.View().ZoomAround(inkwell.Vec2{X: float64(mx), Y: float64(my)}, 1+dy*wheelZoom)
	}

	g.Canvas.Update(1 / float32(ebiten.TPS()))
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(clearColor)
	view := g.Canvas.View()
	vm := view.Matrix()

	t := g.Canvas.Transformer()
	if s, ok := t.Session(); ok {
		// The preview replaces the captured pixels until commit or cancel.
		g.Layers.DrawExcept(screen, geoM(vm), s.Target.Layer(), inkwell.PixelRect(s.Bounds))
		g.drawPreview(screen, t, vm)
		for _, h := range s.Handles {
			p := view.CanvasToScreen(h.Position)
			vector.DrawFilledRect(screen,
				float32(p.X-handleSize/2), float32(p.Y-handleSize/2),
				handleSize, handleSize, handleColor, true)
		}
	} else {
		g.Layers.Draw(screen, geoM(vm))
	}

	if g.OnDraw != nil {
		g.OnDraw(screen)
	}
	if g.showFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
	g.flushScreenshots(screen)
}

// drawPreview uploads the newest preview once per generation and draws it
// at its canvas position.
func (g *Game) drawPreview(screen *ebiten.Image, t *inkwell.Transformer, vm [6]float64) {
	p, ok := t.Preview()
	if !ok {
		return
	}
	if p.Generation != g.previewGen || g.previewImg == nil {
		if g.previewImg != nil {
			g.previewImg.Deallocate()
		}
		g.previewImg = ebiten.NewImageFromImage(p.Image)
		g.previewGen = p.Generation
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(p.Bounds.X, p.Bounds.Y)
	op.GeoM.Concat(geoM(vm))
	screen.DrawImage(g.previewImg, &op)
}

// Layout implements ebiten.Game.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
