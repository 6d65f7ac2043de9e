package inkwell

import (
	"encoding/json"
	"fmt"
)

// replayParams is a partial transform update in a replay script. Angles are
// in degrees.
type replayParams struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
	ScaleX   *float64 `json:"scaleX,omitempty"`
	ScaleY   *float64 `json:"scaleY,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	SkewX    *float64 `json:"skewX,omitempty"`
	SkewY    *float64 `json:"skewY,omitempty"`
	FlipX    *bool    `json:"flipX,omitempty"`
	FlipY    *bool    `json:"flipY,omitempty"`
}

func (p *replayParams) update() ParamUpdate {
	deg := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		return Ptr(*v * degToRad)
	}
	return ParamUpdate{
		X:        p.X,
		Y:        p.Y,
		Scale:    p.Scale,
		ScaleX:   p.ScaleX,
		ScaleY:   p.ScaleY,
		Rotation: deg(p.Rotation),
		SkewX:    deg(p.SkewX),
		SkewY:    deg(p.SkewY),
		FlipX:    p.FlipX,
		FlipY:    p.FlipY,
	}
}

// replayStep is a single action in a replay script.
type replayStep struct {
	Action string  `json:"action"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
	Force  float64 `json:"force,omitempty"`
	ID     int64   `json:"id,omitempty"`

	// Points and Ends are finger positions for "tap" and "fingers".
	Points [][2]float64 `json:"points,omitempty"`
	Ends   [][2]float64 `json:"ends,omitempty"`

	// Transform actions.
	Target string        `json:"target,omitempty"` // "layer", "selection" or "canvas"
	Layer  string        `json:"layer,omitempty"`
	Bounds *[4]float64   `json:"bounds,omitempty"` // x, y, width, height
	Mode   string        `json:"mode,omitempty"`
	Params *replayParams `json:"params,omitempty"`
}

// replayScript is the top-level JSON structure for a replay script.
type replayScript struct {
	Steps []replayStep `json:"steps"`
}

// ReplayRunner plays a scripted sequence of input and transform actions
// against a Canvas, one step per frame. Input actions are injected into the
// pipeline and the runner waits for them to drain before the next step.
//
// Actions:
//
//	stroke   {fromX, fromY, toX, toY, frames, force, id}
//	tap      {points} or {x, y}
//	fingers  {points, ends, frames}
//	wait     {frames}
//	start    {target, layer, bounds}
//	update   {params}
//	mode     {mode}
//	reset, commit, cancel, undo, redo
type ReplayRunner struct {
	steps     []replayStep
	cursor    int
	waitCount int
	done      bool
	errs      []error
}

// LoadReplayScript parses a JSON replay script.
func LoadReplayScript(jsonData []byte) (*ReplayRunner, error) {
	var script replayScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse replay script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse replay script: no steps")
	}
	for i, st := range script.Steps {
		if _, ok := replayActions[st.Action]; !ok {
			return nil, fmt.Errorf("parse replay script: step %d: unknown action %q", i, st.Action)
		}
		if st.Mode != "" {
			if _, err := parseMode(st.Mode); err != nil {
				return nil, fmt.Errorf("parse replay script: step %d: %w", i, err)
			}
		}
	}
	return &ReplayRunner{steps: script.Steps}, nil
}

var replayActions = map[string]struct{}{
	"stroke": {}, "tap": {}, "fingers": {}, "wait": {},
	"start": {}, "update": {}, "mode": {}, "reset": {},
	"commit": {}, "cancel": {}, "undo": {}, "redo": {},
}

func parseMode(s string) (TransformMode, error) {
	for m := ModeFree; m <= ModeWarp; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return ModeFree, fmt.Errorf("unknown transform mode %q", s)
}

func parseTargetKind(s string) TargetKind {
	switch s {
	case "selection":
		return TargetSelection
	case "canvas":
		return TargetCanvas
	default:
		return TargetLayer
	}
}

// Done reports whether every step has executed and its input drained.
func (r *ReplayRunner) Done() bool {
	return r.done
}

// Errors returns the errors returned by transform actions so far.
func (r *ReplayRunner) Errors() []error {
	return r.errs
}

// Step advances the runner by one frame. Call it before Canvas.Update.
func (r *ReplayRunner) Step(c *Canvas) {
	if r.done {
		return
	}
	p := c.Pipeline()
	if p.PendingInjections() > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++
	if err := r.exec(c, st); err != nil {
		Logger().Debug("inkwell: replay step failed", "action", st.Action, "err", err)
		r.errs = append(r.errs, fmt.Errorf("step %d %s: %w", r.cursor-1, st.Action, err))
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && p.PendingInjections() == 0 {
		r.done = true
	}
}

func (r *ReplayRunner) exec(c *Canvas, st replayStep) error {
	p := c.Pipeline()
	t := c.Transformer()
	switch st.Action {
	case "stroke":
		id := TouchID(st.ID)
		if id == 0 {
			id = 1
		}
		force := st.Force
		if force == 0 {
			force = 0.5
		}
		p.InjectStroke(id, Vec2{st.FromX, st.FromY}, Vec2{st.ToX, st.ToY}, st.Frames, force)
	case "tap":
		pts := vecs(st.Points)
		if len(pts) == 0 {
			pts = []Vec2{{st.X, st.Y}}
		}
		p.InjectTap(pts...)
	case "fingers":
		p.InjectFingers(vecs(st.Points), vecs(st.Ends), st.Frames)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1
		}
	case "start":
		target := Target{Kind: parseTargetKind(st.Target), LayerID: st.Layer}
		var bounds *Rect
		if b := st.Bounds; b != nil {
			bounds = &Rect{X: b[0], Y: b[1], Width: b[2], Height: b[3]}
			if target.Kind == TargetSelection {
				target.Region = *bounds
			}
		}
		return t.Start(target, bounds)
	case "update":
		if st.Params == nil {
			return nil
		}
		return t.Update(st.Params.update())
	case "mode":
		m, _ := parseMode(st.Mode)
		t.SetMode(m)
	case "reset":
		return t.Reset()
	case "commit":
		return t.Commit()
	case "cancel":
		return t.Cancel()
	case "undo":
		return t.Undo()
	case "redo":
		return t.Redo()
	}
	return nil
}

// Run steps the runner and updates the canvas until the script is done or
// maxFrames frames have run. It returns the number of frames run.
func (r *ReplayRunner) Run(c *Canvas, dt float32, maxFrames int) int {
	frames := 0
	for !r.done && frames < maxFrames {
		r.Step(c)
		c.Update(dt)
		frames++
	}
	return frames
}

func vecs(pts [][2]float64) []Vec2 {
	out := make([]Vec2, len(pts))
	for i, p := range pts {
		out[i] = Vec2{p[0], p[1]}
	}
	return out
}
