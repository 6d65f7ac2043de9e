// Package inkwell is the input and transform core of a drawing canvas.
//
// It turns raw stylus and finger reports into a stream of processed stroke
// points and finger gestures, and runs handle-driven affine, perspective and
// warp transforms over layer content with bounded undo.
//
// # Quick start
//
// Create one [Canvas] per open document over a [SurfaceProvider], feed it
// hardware frames, and call [Canvas.Update] once per rendering frame:
//
//	surface := inkwell.NewMemorySurface(1024, 768)
//	canvas, err := inkwell.NewCanvas(surface, inkwell.CanvasOptions{
//		Viewport: inkwell.Rect{Width: 1024, Height: 768},
//	})
//	if err != nil {
//		return err
//	}
//	defer canvas.Close()
//
//	canvas.Bus().OnEvent(inkwell.MaskOf(inkwell.EventPencilMove), func(ev inkwell.Event) {
//		brush.Add(ev.Point)
//	})
//
//	// from the hardware callback, any goroutine:
//	canvas.Pipeline().Push(frame)
//
//	// once per frame:
//	canvas.Update(1.0 / 120)
//
// The ebitenhw subpackage provides a touch source and layer store for
// [Ebitengine] programs.
//
// # Input pipeline
//
// [Pipeline] buffers [TouchFrame] reports and drains them once per frame.
// Each stylus sample passes through [PressureResponse] (deadzone, curve,
// sensitivity exponent, smoothing) and [Tilt], and is published as a
// [StrokePoint] with up to three [PredictedPoint]s of lookahead. Finger
// contacts go through [PalmRejectionFilter]; accepted fingers are grouped
// into clusters ([ClassifyGesture]) and tracked against the baseline taken
// when they landed, producing tap, pinch, rotate and pan [GestureEvent]s.
// Only one stylus contact is active at a time; extra stylus identifiers are
// ignored and reported as [EventProtocolViolation].
//
// # Transforms
//
// [Transformer] runs a single [TransformSession] at a time:
//
//	t := canvas.Transformer()
//	t.Start(inkwell.Target{Kind: inkwell.TargetLayer, LayerID: "ink"}, nil)
//	t.Update(inkwell.ParamUpdate{Rotation: inkwell.Ptr(math.Pi / 4)})
//	t.Commit()
//	t.Undo()
//
// Updates recompose the matrix around the anchor, apply snapping when
// enabled and schedule a background preview render. Commit renders at full
// quality and records a [HistoryEntry]; a failed render cancels instead,
// leaving the target untouched.
//
// # Events
//
// All notifications flow through the [EventBus], a bounded queue drained by
// [EventBus.Dispatch]. Publishing never blocks; when the queue is full the
// event is dropped and counted.
//
// # Logging
//
// inkwell is silent by default. Call [SetLogger] with a [log/slog] logger
// to see lifecycle, warning and debug output.
//
// [Ebitengine]: https://ebitengine.org
package inkwell
