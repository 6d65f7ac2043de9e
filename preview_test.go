package inkwell

import (
	"errors"
	"image"
	"slices"
	"sync"
	"testing"
)

func TestPreviewWorkerNewestWins(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []uint64
	)
	w := newPreviewWorker(func(p Preview, _ TransformEvent) {
		mu.Lock()
		calls = append(calls, p.Generation)
		mu.Unlock()
	})
	src := patterned(image.Rect(0, 0, 64, 64))
	var gen uint64
	for i := 0; i < 5; i++ {
		gen = w.submit(renderPlan{src: src, matrix: translateAffine(float64(i), 0)}, TransformEvent{})
	}
	if err := w.wait(false); err != nil {
		t.Fatal(err)
	}
	p, ok := w.last()
	if !ok {
		t.Fatal("no preview after wait")
	}
	if p.Generation != gen {
		t.Errorf("Generation = %d, want %d", p.Generation, gen)
	}
	if p.Bounds != rectFromImage(p.Image.Rect) {
		t.Errorf("Bounds = %v, image %v", p.Bounds, p.Image.Rect)
	}

	mu.Lock()
	defer mu.Unlock()
	if !slices.Contains(calls, gen) {
		t.Errorf("done calls = %v, missing %d", calls, gen)
	}
}

func TestPreviewWorkerError(t *testing.T) {
	w := newPreviewWorker(nil)
	w.submit(renderPlan{}, TransformEvent{})
	if err := w.wait(false); !errors.Is(err, ErrRenderFailed) {
		t.Errorf("wait = %v, want ErrRenderFailed", err)
	}
	if _, ok := w.last(); ok {
		t.Error("failed render should not produce a preview")
	}
}

func TestPreviewWorkerReset(t *testing.T) {
	w := newPreviewWorker(nil)
	if err := w.wait(true); err != nil {
		t.Errorf("idle wait = %v", err)
	}
	w.submit(renderPlan{src: patterned(image.Rect(0, 0, 8, 8)), matrix: identityTransform}, TransformEvent{})
	if err := w.wait(false); err != nil {
		t.Fatal(err)
	}
	if _, ok := w.last(); !ok {
		t.Fatal("expected a preview")
	}
	w.reset()
	if _, ok := w.last(); ok {
		t.Error("reset should forget the last preview")
	}
}
