package inkwell

import (
	"context"
	"errors"
	"image"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Preview is a reduced-quality render of the active session. Image is
// positioned in canvas coordinates.
type Preview struct {
	Image      *image.RGBA
	Bounds     Rect
	Generation uint64
}

type previewJob struct {
	gen  uint64
	plan renderPlan
	tag  TransformEvent
}

// previewWorker renders previews on one background goroutine. Submitting a
// job while another renders cancels the running one and queues the new job;
// only the newest queued job survives.
type previewWorker struct {
	mu      sync.Mutex
	g       *errgroup.Group
	running bool
	pending *previewJob
	cancel  context.CancelFunc
	gen     uint64
	latest  Preview
	done    func(Preview, TransformEvent)
}

func newPreviewWorker(done func(Preview, TransformEvent)) *previewWorker {
	return &previewWorker{done: done}
}

// submit schedules plan and returns its generation. tag is handed back to
// the done callback with the finished preview.
func (w *previewWorker) submit(plan renderPlan, tag TransformEvent) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	job := &previewJob{gen: w.gen, plan: plan, tag: tag}
	if w.running {
		w.pending = job
		if w.cancel != nil {
			w.cancel()
		}
		return job.gen
	}
	w.running = true
	w.g = new(errgroup.Group)
	w.g.Go(func() error { return w.loop(job) })
	return job.gen
}

func (w *previewWorker) loop(job *previewJob) error {
	var firstErr error
	for job != nil {
		ctx, cancel := context.WithCancel(context.Background())
		w.mu.Lock()
		w.cancel = cancel
		w.mu.Unlock()

		img, err := job.plan.render(ctx, QualityPreview)
		cancel()

		w.mu.Lock()
		w.cancel = nil
		var (
			publish bool
			p       Preview
			tag     = job.tag
		)
		switch {
		case err == nil && job.gen == w.gen:
			w.latest = Preview{Image: img, Bounds: rectFromImage(img.Rect), Generation: job.gen}
			publish, p = true, w.latest
		case err != nil && !errors.Is(err, context.Canceled) && firstErr == nil:
			firstErr = err
		}
		job = w.pending
		w.pending = nil
		if job == nil {
			w.running = false
		}
		w.mu.Unlock()

		if publish && w.done != nil {
			w.done(p, tag)
		}
	}
	return firstErr
}

// wait blocks until the worker is idle. With cancel set, queued and running
// jobs are discarded first.
func (w *previewWorker) wait(cancel bool) error {
	w.mu.Lock()
	if cancel {
		w.pending = nil
		w.gen++
		if w.cancel != nil {
			w.cancel()
		}
	}
	g := w.g
	w.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.Wait()
}

// reset cancels outstanding work and forgets the last preview.
func (w *previewWorker) reset() {
	_ = w.wait(true)
	w.mu.Lock()
	w.latest = Preview{}
	w.mu.Unlock()
}

// last returns the newest completed preview.
func (w *previewWorker) last() (Preview, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.latest, w.latest.Image != nil
}
