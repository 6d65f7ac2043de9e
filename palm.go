package inkwell

// PalmRejectionFilter classifies contacts as accepted or palm. A touch is
// classified once at contact start; a rejected touch stays rejected until
// its contact ends.
type PalmRejectionFilter struct {
	Enabled bool
	Config  PalmConfig

	rejected map[TouchID]struct{}
}

// NewPalmRejectionFilter creates a filter with the given thresholds.
func NewPalmRejectionFilter(enabled bool, cfg PalmConfig) *PalmRejectionFilter {
	return &PalmRejectionFilter{
		Enabled:  enabled,
		Config:   cfg,
		rejected: make(map[TouchID]struct{}),
	}
}

// Classify decides whether the contact starting with sample is accepted.
// pencil is the active stylus sample, or nil. Rejected identifiers are
// recorded.
func (f *PalmRejectionFilter) Classify(sample TouchSample, pencil *TouchSample) bool {
	if sample.Kind == TouchStylus {
		return true
	}
	if !f.Enabled {
		return true
	}
	if sample.MajorRadius > f.Config.RadiusThreshold {
		f.reject(sample.ID)
		return false
	}
	if pencil != nil {
		dist := sample.Position.Dist(pencil.Position)
		dt := sample.Timestamp - pencil.Timestamp
		if dist <= f.Config.ProximityRadius && dt > 0 && dt < f.Config.DelayWindow {
			f.reject(sample.ID)
			return false
		}
	}
	return true
}

func (f *PalmRejectionFilter) reject(id TouchID) {
	if f.rejected == nil {
		f.rejected = make(map[TouchID]struct{})
	}
	f.rejected[id] = struct{}{}
}

// IsRejected reports whether id is currently classified as palm contact.
func (f *PalmRejectionFilter) IsRejected(id TouchID) bool {
	_, ok := f.rejected[id]
	return ok
}

// Release purges id when its contact ends.
func (f *PalmRejectionFilter) Release(id TouchID) {
	delete(f.rejected, id)
}

// Prune drops every rejected identifier not in live. Used for stale-touch
// cleanup when a contact disappears without an explicit end.
func (f *PalmRejectionFilter) Prune(live map[TouchID]struct{}) {
	for id := range f.rejected {
		if _, ok := live[id]; !ok {
			delete(f.rejected, id)
		}
	}
}

// RejectedCount returns the number of contacts currently rejected.
func (f *PalmRejectionFilter) RejectedCount() int {
	return len(f.rejected)
}
