package inkwell

const (
	defaultPredictionFrames = 3
	predictionFrameMs       = 1000.0 / 120.0
	predictionPressureDecay = 0.95
	// historyWindow is the number of real points kept for prediction.
	historyWindow = 3
)

// PredictedPoint is a synthetic future stylus point. It is recomputed every
// frame and never stored.
type PredictedPoint struct {
	Position  Vec2
	Pressure  float64
	Timestamp float64
}

// Predict extrapolates frames points ahead of current from history
// (oldest first). It needs at least two history points. With three or more
// it adds a constant-acceleration term; otherwise it is linear. Predicted
// timestamps advance at a fixed 120 Hz cadence.
func Predict(current StrokePoint, history []StrokePoint, frames int) []PredictedPoint {
	return appendPredictions(nil, current, history, frames)
}

// appendPredictions is Predict appending into dst to reuse buffers.
func appendPredictions(dst []PredictedPoint, current StrokePoint, history []StrokePoint, frames int) []PredictedPoint {
	n := len(history)
	if n < 2 || frames <= 0 {
		return dst
	}
	vel := history[n-1].Position.Sub(history[n-2].Position)
	var acc Vec2
	if n >= 3 {
		prev := history[n-2].Position.Sub(history[n-3].Position)
		acc = vel.Sub(prev)
	}
	pressure := current.Pressure
	for i := 1; i <= frames; i++ {
		fi := float64(i)
		pos := current.Position.Add(vel.Scale(fi)).Add(acc.Scale(0.5 * fi * fi))
		pressure *= predictionPressureDecay
		dst = append(dst, PredictedPoint{
			Position:  pos,
			Pressure:  pressure,
			Timestamp: current.Timestamp + fi*predictionFrameMs,
		})
	}
	return dst
}
