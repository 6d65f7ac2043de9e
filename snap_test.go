package inkwell

import "testing"

func TestSnapRotation(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{44.5, 45},
		{40.5, 45},
		{39, 39},
		{-44, -45},
		{2, 0},
		{91, 90},
		{180.5, 180},
		{67.5, 67.5},
	}
	for _, tt := range tests {
		got := snapRotation(tt.in*degToRad) / degToRad
		if !approxEqual(got, tt.want, 1e-9) {
			t.Errorf("snapRotation(%v deg) = %v deg, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSnapScale(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0.97, 1},
		{1.04, 1},
		{1.2, 1.2},
		{0.27, 0.25},
		{-1.98, -2},
		{2.6, 2.6},
		{3.96, 4},
		{0, 0},
	}
	for _, tt := range tests {
		if got := snapScale(tt.in); !approxEqual(got, tt.want, 1e-12) {
			t.Errorf("snapScale(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSnapPosition(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{14, 10},
		{15, 20},
		{-3, 0},
		{-6, -10},
		{100, 100},
	}
	for _, tt := range tests {
		if got := snapPosition(tt.in); got != tt.want {
			t.Errorf("snapPosition(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSnapParamsFixedPoint(t *testing.T) {
	for i := 0; i < 200; i++ {
		f := float64(i)
		p := Params{
			X:        f*3.7 - 300,
			Y:        f*-1.3 + 40,
			ScaleX:   0.1 + f*0.023,
			ScaleY:   -0.2 - f*0.017,
			Rotation: (f*7.3 - 700) * degToRad,
			SkewX:    f * 0.01,
			AnchorX:  0.5,
			AnchorY:  0.5,
		}
		once := snapParams(p)
		twice := snapParams(once)
		if once != twice {
			t.Fatalf("snapParams not a fixed point for %+v:\n once %+v\ntwice %+v", p, once, twice)
		}
		if once.SkewX != p.SkewX || once.AnchorX != p.AnchorX {
			t.Fatal("snapping changed skew or anchor")
		}
	}
}
