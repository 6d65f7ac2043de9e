package inkwell

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Settings holds the user-tunable input options. Changing settings affects
// the next drained frame; points already emitted are never revised.
type Settings struct {
	// PressureSensitivity in [0, 1]; 0.5 leaves the pressure curve unchanged.
	PressureSensitivity float64 `toml:"pressure_sensitivity"`
	// TiltSensitivity in [0, 1]; 0.5 leaves tilt magnitude linear.
	TiltSensitivity float64 `toml:"tilt_sensitivity"`
	// VelocitySensitivity in [0, 1] thins pressure on fast strokes. 0 disables.
	VelocitySensitivity float64 `toml:"velocity_sensitivity"`
	// Smoothing in [0, 1] is the pressure blend setting. The newest sample is
	// weighted by Smoothing and the previous output by 1-Smoothing, so 1
	// passes raw pressure through.
	Smoothing float64 `toml:"smoothing"`

	PalmRejection   bool `toml:"palm_rejection"`
	PredictiveTouch bool `toml:"predictive_touch"`
	// PredictionFrames is the prediction horizon. Zero uses the default of 3.
	PredictionFrames int `toml:"prediction_frames"`

	// PressureCurve names the curve: "linear", "quadratic", "cubic",
	// "custom" (uses CurvePoints) or an ease preset such as "out-sine".
	PressureCurve string    `toml:"pressure_curve"`
	CurvePoints   []float64 `toml:"curve_points"`

	Palm      PalmConfig      `toml:"palm"`
	Gesture   GestureConfig   `toml:"gesture"`
	Transform TransformConfig `toml:"transform"`
}

// PalmConfig holds palm rejection thresholds.
type PalmConfig struct {
	// RadiusThreshold is the contact major radius (px) above which a touch is a palm.
	RadiusThreshold float64 `toml:"radius_threshold"`
	// ProximityRadius is the distance (px) from the pencil inside which a
	// late-arriving touch is rejected.
	ProximityRadius float64 `toml:"proximity_radius"`
	// DelayWindow is the window (ms) after pencil-down for proximity rejection.
	DelayWindow float64 `toml:"delay_window"`
}

// GestureConfig holds the thresholds that commit a finger cluster to a gesture.
type GestureConfig struct {
	TapMaxDuration  float64 `toml:"tap_max_duration"` // ms
	TapSlop         float64 `toml:"tap_slop"`         // px
	PinchThreshold  float64 `toml:"pinch_threshold"`  // relative distance change
	RotateThreshold float64 `toml:"rotate_threshold"` // radians
	PanThreshold    float64 `toml:"pan_threshold"`    // px of centroid travel
}

// TransformConfig holds transform session options.
type TransformConfig struct {
	Snapping   bool `toml:"snapping"`
	AspectLock bool `toml:"aspect_lock"`
	// WarpGrid is the number of control points per side of the warp mesh.
	WarpGrid int `toml:"warp_grid"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		PressureSensitivity: 0.5,
		TiltSensitivity:     0.5,
		Smoothing:           0.7,
		PalmRejection:       true,
		PredictiveTouch:     true,
		PredictionFrames:    defaultPredictionFrames,
		PressureCurve:       "linear",
		Palm: PalmConfig{
			RadiusThreshold: 20,
			ProximityRadius: 100,
			DelayWindow:     50,
		},
		Gesture: GestureConfig{
			TapMaxDuration:  250,
			TapSlop:         10,
			PinchThreshold:  0.08,
			RotateThreshold: 10 * degToRad,
			PanThreshold:    12,
		},
		Transform: TransformConfig{
			Snapping: true,
			WarpGrid: defaultWarpGrid,
		},
	}
}

// Validate clamps every option into its legal range and fills zero
// thresholds with defaults. It returns an error only for settings that
// cannot be repaired, such as an unknown curve name.
func (s *Settings) Validate() error {
	d := DefaultSettings()
	s.PressureSensitivity = clamp(s.PressureSensitivity, 0, 1)
	s.TiltSensitivity = clamp(s.TiltSensitivity, 0, 1)
	s.VelocitySensitivity = clamp(s.VelocitySensitivity, 0, 1)
	s.Smoothing = clamp(s.Smoothing, 0, 1)
	if s.PredictionFrames <= 0 {
		s.PredictionFrames = d.PredictionFrames
	}
	if s.Palm.RadiusThreshold <= 0 {
		s.Palm.RadiusThreshold = d.Palm.RadiusThreshold
	}
	if s.Palm.ProximityRadius <= 0 {
		s.Palm.ProximityRadius = d.Palm.ProximityRadius
	}
	if s.Palm.DelayWindow <= 0 {
		s.Palm.DelayWindow = d.Palm.DelayWindow
	}
	if s.Gesture.TapMaxDuration <= 0 {
		s.Gesture.TapMaxDuration = d.Gesture.TapMaxDuration
	}
	if s.Gesture.TapSlop <= 0 {
		s.Gesture.TapSlop = d.Gesture.TapSlop
	}
	if s.Gesture.PinchThreshold <= 0 {
		s.Gesture.PinchThreshold = d.Gesture.PinchThreshold
	}
	if s.Gesture.RotateThreshold <= 0 {
		s.Gesture.RotateThreshold = d.Gesture.RotateThreshold
	}
	if s.Gesture.PanThreshold <= 0 {
		s.Gesture.PanThreshold = d.Gesture.PanThreshold
	}
	if s.Transform.WarpGrid < 2 {
		s.Transform.WarpGrid = d.Transform.WarpGrid
	}
	if s.PressureCurve == "" {
		s.PressureCurve = d.PressureCurve
	}
	if _, err := ParsePressureCurve(s.PressureCurve, s.CurvePoints); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}
	return nil
}

// Curve returns the pressure curve named by the settings, falling back to
// linear if the name is invalid.
func (s Settings) Curve() PressureCurve {
	c, err := ParsePressureCurve(s.PressureCurve, s.CurvePoints)
	if err != nil {
		return PressureCurve{Kind: CurveLinear}
	}
	return c
}

// LoadSettings parses TOML settings on top of DefaultSettings and validates
// the result.
func LoadSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.Decode(string(data), &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettingsFile reads TOML settings from path.
func LoadSettingsFile(path string) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, fmt.Errorf("load settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// EncodeTOML encodes the settings as TOML.
func (s Settings) EncodeTOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return buf.Bytes(), nil
}
