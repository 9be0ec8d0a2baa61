package dynacom

import (
	"fmt"
	"math"

	"github.com/akmonengine/dynacom/internal/config"
)

// EnvPrefix prefixes every environment variable read by SettingsFromEnv
const EnvPrefix = "DYNACOM_"

// Settings configures a DynaCoM context
type Settings struct {
	// URDF is the path of the robot description
	URDF string `env:"URDF"`
	// SRDF optionally names reference configurations for the robot
	SRDF string `env:"SRDF"`

	// EqualityTolerance bounds the net wrench residual of a distribution
	EqualityTolerance float64 `env:"EQUALITY_TOLERANCE"`
	// InequalityTolerance bounds each contact constraint violation, relative
	// to the normal force when it exceeds 1
	InequalityTolerance float64 `env:"INEQUALITY_TOLERANCE"`
	QPMaxIterations     int     `env:"QP_MAX_ITERATIONS"`

	// UnloadedThreshold is the normal force under which a contact counts as
	// unloaded for events
	UnloadedThreshold float64 `env:"UNLOADED_THRESHOLD"`
}

// DefaultSettings returns settings without robot description
func DefaultSettings() Settings {
	return Settings{
		EqualityTolerance:   1e-4,
		InequalityTolerance: 1e-5,
		QPMaxIterations:     1000,
		UnloadedThreshold:   1,
	}
}

// SettingsFromEnv returns the default settings overridden by the DYNACOM_*
// environment variables
func SettingsFromEnv() (Settings, error) {
	s := DefaultSettings()
	if err := config.ParseEnvWithPrefix(&s, EnvPrefix); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return s, s.Validate()
}

// Validate checks tolerances and limits. The description paths are checked
// when loading.
func (s Settings) Validate() error {
	for name, v := range map[string]float64{
		"equality tolerance":   s.EqualityTolerance,
		"inequality tolerance": s.InequalityTolerance,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: %s must be a finite positive number, got %v", ErrConfiguration, name, v)
		}
	}
	if s.QPMaxIterations <= 0 {
		return fmt.Errorf("%w: QP max iterations must be positive, got %d", ErrConfiguration, s.QPMaxIterations)
	}
	if math.IsNaN(s.UnloadedThreshold) || s.UnloadedThreshold < 0 {
		return fmt.Errorf("%w: unloaded threshold must be non-negative, got %v", ErrConfiguration, s.UnloadedThreshold)
	}
	return nil
}
