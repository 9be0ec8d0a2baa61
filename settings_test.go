package dynacom

import (
	"errors"
	"math"
	"testing"
)

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("DYNACOM_URDF", "testdata/biped.urdf")
	t.Setenv("DYNACOM_EQUALITY_TOLERANCE", "1e-6")
	t.Setenv("DYNACOM_QP_MAX_ITERATIONS", "")

	s, err := SettingsFromEnv()
	if err != nil {
		t.Fatalf("SettingsFromEnv() error = %v", err)
	}

	expected := DefaultSettings()
	expected.URDF = "testdata/biped.urdf"
	expected.EqualityTolerance = 1e-6
	if s != expected {
		t.Errorf("SettingsFromEnv() = %+v, want %+v", s, expected)
	}
}

func TestSettingsFromEnvErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"not a number", "DYNACOM_INEQUALITY_TOLERANCE", "tight"},
		{"negative tolerance", "DYNACOM_EQUALITY_TOLERANCE", "-1"},
		{"no iteration", "DYNACOM_QP_MAX_ITERATIONS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := SettingsFromEnv(); !errors.Is(err, ErrConfiguration) {
				t.Errorf("SettingsFromEnv() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Settings)
		wantErr bool
	}{
		{"defaults", func(*Settings) {}, false},
		{"zero equality tolerance", func(s *Settings) { s.EqualityTolerance = 0 }, true},
		{"infinite inequality tolerance", func(s *Settings) { s.InequalityTolerance = math.Inf(1) }, true},
		{"negative iterations", func(s *Settings) { s.QPMaxIterations = -3 }, true},
		{"NaN threshold", func(s *Settings) { s.UnloadedThreshold = math.NaN() }, true},
		{"zero threshold", func(s *Settings) { s.UnloadedThreshold = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConfiguration) {
				t.Errorf("Validate() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestInfeasibleError(t *testing.T) {
	cause := errors.New("solver gave up")
	err := error(&InfeasibleError{
		Reason:   "no feasible distribution",
		Contacts: []string{"left", "right"},
		Residual: 0.5,
		Cause:    cause,
	})

	if !errors.Is(err, ErrInfeasible) {
		t.Error("errors.Is(err, ErrInfeasible) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	expected := "dynacom: infeasible distribution: no feasible distribution (contacts left, right), residual 0.5: solver gave up"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}
