package model

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestReferenceConfigurations(t *testing.T) {
	m := loadBiped(t)

	configurations, err := LoadReferenceConfigurations("../testdata/biped.srdf", m)
	if err != nil {
		t.Fatalf("LoadReferenceConfigurations() error = %v", err)
	}
	if len(configurations) != 2 {
		t.Fatalf("len(configurations) = %d, want 2", len(configurations))
	}

	q := configurations["half_sitting"]
	expected := map[string]float64{
		"leg_left_hip_joint":    -0.3,
		"leg_left_knee_joint":   0.6,
		"leg_left_ankle_joint":  -0.3,
		"leg_right_hip_joint":   -0.3,
		"leg_right_knee_joint":  0.6,
		"leg_right_ankle_joint": -0.3,
		"head_yaw_joint":        0,
	}
	for name, value := range expected {
		body, _ := m.JointBody(name)
		if got := q[m.Bodies[body].Joint.IdxQ]; got != value {
			t.Errorf("q[%s] = %v, want %v", name, got, value)
		}
	}
	if !slices.Equal(q[:7], []float64{0, 0, 0, 0, 0, 0, 1}) {
		t.Errorf("base configuration = %v, want neutral", q[:7])
	}

	if !slices.Equal(configurations["straight"], m.Neutral()) {
		t.Errorf("straight = %v, want neutral", configurations["straight"])
	}
}

func TestReferenceConfigurations_Errors(t *testing.T) {
	m := loadBiped(t)

	if _, err := ReferenceConfigurations(strings.NewReader("<robot"), m); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("ReferenceConfigurations() error = %v, want ErrInvalidModel", err)
	}
	if _, err := LoadReferenceConfigurations("../testdata/missing.srdf", m); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("LoadReferenceConfigurations() error = %v, want ErrInvalidModel", err)
	}
}
