package model

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

type srdfRobot struct {
	XMLName     xml.Name         `xml:"robot"`
	GroupStates []srdfGroupState `xml:"group_state"`
}

type srdfGroupState struct {
	Name   string `xml:"name,attr"`
	Group  string `xml:"group,attr"`
	Joints []struct {
		Name  string  `xml:"name,attr"`
		Value float64 `xml:"value,attr"`
	} `xml:"joint"`
}

// LoadReferenceConfigurations reads the named configurations of an SRDF file
func LoadReferenceConfigurations(path string, m *Model) (map[string][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	defer f.Close()

	configurations, err := ReferenceConfigurations(f, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return configurations, nil
}

// ReferenceConfigurations returns one configuration per SRDF group_state.
// Joints a state does not mention stay at their neutral value, and joints
// the model does not move (fixed or unknown) are ignored.
func ReferenceConfigurations(r io.Reader, m *Model) (map[string][]float64, error) {
	var robot srdfRobot
	if err := xml.NewDecoder(r).Decode(&robot); err != nil {
		return nil, fmt.Errorf("%w: decode srdf: %w", ErrInvalidModel, err)
	}

	configurations := make(map[string][]float64, len(robot.GroupStates))
	for _, state := range robot.GroupStates {
		q := m.Neutral()
		for _, joint := range state.Joints {
			body, ok := m.JointBody(joint.Name)
			if !ok {
				continue
			}
			j := m.Bodies[body].Joint
			if j.Type == JointFreeFlyer {
				continue
			}
			q[j.IdxQ] = joint.Value
		}
		configurations[state.Name] = q
	}
	return configurations, nil
}
