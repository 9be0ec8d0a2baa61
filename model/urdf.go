package model

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/akmonengine/dynacom/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

type urdfRobot struct {
	XMLName xml.Name    `xml:"robot"`
	Name    string      `xml:"name,attr"`
	Links   []urdfLink  `xml:"link"`
	Joints  []urdfJoint `xml:"joint"`
}

type urdfLink struct {
	Name     string        `xml:"name,attr"`
	Inertial *urdfInertial `xml:"inertial"`
}

type urdfInertial struct {
	Origin urdfOrigin `xml:"origin"`
	Mass   struct {
		Value float64 `xml:"value,attr"`
	} `xml:"mass"`
	Inertia struct {
		IXX float64 `xml:"ixx,attr"`
		IXY float64 `xml:"ixy,attr"`
		IXZ float64 `xml:"ixz,attr"`
		IYY float64 `xml:"iyy,attr"`
		IYZ float64 `xml:"iyz,attr"`
		IZZ float64 `xml:"izz,attr"`
	} `xml:"inertia"`
}

type urdfOrigin struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

type urdfJoint struct {
	Name   string     `xml:"name,attr"`
	Type   string     `xml:"type,attr"`
	Origin urdfOrigin `xml:"origin"`
	Parent struct {
		Link string `xml:"link,attr"`
	} `xml:"parent"`
	Child struct {
		Link string `xml:"link,attr"`
	} `xml:"child"`
	Axis *struct {
		XYZ string `xml:"xyz,attr"`
	} `xml:"axis"`
	Limit *struct {
		Lower float64 `xml:"lower,attr"`
		Upper float64 `xml:"upper,attr"`
	} `xml:"limit"`
}

// LoadURDF reads and builds a model from a URDF file
func LoadURDF(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	defer f.Close()

	m, err := ParseURDF(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseURDF builds a floating base model from a URDF description. The root
// link is attached to the world through a free-flyer joint.
func ParseURDF(r io.Reader) (*Model, error) {
	var robot urdfRobot
	if err := xml.NewDecoder(r).Decode(&robot); err != nil {
		return nil, fmt.Errorf("%w: decode urdf: %w", ErrInvalidModel, err)
	}
	return build(robot)
}

func (o urdfOrigin) transform() (spatial.Transform, error) {
	xyz, err := parseVec3(o.XYZ, mgl64.Vec3{})
	if err != nil {
		return spatial.Transform{}, fmt.Errorf("origin xyz: %w", err)
	}
	rpy, err := parseVec3(o.RPY, mgl64.Vec3{})
	if err != nil {
		return spatial.Transform{}, fmt.Errorf("origin rpy: %w", err)
	}
	return spatial.FromRPY(rpy[0], rpy[1], rpy[2], xyz), nil
}

func (l urdfLink) inertia() (spatial.Inertia, error) {
	if l.Inertial == nil {
		return spatial.Inertia{}, nil
	}
	in := l.Inertial
	if in.Mass.Value < 0 {
		return spatial.Inertia{}, fmt.Errorf("link %q: negative mass %v", l.Name, in.Mass.Value)
	}

	origin, err := in.Origin.transform()
	if err != nil {
		return spatial.Inertia{}, fmt.Errorf("link %q: %w", l.Name, err)
	}
	i := in.Inertia
	rotational := mgl64.Mat3FromRows(
		mgl64.Vec3{i.IXX, i.IXY, i.IXZ},
		mgl64.Vec3{i.IXY, i.IYY, i.IYZ},
		mgl64.Vec3{i.IXZ, i.IYZ, i.IZZ},
	)

	return spatial.NewInertia(in.Mass.Value, origin.Translation, spatial.Rotated(origin.Rotation, rotational)), nil
}

func parseVec3(s string, fallback mgl64.Vec3) (mgl64.Vec3, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return fallback, nil
	}
	if len(fields) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("want 3 values, got %q", s)
	}

	var v mgl64.Vec3
	for i, field := range fields {
		x, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return mgl64.Vec3{}, err
		}
		v[i] = x
	}
	return v, nil
}
