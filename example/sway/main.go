// Command sway makes the test biped sway sideways on both feet and plots
// how each weighting of the soles shares the vertical load.
//
// The robot keeps its half sitting posture while its base follows a lateral
// sinusoidal acceleration. Every scenario runs on its own DynaCoM.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"github.com/akmonengine/dynacom"
	"github.com/akmonengine/dynacom/contact"
	"github.com/akmonengine/dynacom/internal/config"
	"github.com/akmonengine/dynacom/spatial"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

type scenario struct {
	name         string
	forceWeights float64

	time     []float64
	leftFz   []float64
	rightFz  []float64
	comY     []float64
	copY     []float64
	unloaded int
	err      error

	// lateral extent of the soles, world frame
	supportMin, supportMax float64
	// largest lateral offset of a sole center of pressure
	soleCoP float64
}

type sway struct {
	settings     dynacom.Settings
	cycles       int
	samples      int
	frequency    float64
	acceleration float64
}

func main() {
	settings, err := dynacom.SettingsFromEnv()
	if err != nil {
		config.Exitf("settings: %v", err)
	}

	urdf := flag.String("urdf", "testdata/biped.urdf", "robot description, DYNACOM_URDF takes precedence")
	srdf := flag.String("srdf", "testdata/biped.srdf", "reference configurations, DYNACOM_SRDF takes precedence")
	out := flag.String("out", "figures", "output directory of the plots")
	workers := flag.Int("workers", runtime.NumCPU(), "scenarios solved concurrently")
	cycles := flag.Int("cycles", 5, "sway cycles")
	samples := flag.Int("samples", 500, "samples over all cycles")
	flag.Parse()

	if settings.URDF == "" {
		settings.URDF = *urdf
	}
	if settings.SRDF == "" {
		settings.SRDF = *srdf
	}

	s := sway{
		settings:     settings,
		cycles:       *cycles,
		samples:      *samples,
		frequency:    0.5,
		acceleration: 0.8,
	}

	scenarios := []*scenario{
		{name: "unit", forceWeights: 1},
		{name: "light", forceWeights: 1e-2},
		{name: "lightest", forceWeights: 1e-5},
	}

	task(max(1, *workers), scenarios, s.run)

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatalf("cannot create output dir: %v", err)
	}
	for _, sc := range scenarios {
		if sc.err != nil {
			log.Printf("%s: %v", sc.name, sc.err)
			continue
		}
		log.Printf("%s: %d samples, %d unloaded events, left fz in [%.1f, %.1f] N, sole CoP up to %.3f m",
			sc.name, len(sc.time), sc.unloaded, minOf(sc.leftFz), maxOf(sc.leftFz), sc.soleCoP)

		filename := filepath.Join(*out, fmt.Sprintf("VerticalForce_and_CoM_CoP_%s.png", sc.name))
		if err := savePlot(sc, filename); err != nil {
			log.Fatalf("%s: %v", sc.name, err)
		}
		log.Printf("%s: saved %s", sc.name, filename)
	}
}

// run solves every sample of a scenario, recording the first error
func (s sway) run(sc *scenario) {
	d := dynacom.New()
	if err := d.Initialize(s.settings); err != nil {
		sc.err = err
		return
	}
	d.Subscribe(dynacom.CONTACT_UNLOADED, func(dynacom.Event) {
		sc.unloaded++
	})

	for _, sole := range []struct{ name, frame string }{
		{"left_sole", "leg_left_sole_fix_joint"},
		{"right_sole", "leg_right_sole_fix_joint"},
	} {
		c, err := contact.NewContact6D(contact.Settings{
			FrameName:  sole.frame,
			Mu:         0.3,
			Gu:         0.4,
			Weights:    []float64{sc.forceWeights, sc.forceWeights, sc.forceWeights, 1, 1, 1},
			HalfLength: 0.1,
			HalfWidth:  0.05,
		})
		if err != nil {
			sc.err = err
			return
		}
		if err := d.AddContact6D(c, sole.name); err != nil {
			sc.err = err
			return
		}
	}

	q, err := d.ReferenceConfiguration("half_sitting")
	if err != nil {
		sc.err = err
		return
	}
	// put the soles on the ground
	left, _ := d.Contact("left_sole")
	if err := d.Data().ForwardKinematics(q); err != nil {
		sc.err = err
		return
	}
	d.Data().UpdateFramePlacements()
	q[2] = -d.Data().OMf[left.FrameID()].Translation.Z()

	v := make([]float64, d.Model().NV)
	a := make([]float64, d.Model().NV)
	omega := 2 * math.Pi * s.frequency
	duration := float64(s.cycles) / s.frequency

	for i := range s.samples {
		t := duration * float64(i) / float64(s.samples)
		v[1] = -s.acceleration / omega * math.Cos(omega*t)
		a[1] = -s.acceleration * math.Sin(omega*t)

		if err := d.ComputeDynamics(q, v, a, spatial.Wrench{}, false); err != nil {
			sc.err = fmt.Errorf("t = %.3f: %w", t, err)
			return
		}

		right, _ := d.Contact("right_sole")
		if i == 0 {
			sc.supportMin, sc.supportMax = support(left, right)
		}
		for _, c := range []*contact.Contact6D{left, right} {
			if cop, ok := c.CoP(); ok {
				sc.soleCoP = math.Max(sc.soleCoP, math.Abs(cop.Y()))
			}
		}
		sc.time = append(sc.time, t)
		sc.leftFz = append(sc.leftFz, left.AppliedForce().Force.Z())
		sc.rightFz = append(sc.rightFz, right.AppliedForce().Force.Z())
		sc.comY = append(sc.comY, d.CoM().Y())
		sc.copY = append(sc.copY, d.CoP().Y())
	}
}

// support returns the lateral extent of the patches of contacts
func support(contacts ...*contact.Contact6D) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, c := range contacts {
		for _, v := range c.Patch().Vertices() {
			y := c.Pose().Apply(v).Y()
			lo, hi = math.Min(lo, y), math.Max(hi, y)
		}
	}
	return lo, hi
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

func savePlot(sc *scenario, filename string) error {
	forces := plot.New()
	forces.Title.Text = fmt.Sprintf("Vertical forces, force weights %g", sc.forceWeights)
	forces.X.Label.Text = "time (s)"
	forces.Y.Label.Text = "fz (N)"
	total := make([]float64, len(sc.time))
	for i := range total {
		total[i] = sc.leftFz[i] + sc.rightFz[i]
	}
	if err := plotutil.AddLines(forces,
		"total", xys(sc.time, total),
		"left", xys(sc.time, sc.leftFz),
		"right", xys(sc.time, sc.rightFz),
	); err != nil {
		return err
	}
	if err := forces.Save(8*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("cannot save plot: %w", err)
	}

	lateral := plot.New()
	lateral.Title.Text = "Lateral CoM and CoP"
	lateral.X.Label.Text = "time (s)"
	lateral.Y.Label.Text = "y (m)"
	lo := make([]float64, len(sc.time))
	hi := make([]float64, len(sc.time))
	for i := range sc.time {
		lo[i], hi[i] = sc.supportMin, sc.supportMax
	}
	if err := plotutil.AddLines(lateral,
		"CoM", xys(sc.time, sc.comY),
		"CoP", xys(sc.time, sc.copY),
		"support", xys(sc.time, lo),
		xys(sc.time, hi),
	); err != nil {
		return err
	}
	ext := filepath.Ext(filename)
	return lateral.Save(8*vg.Inch, 4*vg.Inch, filename[:len(filename)-len(ext)]+"_lateral"+ext)
}

func minOf(xs []float64) float64 {
	m := math.Inf(1)
	for _, x := range xs {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := math.Inf(-1)
	for _, x := range xs {
		m = math.Max(m, x)
	}
	return m
}
