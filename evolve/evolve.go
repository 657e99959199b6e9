package evolve

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/interfacial"
	"github.com/notargets/govesicle/monitor"
	"github.com/notargets/govesicle/surface"
	"github.com/notargets/govesicle/types"
	"github.com/notargets/govesicle/utils"
)

// StepHook is called after every completed step
type StepHook func(step int, t float64, s surface.Geometry)

/*
Evolver advances the vesicles with forward Euler: the interfacial solver produces the
position change, the change is applied, the points are reparametrized and the monitor
checks the area and volume drift.
*/
type Evolver struct {
	IV     *interfacial.InterfacialVelocity
	Mon    *monitor.Monitor
	OnStep StepHook
	log    utils.Logger
	prof   *utils.Profile
	t      float64
	steps  int
	dx     *field.Field
}

func New(iv *interfacial.InterfacialVelocity, mon *monitor.Monitor, log utils.Logger,
	prof *utils.Profile) (ev *Evolver) {
	if log == nil {
		log = utils.NewDiscardLogger()
	}
	if mon == nil {
		mon = monitor.New(log)
	}
	ev = &Evolver{
		IV:   iv,
		Mon:  mon,
		log:  log,
		prof: prof,
		t:    iv.Time,
		dx:   field.NewVector(iv.S.ShOrder(), 0),
	}
	return
}

func (ev *Evolver) Time() float64 { return ev.t }
func (ev *Evolver) Steps() int    { return ev.steps }

/*
Step advances the surfaces by dt. A reparametrization that does not reach its tolerance is
logged and the step goes on, every other failure ends the step with the surfaces as they
were left by the failing stage.
*/
func (ev *Evolver) Step(scheme types.SolverScheme, dt float64) (err error) {
	defer ev.prof.Start("Step")()
	iv := ev.IV
	ev.dx.Replicate(iv.S.Position())
	if err = iv.Update(scheme, dt, ev.dx); err != nil {
		return fmt.Errorf("step %d at t = %g: %w", ev.steps, ev.t, err)
	}
	x := iv.S.PositionModifiable()
	field.Axpy(1, ev.dx, x, x)

	if err = iv.Reparam(); err != nil {
		if !errors.Is(err, types.DivergenceError) {
			return
		}
		ev.log.Warn("reparametrization", "t", ev.t, "error", err)
	}
	ev.steps++
	ev.t += dt
	iv.Time = ev.t
	if _, _, err = ev.Mon.Check(iv.S, ev.t); err != nil {
		return
	}
	if ev.OnStep != nil {
		ev.OnStep(ev.steps, ev.t, iv.S)
	}
	return
}

// Evolve takes steps of length dt until the horizon is reached
func (ev *Evolver) Evolve(scheme types.SolverScheme, dt, horizon float64) (err error) {
	defer ev.prof.Start("Evolve")()
	if dt <= 0 {
		return fmt.Errorf("%w: time step %g", types.InvalidParameter, dt)
	}
	nSteps := int(math.Ceil((horizon-ev.t)/dt - 1.e-10))
	ev.log.Info("evolving", "scheme", scheme, "dt", dt, "horizon", horizon, "steps", nSteps)
	if _, _, err = ev.Mon.Check(ev.IV.S, ev.t); err != nil {
		return
	}
	for n := 0; n < nSteps; n++ {
		if err = ev.Step(scheme, dt); err != nil {
			return
		}
	}
	ev.log.Info("done", "t", ev.t, "steps", ev.steps, "memory", utils.MemUsage())
	return
}
