package evolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/govesicle/InputParameters"
	"github.com/notargets/govesicle/bgflow"
	"github.com/notargets/govesicle/forces"
	"github.com/notargets/govesicle/interfacial"
	"github.com/notargets/govesicle/surface"
	"github.com/notargets/govesicle/types"
	"github.com/notargets/govesicle/utils"
)

func newEvolver(t *testing.T, shape string) (ev *Evolver, ip *InputParameters.Parameters) {
	ip = InputParameters.Defaults()
	ip.ShOrder = 6
	ip.TimeStep = 1.e-2
	ip.TimeHorizon = 3.e-2
	ip.TimeIterMax = 300
	x, err := surface.InitialPositions(ip.ShOrder, shape, 0.8, 1, nil, 3)
	require.NoError(t, err)
	props := forces.NewProperties(1, ip.BendingModulus, 1)
	iv, err := interfacial.New(surface.New(x), ip, ip.TimeStep, interfacial.Collaborators{
		Forces:  forces.NewModel(props),
		Props:   props,
		BgFlow:  bgflow.Extensional(0.1),
		Profile: utils.NewProfile(),
	})
	require.NoError(t, err)
	ev = New(iv, nil, nil, utils.NewProfile())
	return
}

func TestEvolve(t *testing.T) {
	{ // Test a sphere in extensional flow over three steps
		ev, ip := newEvolver(t, "sphere")
		var hooked []int
		ev.OnStep = func(step int, tm float64, s surface.Geometry) { hooked = append(hooked, step) }
		require.NoError(t, ev.Evolve(types.JacobiBlockExplicit, ip.TimeStep, ip.TimeHorizon))
		assert.Equal(t, 3, ev.Steps())
		assert.InDelta(t, 3.e-2, ev.Time(), 1.e-14)
		assert.InDelta(t, 3.e-2, ev.IV.Time, 1.e-14)
		assert.Equal(t, []int{1, 2, 3}, hooked)
		ea, ev2, err := ev.Mon.Check(ev.IV.S, ev.Time())
		assert.NoError(t, err)
		assert.Less(t, ea, 1.e-2)
		assert.Less(t, ev2, 1.e-2)
		assert.Equal(t, 3, ev.prof.Count("Step"))
	}
	{ // Test the implicit bending scheme keeps the ellipsoid volume
		ev, ip := newEvolver(t, "ellipsoid")
		require.NoError(t, ev.Evolve(types.JacobiBlockGaussSeidel, ip.TimeStep, 2*ip.TimeStep))
		assert.Equal(t, 2, ev.Steps())
		_, ev2, err := ev.Mon.Check(ev.IV.S, ev.Time())
		assert.NoError(t, err)
		assert.Less(t, ev2, 1.e-2)
	}
	{ // Test a failing step stops the evolution
		ev, ip := newEvolver(t, "sphere")
		err := ev.Evolve(types.SolverScheme(99), ip.TimeStep, ip.TimeHorizon)
		assert.ErrorIs(t, err, types.NotImplementedError)
		assert.Equal(t, 0, ev.Steps())
	}
	{ // Test a horizon already reached takes no step
		ev, ip := newEvolver(t, "sphere")
		assert.NoError(t, ev.Evolve(types.JacobiBlockExplicit, ip.TimeStep, 0))
		assert.Equal(t, 0, ev.Steps())
		assert.ErrorIs(t, ev.Evolve(types.JacobiBlockExplicit, 0, 1), types.InvalidParameter)
	}
}
