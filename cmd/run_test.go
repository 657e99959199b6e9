package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/govesicle/InputParameters"
	"github.com/notargets/govesicle/types"
	"github.com/notargets/govesicle/utils"
)

func TestModel(t *testing.T) {
	input := []byte(`
title: "two spheres"
sh_order: 6
n_surfs: 2
spacing: 3
ts: 0.01
time_horizon: 0.02
time_iter_max: 300
bg_flow_type: shear
bg_flow_param: 0.1
`)
	{ // Test an explicit evolution of two spheres in shear
		ip, err := InputParameters.NewParameters(input)
		require.NoError(t, err)
		m, err := NewModel(ip, utils.NewDiscardLogger())
		require.NoError(t, err)
		assert.Equal(t, types.JacobiBlockExplicit, m.Scheme)
		assert.Nil(t, m.Solver)
		require.NoError(t, m.Evolver.Evolve(m.Scheme, ip.TimeStep, ip.TimeHorizon))
		assert.Equal(t, 2, m.Evolver.Steps())
		assert.Equal(t, 2, m.Profile.Count("Step"))
		assert.NoError(t, m.Close())
	}
	{ // Test the implicit scheme builds a parallel solver and releases it
		ip, err := InputParameters.NewParameters(input)
		require.NoError(t, err)
		ip.Scheme = "implicit"
		ip.TimePrecond = "diagonalspectral"
		ip.TimeHorizon = ip.TimeStep
		m, err := NewModel(ip, utils.NewDiscardLogger())
		require.NoError(t, err)
		require.NotNil(t, m.Solver)
		require.NoError(t, m.Evolver.Evolve(m.Scheme, ip.TimeStep, ip.TimeHorizon))
		assert.Equal(t, 3, m.Solver.Live())
		assert.NoError(t, m.Close())
		assert.Equal(t, 0, m.Solver.Live())
	}
	{ // Test a bad shape is reported
		ip, err := InputParameters.NewParameters(input)
		require.NoError(t, err)
		ip.InitShape = "torus"
		_, err = NewModel(ip, nil)
		assert.ErrorIs(t, err, types.InvalidParameter)
	}
}
