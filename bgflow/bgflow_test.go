package bgflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/surface"
	"github.com/notargets/govesicle/types"
)

func TestBgFlow(t *testing.T) {
	x, err := surface.InitialPositions(4, "sphere", 0, 2, nil, 3)
	require.NoError(t, err)
	vel := field.NewVector(4, 0)
	{ // Test point values of each flow
		pt := [3]float64{1, 2, 3}
		pos := field.NewVector(1, 1)
		pos.SetPoint(0, 0, pt)
		cases := []struct {
			kind   types.BgFlowType
			p1, p2 float64
			want   [3]float64
		}{
			{types.NoFlow, 5, 0, [3]float64{}},
			{types.ShearFlow, 2, 0, [3]float64{6, 0, 0}},
			{types.ExtensionalFlow, 2, 0, [3]float64{-1, -2, 6}},
			{types.ParabolicFlow, 2, 10, [3]float64{2 * (1 - 13./100), 0, 0}},
		}
		for _, c := range cases {
			bf, err := New(c.kind, c.p1, c.p2)
			require.NoError(t, err)
			bf.Eval(pos, 0, vel)
			got := vel.Point(0, 0)
			assert.InDeltaSlice(t, c.want[:], got[:], 1.e-14, c.kind.String())
		}
	}
	{ // Test the vortex vanishes at the cell corners
		bf, err := New(types.TaylorVortexFlow, 1, 2)
		require.NoError(t, err)
		pos := field.NewVector(1, 1)
		pos.SetPoint(0, 0, [3]float64{1, 1, 0.3})
		bf.Eval(pos, 0, vel)
		got := vel.Point(0, 0)
		assert.InDeltaSlice(t, []float64{0, 0, 0}, got[:], 1.e-14)
	}
	{ // Test the output follows the shape of the positions
		bf, _ := New(types.ShearFlow, 1, 0)
		bf.Eval(x, 0, vel)
		assert.True(t, vel.SameShape(x))
		for pt := 0; pt < x.Stride(); pt++ {
			assert.Equal(t, x.At(1, pt, 2), vel.At(1, pt, 0))
		}
	}
	{ // Test invalid parameters
		_, err := New(types.ParabolicFlow, 1, 0)
		assert.True(t, errors.Is(err, types.InvalidParameter))
		_, err = New(types.BgFlowType(99), 1, 0)
		assert.True(t, errors.Is(err, types.InvalidParameter))
	}
}
