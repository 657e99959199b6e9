package forces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/surface"
)

func TestProperties(t *testing.T) {
	vp := NewProperties(2, 0.1, 1)
	assert.False(t, vp.HasContrast)
	assert.Equal(t, []float64{0, 0}, vp.DLCoeff)
	assert.Equal(t, []float64{1, 1}, vp.VelCoeff)
	vp = NewPropertiesPerVesicle([]float64{1, 1}, []float64{1, 3})
	assert.True(t, vp.HasContrast)
	assert.Equal(t, -2., vp.DLCoeff[1])
	assert.Equal(t, 2., vp.VelCoeff[1])
	require.Panics(t, func() { vp.Check(3) })
	require.Panics(t, func() { NewPropertiesPerVesicle([]float64{1}, nil) })
}

func TestForces(t *testing.T) {
	{ // Test a sphere carries no bending force and a uniform tension pulls inward
		x, err := surface.InitialPositions(8, "sphere", 0, 1, nil, 0)
		require.NoError(t, err)
		s := surface.New(x)
		fm := NewModel(NewProperties(1, 0.5, 1))
		fb := field.NewVector(8, 1)
		fm.BendingForce(s, fb)
		assert.InDelta(t, 0, field.MaxAbs(fb), 1.e-8)

		ten := field.NewScalar(8, 1)
		ten.Fill(3)
		ft := field.NewVector(8, 1)
		fm.TensileForce(s, ten, ft)
		n := s.Normal()
		for pt := 0; pt < x.Stride(); pt++ {
			nn, ff := n.Point(0, pt), ft.Point(0, pt)
			assert.InDeltaSlice(t, []float64{-6 * nn[0], -6 * nn[1], -6 * nn[2]}, ff[:], 1.e-9)
		}
		f := field.NewVector(8, 1)
		fm.ImplicitTractionJump(s, s.Position(), ten, f)
		assert.InDeltaSlice(t, ft.Data, f.Data, 1.e-8)
	}
	{ // Test the linear bending force of the current position is the bending force
		x, err := surface.InitialPositions(10, "ellipsoid", 0.9, 1, nil, 0)
		require.NoError(t, err)
		s := surface.New(x)
		fm := NewModel(NewProperties(1, 0.1, 1))
		fb, fl := field.NewVector(10, 1), field.NewVector(10, 1)
		fm.ExplicitTractionJump(s, fb)
		fm.LinearBendingForce(s, s.Position(), fl)
		scale := field.MaxAbs(fb)
		assert.True(t, scale > 1.e-4)
		field.Axpy(-1, fl, fb, fl)
		assert.True(t, field.MaxAbs(fl) < 1.e-2*scale)
	}
}
