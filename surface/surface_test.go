package surface

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/govesicle/field"
)

func TestSphereGeometry(t *testing.T) {
	x, err := InitialPositions(8, "sphere", 0, 2, [][3]float64{{0, 0, 0}, {3, 1, 0}}, 0)
	require.NoError(t, err)
	s := New(x)
	{ // Test area, volume and centers
		area, vol := s.Area(), s.Volume()
		for k := 0; k < 2; k++ {
			assert.InDelta(t, 4*math.Pi, area[k], 1.e-10)
			assert.InDelta(t, 4*math.Pi/3, vol[k], 1.e-10)
		}
		c := s.Centers()
		assert.InDeltaSlice(t, []float64{3, 1, 0}, c[1][:], 1.e-10)
	}
	{ // Test normal, curvatures and area element
		for pt := 0; pt < x.Stride(); pt++ {
			var (
				y = x.Point(0, pt)
				n = s.Normal().Point(0, pt)
			)
			assert.InDeltaSlice(t, y[:], n[:], 1.e-10)
			assert.InDelta(t, -1, s.MeanCurv().At(0, pt, 0), 1.e-9)
			assert.InDelta(t, 1, s.GaussCurv().At(0, pt, 0), 1.e-9)
			assert.InDelta(t, 1, s.AreaElement().At(1, pt, 0), 1.e-10)
		}
	}
	{ // Test grad, div and the linearized mean curvature
		z := field.NewScalar(8, 2)
		for k := 0; k < 2; k++ {
			copy(z.Comp(k, 0), x.Comp(0, 2))
		}
		gz := field.NewVector(8, 2)
		s.Grad(z, gz)
		lap := field.NewScalar(8, 2)
		s.Div(gz, lap)
		for pt := 0; pt < x.Stride(); pt++ {
			var (
				n  = s.Normal().Point(0, pt)
				g  = gz.Point(0, pt)
				zz = z.At(0, pt, 0)
			)
			assert.InDeltaSlice(t, []float64{-n[2] * n[0], -n[2] * n[1], 1 - n[2]*n[2]}, g[:], 1.e-9)
			assert.InDelta(t, -2*zz, lap.At(0, pt, 0), 1.e-8)
		}
		h := field.NewScalar(8, 2)
		s.LinearizedMeanCurv(s.Position(), h)
		for pt := 0; pt < x.Stride(); pt++ {
			assert.InDelta(t, -1, h.At(1, pt, 0), 1.e-8)
		}
	}
	{ // Test tangent projection
		v := field.NewVector(8, 2)
		v.CopyFrom(s.Normal())
		s.MapToTangentSpace(v)
		assert.InDelta(t, 0, field.MaxAbs(v), 1.e-12)
		// n + (e_z - (e_z.n) n) keeps only the tangential part
		for pt := 0; pt < x.Stride(); pt++ {
			n := s.Normal().Point(0, pt)
			v.SetPoint(0, pt, [3]float64{n[0] - n[2]*n[0], n[1] - n[2]*n[1], n[2] + 1 - n[2]*n[2]})
		}
		s.MapToTangentSpace(v)
		for pt := 0; pt < x.Stride(); pt++ {
			var (
				n = s.Normal().Point(0, pt)
				w = v.Point(0, pt)
			)
			assert.InDeltaSlice(t, []float64{-n[2] * n[0], -n[2] * n[1], 1 - n[2]*n[2]}, w[:], 1.e-12)
		}
	}
	{ // Test resampling keeps the shape
		up := s.Resample(12)
		assert.Equal(t, 12, up.ShOrder())
		assert.InDelta(t, 4*math.Pi, up.Area()[0], 1.e-10)
	}
	{ // Test position changes invalidate the geometry
		X := s.PositionModifiable()
		for i := range X.Data {
			X.Data[i] *= 2
		}
		assert.InDelta(t, 16*math.Pi, s.Area()[0], 1.e-9)
		assert.InDelta(t, -0.5, s.MeanCurv().At(0, 3, 0), 1.e-9)
	}
}

func TestShapes(t *testing.T) {
	{ // Test ellipsoid volume
		x, err := InitialPositions(10, "ellipsoid", 0.5, 1, nil, 0)
		require.NoError(t, err)
		s := New(x)
		assert.InDelta(t, 4*math.Pi/3*0.5, s.Volume()[0], 1.e-8)
	}
	{ // Test default placement and the biconcave profile
		x, err := InitialPositions(10, "biconcave", 0, 3, nil, 4)
		require.NoError(t, err)
		s := New(x)
		c := s.Centers()
		assert.InDelta(t, 8, c[2][0], 1.e-8)
		vol := s.Volume()
		assert.True(t, vol[0] > 0 && vol[0] < 4*math.Pi/3)
	}
	{ // Test bad input
		_, err := InitialPositions(4, "cube", 0, 1, nil, 0)
		assert.Error(t, err)
		_, err = InitialPositions(4, "sphere", 0, 2, [][3]float64{{0, 0, 0}}, 0)
		assert.Error(t, err)
	}
}
