package sht

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/govesicle/field"
)

// coordField fills a scalar field with coordinate d of the unit sphere
func coordField(sh *SHT, d int) (f *field.Field) {
	f = field.NewScalar(sh.P, 1)
	for i := 0; i < sh.NLat; i++ {
		for j := 0; j < sh.NLon; j++ {
			f.Data[i*sh.NLon+j] = sh.GridPoint(i, j)[d]
		}
	}
	return
}

func randomCoeffs(sh *SHT, nSubs int, rng *rand.Rand) (c *field.Field) {
	c = field.NewScalar(sh.P, nSubs)
	for k := 0; k < nSubs; k++ {
		for s := 0; s < sh.SpecLn; s++ {
			c.Data[k*sh.Stride+s] = rng.Float64() - 0.5
		}
	}
	return
}

func TestTransform(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, p := range []int{2, 5, 8} {
		sh := New(p)
		{ // Test slot layout
			assert.Equal(t, 0, sh.CosSlot(0, 0))
			assert.Equal(t, sh.SpecLn-1, sh.CosSlot(p, p))
			assert.Equal(t, -1, sh.SinSlot(p, p))
			assert.Equal(t, -1, sh.SinSlot(3, 0))
			assert.Equal(t, p+1, sh.CosSlot(1, 1))
			assert.Equal(t, 2*p+1, sh.SinSlot(1, 1))
		}
		{ // Test coefficients -> grid -> coefficients
			c := randomCoeffs(sh, 2, rng)
			g := field.NewScalar(p, 2)
			sh.Backward(c, g)
			c2 := field.NewScalar(p, 2)
			sh.Forward(g, c2)
			assert.InDeltaSlice(t, c.Data, c2.Data, 1.e-12)
			// in place
			sh.Backward(c2, c2)
			assert.InDeltaSlice(t, g.Data, c2.Data, 1.e-12)
		}
		{ // Test quadrature weights
			var reg, sing float64
			for i := 0; i < sh.NLat; i++ {
				for j := 0; j < sh.NLon; j++ {
					pt := i*sh.NLon + j
					reg += sh.QuadWeights()[pt]
					sing += sh.SingularWeights()[pt] / (2 * math.Sin(sh.Theta[i]/2))
				}
			}
			assert.InDelta(t, 4*math.Pi, reg, 1.e-12)
			assert.InDelta(t, 4*math.Pi, sing, 1.e-10)
		}
		{ // Test derivatives of x = sin(theta) cos(phi)
			x := coordField(sh, 0)
			c := x.Clone()
			sh.Forward(x, c)
			dT, dP := field.NewScalar(p, 1), field.NewScalar(p, 1)
			sh.FirstDerivs(c, dT, dP)
			dTT, dTP, dPP := field.NewScalar(p, 1), field.NewScalar(p, 1), field.NewScalar(p, 1)
			sh.SecondDerivs(c, dTT, dTP, dPP)
			for i := 0; i < sh.NLat; i++ {
				for j := 0; j < sh.NLon; j++ {
					var (
						pt     = i*sh.NLon + j
						st, ct = sh.Sin[i], sh.Cos[i]
						sp, cp = math.Sin(sh.Phi[j]), math.Cos(sh.Phi[j])
					)
					assert.InDelta(t, ct*cp, dT.Data[pt], 1.e-10)
					assert.InDelta(t, -st*sp, dP.Data[pt], 1.e-10)
					assert.InDelta(t, -st*cp, dTT.Data[pt], 1.e-10)
					assert.InDelta(t, -ct*sp, dTP.Data[pt], 1.e-10)
					assert.InDelta(t, -st*cp, dPP.Data[pt], 1.e-10)
				}
			}
		}
	}
}

func TestFilterAndResample(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	sh, up := New(4), New(9)
	c := randomCoeffs(sh, 1, rng)
	g := field.NewScalar(4, 1)
	sh.Backward(c, g)
	{ // Test upsample then downsample is the identity on band-limited data
		gu := field.NewScalar(9, 1)
		sh.Resample(g, up, gu)
		assert.Equal(t, 9, gu.ShOrder)
		gd := field.NewScalar(4, 1)
		up.Resample(gu, sh, gd)
		assert.InDeltaSlice(t, g.Data, gd.Data, 1.e-11)
	}
	{ // Test upsampled values match the analytic function
		z := coordField(sh, 2)
		zu := field.NewScalar(9, 1)
		sh.Resample(z, up, zu)
		assert.InDeltaSlice(t, coordField(up, 2).Data, zu.Data, 1.e-12)
	}
	{ // Test low pass filter keeps low degrees only
		f := field.NewScalar(4, 1)
		sh.LowPassFilter(g, 1, f)
		cf := f.Clone()
		sh.Forward(f, cf)
		for k, n := range sh.SlotDegree() {
			if n > 1 {
				assert.InDelta(t, 0, cf.Data[k], 1.e-12)
			} else {
				assert.InDelta(t, c.Data[k], cf.Data[k], 1.e-12)
			}
		}
	}
}

func TestMovingPoleRotation(t *testing.T) {
	sh := New(6)
	var (
		coords [3]*field.Field
		coefs  [3]*mat.Dense
		grids  [3]*mat.Dense
	)
	for d := 0; d < 3; d++ {
		coords[d] = coordField(sh, d)
		c := coords[d].Clone()
		sh.Forward(coords[d], c)
		coefs[d] = mat.NewDense(sh.SpecLn, 1, c.Data[:sh.SpecLn])
		grids[d] = mat.NewDense(sh.Stride, 1, coords[d].Data)
	}
	shifted := mat.NewDense(sh.SpecLn, 1, nil)
	shiftedG := mat.NewDense(sh.Stride, 1, nil)
	viaSH := mat.NewDense(sh.Stride, 1, nil)
	direct := mat.NewDense(sh.Stride, 1, nil)
	for _, tgt := range [][2]int{{0, 0}, {2, 3}, {6, 11}} {
		i, j := tgt[0], tgt[1]
		var rotPole [3]float64
		for d := 0; d < 3; d++ {
			sh.ShiftCoeffs(coefs[d], shifted, j)
			viaSH.Mul(sh.EvalMatrix(i), shifted)
			sh.ShiftGrid(grids[d], shiftedG, j)
			direct.Mul(sh.PhysRotMatrix(i), shiftedG)
			for r := 0; r < sh.Stride; r++ {
				assert.InDelta(t, viaSH.At(r, 0), direct.At(r, 0), 1.e-10)
			}
			// The rotated image of the grid point nearest the north pole approaches the target
			rotPole[d] = viaSH.At(0, 0)
		}
		target := sh.GridPoint(i, j)
		var dist float64
		for d := 0; d < 3; d++ {
			dist += (rotPole[d] - target[d]) * (rotPole[d] - target[d])
		}
		// grid point (0,0) sits theta_0 away from the pole
		assert.InDelta(t, 2*math.Sin(sh.Theta[0]/2), math.Sqrt(dist), 1.e-10)
	}
}
