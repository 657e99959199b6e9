package surface

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/sht"
	"github.com/notargets/govesicle/types"
)

// Coefficients of the Evans-Fung red blood cell profile
const (
	rbcC0 = 0.2072
	rbcC2 = 2.0026
	rbcC4 = -1.1228
)

type ShapeFunc func(sinT, cosT, sinP, cosP float64) [3]float64

func SphereShape(radius float64) ShapeFunc {
	return func(sinT, cosT, sinP, cosP float64) [3]float64 {
		return [3]float64{radius * sinT * cosP, radius * sinT * sinP, radius * cosT}
	}
}

// EllipsoidShape has semi axes a, b, c along x, y, z
func EllipsoidShape(a, b, c float64) ShapeFunc {
	return func(sinT, cosT, sinP, cosP float64) [3]float64 {
		return [3]float64{a * sinT * cosP, b * sinT * sinP, c * cosT}
	}
}

func BiconcaveShape(radius float64) ShapeFunc {
	return func(sinT, cosT, sinP, cosP float64) [3]float64 {
		s2 := sinT * sinT
		return [3]float64{
			radius * sinT * cosP,
			radius * sinT * sinP,
			radius * 0.5 * cosT * (rbcC0 + rbcC2*s2 + rbcC4*s2*s2),
		}
	}
}

// Sample writes shape k of the position field, translated to center
func Sample(x *field.Field, k int, shape ShapeFunc, center [3]float64) {
	sh := sht.Get(x.ShOrder)
	for i := 0; i < sh.NLat; i++ {
		for j := 0; j < sh.NLon; j++ {
			var (
				pt = i*sh.NLon + j
				y  = shape(sh.Sin[i], sh.Cos[i], math.Sin(sh.Phi[j]), math.Cos(sh.Phi[j]))
			)
			x.SetPoint(k, pt, [3]float64{y[0] + center[0], y[1] + center[1], y[2] + center[2]})
		}
	}
}

/*
InitialPositions builds n vesicles of the named shape. Without explicit centers the
vesicles are placed along the x axis, spacing apart.
*/
func InitialPositions(p int, name string, param float64, n int, centers [][3]float64,
	spacing float64) (x *field.Field, err error) {
	var shape ShapeFunc
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sphere":
		shape = SphereShape(1)
	case "ellipsoid":
		shape = EllipsoidShape(1, 1, param)
	case "biconcave", "rbc":
		shape = BiconcaveShape(1)
	default:
		err = fmt.Errorf("%w: unknown shape [%s]", types.InvalidParameter, name)
		return
	}
	if len(centers) != 0 && len(centers) != n {
		err = fmt.Errorf("%w: have %d centers for %d vesicles", types.SizeError, len(centers), n)
		return
	}
	x = field.NewVector(p, n)
	for k := 0; k < n; k++ {
		var c [3]float64
		if len(centers) != 0 {
			c = centers[k]
		} else {
			c[0] = spacing * float64(k)
		}
		Sample(x, k, shape, c)
	}
	return
}
