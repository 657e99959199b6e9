package monitor

import (
	"fmt"
	"math"

	"github.com/notargets/govesicle/surface"
	"github.com/notargets/govesicle/types"
	"github.com/notargets/govesicle/utils"
)

// MaxRelativeError is the area or volume drift at which an evolution is abandoned
const MaxRelativeError = 20.

/*
Monitor tracks the drift of the largest vesicle area and volume from the values seen on
its first call. The membranes are inextensible and the flow incompressible, so both should
stay put up to the discretization error.
*/
type Monitor struct {
	A0, V0  float64
	started bool
	log     utils.Logger
}

func New(log utils.Logger) *Monitor {
	if log == nil {
		log = utils.NewDiscardLogger()
	}
	return &Monitor{log: log}
}

// Check returns the relative area and volume errors at time t
func (m *Monitor) Check(s surface.Geometry, t float64) (areaErr, volErr float64, err error) {
	var (
		A = utils.MaxAbs(s.Area())
		V = utils.MaxAbs(s.Volume())
	)
	if !m.started {
		m.A0, m.V0, m.started = A, V, true
	}
	areaErr, volErr = math.Abs(A/m.A0-1), math.Abs(V/m.V0-1)
	m.log.Info("monitor", "t", t, "area error", areaErr, "volume error", volErr)
	if areaErr > MaxRelativeError || volErr > MaxRelativeError {
		err = fmt.Errorf("%w: area error %8.4e, volume error %8.4e at t = %g",
			types.AccuracyError, areaErr, volErr, t)
	}
	return
}

