package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/surface"
	"github.com/notargets/govesicle/types"
)

func TestMonitor(t *testing.T) {
	x, err := surface.InitialPositions(8, "sphere", 0, 2, nil, 3)
	require.NoError(t, err)
	s := surface.New(x)
	m := New(nil)
	{ // Test the first call is the reference
		ea, ev, err := m.Check(s, 0)
		assert.NoError(t, err)
		assert.Equal(t, 0., ea)
		assert.Equal(t, 0., ev)
		assert.InDelta(t, 4*3.141592653589793, m.A0, 1.e-6)
	}
	{ // Test a doubled radius
		xm := s.PositionModifiable()
		field.Scale(2, xm)
		ea, ev, err := m.Check(s, 1)
		assert.NoError(t, err)
		assert.InDelta(t, 3, ea, 1.e-6)
		assert.InDelta(t, 7, ev, 1.e-6)
	}
	{ // Test the volume drift trips the accuracy check before the area
		xm := s.PositionModifiable()
		field.Scale(1.5, xm)
		ea, ev, err := m.Check(s, 2)
		assert.ErrorIs(t, err, types.AccuracyError)
		assert.InDelta(t, 8, ea, 1.e-6)
		assert.InDelta(t, 26, ev, 1.e-6)
	}
}
