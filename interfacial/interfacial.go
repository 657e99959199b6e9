/*
Package interfacial computes the velocity of the vesicle interfaces and advances their
positions by one time step. A step combines the singular self interaction of every vesicle,
the far interactions between vesicles, the background flow and the membrane tension that
keeps the surfaces locally inextensible.
*/
package interfacial

import (
	"fmt"

	"github.com/notargets/govesicle/InputParameters"
	"github.com/notargets/govesicle/bgflow"
	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/forces"
	"github.com/notargets/govesicle/interaction"
	"github.com/notargets/govesicle/psolver"
	"github.com/notargets/govesicle/sht"
	"github.com/notargets/govesicle/stokes"
	"github.com/notargets/govesicle/surface"
	"github.com/notargets/govesicle/types"
	"github.com/notargets/govesicle/utils"
	"github.com/notargets/govesicle/workspace"
)

// ForceModel is what the velocity solver needs from the membrane mechanics
type ForceModel interface {
	BendingForce(g surface.Geometry, out *field.Field)
	LinearBendingForce(g surface.Geometry, x, out *field.Field)
	TensileForce(g surface.Geometry, tension, out *field.Field)
	ExplicitTractionJump(g surface.Geometry, out *field.Field)
	ImplicitTractionJump(g surface.Geometry, x, tension, out *field.Field)
}

// Collaborators are the objects an InterfacialVelocity works with but does not own
type Collaborators struct {
	Interaction interaction.Engine
	Forces      ForceModel
	Props       *forces.Properties
	BgFlow      bgflow.BgFlow
	Solver      psolver.Solver // Required by the globally implicit scheme only
	Logger      utils.Logger
	Profile     *utils.Profile
}

// config is the resolved form of the input parameters
type config struct {
	scheme           types.SolverScheme
	precond          types.PrecondScheme
	singular         types.SingularStokesRot
	linSolver        types.LinearSolver
	pseudospectral   bool
	solveForVelocity bool
	upsampleFar      bool
	timeTol          float64
	timeIterMax      int
	filterFreq       int
	repTs, repTol    float64
	repMaxIter       int
	repUpsample      bool
	repFilter        int
	upOrder          int
}

func newConfig(ip *InputParameters.Parameters, p int) (c config, err error) {
	if c.scheme, err = ip.SolverScheme(); err != nil {
		return
	}
	if c.precond, err = ip.PrecondScheme(); err != nil {
		return
	}
	if c.singular, err = ip.SingularStokesRot(); err != nil {
		return
	}
	if c.linSolver, err = ip.LinearSolver(); err != nil {
		return
	}
	c.pseudospectral = ip.Pseudospectral
	c.solveForVelocity = ip.SolveForVelocity
	c.upsampleFar = ip.InteractionUpsamp
	c.timeTol, c.timeIterMax = ip.TimeTol, ip.TimeIterMax
	c.filterFreq = ip.FilterFreq
	if c.filterFreq == 0 {
		c.filterFreq = p
	}
	c.repTs, c.repTol, c.repMaxIter = ip.RepTimeStep, ip.RepTol, ip.RepMaxIter
	c.repUpsample, c.repFilter = ip.RepUpsample, ip.RepFilter
	c.upOrder = ip.UpsampleFreq
	if c.upOrder == 0 {
		c.upOrder = 2 * p
	}
	return
}

/*
InterfacialVelocity owns the per step state of the vesicle evolution: the interfacial
velocity (or, when the implicit system is posed for positions, the new position) and the
tension. Scratch fields come from a workspace pool shaped like the current surfaces, every
checkout is released before the operation that made it returns.

Not safe for concurrent use.
*/
type InterfacialVelocity struct {
	S     surface.Geometry
	Time  float64 // Passed to the background flow
	dt    float64
	cfg   config
	sh    *sht.SHT
	shUp  *sht.SHT
	props *forces.Properties
	force ForceModel
	inter interaction.Engine
	bg    bgflow.BgFlow
	ps    psolver.Solver
	log   utils.Logger
	prof  *utils.Profile

	posVel, tension *field.Field
	pool            *workspace.Pool
	mp              *stokes.MovePole
	sv              *stokesVelocity

	state             State
	psolverConfigured bool
	precondConfigured bool
	matvec            psolver.LinOp
	rhs, u            psolver.Vec

	positionPrecond, tensionPrecond []float64
	precondOp                       *utils.DiagonalOperator

	repHistory  []float64
	repSubsteps []int // Start of each sub step in repHistory
}

func New(s surface.Geometry, ip *InputParameters.Parameters, dt float64,
	c Collaborators) (iv *InterfacialVelocity, err error) {
	var cfg config
	if cfg, err = newConfig(ip, s.ShOrder()); err != nil {
		return
	}
	if dt <= 0 {
		err = fmt.Errorf("%w: time step %g", types.InvalidParameter, dt)
		return
	}
	if c.Forces == nil || c.Props == nil {
		err = fmt.Errorf("%w: force model and vesicle properties are required",
			types.InvalidParameter)
		return
	}
	if c.Interaction == nil {
		c.Interaction = interaction.None{}
	}
	if c.BgFlow == nil {
		c.BgFlow = bgflow.None()
	}
	if c.Logger == nil {
		c.Logger = utils.NewDiscardLogger()
	}
	x := s.Position()
	iv = &InterfacialVelocity{
		S:       s,
		dt:      dt,
		cfg:     cfg,
		sh:      sht.Get(s.ShOrder()),
		shUp:    sht.Get(cfg.upOrder),
		props:   c.Props,
		force:   c.Forces,
		inter:   c.Interaction,
		bg:      c.BgFlow,
		ps:      c.Solver,
		log:     c.Logger,
		prof:    c.Profile,
		posVel:  field.NewVector(x.ShOrder, x.NumSubs),
		tension: field.NewScalar(x.ShOrder, x.NumSubs),
	}
	iv.pool = workspace.NewPool(func() *field.Field { return iv.S.Position() })
	iv.mp = stokes.NewMovePole(iv.sh)
	iv.sv = &stokesVelocity{iv: iv}
	iv.log.Debug("interfacial velocity", "scheme", cfg.scheme, "precond", cfg.precond,
		"singular", cfg.singular, "pseudospectral", cfg.pseudospectral,
		"solve_for_velocity", cfg.solveForVelocity)
	return
}

func (iv *InterfacialVelocity) TimeStep() float64              { return iv.dt }
func (iv *InterfacialVelocity) Scheme() types.SolverScheme     { return iv.cfg.scheme }
func (iv *InterfacialVelocity) Pool() *workspace.Pool          { return iv.pool }
func (iv *InterfacialVelocity) State() State                   { return iv.state }
func (iv *InterfacialVelocity) PositionVelocity() *field.Field { return iv.posVel }
func (iv *InterfacialVelocity) Tension() *field.Field          { return iv.tension }

// SetSurface points the solver at a new set of surfaces, the per vesicle state is resized
// on the next Prepare or explicit update
func (iv *InterfacialVelocity) SetSurface(s surface.Geometry) {
	if s.ShOrder() != iv.sh.P {
		iv.sh = sht.Get(s.ShOrder())
		iv.mp = stokes.NewMovePole(iv.sh)
	}
	iv.S = s
}

func (iv *InterfacialVelocity) checkoutVec() (*field.Field, func()) {
	l := iv.pool.Vec()
	return l.F, l.Release
}

func (iv *InterfacialVelocity) checkoutSca() (*field.Field, func()) {
	l := iv.pool.Sca()
	return l.F, l.Release
}

// syncState resizes the velocity and tension after the vesicle count changed
func (iv *InterfacialVelocity) syncState() {
	x := iv.S.Position()
	if iv.posVel.SameShape(x) {
		return
	}
	iv.posVel.Replicate(x)
	iv.posVel.SetZero()
	iv.tension.Resize(x.ShOrder, x.NumSubs)
	iv.tension.SetZero()
}

// Close releases the solver handles in reverse order of creation and checks the pool
func (iv *InterfacialVelocity) Close() (err error) {
	for _, h := range []interface{ Close() error }{iv.u, iv.rhs, iv.matvec} {
		if h == nil {
			continue
		}
		if e := h.Close(); e != nil && err == nil {
			err = e
		}
	}
	iv.u, iv.rhs, iv.matvec = nil, nil, nil
	iv.psolverConfigured = false
	iv.pool.Close()
	return
}
