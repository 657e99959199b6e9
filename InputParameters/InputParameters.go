package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"

	"github.com/notargets/govesicle/types"
)

// Parameters obtained from the YAML input file
type Parameters struct {
	Title string `json:"title"`

	// Discretization
	ShOrder      int          `json:"sh_order"`
	UpsampleFreq int          `json:"upsample_freq"`
	FilterFreq   int          `json:"filter_freq"`
	NumSurfs     int          `json:"n_surfs"`
	InitShape    string       `json:"init_shape"`
	ShapeParam   float64      `json:"shape_param"`
	Centers      [][3]float64 `json:"centers"`
	Spacing      float64      `json:"spacing"`

	// Time stepping and the inner solves
	TimeStep          float64 `json:"ts"`
	TimeHorizon       float64 `json:"time_horizon"`
	TimeTol           float64 `json:"time_tol"`
	TimeIterMax       int     `json:"time_iter_max"`
	TimePrecond       string  `json:"time_precond"`
	Scheme            string  `json:"scheme"`
	SingularStokes    string  `json:"singular_stokes"`
	TensionSolver     string  `json:"tension_solver"`
	Pseudospectral    bool    `json:"pseudospectral"`
	SolveForVelocity  bool    `json:"solve_for_velocity"`
	InteractionUpsamp bool    `json:"interaction_upsample"`

	// Reparametrization
	RepTimeStep float64 `json:"rep_ts"`
	RepTol      float64 `json:"rep_tol"`
	RepMaxIter  int     `json:"rep_maxit"`
	RepUpsample bool    `json:"rep_upsample"`
	RepFilter   int     `json:"rep_filter_freq"`

	// Material and flow
	BendingModulus    float64 `json:"bending_modulus"`
	ViscosityContrast float64 `json:"viscosity_contrast"`
	BgFlowType        string  `json:"bg_flow_type"`
	BgFlowParam       float64 `json:"bg_flow_param"`
	BgFlowParam2      float64 `json:"bg_flow_param2"`

	NumThreads int `json:"num_threads"`
}

// Defaults returns a parameter set that evolves a single sphere with the explicit scheme
func Defaults() (ip *Parameters) {
	ip = &Parameters{
		Title:             "vesicle",
		ShOrder:           8,
		NumSurfs:          1,
		InitShape:         "sphere",
		ShapeParam:        0.5,
		Spacing:           3,
		TimeStep:          1.e-3,
		TimeHorizon:       1.e-2,
		TimeTol:           1.e-6,
		TimeIterMax:       100,
		TimePrecond:       "none",
		Scheme:            "explicit",
		SingularStokes:    "viaspharm",
		TensionSolver:     "gmres",
		Pseudospectral:    true,
		RepTimeStep:       1.e-3,
		RepTol:            1.e-6,
		RepMaxIter:        50,
		BendingModulus:    1.e-2,
		ViscosityContrast: 1,
		BgFlowType:        "none",
		NumThreads:        1,
	}
	return
}

// Parse overlays the YAML document on the defaults
func (ip *Parameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func NewParameters(data []byte) (ip *Parameters, err error) {
	ip = Defaults()
	if err = ip.Parse(data); err != nil {
		return
	}
	err = ip.Validate()
	return
}

func (ip *Parameters) Validate() (err error) {
	if ip.ShOrder < 2 {
		return fmt.Errorf("%w: sh_order must be at least 2, have %d",
			types.InvalidParameter, ip.ShOrder)
	}
	if ip.UpsampleFreq != 0 && ip.UpsampleFreq < ip.ShOrder {
		return fmt.Errorf("%w: upsample_freq %d is below sh_order %d",
			types.InvalidParameter, ip.UpsampleFreq, ip.ShOrder)
	}
	if ip.FilterFreq < 0 || ip.FilterFreq > ip.ShOrder {
		return fmt.Errorf("%w: filter_freq %d outside [0,%d]",
			types.InvalidParameter, ip.FilterFreq, ip.ShOrder)
	}
	if ip.NumSurfs < 1 {
		return fmt.Errorf("%w: n_surfs must be positive", types.InvalidParameter)
	}
	if len(ip.Centers) != 0 && len(ip.Centers) != ip.NumSurfs {
		return fmt.Errorf("%w: have %d centers for %d surfaces",
			types.InvalidParameter, len(ip.Centers), ip.NumSurfs)
	}
	if ip.TimeStep <= 0 || ip.TimeTol <= 0 || ip.TimeIterMax < 1 {
		return fmt.Errorf("%w: ts, time_tol and time_iter_max must be positive",
			types.InvalidParameter)
	}
	if ip.RepMaxIter < 0 || ip.RepTol < 0 {
		return fmt.Errorf("%w: negative reparametrization setting", types.InvalidParameter)
	}
	if ip.ViscosityContrast <= 0 {
		return fmt.Errorf("%w: viscosity_contrast must be positive", types.InvalidParameter)
	}
	if _, err = ip.SolverScheme(); err != nil {
		return
	}
	if _, err = ip.PrecondScheme(); err != nil {
		return
	}
	if _, err = ip.SingularStokesRot(); err != nil {
		return
	}
	if _, err = ip.LinearSolver(); err != nil {
		return
	}
	_, err = ip.BgFlow()
	return
}

func (ip *Parameters) SolverScheme() (types.SolverScheme, error) {
	return types.NewSolverScheme(ip.Scheme)
}

func (ip *Parameters) PrecondScheme() (types.PrecondScheme, error) {
	return types.NewPrecondScheme(ip.TimePrecond)
}

func (ip *Parameters) SingularStokesRot() (types.SingularStokesRot, error) {
	return types.NewSingularStokesRot(ip.SingularStokes)
}

func (ip *Parameters) LinearSolver() (types.LinearSolver, error) {
	return types.NewLinearSolver(ip.TensionSolver)
}

func (ip *Parameters) BgFlow() (types.BgFlowType, error) {
	return types.NewBgFlowType(ip.BgFlowType)
}

// UpsampleOrder is the order used by the upsampled far field and reparametrization
func (ip *Parameters) UpsampleOrder() int {
	if ip.UpsampleFreq == 0 {
		return 2 * ip.ShOrder
	}
	return ip.UpsampleFreq
}

func (ip *Parameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t\t= Spherical Harmonic Order\n", ip.ShOrder)
	fmt.Printf("[%d]\t\t\t\t= Number of Surfaces\n", ip.NumSurfs)
	fmt.Printf("[%s]\t\t\t= Initial Shape\n", ip.InitShape)
	fmt.Printf("%8.5f\t\t= Time Step\n", ip.TimeStep)
	fmt.Printf("%8.5f\t\t= Time Horizon\n", ip.TimeHorizon)
	fmt.Printf("%8.2e\t\t= Solver Tolerance\n", ip.TimeTol)
	fmt.Printf("[%d]\t\t\t\t= Solver Iteration Limit\n", ip.TimeIterMax)
	fmt.Printf("[%s]\t\t\t= Scheme\n", ip.Scheme)
	fmt.Printf("[%s]\t\t\t= Preconditioner\n", ip.TimePrecond)
	fmt.Printf("[%s]\t\t\t= Singular Stokes\n", ip.SingularStokes)
	fmt.Printf("[%s]\t\t\t= Tension Solver\n", ip.TensionSolver)
	fmt.Printf("%v\t\t\t\t= Pseudospectral\n", ip.Pseudospectral)
	fmt.Printf("%v\t\t\t\t= Solve For Velocity\n", ip.SolveForVelocity)
	fmt.Printf("%v\t\t\t\t= Interaction Upsample\n", ip.InteractionUpsamp)
	fmt.Printf("%8.2e\t\t= Reparam Step\n", ip.RepTimeStep)
	fmt.Printf("%8.2e\t\t= Reparam Tolerance\n", ip.RepTol)
	fmt.Printf("[%d]\t\t\t\t= Reparam Iteration Limit\n", ip.RepMaxIter)
	fmt.Printf("%8.5f\t\t= Bending Modulus\n", ip.BendingModulus)
	fmt.Printf("%8.5f\t\t= Viscosity Contrast\n", ip.ViscosityContrast)
	fmt.Printf("[%s]\t\t\t= Background Flow, param = %8.5f, %8.5f\n",
		ip.BgFlowType, ip.BgFlowParam, ip.BgFlowParam2)
}
