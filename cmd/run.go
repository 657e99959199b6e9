/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/govesicle/InputParameters"
	"github.com/notargets/govesicle/bgflow"
	"github.com/notargets/govesicle/evolve"
	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/forces"
	"github.com/notargets/govesicle/interaction"
	"github.com/notargets/govesicle/interfacial"
	"github.com/notargets/govesicle/monitor"
	"github.com/notargets/govesicle/psolver"
	"github.com/notargets/govesicle/surface"
	"github.com/notargets/govesicle/types"
	"github.com/notargets/govesicle/utils"
)

type ModelRun struct {
	ICFile     string
	ProfileDir string
	Perf       bool
	Verbose    bool
	Procs      int
}

const exampleFile = `
########################################
title: "Two spheres in shear"
sh_order: 12
n_surfs: 2
init_shape: sphere
spacing: 3
ts: 0.001
time_horizon: 0.1
scheme: implicit
time_precond: diagonalspectral
bg_flow_type: shear
bg_flow_param: 0.1
########################################
`

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Evolve the vesicles described by an input parameters file",
	Long: `Evolve the vesicles described by an input parameters file with forward Euler, reporting the
area and volume drift after every step`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		mr := &ModelRun{}
		if mr.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		mr.ProfileDir, _ = cmd.Flags().GetString("profile")
		mr.Perf, _ = cmd.Flags().GetBool("perf")
		mr.Verbose = viper.GetBool("verbose")
		mr.Procs = viper.GetInt("procs")
		ip := processInput(mr)
		if err = RunModel(mr, ip); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- sh_order\n\t- ts\n\t- scheme")
	RunCmd.Flags().StringP("profile", "p", "", "write a CPU profile into this directory")
	RunCmd.Flags().Bool("perf", false, "count the CPU instructions of the evolution (linux only)")
}

func processInput(mr *ModelRun) (ip *InputParameters.Parameters) {
	var (
		err  error
		data []byte
	)
	if len(mr.ICFile) == 0 {
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	if data, err = os.ReadFile(mr.ICFile); err != nil {
		panic(err)
	}
	if ip, err = InputParameters.NewParameters(data); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	if mr.Procs > 0 {
		ip.NumThreads = mr.Procs
	}
	ip.Print()
	return
}

// Model is everything one evolution needs, Close releases the parallel solver
type Model struct {
	Evolver *evolve.Evolver
	IV      *interfacial.InterfacialVelocity
	Solver  *psolver.Local
	Profile *utils.Profile
	Scheme  types.SolverScheme
}

func NewModel(ip *InputParameters.Parameters, log utils.Logger) (m *Model, err error) {
	var (
		x    *field.Field
		flow types.BgFlowType
		c    interfacial.Collaborators
	)
	m = &Model{Profile: utils.NewProfile()}
	if m.Scheme, err = ip.SolverScheme(); err != nil {
		return
	}
	if x, err = surface.InitialPositions(ip.ShOrder, ip.InitShape, ip.ShapeParam, ip.NumSurfs,
		ip.Centers, ip.Spacing); err != nil {
		return
	}
	s := surface.New(x)
	if ip.FilterFreq != 0 {
		s.FilterFreq = ip.FilterFreq
	}
	props := forces.NewProperties(ip.NumSurfs, ip.BendingModulus, ip.ViscosityContrast)
	c.Forces, c.Props = forces.NewModel(props), props
	if flow, err = ip.BgFlow(); err != nil {
		return
	}
	if c.BgFlow, err = bgflow.New(flow, ip.BgFlowParam, ip.BgFlowParam2); err != nil {
		return
	}
	if ip.NumSurfs > 1 {
		c.Interaction = interaction.NewDirect(ip.NumThreads)
	}
	if m.Scheme == types.GloballyImplicit {
		var method types.LinearSolver
		if method, err = ip.LinearSolver(); err != nil {
			return
		}
		m.Solver = psolver.NewLocal(ip.Title, method, log)
		m.Solver.Restart = ip.TimeIterMax
		c.Solver = m.Solver
	}
	c.Logger, c.Profile = log, m.Profile
	if m.IV, err = interfacial.New(s, ip, ip.TimeStep, c); err != nil {
		return
	}
	m.Evolver = evolve.New(m.IV, monitor.New(log), log, m.Profile)
	return
}

func (m *Model) Close() (err error) {
	if err = m.IV.Close(); err != nil {
		return
	}
	if m.Solver != nil {
		err = m.Solver.Close()
	}
	return
}

func RunModel(mr *ModelRun, ip *InputParameters.Parameters) (err error) {
	log := utils.NewTextLogger(mr.Verbose)
	if len(mr.ProfileDir) != 0 {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(mr.ProfileDir)).Stop()
	}
	var m *Model
	if m, err = NewModel(ip, log); err != nil {
		return
	}
	defer func() {
		if cerr := m.Close(); err == nil {
			err = cerr
		}
	}()
	m.Evolver.OnStep = func(step int, t float64, s surface.Geometry) {
		log.Debug("step", "n", step, "t", t, "centers", s.Centers())
	}
	evolveFn := func() error { return m.Evolver.Evolve(m.Scheme, ip.TimeStep, ip.TimeHorizon) }
	if mr.Perf {
		var count uint64
		if count, err = countInstructions(evolveFn); err != nil {
			return
		}
		fmt.Printf("%d CPU instructions\n", count)
	} else if err = evolveFn(); err != nil {
		return
	}
	if mr.Verbose {
		m.Profile.Report(os.Stdout)
	}
	return
}
