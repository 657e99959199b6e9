/*
Package repartition redistributes vesicles among a fixed set of workers. Every worker
holds the positions and tensions of its own vesicles, a user function sees all of them at
once and returns a new global set which is then split evenly among the workers.
*/
package repartition

import (
	"fmt"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/types"
	"github.com/notargets/govesicle/utils"
)

/*
Func receives the nv vesicles of all workers, positions axis major with 3*stride values
per vesicle and tensions with stride values per vesicle, and returns the new global set in
the same layout.
*/
type Func func(nv, stride int, pos, ten []float64) (nvr int, posr, tenr []float64, err error)

/*
Gateway is shared by a fixed number of workers, each of which calls Repartition once per
round with its own worker index. Worker 0 runs the user function. After the call worker 0
owns nvr - (np-1)*(nvr/np) vesicles and every other worker owns nvr/np.
*/
type Gateway struct {
	fn      Func
	np      int
	bar     *utils.Barrier
	counts  []int
	offsets []int // Point offsets, np+1 long
	nv      int

	allPos, allTen []float64
	nvr            int
	posr, tenr     []float64
	err            error
}

func NewGateway(fn Func, numWorkers int) (g *Gateway) {
	g = &Gateway{
		fn:      fn,
		np:      numWorkers,
		bar:     utils.NewBarrier(numWorkers),
		counts:  make([]int, numWorkers),
		offsets: make([]int, numWorkers+1),
	}
	return
}

func (g *Gateway) NumWorkers() int { return g.np }

/*
Repartition is collective: it returns only after every worker called it. pos and ten are
resized to the worker's new share. An error from the user function is returned to every
worker and leaves pos and ten unchanged.
*/
func (g *Gateway) Repartition(worker int, pos, ten *field.Field) (err error) {
	if g.fn == nil {
		return
	}
	if worker < 0 || worker >= g.np {
		panic(fmt.Errorf("worker %d outside [0,%d)", worker, g.np))
	}
	if !pos.IsVector() || ten.IsVector() || pos.NumSubs != ten.NumSubs ||
		pos.ShOrder != ten.ShOrder || pos.Order != types.AxisMajor {
		panic(fmt.Errorf("repartition of mismatched fields %s and %s", pos, ten))
	}
	var (
		p      = ten.ShOrder
		stride = ten.Stride()
		idx    = g.copyIndex(worker, ten.NumSubs, stride)
	)
	if worker == 0 {
		g.grow(stride)
	}
	g.bar.Wait()
	copy(g.allPos[3*idx:], pos.Data)
	copy(g.allTen[idx:], ten.Data)

	g.bar.Wait()
	if worker == 0 {
		g.nvr, g.posr, g.tenr, g.err = g.fn(g.nv, stride,
			g.allPos[:3*g.nv*stride], g.allTen[:g.nv*stride])
		if g.err != nil {
			g.err = fmt.Errorf("%w: %w", types.RepartitioningFailed, g.err)
		} else if len(g.posr) != 3*g.nvr*stride || len(g.tenr) != g.nvr*stride {
			g.err = fmt.Errorf("%w: repartition returned %d vesicles with %d position and %d tension values",
				types.SizeError, g.nvr, len(g.posr), len(g.tenr))
		}
	}
	g.bar.Wait()
	if err = g.err; err != nil {
		return
	}

	nv := g.share(worker)
	idx = g.copyIndex(worker, nv, stride)
	pos.Resize(p, nv)
	ten.Resize(p, nv)
	copy(pos.Data, g.posr[3*idx:])
	copy(ten.Data, g.tenr[idx:])
	return
}

// copyIndex exchanges the vesicle counts and returns the point offset of this worker
func (g *Gateway) copyIndex(worker, nv, stride int) int {
	g.counts[worker] = nv
	g.bar.Wait()
	if worker == 0 {
		g.nv = 0
		for i := 1; i <= g.np; i++ {
			g.nv += g.counts[i-1]
			g.offsets[i] = g.offsets[i-1] + stride*g.counts[i-1]
		}
	}
	g.bar.Wait()
	return g.offsets[worker]
}

func (g *Gateway) share(worker int) (nv int) {
	nv = g.nvr / g.np
	if worker == 0 {
		nv = g.nvr - (g.np-1)*nv
	}
	return
}

func (g *Gateway) grow(stride int) {
	if n := g.nv * stride; len(g.allTen) < n {
		g.allPos = make([]float64, 3*n)
		g.allTen = make([]float64, n)
	}
}
