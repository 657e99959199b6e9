package utils

import (
	"fmt"
	"runtime"
	"sync"
)

/*
Barrier is a reusable rendezvous for a fixed set of workers. Every participant must call
Wait in each phase, a worker that skips a phase blocks all the others.
*/
type Barrier struct {
	n, waiting int
	phase      uint64
	mu         sync.Mutex
	cond       *sync.Cond
}

func NewBarrier(n int) (b *Barrier) {
	if n < 1 {
		panic(fmt.Errorf("barrier needs at least one participant, have %d", n))
	}
	b = &Barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return
}

func (b *Barrier) Wait() {
	b.mu.Lock()
	phase := b.phase
	b.waiting++
	if b.waiting == b.n {
		b.waiting = 0
		b.phase++
		b.cond.Broadcast()
		b.mu.Unlock()
		return
	}
	for phase == b.phase {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

// PartitionMap splits [0,MaxIndex) into ParallelDegree contiguous ranges whose sizes differ
// by at most one, the larger ranges first
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // [min,max) of each partition
}

func NewPartitionMap(parallelDegree, maxIndex int) (pm *PartitionMap) {
	if parallelDegree < 1 {
		parallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: parallelDegree,
		Partitions:     make([][2]int, parallelDegree),
	}
	var (
		size  = maxIndex / parallelDegree
		extra = maxIndex % parallelDegree
		min   int
	)
	for n := range pm.Partitions {
		max := min + size
		if n < extra {
			max++
		}
		pm.Partitions[n] = [2]int{min, max}
		min = max
	}
	return
}

// DefaultParallelDegree caps the worker count by the number of items to split
func DefaultParallelDegree(procLimit, maxIndex int) (np int) {
	np = procLimit
	if np <= 0 {
		np = runtime.NumCPU()
	}
	if np > maxIndex {
		np = maxIndex
	}
	if np < 1 {
		np = 1
	}
	return
}

// ParallelFor runs fn on every non-empty partition in its own goroutine and waits for all
func (pm *PartitionMap) ParallelFor(fn func(bucket, min, max int)) {
	var wg sync.WaitGroup
	for np, rng := range pm.Partitions {
		if rng[1] <= rng[0] {
			continue
		}
		wg.Add(1)
		go func(np, min, max int) {
			defer wg.Done()
			fn(np, min, max)
		}(np, rng[0], rng[1])
	}
	wg.Wait()
}
