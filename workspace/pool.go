package workspace

import (
	"fmt"

	"github.com/notargets/govesicle/field"
)

/*
Pool recycles scratch fields. Every checkout returns a Lease that must be released exactly
once, normally with defer. Checked out fields are always shaped like the reference field,
even when the pooled buffer was allocated for an older size.

A Pool is not safe for concurrent use.
*/
type Pool struct {
	ref            func() *field.Field
	scaQ, vecQ     []*field.Field
	outSca, outVec int
}

type Lease struct {
	F        *field.Field
	pool     *Pool
	released bool
}

// NewPool takes the function returning the field whose order and vesicle count checkouts match
func NewPool(ref func() *field.Field) *Pool {
	return &Pool{ref: ref}
}

func (wp *Pool) Sca() *Lease { return wp.checkout(1) }
func (wp *Pool) Vec() *Lease { return wp.checkout(3) }

func (wp *Pool) checkout(nComps int) (l *Lease) {
	var (
		q   = &wp.vecQ
		f   *field.Field
		ref = wp.ref()
	)
	if nComps == 1 {
		q = &wp.scaQ
		wp.outSca++
	} else {
		wp.outVec++
	}
	if len(*q) > 0 {
		f = (*q)[0]
		(*q)[0] = nil
		*q = (*q)[1:]
		f.Replicate(ref)
	} else {
		f = field.New(ref.ShOrder, ref.NumSubs, nComps)
	}
	return &Lease{F: f, pool: wp}
}

func (l *Lease) Release() {
	if l.released {
		panic(fmt.Errorf("workspace lease released twice: %s", l.F))
	}
	l.released = true
	wp := l.pool
	if l.F.NumComps == 1 {
		wp.outSca--
		wp.scaQ = append(wp.scaQ, l.F)
	} else {
		wp.outVec--
		wp.vecQ = append(wp.vecQ, l.F)
	}
}

func (wp *Pool) Outstanding() (sca, vec int) { return wp.outSca, wp.outVec }

// Size is the number of buffers waiting in the queues
func (wp *Pool) Size() (sca, vec int) { return len(wp.scaQ), len(wp.vecQ) }

func (wp *Pool) Purge() {
	wp.scaQ, wp.vecQ = nil, nil
}

// Close panics when a checkout was never released
func (wp *Pool) Close() {
	if wp.outSca != 0 || wp.outVec != 0 {
		panic(fmt.Errorf("workspace leak: %d scalar and %d vector fields outstanding",
			wp.outSca, wp.outVec))
	}
	wp.Purge()
}
