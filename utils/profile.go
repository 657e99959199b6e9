package utils

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

type profileEntry struct {
	Count int
	Total time.Duration
}

/*
Profile accumulates call counts and wall time per named event. A nil *Profile is valid and
records nothing, so callers never need to check for one.
*/
type Profile struct {
	mu      sync.Mutex
	entries map[string]*profileEntry
}

func NewProfile() *Profile {
	return &Profile{entries: make(map[string]*profileEntry)}
}

// Start returns the function that closes the event, used as defer prof.Start("name")()
func (pf *Profile) Start(name string) (end func()) {
	if pf == nil {
		return func() {}
	}
	t0 := time.Now()
	return func() {
		dt := time.Since(t0)
		pf.mu.Lock()
		defer pf.mu.Unlock()
		e, ok := pf.entries[name]
		if !ok {
			e = &profileEntry{}
			pf.entries[name] = e
		}
		e.Count++
		e.Total += dt
	}
}

func (pf *Profile) Count(name string) int {
	if pf == nil {
		return 0
	}
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if e, ok := pf.entries[name]; ok {
		return e.Count
	}
	return 0
}

func (pf *Profile) Report(w io.Writer) {
	if pf == nil {
		return
	}
	pf.mu.Lock()
	defer pf.mu.Unlock()
	names := make([]string, 0, len(pf.entries))
	for name := range pf.entries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return pf.entries[names[i]].Total > pf.entries[names[j]].Total
	})
	fmt.Fprintf(w, "%-40s %10s %14s\n", "Event", "Calls", "Time")
	for _, name := range names {
		e := pf.entries[name]
		fmt.Fprintf(w, "%-40s %10d %14s\n", name, e.Count, e.Total)
	}
}
