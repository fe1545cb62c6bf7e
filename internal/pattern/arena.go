package pattern

// The catalogue stores centroid vectors in a single flat arena with
// fixed-capacity slots, so nearest-match scans walk contiguous memory and the
// slot count never exceeds the configured ceiling, not even transiently.

type entry struct {
	length      int
	members     int
	confidence  float64
	quality     float64
	predictive  float64
	predSamples int
	inUse       bool
}

type arena struct {
	slotCap int
	data    []float64
	entries []entry
}

func newArena(maxPatterns, maxLength int) *arena {
	return &arena{
		slotCap: maxLength,
		data:    make([]float64, maxPatterns*maxLength),
		entries: make([]entry, maxPatterns),
	}
}

// centroid returns the live centroid vector of slot i
func (a *arena) centroid(i int) []float64 {
	start := i * a.slotCap
	return a.data[start : start+a.entries[i].length]
}

// used counts occupied slots
func (a *arena) used() int {
	n := 0
	for i := range a.entries {
		if a.entries[i].inUse {
			n++
		}
	}
	return n
}

// place writes a new centroid into slot i
func (a *arena) place(i int, centroid []float64) {
	copy(a.data[i*a.slotCap:], centroid)
	a.entries[i] = entry{length: len(centroid), members: 1, inUse: true}
}

// recordPredictive folds one forward-window correlation into slot i's running
// average. Observations without a forward window never dilute it.
func (a *arena) recordPredictive(i int, predictive float64) {
	e := &a.entries[i]
	n := float64(e.predSamples)
	e.predictive = (e.predictive*n + predictive) / (n + 1)
	e.predSamples++
}

// freeSlot returns the index of an unoccupied slot, or -1 when full
func (a *arena) freeSlot() int {
	for i := range a.entries {
		if !a.entries[i].inUse {
			return i
		}
	}
	return -1
}

// evictable returns the lowest-priority occupied slot: unconfirmed candidates
// (a single member, no recurrence yet) are evicted before promoted patterns,
// and among equals the lowest quality goes first. Returns -1 when the arena
// is empty.
func (a *arena) evictable() int {
	best := -1
	for i := range a.entries {
		if !a.entries[i].inUse {
			continue
		}
		if best == -1 || a.lowerPriority(i, best) {
			best = i
		}
	}
	return best
}

func (a *arena) lowerPriority(i, j int) bool {
	ci, cj := a.entries[i].members < 2, a.entries[j].members < 2
	if ci != cj {
		return ci
	}
	return a.entries[i].quality < a.entries[j].quality
}
