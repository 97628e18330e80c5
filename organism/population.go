package organism

// Population is the ordered set of live organisms. Order is insertion order
// and is preserved by removals; strategy pairing depends on it.
type Population struct {
	orgs   []*Organism
	nextID uint64
}

// NewPopulation creates an empty population.
func NewPopulation() *Population {
	return &Population{nextID: 1}
}

// Add appends o, assigning it the next ID. The stored organism is returned.
func (p *Population) Add(o Organism) *Organism {
	o.ID = p.nextID
	p.nextID++
	stored := &o
	p.orgs = append(p.orgs, stored)
	return stored
}

// Live returns the live slice itself, in order. Callers inside the engine may
// mutate organisms through it but must not retain it across rounds.
func (p *Population) Live() []*Organism { return p.orgs }

// Len returns the number of organisms, including those marked for death.
func (p *Population) Len() int { return len(p.orgs) }

// Age increments RoundsLived of every organism, marked or not.
func (p *Population) Age() {
	for _, o := range p.orgs {
		o.RoundsLived++
	}
}

// MarkDeaths marks every organism that has reached maxLifeSpan and returns
// the number of organisms pending removal.
func (p *Population) MarkDeaths(maxLifeSpan int) int {
	for _, o := range p.orgs {
		if o.RoundsLived >= maxLifeSpan {
			o.MarkedForDeath = true
		}
	}
	return p.PendingDeaths()
}

// MarkForDeath marks the organism with the given ID. It reports whether the
// organism was found.
func (p *Population) MarkForDeath(id uint64) bool {
	for _, o := range p.orgs {
		if o.ID == id {
			o.MarkedForDeath = true
			return true
		}
	}
	return false
}

// PendingDeaths counts organisms marked for death.
func (p *Population) PendingDeaths() int {
	n := 0
	for _, o := range p.orgs {
		if o.MarkedForDeath {
			n++
		}
	}
	return n
}

// RemoveMarked drops every marked organism, keeping the order of the rest,
// and returns how many were removed.
func (p *Population) RemoveMarked() int {
	kept := p.orgs[:0]
	for _, o := range p.orgs {
		if !o.MarkedForDeath {
			kept = append(kept, o)
		}
	}
	removed := len(p.orgs) - len(kept)
	for i := len(kept); i < len(p.orgs); i++ {
		p.orgs[i] = nil
	}
	p.orgs = kept
	return removed
}

// Snapshot returns a copy of every organism. Payloads are values, so the
// copy shares no state with the population.
func (p *Population) Snapshot() []Organism {
	out := make([]Organism, len(p.orgs))
	for i, o := range p.orgs {
		out[i] = *o
	}
	return out
}

// Reset removes every organism and restarts ID assignment.
func (p *Population) Reset() {
	p.orgs = nil
	p.nextID = 1
}
