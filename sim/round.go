package sim

import (
	"github.com/pthm-cable/hillclimb/organism"
	"github.com/pthm-cable/hillclimb/reproduction"
)

// RoundResult reports what happened in one round.
type RoundResult struct {
	Round         int   // round number after the increment
	Births        int   // offspring added this round
	Deaths        int   // organisms removed this round
	PendingDeaths int   // organisms marked for death after aging
	Population    int   // live organisms at round end
	RegionBirths  []int // births per region index
}

// RunRound advances the run by one round:
//
//  1. age every organism
//  2. mark those at the maximum life span
//  3. per region, in index order, select parents and reproduce
//  4. append every offspring
//  5. remove marked organisms
//  6. increment the round counter
//
// It returns ErrTerminated once the terminal event has been recorded.
func (s *Simulation) RunRound() (RoundResult, error) {
	if s.terminal != nil {
		return RoundResult{}, ErrTerminated
	}

	s.pop.Age()
	pending := s.pop.MarkDeaths(s.cfg.Population.MaxLifeSpan)

	offspring, perRegion := s.reproduce()
	for _, o := range offspring {
		s.pop.Add(o)
	}

	deaths := s.pop.RemoveMarked()
	s.round++

	res := RoundResult{
		Round:         s.round,
		Births:        len(offspring),
		Deaths:        deaths,
		PendingDeaths: pending,
		Population:    s.pop.Len(),
		RegionBirths:  perRegion,
	}
	s.logger.Debug("round complete",
		"round", res.Round,
		"births", res.Births,
		"deaths", res.Deaths,
		"population", res.Population,
	)
	return res, nil
}

// reproduce runs selection and breeding in every region that is below its
// carrying capacity. Organisms marked for death count toward occupancy of a
// region but not toward its living total, and may still be parents.
func (s *Simulation) reproduce() ([]organism.Organism, []int) {
	buckets := s.bucket()
	perRegion := make([]int, s.regions.Len())
	var offspring []organism.Organism

	for i, members := range buckets {
		capacity := s.regions.Region(i).CarryingCapacity

		living := 0
		for _, o := range members {
			if !o.MarkedForDeath {
				living++
			}
		}
		if living >= capacity || len(members) == 0 {
			continue
		}

		parents := reproduction.Select(members, s.field, s.rand, capacity-living)
		if len(parents) == 0 {
			continue
		}
		kids := s.strategy.Reproduce(s.repro, parents)
		perRegion[i] = len(kids)
		offspring = append(offspring, kids...)
	}
	return offspring, perRegion
}

// bucket groups organisms by containing region, keeping population order.
func (s *Simulation) bucket() [][]*organism.Organism {
	buckets := make([][]*organism.Organism, s.regions.Len())
	for _, o := range s.pop.Live() {
		idx := s.regions.IndexAt(o.Position.X, o.Position.Y)
		if idx < 0 {
			continue
		}
		buckets[idx] = append(buckets[idx], o)
	}
	return buckets
}

// CheckTerminal looks for an organism inside the highest region. The first
// one found, in population order, latches the terminal event; later calls
// return the same event. Callers check after each round.
func (s *Simulation) CheckTerminal() (TerminalEvent, bool) {
	if s.terminal != nil {
		return *s.terminal, true
	}

	hi := s.regions.Highest()
	for _, o := range s.pop.Live() {
		if !hi.Bounds.Contains(o.Position.X, o.Position.Y) {
			continue
		}
		ev := TerminalEvent{
			OrganismID:  o.ID,
			Position:    o.Position,
			RegionIndex: hi.Index,
			Round:       s.round,
		}
		s.terminal = &ev
		s.logger.Info("terminal event",
			"round", ev.Round,
			"organism", ev.OrganismID,
			"position", ev.Position.String(),
			"region", ev.RegionIndex,
		)
		return ev, true
	}
	return TerminalEvent{}, false
}
