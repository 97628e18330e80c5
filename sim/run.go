package sim

import (
	"context"

	"github.com/pthm-cable/hillclimb/config"
)

// Summary describes a finished call to Run.
type Summary struct {
	Rounds     int            // rounds completed by the run overall
	Population int            // live organisms at the end
	Terminal   *TerminalEvent // nil if the run stopped for another reason
	Extinct    bool           // the population died out
}

// Observer is called after every round, before the terminal check.
type Observer func(RoundResult)

// Run advances rounds until the terminal event, extinction, maxRounds more
// rounds (0 = no limit), or ctx is done. Cancellation is only noticed between
// rounds; a round is never interrupted.
func (s *Simulation) Run(ctx context.Context, maxRounds int, observe Observer) (Summary, error) {
	for done := 0; maxRounds <= 0 || done < maxRounds; done++ {
		if err := ctx.Err(); err != nil {
			return s.summary(), err
		}

		res, err := s.RunRound()
		if err != nil {
			return s.summary(), err
		}
		if observe != nil {
			observe(res)
		}
		if _, ok := s.CheckTerminal(); ok {
			break
		}
		if s.pop.Len() == 0 {
			s.logger.Info("population extinct", "round", s.round)
			break
		}
	}
	return s.summary(), nil
}

func (s *Simulation) summary() Summary {
	sum := Summary{Rounds: s.round, Population: s.pop.Len(), Extinct: s.pop.Len() == 0}
	if ev, ok := s.Terminal(); ok {
		sum.Terminal = &ev
	}
	return sum
}

// Trial builds a simulation from cfg, spawns the starting cohort, and runs it.
func Trial(ctx context.Context, cfg *config.Config, maxRounds int, opts Options) (Summary, error) {
	s, err := NewWithOptions(cfg, opts)
	if err != nil {
		return Summary{}, err
	}
	if err := s.Initialize(); err != nil {
		return Summary{}, err
	}
	return s.Run(ctx, maxRounds, nil)
}
