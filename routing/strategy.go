package routing

import (
	"github.com/Blackmvmba88/blackmamba-cognitive-core/handler"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/registry"
)

// Score explains how a candidate was ranked.
type Score struct {
	// Name is the candidate handler name.
	Name string

	// Value is the final score in [0, 1].
	Value float64

	// Priority is the handler's registered priority.
	Priority int

	// Health is the handler's cached health at scoring time.
	Health handler.Health

	// PriorityBonus is the contribution of the priority term.
	PriorityBonus float64

	// HealthPenalty is the deduction applied for the health status.
	HealthPenalty float64
}

// Strategy ranks routing candidates. Candidates reaching a Strategy have
// already passed CanHandle; the strategy only has to weigh priority and
// health.
type Strategy interface {
	// Score ranks one candidate. maxPriority is the highest priority
	// among the candidates of the current decision; zero when all
	// candidate priorities are zero.
	Score(reg registry.Registration, maxPriority int) Score
}

// DefaultStrategy is the standard scoring formula:
//
//	score = 0.5 (capability match)
//	      + 0.3 * priority/maxPriority
//	      - health penalty
//
// The health penalty is 0 for healthy, 0.05 for unknown, 0.1 for degraded
// and 0.2 for unhealthy. The result is clamped to [0, 1].
type DefaultStrategy struct{}

const (
	baseScore      = 0.5
	priorityWeight = 0.3
)

// Score ranks one candidate with the default formula.
func (DefaultStrategy) Score(reg registry.Registration, maxPriority int) Score {
	var bonus float64
	if maxPriority > 0 {
		bonus = priorityWeight * float64(reg.Priority) / float64(maxPriority)
	}

	penalty := healthPenalty(reg.Health)

	value := baseScore + bonus - penalty
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}

	return Score{
		Name:          reg.Name,
		Value:         value,
		Priority:      reg.Priority,
		Health:        reg.Health,
		PriorityBonus: bonus,
		HealthPenalty: penalty,
	}
}

func healthPenalty(h handler.Health) float64 {
	switch h {
	case handler.HealthHealthy:
		return 0
	case handler.HealthDegraded:
		return 0.1
	case handler.HealthUnhealthy:
		return 0.2
	default:
		return 0.05
	}
}
