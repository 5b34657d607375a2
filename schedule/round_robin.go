package schedule

import (
	"fmt"
	"sort"

	"github.com/Dosada05/snake-arena/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobin() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// Generate schedules every unordered pair of participants exactly once:
// n*(n-1)/2 pairings for n participants. Pair order is lexicographic over
// seat (registration) order and the earlier-registered participant takes
// red, so re-running against the same participant list yields the same
// sequence of matches.
func (g *RoundRobinGenerator) Generate(participants []*models.Participant) ([]Pairing, error) {
	if len(participants) < 2 {
		return nil, fmt.Errorf("round robin: not enough participants (found %d, min 2 required)", len(participants))
	}

	ordered := make([]*models.Participant, len(participants))
	copy(ordered, participants)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Seat < ordered[j].Seat
	})

	pairings := make([]Pairing, 0, len(ordered)*(len(ordered)-1)/2)
	order := 0
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			pairings = append(pairings, Pairing{
				Order: order,
				Red:   ordered[i],
				Blue:  ordered[j],
			})
			order++
		}
	}
	return pairings, nil
}
