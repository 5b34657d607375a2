package schedule

import (
	"github.com/Dosada05/snake-arena/models"
)

// Pairing is one scheduled match slot: red vs blue, in a fixed order.
type Pairing struct {
	Order int
	Red   *models.Participant
	Blue  *models.Participant
}

// Generator produces the match set for a tournament's participant list.
type Generator interface {
	Generate(participants []*models.Participant) ([]Pairing, error)
	Name() string
}
