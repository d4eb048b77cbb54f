package game

import "golang.org/x/exp/slices"

const (
	StatusCanBuyCompanies = "can_buy_companies"
)

// Phase is a game-wide unlock tier. A phase starts when the first train named
// On is bought.
type Phase struct {
	Name            string   `json:"name" yaml:"name"`
	On              string   `json:"on,omitempty" yaml:"on"`
	TrainLimit      int      `json:"train_limit" yaml:"train_limit"`
	Tiles           []Color  `json:"tiles" yaml:"tiles"`
	OperatingRounds int      `json:"operating_rounds,omitempty" yaml:"operating_rounds"`
	Status          []string `json:"status,omitempty" yaml:"status"`
}

func (p *Phase) Allows(c Color) bool {
	return slices.Contains(p.Tiles, c)
}

func (p *Phase) Has(status string) bool {
	return slices.Contains(p.Status, status)
}

// HexTrigger advances the game to phase Phase when every hex listed carries
// a tile of at least Color.
type HexTrigger struct {
	Hexes []string `json:"hexes" yaml:"hexes"`
	Color Color    `json:"color" yaml:"color"`
	Phase string   `json:"phase" yaml:"phase"`
}

func validatePhases(phases []Phase) error {
	if len(phases) == 0 {
		return Misconfigured("no phases")
	}
	names := make(map[string]bool, len(phases))
	for _, p := range phases {
		if names[p.Name] {
			return Misconfigured("phase %s defined twice", p.Name)
		}
		names[p.Name] = true
		if p.TrainLimit <= 0 {
			return Misconfigured("phase %s has no train limit", p.Name)
		}
		if len(p.Tiles) == 0 {
			return Misconfigured("phase %s allows no tiles", p.Name)
		}
	}
	return nil
}
