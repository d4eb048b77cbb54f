package round

import (
	"railway/game"

	"golang.org/x/exp/slices"
)

// State is the operating round's mutable state. The turn counters are the
// only way steps pass information to each other; they are zeroed at round
// start and again when the next entity begins its turn.
type State struct {
	Set      int      `json:"set"`    // operating round set, from 1
	Number   int      `json:"number"` // operating round within the set, from 1
	Total    int      `json:"total"`  // operating rounds in this set
	Order    []string `json:"order"`
	Index    int      `json:"index"`
	Finished bool     `json:"finished,omitempty"`
	// Operated counts entities that took a turn this round.
	Operated int `json:"operated"`

	NumLaidTrack     int          `json:"num_laid_track"`
	NumUpgradedTrack int          `json:"num_upgraded_track"`
	LaidHexes        []string     `json:"laid_hexes,omitempty"`
	Tokened          bool         `json:"tokened,omitempty"`
	Routes           []game.Route `json:"routes,omitempty"`
	Revenue          int          `json:"revenue,omitempty"`
	RoutesRun        bool         `json:"routes_run,omitempty"`
	DividendPaid     bool         `json:"dividend_paid,omitempty"`
	ShareActed       bool         `json:"share_acted,omitempty"`
	EmergencyIssued  bool         `json:"emergency_issued,omitempty"`
	EmergencySold    bool         `json:"emergency_sold,omitempty"`
	BoughtTrain      bool         `json:"bought_train,omitempty"`
	CompaniesBought  int          `json:"companies_bought,omitempty"`
	// Passed marks chain entries, by index, passed this turn.
	Passed map[int]bool `json:"passed,omitempty"`
	// Cursor is the furthest blocking chain entry that acted or passed this
	// turn. Blocking entries before it are closed.
	Cursor int `json:"cursor,omitempty"`
}

// NewState creates and returns a new State instance.
func NewState() *State {
	return &State{Passed: make(map[int]bool)}
}

// Current returns the operating entity, or "" between rounds.
func (s *State) Current() string {
	if s.Finished || s.Index < 0 || s.Index >= len(s.Order) {
		return ""
	}
	return s.Order[s.Index]
}

// ResetTurn zeroes the per-turn counters.
func (s *State) ResetTurn() {
	s.NumLaidTrack = 0
	s.NumUpgradedTrack = 0
	s.LaidHexes = nil
	s.Tokened = false
	s.Routes = nil
	s.Revenue = 0
	s.RoutesRun = false
	s.DividendPaid = false
	s.ShareActed = false
	s.EmergencyIssued = false
	s.EmergencySold = false
	s.BoughtTrain = false
	s.CompaniesBought = 0
	s.Passed = make(map[int]bool)
	s.Cursor = 0
}

// Laid reports whether track was already laid on hex this turn.
func (s *State) Laid(hex string) bool {
	return slices.Contains(s.LaidHexes, hex)
}

func (s *State) Copy() *State {
	cp := *s
	cp.Order = slices.Clone(s.Order)
	cp.LaidHexes = slices.Clone(s.LaidHexes)
	cp.Routes = make([]game.Route, len(s.Routes))
	for i, r := range s.Routes {
		cp.Routes[i] = game.Route{Train: r.Train, Hexes: slices.Clone(r.Hexes)}
	}
	cp.Passed = make(map[int]bool, len(s.Passed))
	for k, v := range s.Passed {
		cp.Passed[k] = v
	}
	return &cp
}
