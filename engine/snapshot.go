package engine

import (
	"encoding/json"

	"railway/game"
	"railway/round"

	"github.com/rs/zerolog/log"
)

// Snapshot is everything needed to resume a game where it stopped.
type Snapshot struct {
	GameID string          `json:"game_id"`
	Title  string          `json:"title"`
	Seq    int             `json:"seq"`
	Hash   game.StateHash  `json:"hash"`
	Game   *game.GameState `json:"game"`
	Round  *round.State    `json:"round"`
}

// Snapshot captures the committed state. Undo history is not included.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		GameID: e.id,
		Title:  e.variant.ID(),
		Seq:    e.seq,
		Hash:   e.game.Hash(),
		Game:   e.game.Copy(),
		Round:  e.round.Copy(),
	}
}

func (s Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

func UnmarshalSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return Snapshot{}, &game.Error{Kind: game.ConfigurationError, Code: game.CodeBadConfig, Message: "snapshot", Cause: err}
	}
	if s.Game == nil || s.Round == nil || s.Game.Rules == nil {
		return Snapshot{}, game.Misconfigured("snapshot %s is incomplete", s.GameID)
	}
	return s, nil
}

// Resume rebuilds an engine from a snapshot taken from a game of v.
func Resume(v Variant, s Snapshot, opts ...Option) (*Engine, error) {
	if s.Title != v.ID() {
		return nil, game.Misconfigured("snapshot is a %s game, not %s", s.Title, v.ID())
	}
	if got := s.Game.Hash(); got != s.Hash {
		return nil, game.Broken("snapshot hash %x does not match state %x", s.Hash, got)
	}
	e, err := build(v, s.Game, append([]Option{WithID(s.GameID)}, opts...))
	if err != nil {
		return nil, err
	}
	e.game, e.round, e.seq = s.Game.Copy(), s.Round.Copy(), s.Seq
	log.Info().Msgf("game %s resumed at entry %d", e.id, e.seq)
	return e, nil
}
