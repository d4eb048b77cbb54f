package step

import (
	"railway/game"
	"railway/round"
)

// DiscardTrain makes corporations over the train limit give trains back to
// the bank, out of turn if need be.
type DiscardTrain struct {
	base
}

// NewDiscardTrain creates and returns a new DiscardTrain instance.
func NewDiscardTrain() *DiscardTrain {
	return &DiscardTrain{base: base{name: "discard_train"}}
}

// Interrupts returns the first corporation, in operating order, holding more
// trains than the phase allows.
func (d *DiscardTrain) Interrupts(ctx *round.Context) string {
	limit := ctx.Game.Phase().TrainLimit
	for _, id := range ctx.Round.Order {
		corp, err := ctx.Game.Corporation(id)
		if err == nil && corp.Operates() && len(corp.Trains) > limit {
			return corp.ID
		}
	}
	return ""
}

func (d *DiscardTrain) Actions(ctx *round.Context, entity string) []game.ActionKind {
	if entity == "" || d.Interrupts(ctx) != entity {
		return nil
	}
	return []game.ActionKind{game.DiscardTrain}
}

func (d *DiscardTrain) Process(ctx *round.Context, a game.Action) error {
	if a.Kind != game.DiscardTrain {
		return game.Violation(game.CodeUnhandledAction, "%s must discard a train first", a.Entity)
	}
	if d.Interrupts(ctx) != a.Entity {
		return game.Violation(game.CodeIllegalTrain, "%s is not over the train limit", a.Entity)
	}
	corp, err := ctx.Game.Corporation(a.Entity)
	if err != nil {
		return err
	}
	t, ok := corp.RemoveTrain(a.Train)
	if !ok {
		return game.Violation(game.CodeIllegalTrain, "%s does not own train %s", corp.ID, a.Train)
	}
	ctx.Game.Depot.Discard(t)
	ctx.Log.Info().Msgf("%s discards a %s train", corp.ID, t.Name)
	ctx.Emit(game.Event{Type: "train_discarded", Entity: corp.ID, Data: map[string]any{"train": t.ID}})
	return nil
}
