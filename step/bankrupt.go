package step

import (
	"railway/game"
	"railway/round"
)

// Bankrupt lets a corporation give up when it must buy a train and nothing
// its president can raise would pay for one.
type Bankrupt struct {
	base
}

// NewBankrupt creates and returns a new Bankrupt instance.
func NewBankrupt() *Bankrupt {
	return &Bankrupt{base: base{name: "bankrupt"}}
}

// Insolvent reports whether corp is stuck: it has run and paid, must buy a
// train and cannot reach the price of the cheapest one.
func Insolvent(ctx *round.Context, corp *game.Corporation) bool {
	if !ctx.Round.DividendPaid || !mustBuy(ctx, corp) {
		return false
	}
	return raisable(ctx, corp) < ctx.Game.Depot.MinPrice()
}

// Anytime keeps bankruptcy open after the turn has moved past the step.
func (b *Bankrupt) Anytime() bool { return true }

func (b *Bankrupt) Actions(ctx *round.Context, entity string) []game.ActionKind {
	corp, ok := operator(ctx, entity)
	if !ok || !Insolvent(ctx, corp) {
		return nil
	}
	return []game.ActionKind{game.DeclareBankrupt}
}

func (b *Bankrupt) Process(ctx *round.Context, a game.Action) error {
	corp, err := actor(ctx, a, game.DeclareBankrupt)
	if err != nil {
		return err
	}
	if !Insolvent(ctx, corp) {
		return game.Violation(game.CodeUnhandledAction, "%s can still raise money for a train", corp.ID)
	}
	president, err := ctx.Game.Player(corp.President)
	if err != nil {
		return err
	}

	// Everything the president has goes to the corporation, then to the bank.
	if err := ctx.Game.Transfer(president.ID, corp.ID, president.Cash); err != nil {
		return err
	}
	if err := ctx.Game.Transfer(corp.ID, game.BankID, corp.Cash); err != nil {
		return err
	}
	for _, h := range ctx.Game.Map.Hexes {
		if h.Tile == nil {
			continue
		}
		for _, c := range h.Tile.Cities {
			kept := c.Tokens[:0]
			for _, t := range c.Tokens {
				if t != corp.ID {
					kept = append(kept, t)
				}
			}
			c.Tokens = kept
		}
	}
	for _, t := range corp.Trains {
		ctx.Game.Depot.Discard(t)
	}
	corp.Trains = nil
	corp.Closed = true
	president.Bankrupt = true

	ctx.Log.Info().Msgf("%s goes bankrupt and %s closes", president.ID, corp.ID)
	ctx.Emit(game.Event{Type: "bankrupt", Entity: president.ID, Data: map[string]any{"corporation": corp.ID}})
	ctx.Emit(game.Event{Type: "corporation_closed", Entity: corp.ID})

	switch ctx.Rules().BankruptcyEndsGame {
	case game.BankruptcyOne:
		ctx.Game.TriggerEnd(game.EndBankrupt)
	case game.BankruptcyAllButOne:
		if ctx.Game.Solvent() <= 1 {
			ctx.Game.TriggerEnd(game.EndBankrupt)
		}
	}
	return nil
}
