// Package step holds the rule handlers an operating round chains together.
// Each handler exposes hook tables so titles can change legality, cost and
// movement without subclassing.
package step

import (
	"railway/game"
	"railway/round"
)

// operator returns entity's corporation when entity is the one operating and
// still in the game.
func operator(ctx *round.Context, entity string) (*game.Corporation, bool) {
	if entity == "" || entity != ctx.Round.Current() {
		return nil, false
	}
	corp, err := ctx.Game.Corporation(entity)
	if err != nil || !corp.Operates() {
		return nil, false
	}
	return corp, true
}

// actor validates that a is from the operating corporation and of one of
// the given kinds.
func actor(ctx *round.Context, a game.Action, kinds ...game.ActionKind) (*game.Corporation, error) {
	ok := false
	for _, k := range kinds {
		if a.Kind == k {
			ok = true
		}
	}
	if !ok {
		return nil, game.Violation(game.CodeUnhandledAction, "unhandled action %s", a.Kind)
	}
	corp, operating := operator(ctx, a.Entity)
	if !operating {
		return nil, game.Violation(game.CodeNotYourTurn, "%s is not operating", a.Entity)
	}
	return corp, nil
}

// pay moves cost from corp to the bank.
func pay(ctx *round.Context, corp *game.Corporation, cost int) error {
	if cost <= 0 {
		return nil
	}
	return ctx.Game.Transfer(corp.ID, game.BankID, cost)
}

// base carries the name every step reports.
type base struct {
	name string
}

func (b base) Name() string {
	return b.name
}

func (b base) Setup(*round.Context) {}
