package step

import (
	"railway/game"
	"railway/round"
)

// RegionGate keeps nationals inside their home region and other
// corporations out of regions they hold no operating rights in.
func RegionGate(_ *round.Context, corp *game.Corporation, hex *game.Hex) error {
	if corp.Kind == game.National && corp.Region != "" && hex.Region != corp.Region {
		return game.Violation(game.CodeOutsideRegion, "cannot lay or upgrade tiles outside the %s region", corp.Region).
			With("hex", hex.ID)
	}
	if corp.Kind != game.National && !corp.HoldsRights(hex.Region) {
		return game.Violation(game.CodeNoOperatingRight, "%s has no operating rights in %s", corp.ID, hex.Region).
			With("hex", hex.ID)
	}
	return nil
}

// LoanBuyingPower is cash plus whatever the corporation could still borrow.
func LoanBuyingPower(ctx *round.Context, corp *game.Corporation) int {
	return corp.Cash + corp.LoanCapacity()*ctx.Rules().LoanValue
}

// TakeLoans borrows from the bank until the corporation holds amount.
func TakeLoans(ctx *round.Context, corp *game.Corporation, amount int) error {
	value := ctx.Rules().LoanValue
	for corp.Cash < amount {
		if corp.LoanCapacity() == 0 || value <= 0 {
			return game.Violation(game.CodeInsufficientCash, "%s cannot borrow enough for %s", corp.ID, ctx.Rules().Format(amount))
		}
		if err := ctx.Game.Transfer(game.BankID, corp.ID, value); err != nil {
			return err
		}
		corp.Loans++
		ctx.Log.Info().Msgf("%s takes a loan and receives %s", corp.ID, ctx.Rules().Format(value))
		ctx.Emit(game.Event{Type: "loan_taken", Entity: corp.ID, Data: map[string]any{"amount": value, "loans": corp.Loans}})
	}
	return nil
}

// UpgradesPerPhase caps upgrades per turn by phase. Nationals are exempt.
func UpgradesPerPhase(ctx *round.Context, corp *game.Corporation) bool {
	if corp.Kind == game.National {
		return true
	}
	limit, ok := ctx.Rules().UpgradesPerPhase[ctx.Game.Phase().Name]
	if !ok {
		return true
	}
	return ctx.Round.NumUpgradedTrack < limit
}
