package step

import (
	"railway/game"
	"railway/round"
)

// BuyCompanyHooks lets a title set the price range of a company purchase.
type BuyCompanyHooks struct {
	Range func(co *game.Company) (lo, hi int)
}

// BuyCompany lets the operating corporation buy a private company from a
// player once the phase allows it.
type BuyCompany struct {
	base
	hooks BuyCompanyHooks
}

// NewBuyCompany creates and returns a new BuyCompany instance.
func NewBuyCompany(hooks BuyCompanyHooks) *BuyCompany {
	return &BuyCompany{base: base{name: "buy_company"}, hooks: hooks}
}

// FaceRange allows any price from 1 up to face value.
func FaceRange(co *game.Company) (int, int) {
	return 1, co.Value
}

// Range is the price band for co: half to double face value unless the
// title says otherwise.
func (b *BuyCompany) Range(co *game.Company) (int, int) {
	if b.hooks.Range != nil {
		return b.hooks.Range(co)
	}
	return (co.Value + 1) / 2, co.Value * 2
}

// Companies lists the companies corp could buy now.
func (b *BuyCompany) Companies(ctx *round.Context, corp *game.Corporation) []*game.Company {
	if !ctx.Game.Phase().Has(game.StatusCanBuyCompanies) {
		return nil
	}
	var out []*game.Company
	for _, co := range ctx.Game.Companies {
		if co.Closed {
			continue
		}
		if _, err := ctx.Game.Player(co.Owner); err != nil {
			continue
		}
		if lo, _ := b.Range(co); lo <= corp.Cash {
			out = append(out, co)
		}
	}
	return out
}

func (b *BuyCompany) Actions(ctx *round.Context, entity string) []game.ActionKind {
	corp, ok := operator(ctx, entity)
	if !ok || len(b.Companies(ctx, corp)) == 0 {
		return nil
	}
	return []game.ActionKind{game.BuyCompany, game.Pass}
}

func (b *BuyCompany) Process(ctx *round.Context, a game.Action) error {
	corp, err := actor(ctx, a, game.BuyCompany)
	if err != nil {
		return err
	}
	if !ctx.Game.Phase().Has(game.StatusCanBuyCompanies) {
		return game.Violation(game.CodeIllegalCompany, "companies cannot be bought in phase %s", ctx.Game.Phase().Name)
	}
	co, err := ctx.Game.Company(a.Company)
	if err != nil {
		return err
	}
	if co.Closed {
		return game.Violation(game.CodeIllegalCompany, "%s is closed", co.ID)
	}
	seller, err := ctx.Game.Player(co.Owner)
	if err != nil {
		return game.Violation(game.CodeIllegalCompany, "%s is not owned by a player", co.ID)
	}
	lo, hi := b.Range(co)
	if a.Price < lo || a.Price > hi {
		return game.Violation(game.CodeIllegalCompany, "%s must cost between %s and %s", co.ID, ctx.Rules().Format(lo), ctx.Rules().Format(hi)).
			With("price", ctx.Rules().Format(a.Price))
	}
	if err := ctx.Game.Transfer(corp.ID, seller.ID, a.Price); err != nil {
		return err
	}
	co.Owner = corp.ID
	ctx.Round.CompaniesBought++
	ctx.Log.Info().Msgf("%s buys %s from %s for %s", corp.ID, co.Name, seller.ID, ctx.Rules().Format(a.Price))
	ctx.Emit(game.Event{Type: "company_bought", Entity: corp.ID, Data: map[string]any{
		"company": co.ID, "price": a.Price, "from": seller.ID,
	}})
	return nil
}
