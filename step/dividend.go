package step

import (
	"railway/game"
	"railway/round"
)

// DividendHooks lets a title change how a dividend moves the share price.
type DividendHooks struct {
	Moves func(ctx *round.Context, corp *game.Corporation, kind game.DividendKind, revenue, paid int) []game.Move
}

// Dividend pays out or withholds the revenue just run.
type Dividend struct {
	base
	hooks DividendHooks
}

// NewDividend creates and returns a new Dividend instance.
func NewDividend(hooks DividendHooks) *Dividend {
	return &Dividend{base: base{name: "dividend"}, hooks: hooks}
}

func (d *Dividend) Actions(ctx *round.Context, entity string) []game.ActionKind {
	corp, ok := operator(ctx, entity)
	if !ok || ctx.Round.DividendPaid {
		return nil
	}
	if !ctx.Round.RoutesRun && len(corp.Trains) > 0 {
		return nil
	}
	return []game.ActionKind{game.PayDividend}
}

// Kinds lists the dividend choices open to the corporation.
func (d *Dividend) Kinds(ctx *round.Context) []game.DividendKind {
	if ctx.Round.Revenue <= 0 {
		return []game.DividendKind{game.Withhold}
	}
	kinds := []game.DividendKind{game.Payout, game.Withhold}
	if ctx.Rules().HalfDividend {
		kinds = append(kinds, game.Half)
	}
	return kinds
}

// split divides revenue into the part paid to shareholders and the part kept.
func split(kind game.DividendKind, revenue, shares int) (paid, kept int) {
	switch kind {
	case game.Payout:
		return revenue, 0
	case game.Half:
		paid = (revenue / 2 / shares) * shares
		return paid, revenue - paid
	default:
		return 0, revenue
	}
}

func (d *Dividend) Process(ctx *round.Context, a game.Action) error {
	corp, err := actor(ctx, a, game.PayDividend)
	if err != nil {
		return err
	}
	legal := false
	for _, k := range d.Kinds(ctx) {
		if k == a.Dividend {
			legal = true
		}
	}
	if !legal {
		return game.Violation(game.CodeIllegalDividend, "%s cannot %s %s", corp.ID, a.Dividend, ctx.Rules().Format(ctx.Round.Revenue))
	}

	revenue := ctx.Round.Revenue
	paid, kept := split(a.Dividend, revenue, corp.TotalShares)
	perShare := paid / corp.TotalShares
	kept += paid - perShare*corp.TotalShares

	for _, holder := range corp.Shareholders() {
		if err := ctx.Game.Transfer(game.BankID, holder, perShare*corp.Holders[holder]); err != nil {
			return err
		}
	}
	if ctx.Rules().TreasuryPays {
		kept += perShare * corp.Treasury
	}
	if ctx.Rules().PoolPays {
		kept += perShare * corp.Pool
	}
	if err := ctx.Game.Transfer(game.BankID, corp.ID, kept); err != nil {
		return err
	}

	price := ctx.Game.Market.Price(corp.ID)
	var moves []game.Move
	if d.hooks.Moves != nil {
		moves = d.hooks.Moves(ctx, corp, a.Dividend, revenue, paid)
	} else {
		moves = game.DividendMoves(paid, price)
	}
	events, err := ctx.Game.MoveShare(corp.ID, moves...)
	if err != nil {
		return err
	}

	ctx.Round.DividendPaid = true
	ctx.Log.Info().Msgf("%s %s %s, %s per share", corp.ID, a.Dividend, ctx.Rules().Format(revenue), ctx.Rules().Format(perShare))
	ctx.Emit(game.Event{Type: "dividend", Entity: corp.ID, Data: map[string]any{
		"kind": string(a.Dividend), "revenue": revenue, "per_share": perShare,
	}})
	ctx.Emit(events...)
	return nil
}

// TwoTierMoves is the classic chart: withholding drops one, paying at
// least the share price rises one.
func TwoTierMoves(ctx *round.Context, corp *game.Corporation, _ game.DividendKind, _, paid int) []game.Move {
	if paid <= 0 {
		return []game.Move{{Dir: game.Left, N: 1}}
	}
	if paid >= ctx.Game.Market.Price(corp.ID) {
		return []game.Move{{Dir: game.Right, N: 1}}
	}
	return nil
}
