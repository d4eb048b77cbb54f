package round

import (
	"railway/game"
)

// Operating runs operating rounds: corporations take turns in share price
// order and each turn walks the step chain until no blocking step has
// anything left to offer.
type Operating struct {
	Chain *Chain
}

// NewOperating creates and returns a new Operating instance.
func NewOperating(chain *Chain) *Operating {
	return &Operating{Chain: chain}
}

// Begin starts the next operating round, or the first one on a fresh State.
func (o *Operating) Begin(ctx *Context) error {
	gs, rs := ctx.Game, ctx.Round
	if gs.Finished {
		return game.Violation(game.CodeGameOver, "game is over")
	}
	switch {
	case rs.Set == 0:
		rs.Set, rs.Number = 1, 1
		rs.Total = o.roundsInSet(ctx)
	case rs.Number >= rs.Total:
		rs.Set++
		rs.Number = 1
		rs.Total = o.roundsInSet(ctx)
		ctx.Emit(game.Event{Type: "stock_round", Data: map[string]any{"set": rs.Set - 1}})
	default:
		rs.Number++
	}
	rs.Finished = false
	rs.ResetTurn()

	if sets := gs.Rules.ORSets; len(sets) > 0 && rs.Set == len(sets) && rs.Number == rs.Total {
		gs.TriggerEnd(game.EndFixedRounds)
	}
	o.updateLastRound(ctx)

	var ids []string
	for _, c := range gs.Corporations {
		if c.Operates() {
			ids = append(ids, c.ID)
		}
		for _, t := range c.Trains {
			t.Operated = false
		}
	}
	if len(ids) == 0 {
		return game.Violation(game.CodeUnknownEntity, "no corporation has floated")
	}
	rs.Order = gs.Market.OperatingOrder(ids)
	rs.Index = 0
	rs.Operated = 0
	ctx.Log.Info().Msgf("-- Operating Round %d.%d (of %d) --", rs.Set, rs.Number, rs.Total)

	if err := o.payCompanies(ctx); err != nil {
		return err
	}
	return o.startEntity(ctx)
}

func (o *Operating) roundsInSet(ctx *Context) int {
	rs, gs := ctx.Round, ctx.Game
	if sets := gs.Rules.ORSets; len(sets) > 0 {
		if rs.Set <= len(sets) {
			return sets[rs.Set-1]
		}
		return sets[len(sets)-1]
	}
	return max(1, gs.Phase().OperatingRounds)
}

// updateLastRound sets the game's last round flag once a triggered end will
// take effect when the current round finishes.
func (o *Operating) updateLastRound(ctx *Context) {
	end := ctx.Game.End
	if end == nil {
		return
	}
	switch end.Timing {
	case game.EndCurrentOR, game.EndImmediate:
		ctx.Game.LastRound = true
	case game.EndFullOR:
		ctx.Game.LastRound = ctx.Round.Number == ctx.Round.Total
	}
}

func (o *Operating) payCompanies(ctx *Context) error {
	for _, co := range ctx.Game.Companies {
		if co.Closed || co.Owner == "" || co.Revenue == 0 {
			continue
		}
		if err := ctx.Game.Transfer(game.BankID, co.Owner, co.Revenue); err != nil {
			return err
		}
		ctx.Emit(game.Event{Type: "company_revenue", Entity: co.Owner, Data: map[string]any{
			"company": co.ID, "amount": co.Revenue,
		}})
	}
	return nil
}

// startEntity begins the turn of the entity at the cursor, skipping those with
// nothing to do.
func (o *Operating) startEntity(ctx *Context) error {
	rs := ctx.Round
	for rs.Index < len(rs.Order) {
		entity := rs.Current()
		rs.ResetTurn()
		if err := o.placeHome(ctx, entity); err != nil {
			return err
		}
		o.Chain.Setup(ctx, entity)
		if o.Chain.Active(ctx, entity) >= 0 {
			rs.Operated++
			ctx.Log.Info().Msgf("%s operates", entity)
			return nil
		}
		ctx.Log.Info().Msgf("%s has no actions and is skipped", entity)
		rs.Index++
	}
	return o.finish(ctx)
}

// placeHome puts a corporation's home token down on its first turn.
func (o *Operating) placeHome(ctx *Context, entity string) error {
	corp, err := ctx.Game.Corporation(entity)
	if err != nil {
		return err
	}
	if corp.HomeLaid || corp.Home == "" {
		return nil
	}
	hex, err := ctx.Game.Hex(corp.Home)
	if err != nil {
		return err
	}
	if hex.Tile == nil || corp.HomeCity >= len(hex.Tile.Cities) {
		return game.Misconfigured("%s home %s has no city %d", corp.ID, hex.ID, corp.HomeCity)
	}
	city := hex.Tile.Cities[corp.HomeCity]
	if !city.CanToken(corp.ID) {
		return game.Broken("%s cannot place its home token in %s", corp.ID, hex.ID)
	}
	if corp.Tokens <= 0 {
		return game.Misconfigured("%s has no tokens", corp.ID)
	}
	city.Place(corp.ID)
	corp.Tokens--
	corp.HomeLaid = true
	ctx.Emit(game.Event{Type: "token_placed", Entity: corp.ID, Data: map[string]any{"hex": hex.ID, "home": true}})
	return nil
}

// finish closes the round and either ends the game or opens the next round.
func (o *Operating) finish(ctx *Context) error {
	gs, rs := ctx.Game, ctx.Round
	rs.Finished = true
	if end := gs.End; end != nil {
		if end.Timing != game.EndFullOR || rs.Number == rs.Total {
			gs.Finished = true
			ctx.Log.Info().Msgf("Game over: %s", end.Reason)
			ctx.Emit(game.Event{Type: "game_over", Data: map[string]any{"reason": end.Reason}})
			return nil
		}
	}
	if rs.Operated == 0 {
		return game.Broken("operating round %d.%d had no turns", rs.Set, rs.Number)
	}
	return o.Begin(ctx)
}

// Entity returns who must act: an interrupting entity first, then the
// operating corporation. Empty when the game is over.
func (o *Operating) Entity(ctx *Context) string {
	if ctx.Game.Finished {
		return ""
	}
	if _, entity := o.Chain.Interrupt(ctx); entity != "" {
		return entity
	}
	return ctx.Round.Current()
}

// Actions lists what entity may do now.
func (o *Operating) Actions(ctx *Context, entity string) []game.ActionKind {
	if entity == "" || entity != o.Entity(ctx) {
		return nil
	}
	if s, who := o.Chain.Interrupt(ctx); who != "" {
		return s.Actions(ctx, who)
	}
	return o.Chain.Actions(ctx, entity)
}

// Process applies one action and advances the turn when it is over.
func (o *Operating) Process(ctx *Context, a game.Action) error {
	if ctx.Game.Finished {
		return game.Violation(game.CodeGameOver, "game is over")
	}
	if want := o.Entity(ctx); a.Entity != want {
		return game.Violation(game.CodeNotYourTurn, "%s cannot act, waiting on %s", a.Entity, want)
	}
	if s, who := o.Chain.Interrupt(ctx); who != "" {
		if err := s.Process(ctx, a); err != nil {
			return err
		}
	} else if err := o.Chain.Process(ctx, a); err != nil {
		return err
	}
	if ctx.Game.Finished {
		return nil
	}
	o.updateLastRound(ctx)
	return o.advance(ctx)
}

func (o *Operating) advance(ctx *Context) error {
	if _, who := o.Chain.Interrupt(ctx); who != "" {
		return nil
	}
	current := ctx.Round.Current()
	if current != "" && o.Chain.Active(ctx, current) >= 0 {
		return nil
	}
	ctx.Round.Index++
	return o.startEntity(ctx)
}
