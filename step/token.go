package step

import (
	"railway/game"
	"railway/round"
)

// Token places station tokens, one per turn.
type Token struct {
	base
}

// NewToken creates and returns a new Token instance.
func NewToken() *Token {
	return &Token{base: base{name: "token"}}
}

// cost of corp's next token: tokens already on the map, less the home one,
// index the title's price list
func (t *Token) cost(ctx *round.Context, corp *game.Corporation) int {
	placed := len(ctx.Game.Map.TokenHexes(corp.ID))
	return ctx.Rules().TokenCost(max(0, placed-1))
}

// Spots lists hex/city pairs where corp can put a token now.
func (t *Token) Spots(ctx *round.Context, corp *game.Corporation) map[string][]int {
	net := ctx.Game.Map.Network(corp.ID)
	out := make(map[string][]int)
	for _, h := range ctx.Game.Map.Hexes {
		if !net.Reaches(h.ID) || h.Tile == nil || h.Tile.HasToken(corp.ID) {
			continue
		}
		for i, c := range h.Tile.Cities {
			if c.CanToken(corp.ID) {
				out[h.ID] = append(out[h.ID], i)
			}
		}
	}
	return out
}

func (t *Token) Actions(ctx *round.Context, entity string) []game.ActionKind {
	corp, ok := operator(ctx, entity)
	if !ok || ctx.Round.Tokened || corp.Tokens == 0 || corp.Cash < t.cost(ctx, corp) {
		return nil
	}
	if len(t.Spots(ctx, corp)) == 0 {
		return nil
	}
	return []game.ActionKind{game.PlaceToken, game.Pass}
}

func (t *Token) Process(ctx *round.Context, a game.Action) error {
	corp, err := actor(ctx, a, game.PlaceToken)
	if err != nil {
		return err
	}
	if ctx.Round.Tokened {
		return game.Violation(game.CodeIllegalToken, "%s already placed a token this turn", corp.ID)
	}
	if corp.Tokens == 0 {
		return game.Violation(game.CodeIllegalToken, "%s has no tokens left", corp.ID)
	}
	hex, err := ctx.Game.Hex(a.Hex)
	if err != nil {
		return err
	}
	if hex.Tile == nil || a.City < 0 || a.City >= len(hex.Tile.Cities) {
		return game.Violation(game.CodeIllegalToken, "%s has no city %d", hex.ID, a.City)
	}
	if hex.Tile.HasToken(corp.ID) {
		return game.Violation(game.CodeIllegalToken, "%s already has a token on %s", corp.ID, hex.ID)
	}
	city := hex.Tile.Cities[a.City]
	if !city.CanToken(corp.ID) {
		return game.Violation(game.CodeIllegalToken, "no free slot for %s in %s", corp.ID, hex.ID)
	}
	if !ctx.Game.Map.Network(corp.ID).Reaches(hex.ID) {
		return game.Violation(game.CodeIllegalToken, "%s cannot reach %s", corp.ID, hex.ID)
	}
	cost := t.cost(ctx, corp)
	if err := pay(ctx, corp, cost); err != nil {
		return err
	}
	city.Place(corp.ID)
	corp.Tokens--
	ctx.Round.Tokened = true
	ctx.Log.Info().Msgf("%s places a token on %s for %s", corp.ID, hex.ID, ctx.Rules().Format(cost))
	ctx.Emit(game.Event{Type: "token_placed", Entity: corp.ID, Data: map[string]any{"hex": hex.ID, "city": a.City, "cost": cost}})
	return nil
}
