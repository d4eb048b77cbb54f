package round

import (
	"testing"

	"railway/game"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func operatingGame(t *testing.T, sets ...int) *game.GameState {
	t.Helper()
	rules := &game.Rules{
		Title:              "test",
		Capitalization:     game.FullCap,
		TileLays:           []game.TileLay{{Lay: true}},
		SellMovement:       game.SellNone,
		BankruptcyEndsGame: game.BankruptcyOne,
		MarketShareLimit:   5,
		ORSets:             sets,
		GameEnd:            map[string]string{game.EndFixedRounds: game.EndCurrentOR},
	}
	city := func() *game.Tile { return &game.Tile{ID: "city", Cities: []*game.City{{Slots: 1}}} }
	m, err := game.NewMap(
		&game.Hex{ID: "A1", Tile: city()},
		&game.Hex{ID: "B1", Coord: game.Coord{Q: 1}, Tile: city()},
	)
	require.NoError(t, err)
	catalog, err := game.NewCatalog(nil, nil)
	require.NoError(t, err)
	var row []*game.Cell
	for _, s := range []string{"60p", "70p", "80p"} {
		c, err := game.ParseCell(s)
		require.NoError(t, err)
		row = append(row, c)
	}
	market, err := game.NewMarket([][]*game.Cell{row})
	require.NoError(t, err)
	depot, err := game.NewDepot([]game.TrainSpec{{Name: "2", Distance: 2, Price: 80, Num: 2}})
	require.NoError(t, err)
	phases := []game.Phase{{Name: "2", TrainLimit: 4, Tiles: []game.Color{game.Yellow}, OperatingRounds: 2}}
	gs, err := game.NewGameState(rules, m, catalog, market, depot, phases)
	require.NoError(t, err)

	gs.Bank.Cash = 10000
	gs.Players = []*game.Player{{ID: "alice", Cash: 1000}, {ID: "bob", Cash: 1000}}
	gs.Corporations = []*game.Corporation{
		{ID: "RED", TotalShares: 10, Tokens: 2, Home: "A1"},
		{ID: "BLU", TotalShares: 10, Tokens: 2, Home: "B1"},
		{ID: "GRN", TotalShares: 10, Tokens: 2},
	}
	gs.Companies = []*game.Company{{ID: "P1", Revenue: 5, Owner: "alice"}}
	require.NoError(t, gs.Found("RED", "alice", 70))
	require.NoError(t, gs.Found("BLU", "bob", 80))
	return gs
}

func pass(entity string) game.Action {
	return game.Action{Kind: game.Pass, Entity: entity}
}

func types(events []game.Event) []string {
	var out []string
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func TestOperatingRounds(t *testing.T) {
	work := &fakeStep{name: "work", kinds: kinds(game.LayTile, game.Pass)}
	chain, err := NewChain(Entry{Step: work, Blocks: true})
	require.NoError(t, err)
	op := NewOperating(chain)
	gs := operatingGame(t, 1, 2)
	ctx := NewContext(gs, NewState(), chain, zerolog.Nop())

	require.NoError(t, op.Begin(ctx))
	rs := ctx.Round
	require.Equal(t, []int{1, 1, 1}, []int{rs.Set, rs.Number, rs.Total})
	require.Equal(t, []string{"BLU", "RED"}, rs.Order)
	require.Equal(t, "BLU", op.Entity(ctx))
	require.Equal(t, []string{"company_revenue", "token_placed"}, types(ctx.Events()))
	require.Equal(t, 1000-70*game.PresidentShares+5, gs.Players[0].Cash)

	blu, _ := gs.Corporation("BLU")
	red, _ := gs.Corporation("RED")
	require.True(t, blu.HomeLaid)
	require.False(t, red.HomeLaid)
	b1, err := gs.Hex("B1")
	require.NoError(t, err)
	require.Equal(t, []string{"BLU"}, b1.Tile.Cities[0].Tokens)

	t.Run("out of turn", func(t *testing.T) {
		err := op.Process(ctx, pass("RED"))
		require.ErrorIs(t, err, game.Violation(game.CodeNotYourTurn, ""))
		require.Nil(t, op.Actions(ctx, "RED"))
		require.Equal(t, kinds(game.LayTile, game.Pass), op.Actions(ctx, "BLU"))
	})

	require.NoError(t, op.Process(ctx, game.Action{Kind: game.LayTile, Entity: "BLU"}))
	require.Equal(t, "BLU", op.Entity(ctx))
	require.NoError(t, op.Process(ctx, pass("BLU")))
	require.Equal(t, "RED", op.Entity(ctx))
	require.True(t, red.HomeLaid)
	require.Equal(t, 1, red.Tokens)
	ctx.Events()

	// the first set is done: a new set opens with two rounds
	require.NoError(t, op.Process(ctx, pass("RED")))
	require.Equal(t, []int{2, 1, 2}, []int{rs.Set, rs.Number, rs.Total})
	require.Equal(t, []string{"stock_round", "company_revenue"}, types(ctx.Events()))
	require.False(t, gs.LastRound)
	require.Equal(t, "BLU", op.Entity(ctx))

	require.NoError(t, op.Process(ctx, pass("BLU")))
	require.NoError(t, op.Process(ctx, pass("RED")))
	require.Equal(t, []int{2, 2, 2}, []int{rs.Set, rs.Number, rs.Total})
	require.Equal(t, &game.GameEnd{Reason: game.EndFixedRounds, Timing: game.EndCurrentOR}, gs.End)
	require.True(t, gs.LastRound)
	require.False(t, gs.Finished)
	ctx.Events()

	require.NoError(t, op.Process(ctx, pass("BLU")))
	require.NoError(t, op.Process(ctx, pass("RED")))
	require.True(t, gs.Finished)
	require.True(t, rs.Finished)
	require.Equal(t, []string{"game_over"}, types(ctx.Events()))
	require.Empty(t, op.Entity(ctx))
	require.Nil(t, op.Actions(ctx, "BLU"))
	require.ErrorIs(t, op.Process(ctx, pass("BLU")), game.Violation(game.CodeGameOver, ""))
	require.ErrorIs(t, op.Begin(ctx), game.Violation(game.CodeGameOver, ""))
	require.Len(t, work.processed, 1)
}

func TestOperatingPhaseRounds(t *testing.T) {
	chain, err := NewChain(Entry{Step: &fakeStep{name: "work", kinds: kinds(game.Pass)}, Blocks: true})
	require.NoError(t, err)
	op := NewOperating(chain)
	ctx := NewContext(operatingGame(t), NewState(), chain, zerolog.Nop())

	require.NoError(t, op.Begin(ctx))
	require.Equal(t, 2, ctx.Round.Total)
	require.NoError(t, op.Process(ctx, pass("BLU")))
	require.NoError(t, op.Process(ctx, pass("RED")))
	require.Equal(t, []int{1, 2}, []int{ctx.Round.Set, ctx.Round.Number})
	require.Nil(t, ctx.Game.End)
}

func TestOperatingSkipsIdleEntities(t *testing.T) {
	t.Run("nobody can act", func(t *testing.T) {
		chain, err := NewChain(Entry{Step: &fakeStep{name: "idle"}, Blocks: true})
		require.NoError(t, err)
		ctx := NewContext(operatingGame(t), NewState(), chain, zerolog.Nop())
		err = NewOperating(chain).Begin(ctx)
		require.Equal(t, game.InvariantBroken, game.KindOf(err))
	})

	t.Run("nobody floated", func(t *testing.T) {
		chain, err := NewChain(Entry{Step: &fakeStep{name: "idle"}, Blocks: true})
		require.NoError(t, err)
		gs := operatingGame(t)
		for _, c := range gs.Corporations {
			c.Floated = false
		}
		ctx := NewContext(gs, NewState(), chain, zerolog.Nop())
		err = NewOperating(chain).Begin(ctx)
		require.ErrorIs(t, err, game.Violation(game.CodeUnknownEntity, ""))
	})

	t.Run("closed corporations sit out", func(t *testing.T) {
		chain, err := NewChain(Entry{Step: &fakeStep{name: "work", kinds: kinds(game.Pass)}, Blocks: true})
		require.NoError(t, err)
		gs := operatingGame(t)
		blu, _ := gs.Corporation("BLU")
		blu.Closed = true
		ctx := NewContext(gs, NewState(), chain, zerolog.Nop())
		require.NoError(t, NewOperating(chain).Begin(ctx))
		require.Equal(t, []string{"RED"}, ctx.Round.Order)
	})
}

func TestOperatingInterrupt(t *testing.T) {
	work := &fakeStep{name: "work", kinds: kinds(game.LayTile, game.Pass)}
	discard := fakeInterrupter{fakeStep: &fakeStep{name: "discard", kinds: kinds(game.DiscardTrain)}}
	chain, err := NewChain(Entry{Step: work, Blocks: true}, Entry{Step: discard})
	require.NoError(t, err)
	op := NewOperating(chain)
	ctx := NewContext(operatingGame(t), NewState(), chain, zerolog.Nop())
	require.NoError(t, op.Begin(ctx))
	require.Equal(t, "BLU", op.Entity(ctx))

	discard.who = "RED"
	chain.entries[1].Step = discard
	require.Equal(t, "RED", op.Entity(ctx))
	require.Equal(t, kinds(game.DiscardTrain), op.Actions(ctx, "RED"))
	require.Nil(t, op.Actions(ctx, "BLU"))
	require.ErrorIs(t, op.Process(ctx, pass("BLU")), game.Violation(game.CodeNotYourTurn, ""))

	require.NoError(t, op.Process(ctx, game.Action{Kind: game.DiscardTrain, Entity: "RED"}))
	require.Len(t, discard.processed, 1)
	require.Empty(t, work.processed)
	require.Equal(t, "BLU", ctx.Round.Current())

	chain.entries[1].Step = fakeInterrupter{fakeStep: discard.fakeStep}
	require.Equal(t, "BLU", op.Entity(ctx))
}
