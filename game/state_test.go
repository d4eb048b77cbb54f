package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, capitalization Capitalization) *GameState {
	t.Helper()
	rules := &Rules{
		Title:              "test",
		Capitalization:     capitalization,
		TileLays:           []TileLay{{Lay: true, Upgrade: true}},
		SellMovement:       SellLeftShare,
		BankruptcyEndsGame: BankruptcyOne,
		MarketShareLimit:   5,
		GameEnd: map[string]string{
			EndBank:       EndFullOR,
			EndBankrupt:   EndImmediate,
			EndFinalPhase: EndFullOR,
		},
		Triggers: []HexTrigger{{Hexes: []string{"A1"}, Color: Green, Phase: "3"}},
	}
	m, err := NewMap(
		&Hex{ID: "A1", Tile: &Tile{ID: "city", Cities: []*City{{Slots: 1}}}},
		&Hex{ID: "B1", Coord: Coord{Q: 1}},
	)
	require.NoError(t, err)
	catalog, err := NewCatalog(nil, nil)
	require.NoError(t, err)
	depot, err := NewDepot([]TrainSpec{
		{Name: "2", Distance: 2, Price: 80, RustsOn: "4", Num: 2},
		{Name: "3", Distance: 3, Price: 180, Num: 2},
		{Name: "4", Distance: 4, Price: 300, Num: 1, Events: []string{"close_companies"}},
	})
	require.NoError(t, err)
	phases := []Phase{
		{Name: "2", TrainLimit: 4, Tiles: []Color{Yellow}},
		{Name: "3", On: "3", TrainLimit: 4, Tiles: []Color{Yellow, Green}},
		{Name: "4", On: "4", TrainLimit: 3, Tiles: []Color{Yellow, Green}},
	}
	gs, err := NewGameState(rules, m, catalog, ladder(t, "50", "60p", "70p", "80", "90", "100"), depot, phases)
	require.NoError(t, err)

	gs.Bank.Cash = 1000
	for _, id := range []string{"alice", "bob", "carol"} {
		gs.Players = append(gs.Players, &Player{ID: id, Name: id, Cash: 500})
	}
	for _, id := range []string{"RED", "BLU"} {
		gs.Corporations = append(gs.Corporations, &Corporation{ID: id, TotalShares: 10, Tokens: 3, Holders: map[string]int{}})
	}
	gs.Companies = []*Company{{ID: "P1", Value: 20, Revenue: 5, Owner: "alice"}}
	return gs
}

func requireCode(t *testing.T, err error, code Code) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, Violation(code, ""))
}

func TestFound(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		gs := fixture(t, FullCap)
		require.NoError(t, gs.Found("RED", "alice", 70))
		red, _ := gs.Corporation("RED")
		alice, _ := gs.Player("alice")
		require.Equal(t, 360, alice.Cash)
		require.Equal(t, 700, red.Cash)
		require.Equal(t, 440, gs.Bank.Cash)
		require.Equal(t, "alice", red.President)
		require.Equal(t, 8, red.Treasury)
		require.True(t, red.Floated)
		require.Equal(t, 70, gs.Market.Price("RED"))
	})

	t.Run("incremental", func(t *testing.T) {
		gs := fixture(t, IncrementalCap)
		require.NoError(t, gs.Found("RED", "alice", 60))
		red, _ := gs.Corporation("RED")
		require.Equal(t, 120, red.Cash)
		require.Equal(t, 1000, gs.Bank.Cash)
		require.Equal(t, 2, red.Holders["alice"])
	})

	t.Run("refused", func(t *testing.T) {
		gs := fixture(t, FullCap)
		require.NoError(t, gs.Found("RED", "alice", 70))
		requireCode(t, gs.Found("RED", "bob", 70), CodeIllegalShares)
		requireCode(t, gs.Found("BLU", "bob", 80), CodeIllegalShares)
		requireCode(t, gs.Found("BLU", "dave", 70), CodeUnknownEntity)
		requireCode(t, gs.Found("GRN", "bob", 70), CodeUnknownEntity)

		bob, _ := gs.Player("bob")
		bob.Cash = 100
		requireCode(t, gs.Found("BLU", "bob", 70), CodeInsufficientCash)
		blu, _ := gs.Corporation("BLU")
		require.False(t, blu.Floated)
	})
}

func TestSellShares(t *testing.T) {
	base := fixture(t, IncrementalCap)
	require.NoError(t, base.Found("RED", "alice", 70))
	red, _ := base.Corporation("RED")
	red.Holders["bob"] = 3
	red.Treasury -= 3

	t.Run("presidency passes", func(t *testing.T) {
		gs := base.Copy()
		events, err := gs.SellShares("alice", "RED", 1)
		require.NoError(t, err)
		red, _ := gs.Corporation("RED")
		alice, _ := gs.Player("alice")
		require.Equal(t, "bob", red.President)
		require.Equal(t, 1, red.Pool)
		require.Equal(t, 1, red.Holders["alice"])
		require.Equal(t, 430, alice.Cash)
		require.Equal(t, 60, gs.Market.Price("RED"))

		var types []string
		for _, ev := range events {
			types = append(types, ev.Type)
		}
		require.Equal(t, []string{"shares_sold", "president_changed", "price_changed"}, types)
	})

	t.Run("sold out holders", func(t *testing.T) {
		gs := base.Copy()
		_, err := gs.SellShares("bob", "RED", 3)
		require.NoError(t, err)
		red, _ := gs.Corporation("RED")
		require.NotContains(t, red.Holders, "bob")
		require.Equal(t, "alice", red.President)
	})

	t.Run("refused", func(t *testing.T) {
		gs := base.Copy()
		_, err := gs.SellShares("carol", "RED", 1)
		requireCode(t, err, CodeIllegalShares)
		_, err = gs.SellShares("bob", "RED", 4)
		requireCode(t, err, CodeIllegalShares)

		red, _ := gs.Corporation("RED")
		red.Holders["bob"] = 1
		_, err = gs.SellShares("alice", "RED", 1)
		requireCode(t, err, CodeIllegalShares)
		require.Equal(t, "alice", red.President)

		red.Pool = 5
		_, err = gs.SellShares("bob", "RED", 1)
		requireCode(t, err, CodeIllegalShares)
	})
}

func TestSellSharesLedge(t *testing.T) {
	gs := fixture(t, IncrementalCap)
	gs.Market = ladder(t, "90", "100p", "110")
	ledge := gs.Market.Cell(0, 2)
	ledge.Types = append(ledge.Types, CellIgnoreSale)
	require.NoError(t, gs.Found("RED", "alice", 100))
	gs.Market.Place("RED", ledge)
	red, _ := gs.Corporation("RED")
	red.Holders["alice"] += 2
	red.Holders["bob"] = 3
	red.Treasury -= 5

	events, err := gs.SellShares("bob", "RED", 3)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, 110, gs.Market.Price("RED"))
	bob, _ := gs.Player("bob")
	require.Equal(t, 830, bob.Cash)

	_, err = gs.SellShares("alice", "RED", 1)
	require.NoError(t, err)
	require.Equal(t, 100, gs.Market.Price("RED"))
	require.Equal(t, "alice", red.President)
	require.Equal(t, 4, red.Pool)
}

func TestIssueRedeem(t *testing.T) {
	gs := fixture(t, IncrementalCap)
	require.NoError(t, gs.Found("RED", "alice", 70))
	red, _ := gs.Corporation("RED")

	raised, err := gs.Issue("RED", 2)
	require.NoError(t, err)
	require.Equal(t, 140, raised)
	require.Equal(t, 280, red.Cash)
	require.Equal(t, 6, red.Treasury)
	require.Equal(t, 2, red.Pool)

	_, err = gs.Issue("RED", 4)
	requireCode(t, err, CodeIllegalShares)
	_, err = gs.Issue("RED", 0)
	requireCode(t, err, CodeIllegalShares)

	cost, err := gs.Redeem("RED", 1)
	require.NoError(t, err)
	require.Equal(t, 70, cost)
	require.Equal(t, 210, red.Cash)
	require.Equal(t, 1, red.Pool)
	require.Equal(t, 7, red.Treasury)

	_, err = gs.Redeem("RED", 2)
	requireCode(t, err, CodeIllegalShares)
	red.Cash = 10
	_, err = gs.Redeem("RED", 1)
	requireCode(t, err, CodeInsufficientCash)
}

func TestTransfer(t *testing.T) {
	gs := fixture(t, FullCap)

	require.NoError(t, gs.Transfer("alice", "bob", 100))
	require.Equal(t, 400, gs.CashOf("alice"))
	require.Equal(t, 600, gs.CashOf("bob"))

	err := gs.Transfer("alice", "bob", 401)
	requireCode(t, err, CodeInsufficientCash)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "$400", e.Metadata["cash"])

	require.Equal(t, InvariantBroken, KindOf(gs.Transfer("alice", "bob", -1)))
	requireCode(t, gs.Transfer("alice", "dave", 1), CodeUnknownEntity)
	require.Zero(t, gs.CashOf("dave"))

	t.Run("bank breaks once", func(t *testing.T) {
		require.NoError(t, gs.Transfer(BankID, "carol", 1200))
		require.True(t, gs.Bank.Broken)
		require.Equal(t, -200, gs.Bank.Cash)
		require.Equal(t, &GameEnd{Reason: EndBank, Timing: EndFullOR}, gs.End)
		require.False(t, gs.Finished)

		gs.TriggerEnd(EndBankrupt)
		require.Equal(t, EndBank, gs.End.Reason)
	})
}

func TestTriggerEnd(t *testing.T) {
	gs := fixture(t, FullCap)
	gs.TriggerEnd(EndStockMarket)
	require.Nil(t, gs.End)

	gs.TriggerEnd(EndBankrupt)
	require.Equal(t, EndImmediate, gs.End.Timing)
	require.True(t, gs.Finished)

	gs.Players[0].Bankrupt = true
	require.Equal(t, 2, gs.Solvent())
}

func TestCopyAndHash(t *testing.T) {
	gs := fixture(t, FullCap)
	require.NoError(t, gs.Found("RED", "alice", 70))
	c := gs.Copy()
	require.Equal(t, gs.Hash(), c.Hash())

	red, _ := c.Corporation("RED")
	red.Cash++
	require.NotEqual(t, gs.Hash(), c.Hash())
	orig, _ := gs.Corporation("RED")
	require.Equal(t, 700, orig.Cash)

	for name, mutate := range map[string]func(c *GameState){
		"token": func(c *GameState) { c.Map.Hexes[0].Tile.Cities[0].Place("RED") },
		"holder": func(c *GameState) {
			red, _ := c.Corporation("RED")
			red.Holders["bob"] = 1
		},
		"market":  func(c *GameState) { _, _ = c.Market.Move("RED", Right, 1) },
		"train":   func(c *GameState) { _, _ = c.Depot.Remove("2-0") },
		"company": func(c *GameState) { c.Companies[0].Owner = "RED" },
		"phase":   func(c *GameState) { c.PhaseIndex = 1 },
		"closed":  func(c *GameState) { c.Companies[0].Closed = true },
		"operated": func(c *GameState) {
			red, _ := c.Corporation("RED")
			tr, _ := c.Depot.Remove("2-0")
			c.GainTrain(red, tr)
			h := c.Hash()
			red.Trains[0].Operated = true
			require.NotEqual(t, h, c.Hash())
		},
		"last round": func(c *GameState) { c.LastRound = true },
		"end":         func(c *GameState) { c.TriggerEnd(EndBank) },
		"finished":   func(c *GameState) { c.Finished = true },
	} {
		c := gs.Copy()
		mutate(c)
		require.NotEqual(t, gs.Hash(), c.Hash(), name)
	}
	require.Empty(t, gs.Map.Hexes[0].Tile.Cities[0].Tokens)
	require.NotContains(t, orig.Holders, "bob")
	require.Equal(t, "alice", gs.Companies[0].Owner)
	require.Len(t, gs.Depot.Upcoming, 5)
}

func TestGainTrain(t *testing.T) {
	gs := fixture(t, FullCap)
	red, _ := gs.Corporation("RED")
	blu, _ := gs.Corporation("BLU")
	gain := func(corp *Corporation) []Event {
		tr, err := gs.Depot.Remove(gs.Depot.Next().ID)
		require.NoError(t, err)
		return gs.GainTrain(corp, tr)
	}

	require.Empty(t, gain(red))
	require.Empty(t, gain(blu))
	require.Equal(t, "2", gs.Phase().Name)

	events := gain(blu)
	require.Equal(t, "3", gs.Phase().Name)
	require.Equal(t, []Event{{Type: "phase_changed", Data: map[string]any{"phase": "3"}}}, events)
	require.Empty(t, gain(red))

	events = gain(red)
	require.Equal(t, "4", gs.Phase().Name)
	require.Equal(t, EndFinalPhase, gs.End.Reason)
	var types []string
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	require.Equal(t, []string{"phase_changed", "train_rusted", "train_rusted", "company_closed"}, types)
	require.Len(t, red.Trains, 2)
	require.Len(t, blu.Trains, 1)
	require.True(t, gs.Companies[0].Closed)
	require.Equal(t, "RED", red.Trains[1].Owner)
}

func TestAfterLayTile(t *testing.T) {
	gs := fixture(t, FullCap)
	a1, b1 := gs.Map.Hexes[0], gs.Map.Hexes[1]

	a1.Tile = &Tile{ID: "57", Color: Yellow, Exits: []int{0, 3}}
	require.Empty(t, gs.AfterLayTile(a1))

	b1.Tile = &Tile{ID: "14", Color: Green}
	require.Empty(t, gs.AfterLayTile(b1))

	a1.Tile = &Tile{ID: "14", Color: Green}
	require.Len(t, gs.AfterLayTile(a1), 1)
	require.Equal(t, "3", gs.Phase().Name)
	require.Empty(t, gs.AfterLayTile(a1))
}
