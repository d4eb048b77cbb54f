package engine_test

import (
	"errors"
	"testing"
	"time"

	"railway/engine"
	"railway/game"
	"railway/history"
	"railway/title"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type failingRecorder struct {
	fail bool
	n    int
}

func (f *failingRecorder) Record(history.Entry) error {
	if f.fail {
		return errors.New("disk full")
	}
	f.n++
	return nil
}

func holland(t *testing.T) (*title.Title, *game.GameState) {
	t.Helper()
	tt, err := title.Lookup("steam_over_holland")
	require.NoError(t, err)
	gs, err := tt.NewGame(title.Options{
		Players: []string{"alice", "bob"},
		Floats: []title.Float{
			{Corporation: "HSM", President: "alice", Par: 100},
			{Corporation: "NRS", President: "bob", Par: 70},
		},
	})
	require.NoError(t, err)
	return tt, gs
}

func start(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	tt, gs := holland(t)
	e, err := engine.New(tt, gs, append([]engine.Option{engine.WithLogger(zerolog.Nop())}, opts...)...)
	require.NoError(t, err)
	return e
}

func issue(n int) game.Action {
	return game.Action{Kind: game.IssueShares, Entity: "HSM", Shares: n}
}

func TestProcess(t *testing.T) {
	e := start(t)
	require.Equal(t, "HSM", e.Entity())
	require.Equal(t, []game.ActionKind{game.IssueShares, game.Pass}, e.Actions("HSM"))
	require.Nil(t, e.Actions("NRS"))

	t.Run("rejected actions change nothing", func(t *testing.T) {
		before := e.State().Hash()
		for _, a := range []game.Action{
			{Kind: game.Pass, Entity: "NRS"},
			issue(3),
			{Kind: game.BuyTrain, Entity: "HSM", Train: "2-0"},
		} {
			_, err := e.Process(a)
			require.Error(t, err)
			require.True(t, game.IsViolation(err))
			require.Equal(t, before, e.State().Hash())
		}
	})

	res, err := e.Process(issue(2))
	require.NoError(t, err)
	require.Equal(t, "HSM", res.Next)
	require.Equal(t, []game.ActionKind{game.LayTile, game.Pass}, res.Actions)
	require.Equal(t, e.State().Hash(), res.Hash)
	require.False(t, res.Over)
	require.Equal(t, 90, e.State().Market.Price("HSM"))
	require.NotEmpty(t, res.Events)

	hsm, err := e.State().Corporation("HSM")
	require.NoError(t, err)
	require.Equal(t, 400, hsm.Cash)
}

func TestFullTurn(t *testing.T) {
	e := start(t)
	steps := []struct {
		action game.Action
		next   []game.ActionKind
	}{
		{issue(2), []game.ActionKind{game.LayTile, game.Pass}},
		{game.Action{Kind: game.LayTile, Entity: "HSM", Hex: "A1", Tile: "5", Rotation: 5}, []game.ActionKind{game.PayDividend}},
		{game.Action{Kind: game.PayDividend, Entity: "HSM", Dividend: game.Withhold}, []game.ActionKind{game.BuyTrain}},
		{game.Action{Kind: game.BuyTrain, Entity: "HSM", Train: "2-0"}, []game.ActionKind{game.BuyTrain, game.Pass}},
	}
	for _, s := range steps {
		res, err := e.Process(s.action)
		require.NoError(t, err, s.action.Kind)
		require.Equal(t, "HSM", res.Next)
		require.Equal(t, s.next, res.Actions, s.action.Kind)
	}

	_, err := e.Process(game.Action{Kind: game.RunRoute, Entity: "HSM"})
	require.ErrorIs(t, err, game.Violation(game.CodeUnhandledAction, ""))

	res, err := e.Process(game.Action{Kind: game.Pass, Entity: "HSM"})
	require.NoError(t, err)
	require.Equal(t, "NRS", res.Next)
	require.Equal(t, "NRS", e.Entity())
	require.Contains(t, res.Actions, game.Pass)
	require.Nil(t, e.Actions("HSM"))

	hsm, err := e.State().Corporation("HSM")
	require.NoError(t, err)
	require.Equal(t, 300, hsm.Cash)
	require.Len(t, hsm.Trains, 1)
	a1, err := e.State().Hex("A1")
	require.NoError(t, err)
	require.Equal(t, "5", a1.Tile.ID)
	require.Equal(t, []string{"HSM"}, a1.Tile.Cities[0].Tokens)
	b2, err := e.State().Hex("B2")
	require.NoError(t, err)
	require.Equal(t, []string{"NRS"}, b2.Tile.Cities[0].Tokens)
}

func TestUndoRedo(t *testing.T) {
	e := start(t)
	_, err := e.Undo()
	require.ErrorIs(t, err, game.Violation(game.CodeNothingToUndo, ""))
	_, err = e.Redo()
	require.ErrorIs(t, err, game.Violation(game.CodeNothingToUndo, ""))

	initial := e.State().Hash()
	res, err := e.Process(issue(2))
	require.NoError(t, err)
	issued := res.Hash
	require.NotEqual(t, initial, issued)

	res, err = e.Undo()
	require.NoError(t, err)
	require.Equal(t, initial, res.Hash)
	require.Equal(t, []game.ActionKind{game.IssueShares, game.Pass}, res.Actions)
	require.Equal(t, 100, e.State().Market.Price("HSM"))

	res, err = e.Redo()
	require.NoError(t, err)
	require.Equal(t, issued, res.Hash)
	require.Equal(t, 90, e.State().Market.Price("HSM"))

	t.Run("a new action clears redo", func(t *testing.T) {
		_, err := e.Undo()
		require.NoError(t, err)
		_, err = e.Process(issue(1))
		require.NoError(t, err)
		_, err = e.Redo()
		require.ErrorIs(t, err, game.Violation(game.CodeNothingToUndo, ""))
	})
}

func TestRecorderFailureAbortsCommit(t *testing.T) {
	rec := &failingRecorder{}
	e := start(t, engine.WithRecorder(rec))
	require.Equal(t, 1, rec.n)

	before := e.State().Hash()
	rec.fail = true
	_, err := e.Process(issue(2))
	require.Equal(t, game.InvariantBroken, game.KindOf(err))
	require.Equal(t, before, e.State().Hash())
	require.Equal(t, "HSM", e.Entity())

	rec.fail = false
	_, err = e.Process(issue(2))
	require.NoError(t, err)
	rec.fail = true
	_, err = e.Undo()
	require.Error(t, err)
	require.Equal(t, 90, e.State().Market.Price("HSM"))
}

func TestRecordAndReplay(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	mem := &history.Memory{}
	e := start(t, engine.WithRecorder(mem), engine.WithID("g1"), engine.WithClock(func() time.Time { return now }))
	require.Equal(t, "g1", e.ID())

	_, err := e.Process(issue(2))
	require.NoError(t, err)
	_, err = e.Undo()
	require.NoError(t, err)
	_, err = e.Redo()
	require.NoError(t, err)
	_, err = e.Process(game.Action{Kind: game.Pass, Entity: "HSM"})
	require.NoError(t, err)

	entries := mem.Entries()
	var kinds []history.Kind
	for i, entry := range entries {
		require.Equal(t, i+1, entry.Seq)
		require.Equal(t, "g1", entry.GameID)
		require.Equal(t, now.UTC(), entry.Time)
		kinds = append(kinds, entry.Kind)
	}
	require.Equal(t, []history.Kind{
		history.KindStart, history.KindAction, history.KindUndo, history.KindRedo, history.KindAction,
	}, kinds)
	require.Equal(t, e.State().Hash(), entries[len(entries)-1].Hash)

	t.Run("replay reaches the same state", func(t *testing.T) {
		fresh := start(t)
		require.NoError(t, engine.Replay(fresh, entries))
		require.Equal(t, e.State().Hash(), fresh.State().Hash())
		require.Equal(t, e.Entity(), fresh.Entity())
	})

	t.Run("replay detects divergence", func(t *testing.T) {
		bad := append([]history.Entry(nil), entries...)
		bad[1].Hash++
		err := engine.Replay(start(t), bad)
		require.Equal(t, game.InvariantBroken, game.KindOf(err))
	})

	t.Run("replaying only the surviving actions", func(t *testing.T) {
		fresh := start(t)
		for _, a := range history.Actions(entries) {
			_, err := fresh.Process(a)
			require.NoError(t, err)
		}
		require.Equal(t, e.State().Hash(), fresh.State().Hash())
	})
}

func TestUpdates(t *testing.T) {
	t.Run("without a buffer", func(t *testing.T) {
		e := start(t)
		_, err := e.Process(issue(2))
		require.NoError(t, err)
		_, ok := e.Updates()()
		require.False(t, ok)
	})

	t.Run("full buffer drops", func(t *testing.T) {
		e := start(t, engine.WithUpdates(1))
		next := e.Updates()
		_, ok := next()
		require.False(t, ok)

		res, err := e.Process(issue(2))
		require.NoError(t, err)
		_, err = e.Process(game.Action{Kind: game.Pass, Entity: "HSM"})
		require.NoError(t, err)

		u, ok := next()
		require.True(t, ok)
		require.Equal(t, game.IssueShares, u.Action.Kind)
		require.Equal(t, res.Hash, u.Hash)
		_, ok = next()
		require.False(t, ok)
	})
}

func TestSnapshot(t *testing.T) {
	e := start(t, engine.WithID("g7"))
	_, err := e.Process(issue(2))
	require.NoError(t, err)

	b, err := e.Snapshot().Marshal()
	require.NoError(t, err)
	snap, err := engine.UnmarshalSnapshot(b)
	require.NoError(t, err)
	require.Equal(t, "steam_over_holland", snap.Title)
	require.Equal(t, 2, snap.Seq)

	tt, _ := holland(t)
	resumed, err := engine.Resume(tt, snap, engine.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.Equal(t, "g7", resumed.ID())
	require.Equal(t, e.State().Hash(), resumed.State().Hash())
	require.Equal(t, e.Entity(), resumed.Entity())
	require.Equal(t, e.Actions("HSM"), resumed.Actions("HSM"))

	_, err = resumed.Undo()
	require.ErrorIs(t, err, game.Violation(game.CodeNothingToUndo, ""))

	t.Run("both engines accept the same next action", func(t *testing.T) {
		a, err := e.Process(game.Action{Kind: game.Pass, Entity: "HSM"})
		require.NoError(t, err)
		b, err := resumed.Process(game.Action{Kind: game.Pass, Entity: "HSM"})
		require.NoError(t, err)
		require.Equal(t, a.Hash, b.Hash)
	})

	t.Run("wrong title", func(t *testing.T) {
		other, err := title.Lookup("system18")
		require.NoError(t, err)
		_, err = engine.Resume(other, snap)
		require.Equal(t, game.ConfigurationError, game.KindOf(err))
	})

	t.Run("tampered state", func(t *testing.T) {
		bad, err := engine.UnmarshalSnapshot(b)
		require.NoError(t, err)
		bad.Game.Bank.Cash++
		_, err = engine.Resume(tt, bad)
		require.Equal(t, game.InvariantBroken, game.KindOf(err))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := engine.UnmarshalSnapshot([]byte(`{"game_id":"x"}`))
		require.Equal(t, game.ConfigurationError, game.KindOf(err))
		_, err = engine.UnmarshalSnapshot([]byte(`{`))
		require.Equal(t, game.ConfigurationError, game.KindOf(err))
	})
}
