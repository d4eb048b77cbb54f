package step_test

import (
	"testing"

	"railway/game"
	"railway/round"
	"railway/title"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// setup builds a fresh game of title id with the given floats and returns
// its state and step chain.
func setup(t *testing.T, id string, players []string, floats ...title.Float) (*game.GameState, *round.Chain) {
	t.Helper()
	return setupWith(t, id, title.Options{Players: players, Floats: floats})
}

func setupWith(t *testing.T, id string, opts title.Options) (*game.GameState, *round.Chain) {
	t.Helper()
	tt, err := title.Lookup(id)
	require.NoError(t, err)
	gs, err := tt.NewGame(opts)
	require.NoError(t, err)
	chain, err := tt.Chain(gs.Rules)
	require.NoError(t, err)
	return gs, chain
}

// turn starts corp's turn outside of a full operating round.
func turn(t *testing.T, gs *game.GameState, chain *round.Chain, corp string) *round.Context {
	t.Helper()
	rs := round.NewState()
	rs.Set, rs.Number, rs.Total = 1, 1, 1
	rs.Order = []string{corp}
	ctx := round.NewContext(gs, rs, chain, zerolog.Nop())
	chain.Setup(ctx, corp)
	return ctx
}

// token drops corp's token into city i of hex without paying for it.
func token(t *testing.T, gs *game.GameState, hex string, i int, corp string) {
	t.Helper()
	h, err := gs.Hex(hex)
	require.NoError(t, err)
	h.Tile.Cities[i].Place(corp)
}

func find[T round.Step](t *testing.T, chain *round.Chain) T {
	t.Helper()
	for _, s := range chain.Steps() {
		if found, ok := s.(T); ok {
			return found
		}
	}
	var zero T
	t.Fatalf("no %T in chain", zero)
	return zero
}

func lay(corp, hex, tile string, rotation int) game.Action {
	return game.Action{Kind: game.LayTile, Entity: corp, Hex: hex, Tile: tile, Rotation: rotation}
}

func code(t *testing.T, err error, want game.Code) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, game.Violation(want, ""))
}

func hex(t *testing.T, gs *game.GameState, id string) *game.Hex {
	t.Helper()
	h, err := gs.Hex(id)
	require.NoError(t, err)
	return h
}
