package step

import (
	"railway/game"
	"railway/round"

	"golang.org/x/exp/slices"
)

// TrackHooks are the points a title can override in track laying. Nil hooks
// take the shared behaviour.
type TrackHooks struct {
	// HexAllowed rejects hexes the corporation may not build on.
	HexAllowed func(ctx *round.Context, corp *game.Corporation, hex *game.Hex) error
	// BuyingPower is the most the corporation can spend on a lay.
	BuyingPower func(ctx *round.Context, corp *game.Corporation) int
	// Fund raises the corporation's cash to at least amount before paying.
	Fund func(ctx *round.Context, corp *game.Corporation, amount int) error
	// UpgradeAllowed reports whether another upgrade fits this turn.
	UpgradeAllowed func(ctx *round.Context, corp *game.Corporation) bool
	// RotationExempt hexes accept any rotation of a legal tile.
	RotationExempt func(hex *game.Hex) bool
	// FilterUpgrades narrows the tiles offered for a hex.
	FilterUpgrades func(hex *game.Hex, tiles []*game.Tile) []*game.Tile
	// AfterLay runs once the tile is down.
	AfterLay func(ctx *round.Context, corp *game.Corporation, hex *game.Hex) error
}

// Track lays and upgrades tiles.
type Track struct {
	base
	hooks TrackHooks
}

// NewTrack creates and returns a new Track instance.
func NewTrack(hooks TrackHooks) *Track {
	return &Track{base: base{name: "track"}, hooks: hooks}
}

func (t *Track) LaysTrack() bool {
	return true
}

func (t *Track) buyingPower(ctx *round.Context, corp *game.Corporation) int {
	if t.hooks.BuyingPower != nil {
		return t.hooks.BuyingPower(ctx, corp)
	}
	return corp.Cash
}

func (t *Track) upgradeAllowed(ctx *round.Context, corp *game.Corporation) bool {
	if t.hooks.UpgradeAllowed != nil {
		return t.hooks.UpgradeAllowed(ctx, corp)
	}
	return true
}

func (t *Track) rotationExempt(ctx *round.Context, hex *game.Hex) bool {
	if t.hooks.RotationExempt != nil {
		return t.hooks.RotationExempt(hex)
	}
	return slices.Contains(ctx.Rules().RotationExempt, hex.ID)
}

// slot returns the tile lay available now, with the upgrade flag narrowed by
// the title.
func (t *Track) slot(ctx *round.Context, corp *game.Corporation) (game.TileLay, bool) {
	lays := ctx.Rules().TileLays
	if ctx.Round.NumLaidTrack >= len(lays) {
		return game.TileLay{}, false
	}
	lay := lays[ctx.Round.NumLaidTrack]
	lay.Upgrade = lay.Upgrade && t.upgradeAllowed(ctx, corp)
	return lay, lay.Lay || lay.Upgrade
}

func (t *Track) Actions(ctx *round.Context, entity string) []game.ActionKind {
	corp, ok := operator(ctx, entity)
	if !ok {
		return nil
	}
	lay, ok := t.slot(ctx, corp)
	if !ok || t.buyingPower(ctx, corp) < lay.Cost {
		return nil
	}
	return []game.ActionKind{game.LayTile, game.Pass}
}

// Cost is what laying on hex costs in the given slot.
func Cost(lay game.TileLay, hex *game.Hex) int {
	if hex.Bare() {
		return lay.Cost + hex.Cost
	}
	return lay.UpgradeCost + hex.UpgradeCost
}

func (t *Track) Process(ctx *round.Context, a game.Action) error {
	corp, err := actor(ctx, a, game.LayTile)
	if err != nil {
		return err
	}
	hex, err := ctx.Game.Hex(a.Hex)
	if err != nil {
		return err
	}

	// 1. who may build where
	if t.hooks.HexAllowed != nil {
		if err := t.hooks.HexAllowed(ctx, corp, hex); err != nil {
			return err
		}
	}

	// 2. tile lay budget and cost
	lay, ok := t.slot(ctx, corp)
	if !ok {
		return game.Violation(game.CodeNoTileLay, "%s has no tile lays left", corp.ID)
	}
	if ctx.Round.Laid(hex.ID) {
		return game.Violation(game.CodeHexAlreadyLaid, "%s already laid on %s this turn", corp.ID, hex.ID)
	}
	upgrade := !hex.Bare()
	if upgrade && !lay.Upgrade {
		return game.Violation(game.CodeNoTileLay, "%s may not upgrade now", corp.ID)
	}
	if !upgrade && !lay.Lay {
		return game.Violation(game.CodeNoTileLay, "%s may only upgrade now", corp.ID)
	}
	cost := Cost(lay, hex)
	if power := t.buyingPower(ctx, corp); power < cost {
		return game.Violation(game.CodeInsufficientCash, "%s cannot afford %s to lay on %s", corp.ID, ctx.Rules().Format(cost), hex.ID).
			With("buying_power", ctx.Rules().Format(power))
	}

	// 3 and 4. tile, colour and shape
	placed, err := t.legalTile(ctx, corp, hex, a.Tile, a.Rotation)
	if err != nil {
		return err
	}

	if t.hooks.Fund != nil && cost > corp.Cash {
		if err := t.hooks.Fund(ctx, corp, cost); err != nil {
			return err
		}
	}
	if err := pay(ctx, corp, cost); err != nil {
		return err
	}

	old := hex.Tile
	if _, err := ctx.Game.Catalog.Take(placed.ID, placed.Rotation); err != nil {
		return err
	}
	if old != nil && old.Color != game.White {
		ctx.Game.Catalog.Return(old)
	}

	// 5. labels and terminal reservations
	if old != nil && slices.Contains(ctx.Rules().CarryLabels, old.Label) {
		if placed.Color <= game.Green {
			placed.Label = old.Label
		} else {
			placed.Label = ""
		}
	}
	carryCities(old, placed)
	if old != nil && old.Color == game.Brown && placed.Color == game.Gray {
		for _, i := range ctx.Rules().ReleaseReservations[hex.ID] {
			if i < len(placed.Cities) {
				placed.Cities[i].RemoveAllReservations()
			}
		}
	}

	// 6. the frame is cosmetic and follows the hex
	if old != nil && old.Frame != nil {
		f := *old.Frame
		placed.Frame = &f
	}
	hex.Tile = placed

	// 7. counters
	ctx.Round.NumLaidTrack++
	ctx.Round.LaidHexes = append(ctx.Round.LaidHexes, hex.ID)
	if upgrade {
		ctx.Round.NumUpgradedTrack++
	}
	ctx.Log.Info().Msgf("%s lays tile %s with rotation %d on %s for %s", corp.ID, placed.ID, placed.Rotation, hex.ID, ctx.Rules().Format(cost))
	ctx.Emit(game.Event{Type: "tile_laid", Entity: corp.ID, Data: map[string]any{
		"hex": hex.ID, "tile": placed.ID, "rotation": placed.Rotation, "cost": cost, "upgrade": upgrade,
	}})

	// 8. hex dependent triggers
	ctx.Emit(ctx.Game.AfterLayTile(hex)...)
	if t.hooks.AfterLay != nil {
		return t.hooks.AfterLay(ctx, corp, hex)
	}
	return nil
}

// carryCities moves tokens and reservations from the old tile's cities to the
// new tile's, city by city.
func carryCities(old, placed *game.Tile) {
	if old == nil {
		return
	}
	for i, c := range old.Cities {
		if i >= len(placed.Cities) {
			return
		}
		placed.Cities[i].Tokens = slices.Clone(c.Tokens)
		placed.Cities[i].Reservations = slices.Clone(c.Reservations)
	}
}

// legalTile returns the catalog tile id at rotation if corp may put it on
// hex.
func (t *Track) legalTile(ctx *round.Context, corp *game.Corporation, hex *game.Hex, id string, rotation int) (*game.Tile, error) {
	if hex.Tile != nil && hex.Tile.Offboard {
		return nil, game.Violation(game.CodeIllegalTile, "%s cannot be built on", hex.ID)
	}
	def, ok := ctx.Game.Catalog.Get(id)
	if !ok {
		return nil, game.Violation(game.CodeUnknownTile, "unknown tile %s", id)
	}
	if !ctx.Game.Catalog.Available(id) {
		return nil, game.Violation(game.CodeTileUnavailable, "no %s tiles left", id)
	}
	if def.Color != hex.Color().Next() {
		return nil, game.Violation(game.CodeIllegalColor, "%s tile cannot replace %s on %s", def.Color, hex.Color(), hex.ID)
	}
	if !ctx.Game.Phase().Allows(def.Color) {
		return nil, game.Violation(game.CodeIllegalColor, "%s tiles are not available in phase %s", def.Color, ctx.Game.Phase().Name)
	}
	if rotation < 0 || rotation > 5 {
		return nil, game.Violation(game.CodeIllegalRotation, "rotation %d out of range", rotation)
	}
	placed := def.Rotated(rotation)
	if err := t.shapeFits(ctx, corp, hex, placed); err != nil {
		return nil, err
	}
	return placed, nil
}

// shapeFits checks the new tile keeps the old one's stops and track, points
// every exit at a usable neighbour and joins the corporation's network.
func (t *Track) shapeFits(ctx *round.Context, corp *game.Corporation, hex *game.Hex, placed *game.Tile) error {
	old := hex.Tile
	cities, towns, label := 0, 0, ""
	var oldEdges []int
	if old != nil {
		cities, towns, label = len(old.Cities), len(old.Towns), old.Label
		oldEdges = old.Edges()
	}
	if len(placed.Cities) != cities || len(placed.Towns) != towns {
		return game.Violation(game.CodeIllegalTile, "%s does not match the stops on %s", placed.ID, hex.ID)
	}
	if placed.Label != label && !(placed.Label == "" && slices.Contains(ctx.Rules().CarryLabels, label)) {
		return game.Violation(game.CodeIllegalTile, "%s does not fit label %q on %s", placed.ID, label, hex.ID)
	}
	if t.rotationExempt(ctx, hex) {
		if len(placed.Edges()) < len(oldEdges) {
			return game.Violation(game.CodeIllegalTile, "%s drops track on %s", placed.ID, hex.ID)
		}
		return nil
	}

	edges := placed.Edges()
	for _, e := range oldEdges {
		if !slices.Contains(edges, e) {
			return game.Violation(game.CodeIllegalRotation, "rotation %d of %s drops track on edge %d", placed.Rotation, placed.ID, e)
		}
	}
	for _, e := range edges {
		if ctx.Game.Map.Neighbor(hex, e) == nil || hex.IsBlocked(e) {
			return game.Violation(game.CodeIllegalRotation, "rotation %d of %s runs off the map at edge %d", placed.Rotation, placed.ID, e)
		}
	}

	if placed.HasToken(corp.ID) || (old != nil && old.HasToken(corp.ID)) {
		return nil
	}
	net := ctx.Game.Map.Network(corp.ID)
	for _, e := range edges {
		if net.ConnectsAt(hex.ID, e) {
			return nil
		}
	}
	return game.Violation(game.CodeIllegalRotation, "%s on %s is not connected to %s", placed.ID, hex.ID, corp.ID)
}

// UpgradeableTiles lists the catalog tiles corp could lay on hex now, with
// the rotations that fit.
func (t *Track) UpgradeableTiles(ctx *round.Context, corp *game.Corporation, hex *game.Hex) map[string][]int {
	var candidates []*game.Tile
	for _, def := range ctx.Game.Catalog.Tiles {
		if def.Color == hex.Color().Next() && ctx.Game.Catalog.Available(def.ID) {
			candidates = append(candidates, def)
		}
	}
	if t.hooks.FilterUpgrades != nil {
		candidates = t.hooks.FilterUpgrades(hex, candidates)
	}
	out := make(map[string][]int)
	for _, def := range candidates {
		for r := 0; r < 6; r++ {
			if _, err := t.legalTile(ctx, corp, hex, def.ID, r); err == nil {
				out[def.ID] = append(out[def.ID], r)
			}
		}
	}
	return out
}

// MaxEdgeFilter keeps, per colour, only the tiles with the most exits, except
// on hexes labelled with one of exempt.
func MaxEdgeFilter(exempt ...string) func(hex *game.Hex, tiles []*game.Tile) []*game.Tile {
	return func(hex *game.Hex, tiles []*game.Tile) []*game.Tile {
		if slices.Contains(exempt, hex.Label()) {
			return tiles
		}
		most := make(map[game.Color]int)
		for _, t := range tiles {
			most[t.Color] = max(most[t.Color], len(t.Edges()))
		}
		var out []*game.Tile
		for _, t := range tiles {
			if len(t.Edges()) == most[t.Color] {
				out = append(out, t)
			}
		}
		return out
	}
}
