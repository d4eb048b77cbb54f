// Package title holds the data tables and rule bindings of each supported
// game. Tables are YAML files embedded in the binary; bindings attach the
// title's hooks to the shared steps.
package title

import (
	"embed"
	"fmt"
	"sort"

	"railway/game"
	"railway/round"
	"railway/step"

	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var files embed.FS

// binder builds a title's step chain for the resolved rules.
type binder func(t *Title, rules *game.Rules) ([]round.Entry, error)

var binders = map[string]binder{
	"1866":               bind1866,
	"steam_over_holland": bindSteamOverHolland,
	"system18":           bindSystem18,
}

// Names returns the ids of every registered title.
func Names() []string {
	names := make([]string, 0, len(binders))
	for name := range binders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type hexSpec struct {
	ID          string      `yaml:"id"`
	Q           int         `yaml:"q"`
	R           int         `yaml:"r"`
	Tile        string      `yaml:"tile"`
	Rotation    int         `yaml:"rotation"`
	Cost        int         `yaml:"cost"`
	UpgradeCost int         `yaml:"upgrade_cost"`
	Region      string      `yaml:"region"`
	Blocked     []int       `yaml:"blocked"`
	Frame       *game.Frame `yaml:"frame"`
}

type variantSpec struct {
	Rules  yaml.Node    `yaml:"rules"`
	Phases []game.Phase `yaml:"phases"`
	Market [][]cellSpec `yaml:"market"`
}

type spec struct {
	Name         string           `yaml:"name"`
	Rules        yaml.Node        `yaml:"rules"`
	BankCash     int              `yaml:"bank_cash"`
	StartingCash map[int]int      `yaml:"starting_cash"`
	Market       [][]cellSpec     `yaml:"market"`
	Trains       []game.TrainSpec `yaml:"trains"`
	Phases       []game.Phase     `yaml:"phases"`
	// Tiles is the upgrade supply: manifest id to count, -1 unlimited.
	Tiles        map[string]int     `yaml:"tiles"`
	Hexes        []hexSpec          `yaml:"hexes"`
	Corporations []game.Corporation `yaml:"corporations"`
	Companies    []game.Company     `yaml:"companies"`
	// DealCompanies keeps a random subset of companies, one per player.
	DealCompanies  bool                   `yaml:"deal_companies"`
	DefaultVariant string                 `yaml:"default_variant"`
	Variants       map[string]variantSpec `yaml:"variants"`
}

// Title is a loaded game definition.
type Title struct {
	Name string

	// Router values routes; nil means step.StopRouter.
	Router step.Router
	// Auto, when set, picks routes for an empty run-route.
	Auto *step.AutoRouter

	id       string
	spec     *spec
	manifest map[string]*game.Tile
	bind     binder
}

// Lookup loads the title with the given id.
func Lookup(id string) (*Title, error) {
	bind, ok := binders[id]
	if !ok {
		return nil, game.Misconfigured("unknown title %q", id)
	}
	manifest, err := loadManifest()
	if err != nil {
		return nil, err
	}
	b, err := files.ReadFile("data/" + id + ".yaml")
	if err != nil {
		return nil, game.Misconfigured("title %s has no data", id)
	}
	s := &spec{}
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, &game.Error{Kind: game.ConfigurationError, Code: game.CodeBadConfig,
			Message: fmt.Sprintf("%s.yaml", id), Cause: err}
	}
	for tile := range s.Tiles {
		if _, ok := manifest[tile]; !ok {
			return nil, game.Misconfigured("%s: unknown tile %s", id, tile)
		}
	}
	for _, h := range s.Hexes {
		if _, ok := manifest[h.Tile]; h.Tile != "" && !ok {
			return nil, game.Misconfigured("%s: hex %s uses unknown tile %s", id, h.ID, h.Tile)
		}
	}
	if s.DefaultVariant != "" {
		if _, ok := s.Variants[s.DefaultVariant]; !ok {
			return nil, game.Misconfigured("%s: unknown default variant %s", id, s.DefaultVariant)
		}
	}
	return &Title{id: id, Name: s.Name, spec: s, manifest: manifest, bind: bind}, nil
}

func loadManifest() (map[string]*game.Tile, error) {
	b, err := files.ReadFile("data/tiles.yaml")
	if err != nil {
		return nil, game.Misconfigured("tile manifest missing")
	}
	var tiles []*game.Tile
	if err := yaml.Unmarshal(b, &tiles); err != nil {
		return nil, &game.Error{Kind: game.ConfigurationError, Code: game.CodeBadConfig, Message: "tiles.yaml", Cause: err}
	}
	out := make(map[string]*game.Tile, len(tiles))
	for _, t := range tiles {
		if _, dup := out[t.ID]; dup {
			return nil, game.Misconfigured("tile %s defined twice", t.ID)
		}
		for _, e := range t.Exits {
			if e < 0 || e > 5 {
				return nil, game.Misconfigured("tile %s has exit %d", t.ID, e)
			}
		}
		out[t.ID] = t
	}
	return out, nil
}

// ID is the name the title was looked up by.
func (t *Title) ID() string {
	return t.id
}

// Variants lists the title's variant names.
func (t *Title) Variants() []string {
	out := make([]string, 0, len(t.spec.Variants))
	for name := range t.spec.Variants {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Rules resolves the per-game rules record for variant. Variant overrides
// are decoded on top of the title's base rules.
func (t *Title) Rules(variant string) (*game.Rules, error) {
	rules := &game.Rules{}
	if err := t.spec.Rules.Decode(rules); err != nil {
		return nil, &game.Error{Kind: game.ConfigurationError, Code: game.CodeBadConfig, Message: t.id + " rules", Cause: err}
	}
	v, err := t.variant(variant)
	if err != nil {
		return nil, err
	}
	if v != nil && !v.Rules.IsZero() {
		if err := v.Rules.Decode(rules); err != nil {
			return nil, &game.Error{Kind: game.ConfigurationError, Code: game.CodeBadConfig, Message: t.id + " variant rules", Cause: err}
		}
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

func (t *Title) variant(name string) (*variantSpec, error) {
	if name == "" {
		name = t.spec.DefaultVariant
	}
	if name == "" {
		return nil, nil
	}
	v, ok := t.spec.Variants[name]
	if !ok {
		return nil, game.Misconfigured("%s has no variant %q", t.id, name)
	}
	return &v, nil
}

// Float founds a corporation at par, standing in for the stock round.
type Float struct {
	Corporation string `json:"corporation"`
	President   string `json:"president"`
	Par         int    `json:"par"`
}

// Options configures a new game.
type Options struct {
	Players []string
	Seed    uint64
	Variant string
	Floats  []Float
	// Owners hands companies to players, standing in for the auction.
	Owners map[string]string
}

// NewGame builds the starting state of a game.
func (t *Title) NewGame(opts Options) (*game.GameState, error) {
	s := t.spec
	cash, ok := s.StartingCash[len(opts.Players)]
	if !ok {
		return nil, game.Misconfigured("%s cannot be played by %d players", t.Name, len(opts.Players))
	}
	rules, err := t.Rules(opts.Variant)
	if err != nil {
		return nil, err
	}
	v, err := t.variant(opts.Variant)
	if err != nil {
		return nil, err
	}

	cells, phases := s.Market, s.Phases
	if v != nil && len(v.Market) > 0 {
		cells = v.Market
	}
	if v != nil && len(v.Phases) > 0 {
		phases = v.Phases
	}
	market, err := game.NewMarket(buildCells(cells))
	if err != nil {
		return nil, err
	}
	m, err := t.buildMap()
	if err != nil {
		return nil, err
	}
	catalog, err := t.buildCatalog()
	if err != nil {
		return nil, err
	}
	depot, err := game.NewDepot(s.Trains)
	if err != nil {
		return nil, err
	}
	gs, err := game.NewGameState(rules, m, catalog, market, depot, phases)
	if err != nil {
		return nil, err
	}

	gs.Bank.Cash = s.BankCash
	for _, name := range opts.Players {
		if _, err := gs.Player(name); err == nil {
			return nil, game.Misconfigured("player %s listed twice", name)
		}
		gs.Players = append(gs.Players, &game.Player{ID: name, Name: name})
		if err := gs.Transfer(game.BankID, name, cash); err != nil {
			return nil, err
		}
	}
	for _, c := range s.Corporations {
		corp := c
		corp.Holders = make(map[string]int)
		corp.Requires = append([]string(nil), c.Requires...)
		corp.Rights = append([]string(nil), c.Rights...)
		gs.Corporations = append(gs.Corporations, &corp)
	}
	t.dealCompanies(gs, opts.Seed)

	for company, owner := range opts.Owners {
		co, err := gs.Company(company)
		if err != nil {
			return nil, err
		}
		if _, err := gs.Player(owner); err != nil {
			return nil, err
		}
		co.Owner = owner
	}
	for _, f := range opts.Floats {
		if err := gs.Found(f.Corporation, f.President, f.Par); err != nil {
			return nil, err
		}
	}
	return gs, nil
}

// dealCompanies copies the title's companies into gs. Titles that deal a
// random subset keep one company per player, sorted by name.
func (t *Title) dealCompanies(gs *game.GameState, seed uint64) {
	companies := make([]*game.Company, len(t.spec.Companies))
	for i, c := range t.spec.Companies {
		co := c
		companies[i] = &co
	}
	if t.spec.DealCompanies {
		r := rand.New(rand.NewSource(seed))
		r.Shuffle(len(companies), func(i, j int) {
			companies[i], companies[j] = companies[j], companies[i]
		})
		companies = companies[:min(len(companies), len(gs.Players))]
		sort.Slice(companies, func(i, j int) bool { return companies[i].Name < companies[j].Name })
	}
	gs.Companies = companies
}

func (t *Title) buildMap() (*game.Map, error) {
	hexes := make([]*game.Hex, 0, len(t.spec.Hexes))
	for _, h := range t.spec.Hexes {
		hex := &game.Hex{
			ID:          h.ID,
			Coord:       game.Coord{Q: h.Q, R: h.R},
			Cost:        h.Cost,
			UpgradeCost: h.UpgradeCost,
			Region:      h.Region,
			Blocked:     append([]int(nil), h.Blocked...),
		}
		if h.Tile != "" {
			hex.Tile = t.manifest[h.Tile].Rotated(h.Rotation)
			if h.Frame != nil {
				f := *h.Frame
				hex.Tile.Frame = &f
			}
		}
		hexes = append(hexes, hex)
	}
	return game.NewMap(hexes...)
}

func (t *Title) buildCatalog() (*game.Catalog, error) {
	ids := make([]string, 0, len(t.spec.Tiles))
	for id := range t.spec.Tiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	tiles := make([]*game.Tile, len(ids))
	for i, id := range ids {
		tiles[i] = t.manifest[id]
	}
	return game.NewCatalog(tiles, t.spec.Tiles)
}

// Chain builds the title's operating round step chain.
func (t *Title) Chain(rules *game.Rules) (*round.Chain, error) {
	entries, err := t.bind(t, rules)
	if err != nil {
		return nil, err
	}
	return round.NewChain(entries...)
}
