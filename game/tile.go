package game

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Frame is a cosmetic border drawn around a tile. It never affects legality.
type Frame struct {
	Color  string `json:"color" yaml:"color"`
	Color2 string `json:"color2,omitempty" yaml:"color2"`
}

// City is a revenue location with token slots.
type City struct {
	Slots        int      `json:"slots" yaml:"slots"`
	Revenue      int      `json:"revenue" yaml:"revenue"`
	Tokens       []string `json:"tokens,omitempty" yaml:"-"`
	Reservations []string `json:"reservations,omitempty" yaml:"reservations"`
}

// Free returns the number of slots neither tokened nor reserved.
func (c *City) Free() int {
	return c.Slots - len(c.Tokens) - len(c.Reservations)
}

func (c *City) Tokened(corp string) bool {
	return slices.Contains(c.Tokens, corp)
}

func (c *City) ReservedFor(corp string) bool {
	return slices.Contains(c.Reservations, corp)
}

// CanToken reports whether corp may put a token here.
func (c *City) CanToken(corp string) bool {
	if c.Tokened(corp) {
		return false
	}
	return c.ReservedFor(corp) || c.Free() > 0
}

// Place puts corp's token in the city, consuming its reservation if any.
func (c *City) Place(corp string) {
	if i := slices.Index(c.Reservations, corp); i >= 0 {
		c.Reservations = slices.Delete(c.Reservations, i, i+1)
	}
	c.Tokens = append(c.Tokens, corp)
}

func (c *City) RemoveAllReservations() {
	c.Reservations = nil
}

func (c *City) Copy() *City {
	cp := *c
	cp.Tokens = slices.Clone(c.Tokens)
	cp.Reservations = slices.Clone(c.Reservations)
	return &cp
}

// Tile is a track piece. Exits are the unrotated edges (0-5); Edges applies
// the rotation.
type Tile struct {
	ID       string  `json:"id" yaml:"id"`
	Color    Color   `json:"color" yaml:"color"`
	Exits    []int   `json:"exits,omitempty" yaml:"exits"`
	Rotation int     `json:"rotation,omitempty" yaml:"-"`
	Cities   []*City `json:"cities,omitempty" yaml:"cities"`
	Towns    []int   `json:"towns,omitempty" yaml:"towns"`
	Label    string  `json:"label,omitempty" yaml:"label"`
	Frame    *Frame  `json:"frame,omitempty" yaml:"frame"`
	// Offboard tiles are fixed map edges; they are never upgraded.
	Offboard bool `json:"offboard,omitempty" yaml:"offboard"`
}

// Edges returns the rotated exits in ascending order.
func (t *Tile) Edges() []int {
	edges := make([]int, 0, len(t.Exits))
	for _, e := range t.Exits {
		edges = append(edges, (e+t.Rotation)%6)
	}
	slices.Sort(edges)
	return slices.Compact(edges)
}

func (t *Tile) HasEdge(edge int) bool {
	return slices.Contains(t.Edges(), edge)
}

// Stops is the number of revenue locations on the tile.
func (t *Tile) Stops() int {
	return len(t.Cities) + len(t.Towns)
}

// StopRevenue is the value a train collects when stopping on this tile.
func (t *Tile) StopRevenue() int {
	best := 0
	for _, c := range t.Cities {
		best = max(best, c.Revenue)
	}
	for _, r := range t.Towns {
		best = max(best, r)
	}
	return best
}

// HasToken reports whether corp has a token in any city of the tile.
func (t *Tile) HasToken(corp string) bool {
	for _, c := range t.Cities {
		if c.Tokened(corp) {
			return true
		}
	}
	return false
}

// Blocks reports whether the tile stops corp's trains from passing through:
// every city is full and none of the tokens is corp's.
func (t *Tile) Blocks(corp string) bool {
	if len(t.Cities) == 0 {
		return false
	}
	for _, c := range t.Cities {
		if c.Tokened(corp) || c.Free() > 0 || c.ReservedFor(corp) {
			return false
		}
	}
	return true
}

// Rotated returns a copy of the tile at rotation r.
func (t *Tile) Rotated(r int) *Tile {
	cp := t.Copy()
	cp.Rotation = ((r % 6) + 6) % 6
	return cp
}

func (t *Tile) Copy() *Tile {
	cp := *t
	cp.Exits = slices.Clone(t.Exits)
	cp.Towns = slices.Clone(t.Towns)
	cp.Cities = make([]*City, len(t.Cities))
	for i, c := range t.Cities {
		cp.Cities[i] = c.Copy()
	}
	if t.Frame != nil {
		f := *t.Frame
		cp.Frame = &f
	}
	return &cp
}

func (t *Tile) String() string {
	return fmt.Sprintf("%s(%s,r%d)", t.ID, t.Color, t.Rotation)
}

// Catalog is the supply of upgrade tiles. A count of -1 is unlimited.
type Catalog struct {
	Tiles     []*Tile        `json:"tiles"`
	Remaining map[string]int `json:"remaining"`
}

func NewCatalog(tiles []*Tile, counts map[string]int) (*Catalog, error) {
	c := &Catalog{Remaining: make(map[string]int, len(tiles))}
	for _, t := range tiles {
		if _, dup := c.Remaining[t.ID]; dup {
			return nil, Misconfigured("tile %s defined twice", t.ID)
		}
		n, ok := counts[t.ID]
		if !ok {
			n = -1
		}
		c.Tiles = append(c.Tiles, t)
		c.Remaining[t.ID] = n
	}
	return c, nil
}

func (c *Catalog) Get(id string) (*Tile, bool) {
	for _, t := range c.Tiles {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

func (c *Catalog) Available(id string) bool {
	n, ok := c.Remaining[id]
	return ok && n != 0
}

// Take removes one copy of tile id from the supply and returns it at
// rotation r.
func (c *Catalog) Take(id string, r int) (*Tile, error) {
	t, ok := c.Get(id)
	if !ok {
		return nil, Violation(CodeUnknownTile, "unknown tile %s", id)
	}
	if !c.Available(id) {
		return nil, Violation(CodeTileUnavailable, "no %s tiles left", id)
	}
	if c.Remaining[id] > 0 {
		c.Remaining[id]--
	}
	return t.Rotated(r), nil
}

// Return puts a replaced tile back in the supply. Preprinted tiles are not
// part of the supply and are dropped.
func (c *Catalog) Return(t *Tile) {
	if t == nil {
		return
	}
	if n, ok := c.Remaining[t.ID]; ok && n >= 0 {
		c.Remaining[t.ID] = n + 1
	}
}

func (c *Catalog) Copy() *Catalog {
	cp := &Catalog{
		Tiles:     c.Tiles, // catalog definitions are never mutated
		Remaining: make(map[string]int, len(c.Remaining)),
	}
	for k, v := range c.Remaining {
		cp.Remaining[k] = v
	}
	return cp
}
