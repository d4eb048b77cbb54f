package game

import (
	"encoding/json"

	"golang.org/x/exp/slices"
)

// Coord is an axial hex coordinate.
type Coord struct {
	Q int `json:"q" yaml:"q"`
	R int `json:"r" yaml:"r"`
}

// neighbor offsets indexed by edge; edge e faces edge (e+3)%6 of the
// neighbouring hex
var directions = [6]Coord{
	{Q: 0, R: 1},
	{Q: -1, R: 1},
	{Q: -1, R: 0},
	{Q: 0, R: -1},
	{Q: 1, R: -1},
	{Q: 1, R: 0},
}

// Opposite returns the edge of the neighbouring hex that faces edge.
func Opposite(edge int) int {
	return (edge + 3) % 6
}

func (c Coord) Neighbor(edge int) Coord {
	d := directions[((edge%6)+6)%6]
	return Coord{Q: c.Q + d.Q, R: c.R + d.R}
}

// Hex is one cell of the map.
type Hex struct {
	ID          string `json:"id"`
	Coord       Coord  `json:"coord"`
	Tile        *Tile  `json:"tile,omitempty"`
	Cost        int    `json:"cost,omitempty"`
	UpgradeCost int    `json:"upgrade_cost,omitempty"`
	Region      string `json:"region,omitempty"`
	Blocked     []int  `json:"blocked,omitempty"`
}

// Bare reports whether the next lay on the hex is a first lay rather than an
// upgrade.
func (h *Hex) Bare() bool {
	return h.Tile == nil || h.Tile.Color == White
}

func (h *Hex) Color() Color {
	if h.Tile == nil {
		return White
	}
	return h.Tile.Color
}

func (h *Hex) Label() string {
	if h.Tile == nil {
		return ""
	}
	return h.Tile.Label
}

func (h *Hex) IsBlocked(edge int) bool {
	return slices.Contains(h.Blocked, edge)
}

func (h *Hex) Copy() *Hex {
	cp := *h
	cp.Blocked = slices.Clone(h.Blocked)
	if h.Tile != nil {
		cp.Tile = h.Tile.Copy()
	}
	return &cp
}

// Map is the static hex graph with the tiles currently laid.
type Map struct {
	Hexes []*Hex `json:"hexes"`

	byID    map[string]*Hex
	byCoord map[Coord]*Hex
}

// NewMap creates and returns a new Map instance.
func NewMap(hexes ...*Hex) (*Map, error) {
	m := &Map{Hexes: hexes}
	if err := m.index(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Map) index() error {
	m.byID = make(map[string]*Hex, len(m.Hexes))
	m.byCoord = make(map[Coord]*Hex, len(m.Hexes))
	for _, h := range m.Hexes {
		if _, dup := m.byID[h.ID]; dup {
			return Misconfigured("hex %s defined twice", h.ID)
		}
		if _, dup := m.byCoord[h.Coord]; dup {
			return Misconfigured("hex %s overlaps coordinate %v", h.ID, h.Coord)
		}
		m.byID[h.ID] = h
		m.byCoord[h.Coord] = h
	}
	return nil
}

func (m *Map) UnmarshalJSON(b []byte) error {
	type plain Map
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = Map(p)
	return m.index()
}

func (m *Map) Hex(id string) (*Hex, bool) {
	h, ok := m.byID[id]
	return h, ok
}

// Neighbor returns the hex across edge, or nil at the map border.
func (m *Map) Neighbor(h *Hex, edge int) *Hex {
	return m.byCoord[h.Coord.Neighbor(edge)]
}

// Linked returns the neighbour across edge when both tiles carry track over
// the shared edge.
func (m *Map) Linked(h *Hex, edge int) (*Hex, bool) {
	if h.Tile == nil || !h.Tile.HasEdge(edge) {
		return nil, false
	}
	n := m.Neighbor(h, edge)
	if n == nil || n.Tile == nil || !n.Tile.HasEdge(Opposite(edge)) {
		return nil, false
	}
	return n, true
}

// Adjacent reports whether two hexes share an edge and returns it.
func (m *Map) Adjacent(a, b *Hex) (int, bool) {
	for e := 0; e < 6; e++ {
		if m.Neighbor(a, e) == b {
			return e, true
		}
	}
	return 0, false
}

// TokenHexes returns the hexes holding one of corp's tokens.
func (m *Map) TokenHexes(corp string) []*Hex {
	var out []*Hex
	for _, h := range m.Hexes {
		if h.Tile != nil && h.Tile.HasToken(corp) {
			out = append(out, h)
		}
	}
	return out
}

func (m *Map) Copy() *Map {
	hexes := make([]*Hex, len(m.Hexes))
	for i, h := range m.Hexes {
		hexes[i] = h.Copy()
	}
	cp := &Map{Hexes: hexes}
	// indexes were valid on m, so they are valid on the copy
	_ = cp.index()
	return cp
}
