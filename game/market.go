package game

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// CellType modifies how events move a marker sitting on a cell.
type CellType string

const (
	CellPar         CellType = "par"
	CellIgnoreSale  CellType = "ignore_sale_unless_president"
	CellMaxOneDrop  CellType = "max_one_drop_unless_president"
	CellMaxTwoDrops CellType = "max_two_drops_unless_president"
	CellNoCertLimit CellType = "no_cert_limit"
	CellUnlimited   CellType = "unlimited"
	CellMultipleBuy CellType = "multiple_buy"
	CellEndgame     CellType = "endgame"
	CellClose       CellType = "close"
)

var cellSuffixes = map[byte]CellType{
	'p': CellPar,
	'y': CellNoCertLimit,
	'o': CellUnlimited,
	'b': CellMultipleBuy,
	'e': CellEndgame,
	'c': CellClose,
}

// Cell is one price box on the ladder.
type Cell struct {
	Row   int        `json:"row"`
	Col   int        `json:"col"`
	Price int        `json:"price"`
	Types []CellType `json:"types,omitempty"`
}

func (c *Cell) Is(t CellType) bool {
	return slices.Contains(c.Types, t)
}

// ParseCell reads the compact market notation: a price followed by single
// letter type suffixes, e.g. "100p" or "65y".
func ParseCell(s string) (*Cell, error) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	price, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil, Misconfigured("market cell %q has no price", s)
	}
	cell := &Cell{Price: price}
	for i := end; i < len(s); i++ {
		t, ok := cellSuffixes[s[i]]
		if !ok {
			return nil, Misconfigured("market cell %q has unknown suffix %q", s, s[i])
		}
		cell.Types = append(cell.Types, t)
	}
	return cell, nil
}

// Direction of a marker movement.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "right"
	}
}

// Move is a number of whole-cell steps in one direction.
type Move struct {
	Dir Direction `json:"dir"`
	N   int       `json:"n"`
}

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Market is the share price ladder. A single row is a 1-D ladder: up is right
// and down is left. Missing cells in a 2-D ladder are nil.
type Market struct {
	Cells     [][]*Cell           `json:"cells"`
	Positions map[string]Position `json:"positions"`
	// Arrivals orders markers that share a cell; lower arrived first.
	Arrivals map[string]int `json:"arrivals"`
	Seq      int            `json:"seq"`
}

// NewMarket creates and returns a new Market instance.
func NewMarket(rows [][]*Cell) (*Market, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, Misconfigured("market has no cells")
	}
	for r, row := range rows {
		for c, cell := range row {
			if cell == nil {
				continue
			}
			if cell.Price <= 0 {
				return nil, Misconfigured("market cell %d,%d has price %d", r, c, cell.Price)
			}
			cell.Row, cell.Col = r, c
		}
	}
	return &Market{
		Cells:     rows,
		Positions: make(map[string]Position),
		Arrivals:  make(map[string]int),
	}, nil
}

func (m *Market) OneD() bool {
	return len(m.Cells) == 1
}

// Cell returns the cell at (row, col) or nil when off the ladder.
func (m *Market) Cell(row, col int) *Cell {
	if row < 0 || row >= len(m.Cells) || col < 0 || col >= len(m.Cells[row]) {
		return nil
	}
	return m.Cells[row][col]
}

// CellOf returns corp's current cell.
func (m *Market) CellOf(corp string) (*Cell, error) {
	p, ok := m.Positions[corp]
	if !ok {
		return nil, Broken("%s has no share price", corp)
	}
	cell := m.Cell(p.Row, p.Col)
	if cell == nil {
		return nil, Broken("%s marker is off the market at %d,%d", corp, p.Row, p.Col)
	}
	return cell, nil
}

// Price returns corp's current share price, or 0 when it has none.
func (m *Market) Price(corp string) int {
	cell, err := m.CellOf(corp)
	if err != nil {
		return 0
	}
	return cell.Price
}

// Place puts corp's marker on cell, e.g. at par.
func (m *Market) Place(corp string, cell *Cell) {
	m.set(corp, Position{Row: cell.Row, Col: cell.Col})
}

func (m *Market) set(corp string, p Position) {
	m.Positions[corp] = p
	m.Seq++
	m.Arrivals[corp] = m.Seq
}

// ParCells returns the cells a corporation may par at, cheapest first.
func (m *Market) ParCells() []*Cell {
	var out []*Cell
	for _, row := range m.Cells {
		for _, c := range row {
			if c != nil && c.Is(CellPar) {
				out = append(out, c)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

func (m *Market) step(p Position, dir Direction) Position {
	if m.OneD() {
		switch dir {
		case Up, Right:
			if m.Cell(p.Row, p.Col+1) != nil {
				p.Col++
			}
		case Down, Left:
			if m.Cell(p.Row, p.Col-1) != nil {
				p.Col--
			}
		}
		return p
	}
	switch dir {
	case Up:
		if m.Cell(p.Row-1, p.Col) != nil {
			p.Row--
		}
	case Down:
		if m.Cell(p.Row+1, p.Col) != nil {
			p.Row++
		}
	case Right:
		if m.Cell(p.Row, p.Col+1) != nil {
			p.Col++
		} else {
			return m.step(p, Up)
		}
	case Left:
		if m.Cell(p.Row, p.Col-1) != nil {
			p.Col--
		} else {
			return m.step(p, Down)
		}
	}
	return p
}

// Move relocates corp's marker n cells in dir. Movement stops at the edge of
// the ladder. The returned cell is where the marker ends.
func (m *Market) Move(corp string, dir Direction, n int) (*Cell, error) {
	if n < 0 {
		return nil, Broken("negative market movement %d for %s", n, corp)
	}
	start, ok := m.Positions[corp]
	if !ok {
		return nil, Broken("%s has no share price", corp)
	}
	p := start
	for i := 0; i < n; i++ {
		p = m.step(p, dir)
	}
	if p != start {
		m.set(corp, p)
	}
	return m.CellOf(corp)
}

// Apply runs a sequence of moves.
func (m *Market) Apply(corp string, moves ...Move) (*Cell, error) {
	cell, err := m.CellOf(corp)
	if err != nil {
		return nil, err
	}
	for _, mv := range moves {
		if cell, err = m.Move(corp, mv.Dir, mv.N); err != nil {
			return nil, err
		}
	}
	return cell, nil
}

// SellDrops is the number of cells a sale of shares moves the marker from
// cell. Ledge types cap the drop when the seller is not the president.
func SellDrops(cell *Cell, shares int, byPresident bool) int {
	if shares <= 0 {
		return 0
	}
	if byPresident {
		return shares
	}
	switch {
	case cell.Is(CellIgnoreSale):
		return 0
	case cell.Is(CellMaxOneDrop):
		return 1
	case cell.Is(CellMaxTwoDrops):
		return min(shares, 2)
	}
	return shares
}

// SaleMoves converts a sale into marker moves under the given sell movement.
func SaleMoves(cell *Cell, shares int, byPresident bool, sm SellMovement) []Move {
	drops := SellDrops(cell, shares, byPresident)
	if drops == 0 {
		return nil
	}
	switch sm {
	case SellDownShare:
		return []Move{{Dir: Down, N: drops}}
	case SellLeftShare:
		return []Move{{Dir: Left, N: drops}}
	case SellDownBlock:
		return []Move{{Dir: Down, N: 1}}
	case SellLeftBlock:
		return []Move{{Dir: Left, N: 1}}
	case SellLeftBlockPres:
		if byPresident {
			return []Move{{Dir: Left, N: 1}}
		}
	}
	return nil
}

// DividendMoves is the shared three tier chart: nothing paid drops one,
// at least the share price rises one, at least twice the price rises two.
func DividendMoves(paid, price int) []Move {
	switch {
	case paid <= 0:
		return []Move{{Dir: Left, N: 1}}
	case paid >= 2*price:
		return []Move{{Dir: Right, N: 2}}
	case paid >= price:
		return []Move{{Dir: Right, N: 1}}
	}
	return nil
}

// OperatingOrder sorts corporation ids by price descending, then further
// right, then higher row, then earlier arrival on the cell. Corporations
// without a price keep their relative order after the rest.
func (m *Market) OperatingOrder(ids []string) []string {
	out := slices.Clone(ids)
	sort.SliceStable(out, func(i, j int) bool {
		pi, iok := m.Positions[out[i]]
		pj, jok := m.Positions[out[j]]
		if !iok || !jok {
			return iok && !jok
		}
		ci, cj := m.Cell(pi.Row, pi.Col), m.Cell(pj.Row, pj.Col)
		if ci.Price != cj.Price {
			return ci.Price > cj.Price
		}
		if pi.Col != pj.Col {
			return pi.Col > pj.Col
		}
		if pi.Row != pj.Row {
			return pi.Row < pj.Row
		}
		return m.Arrivals[out[i]] < m.Arrivals[out[j]]
	})
	return out
}

func (m *Market) Copy() *Market {
	cp := &Market{
		Cells:     m.Cells, // cells are never mutated after NewMarket
		Positions: make(map[string]Position, len(m.Positions)),
		Arrivals:  make(map[string]int, len(m.Arrivals)),
		Seq:       m.Seq,
	}
	for k, v := range m.Positions {
		cp.Positions[k] = v
	}
	for k, v := range m.Arrivals {
		cp.Arrivals[k] = v
	}
	return cp
}
