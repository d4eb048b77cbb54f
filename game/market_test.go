package game

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func ladder(t *testing.T, cells ...string) *Market {
	t.Helper()
	row := make([]*Cell, len(cells))
	for i, s := range cells {
		c, err := ParseCell(s)
		require.NoError(t, err)
		row[i] = c
	}
	m, err := NewMarket([][]*Cell{row})
	require.NoError(t, err)
	return m
}

func grid(t *testing.T, rows ...[]string) *Market {
	t.Helper()
	cells := make([][]*Cell, len(rows))
	for r, row := range rows {
		cells[r] = make([]*Cell, len(row))
		for c, s := range row {
			if s == "" {
				continue
			}
			cell, err := ParseCell(s)
			require.NoError(t, err)
			cells[r][c] = cell
		}
	}
	m, err := NewMarket(cells)
	require.NoError(t, err)
	return m
}

func TestParseCell(t *testing.T) {
	t.Run("price with suffixes", func(t *testing.T) {
		c, err := ParseCell("100pb")
		require.NoError(t, err)
		require.Equal(t, 100, c.Price)
		require.True(t, c.Is(CellPar))
		require.True(t, c.Is(CellMultipleBuy))
		require.False(t, c.Is(CellEndgame))
	})

	t.Run("unknown suffix", func(t *testing.T) {
		_, err := ParseCell("100q")
		require.Error(t, err)
		require.Equal(t, ConfigurationError, KindOf(err))
	})

	t.Run("no price", func(t *testing.T) {
		_, err := ParseCell("p")
		require.Error(t, err)
	})
}

func TestMarketOneD(t *testing.T) {
	t.Run("up and down move along the row", func(t *testing.T) {
		m := ladder(t, "50", "60", "70p", "80", "90")
		m.Place("A", m.Cell(0, 2))

		cell, err := m.Move("A", Up, 1)
		require.NoError(t, err)
		require.Equal(t, 80, cell.Price)

		cell, err = m.Move("A", Down, 2)
		require.NoError(t, err)
		require.Equal(t, 60, cell.Price)
	})

	t.Run("movement stops at the ends", func(t *testing.T) {
		m := ladder(t, "50", "60", "70p")
		m.Place("A", m.Cell(0, 1))

		cell, err := m.Move("A", Right, 5)
		require.NoError(t, err)
		require.Equal(t, 70, cell.Price)

		cell, err = m.Move("A", Left, 9)
		require.NoError(t, err)
		require.Equal(t, 50, cell.Price)
	})

	t.Run("negative movement is an invariant failure", func(t *testing.T) {
		m := ladder(t, "50", "60")
		m.Place("A", m.Cell(0, 0))
		_, err := m.Move("A", Up, -1)
		require.Equal(t, InvariantBroken, KindOf(err))
	})

	t.Run("unplaced marker", func(t *testing.T) {
		m := ladder(t, "50", "60")
		_, err := m.Move("A", Up, 1)
		require.Error(t, err)
		require.Equal(t, 0, m.Price("A"))
	})
}

func TestMarketTwoD(t *testing.T) {
	m := grid(t,
		[]string{"60", "70", "80", "90"},
		[]string{"55", "65", "75p", ""},
		[]string{"50", "60", "", ""},
	)

	t.Run("right at the row end goes up", func(t *testing.T) {
		m := m.Copy()
		m.Place("A", m.Cell(1, 2))
		cell, err := m.Move("A", Right, 1)
		require.NoError(t, err)
		require.Equal(t, Position{Row: 0, Col: 2}, m.Positions["A"])
		require.Equal(t, 80, cell.Price)
	})

	t.Run("left at the row start goes down", func(t *testing.T) {
		m := m.Copy()
		m.Place("A", m.Cell(1, 0))
		cell, err := m.Move("A", Left, 1)
		require.NoError(t, err)
		require.Equal(t, 50, cell.Price)
	})

	t.Run("down into a hole stays put", func(t *testing.T) {
		m := m.Copy()
		m.Place("A", m.Cell(1, 2))
		cell, err := m.Move("A", Down, 1)
		require.NoError(t, err)
		require.Equal(t, 75, cell.Price)
	})

	t.Run("up from the top row stays put", func(t *testing.T) {
		m := m.Copy()
		m.Place("A", m.Cell(0, 1))
		cell, err := m.Move("A", Up, 3)
		require.NoError(t, err)
		require.Equal(t, 70, cell.Price)
	})

	t.Run("par cells are listed cheapest first", func(t *testing.T) {
		pars := m.ParCells()
		require.Len(t, pars, 1)
		require.Equal(t, 75, pars[0].Price)
	})
}

func TestMarketStaysOnLadder(t *testing.T) {
	m := grid(t,
		[]string{"60", "70", "80", "90", "100"},
		[]string{"55", "65", "75p", "85", ""},
		[]string{"50", "60", "70", "", ""},
		[]string{"40", "45", "", "", ""},
	)
	m.Place("A", m.Cell(1, 2))
	r := rand.New(rand.NewSource(7))
	dirs := []Direction{Up, Down, Left, Right}
	for i := 0; i < 2000; i++ {
		cell, err := m.Move("A", dirs[r.Intn(len(dirs))], r.Intn(4))
		require.NoError(t, err)
		require.NotNil(t, cell)
		p := m.Positions["A"]
		require.Same(t, m.Cell(p.Row, p.Col), cell)
	}
}

func TestSaleMoves(t *testing.T) {
	plain, _ := ParseCell("100")

	t.Run("one cell per share", func(t *testing.T) {
		require.Equal(t, []Move{{Dir: Down, N: 3}}, SaleMoves(plain, 3, false, SellDownShare))
		require.Equal(t, []Move{{Dir: Left, N: 3}}, SaleMoves(plain, 3, false, SellLeftShare))
	})

	t.Run("one cell per block", func(t *testing.T) {
		require.Equal(t, []Move{{Dir: Down, N: 1}}, SaleMoves(plain, 3, false, SellDownBlock))
		require.Equal(t, []Move{{Dir: Left, N: 1}}, SaleMoves(plain, 3, false, SellLeftBlock))
	})

	t.Run("only presidents move the price", func(t *testing.T) {
		require.Nil(t, SaleMoves(plain, 2, false, SellLeftBlockPres))
		require.Equal(t, []Move{{Dir: Left, N: 1}}, SaleMoves(plain, 2, true, SellLeftBlockPres))
	})

	t.Run("no movement", func(t *testing.T) {
		require.Nil(t, SaleMoves(plain, 2, true, SellNone))
		require.Nil(t, SaleMoves(plain, 0, true, SellDownShare))
	})
}

func TestSellDrops(t *testing.T) {
	ignore := &Cell{Price: 50, Types: []CellType{CellIgnoreSale}}
	one := &Cell{Price: 50, Types: []CellType{CellMaxOneDrop}}
	two := &Cell{Price: 50, Types: []CellType{CellMaxTwoDrops}}

	t.Run("ledges cap drops for other sellers", func(t *testing.T) {
		require.Equal(t, 0, SellDrops(ignore, 3, false))
		require.Equal(t, 1, SellDrops(one, 3, false))
		require.Equal(t, 2, SellDrops(two, 3, false))
		require.Equal(t, 1, SellDrops(two, 1, false))
	})

	t.Run("presidents ignore ledges", func(t *testing.T) {
		require.Equal(t, 3, SellDrops(ignore, 3, true))
		require.Equal(t, 3, SellDrops(one, 3, true))
	})
}

func TestDividendMoves(t *testing.T) {
	tests := []struct {
		name  string
		paid  int
		price int
		want  []Move
	}{
		{"withheld", 0, 100, []Move{{Dir: Left, N: 1}}},
		{"below price", 99, 100, nil},
		{"at price", 100, 100, []Move{{Dir: Right, N: 1}}},
		{"double price", 200, 100, []Move{{Dir: Right, N: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DividendMoves(tt.paid, tt.price))
		})
	}
}

func TestOperatingOrder(t *testing.T) {
	m := grid(t,
		[]string{"60", "70", "80"},
		[]string{"55", "70", "75"},
	)
	m.Place("LOW", m.Cell(1, 0))
	m.Place("TOP", m.Cell(0, 1))
	m.Place("BOTTOM", m.Cell(1, 1))
	m.Place("FIRST", m.Cell(0, 2))
	m.Place("SECOND", m.Cell(0, 2))

	got := m.OperatingOrder([]string{"LOW", "BOTTOM", "TOP", "SECOND", "FIRST", "NONE"})
	require.Equal(t, []string{"FIRST", "SECOND", "TOP", "BOTTOM", "LOW", "NONE"}, got)

	t.Run("copy is independent", func(t *testing.T) {
		cp := m.Copy()
		_, err := cp.Move("LOW", Right, 1)
		require.NoError(t, err)
		require.Equal(t, 55, m.Price("LOW"))
		require.Equal(t, 70, cp.Price("LOW"))
	})
}
