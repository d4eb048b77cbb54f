package title

import (
	"railway/game"

	"gopkg.in/yaml.v3"
)

// cellSpec is one market box in a title file: either the compact string form
// ("100p", "65y") or a mapping with a price and a list of types. An empty
// string leaves a hole in a 2-D market.
type cellSpec struct {
	price int
	types []game.CellType
	hole  bool
}

func (c *cellSpec) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" {
			c.hole = true
			return nil
		}
		cell, err := game.ParseCell(n.Value)
		if err != nil {
			return err
		}
		c.price, c.types = cell.Price, cell.Types
		return nil
	case yaml.MappingNode:
		var raw struct {
			Price int             `yaml:"price"`
			Types []game.CellType `yaml:"types"`
		}
		if err := n.Decode(&raw); err != nil {
			return err
		}
		c.price, c.types = raw.Price, raw.Types
		return nil
	default:
		return game.Misconfigured("market cell at line %d is neither a string nor a mapping", n.Line)
	}
}

// buildCells makes fresh cells for one game.
func buildCells(rows [][]cellSpec) [][]*game.Cell {
	out := make([][]*game.Cell, len(rows))
	for r, row := range rows {
		out[r] = make([]*game.Cell, len(row))
		for c, spec := range row {
			if spec.hole {
				continue
			}
			out[r][c] = &game.Cell{Price: spec.price, Types: append([]game.CellType(nil), spec.types...)}
		}
	}
	return out
}
