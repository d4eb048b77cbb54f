package game

// Network is the part of the map a corporation can reach by track from its
// tokens.
type Network struct {
	// Hexes reachable from a token, including the token hexes.
	Hexes map[string]bool
	// Entries maps a hex id to the edges of that hex that face track leaving
	// a reachable hex. Laying track on one of these edges connects to the
	// network.
	Entries map[string][]int
}

func (n Network) Reaches(hex string) bool {
	return n.Hexes[hex]
}

// ConnectsAt reports whether track on edge of hex would join the network.
func (n Network) ConnectsAt(hex string, edge int) bool {
	for _, e := range n.Entries[hex] {
		if e == edge {
			return true
		}
	}
	return false
}

// Network walks track outward from every hex holding one of corp's tokens.
// Cities filled with other corporations' tokens can be reached but not
// passed through.
func (m *Map) Network(corp string) Network {
	net := Network{
		Hexes:   make(map[string]bool),
		Entries: make(map[string][]int),
	}
	queue := m.TokenHexes(corp)
	for _, h := range queue {
		net.Hexes[h.ID] = true
	}

	// Just BFS
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.Tile == nil || (current.Tile.Blocks(corp) && !current.Tile.HasToken(corp)) {
			continue
		}
		for _, edge := range current.Tile.Edges() {
			n := m.Neighbor(current, edge)
			if n == nil {
				continue
			}
			net.Entries[n.ID] = append(net.Entries[n.ID], Opposite(edge))
			if next, ok := m.Linked(current, edge); ok && !net.Hexes[next.ID] {
				net.Hexes[next.ID] = true
				queue = append(queue, next)
			}
		}
	}
	return net
}
