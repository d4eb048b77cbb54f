package step

import (
	"sort"
	"sync"

	"railway/game"

	"golang.org/x/exp/slices"
)

// Router validates and values the routes a corporation runs. Route finding
// may be as expensive as it likes; the step waits for the answer.
type Router interface {
	Revenue(gs *game.GameState, corp *game.Corporation, routes []game.Route) (int, error)
}

// StopRouter is the shared route check: each route follows linked track
// through distinct hexes, touches one of the corporation's tokens, stops at no
// more places than the train's distance and shares no track with other
// routes.
type StopRouter struct{}

type segment struct{ a, b string }

func seg(a, b string) segment {
	if a > b {
		a, b = b, a
	}
	return segment{a, b}
}

func (StopRouter) Revenue(gs *game.GameState, corp *game.Corporation, routes []game.Route) (int, error) {
	usedTrains := make(map[string]bool)
	usedSegments := make(map[segment]bool)
	total := 0
	for _, r := range routes {
		train, ok := corp.Train(r.Train)
		if !ok {
			return 0, game.Violation(game.CodeIllegalRoute, "%s does not own train %s", corp.ID, r.Train)
		}
		if usedTrains[r.Train] {
			return 0, game.Violation(game.CodeIllegalRoute, "train %s runs twice", r.Train)
		}
		usedTrains[r.Train] = true

		value, segs, err := routeValue(gs, corp, train, r.Hexes)
		if err != nil {
			return 0, err
		}
		for _, s := range segs {
			if usedSegments[s] {
				return 0, game.Violation(game.CodeIllegalRoute, "track %s-%s is used twice", s.a, s.b)
			}
			usedSegments[s] = true
		}
		total += value
	}
	return total, nil
}

func routeValue(gs *game.GameState, corp *game.Corporation, train *game.Train, ids []string) (int, []segment, error) {
	if len(ids) < 2 {
		return 0, nil, game.Violation(game.CodeIllegalRoute, "route for %s is too short", train.ID)
	}
	hexes := make([]*game.Hex, len(ids))
	for i, id := range ids {
		h, err := gs.Hex(id)
		if err != nil {
			return 0, nil, err
		}
		if slices.Contains(ids[:i], id) {
			return 0, nil, game.Violation(game.CodeIllegalRoute, "route for %s visits %s twice", train.ID, id)
		}
		hexes[i] = h
	}

	var segs []segment
	for i := 1; i < len(hexes); i++ {
		edge, ok := gs.Map.Adjacent(hexes[i-1], hexes[i])
		if !ok {
			return 0, nil, game.Violation(game.CodeIllegalRoute, "%s and %s are not adjacent", hexes[i-1].ID, hexes[i].ID)
		}
		if _, linked := gs.Map.Linked(hexes[i-1], edge); !linked {
			return 0, nil, game.Violation(game.CodeIllegalRoute, "no track between %s and %s", hexes[i-1].ID, hexes[i].ID)
		}
		segs = append(segs, seg(hexes[i-1].ID, hexes[i].ID))
	}

	tokened := false
	stops, value := 0, 0
	for i, h := range hexes {
		if h.Tile.HasToken(corp.ID) {
			tokened = true
		}
		inner := i > 0 && i < len(hexes)-1
		if inner && h.Tile.Blocks(corp.ID) {
			return 0, nil, game.Violation(game.CodeIllegalRoute, "%s is blocked for %s", h.ID, corp.ID)
		}
		if h.Tile.Stops() > 0 {
			stops++
			value += h.Tile.StopRevenue()
		}
	}
	if !tokened {
		return 0, nil, game.Violation(game.CodeIllegalRoute, "route for %s does not touch a %s token", train.ID, corp.ID)
	}
	if stops < 2 {
		return 0, nil, game.Violation(game.CodeIllegalRoute, "route for %s needs two stops", train.ID)
	}
	if stops > train.Distance {
		return 0, nil, game.Violation(game.CodeIllegalRoute, "train %s cannot run %d stops", train.ID, stops)
	}
	return value, segs, nil
}

// AutoRouter searches for the best routes with a pool of goroutines, one
// token hex per job.
// Trains are assigned longest first; later trains avoid track already used.
type AutoRouter struct {
	goroutines int
}

type autoOption func(*AutoRouter)

func WithGoroutines(goroutines int) autoOption {
	return func(a *AutoRouter) {
		a.goroutines = goroutines
	}
}

// NewAutoRouter creates and returns a new AutoRouter instance.
func NewAutoRouter(options ...autoOption) *AutoRouter {
	a := &AutoRouter{goroutines: 4}
	for _, option := range options {
		option(a)
	}
	return a
}

type candidate struct {
	hexes []string
	value int
}

// Find returns routes for corp's trains. Trains without a route are left out.
func (a *AutoRouter) Find(gs *game.GameState, corp *game.Corporation) []game.Route {
	trains := slices.Clone(corp.Trains)
	sort.SliceStable(trains, func(i, j int) bool { return trains[i].Distance > trains[j].Distance })

	used := make(map[segment]bool)
	var routes []game.Route
	for _, t := range trains {
		best := a.search(gs, corp, t, used)
		if best == nil {
			continue
		}
		for i := 1; i < len(best.hexes); i++ {
			used[seg(best.hexes[i-1], best.hexes[i])] = true
		}
		routes = append(routes, game.Route{Train: t.ID, Hexes: best.hexes})
	}
	return routes
}

func (a *AutoRouter) search(gs *game.GameState, corp *game.Corporation, t *game.Train, used map[segment]bool) *candidate {
	starts := gs.Map.TokenHexes(corp.ID)
	jobs := make(chan *game.Hex)
	results := make(chan *candidate, len(starts))

	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for start := range jobs {
			results <- a.walk(gs, corp, t, start, used)
		}
	}
	for i := 0; i < max(1, a.goroutines); i++ {
		wg.Add(1)
		go worker()
	}
	for _, s := range starts {
		jobs <- s
	}
	close(jobs)
	wg.Wait()
	close(results)

	var best *candidate
	for c := range results {
		if c != nil && (best == nil || c.value > best.value || (c.value == best.value && better(c, best))) {
			best = c
		}
	}
	return best
}

// better breaks value ties so the search result does not depend on goroutine
// scheduling.
func better(a, b *candidate) bool {
	if len(a.hexes) != len(b.hexes) {
		return len(a.hexes) < len(b.hexes)
	}
	return slices.Compare(a.hexes, b.hexes) < 0
}

// walk does a depth first search of the simple paths leaving start and keeps
// the most valuable legal one.
func (a *AutoRouter) walk(gs *game.GameState, corp *game.Corporation, t *game.Train, start *game.Hex, used map[segment]bool) *candidate {
	var best *candidate
	path := []string{start.ID}
	var visit func(h *game.Hex)
	visit = func(h *game.Hex) {
		if len(path) >= 2 {
			if value, _, err := routeValue(gs, corp, t, path); err == nil {
				c := &candidate{hexes: slices.Clone(path), value: value}
				if best == nil || c.value > best.value || (c.value == best.value && better(c, best)) {
					best = c
				}
			}
		}
		if len(path) > 1 && h.Tile.Blocks(corp.ID) {
			return
		}
		for _, e := range h.Tile.Edges() {
			next, ok := gs.Map.Linked(h, e)
			if !ok || slices.Contains(path, next.ID) || used[seg(h.ID, next.ID)] {
				continue
			}
			path = append(path, next.ID)
			if stopsOn(gs, path) <= t.Distance {
				visit(next)
			}
			path = path[:len(path)-1]
		}
	}
	visit(start)
	return best
}

func stopsOn(gs *game.GameState, ids []string) int {
	n := 0
	for _, id := range ids {
		if h, ok := gs.Map.Hex(id); ok && h.Tile != nil && h.Tile.Stops() > 0 {
			n++
		}
	}
	return n
}
