package game

import (
	"encoding/binary"
	"hash/fnv"
	"sort"
)

type StateHash uint64

// GameEnd records that an end condition was hit and when it takes effect.
type GameEnd struct {
	Reason string `json:"reason"`
	Timing string `json:"timing"`
}

// GameState is everything that changes during play: the map, the market, the
// roster and the bank. Steps mutate a copy; the engine commits it once the
// action succeeds.
type GameState struct {
	Rules        *Rules         `json:"rules"` // shared, never mutated
	Map          *Map           `json:"map"`
	Catalog      *Catalog       `json:"catalog"`
	Market       *Market        `json:"market"`
	Corporations []*Corporation `json:"corporations"`
	Players      []*Player      `json:"players"`
	Companies    []*Company     `json:"companies,omitempty"`
	Depot        *Depot         `json:"depot"`
	Phases       []Phase        `json:"phases"`
	PhaseIndex   int            `json:"phase_index"`
	Bank         Bank           `json:"bank"`
	// LastRound is set while the final operating round of a triggered game
	// end is being played.
	LastRound bool     `json:"last_round,omitempty"`
	End       *GameEnd `json:"end,omitempty"`
	Finished  bool     `json:"finished,omitempty"`
}

// NewGameState checks the pieces fit together and returns the initial state.
func NewGameState(rules *Rules, m *Map, catalog *Catalog, market *Market, depot *Depot, phases []Phase) (*GameState, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if err := validatePhases(phases); err != nil {
		return nil, err
	}
	for hex := range rules.ReleaseReservations {
		if _, ok := m.Hex(hex); !ok {
			return nil, Misconfigured("%s: reservation release names unknown hex %s", rules.Title, hex)
		}
	}
	for _, tr := range rules.Triggers {
		for _, hex := range tr.Hexes {
			if _, ok := m.Hex(hex); !ok {
				return nil, Misconfigured("%s: trigger names unknown hex %s", rules.Title, hex)
			}
		}
	}
	return &GameState{
		Rules:   rules,
		Map:     m,
		Catalog: catalog,
		Market:  market,
		Depot:   depot,
		Phases:  phases,
	}, nil
}

func (gs *GameState) Copy() *GameState {
	corps := make([]*Corporation, len(gs.Corporations))
	for i, c := range gs.Corporations {
		corps[i] = c.Copy()
	}
	players := make([]*Player, len(gs.Players))
	for i, p := range gs.Players {
		cp := *p
		players[i] = &cp
	}
	companies := make([]*Company, len(gs.Companies))
	for i, c := range gs.Companies {
		cp := *c
		companies[i] = &cp
	}
	var end *GameEnd
	if gs.End != nil {
		e := *gs.End
		end = &e
	}
	return &GameState{
		Rules:        gs.Rules,
		Map:          gs.Map.Copy(),
		Catalog:      gs.Catalog.Copy(),
		Market:       gs.Market.Copy(),
		Corporations: corps,
		Players:      players,
		Companies:    companies,
		Depot:        gs.Depot.Copy(),
		Phases:       gs.Phases, // Phases are immutable
		PhaseIndex:   gs.PhaseIndex,
		Bank:         gs.Bank,
		LastRound:    gs.LastRound,
		End:          end,
		Finished:     gs.Finished,
	}
}

// Hash fingerprints the mutable parts of the state.
func (gs *GameState) Hash() StateHash {
	hasher := fnv.New64a()
	writeString := func(s string) {
		hasher.Write([]byte(s))
		hasher.Write([]byte{0})
	}
	writeInt := func(n int) {
		binary.Write(hasher, binary.LittleEndian, int64(n))
	}
	writeBool := func(b bool) {
		if b {
			hasher.Write([]byte{1})
		} else {
			hasher.Write([]byte{0})
		}
	}

	// Hash tiles and tokens
	for _, h := range gs.Map.Hexes {
		if h.Tile == nil {
			continue
		}
		writeString(h.ID)
		writeString(h.Tile.ID)
		writeInt(h.Tile.Rotation)
		writeString(h.Tile.Label)
		for _, c := range h.Tile.Cities {
			for _, t := range c.Tokens {
				writeString(t)
			}
			writeInt(len(c.Reservations))
		}
	}

	// Hash corporations, in roster order
	for _, c := range gs.Corporations {
		writeString(c.ID)
		writeInt(c.Cash)
		writeInt(c.Treasury)
		writeInt(c.Pool)
		writeInt(c.Loans)
		writeInt(c.Tokens)
		writeString(c.President)
		writeBool(c.Closed)
		for _, id := range c.Shareholders() {
			writeString(id)
			writeInt(c.Holders[id])
		}
		for _, t := range c.Trains {
			writeString(t.ID)
			writeBool(t.Operated)
		}
		if p, ok := gs.Market.Positions[c.ID]; ok {
			writeInt(p.Row)
			writeInt(p.Col)
		}
	}

	for _, p := range gs.Players {
		writeString(p.ID)
		writeInt(p.Cash)
	}
	for _, c := range gs.Companies {
		writeString(c.Owner)
		writeBool(c.Closed)
	}

	// Hash catalog counts
	ids := make([]string, 0, len(gs.Catalog.Remaining))
	for id := range gs.Catalog.Remaining {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		writeString(id)
		writeInt(gs.Catalog.Remaining[id])
	}

	writeInt(len(gs.Depot.Upcoming))
	writeInt(len(gs.Depot.Discarded))
	writeInt(gs.PhaseIndex)
	writeInt(gs.Bank.Cash)

	// Hash the end of game
	writeBool(gs.LastRound)
	writeBool(gs.Finished)
	if gs.End != nil {
		writeString(gs.End.Reason)
		writeString(gs.End.Timing)
	}

	return StateHash(hasher.Sum64())
}

func (gs *GameState) Phase() *Phase {
	return &gs.Phases[gs.PhaseIndex]
}

func (gs *GameState) Corporation(id string) (*Corporation, error) {
	for _, c := range gs.Corporations {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, Violation(CodeUnknownEntity, "unknown corporation %s", id)
}

func (gs *GameState) Player(id string) (*Player, error) {
	for _, p := range gs.Players {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, Violation(CodeUnknownEntity, "unknown player %s", id)
}

func (gs *GameState) Company(id string) (*Company, error) {
	for _, c := range gs.Companies {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, Violation(CodeIllegalCompany, "unknown company %s", id)
}

// Hex returns the hex or a violation naming it.
func (gs *GameState) Hex(id string) (*Hex, error) {
	h, ok := gs.Map.Hex(id)
	if !ok {
		return nil, Violation(CodeUnknownHex, "unknown hex %s", id)
	}
	return h, nil
}

// Found floats corp at par with president holding the president's
// certificate. Stock rounds are run elsewhere; this is the handover point.
func (gs *GameState) Found(corpID, presidentID string, par int) error {
	corp, err := gs.Corporation(corpID)
	if err != nil {
		return err
	}
	if corp.Floated {
		return Violation(CodeIllegalShares, "%s has already floated", corp.ID)
	}
	if _, err := gs.Player(presidentID); err != nil {
		return err
	}
	var cell *Cell
	for _, c := range gs.Market.ParCells() {
		if c.Price == par {
			cell = c
			break
		}
	}
	if cell == nil {
		return Violation(CodeIllegalShares, "%s is not a par price", gs.Rules.Format(par))
	}
	if err := gs.Transfer(presidentID, corp.ID, par*PresidentShares); err != nil {
		return err
	}
	if gs.Rules.Capitalization == FullCap {
		rest := par * (corp.TotalShares - PresidentShares)
		if err := gs.Transfer(BankID, corp.ID, rest); err != nil {
			return err
		}
	}
	if corp.Holders == nil {
		corp.Holders = make(map[string]int)
	}
	corp.Holders[presidentID] += PresidentShares
	corp.Treasury = corp.TotalShares - corp.PlayerShares() - corp.Pool
	corp.President = presidentID
	corp.Floated = true
	gs.Market.Place(corp.ID, cell)
	return nil
}

// SellShares sells n of seller's shares of corp to the pool and moves the
// price. The presidency passes to the largest other holder if the seller
// drops below the president's certificate.
func (gs *GameState) SellShares(sellerID, corpID string, n int) ([]Event, error) {
	corp, err := gs.Corporation(corpID)
	if err != nil {
		return nil, err
	}
	if n <= 0 || corp.Holders[sellerID] < n {
		return nil, Violation(CodeIllegalShares, "%s does not hold %d shares of %s", sellerID, n, corp.ID)
	}
	if corp.Pool+n > gs.Rules.MarketShareLimit {
		return nil, Violation(CodeIllegalShares, "market cannot hold %d more shares of %s", n, corp.ID)
	}
	wasPresident := corp.President == sellerID
	if wasPresident && corp.Holders[sellerID]-n < PresidentShares {
		successor := ""
		for _, id := range corp.Shareholders() {
			if id != sellerID && corp.Holders[id] >= PresidentShares {
				successor = id
				break
			}
		}
		if successor == "" {
			return nil, Violation(CodeIllegalShares, "nobody can take the presidency of %s", corp.ID)
		}
		corp.President = successor
	}
	cell, err := gs.Market.CellOf(corp.ID)
	if err != nil {
		return nil, err
	}
	if err := gs.Transfer(BankID, sellerID, cell.Price*n); err != nil {
		return nil, err
	}
	corp.Holders[sellerID] -= n
	if corp.Holders[sellerID] == 0 {
		delete(corp.Holders, sellerID)
	}
	corp.Pool += n

	events := []Event{{Type: "shares_sold", Entity: sellerID, Data: map[string]any{
		"corporation": corp.ID, "shares": n, "price": cell.Price,
	}}}
	if corp.President != sellerID && wasPresident {
		events = append(events, Event{Type: "president_changed", Entity: corp.President, Data: map[string]any{"corporation": corp.ID}})
	}
	moved, err := gs.MoveShare(corp.ID, SaleMoves(cell, n, wasPresident, gs.Rules.SellMovement)...)
	if err != nil {
		return nil, err
	}
	return append(events, moved...), nil
}

// Issue sells n treasury shares to the pool at the current price.
func (gs *GameState) Issue(corpID string, n int) (int, error) {
	corp, err := gs.Corporation(corpID)
	if err != nil {
		return 0, err
	}
	if n <= 0 || n > corp.Treasury {
		return 0, Violation(CodeIllegalShares, "%s cannot issue %d shares", corp.ID, n)
	}
	if corp.Pool+n > gs.Rules.MarketShareLimit {
		return 0, Violation(CodeIllegalShares, "market cannot hold %d more shares of %s", n, corp.ID)
	}
	price := gs.Market.Price(corp.ID)
	if err := gs.Transfer(BankID, corp.ID, price*n); err != nil {
		return 0, err
	}
	corp.Treasury -= n
	corp.Pool += n
	return price * n, nil
}

// Redeem buys n pool shares back into the treasury at the current price.
func (gs *GameState) Redeem(corpID string, n int) (int, error) {
	corp, err := gs.Corporation(corpID)
	if err != nil {
		return 0, err
	}
	if n <= 0 || n > corp.Pool {
		return 0, Violation(CodeIllegalShares, "%s cannot redeem %d shares", corp.ID, n)
	}
	price := gs.Market.Price(corp.ID)
	if err := gs.Transfer(corp.ID, BankID, price*n); err != nil {
		return 0, err
	}
	corp.Pool -= n
	corp.Treasury += n
	return price * n, nil
}

// MoveShare applies marker moves to corp and emits an event when the price
// changed. Reaching an endgame cell triggers the end of the game.
func (gs *GameState) MoveShare(corpID string, moves ...Move) ([]Event, error) {
	before, err := gs.Market.CellOf(corpID)
	if err != nil {
		return nil, err
	}
	after, err := gs.Market.Apply(corpID, moves...)
	if err != nil {
		return nil, err
	}
	if after == before {
		return nil, nil
	}
	if after.Is(CellEndgame) {
		gs.TriggerEnd(EndStockMarket)
	}
	return []Event{gs.priceEvent(corpID, before, after)}, nil
}

func (gs *GameState) priceEvent(corp string, from, to *Cell) Event {
	return Event{Type: "price_changed", Entity: corp, Data: map[string]any{
		"from": from.Price, "to": to.Price,
	}}
}

// GainTrain hands a train to corp. A first train of a kind may start a new
// phase, rust older trains and fire roster events.
func (gs *GameState) GainTrain(corp *Corporation, t *Train) []Event {
	first := !gs.sold(t.Name)
	t.Owner = corp.ID
	corp.Trains = append(corp.Trains, t)
	if !first {
		return nil
	}

	var events []Event
	for i := gs.PhaseIndex + 1; i < len(gs.Phases); i++ {
		if gs.Phases[i].On == t.Name {
			events = append(events, gs.advancePhase(i)...)
			break
		}
	}
	for _, c := range gs.Corporations {
		kept := c.Trains[:0]
		for _, owned := range c.Trains {
			if owned.RustsOn == t.Name {
				events = append(events, Event{Type: "train_rusted", Entity: c.ID, Data: map[string]any{"train": owned.ID}})
				continue
			}
			kept = append(kept, owned)
		}
		c.Trains = kept
	}
	for _, ev := range t.Events {
		if ev == "close_companies" {
			events = append(events, gs.closeCompanies()...)
		}
	}
	return events
}

// AdvanceTo moves the game to the named phase if it lies ahead.
func (gs *GameState) AdvanceTo(name string) []Event {
	for i := gs.PhaseIndex + 1; i < len(gs.Phases); i++ {
		if gs.Phases[i].Name == name {
			return gs.advancePhase(i)
		}
	}
	return nil
}

func (gs *GameState) advancePhase(i int) []Event {
	gs.PhaseIndex = i
	if i == len(gs.Phases)-1 {
		gs.TriggerEnd(EndFinalPhase)
	}
	return []Event{{Type: "phase_changed", Data: map[string]any{"phase": gs.Phase().Name}}}
}

// sold reports whether any train named name has left the depot.
func (gs *GameState) sold(name string) bool {
	for _, c := range gs.Corporations {
		for _, t := range c.Trains {
			if t.Name == name {
				return true
			}
		}
	}
	for _, t := range gs.Depot.Discarded {
		if t.Name == name {
			return true
		}
	}
	return false
}

func (gs *GameState) closeCompanies() []Event {
	var events []Event
	for _, c := range gs.Companies {
		if !c.Closed {
			c.Closed = true
			events = append(events, Event{Type: "company_closed", Entity: c.ID})
		}
	}
	return events
}

// AfterLayTile re-checks phase triggers that depend on specific hexes.
func (gs *GameState) AfterLayTile(hex *Hex) []Event {
	var events []Event
	for _, tr := range gs.Rules.Triggers {
		relevant := false
		for _, id := range tr.Hexes {
			if id == hex.ID {
				relevant = true
			}
		}
		if !relevant {
			continue
		}
		all := true
		for _, id := range tr.Hexes {
			h, _ := gs.Map.Hex(id)
			if h.Color() < tr.Color {
				all = false
				break
			}
		}
		if all {
			events = append(events, gs.AdvanceTo(tr.Phase)...)
		}
	}
	return events
}

// TriggerEnd records an end condition. The first trigger wins. Conditions
// without a configured timing are ignored.
func (gs *GameState) TriggerEnd(reason string) {
	timing, ok := gs.Rules.GameEnd[reason]
	if !ok || gs.End != nil {
		return
	}
	gs.End = &GameEnd{Reason: reason, Timing: timing}
	if timing == EndImmediate {
		gs.Finished = true
	}
}

// Solvent players are those not bankrupt.
func (gs *GameState) Solvent() int {
	n := 0
	for _, p := range gs.Players {
		if !p.Bankrupt {
			n++
		}
	}
	return n
}
