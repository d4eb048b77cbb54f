package game

import "sort"

// NetWorth values a player's holdings: cash plus shares at the current price
// plus the face value of private companies they own.
func (gs *GameState) NetWorth(playerID string) int {
	worth := gs.CashOf(playerID)
	for _, c := range gs.Corporations {
		if n := c.Holders[playerID]; n > 0 && !c.Closed {
			worth += n * gs.Market.Price(c.ID)
		}
	}
	for _, co := range gs.Companies {
		if co.Owner == playerID && !co.Closed {
			worth += co.Value
		}
	}
	return worth
}

type Standing struct {
	Player string `json:"player"`
	Worth  int    `json:"worth"`
}

// Standings ranks players by net worth, richest first. Bankrupt players rank
// last.
func (gs *GameState) Standings() []Standing {
	out := make([]Standing, 0, len(gs.Players))
	bankrupt := make(map[string]bool)
	for _, p := range gs.Players {
		out = append(out, Standing{Player: p.ID, Worth: gs.NetWorth(p.ID)})
		bankrupt[p.ID] = p.Bankrupt
	}
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := bankrupt[out[i].Player], bankrupt[out[j].Player]
		if bi != bj {
			return bj
		}
		return out[i].Worth > out[j].Worth
	})
	return out
}
