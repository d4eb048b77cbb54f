package game

import (
	"sort"

	"golang.org/x/exp/slices"
)

type CorpKind string

const (
	Major    CorpKind = "major"
	National CorpKind = "national"
	Minor    CorpKind = "minor"
)

// PresidentShares is the size of the president's certificate in shares.
const PresidentShares = 2

// Corporation is a railway company operating in the rounds. Shares are counted
// in whole units of TotalShares; the president's certificate counts as
// PresidentShares units.
type Corporation struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Kind        CorpKind       `json:"kind" yaml:"kind"`
	Cash        int            `json:"cash" yaml:"-"`
	TotalShares int            `json:"total_shares" yaml:"shares"`
	Treasury    int            `json:"treasury" yaml:"-"`
	Pool        int            `json:"pool" yaml:"-"`
	Holders     map[string]int `json:"holders,omitempty" yaml:"-"`
	President   string         `json:"president,omitempty" yaml:"-"`
	Trains      []*Train       `json:"trains,omitempty" yaml:"-"`
	// Tokens is the number of station tokens not yet on the map.
	Tokens   int    `json:"tokens" yaml:"tokens"`
	Home     string `json:"home,omitempty" yaml:"home"`
	HomeCity int    `json:"home_city,omitempty" yaml:"home_city"`
	// Region restricts where a national may build. Empty means anywhere.
	Region string `json:"region,omitempty" yaml:"region"`
	// Rights lists regions the corporation needs explicit rights in and the
	// ones it holds. A hex whose region is in Requires but not in Rights is
	// off limits.
	Requires []string `json:"requires,omitempty" yaml:"requires"`
	Rights   []string `json:"rights,omitempty" yaml:"rights"`
	Loans    int      `json:"loans,omitempty" yaml:"-"`
	MaxLoans int      `json:"max_loans,omitempty" yaml:"max_loans"`
	Floated  bool     `json:"floated,omitempty" yaml:"-"`
	Closed   bool     `json:"closed,omitempty" yaml:"-"`
	// HomeLaid is set once the home token is on the map.
	HomeLaid bool `json:"home_laid,omitempty" yaml:"-"`
}

// PlayerShares is the number of shares held by players.
func (c *Corporation) PlayerShares() int {
	n := 0
	for _, s := range c.Holders {
		n += s
	}
	return n
}

// Operates reports whether the corporation takes turns in operating rounds.
func (c *Corporation) Operates() bool {
	return c.Floated && !c.Closed
}

// LoanCapacity is the number of loans the corporation could still take.
func (c *Corporation) LoanCapacity() int {
	return max(0, c.MaxLoans-c.Loans)
}

// HoldsRights reports whether the corporation may operate in region.
func (c *Corporation) HoldsRights(region string) bool {
	if !slices.Contains(c.Requires, region) {
		return true
	}
	return slices.Contains(c.Rights, region)
}

// Train returns the corporation's train with id.
func (c *Corporation) Train(id string) (*Train, bool) {
	for _, t := range c.Trains {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

func (c *Corporation) RemoveTrain(id string) (*Train, bool) {
	for i, t := range c.Trains {
		if t.ID == id {
			c.Trains = slices.Delete(c.Trains, i, i+1)
			return t, true
		}
	}
	return nil, false
}

// Shareholders returns holder ids ordered by holding, largest first, ties by
// id.
func (c *Corporation) Shareholders() []string {
	ids := make([]string, 0, len(c.Holders))
	for id, n := range c.Holders {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if c.Holders[ids[i]] != c.Holders[ids[j]] {
			return c.Holders[ids[i]] > c.Holders[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

func (c *Corporation) Copy() *Corporation {
	cp := *c
	cp.Holders = make(map[string]int, len(c.Holders))
	for k, v := range c.Holders {
		cp.Holders[k] = v
	}
	cp.Trains = make([]*Train, len(c.Trains))
	for i, t := range c.Trains {
		cp.Trains[i] = t.Copy()
	}
	cp.Requires = slices.Clone(c.Requires)
	cp.Rights = slices.Clone(c.Rights)
	return &cp
}

type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Cash     int    `json:"cash"`
	Bankrupt bool   `json:"bankrupt,omitempty"`
}

// Company is a private company. Owner is a player or corporation id.
type Company struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Value   int    `json:"value" yaml:"value"`
	Revenue int    `json:"revenue" yaml:"revenue"`
	Owner   string `json:"owner,omitempty" yaml:"-"`
	Closed  bool   `json:"closed,omitempty" yaml:"-"`
}
