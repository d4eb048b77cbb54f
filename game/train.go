package game

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// TrainSpec is a roster line: Num trains of one type.
type TrainSpec struct {
	Name     string `yaml:"name"`
	Distance int    `yaml:"distance"`
	Price    int    `yaml:"price"`
	RustsOn  string `yaml:"rusts_on"`
	Num      int    `yaml:"num"`
	// Discount is the trade-in allowance per train name.
	Discount map[string]int `yaml:"discount"`
	Events   []string       `yaml:"events"`
}

type Train struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Distance int            `json:"distance"`
	Price    int            `json:"price"`
	RustsOn  string         `json:"rusts_on,omitempty"`
	Discount map[string]int `json:"discount,omitempty"`
	Events   []string       `json:"events,omitempty"`
	Owner    string         `json:"owner,omitempty"`
	// Operated is set once the train has run in the current operating round.
	Operated bool `json:"operated,omitempty"`
}

func (t *Train) Copy() *Train {
	cp := *t
	// Discount and Events come from the roster and are never mutated
	return &cp
}

// Depot is the bank's supply of trains, in purchase order.
type Depot struct {
	Upcoming  []*Train `json:"upcoming"`
	Discarded []*Train `json:"discarded,omitempty"`
}

func NewDepot(specs []TrainSpec) (*Depot, error) {
	d := &Depot{}
	seen := make(map[string]bool)
	for _, s := range specs {
		if s.Name == "" || s.Num <= 0 || s.Price < 0 {
			return nil, Misconfigured("bad train spec %+v", s)
		}
		if seen[s.Name] {
			return nil, Misconfigured("train %s defined twice", s.Name)
		}
		seen[s.Name] = true
		for i := 0; i < s.Num; i++ {
			d.Upcoming = append(d.Upcoming, &Train{
				ID:       fmt.Sprintf("%s-%d", s.Name, i),
				Name:     s.Name,
				Distance: s.Distance,
				Price:    s.Price,
				RustsOn:  s.RustsOn,
				Discount: s.Discount,
				Events:   s.Events,
			})
		}
	}
	return d, nil
}

// Next is the next new train for sale, or nil when sold out.
func (d *Depot) Next() *Train {
	if len(d.Upcoming) == 0 {
		return nil
	}
	return d.Upcoming[0]
}

// Available lists the trains the bank will sell now: the next new train and
// every discarded train.
func (d *Depot) Available() []*Train {
	var out []*Train
	if next := d.Next(); next != nil {
		out = append(out, next)
	}
	return append(out, d.Discarded...)
}

// MinPrice is the cheapest available train price, or -1 when none.
func (d *Depot) MinPrice() int {
	best := -1
	for _, t := range d.Available() {
		if best < 0 || t.Price < best {
			best = t.Price
		}
	}
	return best
}

func (d *Depot) Get(id string) (*Train, bool) {
	for _, t := range d.Available() {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Remove takes an available train out of the depot.
func (d *Depot) Remove(id string) (*Train, error) {
	if len(d.Upcoming) > 0 && d.Upcoming[0].ID == id {
		t := d.Upcoming[0]
		d.Upcoming = d.Upcoming[1:]
		return t, nil
	}
	for i, t := range d.Discarded {
		if t.ID == id {
			d.Discarded = slices.Delete(d.Discarded, i, i+1)
			return t, nil
		}
	}
	return nil, Violation(CodeIllegalTrain, "train %s is not for sale", id)
}

// Discard returns a train to the bank's open market.
func (d *Depot) Discard(t *Train) {
	t.Owner = ""
	t.Operated = false
	d.Discarded = append(d.Discarded, t)
}

func (d *Depot) Copy() *Depot {
	cp := &Depot{
		Upcoming:  make([]*Train, len(d.Upcoming)),
		Discarded: make([]*Train, len(d.Discarded)),
	}
	for i, t := range d.Upcoming {
		cp.Upcoming[i] = t.Copy()
	}
	for i, t := range d.Discarded {
		cp.Discarded[i] = t.Copy()
	}
	return cp
}
