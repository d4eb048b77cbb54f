package game

import "fmt"

type ActionKind string

const (
	LayTile         ActionKind = "lay-tile"
	PlaceToken      ActionKind = "place-token"
	RunRoute        ActionKind = "run-route"
	PayDividend     ActionKind = "pay-dividend"
	BuyTrain        ActionKind = "buy-train"
	DiscardTrain    ActionKind = "discard-train"
	IssueShares     ActionKind = "issue-shares"
	RedeemShares    ActionKind = "redeem-shares"
	SellShares      ActionKind = "sell-shares"
	BuyCompany      ActionKind = "buy-company"
	DeclareBankrupt ActionKind = "declare-bankrupt"
	Pass            ActionKind = "pass"
)

var ActionKinds = []ActionKind{
	LayTile, PlaceToken, RunRoute, PayDividend, BuyTrain, DiscardTrain,
	IssueShares, RedeemShares, SellShares, BuyCompany, DeclareBankrupt, Pass,
}

type DividendKind string

const (
	Payout   DividendKind = "payout"
	Withhold DividendKind = "withhold"
	Half     DividendKind = "half"
)

// Route is one train's run.
type Route struct {
	Train string   `json:"train"`
	Hexes []string `json:"hexes"`
}

// Action is a player submitted command. Only the fields relevant to Kind are
// set.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Entity string     `json:"entity"`

	Hex      string `json:"hex,omitempty"`
	Tile     string `json:"tile,omitempty"`
	Rotation int    `json:"rotation,omitempty"`
	City     int    `json:"city,omitempty"`

	Routes   []Route      `json:"routes,omitempty"`
	Dividend DividendKind `json:"dividend,omitempty"`

	Train    string `json:"train,omitempty"`
	Price    int    `json:"price,omitempty"`
	Exchange string `json:"exchange,omitempty"`

	Shares      int    `json:"shares,omitempty"`
	Corporation string `json:"corporation,omitempty"`
	Company     string `json:"company,omitempty"`
}

func (a Action) String() string {
	switch a.Kind {
	case LayTile:
		return fmt.Sprintf("%s %s %s@%s r%d", a.Entity, a.Kind, a.Tile, a.Hex, a.Rotation)
	case PlaceToken:
		return fmt.Sprintf("%s %s %s/%d", a.Entity, a.Kind, a.Hex, a.City)
	case BuyTrain:
		return fmt.Sprintf("%s %s %s for %d", a.Entity, a.Kind, a.Train, a.Price)
	case IssueShares, RedeemShares:
		return fmt.Sprintf("%s %s %d", a.Entity, a.Kind, a.Shares)
	default:
		return fmt.Sprintf("%s %s", a.Entity, a.Kind)
	}
}

// Event is an observable consequence of an action.
type Event struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}
