package game

import (
	"fmt"

	"golang.org/x/exp/slices"
)

type Capitalization string

const (
	FullCap        Capitalization = "full"
	IncrementalCap Capitalization = "incremental"
)

// SellMovement selects how a share sale moves the price.
type SellMovement string

const (
	SellDownShare     SellMovement = "down_share"
	SellLeftShare     SellMovement = "left_share"
	SellDownBlock     SellMovement = "down_block"
	SellLeftBlock     SellMovement = "left_block"
	SellLeftBlockPres SellMovement = "left_block_pres"
	SellNone          SellMovement = "none"
)

// TileLay is one track action slot in a corporation's turn.
type TileLay struct {
	Lay         bool `json:"lay" yaml:"lay"`
	Upgrade     bool `json:"upgrade" yaml:"upgrade"`
	Cost        int  `json:"cost,omitempty" yaml:"cost"`
	UpgradeCost int  `json:"upgrade_cost,omitempty" yaml:"upgrade_cost"`
}

// End conditions and when they take effect.
const (
	EndBank        = "bank"
	EndBankrupt    = "bankrupt"
	EndStockMarket = "stock_market"
	EndFixedRounds = "custom"
	EndFinalPhase  = "final_phase"

	EndImmediate = "immediate"
	EndCurrentOR = "current_or"
	EndFullOR    = "full_or"

	BankruptcyOne       = "one"
	BankruptcyAllButOne = "all_but_one"
)

// Rules is the per-game configuration record. It is resolved once when the
// game is built and shared read-only by every component.
type Rules struct {
	Title          string         `json:"title" yaml:"title"`
	Capitalization Capitalization `json:"capitalization" yaml:"capitalization"`
	TileLays       []TileLay      `json:"tile_lays" yaml:"tile_lays"`
	// UpgradesPerPhase caps upgrades per turn by phase name. Phases not listed
	// are uncapped.
	UpgradesPerPhase map[string]int `json:"upgrades_per_phase,omitempty" yaml:"upgrades_per_phase"`

	SellMovement                 SellMovement `json:"sell_movement" yaml:"sell_movement"`
	SoldOutIncrease              bool         `json:"sold_out_increase" yaml:"sold_out_increase"`
	MustSellInBlocks             bool         `json:"must_sell_in_blocks" yaml:"must_sell_in_blocks"`
	MustEmergencyIssueBeforeEBuy bool         `json:"must_emergency_issue_before_ebuy" yaml:"must_emergency_issue_before_ebuy"`
	// BankruptcyEndsGame is "one" or "all_but_one".
	BankruptcyEndsGame string `json:"bankruptcy_ends_game" yaml:"bankruptcy_ends_game"`
	// MarketShareLimit is the most shares of one corporation the pool holds.
	MarketShareLimit int  `json:"market_share_limit" yaml:"market_share_limit"`
	TreasuryPays     bool `json:"treasury_pays" yaml:"treasury_pays"`
	PoolPays         bool `json:"pool_pays" yaml:"pool_pays"`
	HalfDividend     bool `json:"half_dividend" yaml:"half_dividend"`

	LoanValue      int    `json:"loan_value,omitempty" yaml:"loan_value"`
	TokenCosts     []int  `json:"token_costs" yaml:"token_costs"`
	CurrencyFormat string `json:"currency_format" yaml:"currency_format"`
	// ORSets fixes the number of operating rounds in each set. When empty the
	// phase decides.
	ORSets  []int             `json:"or_sets,omitempty" yaml:"or_sets"`
	GameEnd map[string]string `json:"game_end" yaml:"game_end"`

	CarryLabels         []string         `json:"carry_labels,omitempty" yaml:"carry_labels"`
	MaxEdgeExempt       []string         `json:"max_edge_exempt,omitempty" yaml:"max_edge_exempt"`
	RotationExempt      []string         `json:"rotation_exempt,omitempty" yaml:"rotation_exempt"`
	ReleaseReservations map[string][]int `json:"release_reservations,omitempty" yaml:"release_reservations"`
	Triggers            []HexTrigger     `json:"triggers,omitempty" yaml:"triggers"`
}

var sellMovements = []SellMovement{SellDownShare, SellLeftShare, SellDownBlock, SellLeftBlock, SellLeftBlockPres, SellNone}

func (r *Rules) Validate() error {
	if r.Title == "" {
		return Misconfigured("rules have no title")
	}
	if r.Capitalization != FullCap && r.Capitalization != IncrementalCap {
		return Misconfigured("%s: unknown capitalization %q", r.Title, r.Capitalization)
	}
	if len(r.TileLays) == 0 {
		return Misconfigured("%s: no tile lays", r.Title)
	}
	if !slices.Contains(sellMovements, r.SellMovement) {
		return Misconfigured("%s: unknown sell movement %q", r.Title, r.SellMovement)
	}
	switch r.BankruptcyEndsGame {
	case BankruptcyOne, BankruptcyAllButOne:
	default:
		return Misconfigured("%s: unknown bankruptcy rule %q", r.Title, r.BankruptcyEndsGame)
	}
	for _, n := range r.ORSets {
		if n <= 0 {
			return Misconfigured("%s: empty operating round set", r.Title)
		}
	}
	for reason, timing := range r.GameEnd {
		switch timing {
		case EndImmediate, EndCurrentOR, EndFullOR:
		default:
			return Misconfigured("%s: unknown timing %q for %s", r.Title, timing, reason)
		}
	}
	if r.MarketShareLimit <= 0 {
		return Misconfigured("%s: market share limit must be positive", r.Title)
	}
	return nil
}

// Format renders an amount in the title's currency.
func (r *Rules) Format(amount int) string {
	if r.CurrencyFormat == "" {
		return fmt.Sprintf("$%d", amount)
	}
	return fmt.Sprintf(r.CurrencyFormat, amount)
}

// TokenCost is the price of the n-th token a corporation places after its
// home token, counting from zero.
func (r *Rules) TokenCost(n int) int {
	if len(r.TokenCosts) == 0 {
		return 0
	}
	if n >= len(r.TokenCosts) {
		return r.TokenCosts[len(r.TokenCosts)-1]
	}
	return r.TokenCosts[n]
}
