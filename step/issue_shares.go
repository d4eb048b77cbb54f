package step

import (
	"railway/game"
	"railway/round"
)

// IssueHooks lets a title change the price movement of an issue.
type IssueHooks struct {
	Moves func(ctx *round.Context, corp *game.Corporation, shares int) []game.Move
}

// IssueShares lets a corporation issue treasury shares or redeem pool shares
// once per turn, only while this step holds the turn.
type IssueShares struct {
	base
	hooks IssueHooks
}

// NewIssueShares creates and returns a new IssueShares instance.
func NewIssueShares(hooks IssueHooks) *IssueShares {
	return &IssueShares{base: base{name: "issue_shares"}, hooks: hooks}
}

// issuable is the largest issue: no more than players hold beyond what the
// market already has, what is in the treasury and what the pool has room for.
func issuable(ctx *round.Context, corp *game.Corporation) int {
	n := corp.PlayerShares() - corp.Pool
	n = min(n, corp.Treasury)
	n = min(n, ctx.Rules().MarketShareLimit-corp.Pool)
	return max(0, n)
}

// redeemable is the largest redemption the corporation can pay for.
func redeemable(ctx *round.Context, corp *game.Corporation) int {
	price := ctx.Game.Market.Price(corp.ID)
	if price <= 0 {
		return 0
	}
	return min(corp.Pool, corp.Cash/price)
}

// Issuable lists the issue sizes open to corp. It is empty unless this step
// is the active step of corp's turn.
func (s *IssueShares) Issuable(ctx *round.Context, corp *game.Corporation) []int {
	if !ctx.Active(s, corp.ID) || ctx.Round.ShareActed {
		return nil
	}
	return sizes(issuable(ctx, corp))
}

// Redeemable lists the redemption sizes open to corp, under the same gate as
// Issuable.
func (s *IssueShares) Redeemable(ctx *round.Context, corp *game.Corporation) []int {
	if !ctx.Active(s, corp.ID) || ctx.Round.ShareActed {
		return nil
	}
	return sizes(redeemable(ctx, corp))
}

func sizes(n int) []int {
	out := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, i)
	}
	return out
}

func (s *IssueShares) Actions(ctx *round.Context, entity string) []game.ActionKind {
	corp, ok := operator(ctx, entity)
	if !ok || ctx.Round.ShareActed || ctx.Rules().Capitalization != game.IncrementalCap {
		return nil
	}
	var kinds []game.ActionKind
	if issuable(ctx, corp) > 0 {
		kinds = append(kinds, game.IssueShares)
	}
	if redeemable(ctx, corp) > 0 {
		kinds = append(kinds, game.RedeemShares)
	}
	if len(kinds) == 0 {
		return nil
	}
	return append(kinds, game.Pass)
}

func (s *IssueShares) Process(ctx *round.Context, a game.Action) error {
	corp, err := actor(ctx, a, game.IssueShares, game.RedeemShares)
	if err != nil {
		return err
	}
	if !ctx.Active(s, corp.ID) {
		return game.Violation(game.CodeIllegalShares, "%s may only issue or redeem before laying track", corp.ID)
	}
	if ctx.Round.ShareActed {
		return game.Violation(game.CodeIllegalShares, "%s already issued or redeemed this turn", corp.ID)
	}

	if a.Kind == game.RedeemShares {
		if a.Shares <= 0 || a.Shares > redeemable(ctx, corp) {
			return game.Violation(game.CodeIllegalShares, "%s cannot redeem %d shares", corp.ID, a.Shares)
		}
		cost, err := ctx.Game.Redeem(corp.ID, a.Shares)
		if err != nil {
			return err
		}
		ctx.Round.ShareActed = true
		ctx.Log.Info().Msgf("%s redeems %d shares for %s", corp.ID, a.Shares, ctx.Rules().Format(cost))
		ctx.Emit(game.Event{Type: "shares_redeemed", Entity: corp.ID, Data: map[string]any{"shares": a.Shares, "cost": cost}})
		return nil
	}

	if a.Shares <= 0 || a.Shares > issuable(ctx, corp) {
		return game.Violation(game.CodeIllegalShares, "%s cannot issue %d shares", corp.ID, a.Shares)
	}
	events, err := issue(ctx, corp, a.Shares, s.hooks)
	if err != nil {
		return err
	}
	ctx.Round.ShareActed = true
	ctx.Emit(events...)
	return nil
}

// issue sells shares from the treasury and moves the price.
func issue(ctx *round.Context, corp *game.Corporation, n int, hooks IssueHooks) ([]game.Event, error) {
	raised, err := ctx.Game.Issue(corp.ID, n)
	if err != nil {
		return nil, err
	}
	moves := []game.Move{{Dir: game.Down, N: n}}
	if hooks.Moves != nil {
		moves = hooks.Moves(ctx, corp, n)
	}
	moved, err := ctx.Game.MoveShare(corp.ID, moves...)
	if err != nil {
		return nil, err
	}
	ctx.Log.Info().Msgf("%s issues %d shares and raises %s", corp.ID, n, ctx.Rules().Format(raised))
	events := []game.Event{{Type: "shares_issued", Entity: corp.ID, Data: map[string]any{"shares": n, "raised": raised}}}
	return append(events, moved...), nil
}

// OneLessMoves moves the price left one cell fewer than the shares issued.
func OneLessMoves(_ *round.Context, _ *game.Corporation, shares int) []game.Move {
	if shares <= 1 {
		return nil
	}
	return []game.Move{{Dir: game.Left, N: shares - 1}}
}
