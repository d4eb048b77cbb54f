package step

import (
	"railway/game"
	"railway/round"
)

// BuyTrainHooks lets a title change how emergency issues move the price.
type BuyTrainHooks struct {
	Issue IssueHooks
}

// BuyTrain buys trains from the depot or from other corporations. A
// corporation without a train must buy one; when it cannot pay, it may issue
// shares (incremental games) and its president contributes the rest, selling
// shares if need be.
type BuyTrain struct {
	base
	hooks BuyTrainHooks
}

// NewBuyTrain creates and returns a new BuyTrain instance.
func NewBuyTrain(hooks BuyTrainHooks) *BuyTrain {
	return &BuyTrain{base: base{name: "buy_train"}, hooks: hooks}
}

func room(ctx *round.Context, corp *game.Corporation) bool {
	return len(corp.Trains) < ctx.Game.Phase().TrainLimit
}

// mustBuy reports whether corp is forced to buy a train this turn.
func mustBuy(ctx *round.Context, corp *game.Corporation) bool {
	return len(corp.Trains) == 0 && ctx.Game.Depot.MinPrice() >= 0 && room(ctx, corp)
}

// shortfall is what corp lacks to buy the cheapest depot train.
func shortfall(ctx *round.Context, corp *game.Corporation) int {
	return max(0, ctx.Game.Depot.MinPrice()-corp.Cash)
}

// mustIssueFirst reports whether an emergency issue has to come before the
// president may contribute.
func mustIssueFirst(ctx *round.Context, corp *game.Corporation) bool {
	r := ctx.Rules()
	return r.Capitalization == game.IncrementalCap && r.MustEmergencyIssueBeforeEBuy &&
		!ctx.Round.EmergencyIssued && issuable(ctx, corp) > 0
}

// EmergencyIssuable lists the share bundles corp may issue to cover its
// shortfall: enough to pay for the cheapest train and never more than
// needed.
func EmergencyIssuable(ctx *round.Context, corp *game.Corporation) []int {
	if !mustBuy(ctx, corp) || ctx.Round.EmergencyIssued || ctx.Rules().Capitalization != game.IncrementalCap {
		return nil
	}
	short := shortfall(ctx, corp)
	price := ctx.Game.Market.Price(corp.ID)
	if short == 0 || price <= 0 {
		return nil
	}
	needed := (short + price - 1) / price
	return sizes(min(needed, issuable(ctx, corp)))
}

// sellable is how many of corp's shares seller could sell without breaking
// the pool limit. Shares of the buying corporation may not cost the seller
// the presidency.
func sellable(ctx *round.Context, buyer *game.Corporation, seller string, corp *game.Corporation) int {
	n := min(corp.Holders[seller], ctx.Rules().MarketShareLimit-corp.Pool)
	if corp.ID == buyer.ID && corp.President == seller {
		n = min(n, corp.Holders[seller]-game.PresidentShares)
	}
	return max(0, n)
}

// raisable is the cash corp and its president could put together now,
// counting every share the president could sell at the current price.
func raisable(ctx *round.Context, corp *game.Corporation) int {
	total := corp.Cash
	total += len(EmergencyIssuable(ctx, corp)) * ctx.Game.Market.Price(corp.ID)
	president, err := ctx.Game.Player(corp.President)
	if err != nil {
		return total
	}
	total += president.Cash
	for _, c := range ctx.Game.Corporations {
		if c.Operates() {
			total += sellable(ctx, corp, president.ID, c) * ctx.Game.Market.Price(c.ID)
		}
	}
	return total
}

// presidentShort reports whether corp and its president together cannot
// pay for the cheapest train.
func presidentShort(ctx *round.Context, corp *game.Corporation) bool {
	president, err := ctx.Game.Player(corp.President)
	if err != nil {
		return true
	}
	return corp.Cash+president.Cash < ctx.Game.Depot.MinPrice()
}

func (b *BuyTrain) Actions(ctx *round.Context, entity string) []game.ActionKind {
	corp, ok := operator(ctx, entity)
	if !ok || !room(ctx, corp) {
		return nil
	}
	if !mustBuy(ctx, corp) {
		if len(b.sources(ctx, corp)) == 0 {
			return nil
		}
		return []game.ActionKind{game.BuyTrain, game.Pass}
	}
	if shortfall(ctx, corp) == 0 {
		return []game.ActionKind{game.BuyTrain}
	}
	if mustIssueFirst(ctx, corp) {
		return []game.ActionKind{game.IssueShares}
	}
	kinds := []game.ActionKind{game.BuyTrain}
	if len(EmergencyIssuable(ctx, corp)) > 0 {
		kinds = append(kinds, game.IssueShares)
	}
	if presidentShort(ctx, corp) {
		kinds = append(kinds, game.SellShares)
	}
	return kinds
}

// sources lists the trains corp could buy now: depot trains it can afford
// and trains held by other corporations, unless an emergency has been
// declared this turn.
func (b *BuyTrain) sources(ctx *round.Context, corp *game.Corporation) []*game.Train {
	var out []*game.Train
	for _, t := range ctx.Game.Depot.Available() {
		if t.Price <= corp.Cash || len(t.Discount) > 0 {
			out = append(out, t)
		}
	}
	if ctx.Round.EmergencyIssued || ctx.Round.EmergencySold || corp.Cash <= 0 {
		return out
	}
	for _, c := range ctx.Game.Corporations {
		if c.ID != corp.ID && c.Operates() {
			out = append(out, c.Trains...)
		}
	}
	return out
}

// Trains lists every train corp may buy, the ones requiring help included.
func (b *BuyTrain) Trains(ctx *round.Context, corp *game.Corporation) []*game.Train {
	if !ctx.Active(b, corp.ID) {
		return nil
	}
	out := b.sources(ctx, corp)
	if mustBuy(ctx, corp) && shortfall(ctx, corp) > 0 {
		for _, t := range ctx.Game.Depot.Available() {
			if t.Price == ctx.Game.Depot.MinPrice() && t.Price > corp.Cash {
				out = append(out, t)
			}
		}
	}
	return out
}

func (b *BuyTrain) Process(ctx *round.Context, a game.Action) error {
	corp, err := actor(ctx, a, game.BuyTrain, game.IssueShares, game.SellShares)
	if err != nil {
		return err
	}
	switch a.Kind {
	case game.IssueShares:
		return b.emergencyIssue(ctx, corp, a.Shares)
	case game.SellShares:
		return b.emergencySell(ctx, corp, a)
	}

	if !room(ctx, corp) {
		return game.Violation(game.CodeIllegalTrain, "%s is at the train limit", corp.ID)
	}
	if t, ok := ctx.Game.Depot.Get(a.Train); ok {
		return b.fromDepot(ctx, corp, t, a.Exchange)
	}
	return b.fromCorporation(ctx, corp, a.Train, a.Price)
}

func (b *BuyTrain) fromDepot(ctx *round.Context, corp *game.Corporation, t *game.Train, exchange string) error {
	price := t.Price
	var traded *game.Train
	if exchange != "" {
		old, ok := corp.Train(exchange)
		if !ok {
			return game.Violation(game.CodeIllegalTrain, "%s does not own train %s", corp.ID, exchange)
		}
		discount, ok := t.Discount[old.Name]
		if !ok {
			return game.Violation(game.CodeIllegalTrain, "a %s train cannot be traded in for a %s", old.Name, t.Name)
		}
		price = max(0, price-discount)
		traded = old
	}

	if price > corp.Cash {
		if !mustBuy(ctx, corp) || traded != nil || t.Price != ctx.Game.Depot.MinPrice() {
			return game.Violation(game.CodeInsufficientCash, "%s cannot afford a %s train", corp.ID, t.Name).
				With("price", ctx.Rules().Format(price))
		}
		if mustIssueFirst(ctx, corp) {
			return game.Violation(game.CodeInsufficientCash, "%s must issue shares before its president contributes", corp.ID)
		}
		need := price - corp.Cash
		if err := ctx.Game.Transfer(corp.President, corp.ID, need); err != nil {
			return err
		}
		ctx.Log.Info().Msgf("%s contributes %s towards the %s train", corp.President, ctx.Rules().Format(need), t.Name)
		ctx.Emit(game.Event{Type: "president_contributed", Entity: corp.President, Data: map[string]any{
			"corporation": corp.ID, "amount": need,
		}})
	}

	if err := pay(ctx, corp, price); err != nil {
		return err
	}
	bought, err := ctx.Game.Depot.Remove(t.ID)
	if err != nil {
		return err
	}
	if traded != nil {
		corp.RemoveTrain(traded.ID)
		ctx.Log.Info().Msgf("%s trades in a %s train", corp.ID, traded.Name)
	}
	b.gain(ctx, corp, bought, price, game.BankID)
	return nil
}

func (b *BuyTrain) fromCorporation(ctx *round.Context, corp *game.Corporation, id string, price int) error {
	if ctx.Round.EmergencyIssued || ctx.Round.EmergencySold {
		return game.Violation(game.CodeIllegalTrain, "%s may only buy from the depot after raising emergency money", corp.ID)
	}
	var seller *game.Corporation
	for _, c := range ctx.Game.Corporations {
		if c.ID != corp.ID && c.Operates() {
			if _, ok := c.Train(id); ok {
				seller = c
			}
		}
	}
	if seller == nil {
		return game.Violation(game.CodeIllegalTrain, "train %s is not for sale", id)
	}
	if price < 1 || price > corp.Cash {
		return game.Violation(game.CodeIllegalTrain, "%s cannot pay %s for train %s", corp.ID, ctx.Rules().Format(price), id)
	}
	if err := ctx.Game.Transfer(corp.ID, seller.ID, price); err != nil {
		return err
	}
	t, _ := seller.RemoveTrain(id)
	t.Operated = false
	b.gain(ctx, corp, t, price, seller.ID)
	return nil
}

func (b *BuyTrain) gain(ctx *round.Context, corp *game.Corporation, t *game.Train, price int, from string) {
	events := ctx.Game.GainTrain(corp, t)
	ctx.Round.BoughtTrain = true
	ctx.Log.Info().Msgf("%s buys a %s train for %s from %s", corp.ID, t.Name, ctx.Rules().Format(price), from)
	ctx.Emit(game.Event{Type: "train_bought", Entity: corp.ID, Data: map[string]any{
		"train": t.ID, "price": price, "from": from,
	}})
	ctx.Emit(events...)
}

func (b *BuyTrain) emergencyIssue(ctx *round.Context, corp *game.Corporation, n int) error {
	bundles := EmergencyIssuable(ctx, corp)
	if n <= 0 || n > len(bundles) {
		return game.Violation(game.CodeIllegalShares, "%s cannot issue %d shares in an emergency", corp.ID, n)
	}
	events, err := issue(ctx, corp, n, b.hooks.Issue)
	if err != nil {
		return err
	}
	ctx.Round.EmergencyIssued = true
	ctx.Emit(events...)
	return nil
}

func (b *BuyTrain) emergencySell(ctx *round.Context, corp *game.Corporation, a game.Action) error {
	if !mustBuy(ctx, corp) || !presidentShort(ctx, corp) {
		return game.Violation(game.CodeIllegalShares, "%s's president has no need to sell", corp.ID)
	}
	if mustIssueFirst(ctx, corp) {
		return game.Violation(game.CodeIllegalShares, "%s must issue shares before its president sells", corp.ID)
	}
	target, err := ctx.Game.Corporation(a.Corporation)
	if err != nil {
		return err
	}
	if a.Shares <= 0 || a.Shares > sellable(ctx, corp, corp.President, target) {
		return game.Violation(game.CodeIllegalShares, "%s cannot sell %d shares of %s", corp.President, a.Shares, target.ID)
	}
	events, err := ctx.Game.SellShares(corp.President, target.ID, a.Shares)
	if err != nil {
		return err
	}
	ctx.Round.EmergencySold = true
	ctx.Log.Info().Msgf("%s sells %d shares of %s to raise money", corp.President, a.Shares, target.ID)
	ctx.Emit(events...)
	return nil
}
