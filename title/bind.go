package title

import (
	"railway/game"
	"railway/round"
	"railway/step"

	"golang.org/x/exp/slices"
)

func blocking(s round.Step) round.Entry {
	return round.Entry{Step: s, Blocks: true}
}

func open(s round.Step) round.Entry {
	return round.Entry{Step: s}
}

// bind1866 gates track by national region and operating rights, lets loans
// pay for track and caps upgrades per phase.
func bind1866(t *Title, rules *game.Rules) ([]round.Entry, error) {
	if rules.LoanValue <= 0 {
		return nil, game.Misconfigured("%s needs a loan value", rules.Title)
	}
	track := step.NewTrack(step.TrackHooks{
		HexAllowed:     step.RegionGate,
		BuyingPower:    step.LoanBuyingPower,
		Fund:           step.TakeLoans,
		UpgradeAllowed: step.UpgradesPerPhase,
		FilterUpgrades: step.MaxEdgeFilter(rules.MaxEdgeExempt...),
		RotationExempt: func(hex *game.Hex) bool {
			return slices.Contains(rules.RotationExempt, hex.ID)
		},
	})
	return []round.Entry{
		blocking(step.NewBankrupt()),
		blocking(track),
		blocking(step.NewToken()),
		blocking(step.NewRoute(t.Router, t.Auto)),
		blocking(step.NewDividend(step.DividendHooks{Moves: step.TwoTierMoves})),
		blocking(step.NewDiscardTrain()),
		blocking(step.NewBuyTrain(step.BuyTrainHooks{})),
	}, nil
}

// bindSteamOverHolland issues before track, uses the three tier dividend
// chart and ends with a blocking company purchase.
func bindSteamOverHolland(t *Title, _ *game.Rules) ([]round.Entry, error) {
	issue := step.IssueHooks{Moves: step.OneLessMoves}
	companies := step.BuyCompanyHooks{Range: step.FaceRange}
	return []round.Entry{
		blocking(step.NewBankrupt()),
		open(step.NewBuyCompany(companies)),
		blocking(step.NewIssueShares(issue)),
		blocking(step.NewTrack(step.TrackHooks{})),
		blocking(step.NewToken()),
		blocking(step.NewRoute(t.Router, t.Auto)),
		blocking(step.NewDividend(step.DividendHooks{})),
		blocking(step.NewDiscardTrain()),
		blocking(step.NewBuyTrain(step.BuyTrainHooks{Issue: issue})),
		blocking(step.NewBuyCompany(companies)),
	}, nil
}

// bindSystem18 follows the base chain. Incremental games get emergency
// issues through the train step.
func bindSystem18(t *Title, rules *game.Rules) ([]round.Entry, error) {
	if rules.Capitalization == game.IncrementalCap && !rules.HalfDividend {
		return nil, game.Misconfigured("%s: incremental games pay half dividends", rules.Title)
	}
	return []round.Entry{
		blocking(step.NewBankrupt()),
		open(step.NewBuyCompany(step.BuyCompanyHooks{})),
		blocking(step.NewTrack(step.TrackHooks{})),
		blocking(step.NewToken()),
		blocking(step.NewRoute(t.Router, t.Auto)),
		blocking(step.NewDividend(step.DividendHooks{Moves: step.TwoTierMoves})),
		blocking(step.NewDiscardTrain()),
		blocking(step.NewBuyTrain(step.BuyTrainHooks{})),
		blocking(step.NewBuyCompany(step.BuyCompanyHooks{})),
	}, nil
}
