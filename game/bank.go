package game

// BankID addresses the bank in cash transfers.
const BankID = "bank"

// Bank holds the money not yet in play. It may go negative; the first time
// it does the bank is broken.
type Bank struct {
	Cash   int  `json:"cash"`
	Broken bool `json:"broken,omitempty"`
}

// purse returns the cash balance of an entity.
func (gs *GameState) purse(id string) (*int, error) {
	if id == BankID {
		return &gs.Bank.Cash, nil
	}
	for _, c := range gs.Corporations {
		if c.ID == id {
			return &c.Cash, nil
		}
	}
	for _, p := range gs.Players {
		if p.ID == id {
			return &p.Cash, nil
		}
	}
	return nil, Violation(CodeUnknownEntity, "unknown entity %s", id)
}

// CashOf returns id's cash, or 0 for unknown ids.
func (gs *GameState) CashOf(id string) int {
	p, err := gs.purse(id)
	if err != nil {
		return 0
	}
	return *p
}

// Transfer moves amount from one entity to another. Only the bank may
// overdraw.
func (gs *GameState) Transfer(from, to string, amount int) error {
	if amount < 0 {
		return Broken("negative transfer of %d from %s to %s", amount, from, to)
	}
	src, err := gs.purse(from)
	if err != nil {
		return err
	}
	dst, err := gs.purse(to)
	if err != nil {
		return err
	}
	if from != BankID && *src < amount {
		return Violation(CodeInsufficientCash, "%s cannot pay %s", from, gs.Rules.Format(amount)).
			With("cash", gs.Rules.Format(*src))
	}
	*src -= amount
	*dst += amount
	if gs.Bank.Cash < 0 && !gs.Bank.Broken {
		gs.Bank.Broken = true
		gs.TriggerEnd(EndBank)
	}
	return nil
}
