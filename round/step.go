package round

import (
	"railway/game"

	"github.com/rs/zerolog"
)

// Step handles one category of action within an operating turn. Steps keep
// no state of their own between calls; everything they need to remember goes
// in the round State.
type Step interface {
	Name() string
	// Setup runs when an entity starts its turn.
	Setup(ctx *Context)
	// Actions lists the kinds the step would accept from entity now.
	Actions(ctx *Context, entity string) []game.ActionKind
	Process(ctx *Context, a game.Action) error
}

// TrackLayer is implemented by steps that lay track. The chain hides them
// during the last round of a finishing game.
type TrackLayer interface {
	LaysTrack() bool
}

// Anytime is implemented by steps that stay open for the whole turn, even
// after the turn has moved past them, e.g. declaring bankruptcy.
type Anytime interface {
	Anytime() bool
}

// Interrupter is implemented by steps that can demand an action from an
// entity other than the operating one, e.g. a corporation over its train
// limit. Interrupts returns that entity or "".
type Interrupter interface {
	Interrupts(ctx *Context) string
}

// Entry is a step with its place-in-chain configuration.
type Entry struct {
	Step Step
	// Blocks stops later steps from being consulted while this one has
	// actions.
	Blocks bool
	// Passive steps are passed automatically when pass is all they offer.
	Passive bool
}

// Context carries the state a step works on for one call. The engine builds
// it around copies, so a failed action leaves nothing behind.
type Context struct {
	Game  *game.GameState
	Round *State
	Log   zerolog.Logger

	chain  *Chain
	events []game.Event
}

// NewContext creates and returns a new Context instance.
func NewContext(gs *game.GameState, rs *State, chain *Chain, logger zerolog.Logger) *Context {
	return &Context{Game: gs, Round: rs, Log: logger, chain: chain}
}

func (c *Context) Rules() *game.Rules {
	return c.Game.Rules
}

// Emit records events produced by the action being processed.
func (c *Context) Emit(events ...game.Event) {
	c.events = append(c.events, events...)
}

// Events returns and clears the recorded events.
func (c *Context) Events() []game.Event {
	ev := c.events
	c.events = nil
	return ev
}

// Active reports whether s is the step currently holding entity's turn.
func (c *Context) Active(s Step, entity string) bool {
	if c.chain == nil {
		return false
	}
	i := c.chain.Active(c, entity)
	return i >= 0 && c.chain.entries[i].Step == s
}

// Operator returns the corporation whose turn it is.
func (c *Context) Operator() (*game.Corporation, error) {
	id := c.Round.Current()
	if id == "" {
		return nil, game.Violation(game.CodeNotYourTurn, "no corporation is operating")
	}
	return c.Game.Corporation(id)
}
