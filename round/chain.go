package round

import (
	"railway/game"

	"golang.org/x/exp/slices"
)

// Chain is the ordered list of steps for an operating round. The order is
// fixed per title and decides which step answers an action.
type Chain struct {
	entries []Entry
}

// NewChain creates and returns a new Chain instance.
func NewChain(entries ...Entry) (*Chain, error) {
	if len(entries) == 0 {
		return nil, game.Misconfigured("empty step chain")
	}
	for i, e := range entries {
		if e.Step == nil {
			return nil, game.Misconfigured("step %d is nil", i)
		}
	}
	return &Chain{entries: entries}, nil
}

func (c *Chain) Entries() []Entry {
	return c.entries
}

// Steps returns the steps in chain order.
func (c *Chain) Steps() []Step {
	out := make([]Step, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Step
	}
	return out
}

// closes reports whether entry i takes part in the turn's forward cursor.
func (c *Chain) closes(i int) bool {
	e := c.entries[i]
	if !e.Blocks {
		return false
	}
	a, ok := e.Step.(Anytime)
	return !ok || !a.Anytime()
}

// visible is what entry i offers entity, after the cross-cutting guards.
func (c *Chain) visible(ctx *Context, i int, entity string) []game.ActionKind {
	if ctx.Round.Passed[i] {
		return nil
	}
	if i < ctx.Round.Cursor && c.closes(i) {
		return nil
	}
	s := c.entries[i].Step
	if t, ok := s.(TrackLayer); ok && t.LaysTrack() && ctx.Game.LastRound {
		return nil
	}
	return s.Actions(ctx, entity)
}

// Actions returns the kinds entity may submit, in step order. A blocking step
// with actions hides the steps after it.
func (c *Chain) Actions(ctx *Context, entity string) []game.ActionKind {
	var out []game.ActionKind
	for i, e := range c.entries {
		kinds := c.visible(ctx, i, entity)
		for _, k := range kinds {
			if !slices.Contains(out, k) {
				out = append(out, k)
			}
		}
		if e.Blocks && len(kinds) > 0 {
			break
		}
	}
	return out
}

// Active returns the index of the first blocking step with actions for
// entity, or -1 when entity's turn is over.
func (c *Chain) Active(ctx *Context, entity string) int {
	for i, e := range c.entries {
		if e.Blocks && len(c.visible(ctx, i, entity)) > 0 {
			return i
		}
	}
	return -1
}

// ActiveStep returns the step holding entity's turn, or nil.
func (c *Chain) ActiveStep(ctx *Context, entity string) Step {
	if i := c.Active(ctx, entity); i >= 0 {
		return c.entries[i].Step
	}
	return nil
}

// Process hands the action to the first step offering its kind. A pass goes
// to the active step when that step offers one.
func (c *Chain) Process(ctx *Context, a game.Action) error {
	if a.Kind == game.Pass {
		if i := c.Active(ctx, a.Entity); i >= 0 && slices.Contains(c.visible(ctx, i, a.Entity), game.Pass) {
			c.pass(ctx, i, a.Entity)
			return nil
		}
	}
	for i, e := range c.entries {
		kinds := c.visible(ctx, i, a.Entity)
		if slices.Contains(kinds, a.Kind) {
			if a.Kind == game.Pass {
				c.pass(ctx, i, a.Entity)
				return nil
			}
			if err := e.Step.Process(ctx, a); err != nil {
				return err
			}
			c.advance(ctx, i)
			c.autoPass(ctx, a.Entity)
			return nil
		}
		if e.Blocks && len(kinds) > 0 {
			break
		}
	}
	return game.Violation(game.CodeUnhandledAction, "unhandled action %s for %s", a.Kind, a.Entity).
		With("kind", string(a.Kind))
}

// advance moves the cursor up to entry i. The turn never goes back to an
// earlier blocking step.
func (c *Chain) advance(ctx *Context, i int) {
	if c.closes(i) && i > ctx.Round.Cursor {
		ctx.Round.Cursor = i
	}
}

func (c *Chain) pass(ctx *Context, i int, entity string) {
	ctx.Round.Passed[i] = true
	c.advance(ctx, i)
	ctx.Log.Debug().Msgf("%s passes %s", entity, c.entries[i].Step.Name())
	c.autoPass(ctx, entity)
}

// Setup starts entity's turn on every step.
func (c *Chain) Setup(ctx *Context, entity string) {
	ctx.Round.Passed = make(map[int]bool)
	ctx.Round.Cursor = 0
	for _, e := range c.entries {
		e.Step.Setup(ctx)
		if t, ok := e.Step.(TrackLayer); ok && t.LaysTrack() && ctx.Game.LastRound {
			ctx.Log.Info().Msgf("Last round, %s may not lay any track", entity)
		}
	}
	c.autoPass(ctx, entity)
}

// autoPass passes passive steps that offer nothing but pass.
func (c *Chain) autoPass(ctx *Context, entity string) {
	for {
		i := c.Active(ctx, entity)
		if i < 0 || !c.entries[i].Passive {
			return
		}
		kinds := c.visible(ctx, i, entity)
		if len(kinds) != 1 || kinds[0] != game.Pass {
			return
		}
		ctx.Round.Passed[i] = true
		c.advance(ctx, i)
		ctx.Log.Debug().Msgf("%s skips %s", entity, c.entries[i].Step.Name())
	}
}

// Interrupt returns the first step demanding an action out of turn and the
// entity it wants, if any.
func (c *Chain) Interrupt(ctx *Context) (Step, string) {
	for _, e := range c.entries {
		if in, ok := e.Step.(Interrupter); ok {
			if entity := in.Interrupts(ctx); entity != "" {
				return e.Step, entity
			}
		}
	}
	return nil, ""
}
