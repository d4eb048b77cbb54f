// Package engine drives one game: it feeds actions to the operating round,
// commits the result only when the whole action succeeds and keeps enough
// committed states around to undo and redo.
package engine

import (
	"time"

	"railway/game"
	"railway/history"
	"railway/round"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Variant supplies the step chain of a title for resolved rules.
type Variant interface {
	ID() string
	Chain(rules *game.Rules) (*round.Chain, error)
}

// Result tells the caller who acts next and what they may do.
type Result struct {
	Next    string            `json:"next"`
	Actions []game.ActionKind `json:"actions"`
	Events  []game.Event      `json:"events,omitempty"`
	Hash    game.StateHash    `json:"hash"`
	Over    bool              `json:"over,omitempty"`
}

// Update is pushed to subscribers after every commit.
type Update struct {
	Action game.Action
	Events []game.Event
	Hash   game.StateHash
}

type frame struct {
	game  *game.GameState
	round *round.State
}

type Option func(e *Engine)

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = logger
	}
}

func WithRecorder(r history.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

func WithID(id string) Option {
	return func(e *Engine) {
		if id != "" {
			e.id = id
		}
	}
}

// WithUpdates buffers up to n updates for Updates. Updates that find the
// buffer full are dropped.
func WithUpdates(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.updates = make(chan Update, n)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine is not safe for concurrent use.
type Engine struct {
	id        string
	variant   Variant
	chain     *round.Chain
	operating *round.Operating

	game  *game.GameState
	round *round.State
	seq   int

	undo []frame
	redo []frame

	recorder history.Recorder
	updates  chan Update
	log      zerolog.Logger
	now      func() time.Time
}

func build(v Variant, gs *game.GameState, opts []Option) (*Engine, error) {
	e := &Engine{
		id:      uuid.NewString(),
		variant: v,
		log:     log.Logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().Str("game", e.id).Logger()
	chain, err := v.Chain(gs.Rules)
	if err != nil {
		return nil, err
	}
	e.chain = chain
	e.operating = round.NewOperating(chain)
	return e, nil
}

// New starts the first operating round of gs.
func New(v Variant, gs *game.GameState, opts ...Option) (*Engine, error) {
	e, err := build(v, gs, opts)
	if err != nil {
		return nil, err
	}
	next, rs := gs.Copy(), round.NewState()
	ctx := e.context(next, rs)
	if err := e.operating.Begin(ctx); err != nil {
		return nil, err
	}
	events := ctx.Events()
	if err := e.record(history.KindStart, nil, events, next.Hash()); err != nil {
		return nil, err
	}
	e.game, e.round = next, rs
	log.Info().Msgf("game %s started (%s)", e.id, gs.Rules.Title)
	return e, nil
}

func (e *Engine) context(gs *game.GameState, rs *round.State) *round.Context {
	return round.NewContext(gs, rs, e.chain, e.log)
}

func (e *Engine) ID() string {
	return e.id
}

// State returns the committed game state. Callers must not modify it.
func (e *Engine) State() *game.GameState {
	return e.game
}

// Round returns the committed round state. Callers must not modify it.
func (e *Engine) Round() *round.State {
	return e.round
}

// Entity returns who must act next, or "" once the game is over.
func (e *Engine) Entity() string {
	return e.operating.Entity(e.context(e.game, e.round))
}

// Actions lists what entity may do now.
func (e *Engine) Actions(entity string) []game.ActionKind {
	return e.operating.Actions(e.context(e.game, e.round), entity)
}

// Updates returns a function that reports the next pending update without
// blocking. It returns false when there is none or WithUpdates was not used.
func (e *Engine) Updates() func() (Update, bool) {
	return func() (Update, bool) {
		select {
		case u, ok := <-e.updates:
			return u, ok
		default:
			return Update{}, false
		}
	}
}

// Process applies a to copies of the committed state. On error nothing
// changes; on success the copies become the committed state.
func (e *Engine) Process(a game.Action) (Result, error) {
	gs, rs := e.game.Copy(), e.round.Copy()
	ctx := e.context(gs, rs)
	if err := e.operating.Process(ctx, a); err != nil {
		e.log.Debug().Err(err).Msgf("rejected %s from %s", a.Kind, a.Entity)
		return Result{}, err
	}
	events := ctx.Events()
	hash := gs.Hash()
	if err := e.record(history.KindAction, &a, events, hash); err != nil {
		return Result{}, err
	}

	e.undo = append(e.undo, frame{e.game, e.round})
	e.redo = nil
	e.game, e.round = gs, rs
	e.publish(Update{Action: a, Events: events, Hash: hash})
	return e.result(events, hash), nil
}

// Undo restores the state before the last committed action.
func (e *Engine) Undo() (Result, error) {
	if len(e.undo) == 0 {
		return Result{}, game.Violation(game.CodeNothingToUndo, "nothing to undo")
	}
	prev := e.undo[len(e.undo)-1]
	if err := e.record(history.KindUndo, nil, nil, prev.game.Hash()); err != nil {
		return Result{}, err
	}
	e.undo = e.undo[:len(e.undo)-1]
	e.redo = append(e.redo, frame{e.game, e.round})
	e.game, e.round = prev.game, prev.round
	log.Info().Msgf("game %s: undo", e.id)
	return e.result(nil, e.game.Hash()), nil
}

// Redo reapplies the last undone action.
func (e *Engine) Redo() (Result, error) {
	if len(e.redo) == 0 {
		return Result{}, game.Violation(game.CodeNothingToUndo, "nothing to redo")
	}
	next := e.redo[len(e.redo)-1]
	if err := e.record(history.KindRedo, nil, nil, next.game.Hash()); err != nil {
		return Result{}, err
	}
	e.redo = e.redo[:len(e.redo)-1]
	e.undo = append(e.undo, frame{e.game, e.round})
	e.game, e.round = next.game, next.round
	log.Info().Msgf("game %s: redo", e.id)
	return e.result(nil, e.game.Hash()), nil
}

func (e *Engine) result(events []game.Event, hash game.StateHash) Result {
	next := e.Entity()
	return Result{
		Next:    next,
		Actions: e.Actions(next),
		Events:  events,
		Hash:    hash,
		Over:    e.game.Finished,
	}
}

func (e *Engine) record(kind history.Kind, a *game.Action, events []game.Event, hash game.StateHash) error {
	e.seq++
	if e.recorder == nil {
		return nil
	}
	err := e.recorder.Record(history.Entry{
		Seq:    e.seq,
		GameID: e.id,
		Kind:   kind,
		Action: a,
		Events: events,
		Hash:   hash,
		Time:   e.now().UTC(),
	})
	if err != nil {
		e.seq--
		return game.Broken("recording %s: %v", kind, err)
	}
	return nil
}

func (e *Engine) publish(u Update) {
	if e.updates == nil {
		return
	}
	select {
	case e.updates <- u:
	default:
		e.log.Warn().Msgf("update buffer full, dropping update %x", u.Hash)
	}
}

// Replay feeds recorded entries back through e, undoing and redoing where
// the history did, and checks every resulting hash.
func Replay(e *Engine, entries []history.Entry) error {
	for _, entry := range entries {
		var (
			res Result
			err error
		)
		switch entry.Kind {
		case history.KindStart:
			continue
		case history.KindAction:
			if entry.Action == nil {
				return game.Broken("history entry %d has no action", entry.Seq)
			}
			res, err = e.Process(*entry.Action)
		case history.KindUndo:
			res, err = e.Undo()
		case history.KindRedo:
			res, err = e.Redo()
		default:
			return game.Broken("history entry %d has kind %q", entry.Seq, entry.Kind)
		}
		if err != nil {
			return err
		}
		if res.Hash != entry.Hash {
			return game.Broken("history entry %d: state hash %x, recorded %x", entry.Seq, res.Hash, entry.Hash)
		}
	}
	return nil
}
