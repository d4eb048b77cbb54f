// Package history records what a game did: one entry per committed action
// with the events it produced and the hash of the resulting state.
package history

import (
	"sync"
	"time"

	"railway/game"
)

// Kind tells replay what an entry did to the engine.
type Kind string

const (
	KindStart  Kind = "start"
	KindAction Kind = "action"
	KindUndo   Kind = "undo"
	KindRedo   Kind = "redo"
)

type Entry struct {
	Seq    int            `json:"seq"`
	GameID string         `json:"game_id"`
	Kind   Kind           `json:"kind"`
	Action *game.Action   `json:"action,omitempty"`
	Events []game.Event   `json:"events,omitempty"`
	Hash   game.StateHash `json:"hash"`
	Time   time.Time      `json:"time"`
}

// Recorder receives entries as the engine commits them. A Recorder error
// aborts the commit.
type Recorder interface {
	Record(e Entry) error
}

// Memory keeps entries in a slice. Safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *Memory) Record(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of everything recorded so far.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Multi fans an entry out to several recorders, stopping at the first error.
type Multi []Recorder

func (rs Multi) Record(e Entry) error {
	for _, r := range rs {
		if err := r.Record(e); err != nil {
			return err
		}
	}
	return nil
}

// Actions returns the actions a replay has to process, in order. Undone
// actions that were never redone are dropped.
func Actions(entries []Entry) []game.Action {
	var done, undone []game.Action
	for _, e := range entries {
		switch e.Kind {
		case KindAction:
			if e.Action == nil {
				continue
			}
			done = append(done, *e.Action)
			undone = nil
		case KindUndo:
			if len(done) > 0 {
				undone = append(undone, done[len(done)-1])
				done = done[:len(done)-1]
			}
		case KindRedo:
			if len(undone) > 0 {
				done = append(done, undone[len(undone)-1])
				undone = undone[:len(undone)-1]
			}
		}
	}
	return done
}
