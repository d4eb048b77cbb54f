// Package protocol is the wire form of actions: a JSON envelope
// {kind, entity, payload} checked against an embedded JSON schema before it
// becomes a game.Action.
package protocol

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"railway/game"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/envelope.schema.json
var envelopeSchema string

const schemaURL = "envelope.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft7
		if err := c.AddResource(schemaURL, bytes.NewReader([]byte(envelopeSchema))); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

type Envelope struct {
	Kind    game.ActionKind `json:"kind"`
	Entity  string          `json:"entity"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func malformed(err error, format string, args ...any) error {
	return &game.Error{
		Kind:    game.RuleViolation,
		Code:    game.CodeMalformedAction,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// Decode validates one JSON envelope and returns the action it carries.
func Decode(b []byte) (game.Action, error) {
	s, err := schema()
	if err != nil {
		return game.Action{}, game.Broken("envelope schema: %v", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return game.Action{}, malformed(err, "envelope is not JSON")
	}
	if err := s.Validate(doc); err != nil {
		return game.Action{}, malformed(err, "envelope does not match schema")
	}

	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return game.Action{}, malformed(err, "envelope")
	}
	var a game.Action
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return game.Action{}, malformed(err, "%s payload", env.Kind)
		}
	}
	a.Kind, a.Entity = env.Kind, env.Entity
	return a, nil
}

// Encode builds the envelope for a.
func Encode(a game.Action) ([]byte, error) {
	p := map[string]any{}
	switch a.Kind {
	case game.LayTile:
		p["hex"], p["tile"], p["rotation"] = a.Hex, a.Tile, a.Rotation
	case game.PlaceToken:
		p["hex"], p["city"] = a.Hex, a.City
	case game.RunRoute:
		if len(a.Routes) > 0 {
			p["routes"] = a.Routes
		}
	case game.PayDividend:
		p["dividend"] = a.Dividend
	case game.BuyTrain:
		p["train"], p["price"] = a.Train, a.Price
		if a.Exchange != "" {
			p["exchange"] = a.Exchange
		}
	case game.DiscardTrain:
		p["train"] = a.Train
	case game.IssueShares, game.RedeemShares:
		p["shares"] = a.Shares
	case game.SellShares:
		p["corporation"], p["shares"] = a.Corporation, a.Shares
	case game.BuyCompany:
		p["company"], p["price"] = a.Company, a.Price
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Kind: a.Kind, Entity: a.Entity, Payload: payload})
}

// ReadAll decodes one envelope per line, skipping blank lines.
func ReadAll(r io.Reader) ([]game.Action, error) {
	var out []game.Action
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		a, err := Decode(b)
		if err != nil {
			var ge *game.Error
			if errors.As(err, &ge) {
				ge.With("line", fmt.Sprint(line))
			}
			return out, err
		}
		out = append(out, a)
	}
	return out, sc.Err()
}
