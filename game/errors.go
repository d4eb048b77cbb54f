package game

import (
	"errors"
	"fmt"
)

// Kind classifies an Error by who is at fault and whether play can go on.
type Kind int

const (
	// RuleViolation is an illegal action. The action is rejected, nothing is
	// mutated and the acting player may submit something else.
	RuleViolation Kind = iota + 1
	// ConfigurationError means the title tables are malformed. Fatal at load.
	ConfigurationError
	// InvariantBroken is an internal consistency failure. Fatal.
	InvariantBroken
)

func (k Kind) String() string {
	switch k {
	case RuleViolation:
		return "rule violation"
	case ConfigurationError:
		return "configuration error"
	case InvariantBroken:
		return "invariant broken"
	default:
		return "unknown"
	}
}

// Code is a machine-checkable reason.
type Code string

const (
	CodeUnhandledAction  Code = "UNHANDLED_ACTION"
	CodeNotYourTurn      Code = "NOT_YOUR_TURN"
	CodeMalformedAction  Code = "MALFORMED_ACTION"
	CodeUnknownEntity    Code = "UNKNOWN_ENTITY"
	CodeUnknownHex       Code = "UNKNOWN_HEX"
	CodeUnknownTile      Code = "UNKNOWN_TILE"
	CodeOutsideRegion    Code = "OUTSIDE_REGION"
	CodeNoOperatingRight Code = "NO_OPERATING_RIGHTS"
	CodeNoTileLay        Code = "NO_TILE_LAY"
	CodeHexAlreadyLaid   Code = "HEX_ALREADY_LAID"
	CodeTileUnavailable  Code = "TILE_UNAVAILABLE"
	CodeIllegalTile      Code = "ILLEGAL_TILE"
	CodeIllegalRotation  Code = "ILLEGAL_ROTATION"
	CodeIllegalColor     Code = "ILLEGAL_COLOR"
	CodeInsufficientCash Code = "INSUFFICIENT_CASH"
	CodeIllegalToken     Code = "ILLEGAL_TOKEN"
	CodeIllegalRoute     Code = "ILLEGAL_ROUTE"
	CodeIllegalDividend  Code = "ILLEGAL_DIVIDEND"
	CodeIllegalTrain     Code = "ILLEGAL_TRAIN"
	CodeIllegalShares    Code = "ILLEGAL_SHARES"
	CodeIllegalCompany   Code = "ILLEGAL_COMPANY"
	CodeGameOver         Code = "GAME_OVER"
	CodeNothingToUndo    Code = "NOTHING_TO_UNDO"
	CodeBadConfig        Code = "BAD_CONFIG"
	CodeInvariant        Code = "INVARIANT"
)

// Error is the engine's error type.
type Error struct {
	Kind     Kind
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// With attaches metadata and returns e.
func (e *Error) With(key, value string) *Error {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// Violation creates a RuleViolation.
func Violation(code Code, format string, args ...any) *Error {
	return &Error{Kind: RuleViolation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Misconfigured creates a ConfigurationError.
func Misconfigured(format string, args ...any) *Error {
	return &Error{Kind: ConfigurationError, Code: CodeBadConfig, Message: fmt.Sprintf(format, args...)}
}

// Broken creates an InvariantBroken error.
func Broken(format string, args ...any) *Error {
	return &Error{Kind: InvariantBroken, Code: CodeInvariant, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsViolation reports whether err is a RuleViolation.
func IsViolation(err error) bool {
	return KindOf(err) == RuleViolation
}
