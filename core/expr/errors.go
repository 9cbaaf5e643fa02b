package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrEvaluation is the root of every error returned by Eval.
	ErrEvaluation = errors.New("evaluation failed")
	// ErrUnknownFunction is returned for calls outside the allowlist.
	ErrUnknownFunction = fmt.Errorf("%w: unknown function", ErrEvaluation)
	// ErrUnsupportedExpression is returned for constructs the language
	// doesn't allow, like bare names or attribute access.
	ErrUnsupportedExpression = fmt.Errorf("%w: unsupported expression", ErrEvaluation)
)

// SyntaxError is returned when the expression can't be parsed.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Msg)
}

// Unwrap makes syntax errors match ErrEvaluation.
func (e *SyntaxError) Unwrap() error {
	return ErrEvaluation
}

func evalErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrEvaluation}, args...)...)
}
