package hydro

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDivisionByZero is returned when a formula's denominator is zero.
	ErrDivisionByZero = errors.New("hydro: division by zero")
	// ErrInvalidInput is returned when input sequences are empty, mismatched
	// or hold non-finite values.
	ErrInvalidInput = errors.New("hydro: invalid input")
)

// Kind classifies a ComputeError.
type Kind string

const (
	KindDivisionByZero Kind = "division_by_zero"
	KindInvalidInput   Kind = "invalid_input"
)

// Operation names used in ComputeError.Op.
const (
	OpRoute    = "route"
	OpSimulate = "simulate"
	OpEvaluate = "evaluate"
	OpPBIAS    = "pbias"
	OpNSE      = "nse"
	OpR2       = "r2"
)

// ComputeError describes where a computation failed. Period is the zero-based
// period index for per-period failures and -1 otherwise.
type ComputeError struct {
	Kind   Kind
	Op     string
	Period int
	Detail string
}

func (e *ComputeError) Error() string {
	msg := fmt.Sprintf("hydro: %s: %s", e.Op, e.Kind)
	if e.Period >= 0 {
		msg += fmt.Sprintf(" at period %d", e.Period)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap lets errors.Is match the sentinel for the error's kind.
func (e *ComputeError) Unwrap() error {
	switch e.Kind {
	case KindDivisionByZero:
		return ErrDivisionByZero
	case KindInvalidInput:
		return ErrInvalidInput
	}
	return nil
}

func divisionByZero(op string, period int, detail string) error {
	return &ComputeError{Kind: KindDivisionByZero, Op: op, Period: period, Detail: detail}
}

func invalidInput(op, detail string) error {
	return invalidInputAt(op, -1, detail)
}

func invalidInputAt(op string, period int, detail string) error {
	return &ComputeError{Kind: KindInvalidInput, Op: op, Period: period, Detail: detail}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ComputeErrors returns every *ComputeError in err's tree, in order. It
// descends through wrapped and joined errors.
func ComputeErrors(err error) []*ComputeError {
	var out []*ComputeError
	var walk func(error)
	walk = func(e error) {
		switch x := e.(type) {
		case nil:
		case *ComputeError:
			out = append(out, x)
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(x.Unwrap())
		}
	}
	walk(err)
	return out
}
