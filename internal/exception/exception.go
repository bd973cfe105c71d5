// Package exception decides what happens to errors raised while handling a
// view event. The stock handler logs and carries on; the override installed at
// bootstrap rethrows every failure annotated with what caused it.
package exception

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Handler receives an error and the name of the operation that raised it.
// A nil return means the error was absorbed.
type Handler func(err error, cause string) error

// Error is an error annotated with its cause.
type Error struct {
	Err   error
	Cause string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (caused by %q)", e.Err.Error(), e.Cause)
}

func (e *Error) Unwrap() error { return e.Err }

// Rethrow never swallows: it returns err annotated with cause.
// Errors already annotated are passed through unchanged.
func Rethrow(err error, cause string) error {
	if err == nil {
		return nil
	}
	var annotated *Error
	if errors.As(err, &annotated) {
		return err
	}
	return &Error{Err: err, Cause: cause}
}

// Swallow logs err and absorbs it.
func Swallow(log *zap.Logger) Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(err error, cause string) error {
		if err != nil {
			log.Error("event handler failed", zap.String("cause", cause), zap.Error(err))
		}
		return nil
	}
}

// PanicError wraps a value recovered from a panic.
type PanicError struct {
	Value any
}

func (p *PanicError) Error() string { return fmt.Sprintf("panic: %v", p.Value) }

// Guard runs fn and routes its error, or a recovered panic, through h.
func Guard(h Handler, cause string, fn func() error) (err error) {
	if h == nil {
		h = Rethrow
	}
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok {
				perr = &PanicError{Value: r}
			}
			err = h(perr, cause)
		}
	}()
	if ferr := fn(); ferr != nil {
		return h(ferr, cause)
	}
	return nil
}
