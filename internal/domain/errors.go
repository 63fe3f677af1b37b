package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the transport layer can pick a status without
// inspecting messages.
type Kind uint8

const (
	KindInternal Kind = iota
	KindAuth
	KindPermission
	KindNotFound
	KindValidation
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Public is the message safe to hand to a client. Wrapped causes stay in logs.
func (e *Error) Public() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.String()
}

func AuthErr(msg string) error    { return &Error{Kind: KindAuth, Msg: msg} }
func Permission(msg string) error { return &Error{Kind: KindPermission, Msg: msg} }
func NotFound(msg string) error   { return &Error{Kind: KindNotFound, Msg: msg} }
func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }
func Transient(err error) error   { return &Error{Kind: KindTransient, Msg: "temporarily unavailable", Err: err} }
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

func IsKind(err error, k Kind) bool { return err != nil && KindOf(err) == k }
