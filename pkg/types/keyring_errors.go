package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the keyring packages wraps exactly one.
var (
	ErrValidation           = errors.New("validation error")
	ErrState                = errors.New("state error")
	ErrAccountNotFound      = errors.New("account not found")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrCrypto               = errors.New("crypto error")
	ErrDecryption           = errors.New("decryption failed")
	ErrEntropy              = errors.New("entropy unavailable")
)

var errorKinds = []error{
	ErrValidation,
	ErrState,
	ErrAccountNotFound,
	ErrUnsupportedOperation,
	ErrCrypto,
	ErrDecryption,
	ErrEntropy,
}

// KeyringError carries an error kind, the failing operation and the cause.
type KeyringError struct {
	Kind error  // one of the Err* sentinels
	Op   string // operation that failed, e.g. "remove account"
	Err  error  // underlying cause, may be nil
}

// NewError builds a KeyringError.
func NewError(kind error, op string, err error) *KeyringError {
	return &KeyringError{Kind: kind, Op: op, Err: err}
}

// Errorf builds a KeyringError with a formatted cause.
func Errorf(kind error, op, format string, args ...interface{}) *KeyringError {
	return &KeyringError{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Error implements error.
func (e *KeyringError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is / errors.As.
func (e *KeyringError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the kind sentinel of err, or nil when err carries none.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var kerr *KeyringError
	if errors.As(err, &kerr) {
		return kerr.Kind
	}
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// IsKeyringError reports whether err is a KeyringError and returns it.
func IsKeyringError(err error) (*KeyringError, bool) {
	var kerr *KeyringError
	if errors.As(err, &kerr) {
		return kerr, true
	}
	return nil, false
}
