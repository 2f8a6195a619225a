package fabric

import (
	"errors"
	"fmt"
)

// Sentinel error taxonomy for this module. Callers compare with
// errors.Is; the wrapping error carries the offending key or record for
// diagnostics.
var (
	// ErrNotFound is returned by Service.GetData when no entity has ever
	// been cached for the given key. This indicates a programming error
	// (e.g. a position expected for a known CUSIP was never pre-created)
	// and callers at the process boundary treat it as fatal.
	ErrNotFound = errors.New("fabric: no cached entity for key")

	// ErrUnknownProduct is returned when a connector or service is asked
	// to resolve a product identifier (CUSIP) that is not in the static
	// catalog.
	ErrUnknownProduct = errors.New("fabric: unknown product")

	// ErrMalformedRecord is returned by transport codecs when an inbound
	// line cannot be parsed into its record type.
	ErrMalformedRecord = errors.New("fabric: malformed record")
)

// KeyError wraps ErrNotFound (or another sentinel) with the key that
// triggered it, so logs show "fabric: no cached entity for key: 91282CAX9"
// instead of a bare sentinel.
type KeyError struct {
	Err error
	Key any
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%v: %v", e.Err, e.Key)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// NotFound builds a KeyError wrapping ErrNotFound for the given key.
func NotFound(key any) error {
	return &KeyError{Err: ErrNotFound, Key: key}
}

// UnknownProduct builds a KeyError wrapping ErrUnknownProduct for the
// given CUSIP.
func UnknownProduct(cusip any) error {
	return &KeyError{Err: ErrUnknownProduct, Key: cusip}
}

// FatalError marks a condition that indicates a programming error rather
// than bad input: a caller at the process boundary is expected to
// recover it and call logger.Fatal with it, not to handle it inline.
type FatalError struct {
	Msg string
}

func (e *FatalError) Error() string {
	return e.Msg
}

// Fatal constructs a FatalError with msg.
func Fatal(msg string) error {
	return &FatalError{Msg: msg}
}
