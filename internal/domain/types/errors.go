package types

import "errors"

var (
	ErrBootstrapFailed    = errors.New("database bootstrap failed")
	ErrMalformedRecord    = errors.New("malformed fix record")
	ErrWriteFailed        = errors.New("point write failed")
	ErrAlreadySubscribed  = errors.New("already subscribed")
	ErrUnknownStoreDriver = errors.New("unknown store driver")
	ErrUndeclaredField    = errors.New("field not declared in schema")
	ErrUndeclaredTag      = errors.New("tag not declared in schema")
)
