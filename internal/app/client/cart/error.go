package cart

import "errors"

var (
	// ErrPersistence wraps failures of the durable local storage. Mutations never
	// return it; it is observable through Store.LastPersistError.
	ErrPersistence = errors.New("cart persistence failed")
	ErrNoState     = errors.New("no persisted cart state")
	ErrNoBackup    = errors.New("no cart backup")
)
