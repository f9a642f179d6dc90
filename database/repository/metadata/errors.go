package metadataRepo

import "errors"

var (
	// ErrNotFound when no document exists for the addressed user.
	ErrNotFound = errors.New("document not found")

	// ErrConflict when a create hits the unique index on user id.
	ErrConflict = errors.New("document already exists")

	// ErrUnauthorized when stored ciphertext fails to decrypt. A key mismatch
	// and tampered data look identical to callers, deliberately.
	ErrUnauthorized = errors.New("not authorized")
)
