package metadataRepo

import (
	"context"

	"petrel/models"
)

// MetadataRepository owns the single metadata document each user has.
// Documents are addressed by a KeyPair: the user id is the storage key, the
// hash feeds at-rest encryption.
type MetadataRepository interface {
	// CreateDoc stores a brand new document. It fails with ErrConflict if one
	// already exists for the user; it never overwrites. The returned document
	// has internal bookkeeping (private, groups) stripped.
	CreateDoc(ctx context.Context, pair models.KeyPair, value models.Document) (models.Document, error)

	// GetDoc fetches and decrypts the user's document. ErrNotFound if none
	// exists, ErrUnauthorized if the ciphertext won't decrypt.
	GetDoc(ctx context.Context, pair models.KeyPair) (models.Document, error)

	// PartialUpdate applies dot-path updates onto the existing document via
	// read-modify-write and returns the full updated document. ErrNotFound if
	// the document doesn't exist; a concurrent update can win the write
	// entirely (document-level last writer wins).
	PartialUpdate(ctx context.Context, pair models.KeyPair, updates []Update) (models.Document, error)

	// Status reports whether the underlying storage dependency is reachable.
	Status(ctx context.Context) Status
}

// Status is a dependency-health snapshot, not a liveness/readiness split.
type Status struct {
	Running bool     `json:"running"`
	Up      []string `json:"up"`
	Down    []string `json:"down"`
}

// sanitizeStoredValue strips bookkeeping collections from a create response.
// Callers that target those sub-paths read them back through update results.
func sanitizeStoredValue(value models.Document) models.Document {
	clone := value.Clone()
	if clone == nil {
		return models.Document{}
	}
	delete(clone, "_id")
	delete(clone, models.CollectionPrivate)
	delete(clone, models.CollectionGroups)
	return clone
}
