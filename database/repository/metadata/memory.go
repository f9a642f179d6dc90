package metadataRepo

import (
	"context"
	"fmt"
	"sync"

	"petrel/models"
)

// MemoryMetadataRepo is an in-memory MetadataRepository. It runs the same
// cipher as the Mongo implementation, so decrypt failures and conflict
// semantics behave identically; only the storage primitive differs. Intended
// for tests and local development.
type MemoryMetadataRepo struct {
	cipher *DocumentCipher

	mu      sync.Mutex
	records map[string]string
}

func NewMemoryMetadataRepo(cipher *DocumentCipher) *MemoryMetadataRepo {
	return &MemoryMetadataRepo{
		cipher:  cipher,
		records: make(map[string]string),
	}
}

func (r *MemoryMetadataRepo) CreateDoc(ctx context.Context, pair models.KeyPair, value models.Document) (models.Document, error) {
	if value == nil {
		value = models.Document{}
	}
	crypted, err := r.cipher.Encrypt(pair, value)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt document for user %s: %w", pair.UserID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[pair.UserID]; exists {
		return nil, fmt.Errorf("document for user %s: %w", pair.UserID, ErrConflict)
	}
	r.records[pair.UserID] = crypted
	return sanitizeStoredValue(value), nil
}

func (r *MemoryMetadataRepo) GetDoc(ctx context.Context, pair models.KeyPair) (models.Document, error) {
	r.mu.Lock()
	crypted, exists := r.records[pair.UserID]
	r.mu.Unlock()

	if !exists {
		return nil, fmt.Errorf("document for user %s: %w", pair.UserID, ErrNotFound)
	}
	value, err := r.cipher.Decrypt(pair, crypted)
	if err != nil {
		return nil, fmt.Errorf("document for user %s: %w", pair.UserID, ErrUnauthorized)
	}
	return value, nil
}

func (r *MemoryMetadataRepo) PartialUpdate(ctx context.Context, pair models.KeyPair, updates []Update) (models.Document, error) {
	// Same read-modify-write shape as the Mongo repository: only the read and
	// the write are individually atomic.
	current, err := r.GetDoc(ctx, pair)
	if err != nil {
		return nil, err
	}

	clone := current.Clone()
	ApplyUpdates(clone, updates)

	crypted, err := r.cipher.Encrypt(pair, clone)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt document for user %s: %w", pair.UserID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[pair.UserID]; !exists {
		return nil, fmt.Errorf("document for user %s: %w", pair.UserID, ErrNotFound)
	}
	r.records[pair.UserID] = crypted
	return clone, nil
}

func (r *MemoryMetadataRepo) Status(ctx context.Context) Status {
	return Status{Running: true, Up: []string{"memory"}, Down: []string{}}
}

// Wipe clears every stored document.
func (r *MemoryMetadataRepo) Wipe() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[string]string)
}
