package metadata

import (
	"context"

	metadataRepo "petrel/database/repository/metadata"
	"petrel/models"
)

// MetadataService is everything the transport layer needs: collection CRUD on
// a user's document, lazy private pairs, the related-users listing, and a
// storage health snapshot.
type MetadataService interface {
	// Collections lists the collection names the service advertises.
	Collections() []string

	// GetCollection reads one named top-level collection from the target
	// user's document, redacted according to the session's trust.
	GetCollection(ctx context.Context, session models.TokenData, userID, collection string) (any, error)

	// UpdateCollection applies the field updates under the named collection,
	// creating the document on first write, and returns the updated
	// collection contents.
	UpdateCollection(ctx context.Context, userID, collection string, fields map[string]any) (any, error)

	// DeleteCollection is reserved; it currently fails with ErrNotImplemented.
	DeleteCollection(ctx context.Context, userID, collection string) error

	// GetPrivatePair returns the named private pair, generating and caching
	// it on first access.
	GetPrivatePair(ctx context.Context, userID, name string) (models.PrivatePair, error)

	// DeletePrivatePair is reserved; it currently fails with ErrNotImplemented.
	DeletePrivatePair(ctx context.Context, userID, name string) error

	// ListUsers projects every user related to the target through the
	// session's privileges and the optional query.
	ListUsers(ctx context.Context, session models.TokenData, targetUserID string, query *UsersQuery) ([]*models.RelatedUserView, error)

	// Status reports storage dependency health.
	Status(ctx context.Context) metadataRepo.Status
}
