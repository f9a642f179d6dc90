package metadata

import (
	"context"

	"petrel/clients"
	metadataRepo "petrel/database/repository/metadata"
	"petrel/models"
)

// Fan-out bounds for the related-users listing.
const (
	identityBatchSize        = 200
	identityFetchConcurrency = 5
	composeConcurrency       = 20
)

// DefaultMetadataService implements MetadataService on top of the document
// repository and the two external collaborators.
type DefaultMetadataService struct {
	Repo       metadataRepo.MetadataRepository
	Users      clients.UserAPI
	Gatekeeper clients.Gatekeeper
}

func (s *DefaultMetadataService) Status(ctx context.Context) metadataRepo.Status {
	return s.Repo.Status(ctx)
}

// metaPair resolves the key pair addressing a user's document.
func (s *DefaultMetadataService) metaPair(ctx context.Context, userID string) (models.KeyPair, error) {
	return s.Users.GetMetaPair(ctx, userID)
}
