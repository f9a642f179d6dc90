package metadata

import (
	"context"
	"errors"
	"fmt"

	metadataRepo "petrel/database/repository/metadata"
	"petrel/models"
	"petrel/utils"

	"go.uber.org/zap"
)

func (s *DefaultMetadataService) Collections() []string {
	return []string{models.CollectionProfile, models.CollectionGroups, models.CollectionPrivate}
}

// GetCollection reads one named collection from the target user's document.
// Server sessions and the user themselves see everything. Other callers must
// hold a grant from the target; without one, only the profile is readable and
// it comes back sanitized to the full name.
func (s *DefaultMetadataService) GetCollection(ctx context.Context, session models.TokenData, userID, collection string) (any, error) {
	if collection == "" {
		return nil, validationErrorf("no collection specified")
	}

	sanitize := false
	if !session.IsServer && session.UserID != userID {
		trustorPermissions, err := s.Gatekeeper.GroupsForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		_, trusted := trustorPermissions[session.UserID]
		if !trusted && collection != models.CollectionProfile {
			return nil, fmt.Errorf("collection %s for user %s: %w", collection, userID, metadataRepo.ErrUnauthorized)
		}
		sanitize = !trusted
	}

	pair, err := s.metaPair(ctx, userID)
	if err != nil {
		return nil, err
	}
	doc, err := s.Repo.GetDoc(ctx, pair)
	if err != nil {
		return nil, err
	}

	value, ok := doc[collection]
	if !ok || value == nil {
		return nil, fmt.Errorf("collection %s for user %s: %w", collection, userID, metadataRepo.ErrNotFound)
	}

	if collection == models.CollectionProfile && sanitize {
		return sanitizeProfile(value), nil
	}
	return value, nil
}

// sanitizeProfile keeps only the public attribute of a profile.
func sanitizeProfile(value any) map[string]any {
	out := map[string]any{}
	if profile, ok := value.(map[string]any); ok {
		if fullName, ok := profile["fullName"]; ok {
			out["fullName"] = fullName
		}
	}
	return out
}

// UpdateCollection prefixes the field keys with the collection name and runs
// a partial update. A missing document is created empty and the update is
// retried once; this two-step orchestration is the only retry in the service.
func (s *DefaultMetadataService) UpdateCollection(ctx context.Context, userID, collection string, fields map[string]any) (any, error) {
	if collection == "" {
		return nil, validationErrorf("no collection specified")
	}
	if len(fields) == 0 {
		return nil, validationErrorf("no fields to update")
	}

	prefixed := make(map[string]any, len(fields))
	for key, value := range fields {
		prefixed[fmt.Sprintf("%s.%s", collection, key)] = value
	}
	updates, err := metadataRepo.UpdatesFromMap(prefixed)
	if err != nil {
		return nil, validationErrorf("%v", err)
	}

	pair, err := s.metaPair(ctx, userID)
	if err != nil {
		return nil, err
	}

	doc, err := s.Repo.PartialUpdate(ctx, pair, updates)
	if errors.Is(err, metadataRepo.ErrNotFound) {
		if _, createErr := s.Repo.CreateDoc(ctx, pair, models.Document{}); createErr != nil {
			utils.GetLogger().Error("failed to create metadata document",
				zap.String("userId", userID), zap.Error(createErr))
			return nil, createErr
		}
		doc, err = s.Repo.PartialUpdate(ctx, pair, updates)
	}
	if err != nil {
		return nil, err
	}
	return doc[collection], nil
}

func (s *DefaultMetadataService) DeleteCollection(ctx context.Context, userID, collection string) error {
	return ErrNotImplemented
}
