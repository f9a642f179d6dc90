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

// GetPrivatePair returns the pair cached under private[name], generating it
// on first access. Generation happens at most once per (user, name): later
// calls return the cached pair. A user with no document yet gets an empty one
// created first.
func (s *DefaultMetadataService) GetPrivatePair(ctx context.Context, userID, name string) (models.PrivatePair, error) {
	if name == "" {
		return models.PrivatePair{}, validationErrorf("no name specified")
	}

	pair, err := s.metaPair(ctx, userID)
	if err != nil {
		return models.PrivatePair{}, err
	}

	doc, err := s.Repo.GetDoc(ctx, pair)
	if errors.Is(err, metadataRepo.ErrNotFound) {
		if _, createErr := s.Repo.CreateDoc(ctx, pair, models.Document{}); createErr != nil {
			return models.PrivatePair{}, createErr
		}
		doc = models.Document{}
	} else if err != nil {
		return models.PrivatePair{}, err
	}

	if cached, ok := doc.PrivatePairFrom(name); ok {
		return cached, nil
	}

	generated, err := s.Users.GetAnonymousPair(ctx, userID)
	if err != nil {
		utils.GetLogger().Warn("failed to generate anonymous pair",
			zap.String("userId", userID), zap.String("name", name), zap.Error(err))
		return models.PrivatePair{}, err
	}

	updates := []metadataRepo.Update{{
		Path:  metadataRepo.Path{models.CollectionPrivate, name},
		Value: map[string]any{"id": generated.ID, "hash": generated.Hash},
	}}
	updated, err := s.Repo.PartialUpdate(ctx, pair, updates)
	if err != nil {
		return models.PrivatePair{}, err
	}

	stored, ok := updated.PrivatePairFrom(name)
	if !ok {
		return models.PrivatePair{}, fmt.Errorf("private pair %s for user %s missing after update", name, userID)
	}
	return stored, nil
}

func (s *DefaultMetadataService) DeletePrivatePair(ctx context.Context, userID, name string) error {
	return ErrNotImplemented
}
