package metadata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	metadataRepo "petrel/database/repository/metadata"
	"petrel/models"
	"petrel/utils"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ListUsers enumerates every user holding any relationship with the target,
// composes a permission-scoped view of each, and filters them through the
// optional query. Any failure inside the fan-out aborts the whole listing
// with the first error seen; the caller never gets a silently incomplete
// list.
func (s *DefaultMetadataService) ListUsers(ctx context.Context, session models.TokenData, targetUserID string, query *UsersQuery) ([]*models.RelatedUserView, error) {
	targetUserID = strings.TrimSpace(targetUserID)
	if targetUserID == "" {
		return nil, validationErrorf("target user id not specified")
	}

	merged, err := s.mergePermissions(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	// Prune on permission predicates before paying for identity lookups.
	ids := make([]string, 0, len(merged))
	for userID, perms := range merged {
		if query.MatchesPermissions(perms) {
			ids = append(ids, userID)
		}
	}
	sort.Strings(ids)

	identities, err := s.fetchIdentities(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(identities) != len(ids) {
		return nil, fmt.Errorf("identity lookup returned %d users for %d ids", len(identities), len(ids))
	}

	views := make([]*models.RelatedUserView, len(identities))
	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(composeConcurrency)
	for i, identity := range identities {
		i, identity := i, identity
		p.Go(func(ctx context.Context) error {
			view, err := s.composeView(ctx, identity, merged[identity.UserID], query)
			if err != nil {
				return err
			}
			views[i] = view
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	results := make([]*models.RelatedUserView, 0, len(views))
	for _, view := range views {
		if view == nil {
			continue
		}
		if !session.IsServer {
			view.Sanitize()
		}
		results = append(results, view)
	}
	return results, nil
}

// mergePermissions fetches both permission relations around the target and
// merges them keyed by related user id. A user present in only one relation
// keeps the other side absent; absence and an empty set are different things
// downstream. The target itself is excluded.
func (s *DefaultMetadataService) mergePermissions(ctx context.Context, targetUserID string) (map[string]models.UserPermissions, error) {
	trustorPermissions, err := s.Gatekeeper.GroupsForUser(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	trusteePermissions, err := s.Gatekeeper.UsersInGroup(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]models.UserPermissions, len(trustorPermissions)+len(trusteePermissions))
	for userID, perms := range trustorPermissions {
		merged[userID] = models.UserPermissions{Trustor: perms}
	}
	for userID, perms := range trusteePermissions {
		entry := merged[userID]
		entry.Trustee = perms
		merged[userID] = entry
	}
	delete(merged, targetUserID)
	return merged, nil
}

// fetchIdentities batch-fetches identities in id chunks sized for the
// transport, a bounded number of chunks in flight at once. Chunk order is
// preserved in the flattened result.
func (s *DefaultMetadataService) fetchIdentities(ctx context.Context, ids []string) ([]models.Identity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var chunks [][]string
	for start := 0; start < len(ids); start += identityBatchSize {
		end := min(start+identityBatchSize, len(ids))
		chunks = append(chunks, ids[start:end])
	}

	results := make([][]models.Identity, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(identityFetchConcurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			users, err := s.Users.GetUsersWithIds(gctx, chunk)
			if err != nil {
				return fmt.Errorf("failed to fetch users: %w", err)
			}
			results[i] = users
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var identities []models.Identity
	for _, batch := range results {
		identities = append(identities, batch...)
	}
	return identities, nil
}

// composeView builds the projection for one related user. A nil return with
// no error means the query filtered the user out. A missing document is not
// an error — the user simply has no profile yet.
func (s *DefaultMetadataService) composeView(ctx context.Context, identity models.Identity, perms models.UserPermissions, query *UsersQuery) (*models.RelatedUserView, error) {
	if !query.MatchesIdentity(identity) {
		return nil, nil
	}

	view := &models.RelatedUserView{
		Identity:           identity,
		TrustorPermissions: perms.Trustor,
		TrusteePermissions: perms.Trustee,
	}

	pair, err := s.metaPair(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	doc, err := s.Repo.GetDoc(ctx, pair)
	if err != nil {
		if errors.Is(err, metadataRepo.ErrNotFound) {
			if !query.Matches(view) {
				return nil, nil
			}
			return view, nil
		}
		return nil, err
	}

	view.Profile = doc.SubMap(models.CollectionProfile)

	if perms.Trustor.Empty() {
		// No trust from the target: the patient sub-object is access-gated.
		if view.Profile != nil {
			delete(view.Profile, "patient")
		} else {
			utils.GetLogger().Error("user has no valid profile",
				zap.String("userId", identity.UserID))
		}
	} else {
		if perms.Trustor.Has(models.CapabilityCustodian) ||
			perms.Trustor.Has(models.CapabilityView) ||
			perms.Trustor.Has(models.CapabilityUpload) {
			if settings := doc.SubMap(models.CollectionSettings); len(settings) > 0 {
				view.Settings = settings
			}
		}
		if perms.Trustor.Has(models.CapabilityCustodian) {
			if preferences := doc.SubMap(models.CollectionPreferences); len(preferences) > 0 {
				view.Preferences = preferences
			}
		}
	}

	if !query.Matches(view) {
		return nil, nil
	}
	return view, nil
}
