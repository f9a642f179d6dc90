package metadata

import (
	"context"
	"fmt"
	"sync"
	"testing"

	metadataRepo "petrel/database/repository/metadata"
	"petrel/models"

	"github.com/stretchr/testify/require"
)

// fakeGatekeeper serves canned permission relations keyed by user id.
type fakeGatekeeper struct {
	groupsForUser map[string]map[string]models.PermissionSet
	usersInGroup  map[string]map[string]models.PermissionSet
	err           error
}

func (g *fakeGatekeeper) GroupsForUser(ctx context.Context, userID string) (map[string]models.PermissionSet, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.groupsForUser[userID], nil
}

func (g *fakeGatekeeper) UsersInGroup(ctx context.Context, userID string) (map[string]models.PermissionSet, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.usersInGroup[userID], nil
}

// fakeUserAPI serves identities from a fixed directory and derives key pairs
// deterministically from user ids. Anonymous pairs are numbered in generation
// order so tests can assert how many were handed out. usersFn, when set,
// replaces the identity lookup entirely.
type fakeUserAPI struct {
	identities map[string]models.Identity
	usersErr   error
	usersFn    func(ctx context.Context, ids []string) ([]models.Identity, error)

	mu        sync.Mutex
	anonCount int
}

func (u *fakeUserAPI) GetUsersWithIds(ctx context.Context, ids []string) ([]models.Identity, error) {
	if u.usersFn != nil {
		return u.usersFn(ctx, ids)
	}
	if u.usersErr != nil {
		return nil, u.usersErr
	}
	out := make([]models.Identity, 0, len(ids))
	for _, id := range ids {
		identity, ok := u.identities[id]
		if !ok {
			return nil, fmt.Errorf("unknown user %s", id)
		}
		out = append(out, identity)
	}
	return out, nil
}

func (u *fakeUserAPI) GetMetaPair(ctx context.Context, userID string) (models.KeyPair, error) {
	return testPair(userID), nil
}

func (u *fakeUserAPI) GetAnonymousPair(ctx context.Context, userID string) (models.PrivatePair, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.anonCount++
	return models.PrivatePair{
		ID:   fmt.Sprintf("anon-id-%d", u.anonCount),
		Hash: fmt.Sprintf("anon-hash-%d", u.anonCount),
	}, nil
}

func (u *fakeUserAPI) CheckToken(ctx context.Context, token string) (models.TokenData, error) {
	return models.TokenData{}, fmt.Errorf("not supported in tests")
}

func testPair(userID string) models.KeyPair {
	return models.KeyPair{UserID: userID, Hash: "hash-" + userID}
}

type serviceFixture struct {
	service    *DefaultMetadataService
	repo       *metadataRepo.MemoryMetadataRepo
	users      *fakeUserAPI
	gatekeeper *fakeGatekeeper
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	cipher, err := metadataRepo.NewDocumentCipher("test-salt")
	require.NoError(t, err)

	repo := metadataRepo.NewMemoryMetadataRepo(cipher)
	users := &fakeUserAPI{identities: map[string]models.Identity{}}
	gatekeeper := &fakeGatekeeper{
		groupsForUser: map[string]map[string]models.PermissionSet{},
		usersInGroup:  map[string]map[string]models.PermissionSet{},
	}
	return &serviceFixture{
		service:    &DefaultMetadataService{Repo: repo, Users: users, Gatekeeper: gatekeeper},
		repo:       repo,
		users:      users,
		gatekeeper: gatekeeper,
	}
}

// seedDoc stores a document for a user through the same cipher the service
// reads with.
func (f *serviceFixture) seedDoc(t *testing.T, userID string, doc models.Document) {
	t.Helper()
	_, err := f.repo.CreateDoc(context.Background(), testPair(userID), doc)
	require.NoError(t, err)
}
