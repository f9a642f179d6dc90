package metadata

import (
	"context"
	"testing"

	metadataRepo "petrel/database/repository/metadata"
	"petrel/models"

	"github.com/stretchr/testify/require"
)

func TestGetCollectionServerSeesEverything(t *testing.T) {
	f := newServiceFixture(t)
	f.seedDoc(t, "user-1", models.Document{
		"profile":  map[string]any{"fullName": "Anne", "patient": map[string]any{"birthday": "1990-01-01"}},
		"settings": map[string]any{"units": "mmol/L"},
	})
	session := models.TokenData{UserID: "server", IsServer: true}

	value, err := f.service.GetCollection(context.Background(), session, "user-1", "settings")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"units": "mmol/L"}, value)

	value, err = f.service.GetCollection(context.Background(), session, "user-1", "profile")
	require.NoError(t, err)
	require.Contains(t, value, "patient")
}

func TestGetCollectionTrustedCaller(t *testing.T) {
	f := newServiceFixture(t)
	f.seedDoc(t, "user-1", models.Document{
		"profile":  map[string]any{"fullName": "Anne"},
		"settings": map[string]any{"units": "mmol/L"},
	})
	// user-1 granted the caller view access.
	f.gatekeeper.groupsForUser["user-1"] = map[string]models.PermissionSet{
		"caller": {models.CapabilityView: {}},
	}
	session := models.TokenData{UserID: "caller"}

	value, err := f.service.GetCollection(context.Background(), session, "user-1", "settings")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"units": "mmol/L"}, value)
}

func TestGetCollectionOwnDocument(t *testing.T) {
	f := newServiceFixture(t)
	f.seedDoc(t, "user-1", models.Document{
		"settings": map[string]any{"units": "mmol/L"},
	})
	session := models.TokenData{UserID: "user-1"}

	value, err := f.service.GetCollection(context.Background(), session, "user-1", "settings")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"units": "mmol/L"}, value)
}

func TestGetCollectionUntrustedCaller(t *testing.T) {
	f := newServiceFixture(t)
	f.seedDoc(t, "user-1", models.Document{
		"profile":  map[string]any{"fullName": "Anne", "patient": map[string]any{"birthday": "1990-01-01"}},
		"settings": map[string]any{"units": "mmol/L"},
	})
	session := models.TokenData{UserID: "stranger"}

	// Non-profile collections are off limits.
	_, err := f.service.GetCollection(context.Background(), session, "user-1", "settings")
	require.ErrorIs(t, err, metadataRepo.ErrUnauthorized)

	// The profile is readable but reduced to the public attribute.
	value, err := f.service.GetCollection(context.Background(), session, "user-1", "profile")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"fullName": "Anne"}, value)
}

func TestGetCollectionMissing(t *testing.T) {
	f := newServiceFixture(t)
	f.seedDoc(t, "user-1", models.Document{"profile": map[string]any{"fullName": "Anne"}})
	session := models.TokenData{UserID: "server", IsServer: true}

	_, err := f.service.GetCollection(context.Background(), session, "user-1", "preferences")
	require.ErrorIs(t, err, metadataRepo.ErrNotFound)

	_, err = f.service.GetCollection(context.Background(), session, "missing-user", "profile")
	require.ErrorIs(t, err, metadataRepo.ErrNotFound)
}

func TestGetCollectionRequiresName(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.service.GetCollection(context.Background(),
		models.TokenData{IsServer: true}, "user-1", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdateCollection(t *testing.T) {
	f := newServiceFixture(t)
	f.seedDoc(t, "user-1", models.Document{
		"profile": map[string]any{"fullName": "Anne", "nickname": "A"},
	})

	value, err := f.service.UpdateCollection(context.Background(), "user-1", "profile", map[string]any{
		"patient.birthday": "1990-01-01",
		"nickname":         nil,
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"fullName": "Anne",
		"patient":  map[string]any{"birthday": "1990-01-01"},
	}, value)

	// The write persisted.
	doc, err := f.repo.GetDoc(context.Background(), testPair("user-1"))
	require.NoError(t, err)
	require.Equal(t, "1990-01-01", doc.SubMap("profile")["patient"].(map[string]any)["birthday"])
}

func TestUpdateCollectionCreatesMissingDocument(t *testing.T) {
	f := newServiceFixture(t)

	value, err := f.service.UpdateCollection(context.Background(), "user-1", "preferences", map[string]any{
		"theme": "dark",
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"theme": "dark"}, value)

	doc, err := f.repo.GetDoc(context.Background(), testPair("user-1"))
	require.NoError(t, err)
	require.Equal(t, "dark", doc.SubMap("preferences")["theme"])
}

func TestUpdateCollectionValidation(t *testing.T) {
	f := newServiceFixture(t)
	var verr *ValidationError

	_, err := f.service.UpdateCollection(context.Background(), "user-1", "", map[string]any{"a": 1})
	require.ErrorAs(t, err, &verr)

	_, err = f.service.UpdateCollection(context.Background(), "user-1", "profile", nil)
	require.ErrorAs(t, err, &verr)

	// Dot paths with empty segments are rejected before any storage call.
	_, err = f.service.UpdateCollection(context.Background(), "user-1", "profile", map[string]any{"a..b": 1})
	require.ErrorAs(t, err, &verr)
}

func TestDeleteCollectionNotImplemented(t *testing.T) {
	f := newServiceFixture(t)
	err := f.service.DeleteCollection(context.Background(), "user-1", "profile")
	require.ErrorIs(t, err, ErrNotImplemented)
}

func TestCollections(t *testing.T) {
	f := newServiceFixture(t)
	require.Equal(t, []string{"profile", "groups", "private"}, f.service.Collections())
}
