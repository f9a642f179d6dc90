package metadata

import (
	"net/url"
	"testing"

	"petrel/models"

	"github.com/stretchr/testify/require"
)

func TestParseUsersQueryEmpty(t *testing.T) {
	for _, raw := range []string{"", "trustorPermissions=", "email=%20%20", "trusteePermissions=+,+"} {
		values, err := url.ParseQuery(raw)
		require.NoError(t, err)
		query, err := ParseUsersQuery(values)
		require.NoError(t, err, raw)
		require.Nil(t, query, raw)
	}
}

func TestParseUsersQueryPermissions(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		set     models.PermissionSet
		matches bool
	}{
		{name: "any with permissions", raw: "trustorPermissions=any", set: models.PermissionSet{"view": {}}, matches: true},
		{name: "any with empty set", raw: "trustorPermissions=any", set: models.PermissionSet{}, matches: false},
		{name: "any with nil set", raw: "trustorPermissions=any", set: nil, matches: false},
		{name: "none with nil set", raw: "trustorPermissions=none", set: nil, matches: true},
		{name: "none with empty set", raw: "trustorPermissions=none", set: models.PermissionSet{}, matches: true},
		{name: "none with permissions", raw: "trustorPermissions=none", set: models.PermissionSet{"upload": {}}, matches: false},
		{name: "specific present", raw: "trustorPermissions=view", set: models.PermissionSet{"view": {}}, matches: true},
		{name: "specific absent", raw: "trustorPermissions=view", set: models.PermissionSet{"upload": {}}, matches: false},
		{name: "specific list needs all", raw: "trustorPermissions=view,upload", set: models.PermissionSet{"view": {}}, matches: false},
		{name: "specific list all present", raw: "trustorPermissions=view,upload", set: models.PermissionSet{"view": {}, "upload": {}}, matches: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.raw)
			require.NoError(t, err)
			query, err := ParseUsersQuery(values)
			require.NoError(t, err)
			require.NotNil(t, query)
			require.NotNil(t, query.TrustorPermissions)
			require.Equal(t, tt.matches, query.TrustorPermissions.Matches(tt.set))
		})
	}
}

func TestParseUsersQuerySentinelConflicts(t *testing.T) {
	for _, raw := range []string{
		"trustorPermissions=any,none",
		"trustorPermissions=any,view",
		"trusteePermissions=none,upload",
		"trusteePermissions=view,none",
	} {
		values, err := url.ParseQuery(raw)
		require.NoError(t, err)
		_, err = ParseUsersQuery(values)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, raw)
	}
}

func TestMatchesIdentity(t *testing.T) {
	identity := models.Identity{
		UserID:        "u1",
		Username:      "Anne@Example.com",
		EmailVerified: "yes",
		TermsAccepted: "2024-03-01T00:00:00Z",
	}

	tests := []struct {
		name    string
		raw     string
		matches bool
	}{
		{name: "email substring case insensitive", raw: "email=anne@EXAMPLE", matches: true},
		{name: "email no match", raw: "email=bob", matches: false},
		{name: "emailVerified truthy token", raw: "emailVerified=true", matches: true},
		{name: "emailVerified false wanted", raw: "emailVerified=false", matches: false},
		{name: "terms substring", raw: "termsAccepted=2024-03", matches: true},
		{name: "terms no match", raw: "termsAccepted=2025", matches: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.raw)
			require.NoError(t, err)
			query, err := ParseUsersQuery(values)
			require.NoError(t, err)
			require.Equal(t, tt.matches, query.MatchesIdentity(identity))
		})
	}
}

func TestMatchesIdentityUnverifiedStored(t *testing.T) {
	// A stored flag outside the truthy-token set counts as unverified.
	identity := models.Identity{UserID: "u1", EmailVerified: "nope"}

	values, err := url.ParseQuery("emailVerified=false")
	require.NoError(t, err)
	query, err := ParseUsersQuery(values)
	require.NoError(t, err)
	require.True(t, query.MatchesIdentity(identity))

	values, err = url.ParseQuery("emailVerified=1")
	require.NoError(t, err)
	query, err = ParseUsersQuery(values)
	require.NoError(t, err)
	require.False(t, query.MatchesIdentity(identity))
}

func TestMatchesProfile(t *testing.T) {
	profile := map[string]any{
		"fullName": "Anne Droid",
		"patient": map[string]any{
			"birthday":      "1990-06-15",
			"diagnosisDate": "2010-01-02",
		},
	}

	tests := []struct {
		name    string
		raw     string
		profile map[string]any
		matches bool
	}{
		{name: "name substring", raw: "name=droid", profile: profile, matches: true},
		{name: "name miss", raw: "name=zoe", profile: profile, matches: false},
		{name: "birthday substring", raw: "birthday=1990-06", profile: profile, matches: true},
		{name: "diagnosis substring", raw: "diagnosisDate=2010", profile: profile, matches: true},
		{name: "nil profile fails name", raw: "name=droid", profile: nil, matches: false},
		{name: "missing patient fails birthday", raw: "birthday=1990", profile: map[string]any{"fullName": "Anne"}, matches: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.raw)
			require.NoError(t, err)
			query, err := ParseUsersQuery(values)
			require.NoError(t, err)
			require.Equal(t, tt.matches, query.MatchesProfile(tt.profile))
		})
	}
}

func TestMatchesIsConjunction(t *testing.T) {
	values, err := url.ParseQuery("trustorPermissions=view&name=anne")
	require.NoError(t, err)
	query, err := ParseUsersQuery(values)
	require.NoError(t, err)

	view := &models.RelatedUserView{
		Identity:           models.Identity{UserID: "u1", Username: "anne@example.com"},
		TrustorPermissions: models.PermissionSet{"view": {}},
		Profile:            map[string]any{"fullName": "Anne Droid"},
	}
	require.True(t, query.Matches(view))

	// Dropping either predicate's support fails the whole query.
	view.TrustorPermissions = nil
	require.False(t, query.Matches(view))

	view.TrustorPermissions = models.PermissionSet{"view": {}}
	view.Profile = map[string]any{"fullName": "Bob"}
	require.False(t, query.Matches(view))
}

func TestNilQueryMatchesEverything(t *testing.T) {
	var query *UsersQuery
	require.True(t, query.MatchesPermissions(models.UserPermissions{}))
	require.True(t, query.MatchesIdentity(models.Identity{}))
	require.True(t, query.MatchesProfile(nil))
	require.True(t, query.Matches(&models.RelatedUserView{}))
}
