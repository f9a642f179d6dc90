package metadata

import (
	"net/url"
	"regexp"
	"strings"

	"petrel/models"
)

// permissionsKind tags the three shapes a permission predicate can take.
type permissionsKind int

const (
	permissionsSpecific permissionsKind = iota
	permissionsAny
	permissionsNone
)

// sentinel tokens accepted in permission query parameters.
const (
	sentinelAny  = "any"
	sentinelNone = "none"
)

// truthy tokens accepted for the emailVerified predicate and for coercing the
// stored flag before comparison.
var trueTokens = map[string]bool{"true": true, "yes": true, "y": true, "1": true}

// PermissionsPredicate is the tagged form of a permission query: the ANY
// sentinel (at least one capability), the NONE sentinel (exactly none), or a
// concrete capability list that must all be present.
type PermissionsPredicate struct {
	kind         permissionsKind
	capabilities []string
}

func AnyPermissions() *PermissionsPredicate {
	return &PermissionsPredicate{kind: permissionsAny}
}

func NonePermissions() *PermissionsPredicate {
	return &PermissionsPredicate{kind: permissionsNone}
}

func SpecificPermissions(capabilities ...string) *PermissionsPredicate {
	return &PermissionsPredicate{kind: permissionsSpecific, capabilities: capabilities}
}

// Matches evaluates the predicate against a candidate's permission set. A nil
// set and an empty set both satisfy NONE and fail ANY; a concrete list needs
// every listed capability present.
func (p *PermissionsPredicate) Matches(set models.PermissionSet) bool {
	switch p.kind {
	case permissionsAny:
		return !set.Empty()
	case permissionsNone:
		return set.Empty()
	default:
		for _, capability := range p.capabilities {
			if !set.Has(capability) {
				return false
			}
		}
		return true
	}
}

// fieldMatcher is a compiled case-insensitive substring test.
type fieldMatcher struct {
	re *regexp.Regexp
}

func newFieldMatcher(text string) *fieldMatcher {
	return &fieldMatcher{re: regexp.MustCompile("(?i)" + regexp.QuoteMeta(text))}
}

func (m *fieldMatcher) matches(value string) bool {
	return m.re.MatchString(value)
}

// UsersQuery is the optional predicate a listing request carries. All present
// predicates must hold for a candidate to survive (conjunction).
type UsersQuery struct {
	TrustorPermissions *PermissionsPredicate
	TrusteePermissions *PermissionsPredicate
	Email              *fieldMatcher
	EmailVerified      *bool
	TermsAccepted      *fieldMatcher
	Name               *fieldMatcher
	Birthday           *fieldMatcher
	DiagnosisDate      *fieldMatcher
}

// ParseUsersQuery builds a UsersQuery from request query parameters. Returns
// nil when no predicate is present. A sentinel combined with anything else in
// the same permission parameter — including the other sentinel — is rejected
// with a ValidationError before any collaborator is touched.
func ParseUsersQuery(values url.Values) (*UsersQuery, error) {
	query := &UsersQuery{}
	present := false

	trustor, err := parsePermissionsParam("trustorPermissions", values.Get("trustorPermissions"))
	if err != nil {
		return nil, err
	}
	if trustor != nil {
		query.TrustorPermissions = trustor
		present = true
	}

	trustee, err := parsePermissionsParam("trusteePermissions", values.Get("trusteePermissions"))
	if err != nil {
		return nil, err
	}
	if trustee != nil {
		query.TrusteePermissions = trustee
		present = true
	}

	for param, target := range map[string]**fieldMatcher{
		"email":         &query.Email,
		"termsAccepted": &query.TermsAccepted,
		"name":          &query.Name,
		"birthday":      &query.Birthday,
		"diagnosisDate": &query.DiagnosisDate,
	} {
		if text := strings.TrimSpace(values.Get(param)); text != "" {
			*target = newFieldMatcher(text)
			present = true
		}
	}

	if text := strings.TrimSpace(values.Get("emailVerified")); text != "" {
		verified := stringToBool(text)
		query.EmailVerified = &verified
		present = true
	}

	if !present {
		return nil, nil
	}
	return query, nil
}

func parsePermissionsParam(param, raw string) (*PermissionsPredicate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var tokens []string
	for _, token := range strings.Split(raw, ",") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	hasSentinel := false
	for _, token := range tokens {
		if token == sentinelAny || token == sentinelNone {
			hasSentinel = true
		}
	}
	if hasSentinel && len(tokens) > 1 {
		return nil, validationErrorf("%s cannot combine %s with other values", param, strings.Join(tokens, ","))
	}

	switch tokens[0] {
	case sentinelAny:
		return AnyPermissions(), nil
	case sentinelNone:
		return NonePermissions(), nil
	default:
		return SpecificPermissions(tokens...), nil
	}
}

func stringToBool(value string) bool {
	return trueTokens[strings.ToLower(strings.TrimSpace(value))]
}

// MatchesPermissions evaluates only the permission predicates. Used to prune
// the merged relation before identities are fetched.
func (q *UsersQuery) MatchesPermissions(perms models.UserPermissions) bool {
	if q == nil {
		return true
	}
	if q.TrustorPermissions != nil && !q.TrustorPermissions.Matches(perms.Trustor) {
		return false
	}
	if q.TrusteePermissions != nil && !q.TrusteePermissions.Matches(perms.Trustee) {
		return false
	}
	return true
}

// MatchesIdentity evaluates the identity-level predicates. The stored
// emailVerified flag is coerced through the truthy-token set before the exact
// boolean comparison.
func (q *UsersQuery) MatchesIdentity(identity models.Identity) bool {
	if q == nil {
		return true
	}
	if q.Email != nil && !q.Email.matches(identity.Username) {
		return false
	}
	if q.EmailVerified != nil && *q.EmailVerified != stringToBool(identity.EmailVerified) {
		return false
	}
	if q.TermsAccepted != nil && !q.TermsAccepted.matches(identity.TermsAccepted) {
		return false
	}
	return true
}

// MatchesProfile evaluates the profile-level predicates against the (possibly
// redacted) profile attached to a view.
func (q *UsersQuery) MatchesProfile(profile map[string]any) bool {
	if q == nil {
		return true
	}
	if q.Name != nil && !q.Name.matches(profileString(profile, "fullName")) {
		return false
	}
	if q.Birthday != nil && !q.Birthday.matches(patientString(profile, "birthday")) {
		return false
	}
	if q.DiagnosisDate != nil && !q.DiagnosisDate.matches(patientString(profile, "diagnosisDate")) {
		return false
	}
	return true
}

// Matches runs every present predicate against a fully composed view.
func (q *UsersQuery) Matches(view *models.RelatedUserView) bool {
	if q == nil {
		return true
	}
	perms := models.UserPermissions{Trustor: view.TrustorPermissions, Trustee: view.TrusteePermissions}
	return q.MatchesPermissions(perms) && q.MatchesIdentity(view.Identity) && q.MatchesProfile(view.Profile)
}

func profileString(profile map[string]any, key string) string {
	if profile == nil {
		return ""
	}
	s, _ := profile[key].(string)
	return s
}

func patientString(profile map[string]any, key string) string {
	if profile == nil {
		return ""
	}
	patient, _ := profile["patient"].(map[string]any)
	if patient == nil {
		return ""
	}
	s, _ := patient[key].(string)
	return s
}
