package models

// Document is the decrypted value of a user's metadata document. Top-level
// keys are collection names (profile, settings, preferences, groups, private,
// plus anything a caller has written).
type Document map[string]any

// KeyPair addresses one metadata document. UserID is the storage key; Hash is
// a per-user secret that feeds document key derivation and is never stored
// alongside the ciphertext.
type KeyPair struct {
	UserID string `json:"userId"`
	Hash   string `json:"hash"`
}

// PrivatePair is an anonymous id/hash pair generated by the user service and
// cached under the document's private collection. Generation happens at most
// once per (user, name); later reads return the cached pair.
type PrivatePair struct {
	ID   string `json:"id"`
	Hash string `json:"hash"`
}

// Known collection names. Callers may create others; these are the ones the
// service advertises.
const (
	CollectionProfile     = "profile"
	CollectionSettings    = "settings"
	CollectionPreferences = "preferences"
	CollectionGroups      = "groups"
	CollectionPrivate     = "private"
)

// Clone returns a deep copy of the document. Nested maps and slices are
// copied; scalar values are shared.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneMap(map[string]any(d)))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// SubMap returns the named top-level collection as a map, or nil if it is
// missing or not an object.
func (d Document) SubMap(name string) map[string]any {
	if d == nil {
		return nil
	}
	if m, ok := d[name].(map[string]any); ok {
		return m
	}
	return nil
}

// PrivatePairFrom extracts the cached pair stored under private[name], if any.
func (d Document) PrivatePairFrom(name string) (PrivatePair, bool) {
	private := d.SubMap(CollectionPrivate)
	if private == nil {
		return PrivatePair{}, false
	}
	entry, ok := private[name].(map[string]any)
	if !ok {
		return PrivatePair{}, false
	}
	id, _ := entry["id"].(string)
	hash, _ := entry["hash"].(string)
	if id == "" {
		return PrivatePair{}, false
	}
	return PrivatePair{ID: id, Hash: hash}, true
}
