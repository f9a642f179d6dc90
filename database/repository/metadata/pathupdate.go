package metadataRepo

import (
	"fmt"
	"sort"
	"strings"

	"petrel/models"
)

// Path is a validated dot-notation address into a document. It always has at
// least one segment and no empty segments.
type Path []string

// ParsePath splits a dot-notation string into a Path. Empty paths and empty
// segments ("a..b", trailing dots) are rejected.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("empty update path")
	}
	segments := strings.Split(s, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("update path %q has an empty segment", s)
		}
	}
	return Path(segments), nil
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Update sets one path to a value. A nil Value deletes the leaf key instead.
type Update struct {
	Path  Path
	Value any
}

// UpdatesFromMap converts a flat path→value mapping into an ordered update
// list. Keys are applied in sorted order so callers get a stable result from
// an unordered map; paths are expected non-conflicting.
func UpdatesFromMap(fields map[string]any) ([]Update, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]Update, 0, len(keys))
	for _, k := range keys {
		path, err := ParsePath(k)
		if err != nil {
			return nil, err
		}
		updates = append(updates, Update{Path: path, Value: fields[k]})
	}
	return updates, nil
}

// ApplyUpdates applies the updates to the document in order, mutating it in
// place. Setting a path creates intermediate objects as needed, replacing any
// non-object value standing in the way. Deleting removes only the leaf key;
// parent objects stay even when they end up empty.
func ApplyUpdates(doc models.Document, updates []Update) {
	for _, u := range updates {
		if u.Value == nil {
			deletePath(doc, u.Path)
		} else {
			setPath(doc, u.Path, u.Value)
		}
	}
}

func setPath(doc map[string]any, path Path, value any) {
	cur := doc
	for _, seg := range path[:len(path)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}

func deletePath(doc map[string]any, path Path) {
	cur := doc
	for _, seg := range path[:len(path)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, path[len(path)-1])
}
