package domain

import "regexp"

// ContentKind names one of the three content entity types a comment, like,
// or bookmark can attach to. Values match the wire-level "schema" field.
type ContentKind string

const (
	KindDestinations ContentKind = "destinations"
	KindTraditions   ContentKind = "traditions"
	KindStories      ContentKind = "stories"
)

// ContentRef is a tagged reference to exactly one content entity. Services
// resolve it to a single foreign-key column when persisting.
type ContentRef struct {
	Kind ContentKind
	ID   string
}

// Valid reports whether the kind is one of the closed set and the id has a
// plausible identifier shape.
func (r ContentRef) Valid() bool {
	switch r.Kind {
	case KindDestinations, KindTraditions, KindStories:
		return ValidID(r.ID)
	default:
		return false
	}
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{10,64}$`)

// ValidID checks the format of an opaque entity identifier. Identifiers are
// never interpreted beyond this shape check.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
