package object

import "strings"

// RefKind tells whether a stored reference is already a URL or a bucket key.
type RefKind int

const (
	RefStorageKey RefKind = iota
	RefPublicURL
)

func (k RefKind) String() string {
	switch k {
	case RefPublicURL:
		return "public_url"
	default:
		return "storage_key"
	}
}

// Ref is a stored image reference: either a fully-qualified URL or a key
// resolvable inside a bucket.
type Ref struct {
	Kind  RefKind
	Value string
}

// ParseRef classifies a raw stored reference.
func ParseRef(raw string) Ref {
	v := strings.TrimSpace(raw)
	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return Ref{Kind: RefPublicURL, Value: v}
	}
	return Ref{Kind: RefStorageKey, Value: v}
}

// KeyRef wraps a bucket key.
func KeyRef(key string) Ref {
	return Ref{Kind: RefStorageKey, Value: key}
}

// URLRef wraps an already-public URL.
func URLRef(u string) Ref {
	return Ref{Kind: RefPublicURL, Value: u}
}

// String returns the raw form persisted in the database.
func (r Ref) String() string {
	return r.Value
}

// IsZero reports whether the reference is empty.
func (r Ref) IsZero() bool {
	return strings.TrimSpace(r.Value) == ""
}
