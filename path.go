package fiberize

import (
	"fmt"

	"github.com/google/uuid"
)

// identKind discriminates the two ways a resource can be named within a
// path: a human-readable name, or a generator-issued unique token.
type identKind uint8

const (
	identNamed identKind = iota
	identUnique
)

// Ident identifies a resource by a human-readable name or by a generator-issued
// unique token. It is a plain comparable struct, so it needs no hand-rolled
// hashing or equality: Go's native struct comparison and map-key semantics
// make it hashable and equality-comparable for free.
type Ident struct {
	kind  identKind
	name  string
	token uint64
}

// Named builds an Ident from a human-readable name.
func Named(name string) Ident { return Ident{kind: identNamed, name: name} }

// Unique builds an Ident from a generator-issued token.
func Unique(token uint64) Ident { return Ident{kind: identUnique, token: token} }

func (i Ident) String() string {
	if i.kind == identNamed {
		return i.name
	}
	return fmt.Sprintf("#%d", i.token)
}

// pathKind discriminates Path's three cases.
type pathKind uint8

const (
	pathDevNull pathKind = iota
	pathPrefixed
	pathGlobal
)

// Path is the sum type {DevNull, Prefixed(uuid, ident), Global(ident)}.
// Like Ident, it is a plain comparable struct: uuid.UUID is a
// [16]byte array, so Path itself is comparable and usable directly as a map
// key, giving deterministic equality and hashing without extra machinery.
type Path struct {
	kind   pathKind
	prefix uuid.UUID
	ident  Ident
}

// DevNullPath is the null path: it compares equal only to itself, used for
// unnamed events and null references.
func DevNullPath() Path { return Path{kind: pathDevNull} }

// PrefixedPath scopes ident to a specific fiber system instance, identified by
// that system's UUID (System.UUID).
func PrefixedPath(prefix uuid.UUID, ident Ident) Path {
	return Path{kind: pathPrefixed, prefix: prefix, ident: ident}
}

// GlobalPath refers to a resource addressable on any fiberize system sharing
// this process, independent of any one system's identity.
func GlobalPath(ident Ident) Path { return Path{kind: pathGlobal, ident: ident} }

// IsDevNull reports whether p is the null path.
func (p Path) IsDevNull() bool { return p.kind == pathDevNull }

func (p Path) String() string {
	switch p.kind {
	case pathDevNull:
		return "/dev/null"
	case pathPrefixed:
		return fmt.Sprintf("/%s/%s", p.prefix, p.ident)
	case pathGlobal:
		return fmt.Sprintf("//%s", p.ident)
	default:
		return "/?"
	}
}
