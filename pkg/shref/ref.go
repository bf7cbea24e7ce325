// Package shref implements the structured resource reference used by the
// shopping list API to tie lists and items to external resources.
//
// A reference has the form
//
//	nrn:msh:{hostname}:{type}:{id}[:{suffix}]
//
// Empty hostname, id and suffix segments are representable; a missing suffix
// is distinct from an empty one.
package shref

import (
	"errors"
	"fmt"
	"strings"
)

const (
	scheme    = "nrn"
	namespace = "msh"

	// DefaultID is used by New when no id is given.
	DefaultID = "default"
)

// ErrInvalid reports a string that is not a well formed reference.
var ErrInvalid = errors.New("shref: invalid reference")

// Type is the resource category segment of a reference.
//
// Unrecognised values are kept verbatim so a parsed reference always formats
// back to the exact input. Known reports whether the value is one of the
// categories this package knows about; callers treat everything else as
// TypeUnknown.
type Type string

const (
	TypeList         Type = "list"
	TypeRecipe       Type = "wprm_recipe"
	TypeWeekMenu     Type = "weekmenu"
	TypeShoppingList Type = "shoppinglist"

	// TypeUnknown is the category reported by Kind for unrecognised types.
	TypeUnknown Type = "unknown"
)

// Known reports whether t is one of the recognised categories.
func (t Type) Known() bool {
	switch t {
	case TypeList, TypeRecipe, TypeWeekMenu, TypeShoppingList:
		return true
	default:
		return false
	}
}

// Kind returns t when it is known and TypeUnknown otherwise.
func (t Type) Kind() Type {
	if t.Known() {
		return t
	}
	return TypeUnknown
}

func (t Type) String() string { return string(t) }

// Ref is an immutable structured reference. The zero value is not a valid
// reference; use New or Parse.
//
// Ref is comparable, equality is structural over hostname, type, id and
// suffix.
type Ref struct {
	hostname  string
	typ       Type
	id        string
	suffix    string
	hasSuffix bool
}

// New builds a reference without a suffix. An empty id becomes DefaultID.
func New(hostname string, typ Type, id string) Ref {
	if id == "" {
		id = DefaultID
	}
	return Ref{hostname: hostname, typ: typ, id: id}
}

// WithSuffix returns a copy of r carrying the given suffix.
func (r Ref) WithSuffix(suffix string) Ref {
	r.suffix = suffix
	r.hasSuffix = true
	return r
}

// WithoutSuffix returns a copy of r with the suffix removed.
func (r Ref) WithoutSuffix() Ref {
	r.suffix = ""
	r.hasSuffix = false
	return r
}

func (r Ref) Hostname() string { return r.hostname }
func (r Ref) Type() Type       { return r.typ }
func (r Ref) ID() string       { return r.id }

// Suffix returns the suffix and whether one is present.
func (r Ref) Suffix() (string, bool) { return r.suffix, r.hasSuffix }

// IsZero reports whether r is the zero value.
func (r Ref) IsZero() bool { return r == Ref{} }

// Parse parses the string form of a reference.
func Parse(s string) (Ref, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 5 || len(parts) > 6 {
		return Ref{}, fmt.Errorf("%w: %q has %d segments", ErrInvalid, s, len(parts))
	}
	if parts[0] != scheme || parts[1] != namespace {
		return Ref{}, fmt.Errorf("%w: %q must start with %s:%s", ErrInvalid, s, scheme, namespace)
	}

	r := Ref{
		hostname: parts[2],
		typ:      Type(parts[3]),
		id:       parts[4],
	}
	if len(parts) == 6 {
		r.suffix = parts[5]
		r.hasSuffix = true
	}
	return r, nil
}

// MustParse parses or panics. Useful for hard-coded references in tests.
func MustParse(s string) Ref {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the canonical string form. Field values are passed through
// unmodified.
func (r Ref) String() string {
	var b strings.Builder
	b.Grow(len(scheme) + len(namespace) + len(r.hostname) + len(r.typ) + len(r.id) + len(r.suffix) + 5)
	b.WriteString(scheme)
	b.WriteByte(':')
	b.WriteString(namespace)
	b.WriteByte(':')
	b.WriteString(r.hostname)
	b.WriteByte(':')
	b.WriteString(string(r.typ))
	b.WriteByte(':')
	b.WriteString(r.id)
	if r.hasSuffix {
		b.WriteByte(':')
		b.WriteString(r.suffix)
	}
	return b.String()
}

// MarshalText encodes r as its string form, which also makes it a JSON string.
func (r Ref) MarshalText() ([]byte, error) {
	if r.IsZero() {
		return nil, fmt.Errorf("%w: zero reference", ErrInvalid)
	}
	return []byte(r.String()), nil
}

// UnmarshalText parses the string form into r.
func (r *Ref) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
