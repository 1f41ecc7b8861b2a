// Package ident generates and validates the 8-hex identifiers used for
// every entity in a document.
package ident

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Pattern is the on-disk identifier shape: eight lowercase hex digits.
var Pattern = regexp.MustCompile(`^[0-9a-f]{8}$`)

// New returns a fresh 8-hex identifier derived from a random UUIDv4.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Valid reports whether s matches the required identifier shape.
func Valid(s string) bool {
	return Pattern.MatchString(s)
}

// Space tracks the set of identifiers already allocated within a single
// document, so New can be retried on the vanishingly rare collision
// without the caller having to know about it.
type Space struct {
	used map[string]struct{}
}

// NewSpace returns an empty identifier space.
func NewSpace() *Space {
	return &Space{used: make(map[string]struct{})}
}

// Reserve records an existing identifier (e.g. loaded from a file) as
// taken. It returns an error if the identifier is already reserved or
// malformed.
func (s *Space) Reserve(id string) error {
	if !Valid(id) {
		return fmt.Errorf("ident: malformed identifier %q", id)
	}
	if _, exists := s.used[id]; exists {
		return fmt.Errorf("ident: duplicate identifier %q", id)
	}
	s.used[id] = struct{}{}
	return nil
}

// Generate allocates and reserves a fresh identifier guaranteed unique
// within this space.
func (s *Space) Generate() string {
	for {
		id := New()
		if _, exists := s.used[id]; exists {
			continue
		}
		s.used[id] = struct{}{}
		return id
	}
}

// Len reports how many identifiers have been reserved.
func (s *Space) Len() int {
	return len(s.used)
}
