package schema

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

var (
	// ErrInvalidName is returned by Add when a field name starts with "_",
	// contains spaces, or is empty.
	ErrInvalidName = fmt.Errorf("schema: invalid field name")
	// ErrDuplicateField is returned by Add when the name is already taken
	// by a static or dynamic field entry.
	ErrDuplicateField = fmt.Errorf("schema: duplicate field name")
	// ErrFieldNotFound is returned by Schema.Field when no static or
	// dynamic entry matches the requested name.
	ErrFieldNotFound = fmt.Errorf("schema: field not found")
)

// dynEntry is one glob-pattern -> field mapping, kept in insertion order so
// lookup resolves first-match-wins per spec.md §4.3.
type dynEntry struct {
	pattern string
	field   Field
}

// Schema maps field names to field configurations, with a secondary
// glob-pattern table for dynamic fields and a mapping from parent field
// name to the names of fields it generated (e.g. a spelling companion).
type Schema struct {
	fields    map[string]Field
	order     []string // insertion order, for stable iteration
	dynamic   []dynEntry
	subfields map[string][]string
}

// New returns an empty Schema.
func New() *Schema {
	return &Schema{
		fields:    make(map[string]Field),
		subfields: make(map[string][]string),
	}
}

func isGlob(name string) bool {
	return strings.ContainsAny(name, "*?")
}

func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, "_") || strings.ContainsAny(name, " \t\n") {
		return false
	}
	return true
}

// Add registers a field under name. Names starting with "_", containing
// spaces, or empty are rejected; duplicate names (static or dynamic) are
// rejected. A name containing "*" or "?" is stored as a dynamic (glob)
// field rather than a static one. Any subfields the field generates (e.g.
// Text's spelling companion) are recursively added, with the parent
// remembering their names.
func (s *Schema) Add(name string, field Field) error {
	if !validName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if s.hasName(name) {
		return fmt.Errorf("%w: %q", ErrDuplicateField, name)
	}

	if isGlob(name) {
		s.dynamic = append(s.dynamic, dynEntry{pattern: name, field: field})
	} else {
		s.fields[name] = field
		s.order = append(s.order, name)
	}

	for _, sub := range field.Subfields(name) {
		if err := s.Add(sub.Name, sub.Field); err != nil {
			return err
		}
		s.subfields[name] = append(s.subfields[name], sub.Name)
	}
	return nil
}

// hasName reports whether name is already claimed by a static field or an
// identical dynamic pattern.
func (s *Schema) hasName(name string) bool {
	if _, ok := s.fields[name]; ok {
		return true
	}
	for _, d := range s.dynamic {
		if d.pattern == name {
			return true
		}
	}
	return false
}

// Field looks up a field by name: the static map first, then dynamic
// patterns in insertion order, first match wins.
func (s *Schema) Field(name string) (Field, error) {
	if f, ok := s.fields[name]; ok {
		return f, nil
	}
	for _, d := range s.dynamic {
		if matchGlob(d.pattern, name) {
			return d.field, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
}

// Has reports whether a field (static or dynamic) resolves for name.
func (s *Schema) Has(name string) bool {
	_, err := s.Field(name)
	return err == nil
}

// Names returns the static field names in sorted order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subfields returns the names of fields generated as companions to name
// (e.g. a Text field's spelling subfield), in the order they were added.
func (s *Schema) Subfields(name string) []string {
	return s.subfields[name]
}

// Len returns the number of static fields.
func (s *Schema) Len() int { return len(s.fields) }

// matchGlob matches name against a shell-style glob pattern using the
// same "*"/"?" semantics as Unix fnmatch. path.Match alone diverges from
// fnmatch when the name itself contains "/", which field names never do,
// so it's safe to use directly here.
func matchGlob(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}
