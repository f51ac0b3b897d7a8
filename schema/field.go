// Package schema implements the field/schema system: per-field value <->
// bytes conversion, column values, and posting generation, plus the
// schema object that maps field names (static or glob-based dynamic) to
// field configurations.
package schema

import (
	"errors"

	"github.com/flashindex/flashindex/posting"
)

// Analyzer turns field text into a stream of tokens. It is the engine's
// one external collaborator for natural-language processing; concrete
// analyzers (tokenizers, stemmers, stop-word filters) live outside this
// module.
type Analyzer interface {
	Analyze(text string, forIndexing bool) []Token
}

// Token is one unit an Analyzer emits: the token text, its ordinal
// position within the field, its character span, and a per-token boost
// multiplier.
type Token struct {
	Text     string
	Position int
	Start    int
	End      int
	Boost    float32
}

var (
	// ErrUnindexed is returned by Index/ToBytes/FromBytes on fields that
	// carry no indexed representation (stored-only fields).
	ErrUnindexed = errors.New("schema: field is not indexed")
	// ErrNotSelfParsing is returned by ParseText on fields that don't
	// implement their own query-string grammar.
	ErrNotSelfParsing = errors.New("schema: field is not self-parsing")
	// ErrValueOutOfRange is returned when a numeric value falls outside a
	// Numeric field's representable range.
	ErrValueOutOfRange = errors.New("schema: value out of range for field")
)

// Field is the capability every schema field variant implements. The
// variant set is closed: Unindexed, Text, Id, Keyword, Ngram, NgramWords,
// Boolean, Numeric, DateTime, Annotation.
type Field interface {
	// Format describes which posting components this field's postings
	// carry (lengths/weights/positions/ranges/payloads).
	Format() posting.Format
	// Indexed reports whether the field has a postable representation.
	Indexed() bool
	// Stored reports whether the original value is kept verbatim.
	Stored() bool
	// Scorable reports whether the field's postings carry weights.
	Scorable() bool
	// FieldBoost is a per-field scoring multiplier applied at index time.
	FieldBoost() float32

	// Index converts a value into a field length and its posting tuples.
	Index(value any, docID int) (length int, posts []posting.PostTuple, err error)
	// ToBytes renders a value to its term-bytes representation.
	ToBytes(value any) ([]byte, error)
	// FromBytes is the inverse of ToBytes.
	FromBytes(b []byte) (any, error)
	// ToColumnValue renders a value to its column (fixed-width sortable)
	// representation.
	ToColumnValue(value any) (any, error)
	// FromColumnValue is the inverse of ToColumnValue.
	FromColumnValue(value any) (any, error)

	// SelfParsing reports whether ParseText implements a custom grammar
	// for this field's query strings (e.g. numeric ranges, booleans).
	SelfParsing() bool
	// Subfields returns any companion fields this field generates (e.g. a
	// spelling field), named relative to the parent field's name.
	Subfields(name string) []Subfield
	// Vector returns the term-vector format this field records per
	// document, or nil if it doesn't store one.
	Vector() *posting.Format
}

// Subfield names one field generated alongside a parent field (e.g.
// Text's spelling companion).
type Subfield struct {
	Name  string
	Field Field
}

// baseField holds the configuration shared by every field variant.
type baseField struct {
	format       posting.Format
	stored       bool
	unique       bool
	indexed      bool
	storeLengths bool
	fieldBoost   float32
	vector       *posting.Format
}

func (b *baseField) Format() posting.Format { return b.format }
func (b *baseField) Stored() bool           { return b.stored }
func (b *baseField) Indexed() bool          { return b.indexed }
func (b *baseField) Scorable() bool         { return b.format.HasWeights }
func (b *baseField) FieldBoost() float32 {
	if b.fieldBoost == 0 {
		return 1.0
	}
	return b.fieldBoost
}
func (b *baseField) SelfParsing() bool                { return false }
func (b *baseField) Subfields(name string) []Subfield { return nil }
func (b *baseField) Vector() *posting.Format          { return b.vector }
