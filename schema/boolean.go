package schema

import (
	"strings"

	"github.com/flashindex/flashindex/posting"
)

var (
	boolTrues  = map[string]bool{"t": true, "true": true, "yes": true, "1": true}
	boolBytes  = [2][]byte{[]byte("f"), []byte("t")}
)

// Boolean indexes a single "t"/"f" term per document; self-parsing so a
// bare "*" query string becomes Every rather than a failed boolean parse.
type Boolean struct {
	baseField
}

func NewBoolean(stored bool) *Boolean {
	f := &Boolean{}
	f.format = posting.Format{}
	f.stored = stored
	f.indexed = true
	return f
}

func (b *Boolean) asBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return boolTrues[strings.ToLower(strings.TrimSpace(v))]
	default:
		return false
	}
}

func (b *Boolean) Index(value any, docID int) (int, []posting.PostTuple, error) {
	bs, _ := b.ToBytes(value)
	return 1, []posting.PostTuple{{DocID: docID, TermBytes: bs, Length: 1, Weight: 1}}, nil
}

func (b *Boolean) ToBytes(value any) ([]byte, error) {
	if b.asBool(value) {
		return boolBytes[1], nil
	}
	return boolBytes[0], nil
}

func (b *Boolean) FromBytes(bs []byte) (any, error) {
	return string(bs) == "t", nil
}

func (b *Boolean) ToColumnValue(value any) (any, error) {
	if b.asBool(value) {
		return uint8(1), nil
	}
	return uint8(0), nil
}

func (b *Boolean) FromColumnValue(value any) (any, error) {
	switch v := value.(type) {
	case uint8:
		return v != 0, nil
	case bool:
		return v, nil
	default:
		return false, nil
	}
}

func (b *Boolean) SelfParsing() bool { return true }

// parsedBoolQuery expresses the query the parser layer should build for a
// Boolean field's self-parsed query string: either "every" (qstring ==
// "*") or a literal boolean term.
func (b *Boolean) ParsedBoolQuery(qstring string) (every bool, value bool) {
	if qstring == "*" {
		return true, false
	}
	return false, b.asBool(qstring)
}
