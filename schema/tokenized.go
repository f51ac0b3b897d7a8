package schema

import (
	"strings"

	"github.com/flashindex/flashindex/posting"
)

// tokenizedField is the shared implementation behind every field variant
// that indexes by running an Analyzer over string input and turning each
// token into a posting: Text, Id, Keyword, Ngram, NgramWords, SpellField.
type tokenizedField struct {
	baseField
	analyzer Analyzer
}

func (f *tokenizedField) Index(value any, docID int) (int, []posting.PostTuple, error) {
	if !f.indexed {
		return 0, nil, ErrUnindexed
	}
	text, ok := value.(string)
	if !ok {
		text = toString(value)
	}
	tokens := f.analyzer.Analyze(text, true)
	if len(tokens) == 0 {
		return 0, nil, nil
	}

	posts := make([]posting.PostTuple, 0, len(tokens))
	for _, tok := range tokens {
		p := posting.PostTuple{
			DocID:     docID,
			TermBytes: []byte(tok.Text),
			Length:    len(tokens),
			Weight:    f.FieldBoost() * tok.Boost,
		}
		if f.format.HasPositions {
			p.Positions = []int{tok.Position}
		}
		if f.format.HasRanges {
			p.Ranges = []posting.CharSpan{{Start: tok.Start, End: tok.End}}
		}
		posts = append(posts, p)
	}
	return len(tokens), posts, nil
}

func (f *tokenizedField) ToBytes(value any) ([]byte, error) {
	if !f.indexed {
		return nil, ErrUnindexed
	}
	return []byte(toString(value)), nil
}

func (f *tokenizedField) FromBytes(b []byte) (any, error) {
	return string(b), nil
}

func (f *tokenizedField) ToColumnValue(value any) (any, error) {
	return toString(value), nil
}

func (f *tokenizedField) FromColumnValue(value any) (any, error) {
	return value, nil
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, " ")
	default:
		return ""
	}
}

// vectorFormat builds the term-vector format a Text/Keyword field records
// alongside its main postings, given the user's vector request (off, on
// with defaults, or an explicit format).
func vectorFormat(want any, positions, ranges bool) *posting.Format {
	switch v := want.(type) {
	case posting.Format:
		return &v
	case bool:
		if !v {
			return nil
		}
		f := posting.Format{HasWeights: true, HasPositions: positions, HasRanges: ranges}
		return &f
	default:
		return nil
	}
}

// Text is a tokenised, scorable field supporting optional positions (for
// phrase queries) and character ranges (for highlighting).
type Text struct {
	tokenizedField
	spelling bool
}

// NewText builds a Text field. phrase enables position tracking, chars
// enables character-range tracking, vector requests a stored term vector
// (true for the default weights-only vector, or an explicit posting.Format).
func NewText(analyzer Analyzer, phrase, chars bool, vector any, stored bool, boost float32) *Text {
	f := &Text{}
	f.analyzer = analyzer
	f.format = posting.Format{HasWeights: true, HasPositions: phrase, HasRanges: chars}
	f.stored = stored
	f.indexed = true
	f.storeLengths = true
	f.fieldBoost = boost
	f.vector = vectorFormat(vector, phrase, chars)
	return f
}

// EnableSpelling marks this field as generating a spelling companion
// subfield (named "spell_<fieldname>") when added to a Schema.
func (t *Text) EnableSpelling() *Text {
	t.spelling = true
	return t
}

func (t *Text) Subfields(name string) []Subfield {
	if !t.spelling {
		return nil
	}
	return []Subfield{{Name: "spell_" + name, Field: NewSpellField(t.analyzer)}}
}

// SpellField is Text's auto-generated companion that indexes words
// without morphological analysis, used as a spelling-correction source.
type SpellField struct {
	tokenizedField
}

func NewSpellField(analyzer Analyzer) *SpellField {
	f := &SpellField{}
	f.analyzer = analyzer
	f.format = posting.Format{HasWeights: true}
	f.indexed = true
	return f
}

// Id is a single-token field: the whole value is one term, optionally
// lowercased, with no per-token features.
type Id struct {
	tokenizedField
}

func NewId(lowercase bool, stored, unique bool, boost float32) *Id {
	f := &Id{}
	f.analyzer = idAnalyzer{lowercase: lowercase}
	f.format = posting.Format{}
	f.stored = stored
	f.unique = unique
	f.indexed = true
	f.fieldBoost = boost
	return f
}

type idAnalyzer struct{ lowercase bool }

func (a idAnalyzer) Analyze(text string, forIndexing bool) []Token {
	if text == "" {
		return nil
	}
	if a.lowercase {
		text = strings.ToLower(text)
	}
	return []Token{{Text: text, Position: 0, Start: 0, End: len(text), Boost: 1}}
}

// Keyword splits on commas or whitespace, optionally lowercasing each
// piece, optionally scorable, optionally vectored.
type Keyword struct {
	tokenizedField
}

func NewKeyword(lowercase, commas, scorable bool, vector any, stored, unique bool, boost float32) *Keyword {
	f := &Keyword{}
	f.analyzer = keywordAnalyzer{lowercase: lowercase, commas: commas}
	f.format = posting.Format{HasWeights: scorable}
	f.stored = stored
	f.unique = unique
	f.indexed = true
	f.storeLengths = true
	f.fieldBoost = boost
	f.vector = vectorFormat(vector, false, false)
	return f
}

type keywordAnalyzer struct {
	lowercase bool
	commas    bool
}

func (a keywordAnalyzer) Analyze(text string, forIndexing bool) []Token {
	var parts []string
	if a.commas {
		parts = strings.Split(text, ",")
	} else {
		parts = strings.Fields(text)
	}
	tokens := make([]Token, 0, len(parts))
	pos := 0
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if a.lowercase {
			p = strings.ToLower(p)
		}
		tokens = append(tokens, Token{Text: p, Position: pos, Boost: 1})
		pos++
	}
	return tokens
}

// Ngram indexes substrings of the value between minsize and maxsize
// characters, a self-parsing field whose query string is expanded into an
// And of Term queries over the same n-grams at query time by the query
// layer (see query.NgramParse).
type Ngram struct {
	tokenizedField
	minSize, maxSize int
}

func NewNgram(minSize, maxSize int, phrase bool, stored bool, boost float32) *Ngram {
	f := &Ngram{minSize: minSize, maxSize: maxSize}
	f.analyzer = ngramAnalyzer{min: minSize, max: maxSize}
	f.format = posting.Format{HasWeights: true, HasPositions: phrase}
	f.stored = stored
	f.indexed = true
	f.fieldBoost = boost
	return f
}

func (n *Ngram) SelfParsing() bool { return true }

type ngramAnalyzer struct{ min, max int }

func (a ngramAnalyzer) Analyze(text string, forIndexing bool) []Token {
	text = strings.ToLower(text)
	runes := []rune(text)
	var tokens []Token
	pos := 0
	size := a.max
	if !forIndexing {
		size = a.min
	}
	for size >= a.min {
		for i := 0; i+size <= len(runes); i++ {
			tokens = append(tokens, Token{
				Text: string(runes[i : i+size]), Position: pos, Start: i, End: i + size, Boost: 1,
			})
			pos++
		}
		if !forIndexing {
			break
		}
		size--
	}
	return tokens
}

// NgramWords tokenizes into words first, then generates n-grams from
// each word independently (so n-grams never span a word boundary).
type NgramWords struct {
	tokenizedField
}

func NewNgramWords(minSize, maxSize int, stored bool, boost float32) *NgramWords {
	f := &NgramWords{}
	f.analyzer = ngramWordAnalyzer{min: minSize, max: maxSize}
	f.format = posting.Format{HasWeights: true}
	f.stored = stored
	f.indexed = true
	f.fieldBoost = boost
	return f
}

type ngramWordAnalyzer struct{ min, max int }

func (a ngramWordAnalyzer) Analyze(text string, forIndexing bool) []Token {
	var tokens []Token
	pos := 0
	for _, word := range strings.Fields(strings.ToLower(text)) {
		runes := []rune(word)
		for size := a.min; size <= a.max && size <= len(runes); size++ {
			for i := 0; i+size <= len(runes); i++ {
				tokens = append(tokens, Token{
					Text: string(runes[i : i+size]), Position: pos, Start: i, End: i + size, Boost: 1,
				})
				pos++
			}
		}
	}
	return tokens
}
