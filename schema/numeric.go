package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flashindex/flashindex/numeric"
	"github.com/flashindex/flashindex/posting"
)

// Numeric stores sortable-encoded integers or floats, emitting one posting
// per tiered shift so range queries decompose into a handful of tiered
// term lookups (see numeric.SplitRanges and query.NumericRange.Simplify).
type Numeric struct {
	baseField
	NumType       numeric.NumType
	Bits          int
	Signed        bool
	ShiftStep     uint
	DecimalPlaces int

	minValue, maxValue int64
}

// NewNumeric builds a Numeric field. bits must be one of 8/16/32/64 for
// ints; floats are always 64-bit. shiftStep of 0 disables tiering (a
// single full-precision posting per value).
func NewNumeric(numtype numeric.NumType, bits int, signed bool, decimalPlaces int, shiftStep uint, stored, unique bool, boost float32) (*Numeric, error) {
	if numtype == numeric.Float {
		bits = 64
	} else if bits != 8 && bits != 16 && bits != 32 && bits != 64 {
		return nil, fmt.Errorf("schema: numeric bits must be 8/16/32/64, got %d", bits)
	}
	f := &Numeric{
		NumType: numtype, Bits: bits, Signed: signed,
		ShiftStep: shiftStep, DecimalPlaces: decimalPlaces,
	}
	f.format = posting.Format{}
	f.stored = stored
	f.unique = unique
	f.indexed = true
	f.fieldBoost = boost

	minU, err := numeric.FromSortable(numtype, bits, signed, 0)
	if err != nil {
		return nil, err
	}
	maxU, err := numeric.FromSortable(numtype, bits, signed, maskForBits(bits))
	if err != nil {
		return nil, err
	}
	f.minValue = int64(minU)
	f.maxValue = int64(maxU)
	return f, nil
}

func maskForBits(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bits)) - 1
}

// prepareFloat coerces a string/int/float input into a float64, mirroring
// Numeric.prepare_number's numeric parsing step.
func (n *Numeric) prepareFloat(value any) (float64, error) {
	switch v := value.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("schema: %q is not a valid number", v)
		}
		return f, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("schema: unsupported numeric value type %T", value)
	}
}

// PrepareNumber coerces input into the field's scaled int64 representation
// (decimal-scaled or raw), mirroring Numeric.prepare_number for the int
// numtype. It is not meaningful for Float fields; use sortableOf there.
func (n *Numeric) PrepareNumber(value any) (int64, error) {
	f, err := n.prepareFloat(value)
	if err != nil {
		return 0, err
	}
	var x int64
	if n.DecimalPlaces > 0 {
		x = numeric.DecimalToScaled(f, n.DecimalPlaces)
	} else {
		x = int64(f)
	}
	if x < n.minValue || x > n.maxValue {
		return 0, ErrValueOutOfRange
	}
	return x, nil
}

func (n *Numeric) sortableOf(value any) (uint64, error) {
	if n.NumType == numeric.Float {
		f, err := n.prepareFloat(value)
		if err != nil {
			return 0, err
		}
		return numeric.ToSortableFloat(f), nil
	}
	x, err := n.PrepareNumber(value)
	if err != nil {
		return 0, err
	}
	return numeric.ToSortableInt(n.Bits, n.Signed, x), nil
}

func (n *Numeric) Index(value any, docID int) (int, []posting.PostTuple, error) {
	sortable, err := n.sortableOf(value)
	if err != nil {
		return 0, nil, err
	}
	weight := n.FieldBoost()
	if n.ShiftStep == 0 {
		termBytes := numeric.SortableToBytes(sortable, 0, n.Bits)
		return 1, []posting.PostTuple{{DocID: docID, TermBytes: termBytes, Length: 1, Weight: weight}}, nil
	}
	var posts []posting.PostTuple
	for shift := uint(0); int(shift) < n.Bits; shift += n.ShiftStep {
		termBytes := numeric.SortableToBytes(sortable, shift, n.Bits)
		posts = append(posts, posting.PostTuple{DocID: docID, TermBytes: termBytes, Length: 1, Weight: weight})
	}
	return 1, posts, nil
}

func (n *Numeric) ToBytes(value any) ([]byte, error) {
	sortable, err := n.sortableOf(value)
	if err != nil {
		return nil, err
	}
	return numeric.SortableToBytes(sortable, 0, n.Bits), nil
}

func (n *Numeric) FromBytes(b []byte) (any, error) {
	sortable, _, err := numeric.BytesToSortable(b)
	if err != nil {
		return nil, err
	}
	if n.NumType == numeric.Float {
		return numeric.FromSortableFloat(sortable), nil
	}
	x := numeric.FromSortableInt(n.Bits, n.Signed, sortable)
	if n.DecimalPlaces > 0 {
		return numeric.ScaledToDecimal(x, n.DecimalPlaces), nil
	}
	return x, nil
}

func (n *Numeric) ToColumnValue(value any) (any, error) {
	return n.sortableOf(value)
}

func (n *Numeric) FromColumnValue(value any) (any, error) {
	u, ok := value.(uint64)
	if !ok {
		return nil, fmt.Errorf("schema: expected uint64 column value, got %T", value)
	}
	if n.NumType == numeric.Float {
		return numeric.FromSortableFloat(u), nil
	}
	x := numeric.FromSortableInt(n.Bits, n.Signed, u)
	if n.DecimalPlaces > 0 {
		return numeric.ScaledToDecimal(x, n.DecimalPlaces), nil
	}
	return x, nil
}

func (n *Numeric) SelfParsing() bool { return true }
