package schema

import (
	"fmt"
	"time"

	"github.com/flashindex/flashindex/numeric"
	"github.com/flashindex/flashindex/posting"
)

// DateTime is a Numeric field specialised to map time.Time values to and
// from the sortable u64 domain via their Unix nanosecond timestamp.
type DateTime struct {
	Numeric
}

// NewDateTime builds a 64-bit signed Numeric field that additionally
// accepts time.Time (and RFC3339 strings) as input.
func NewDateTime(shiftStep uint, stored, unique bool, boost float32) (*DateTime, error) {
	n, err := NewNumeric(numeric.Int, 64, true, 0, shiftStep, stored, unique, boost)
	if err != nil {
		return nil, err
	}
	return &DateTime{Numeric: *n}, nil
}

func (d *DateTime) toUnixNanos(value any) (int64, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UnixNano(), nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return 0, fmt.Errorf("schema: %q is not a valid RFC3339 timestamp", v)
		}
		return t.UnixNano(), nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("schema: unsupported datetime value type %T", value)
	}
}

func (d *DateTime) Index(value any, docID int) (int, []posting.PostTuple, error) {
	nanos, err := d.toUnixNanos(value)
	if err != nil {
		return 0, nil, err
	}
	return d.Numeric.Index(nanos, docID)
}

func (d *DateTime) ToBytes(value any) ([]byte, error) {
	nanos, err := d.toUnixNanos(value)
	if err != nil {
		return nil, err
	}
	return d.Numeric.ToBytes(nanos)
}

func (d *DateTime) FromBytes(b []byte) (any, error) {
	v, err := d.Numeric.FromBytes(b)
	if err != nil {
		return nil, err
	}
	nanos, ok := v.(int64)
	if !ok {
		return nil, fmt.Errorf("schema: unexpected decoded type %T", v)
	}
	return time.Unix(0, nanos).UTC(), nil
}

func (d *DateTime) ToColumnValue(value any) (any, error) {
	nanos, err := d.toUnixNanos(value)
	if err != nil {
		return nil, err
	}
	return d.Numeric.ToColumnValue(nanos)
}

func (d *DateTime) FromColumnValue(value any) (any, error) {
	v, err := d.Numeric.FromColumnValue(value)
	if err != nil {
		return nil, err
	}
	nanos, ok := v.(int64)
	if !ok {
		return nil, fmt.Errorf("schema: unexpected decoded type %T", v)
	}
	return time.Unix(0, nanos).UTC(), nil
}
