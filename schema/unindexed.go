package schema

import "github.com/flashindex/flashindex/posting"

// Unindexed is a stored-only field: its value is kept in the document
// store but never tokenised or searched.
type Unindexed struct {
	baseField
}

func NewUnindexed() *Unindexed {
	f := &Unindexed{}
	f.stored = true
	return f
}

func (u *Unindexed) Index(value any, docID int) (int, []posting.PostTuple, error) {
	return 0, nil, ErrUnindexed
}

func (u *Unindexed) ToBytes(value any) ([]byte, error) { return nil, ErrUnindexed }
func (u *Unindexed) FromBytes(b []byte) (any, error)   { return nil, ErrUnindexed }
func (u *Unindexed) ToColumnValue(value any) (any, error) {
	return nil, ErrUnindexed
}
func (u *Unindexed) FromColumnValue(value any) (any, error) {
	return nil, ErrUnindexed
}
