package posting

import "errors"

// Error kinds for the posting codec, matching spec.md §7.
var (
	ErrEmptyBlock        = errors.New("posting: empty block")
	ErrOutOfOrder        = errors.New("posting: doc ids or terms out of order")
	ErrNegativeValue     = errors.New("posting: negative value")
	ErrBadTypecode       = errors.New("posting: bad typecode")
	ErrTruncated         = errors.New("posting: truncated block")
	ErrFormatMismatch    = errors.New("posting: format mismatch")
	ErrUnsupportedFeature = errors.New("posting: unsupported feature")
)
