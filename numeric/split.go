package numeric

// SubRange is one tier of a NumericRange decomposition: the sortable-form
// bounds [Low, High] at the given shift. When Low == High the caller should
// emit a single Term instead of a TermRange.
type SubRange struct {
	Low, High uint64
	Shift     uint
}

// SplitRanges covers [lo, hi] (inclusive, in sortable-u64 space) with a
// disjoint union of shifted prefix ranges: fine resolution (shift 0) at the
// edges, coarse resolution in the interior. At each position in the
// recursion it looks for the coarsest shift tier that contains at least one
// full block inside the remaining interval, consistent with spec.md §4.1's
// "always produce the coarsest covering at each position consistent with
// not overshooting the endpoints" tie-break, then recurses on whatever
// fringe remains uncovered on either side.
//
// shiftStep must be > 0. If shiftStep does not evenly divide bits, the
// coarsest usable shift is simply whatever multiple of shiftStep is < bits
// — no tier is allowed to reach or exceed bits, so the decomposition never
// overshoots.
func SplitRanges(bits int, shiftStep uint, lo, hi uint64) []SubRange {
	if lo > hi || shiftStep == 0 {
		if lo == hi {
			return []SubRange{{Low: lo, High: hi, Shift: 0}}
		}
		return nil
	}

	shifts := tierShifts(bits, shiftStep)

	var ranges []SubRange
	var recurse func(lo, hi uint64)
	recurse = func(lo, hi uint64) {
		if lo > hi {
			return
		}
		for _, s := range shifts {
			blockSize := uint64(1) << s
			alignedLo := ceilToMultiple(lo, blockSize)
			alignedEnd := floorToMultiple(hi+1, blockSize) // one past the last full block
			if alignedLo < alignedEnd {
				if alignedLo > lo {
					recurse(lo, alignedLo-1)
				}
				ranges = append(ranges, SubRange{
					Low:   alignedLo >> s,
					High:  (alignedEnd - 1) >> s,
					Shift: s,
				})
				recurse(alignedEnd, hi)
				return
			}
		}
		// Shift 0 always has a block size of 1, which always "fits", so we
		// only fall through to here when hi is the largest uint64 (hi+1
		// wraps to 0 above): the remaining interval is then one shift-0 range.
		ranges = append(ranges, SubRange{Low: lo, High: hi, Shift: 0})
	}

	recurse(lo, hi)
	return mergeAdjacent(sortRanges(ranges))
}

// tierShifts returns the valid shift values (0, shiftStep, 2*shiftStep, ...)
// strictly less than bits, ordered from coarsest to finest so callers
// searching for the coarsest fit can take the first match.
func tierShifts(bits int, shiftStep uint) []uint {
	var shifts []uint
	for s := uint(0); int(s) < bits; s += shiftStep {
		shifts = append(shifts, s)
	}
	// reverse into coarsest-first order
	for i, j := 0, len(shifts)-1; i < j; i, j = i+1, j-1 {
		shifts[i], shifts[j] = shifts[j], shifts[i]
	}
	return shifts
}

func ceilToMultiple(x, m uint64) uint64 {
	if x%m == 0 {
		return x
	}
	return (x/m + 1) * m
}

func floorToMultiple(x, m uint64) uint64 {
	return (x / m) * m
}

// sortRanges orders tiers by their low sortable value so adjacent
// same-shift tiers end up next to each other for mergeAdjacent, and so
// callers see terms/ranges in a deterministic, low-to-high order.
func sortRanges(in []SubRange) []SubRange {
	out := append([]SubRange(nil), in...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			li := out[j].Low << out[j].Shift
			lj := out[j-1].Low << out[j-1].Shift
			if li < lj {
				out[j], out[j-1] = out[j-1], out[j]
			} else {
				break
			}
		}
	}
	return out
}

// mergeAdjacent coalesces consecutive same-shift tiers whose sortable
// prefixes are contiguous into a single [Low,High] range, so a long run of
// single-unit tiers at the same shift collapses into one TermRange instead
// of many Terms.
func mergeAdjacent(in []SubRange) []SubRange {
	if len(in) == 0 {
		return in
	}
	out := make([]SubRange, 0, len(in))
	cur := in[0]
	for _, r := range in[1:] {
		if r.Shift == cur.Shift && r.Low == cur.High+1 {
			cur.High = r.High
			continue
		}
		out = append(out, cur)
		cur = r
	}
	out = append(out, cur)
	return out
}
