package posting

// Format bit flags, matching spec.md §4.2 and basic.py's HAS_* constants.
const (
	HasLengths uint8 = 1 << iota
	HasWeights
	HasPositions
	HasRanges
	HasPayloads
)

// Format describes which optional components a field's postings carry.
// Every block written for a given (field, feature-set) combination must
// carry exactly these components — a block that mixes feature sets is a
// FormatMismatch.
type Format struct {
	HasLengths   bool
	HasWeights   bool
	HasPositions bool
	HasRanges    bool
	HasPayloads  bool
}

// Flags packs the format into the single flags byte used by the block
// header.
func (f Format) Flags() uint8 {
	var flags uint8
	if f.HasLengths {
		flags |= HasLengths
	}
	if f.HasWeights {
		flags |= HasWeights
	}
	if f.HasPositions {
		flags |= HasPositions
	}
	if f.HasRanges {
		flags |= HasRanges
	}
	if f.HasPayloads {
		flags |= HasPayloads
	}
	return flags
}

// FormatFromFlags is the inverse of Format.Flags.
func FormatFromFlags(flags uint8) Format {
	return Format{
		HasLengths:   flags&HasLengths != 0,
		HasWeights:   flags&HasWeights != 0,
		HasPositions: flags&HasPositions != 0,
		HasRanges:    flags&HasRanges != 0,
		HasPayloads:  flags&HasPayloads != 0,
	}
}

// OnlyDocIDs reports whether this format carries no features at all, the
// condition required for the fast doc-ids-only path.
func (f Format) OnlyDocIDs() bool {
	return !f.HasLengths && !f.HasWeights && !f.HasPositions &&
		!f.HasRanges && !f.HasPayloads
}

// Supports reports whether the format carries the named optional feature.
// Feature names match the PostingsIO contract: "lengths", "weights",
// "positions", "ranges", "payloads".
func (f Format) Supports(feature string) bool {
	switch feature {
	case "lengths":
		return f.HasLengths
	case "weights":
		return f.HasWeights
	case "positions":
		return f.HasPositions
	case "ranges":
		return f.HasRanges
	case "payloads":
		return f.HasPayloads
	default:
		return false
	}
}

// CanCopyRawTo reports whether raw bytes written under this format can be
// reused verbatim (after an id/term rewrite) under another format — true
// only when the feature sets are identical, since a differing feature set
// changes the block's byte layout.
func (f Format) CanCopyRawTo(to Format) bool {
	return f == to
}
