package types

// Selection is the pending (start, end) pair marking live entries for
// compaction. A nil bound means "not set". It persists with the
// conversation as {"start": int|null, "end": int|null}.
type Selection struct {
	Start *int `json:"start"`
	End   *int `json:"end"`
}

// IsValid reports whether both bounds are set and span at least two entries.
func (s Selection) IsValid() bool {
	return s.Start != nil && s.End != nil && *s.End-*s.Start >= 1
}

// Contains reports whether index lies inside a fully set selection.
func (s Selection) Contains(index int) bool {
	return s.Start != nil && s.End != nil && index >= *s.Start && index <= *s.End
}

// IsEmpty reports whether neither bound is set.
func (s Selection) IsEmpty() bool {
	return s.Start == nil && s.End == nil
}

// Copy returns a selection that shares no pointers with s.
func (s Selection) Copy() Selection {
	var out Selection
	if s.Start != nil {
		v := *s.Start
		out.Start = &v
	}
	if s.End != nil {
		v := *s.End
		out.End = &v
	}
	return out
}

// Range returns the selected bounds as a Range. ok is false when the
// selection is not valid.
func (s Selection) Range() (r Range, ok bool) {
	if !s.IsValid() {
		return Range{}, false
	}
	return Range{Start: *s.Start, End: *s.End}, true
}

// Range is an inclusive [Start, End] span of live entry indices.
type Range struct {
	Start int
	End   int
}

// Len returns the number of entries covered by the range.
func (r Range) Len() int {
	return r.End - r.Start + 1
}
