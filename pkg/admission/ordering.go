package admission

// PriorityKey is the total order over admission candidates. It wraps the
// derived compute-unit price and nothing else: two candidates with equal
// price are equal under this order regardless of any other field. Keeping the
// key a dedicated type makes that contract explicit for ordered containers
// and map keys.
type PriorityKey uint64

// Less reports whether k sorts before other (lower price first).
func (k PriorityKey) Less(other PriorityKey) bool {
	return k < other
}

// Equal reports whether the two keys compare equal. Consistent with Compare
// and with use as a map key.
func (k PriorityKey) Equal(other PriorityKey) bool {
	return k == other
}

// Compare returns -1, 0, or 1 as k sorts before, equal to, or after other.
func (k PriorityKey) Compare(other PriorityKey) int {
	switch {
	case k < other:
		return -1
	case k > other:
		return 1
	default:
		return 0
	}
}
