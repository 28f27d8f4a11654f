package domain

// CartLine is one entry of the pending selection. Qty is always >= 1.
type CartLine struct {
	Item MenuItem `json:"item"`
	Qty  int      `json:"qty"`
}

// CloneLines returns a copy safe to hand out of a store.
func CloneLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}
