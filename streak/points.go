package streak

// Points computes the reward for a check-in at the given position in a
// streak: base + bonus for every prior consecutive day. Positions below 1
// are treated as 1.
func Points(base, bonus, position int) int {
	if position < 1 {
		position = 1
	}
	return base + bonus*(position-1)
}
