package scheduling

// IDChange is one renumbering step of the compactor: the student currently at
// Old moves to New, together with every appointment referencing Old.
type IDChange struct {
	Old int
	New int
}

// PlanCompaction assigns dense ids 1..N to students in ascending current id
// order and returns only the ids that actually move. Input must be sorted by
// id. New ids never exceed old ids, so applying the changes in slice order is
// collision-free.
func PlanCompaction(students []Student) []IDChange {
	var changes []IDChange
	for i, s := range students {
		if newID := i + 1; s.ID != newID {
			changes = append(changes, IDChange{Old: s.ID, New: newID})
		}
	}
	return changes
}
