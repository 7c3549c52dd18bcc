package scheduling

import "strings"

// normalizeName trims, collapses internal whitespace to single spaces and
// lower-cases a name part. The normalized form is only used for comparison,
// never stored.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// nameKey identifies a student by normalized (first, last) name pair.
type nameKey struct {
	first string
	last  string
}

func keyOf(firstName, lastName string) nameKey {
	return nameKey{first: normalizeName(firstName), last: normalizeName(lastName)}
}

// FindDuplicateKey reports the existing student whose normalized name pair
// matches the candidate names. It backs both the pre-insert rejection and the
// bulk resolve walk so the two call sites cannot diverge.
func FindDuplicateKey(firstName, lastName string, existing []Student) (Student, bool) {
	key := keyOf(firstName, lastName)
	for _, s := range existing {
		if keyOf(s.FirstName, s.LastName) == key {
			return s, true
		}
	}
	return Student{}, false
}

// MergePair records one merge performed by ResolveDuplicates: the duplicate
// RemovedID's appointments were reassigned to KeptID.
type MergePair struct {
	KeptID    int `json:"kept_id"`
	RemovedID int `json:"removed_id"`
}

// DedupeReport summarizes a bulk duplicate resolution.
type DedupeReport struct {
	Merged      []MergePair `json:"merged"`
	TotalUnique int         `json:"total_unique"`
}

// planMerges walks students in ascending id order and pairs every repeated
// normalized name key with its first-seen keeper. Input must be sorted by id.
func planMerges(students []Student) []MergePair {
	keepers := make(map[nameKey]int, len(students))
	var merges []MergePair
	for _, s := range students {
		key := keyOf(s.FirstName, s.LastName)
		if keeper, seen := keepers[key]; seen {
			merges = append(merges, MergePair{KeptID: keeper, RemovedID: s.ID})
			continue
		}
		keepers[key] = s.ID
	}
	return merges
}
