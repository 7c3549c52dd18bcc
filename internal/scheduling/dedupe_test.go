package scheduling

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ana", "ana"},
		{"  Ana  ", "ana"},
		{"ana   garcía", "ana garcía"},
		{"Ana\tGarcía", "ana garcía"},
		{"JOSÉ  LUIS ", "josé luis"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := normalizeName(c.in); got != c.want {
			t.Errorf("normalizeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFindDuplicateKey(t *testing.T) {
	existing := []Student{
		{ID: 1, FirstName: "Ana", LastName: "García"},
		{ID: 2, FirstName: "Luis", LastName: "Pérez"},
	}

	dup, found := FindDuplicateKey("ana   garcía", "GARCÍA", existing)
	if found {
		t.Fatalf("mismatched last name reported duplicate of id %d", dup.ID)
	}

	dup, found = FindDuplicateKey(" ANA ", "garcía", existing)
	if !found {
		t.Fatal("expected duplicate for normalized equal names")
	}
	if dup.ID != 1 {
		t.Fatalf("duplicate id = %d, want 1", dup.ID)
	}

	if _, found := FindDuplicateKey("Ana", "García", nil); found {
		t.Fatal("empty student list reported a duplicate")
	}
}

func TestPlanMerges(t *testing.T) {
	students := []Student{
		{ID: 1, FirstName: "Ana", LastName: "García"},
		{ID: 2, FirstName: "Luis", LastName: "Pérez"},
		{ID: 3, FirstName: " ana ", LastName: "garcía"},
		{ID: 5, FirstName: "ANA", LastName: "GARCÍA"},
		{ID: 7, FirstName: "luis", LastName: "pérez"},
	}

	merges := planMerges(students)
	want := []MergePair{
		{KeptID: 1, RemovedID: 3},
		{KeptID: 1, RemovedID: 5},
		{KeptID: 2, RemovedID: 7},
	}
	if len(merges) != len(want) {
		t.Fatalf("got %d merges, want %d: %v", len(merges), len(want), merges)
	}
	for i, m := range merges {
		if m != want[i] {
			t.Errorf("merge[%d] = %+v, want %+v", i, m, want[i])
		}
	}
}

func TestPlanMergesNoDuplicates(t *testing.T) {
	students := []Student{
		{ID: 1, FirstName: "Ana", LastName: "García"},
		{ID: 2, FirstName: "Ana", LastName: "Pérez"},
	}
	if merges := planMerges(students); len(merges) != 0 {
		t.Fatalf("unexpected merges: %v", merges)
	}
}
