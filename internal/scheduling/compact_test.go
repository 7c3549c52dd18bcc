package scheduling

import "testing"

func TestPlanCompaction(t *testing.T) {
	cases := []struct {
		name string
		ids  []int
		want []IDChange
	}{
		{"already dense", []int{1, 2, 3}, nil},
		{"gap in middle", []int{1, 3, 4}, []IDChange{{Old: 3, New: 2}, {Old: 4, New: 3}}},
		{"gap at front", []int{2, 3}, []IDChange{{Old: 2, New: 1}, {Old: 3, New: 2}}},
		{"single sparse", []int{9}, []IDChange{{Old: 9, New: 1}}},
		{"empty", nil, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			students := make([]Student, len(c.ids))
			for i, id := range c.ids {
				students[i] = Student{ID: id}
			}
			got := PlanCompaction(students)
			if len(got) != len(c.want) {
				t.Fatalf("got %v, want %v", got, c.want)
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Errorf("change[%d] = %+v, want %+v", i, got[i], c.want[i])
				}
			}
		})
	}
}

func TestPlanCompactionNewIDsNeverExceedOld(t *testing.T) {
	students := []Student{{ID: 4}, {ID: 8}, {ID: 9}, {ID: 20}}
	for _, ch := range PlanCompaction(students) {
		if ch.New > ch.Old {
			t.Errorf("change %+v moves a student upward", ch)
		}
	}
}
