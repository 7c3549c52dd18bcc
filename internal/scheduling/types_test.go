package scheduling

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-10-25")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "2025-10-25" {
		t.Fatalf("String() = %s", d)
	}
	if _, err := ParseDate("25/10/2025"); err == nil {
		t.Fatal("accepted non-ISO date")
	}
	if !d.Before(d.AddDays(1)) || d.AddDays(1).Before(d) {
		t.Fatal("ordering broken")
	}
}

func TestDateOfDropsTime(t *testing.T) {
	at := time.Date(2025, time.October, 25, 23, 59, 58, 0, time.UTC)
	if got := DateOf(at).String(); got != "2025-10-25" {
		t.Fatalf("DateOf = %s", got)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"09:00", "09:00"},
		{"23:59", "23:59"},
		{"10:30:45", "10:30"}, // seconds dropped
	}
	for _, c := range cases {
		got, err := ParseTimeOfDay(c.in)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q): %v", c.in, err)
		}
		if got.String() != c.want {
			t.Errorf("ParseTimeOfDay(%q) = %s, want %s", c.in, got, c.want)
		}
	}
	for _, bad := range []string{"24:00", "9am", ""} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Errorf("ParseTimeOfDay(%q) accepted", bad)
		}
	}
}

func TestStatusParsingAndTerminality(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusCompleted, StatusCancelled} {
		if _, err := ParseStatus(string(s)); err != nil {
			t.Errorf("ParseStatus(%s): %v", s, err)
		}
	}
	if _, err := ParseStatus("pending"); err == nil {
		t.Error("ParseStatus accepted unknown status")
	}
	if StatusScheduled.Terminal() {
		t.Error("scheduled reported terminal")
	}
	if !StatusCompleted.Terminal() || !StatusCancelled.Terminal() {
		t.Error("terminal states not reported terminal")
	}
}
