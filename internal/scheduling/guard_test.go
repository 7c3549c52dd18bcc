package scheduling

import (
	"context"
	"testing"
	"time"
)

func TestNewLimitsFallsBackToDefault(t *testing.T) {
	if got := NewLimits(0).MaxPerDay(); got != DefaultMaxPerDay {
		t.Fatalf("MaxPerDay() = %d, want %d", got, DefaultMaxPerDay)
	}
	if got := NewLimits(5).MaxPerDay(); got != 5 {
		t.Fatalf("MaxPerDay() = %d, want 5", got)
	}
}

func TestGuardReadsLimitAtCheckTime(t *testing.T) {
	ms := newMemStore()
	limits := NewLimits(2)
	guard := NewGuard(ms, limits)
	ctx := context.Background()
	day := futureDate(2)

	for i := 0; i < 2; i++ {
		if _, err := ms.InsertAppointment(ctx, Appointment{
			StudentID: 1,
			Date:      day,
			Time:      TimeOfDay{hour: 9 + i},
			Status:    StatusScheduled,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatal(err)
		}
	}

	ok, err := guard.CanBook(ctx, day, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("full day reported bookable")
	}

	// No restart, no cache: the new limit applies to the next check.
	if err := limits.SetMaxPerDay(3); err != nil {
		t.Fatal(err)
	}
	ok, err = guard.CanBook(ctx, day, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("raised limit not visible to guard")
	}
}

func TestGuardSelfExclusion(t *testing.T) {
	ms := newMemStore()
	guard := NewGuard(ms, NewLimits(1))
	ctx := context.Background()
	day := futureDate(2)

	appt, err := ms.InsertAppointment(ctx, Appointment{
		StudentID: 1,
		Date:      day,
		Time:      TimeOfDay{hour: 9},
		Status:    StatusScheduled,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := guard.AssertCapacity(ctx, day, 0); err == nil {
		t.Fatal("full day passed without exclusion")
	}
	if err := guard.AssertCapacity(ctx, day, appt.ID); err != nil {
		t.Fatalf("self-excluded check failed: %v", err)
	}
}
