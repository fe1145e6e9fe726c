package clock_test

import (
	"testing"
	"time"

	"github.com/ErlanBelekov/charon/internal/clock"
)

func TestAddHours(t *testing.T) {
	base := time.Date(2026, 3, 28, 23, 30, 0, 0, time.UTC)

	got := clock.AddHours(base, 24)
	want := time.Date(2026, 3, 29, 23, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("AddHours(+24) = %v, want %v", got, want)
	}
	if !base.Equal(time.Date(2026, 3, 28, 23, 30, 0, 0, time.UTC)) {
		t.Fatal("AddHours mutated its input")
	}

	if got := clock.AddHours(base, -1); !got.Equal(base.Add(-time.Hour)) {
		t.Fatalf("AddHours(-1) = %v", got)
	}
}

func TestFunc(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	c := clock.Func(func() time.Time { return fixed })
	if !c.Now().Equal(fixed) {
		t.Fatalf("Now() = %v, want %v", c.Now(), fixed)
	}
}
