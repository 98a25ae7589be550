package stock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestReserveAdmitsUpToLimit(t *testing.T) {
	ctx := context.Background()
	r := NewReservations(NewMemory())

	total, err := r.Reserve(ctx, "l1", 3, 5)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}

	total, err = r.Reserve(ctx, "l1", 2, 5)
	if err != nil {
		t.Fatalf("reserve to limit: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
}

func TestReserveRevertsOvershoot(t *testing.T) {
	ctx := context.Background()
	r := NewReservations(NewMemory())

	if _, err := r.Reserve(ctx, "l1", 4, 5); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := r.Reserve(ctx, "l1", 2, 5); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// the failed claim must not linger
	got, err := r.Reserved(ctx, "l1")
	if err != nil {
		t.Fatalf("reserved: %v", err)
	}
	if got != 4 {
		t.Fatalf("reserved = %d, want 4", got)
	}
}

func TestReleaseClampsAtZero(t *testing.T) {
	ctx := context.Background()
	r := NewReservations(NewMemory())

	if _, err := r.Reserve(ctx, "l1", 2, 10); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	total, err := r.Release(ctx, "l1", 5)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if total != 0 {
		t.Fatalf("total = %d, want 0 after clamp", total)
	}
	if got, _ := r.Reserved(ctx, "l1"); got != 0 {
		t.Fatalf("reserved = %d, want 0", got)
	}
}

func TestCounterExpiresByTTL(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	now := time.Now()
	mem.Now = func() time.Time { return now }
	r := NewReservations(mem)

	if _, err := r.Reserve(ctx, "l1", 3, 10); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	now = now.Add(ReservationTTL + time.Second)
	got, err := r.Reserved(ctx, "l1")
	if err != nil {
		t.Fatalf("reserved: %v", err)
	}
	if got != 0 {
		t.Fatalf("reserved = %d after TTL, want 0", got)
	}
}

func TestOverwriteRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	now := time.Now()
	mem.Now = func() time.Time { return now }
	r := NewReservations(mem)

	if _, err := r.Reserve(ctx, "l1", 3, 10); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	now = now.Add(ReservationTTL - time.Minute)
	if err := r.Overwrite(ctx, "l1", 7); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	now = now.Add(30 * time.Minute) // past the original expiry, within the refreshed one
	if got, _ := r.Reserved(ctx, "l1"); got != 7 {
		t.Fatalf("reserved = %d, want 7", got)
	}
}

func TestAvailable(t *testing.T) {
	cases := []struct {
		quantity, reserved, want int64
	}{
		{10, 0, 10},
		{10, 4, 6},
		{10, 10, 0},
		{10, 15, 0},
	}
	for _, c := range cases {
		if got := Available(c.quantity, c.reserved); got != c.want {
			t.Errorf("Available(%d, %d) = %d, want %d", c.quantity, c.reserved, got, c.want)
		}
	}
}
