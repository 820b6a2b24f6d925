package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"otterpoint/internal/adapters/storage"
	domain "otterpoint/internal/domain/audit"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db)
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	e := domain.NewEvent("admin", "AD00002", "陳小華", domain.ActionPostPoints, now).
		WithResource(domain.ResourceMember, "M0001").
		WithRequest("10.0.0.1", "test-agent").
		WithFailure(errors.New("會員點數不足"))
	if err := s.Save(ctx, e); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Outcome != domain.OutcomeFailed || got.Message != "會員點數不足" || got.ResourceID != "M0001" {
		t.Errorf("got %+v", got)
	}
	if !got.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, now)
	}

	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing id: %v", err)
	}
}

func TestSQLiteStore_ListFiltersAndOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	events := []domain.Event{
		domain.NewEvent("admin", "AD00002", "A", domain.ActionLogin, base),
		domain.NewEvent("admin", "AD00003", "B", domain.ActionDelete, base.Add(time.Hour)).WithResource(domain.ResourceItem, "I1"),
		domain.NewEvent("member", "M0001", "C", domain.ActionLogin, base.Add(2*time.Hour)),
		domain.NewEvent("admin", "AD00002", "A", domain.ActionLogin, base.Add(3*time.Hour)).WithFailure(errors.New("x")),
	}
	for _, e := range events {
		if err := s.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List(ctx, Filter{}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 || all[0].ID != events[3].ID {
		t.Fatalf("order: got %d events, first %s", len(all), all[0].ID)
	}

	admin := "admin"
	login := domain.ActionLogin
	failed := domain.OutcomeFailed
	from := base.Add(30 * time.Minute)
	to := base.Add(2 * time.Hour)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"actor class", Filter{ActorClass: &admin}, 3},
		{"action", Filter{Action: &login}, 3},
		{"outcome", Filter{Outcome: &failed}, 1},
		{"range inclusive", Filter{From: &from, To: &to}, 2},
		{"combined", Filter{ActorClass: &admin, Action: &login}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter, 10)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d, want %d", len(got), tt.want)
			}
		})
	}

	limited, _ := s.List(ctx, Filter{}, 2)
	if len(limited) != 2 {
		t.Errorf("limit: got %d", len(limited))
	}
}
