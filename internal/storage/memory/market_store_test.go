package memory

import (
	"context"
	"errors"
	"testing"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/storage"
)

func TestMarketStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMarketStore()

	q := "q1"
	m := &domain.Market{ID: "m1", Platform: domain.PlatformKalshi, PlatformID: "K-1", Resolution: 1, QuestionID: &q}
	if err := s.Insert(ctx, m); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.GetByID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PlatformID != "K-1" || got.Resolution != 1 {
		t.Errorf("unexpected market: %+v", got)
	}

	// Returned record is a copy: mutating it must not affect the store.
	got.Resolution = 0
	again, _ := s.GetByID(ctx, "m1")
	if again.Resolution != 1 {
		t.Error("store record was mutated through a returned copy")
	}
}

func TestMarketStore_DuplicateAndMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMarketStore()

	m := &domain.Market{ID: "m1", Platform: domain.PlatformManifold}
	if err := s.Insert(ctx, m); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(ctx, m); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if _, err := s.GetByID(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Insert(ctx, &domain.Market{ID: "", Platform: domain.PlatformKalshi}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty id, got %v", err)
	}
}

func TestMarketStore_QuestionGroups(t *testing.T) {
	ctx := context.Background()
	s := NewMarketStore()

	q1, q2 := "q1", "q2"
	markets := []*domain.Market{
		{ID: "a", Platform: domain.PlatformKalshi, QuestionID: &q1},
		{ID: "b", Platform: domain.PlatformManifold, QuestionID: &q1},
		{ID: "c", Platform: domain.PlatformPolymarket, QuestionID: &q2},
		{ID: "d", Platform: domain.PlatformMetaculus},
	}
	for _, m := range markets {
		if err := s.Insert(ctx, m); err != nil {
			t.Fatalf("Insert(%s): %v", m.ID, err)
		}
	}

	ids, err := s.ListQuestionIDs(ctx)
	if err != nil {
		t.Fatalf("ListQuestionIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "q1" || ids[1] != "q2" {
		t.Errorf("ListQuestionIDs = %v, want [q1 q2]", ids)
	}

	group, err := s.GetByQuestionID(ctx, "q1")
	if err != nil {
		t.Fatalf("GetByQuestionID: %v", err)
	}
	if len(group) != 2 || group[0].ID != "a" || group[1].ID != "b" {
		t.Errorf("GetByQuestionID(q1) = %v", group)
	}

	byPlatform, err := s.GetByPlatform(ctx, domain.PlatformMetaculus)
	if err != nil {
		t.Fatalf("GetByPlatform: %v", err)
	}
	if len(byPlatform) != 1 || byPlatform[0].ID != "d" {
		t.Errorf("GetByPlatform(metaculus) = %v", byPlatform)
	}
}
