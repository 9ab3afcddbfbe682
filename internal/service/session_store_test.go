package service

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nursan/oiltrade-rates/internal/model"
	"github.com/nursan/oiltrade-rates/internal/rates"
)

func TestSessionStore_PutGetDelete(t *testing.T) {
	store := NewSessionStore(time.Hour, fixedNow)
	session := rates.NewSession(uuid.New(), model.Customer{ID: uuid.New(), Name: "Test"}, nil, fixedNow)

	store.Put(session)
	if got, ok := store.Get(session.ID); !ok || got.ID != session.ID {
		t.Fatal("expected to get stored session back")
	}

	store.Delete(session.ID)
	if _, ok := store.Get(session.ID); ok {
		t.Fatal("expected session to be deleted")
	}
}

func TestSessionStore_EvictsIdleSessions(t *testing.T) {
	clock := testNow
	now := func() time.Time { return clock }

	store := NewSessionStore(30*time.Minute, now)
	stale := rates.NewSession(uuid.New(), model.Customer{ID: uuid.New(), Name: "Stale"}, nil, now)
	store.Put(stale)

	clock = clock.Add(time.Hour)
	fresh := rates.NewSession(uuid.New(), model.Customer{ID: uuid.New(), Name: "Fresh"}, nil, now)
	store.Put(fresh)

	if _, ok := store.Get(stale.ID); ok {
		t.Error("idle session past TTL must be evicted")
	}
	if _, ok := store.Get(fresh.ID); !ok {
		t.Error("fresh session must survive eviction")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 session, got %d", store.Len())
	}
}
