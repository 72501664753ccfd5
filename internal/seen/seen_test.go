package seen

import (
	"testing"
	"time"

	"wikifeed/internal/storage"
)

func TestScope(t *testing.T) {
	cases := []struct {
		language string
		topics   []string
		want     string
	}{
		{"en", nil, "en|"},
		{"en", []string{"science"}, "en|science"},
		{"en", []string{"science", "history"}, "en|history,science"},
		{"de", []string{"history", "science"}, "de|history,science"},
	}

	for _, c := range cases {
		if got := Scope(c.language, c.topics); got != c.want {
			t.Errorf("Scope(%s, %v) = %s, want %s", c.language, c.topics, got, c.want)
		}
	}
}

func TestScope_TopicOrderInsensitive(t *testing.T) {
	a := Scope("en", []string{"art", "music"})
	b := Scope("en", []string{"music", "art"})
	if a != b {
		t.Errorf("Expected order-insensitive scope, got %s vs %s", a, b)
	}
}

func TestAddContains(t *testing.T) {
	s := NewSet(storage.NewNoop(), "en|", time.Hour)

	if s.Contains(1) {
		t.Error("Expected fresh set to not contain 1")
	}

	s.Add(1)
	s.Add(2)

	if !s.Contains(1) || !s.Contains(2) {
		t.Error("Expected added IDs to be contained")
	}
	if s.Contains(3) {
		t.Error("Expected 3 to be absent")
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", s.Len())
	}
}

func TestEntriesExpire(t *testing.T) {
	s := NewSet(storage.NewNoop(), "en|", 30*time.Millisecond)

	s.Add(1)
	if !s.Contains(1) {
		t.Fatal("Expected entry before expiry")
	}

	time.Sleep(60 * time.Millisecond)

	if s.Contains(1) {
		t.Error("Expected entry to expire after the TTL")
	}
}

func TestClear(t *testing.T) {
	s := NewSet(storage.NewNoop(), "en|", time.Hour)

	s.Add(1)
	s.Add(2)
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Expected empty set after clear, got %d", s.Len())
	}
	if s.Contains(1) {
		t.Error("Expected cleared entry to be absent")
	}
}

func TestRestoresPersistedWindow(t *testing.T) {
	store, err := storage.NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	first := NewSet(store, "en|", time.Hour)
	first.Add(10)
	first.Add(20)

	// A new set over the same scope restores the persisted window
	second := NewSet(store, "en|", time.Hour)
	if !second.Contains(10) || !second.Contains(20) {
		t.Error("Expected persisted IDs to be restored")
	}
	if second.Contains(30) {
		t.Error("Expected unknown ID to be absent")
	}
}

func TestExpiredPersistedEntriesNotRestored(t *testing.T) {
	store, err := storage.NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	// Persist an entry whose timestamp already lies outside the window
	if err := store.SaveSeen("en|", 10, time.Now().Add(-2*time.Hour)); err != nil {
		t.Fatalf("Failed to seed storage: %v", err)
	}

	s := NewSet(store, "en|", time.Hour)
	if s.Contains(10) {
		t.Error("Expected entry outside the window to not be restored")
	}
}

func TestScopesIsolated(t *testing.T) {
	store, err := storage.NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	en := NewSet(store, Scope("en", nil), time.Hour)
	en.Add(10)

	de := NewSet(store, Scope("de", nil), time.Hour)
	if de.Contains(10) {
		t.Error("Expected scopes to be isolated")
	}
}
