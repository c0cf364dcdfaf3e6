package storage

import (
	"errors"
	"testing"

	"github.com/entrepeneur4lyf/mak/internal/chat"
)

// memKV is an in-memory KV for tests.
type memKV struct {
	items map[string]string
}

func newMemKV() *memKV {
	return &memKV{items: make(map[string]string)}
}

func (m *memKV) GetItem(key string) (string, bool, error) {
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *memKV) SetItem(key, value string) error {
	m.items[key] = value
	return nil
}

func userMsg(text string) chat.Message {
	return chat.NewMessage(chat.RoleUser, []chat.Part{chat.TextPart(text)})
}

func TestHistoryStoreLoadMissing(t *testing.T) {
	store := NewHistoryStore(newMemKV())
	if err := store.Load(); err != nil {
		t.Fatalf("Load() on empty storage: %v", err)
	}
	if got := store.List(""); len(got) != 0 {
		t.Errorf("expected empty collection, got %d sessions", len(got))
	}
}

func TestHistoryStoreLoadCorrupt(t *testing.T) {
	kv := newMemKV()
	kv.items[HistoryKey] = "{not json"
	store := NewHistoryStore(kv)

	err := store.Load()
	if !errors.Is(err, chat.ErrPersistence) {
		t.Fatalf("Load() error = %v, want ErrPersistence", err)
	}
	if got := store.List(""); len(got) != 0 {
		t.Errorf("corrupt data should yield empty collection, got %d sessions", len(got))
	}
}

func TestHistoryStoreRoundTrip(t *testing.T) {
	kv := newMemKV()
	store := NewHistoryStore(kv)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}

	created, err := store.Create(userMsg("Hello persistence"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Append(created.ID, chat.NewMessage(chat.RoleModel, []chat.Part{chat.TextPart("Hi")})); err != nil {
		t.Fatalf("Append: %v", err)
	}

	reloaded := NewHistoryStore(kv)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := reloaded.Get(created.ID)
	if !ok {
		t.Fatal("session lost across reload")
	}
	if got.Title != "Hello persistence" {
		t.Errorf("title = %q, want %q", got.Title, "Hello persistence")
	}
	if len(got.Messages) != 2 {
		t.Fatalf("message count = %d, want 2", len(got.Messages))
	}
	if got.Messages[1].Text() != "Hi" {
		t.Errorf("model text = %q, want %q", got.Messages[1].Text(), "Hi")
	}
}

func TestHistoryStoreCreateFrontInsert(t *testing.T) {
	store := NewHistoryStore(newMemKV())
	first, _ := store.Create(userMsg("first"))
	second, _ := store.Create(userMsg("second"))

	sessions := store.List("")
	if len(sessions) != 2 {
		t.Fatalf("session count = %d, want 2", len(sessions))
	}
	if sessions[0].ID != second.ID || sessions[1].ID != first.ID {
		t.Error("newest session should come first")
	}
}

func TestHistoryStoreAppendUnknownID(t *testing.T) {
	store := NewHistoryStore(newMemKV())
	if err := store.Append("no-such-id", userMsg("x")); err != nil {
		t.Errorf("Append to unknown id should be a no-op, got %v", err)
	}
	if got := store.List(""); len(got) != 0 {
		t.Errorf("unexpected sessions: %d", len(got))
	}
}

func TestHistoryStoreRename(t *testing.T) {
	store := NewHistoryStore(newMemKV())
	created, _ := store.Create(userMsg("original"))

	if err := store.Rename(created.ID, "Renamed"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, _ := store.Get(created.ID)
	if got.Title != "Renamed" {
		t.Errorf("title = %q, want %q", got.Title, "Renamed")
	}

	if err := store.Rename(created.ID, ""); err != nil {
		t.Fatalf("Rename to empty: %v", err)
	}
	got, _ = store.Get(created.ID)
	if got.Title != chat.UntitledTitle {
		t.Errorf("empty rename title = %q, want %q", got.Title, chat.UntitledTitle)
	}
}

func TestHistoryStoreDelete(t *testing.T) {
	store := NewHistoryStore(newMemKV())
	keep, _ := store.Create(userMsg("keep"))
	drop, _ := store.Create(userMsg("drop"))

	if err := store.Delete(drop.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := store.Get(drop.ID); ok {
		t.Error("deleted session still present")
	}
	if _, ok := store.Get(keep.ID); !ok {
		t.Error("unrelated session removed")
	}
}

func TestHistoryStoreDeleteLastLeavesSnapshot(t *testing.T) {
	kv := newMemKV()
	store := NewHistoryStore(kv)
	created, _ := store.Create(userMsg("only"))

	if err := store.Delete(created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// An empty collection is never written; the previous snapshot stays.
	raw, ok := kv.items[HistoryKey]
	if !ok || raw == "" {
		t.Error("expected previous snapshot to remain in storage")
	}
	if got := store.List(""); len(got) != 0 {
		t.Errorf("in-memory collection should be empty, got %d", len(got))
	}
}

func TestHistoryStoreReplaceTranscript(t *testing.T) {
	store := NewHistoryStore(newMemKV())
	created, _ := store.Create(userMsg("first question"))
	store.Append(created.ID, chat.NewMessage(chat.RoleModel, []chat.Part{chat.TextPart("first answer")}))

	truncated := []chat.Message{userMsg("rewritten question")}
	if err := store.ReplaceTranscript(created.ID, truncated); err != nil {
		t.Fatalf("ReplaceTranscript: %v", err)
	}
	got, _ := store.Get(created.ID)
	if len(got.Messages) != 1 || got.Messages[0].Text() != "rewritten question" {
		t.Errorf("transcript not replaced: %+v", got.Messages)
	}
}

func TestHistoryStoreList(t *testing.T) {
	store := NewHistoryStore(newMemKV())
	apples, _ := store.Create(userMsg("Tell me about apples"))
	oranges, _ := store.Create(userMsg("oranges please"))
	store.Append(oranges.ID, chat.NewMessage(chat.RoleModel, []chat.Part{chat.TextPart("Citrus facts")}))

	t.Run("matches title", func(t *testing.T) {
		got := store.List("APPLES")
		if len(got) != 1 || got[0].ID != apples.ID {
			t.Errorf("got %d results, want the apples session", len(got))
		}
	})

	t.Run("matches message body", func(t *testing.T) {
		got := store.List("citrus")
		if len(got) != 1 || got[0].ID != oranges.ID {
			t.Errorf("got %d results, want the oranges session", len(got))
		}
	})

	t.Run("no match", func(t *testing.T) {
		if got := store.List("bananas"); len(got) != 0 {
			t.Errorf("got %d results, want none", len(got))
		}
	})

	t.Run("empty filter preserves order", func(t *testing.T) {
		got := store.List("")
		if len(got) != 2 || got[0].ID != oranges.ID || got[1].ID != apples.ID {
			t.Error("empty filter should return all sessions, newest first")
		}
	})
}

func TestHistoryStoreFuzzyList(t *testing.T) {
	store := NewHistoryStore(newMemKV())
	store.Create(userMsg("kubernetes deployment help"))
	target, _ := store.Create(userMsg("docker compose networking"))

	got := store.FuzzyList("dckr cmpse")
	if len(got) != 1 || got[0].ID != target.ID {
		t.Fatalf("fuzzy query matched %d sessions, want the docker session", len(got))
	}

	if got := store.FuzzyList(""); len(got) != 2 {
		t.Errorf("empty fuzzy query should list all sessions, got %d", len(got))
	}
}
