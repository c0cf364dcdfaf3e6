package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/entrepeneur4lyf/mak/internal/chat"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// HistoryKey is the storage key holding the JSON-serialized session
// collection. The format matches the original browser client's
// localStorage entry.
const HistoryKey = "mak-chat-history"

// HistoryStore owns the persisted session collection: an ordered list of
// sessions, most recently created first, written to the KV as a whole
// snapshot after every mutation.
type HistoryStore struct {
	kv KV

	mu       sync.Mutex
	sessions []*chat.Session
}

// NewHistoryStore creates a store over the given KV. Call Load before use.
func NewHistoryStore(kv KV) *HistoryStore {
	return &HistoryStore{kv: kv}
}

// Load reads the session collection from storage. A missing entry yields an
// empty collection. Corrupt data also yields an empty collection and a
// recoverable persistence error rather than a crash.
func (s *HistoryStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.GetItem(HistoryKey)
	if err != nil {
		s.sessions = nil
		return fmt.Errorf("%w: %v", chat.ErrPersistence, err)
	}
	if !ok {
		s.sessions = nil
		return nil
	}
	var sessions []*chat.Session
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		s.sessions = nil
		return fmt.Errorf("%w: corrupt chat history: %v", chat.ErrPersistence, err)
	}
	s.sessions = sessions
	return nil
}

// Persist writes the whole collection snapshot. An empty collection is not
// written, matching the original client: deleting the last session leaves
// the previous snapshot in storage.
func (s *HistoryStore) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *HistoryStore) persistLocked() error {
	if len(s.sessions) == 0 {
		return nil
	}
	data, err := json.Marshal(s.sessions)
	if err != nil {
		return fmt.Errorf("%w: %v", chat.ErrPersistence, err)
	}
	if err := s.kv.SetItem(HistoryKey, string(data)); err != nil {
		return fmt.Errorf("%w: %v", chat.ErrPersistence, err)
	}
	return nil
}

// reportPersist logs a persist failure and passes it on. The in-memory
// mutation is never rolled back.
func (s *HistoryStore) reportPersist() error {
	if err := s.persistLocked(); err != nil {
		log.Printf("Warning: failed to persist chat history: %v", err)
		return err
	}
	return nil
}

// Create inserts a new session seeded with the first user message at the
// front of the collection and persists.
func (s *HistoryStore) Create(first chat.Message) (*chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := chat.NewSession(first)
	s.sessions = append([]*chat.Session{session}, s.sessions...)
	err := s.reportPersist()
	return copySession(session), err
}

// Get returns a copy of the session, if present.
func (s *HistoryStore) Get(id string) (*chat.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session := s.findLocked(id); session != nil {
		return copySession(session), true
	}
	return nil, false
}

// Append adds a message to a session's transcript and persists. An unknown
// id is a silent no-op; callers validate existence.
func (s *HistoryStore) Append(id string, msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.findLocked(id)
	if session == nil {
		return nil
	}
	session.Messages = append(session.Messages, msg)
	return s.reportPersist()
}

// ReplaceTranscript installs a new transcript wholesale, as after an
// edit-regeneration or a pre-navigation snapshot. Unknown id is a no-op.
func (s *HistoryStore) ReplaceTranscript(id string, messages []chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.findLocked(id)
	if session == nil {
		return nil
	}
	session.Messages = append([]chat.Message(nil), messages...)
	return s.reportPersist()
}

// Rename sets a session's title, substituting a fallback for the empty
// string so no session is ever left untitled.
func (s *HistoryStore) Rename(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.findLocked(id)
	if session == nil {
		return nil
	}
	if title == "" {
		title = chat.UntitledTitle
	}
	session.Title = title
	return s.reportPersist()
}

// Delete removes a session from the collection.
func (s *HistoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, session := range s.sessions {
		if session.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}
	return s.reportPersist()
}

// List returns the sessions whose title or any text part matches the filter,
// case-insensitively. An empty filter returns the full collection in order.
func (s *HistoryStore) List(filter string) []chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]chat.Session, 0, len(s.sessions))
	query := strings.ToLower(filter)
	for _, session := range s.sessions {
		if query == "" || matchesQuery(session, query) {
			out = append(out, *copySession(session))
		}
	}
	return out
}

// FuzzyList returns sessions whose titles fuzzily match the query, best
// matches first. An empty query behaves like List.
func (s *HistoryStore) FuzzyList(query string) []chat.Session {
	if query == "" {
		return s.List("")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type ranked struct {
		session *chat.Session
		rank    int
	}
	var matches []ranked
	for _, session := range s.sessions {
		if r := fuzzy.RankMatchNormalizedFold(query, session.Title); r >= 0 {
			matches = append(matches, ranked{session, r})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].rank < matches[j].rank
	})
	out := make([]chat.Session, 0, len(matches))
	for _, m := range matches {
		out = append(out, *copySession(m.session))
	}
	return out
}

func (s *HistoryStore) findLocked(id string) *chat.Session {
	for _, session := range s.sessions {
		if session.ID == id {
			return session
		}
	}
	return nil
}

func matchesQuery(session *chat.Session, query string) bool {
	if strings.Contains(strings.ToLower(session.Title), query) {
		return true
	}
	for _, msg := range session.Messages {
		for _, p := range msg.Parts {
			if p.IsText() && strings.Contains(strings.ToLower(p.Text), query) {
				return true
			}
		}
	}
	return false
}

func copySession(s *chat.Session) *chat.Session {
	out := *s
	out.Messages = append([]chat.Message(nil), s.Messages...)
	return &out
}
