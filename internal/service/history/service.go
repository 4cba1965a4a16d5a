package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/linebot-relay/internal/model/history"
)

// Service keeps per-user conversation logs for the lifetime of the process.
type Service struct {
	mu      sync.RWMutex
	users   []string
	entries map[string][]history.Entry
	subs    map[int]chan history.Entry
	nextSub int
	now     func() time.Time
}

// NewService bootstraps an empty in-memory log.
func NewService() *Service {
	return &Service{
		entries: make(map[string][]history.Entry),
		subs:    make(map[int]chan history.Entry),
		now:     time.Now,
	}
}

// Append records an exchange for userID and notifies subscribers.
func (s *Service) Append(_ context.Context, userID, userMessage, botMessage string) history.Entry {
	entry := history.Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Timestamp: s.now().Unix(),
		User:      userMessage,
		Bot:       botMessage,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[userID]; !ok {
		s.users = append(s.users, userID)
		s.entries[userID] = make([]history.Entry, 0, 8)
	}
	s.entries[userID] = append(s.entries[userID], entry)

	for _, ch := range s.subs {
		select {
		case ch <- entry:
		default:
			// subscriber is behind; drop rather than stall the webhook
		}
	}
	return entry
}

// ListAll flattens every user's log. Users appear in first-seen order and
// each user's entries in insertion order.
func (s *Service) ListAll(_ context.Context) []history.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]history.Entry, 0)
	for _, userID := range s.users {
		all = append(all, s.entries[userID]...)
	}
	return all
}

// ClearAll removes every entry for every user.
func (s *Service) ClearAll(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = nil
	s.entries = make(map[string][]history.Entry)
}

// Subscribe returns a channel receiving entries appended after the call.
// The cancel func unregisters and closes the channel.
func (s *Service) Subscribe(buffer int) (<-chan history.Entry, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan history.Entry, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
