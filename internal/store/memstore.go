package store

import (
	"context"
	"sync"
	"time"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// Suitable for tests and for running without a database.
type MemStore struct {
	mu       sync.RWMutex
	replies  map[string]Reply
	channels map[string]string
	errorLog []ErrorRecord
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		replies:  make(map[string]Reply),
		channels: make(map[string]string),
	}
}

// SaveReply implements [Store.SaveReply].
func (s *MemStore) SaveReply(_ context.Context, r Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[r.MessageID] = r
	return nil
}

// Reply implements [Store.Reply].
func (s *MemStore) Reply(_ context.Context, messageID string) (Reply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.replies[messageID]
	if !ok {
		return Reply{}, ErrNotFound
	}
	return r, nil
}

// DeleteReply implements [Store.DeleteReply].
func (s *MemStore) DeleteReply(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.replies, messageID)
	return nil
}

// PruneReplies implements [Store.PruneReplies].
func (s *MemStore) PruneReplies(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, r := range s.replies {
		if r.CreatedAt.Before(cutoff) {
			delete(s.replies, id)
			n++
		}
	}
	return n, nil
}

// SetNotifyChannel implements [Store.SetNotifyChannel].
func (s *MemStore) SetNotifyChannel(_ context.Context, guildID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channelID == "" {
		delete(s.channels, guildID)
		return nil
	}
	s.channels[guildID] = channelID
	return nil
}

// NotifyChannel implements [Store.NotifyChannel].
func (s *MemStore) NotifyChannel(_ context.Context, guildID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[guildID]
	if !ok {
		return "", ErrNotFound
	}
	return ch, nil
}

// LogError implements [Store.LogError].
func (s *MemStore) LogError(_ context.Context, rec ErrorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorLog = append(s.errorLog, rec)
	return nil
}

// Errors returns a copy of the logged errors, oldest first.
func (s *MemStore) Errors() []ErrorRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ErrorRecord, len(s.errorLog))
	copy(out, s.errorLog)
	return out
}
