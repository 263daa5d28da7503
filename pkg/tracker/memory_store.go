package tracker

import (
	"context"
	"sync"

	"github.com/dispatchlab/notifykit/pkg/notification"
)

// MemoryStore is the in-memory reference Store.
// Suitable for single-process deployments and tests.
type MemoryStore struct {
	records map[string]Record
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func recordKey(notificationID string, channel notification.ChannelType) string {
	return notificationID + ":" + string(channel)
}

func (s *MemoryStore) Get(ctx context.Context, notificationID string, channel notification.ChannelType) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordKey(notificationID, channel)]
	if !ok {
		return Record{}, false, nil
	}
	return rec.clone(), true, nil
}

func (s *MemoryStore) Put(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[recordKey(record.NotificationID, record.Channel)] = record.clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, notificationID string, channel notification.ChannelType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, recordKey(notificationID, channel))
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.clone())
	}
	return out, nil
}
