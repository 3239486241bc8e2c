package testhelpers

import (
	"context"
	"io"
	"sync"

	"github.com/iliyamo/cleaning-booking/internal/mail"
)

// MemorySender records every message instead of delivering it.
type MemorySender struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (s *MemorySender) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (s *MemorySender) Sent() []mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mail.Message(nil), s.msgs...)
}

// MemoryStore keeps uploaded objects in memory keyed by "bucket/key".
type MemoryStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func (s *MemoryStore) Upload(_ context.Context, bucket, key string, body io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	if s.Objects == nil {
		s.Objects = map[string][]byte{}
	}
	s.Objects[bucket+"/"+key] = data
	s.mu.Unlock()
	return s.PublicURL(bucket, key), nil
}

func (s *MemoryStore) PublicURL(bucket, key string) string {
	return "https://storage.test/" + bucket + "/" + key
}
