package sharedstate

import (
	"context"
	"encoding/json"
	"sync"
)

// MemStore is an in-memory Store for unit tests. It keeps the same
// semantics as SQLiteStore: Update is atomic under the store mutex and
// every committed write publishes the document.
type MemStore struct {
	mu     sync.Mutex
	docs   map[string][]byte
	broker *Broker
}

func NewMemStore() *MemStore {
	return &MemStore{
		docs:   make(map[string][]byte),
		broker: NewBroker(),
	}
}

func (s *MemStore) Get(ctx context.Context, key string, dest any) error {
	s.mu.Lock()
	raw, ok := s.docs[key]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (s *MemStore) Set(ctx context.Context, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[key] = data
	s.mu.Unlock()
	s.broker.Publish(key, data)
	return nil
}

func (s *MemStore) Patch(ctx context.Context, key string, patch map[string]any) error {
	return s.Update(ctx, key, func(raw []byte) ([]byte, error) {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return json.Marshal(mergeDoc(doc, patch))
	})
}

func (s *MemStore) Update(ctx context.Context, key string, fn func(raw []byte) ([]byte, error)) error {
	s.mu.Lock()
	raw, ok := s.docs[key]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	next, err := fn(raw)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.docs[key] = next
	s.mu.Unlock()
	s.broker.Publish(key, next)
	return nil
}

func (s *MemStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	_, ok := s.docs[key]
	delete(s.docs, key)
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *MemStore) Subscribe(key string) chan []byte {
	return s.broker.Subscribe(key)
}

func (s *MemStore) Unsubscribe(key string, ch chan []byte) {
	s.broker.Unsubscribe(key, ch)
}
