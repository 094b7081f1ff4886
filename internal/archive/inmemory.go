package archive

import "sync"

func NewInMemoryStore() Store {
	return &inMemoryStore{
		archives: map[string][]byte{},
	}
}

type inMemoryStore struct {
	mu       sync.RWMutex
	archives map[string][]byte
}

func (s *inMemoryStore) Put(projectID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.archives[projectID] = stored

	return nil
}

func (s *inMemoryStore) Get(projectID string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.archives[projectID]
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(data))
	copy(out, data)

	return out, true, nil
}
