package lifecycle

import (
	"context"
	"sync"

	"playlater/models"
)

// memPlaythroughStore is an in-memory PlaythroughStore with per-id fault
// injection for exercising the operation_failed paths.
type memPlaythroughStore struct {
	mu      sync.Mutex
	records map[string]*models.Playthrough
	getErr  map[string]error
	saveErr map[string]error
}

func newMemPlaythroughStore(pts ...*models.Playthrough) *memPlaythroughStore {
	s := &memPlaythroughStore{
		records: make(map[string]*models.Playthrough),
		getErr:  make(map[string]error),
		saveErr: make(map[string]error),
	}
	for _, pt := range pts {
		cp := *pt
		s.records[pt.ID] = &cp
	}
	return s
}

func (s *memPlaythroughStore) GetOwned(_ context.Context, userID, id string) (*models.Playthrough, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.getErr[id]; err != nil {
		return nil, err
	}
	rec, ok := s.records[id]
	if !ok || rec.UserID != userID {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memPlaythroughStore) Save(_ context.Context, pt *models.Playthrough) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveErr[pt.ID]; err != nil {
		return err
	}
	cp := *pt
	s.records[pt.ID] = &cp
	return nil
}

func (s *memPlaythroughStore) Delete(_ context.Context, pt *models.Playthrough) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, pt.ID)
	return nil
}

func (s *memPlaythroughStore) get(id string) *models.Playthrough {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// memCollectionStore mirrors memPlaythroughStore for collection items, with a
// configurable playthrough count per item for the hard-delete guard.
type memCollectionStore struct {
	mu      sync.Mutex
	records map[string]*models.CollectionItem
	counts  map[string]int64
	getErr  map[string]error
	saveErr map[string]error
}

func newMemCollectionStore(items ...*models.CollectionItem) *memCollectionStore {
	s := &memCollectionStore{
		records: make(map[string]*models.CollectionItem),
		counts:  make(map[string]int64),
		getErr:  make(map[string]error),
		saveErr: make(map[string]error),
	}
	for _, item := range items {
		cp := *item
		s.records[item.ID] = &cp
	}
	return s
}

func (s *memCollectionStore) GetOwned(_ context.Context, userID, id string) (*models.CollectionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.getErr[id]; err != nil {
		return nil, err
	}
	rec, ok := s.records[id]
	if !ok || rec.UserID != userID {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memCollectionStore) Save(_ context.Context, item *models.CollectionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveErr[item.ID]; err != nil {
		return err
	}
	cp := *item
	s.records[item.ID] = &cp
	return nil
}

func (s *memCollectionStore) Delete(_ context.Context, item *models.CollectionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, item.ID)
	return nil
}

func (s *memCollectionStore) PlaythroughCount(_ context.Context, collectionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[collectionID], nil
}

func (s *memCollectionStore) get(id string) *models.CollectionItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}
