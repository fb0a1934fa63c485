package service

import (
	"context"
	"sync"

	catalog "storefront/internal/domains/catalog/model"
	"storefront/internal/preference"
	"storefront/pkg/eventbus"
)

// Publisher announces that favorites changed
type Publisher interface {
	Publish(event string)
}

// Service tracks the user's favorite products as an ordered list in the
// preference store. Storage failures degrade to an empty list.
type Service struct {
	store *preference.Store
	bus   Publisher

	// serializes read-modify-write cycles
	mu sync.Mutex
}

func NewService(store *preference.Store, bus Publisher) *Service {
	return &Service{store: store, bus: bus}
}

// List returns favorites in insertion order
func (s *Service) List(ctx context.Context) []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Add appends p unless a favorite with the same id exists. It reports
// whether p was added.
func (s *Service) Add(ctx context.Context, p catalog.Product) bool {
	if p.ID == 0 {
		return false
	}

	s.mu.Lock()
	list := s.load(ctx)
	if indexOf(list, p.ID) >= 0 {
		s.mu.Unlock()
		return false
	}
	s.save(ctx, append(list, p))
	s.mu.Unlock()

	s.publish()
	return true
}

// Remove drops productID. Removing an absent id is a no-op that still
// persists and notifies.
func (s *Service) Remove(ctx context.Context, productID int64) {
	s.mu.Lock()
	list := s.load(ctx)
	kept := list[:0]
	for _, p := range list {
		if p.ID != productID {
			kept = append(kept, p)
		}
	}
	s.save(ctx, kept)
	s.mu.Unlock()

	s.publish()
}

// Toggle adds p when absent and removes it otherwise; it returns whether p
// is a favorite afterwards.
func (s *Service) Toggle(ctx context.Context, p catalog.Product) bool {
	if p.ID == 0 {
		return false
	}

	s.mu.Lock()
	list := s.load(ctx)
	idx := indexOf(list, p.ID)
	if idx >= 0 {
		list = append(list[:idx], list[idx+1:]...)
	} else {
		list = append(list, p)
	}
	s.save(ctx, list)
	s.mu.Unlock()

	s.publish()
	return idx < 0
}

func (s *Service) Contains(ctx context.Context, productID int64) bool {
	return indexOf(s.List(ctx), productID) >= 0
}

func (s *Service) Count(ctx context.Context) int {
	return len(s.List(ctx))
}

// Clear removes the whole list from storage
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	_ = s.store.Clear(ctx, preference.KeyFavorites)
	s.mu.Unlock()

	s.publish()
}

func (s *Service) load(ctx context.Context) []catalog.Product {
	list := preference.ReadOr(ctx, s.store, preference.KeyFavorites, []catalog.Product{})
	if list == nil {
		return []catalog.Product{}
	}
	return list
}

// save is best effort; the store already logged any failure
func (s *Service) save(ctx context.Context, list []catalog.Product) {
	_ = s.store.Write(ctx, preference.KeyFavorites, list)
}

func (s *Service) publish() {
	if s.bus != nil {
		s.bus.Publish(eventbus.FavoritesChanged)
	}
}

func indexOf(list []catalog.Product, id int64) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
