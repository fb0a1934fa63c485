package service

import (
	"context"
	"fmt"

	"storefront/internal/domains/purchase/model"
	"storefront/internal/infrastructure/api"
	"storefront/pkg/querycache"

	"github.com/rs/zerolog/log"
)

type API interface {
	ListPurchases(ctx context.Context) ([]model.Purchase, error)
	GetPurchase(ctx context.Context, id int64) (*model.Purchase, error)
}

// Service serves the purchase history from a cached query
type Service struct {
	api   API
	query *querycache.Query[[]model.Purchase]
}

func NewService(client API) *Service {
	s := &Service{api: client}
	s.query = querycache.New(model.QueryKeyPurchases, s.fetch)
	return s
}

// fetch treats a 404 on the list as "no purchases yet"
func (s *Service) fetch(ctx context.Context) ([]model.Purchase, error) {
	list, err := s.api.ListPurchases(ctx)
	if api.IsNotFound(err) {
		return []model.Purchase{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return list, nil
}

// List returns the purchase history, fetching when the cache is stale
func (s *Service) List(ctx context.Context) ([]model.Purchase, error) {
	return s.query.Fetch(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Purchase, error) {
	p, err := s.api.GetPurchase(ctx, id)
	if api.IsNotFound(err) {
		return nil, model.ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase %d: %w", id, err)
	}
	return p, nil
}

// Invalidate marks the history stale so the next List refetches. It is
// called after a checkout and does no I/O.
func (s *Service) Invalidate(context.Context) {
	s.query.MarkStale()
	log.Debug().Str("query", s.query.Key()).Msg("purchase history invalidated")
}

// Reset drops the cached history, e.g. on logout
func (s *Service) Reset() {
	s.query.Reset()
}
