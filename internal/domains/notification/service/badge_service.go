package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/domains/notification/model"
	"storefront/pkg/eventbus"

	"github.com/rs/zerolog/log"
)

type CartCounter interface {
	ItemCount(ctx context.Context) int
}

type FavoriteCounter interface {
	Count(ctx context.Context) int
}

// BadgeService keeps the navigation counters current. Each counter is
// refreshed on its change event and on a polling interval, so a missed
// event only delays the badge by one tick.
type BadgeService struct {
	cart      CartCounter
	favorites FavoriteCounter
	bus       *eventbus.Bus
	interval  time.Duration

	cartItems atomic.Int64
	favCount  atomic.Int64
	updatedAt atomic.Int64
}

func NewBadgeService(cart CartCounter, favorites FavoriteCounter, bus *eventbus.Bus, interval time.Duration) *BadgeService {
	return &BadgeService{
		cart:      cart,
		favorites: favorites,
		bus:       bus,
		interval:  interval,
	}
}

// Run blocks until ctx is done
func (s *BadgeService) Run(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("badge watcher started")

	var wg sync.WaitGroup
	watchers := []*eventbus.Watcher{
		eventbus.NewWatcher(s.bus, s.interval, s.refreshCart, eventbus.CartChanged),
		eventbus.NewWatcher(s.bus, s.interval, s.refreshFavorites, eventbus.FavoritesChanged),
	}
	for _, w := range watchers {
		wg.Add(1)
		go func(w *eventbus.Watcher) {
			defer wg.Done()
			w.Run(ctx)
		}(w)
	}
	wg.Wait()

	log.Info().Msg("badge watcher stopped")
}

// Refresh recomputes both counters now
func (s *BadgeService) Refresh(ctx context.Context) model.Badges {
	s.refreshCart(ctx)
	s.refreshFavorites(ctx)
	return s.Badges()
}

func (s *BadgeService) Badges() model.Badges {
	b := model.Badges{
		CartItems: int(s.cartItems.Load()),
		Favorites: int(s.favCount.Load()),
	}
	if ts := s.updatedAt.Load(); ts > 0 {
		b.UpdatedAt = time.Unix(0, ts)
	}
	return b
}

func (s *BadgeService) refreshCart(ctx context.Context) {
	s.cartItems.Store(int64(s.cart.ItemCount(ctx)))
	s.touch()
}

func (s *BadgeService) refreshFavorites(ctx context.Context) {
	s.favCount.Store(int64(s.favorites.Count(ctx)))
	s.touch()
}

func (s *BadgeService) touch() {
	s.updatedAt.Store(time.Now().UnixNano())
}
