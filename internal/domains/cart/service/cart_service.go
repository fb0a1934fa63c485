package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"storefront/internal/domains/cart/model"
	catalog "storefront/internal/domains/catalog/model"
	"storefront/internal/infrastructure/api"
	"storefront/pkg/eventbus"
	"storefront/pkg/querycache"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CartService keeps a local copy of the remote cart. Every change is applied
// optimistically, sent to the API, then either reconciled by a refetch or
// rolled back to the exact previous state.
type CartService struct {
	api      API
	products ProductLookup
	sessions SessionKeys
	identity Identity
	history  HistoryInvalidator
	bus      Publisher

	query *querycache.Query[[]model.CartItem]
}

var _ ServiceInterface = (*CartService)(nil)

// NewCartService wires the cart. identity may be nil (always a guest);
// history and bus may be nil.
func NewCartService(
	client API,
	products ProductLookup,
	sessions SessionKeys,
	identity Identity,
	history HistoryInvalidator,
	bus Publisher,
) *CartService {
	if client == nil || sessions == nil {
		panic("cart: api client and session keys are required")
	}
	s := &CartService{
		api:      client,
		products: products,
		sessions: sessions,
		identity: identity,
		history:  history,
		bus:      bus,
	}
	s.query = querycache.New[[]model.CartItem](model.QueryKeyCart, s.fetch)
	return s
}

// ===================================
// READS
// ===================================

func (s *CartService) fetch(ctx context.Context) ([]model.CartItem, error) {
	items, err := s.api.ListCart(ctx, s.guestKey(ctx))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.CartItem{}
	}
	return items, nil
}

// guestKey is the session key for guests and "" once signed in
func (s *CartService) guestKey(ctx context.Context) string {
	if s.identity != nil && s.identity.IsAuthenticated(ctx) {
		return ""
	}
	return s.sessions.GetOrCreate(ctx)
}

func (s *CartService) Items(ctx context.Context) ([]model.CartItem, error) {
	items, err := s.query.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return slices.Clone(items), nil
}

func (s *CartService) Refresh(ctx context.Context) ([]model.CartItem, error) {
	items, err := s.query.Refetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh cart: %w", err)
	}
	return slices.Clone(items), nil
}

func (s *CartService) Snapshot() []model.CartItem {
	items, ok := s.query.Data()
	if !ok || items == nil {
		return []model.CartItem{}
	}
	return slices.Clone(items)
}

// current returns cached lines, loading them once when nothing is cached.
// A failed load yields an empty cart so validation can still run.
func (s *CartService) current(ctx context.Context) []model.CartItem {
	if items, ok := s.query.Data(); ok {
		return items
	}
	items, err := s.query.Fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("cart: could not load cart before mutation")
		return nil
	}
	return items
}

func (s *CartService) ItemCount(ctx context.Context) int {
	items, err := s.query.Refetch(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("cart: item count unavailable")
		return 0
	}
	return model.TotalQuantity(items)
}

func (s *CartService) Total(ctx context.Context) decimal.Decimal {
	items, err := s.query.Fetch(ctx)
	if err != nil {
		return decimal.Zero
	}
	return model.TotalAmount(items)
}

func (s *CartService) Pending() int {
	return s.query.Pending()
}

func (s *CartService) Reset() {
	s.query.Reset()
}

// ===================================
// MUTATIONS
// ===================================

func (s *CartService) AddItem(ctx context.Context, productID int64, quantity int) (*model.CartItem, error) {
	if productID <= 0 {
		return nil, model.ErrInvalidProduct
	}
	if quantity < model.MinQuantity {
		return nil, model.ErrInvalidQuantity
	}

	items := s.current(ctx)
	inCart := 0
	var product catalog.Product
	if idx := model.FindByProduct(items, productID); idx >= 0 {
		inCart = items[idx].Quantity
		product = items[idx].Product
	}

	// nested products may omit stock; the catalog record is authoritative
	if product.Stock <= 0 {
		p, err := s.lookup(ctx, productID)
		if err != nil {
			return nil, err
		}
		product = *p
	}

	// no ID means the catalog was unreachable; the server enforces stock
	if product.ID == 0 {
		product.ID = productID
	} else if inCart+quantity > product.Stock {
		return nil, fmt.Errorf("%w: %d available, %d already in cart", model.ErrInsufficientStock, product.Stock, inCart)
	}

	guest := s.guestKey(ctx)
	m := &querycache.Mutation[[]model.CartItem, *model.AddItemResponse]{
		Query: s.query,
		Project: func(cur []model.CartItem) []model.CartItem {
			next := slices.Clone(cur)
			if idx := model.FindByProduct(next, productID); idx >= 0 {
				next[idx] = next[idx].WithQuantity(next[idx].Quantity + quantity)
				return next
			}
			line := model.CartItem{ID: model.ProvisionalID(productID), Product: product}
			return append(next, line.WithQuantity(quantity))
		},
		Commit: func(ctx context.Context) (*model.AddItemResponse, error) {
			return s.api.AddCartItem(ctx, model.AddItemRequest{
				Product:    productID,
				Quantity:   quantity,
				SessionKey: guest,
			})
		},
		OnCommit: func(ctx context.Context, q *querycache.Query[[]model.CartItem], resp *model.AddItemResponse) {
			// adopt the server's key before refetching with it
			if guest != "" && resp != nil && resp.SessionKey != "" {
				s.sessions.Replace(ctx, resp.SessionKey)
			}
			s.reconcile(ctx)
		},
	}

	resp, err := m.Run(ctx)
	if err != nil {
		return nil, s.fail(model.OpAddItem, model.MsgAddFailed, err)
	}
	s.changed(model.OpAddItem, m.Phase())

	if resp == nil {
		line := model.CartItem{Product: product}.WithQuantity(inCart + quantity)
		return &line, nil
	}
	if resp.Product.ID == 0 {
		resp.Product = product
	}
	return &resp.CartItem, nil
}

// lookup resolves the catalog record of productID. A missing product is an
// error; when the catalog cannot be reached the returned product has no ID
// and the stock bound is unknown.
func (s *CartService) lookup(ctx context.Context, productID int64) (*catalog.Product, error) {
	if s.products == nil {
		return &catalog.Product{}, nil
	}
	p, err := s.products.GetProduct(ctx, productID)
	if api.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %d", model.ErrProductNotFound, productID)
	}
	if err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("cart: stock lookup failed, adding without a local bound")
		return &catalog.Product{}, nil
	}
	return p, nil
}

func (s *CartService) RemoveItem(ctx context.Context, itemID int64) error {
	if itemID < 0 {
		return model.ErrItemNotSynced
	}

	m := &querycache.Mutation[[]model.CartItem, struct{}]{
		Query: s.query,
		Project: func(cur []model.CartItem) []model.CartItem {
			next := make([]model.CartItem, 0, len(cur))
			for _, it := range cur {
				if it.ID != itemID {
					next = append(next, it)
				}
			}
			return next
		},
		Commit: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.api.DeleteCartItem(ctx, itemID)
		},
	}

	if _, err := m.Run(ctx); err != nil {
		return s.fail(model.OpRemoveItem, model.MsgRemoveFailed, err)
	}
	s.changed(model.OpRemoveItem, m.Phase())
	return nil
}

func (s *CartService) SetQuantity(ctx context.Context, itemID int64, quantity int) (*model.CartItem, error) {
	if quantity < model.MinQuantity {
		return nil, model.ErrInvalidQuantity
	}

	items := s.current(ctx)
	idx := model.FindByID(items, itemID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d", model.ErrItemNotFound, itemID)
	}
	line := items[idx]
	if line.IsProvisional() {
		return nil, model.ErrItemNotSynced
	}
	if line.Product.Stock > 0 && quantity > line.Product.Stock {
		return nil, fmt.Errorf("%w: %d available", model.ErrInsufficientStock, line.Product.Stock)
	}

	m := &querycache.Mutation[[]model.CartItem, *model.CartItem]{
		Query: s.query,
		Project: func(cur []model.CartItem) []model.CartItem {
			next := slices.Clone(cur)
			if i := model.FindByID(next, itemID); i >= 0 {
				next[i] = next[i].WithQuantity(quantity)
			}
			return next
		},
		Commit: func(ctx context.Context) (*model.CartItem, error) {
			return s.api.UpdateCartItem(ctx, itemID, quantity)
		},
	}

	updated, err := m.Run(ctx)
	if err != nil {
		return nil, s.fail(model.OpSetQuantity, model.MsgQuantityFailed, err)
	}
	s.changed(model.OpSetQuantity, m.Phase())
	return updated, nil
}

func (s *CartService) Increment(ctx context.Context, itemID int64) (*model.CartItem, error) {
	return s.step(ctx, itemID, 1)
}

func (s *CartService) Decrement(ctx context.Context, itemID int64) (*model.CartItem, error) {
	return s.step(ctx, itemID, -1)
}

func (s *CartService) step(ctx context.Context, itemID int64, delta int) (*model.CartItem, error) {
	items := s.current(ctx)
	idx := model.FindByID(items, itemID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d", model.ErrItemNotFound, itemID)
	}
	return s.SetQuantity(ctx, itemID, items[idx].Quantity+delta)
}

// Checkout has an external side effect, so nothing is projected locally.
// On success the cart is treated as emptied and purchase history goes stale.
func (s *CartService) Checkout(ctx context.Context, paymentMethod string) (*model.CheckoutResult, error) {
	if paymentMethod == "" {
		paymentMethod = model.DefaultPaymentMethod
	}
	if err := model.ValidatePaymentMethod(paymentMethod); err != nil {
		return nil, err
	}

	total := model.TotalAmount(s.Snapshot())
	guest := s.guestKey(ctx)

	m := &querycache.Mutation[[]model.CartItem, *model.CheckoutResponse]{
		Query: s.query,
		Commit: func(ctx context.Context) (*model.CheckoutResponse, error) {
			return s.api.Checkout(ctx, paymentMethod, guest)
		},
		OnCommit: func(ctx context.Context, q *querycache.Query[[]model.CartItem], _ *model.CheckoutResponse) {
			q.SetData([]model.CartItem{})
			q.MarkStale()
			if s.history != nil {
				s.history.Invalidate(ctx)
			}
		},
	}

	resp, err := m.Run(ctx)
	if err != nil {
		opErr := s.fail(model.OpCheckout, model.MsgCheckoutFailed, err)
		opErr.Retryable = true
		return nil, opErr
	}
	s.changed(model.OpCheckout, m.Phase())

	result := &model.CheckoutResult{PaymentMethod: paymentMethod, Total: total}
	if resp != nil {
		result.Message = resp.Message
		result.PurchaseID = resp.PurchaseID
		if !resp.Total.IsZero() {
			result.Total = resp.Total
		}
	}
	return result, nil
}

// ===================================
// HELPERS
// ===================================

func (s *CartService) reconcile(ctx context.Context) {
	if _, err := s.query.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("cart: reconcile after mutation failed")
	}
}

func (s *CartService) changed(op string, phase querycache.Phase) {
	log.Debug().Str("op", op).Str("phase", phase.String()).Msg("cart mutation settled")
	if s.bus != nil {
		s.bus.Publish(eventbus.CartChanged)
	}
}

// fail converts a remote failure into the error shown to the user. The
// cache has already been restored.
func (s *CartService) fail(op, fallback string, err error) *model.OperationError {
	var opErr *model.OperationError
	if errors.As(err, &opErr) {
		return opErr
	}

	log.Warn().Err(err).Str("op", op).Int("status", api.StatusCode(err)).Msg("cart mutation rolled back")
	return &model.OperationError{
		Op:        op,
		Message:   api.MessageOr(err, fallback),
		Retryable: api.IsRetryable(err),
		Err:       err,
	}
}
