package service

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"storefront/internal/domains/cart/model"
	catalog "storefront/internal/domains/catalog/model"
	"storefront/internal/infrastructure/api"
	"storefront/pkg/eventbus"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===================================
// FAKES
// ===================================

// fakeAPI is an in-memory remote cart
type fakeAPI struct {
	mu     sync.Mutex
	items  []model.CartItem
	nextID int64

	listErr, addErr, updateErr, deleteErr, checkoutErr error

	// subtotals forces server-side subtotals per product id
	subtotals map[int64]decimal.Decimal
	echoKey   string

	// addStarted is signalled when AddCartItem begins; addGate holds it
	addStarted chan struct{}
	addGate    chan struct{}

	listKeys                                     []string
	addRequests                                  []model.AddItemRequest
	addCalls, updateCalls, deleteCalls, checkout int
}

func newFakeAPI(items ...model.CartItem) *fakeAPI {
	return &fakeAPI{items: items, nextID: 100, subtotals: map[int64]decimal.Decimal{}}
}

func (f *fakeAPI) ListCart(_ context.Context, sessionKey string) ([]model.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listKeys = append(f.listKeys, sessionKey)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return slices.Clone(f.items), nil
}

func (f *fakeAPI) AddCartItem(_ context.Context, req model.AddItemRequest) (*model.AddItemResponse, error) {
	if f.addStarted != nil {
		select {
		case f.addStarted <- struct{}{}:
		default:
		}
	}
	if f.addGate != nil {
		<-f.addGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	f.addRequests = append(f.addRequests, req)
	if f.addErr != nil {
		return nil, f.addErr
	}

	idx := model.FindByProduct(f.items, req.Product)
	if idx < 0 {
		f.nextID++
		f.items = append(f.items, model.CartItem{ID: f.nextID, Product: catalogProducts[req.Product]})
		idx = len(f.items) - 1
	}
	f.items[idx] = f.serverLine(f.items[idx], f.items[idx].Quantity+req.Quantity)
	return &model.AddItemResponse{CartItem: f.items[idx], SessionKey: f.echoKey}, nil
}

func (f *fakeAPI) serverLine(it model.CartItem, quantity int) model.CartItem {
	it = it.WithQuantity(quantity)
	if sub, ok := f.subtotals[it.Product.ID]; ok {
		it.Subtotal = sub
	}
	return it
}

func (f *fakeAPI) UpdateCartItem(_ context.Context, itemID int64, quantity int) (*model.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	idx := model.FindByID(f.items, itemID)
	if idx < 0 {
		return nil, &api.APIError{StatusCode: http.StatusNotFound}
	}
	f.items[idx] = f.serverLine(f.items[idx], quantity)
	item := f.items[idx]
	return &item, nil
}

func (f *fakeAPI) DeleteCartItem(_ context.Context, itemID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.items = slices.DeleteFunc(f.items, func(it model.CartItem) bool { return it.ID == itemID })
	return nil
}

func (f *fakeAPI) Checkout(_ context.Context, paymentMethod, _ string) (*model.CheckoutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkout++
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	total := model.TotalAmount(f.items)
	f.items = nil
	return &model.CheckoutResponse{Message: "Compra realizada con " + paymentMethod, PurchaseID: 42, Total: total}, nil
}

func (f *fakeAPI) calls() (add, update, del, checkout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addCalls, f.updateCalls, f.deleteCalls, f.checkout
}

func (f *fakeAPI) lastListKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.listKeys) == 0 {
		return "<none>"
	}
	return f.listKeys[len(f.listKeys)-1]
}

var catalogProducts = map[int64]catalog.Product{
	3: book(3, "9.985", 10),
	4: book(4, "12.50", 1),
	5: book(5, "5.00", 5),
	7: book(7, "7.00", 5),
	9: book(9, "3.00", 5),
}

type fakeProducts struct{}

func (fakeProducts) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := catalogProducts[id]
	if !ok {
		return nil, &api.APIError{StatusCode: http.StatusNotFound}
	}
	return &p, nil
}

type fakeSessions struct {
	mu       sync.Mutex
	key      string
	replaced []string
}

func (f *fakeSessions) GetOrCreate(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.key
}

func (f *fakeSessions) Replace(_ context.Context, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.key = key
	f.replaced = append(f.replaced, key)
}

type fakeIdentity bool

func (f fakeIdentity) IsAuthenticated(context.Context) bool { return bool(f) }

type fakeHistory struct {
	mu    sync.Mutex
	count int
}

func (f *fakeHistory) Invalidate(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
}

func (f *fakeHistory) invalidations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func book(id int64, price string, stock int) catalog.Product {
	return catalog.Product{ID: id, Name: "Libro", Price: decimal.RequireFromString(price), Stock: stock}
}

func line(id, productID int64, quantity int) model.CartItem {
	return model.CartItem{ID: id, Product: catalogProducts[productID]}.WithQuantity(quantity)
}

func ids(items []model.CartItem) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

type fixture struct {
	svc      *CartService
	api      *fakeAPI
	sessions *fakeSessions
	history  *fakeHistory
	events   *int
}

func newFixture(t *testing.T, remote *fakeAPI, authenticated bool) *fixture {
	t.Helper()
	bus := eventbus.New()
	events := 0
	var mu sync.Mutex
	t.Cleanup(bus.Subscribe(eventbus.CartChanged, func() {
		mu.Lock()
		events++
		mu.Unlock()
	}))

	sessions := &fakeSessions{key: "guest_test"}
	history := &fakeHistory{}
	return &fixture{
		svc:      NewCartService(remote, fakeProducts{}, sessions, fakeIdentity(authenticated), history, bus),
		api:      remote,
		sessions: sessions,
		history:  history,
		events:   &events,
	}
}

// ===================================
// SET QUANTITY
// ===================================

func TestSetQuantity_ZeroIsRejectedWithoutNetwork(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newFakeAPI(line(7, 7, 2)), false)
	before, err := f.svc.Items(ctx)
	require.NoError(t, err)

	_, err = f.svc.SetQuantity(ctx, 7, 0)

	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
	assert.True(t, model.IsValidation(err))
	_, updates, _, _ := f.api.calls()
	assert.Zero(t, updates)
	assert.Equal(t, before, f.svc.Snapshot())
	assert.Zero(t, *f.events)
}

func TestSetQuantity_ProjectsThenReconciles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newFakeAPI(line(7, 7, 1)), false)
	_, err := f.svc.Items(ctx)
	require.NoError(t, err)

	updated, err := f.svc.SetQuantity(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)

	snap := f.svc.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 3, snap[0].Quantity)
	assert.True(t, decimal.NewFromInt(21).Equal(snap[0].Subtotal))
	assert.Equal(t, 1, *f.events)
	assert.Zero(t, f.svc.Pending())
}

func TestSetQuantity_Guards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newFakeAPI(line(7, 7, 1)), false)

	_, err := f.svc.SetQuantity(ctx, 7, 6)
	assert.ErrorIs(t, err, model.ErrInsufficientStock)

	_, err = f.svc.SetQuantity(ctx, 999, 1)
	assert.ErrorIs(t, err, model.ErrItemNotFound)

	_, updates, _, _ := f.api.calls()
	assert.Zero(t, updates)
}

func TestSetQuantity_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	remote := newFakeAPI(line(7, 7, 1))
	remote.updateErr = &api.APIError{StatusCode: http.StatusBadRequest, Message: "cantidad: Stock insuficiente"}
	f := newFixture(t, remote, false)
	before, err := f.svc.Items(ctx)
	require.NoError(t, err)

	_, err = f.svc.SetQuantity(ctx, 7, 2)

	var opErr *model.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, model.OpSetQuantity, opErr.Op)
	assert.Equal(t, "cantidad: Stock insuficiente", opErr.Message)
	assert.False(t, opErr.Retryable)
	assert.Equal(t, before, f.svc.Snapshot())
	assert.Zero(t, *f.events)
}

func TestIncrementDecrement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newFakeAPI(line(7, 7, 1)), false)

	item, err := f.svc.Increment(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	item, err = f.svc.Decrement(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	_, err = f.svc.Decrement(ctx, 7)
	assert.ErrorIs(t, err, model.ErrInvalidQuantity)

	_, updates, _, _ := f.api.calls()
	assert.Equal(t, 2, updates)
	assert.Equal(t, 1, f.svc.Snapshot()[0].Quantity)
}

// ===================================
// REMOVE
// ===================================

func TestRemoveItem_FailureRestoresOriginalPosition(t *testing.T) {
	ctx := context.Background()
	remote := newFakeAPI(line(5, 5, 1), line(7, 7, 1), line(9, 9, 1))
	remote.deleteErr = &api.APIError{StatusCode: http.StatusServiceUnavailable}
	f := newFixture(t, remote, false)
	before, err := f.svc.Items(ctx)
	require.NoError(t, err)

	err = f.svc.RemoveItem(ctx, 7)

	var opErr *model.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, model.MsgRemoveFailed, opErr.Message)
	assert.True(t, opErr.Retryable)
	assert.Equal(t, []int64{5, 7, 9}, ids(f.svc.Snapshot()))
	assert.Equal(t, before, f.svc.Snapshot())
	assert.Zero(t, *f.events)
	assert.Zero(t, f.svc.Pending())
}

func TestRemoveItem_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newFakeAPI(line(5, 5, 1), line(7, 7, 1)), false)
	_, err := f.svc.Items(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveItem(ctx, 7))

	assert.Equal(t, []int64{5}, ids(f.svc.Snapshot()))
	assert.Equal(t, 1, *f.events)
}

func TestRemoveItem_ProvisionalLine(t *testing.T) {
	f := newFixture(t, newFakeAPI(), false)

	assert.ErrorIs(t, f.svc.RemoveItem(context.Background(), -3), model.ErrItemNotSynced)
	_, _, deletes, _ := f.api.calls()
	assert.Zero(t, deletes)
}

// ===================================
// ADD
// ===================================

func TestAddItem_ServerSubtotalWins(t *testing.T) {
	ctx := context.Background()
	remote := newFakeAPI()
	remote.subtotals[3] = decimal.RequireFromString("19.98")
	f := newFixture(t, remote, false)

	item, err := f.svc.AddItem(ctx, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	snap := f.svc.Snapshot()
	require.Len(t, snap, 1)
	assert.False(t, snap[0].IsProvisional())
	assert.Equal(t, 2, snap[0].Quantity)
	assert.Equal(t, "19.98", snap[0].Subtotal.StringFixed(2))
	assert.False(t, snap[0].Subtotal.Equal(snap[0].ProjectedSubtotal()))
	assert.Equal(t, 1, *f.events)
	assert.Equal(t, "guest_test", remote.addRequests[0].SessionKey)
}

func TestAddItem_ProvisionalLineWhileInFlight(t *testing.T) {
	ctx := context.Background()
	remote := newFakeAPI()
	remote.addStarted = make(chan struct{}, 1)
	remote.addGate = make(chan struct{})
	f := newFixture(t, remote, false)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.AddItem(ctx, 3, 2)
		done <- err
	}()

	select {
	case <-remote.addStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("add never reached the API")
	}

	snap := f.svc.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, model.ProvisionalID(3), snap[0].ID)
	assert.Equal(t, 2, snap[0].Quantity)
	assert.Equal(t, 1, f.svc.Pending())

	// background reads while the add is pending keep the optimistic state
	refreshed, err := f.svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, refreshed)

	_, err = f.svc.SetQuantity(ctx, model.ProvisionalID(3), 1)
	assert.ErrorIs(t, err, model.ErrItemNotSynced)

	close(remote.addGate)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("add did not settle")
	}

	snap = f.svc.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(101), snap[0].ID)
	assert.Zero(t, f.svc.Pending())
}

func TestAddItem_MergesIntoExistingLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newFakeAPI(line(7, 7, 1)), false)

	_, err := f.svc.AddItem(ctx, 7, 2)
	require.NoError(t, err)

	snap := f.svc.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(7), snap[0].ID)
	assert.Equal(t, 3, snap[0].Quantity)
}

func TestAddItem_StockBound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newFakeAPI(line(5, 5, 4)), false)

	_, err := f.svc.AddItem(ctx, 5, 2)
	assert.ErrorIs(t, err, model.ErrInsufficientStock)

	// not in cart: bound comes from the catalog lookup
	_, err = f.svc.AddItem(ctx, 4, 2)
	assert.ErrorIs(t, err, model.ErrInsufficientStock)

	_, err = f.svc.AddItem(ctx, 404, 1)
	assert.ErrorIs(t, err, model.ErrProductNotFound)

	adds, _, _, _ := f.api.calls()
	assert.Zero(t, adds)
	assert.Equal(t, []int64{5}, ids(f.svc.Snapshot()))
	assert.Zero(t, *f.events)
}

type unreachableCatalog struct{}

func (unreachableCatalog) GetProduct(context.Context, int64) (*catalog.Product, error) {
	return nil, errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")
}

func TestAddItem_UnknownStockDefersToServer(t *testing.T) {
	for name, products := range map[string]ProductLookup{
		"catalog unreachable": unreachableCatalog{},
		"no catalog":          nil,
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			remote := newFakeAPI()
			svc := NewCartService(remote, products, &fakeSessions{key: "guest_test"}, fakeIdentity(false), nil, nil)

			item, err := svc.AddItem(ctx, 9, 2)
			require.NoError(t, err)
			assert.Equal(t, 2, item.Quantity)

			adds, _, _, _ := remote.calls()
			assert.Equal(t, 1, adds)
			assert.Len(t, svc.Snapshot(), 1)
		})
	}
}

func TestAddItem_InvalidInput(t *testing.T) {
	ctx := context.Background()
	remote := newFakeAPI()
	f := newFixture(t, remote, false)

	_, err := f.svc.AddItem(ctx, 3, 0)
	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
	_, err = f.svc.AddItem(ctx, 0, 1)
	assert.ErrorIs(t, err, model.ErrInvalidProduct)

	assert.Equal(t, "<none>", remote.lastListKey())
}

func TestAddItem_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	remote := newFakeAPI(line(5, 5, 1))
	remote.addErr = &api.APIError{StatusCode: http.StatusBadRequest, Message: "Stock insuficiente"}
	f := newFixture(t, remote, false)
	before, err := f.svc.Items(ctx)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, 3, 1)

	var opErr *model.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "Stock insuficiente", opErr.Message)
	assert.Equal(t, before, f.svc.Snapshot())
	assert.Zero(t, *f.events)
}

func TestAddItem_AdoptsEchoedSessionKey(t *testing.T) {
	ctx := context.Background()
	remote := newFakeAPI()
	remote.echoKey = "srv_key"
	f := newFixture(t, remote, false)

	_, err := f.svc.AddItem(ctx, 3, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"srv_key"}, f.sessions.replaced)
	assert.Equal(t, "srv_key", remote.lastListKey())
}

func TestAuthenticatedCartOmitsSessionKey(t *testing.T) {
	ctx := context.Background()
	remote := newFakeAPI()
	remote.echoKey = "ignored"
	f := newFixture(t, remote, true)

	_, err := f.svc.AddItem(ctx, 3, 1)
	require.NoError(t, err)

	assert.Empty(t, remote.addRequests[0].SessionKey)
	assert.Empty(t, remote.lastListKey())
	assert.Empty(t, f.sessions.replaced)
}

// ===================================
// CHECKOUT
// ===================================

func TestCheckout_SuccessEmptiesCartAndInvalidatesHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newFakeAPI(line(5, 5, 2), line(7, 7, 1)), false)
	_, err := f.svc.Items(ctx)
	require.NoError(t, err)

	result, err := f.svc.Checkout(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, model.DefaultPaymentMethod, result.PaymentMethod)
	assert.Equal(t, int64(42), result.PurchaseID)
	assert.True(t, decimal.NewFromInt(17).Equal(result.Total))
	assert.Empty(t, f.svc.Snapshot())
	assert.Equal(t, 1, f.history.invalidations())
	assert.Equal(t, 1, *f.events)

	items, err := f.svc.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCheckout_FailureLeavesCartUntouched(t *testing.T) {
	ctx := context.Background()
	remote := newFakeAPI(line(5, 5, 2))
	remote.checkoutErr = &api.APIError{StatusCode: http.StatusServiceUnavailable, Message: "Funcionalidad en desarrollo"}
	f := newFixture(t, remote, false)
	before, err := f.svc.Items(ctx)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, "paypal")

	var opErr *model.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, model.OpCheckout, opErr.Op)
	assert.Equal(t, "Funcionalidad en desarrollo", opErr.Message)
	assert.True(t, opErr.Retryable)
	assert.Equal(t, before, f.svc.Snapshot())
	assert.Zero(t, f.history.invalidations())
	assert.Zero(t, *f.events)
}

func TestCheckout_RejectsUnknownPaymentMethod(t *testing.T) {
	f := newFixture(t, newFakeAPI(), false)

	_, err := f.svc.Checkout(context.Background(), "bitcoin")
	assert.Error(t, err)
	_, _, _, checkouts := f.api.calls()
	assert.Zero(t, checkouts)
}

// ===================================
// COUNTS
// ===================================

func TestItemCount(t *testing.T) {
	ctx := context.Background()
	remote := newFakeAPI(line(5, 5, 2), line(7, 7, 3))
	f := newFixture(t, remote, false)

	assert.Equal(t, 5, f.svc.ItemCount(ctx))
	assert.True(t, decimal.NewFromInt(31).Equal(f.svc.Total(ctx)))

	remote.mu.Lock()
	remote.listErr = errors.New("connection refused")
	remote.mu.Unlock()
	assert.Zero(t, f.svc.ItemCount(ctx))
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newFakeAPI(line(5, 5, 2)), false)
	_, err := f.svc.Items(ctx)
	require.NoError(t, err)

	f.svc.Reset()
	assert.Empty(t, f.svc.Snapshot())
}
