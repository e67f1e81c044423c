package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/realtime"
	"storefront/internal/repository"
	"storefront/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu   sync.Mutex
	envs []realtime.Envelope
}

func (r *recordingPublisher) Publish(env realtime.Envelope) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
	return 1
}

func (r *recordingPublisher) byKind(kind realtime.Kind) []realtime.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []realtime.Envelope
	for _, e := range r.envs {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fixedCounter int

func (c fixedCounter) ActiveCount() int { return int(c) }

type env struct {
	pub      *recordingPublisher
	users    *repository.UserRepositoryImpl
	products *repository.ProductRepositoryImpl
	carts    *repository.CartRepositoryImpl
	orders   *repository.OrderRepositoryImpl
	auth     *AuthServiceImpl
	catalog  *CatalogServiceImpl
	cart     *CartServiceImpl
	order    *OrderServiceImpl
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := testutil.NewDB(t)
	pub := &recordingPublisher{}
	log := zap.NewNop()

	e := &env{
		pub:      pub,
		users:    repository.NewUserRepository(gdb),
		products: repository.NewProductRepository(gdb),
		carts:    repository.NewCartRepository(gdb),
		orders:   repository.NewOrderRepository(gdb),
	}
	e.auth = NewAuthService(e.users, auth.NewTokenManager("test-secret", time.Hour), log)
	e.catalog = NewCatalogService(e.products, pub, log)
	e.cart = NewCartService(e.carts, e.products, pub, log)
	e.order = NewOrderService(e.orders, e.products, pub, log)
	return e
}

func (e *env) user(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{FirstName: "Test", LastName: "User", Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *env) product(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p, err := e.products.Create(context.Background(), &models.ProductCreate{
		Name: name, Category: "men", Price: price, Stock: stock,
		Colors: []string{"Black"}, Sizes: []string{"M"},
	})
	require.NoError(t, err)
	return p
}

var address = models.ShippingAddress{FullName: "Asha", AddressLine: "1 MG Road", City: "Pune", State: "MH", Pincode: "411001"}

func TestAuthService_RegisterLoginAuthenticate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	resp, err := e.auth.Register(ctx, &models.RegisterRequest{FirstName: "Asha", LastName: "K", Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, resp.Role)
	assert.NotEmpty(t, resp.Token)

	_, err = e.auth.Register(ctx, &models.RegisterRequest{FirstName: "A", LastName: "K", Email: "ASHA@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = e.auth.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = e.auth.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	login, err := e.auth.Login(ctx, &models.LoginRequest{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)

	user, err := e.auth.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, user.ID)

	_, err = e.auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = e.auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestAuthService_BlockedAccount(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	resp, err := e.auth.Register(ctx, &models.RegisterRequest{FirstName: "B", LastName: "K", Email: "b@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, e.users.SetBlocked(ctx, resp.ID, true))

	_, err = e.auth.Login(ctx, &models.LoginRequest{Email: "b@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = e.auth.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, apperr.ErrForbidden, "existing tokens stop working once blocked")
}

func TestCatalogService_ListAndView(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.product(t, "Cheap Tee", 499, 10)
	mid := e.product(t, "Mid Shirt", 1499, 10)
	e.product(t, "Pricey Jacket", 5999, 10)

	maxPrice := 2000.0
	res, err := e.catalog.List(ctx, catalog.Descriptor{MaxPrice: &maxPrice, Sort: catalog.SortPriceHigh}, 1, 12)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, mid.ID, res.Items[0].ID)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 499.0, res.Facets.PriceRange.Min)

	_, err = e.catalog.Get(ctx, mid.ID, "viewer")
	require.NoError(t, err)
	views := e.pub.byKind(realtime.KindProductView)
	require.Len(t, views, 1)
	assert.Equal(t, realtime.ToAdmins(), views[0].Target)

	_, err = e.catalog.Get(ctx, "missing", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCartService_SyncsOwner(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.user(t, "c@example.com", models.RoleCustomer)
	p := e.product(t, "Tee", 500, 5)

	cart, err := e.cart.Add(ctx, u.ID, &models.CartAdd{ProductID: p.ID, Quantity: 2, Size: "M", Color: "Black"})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, cart.Total)

	cart, err = e.cart.Add(ctx, u.ID, &models.CartAdd{ProductID: p.ID, Quantity: 1, Size: "M", Color: "Black"})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	_, err = e.cart.Add(ctx, u.ID, &models.CartAdd{ProductID: p.ID, Quantity: 1, Size: "XXL", Color: "Black"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = e.cart.Add(ctx, u.ID, &models.CartAdd{ProductID: p.ID, Quantity: 9, Size: "M", Color: "Black"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	cart, err = e.cart.SetQuantity(ctx, u.ID, cart.Items[0].ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 500.0, cart.Total)

	cart, err = e.cart.Remove(ctx, u.ID, cart.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	syncs := e.pub.byKind(realtime.KindCartSync)
	require.Len(t, syncs, 4)
	for _, s := range syncs {
		assert.Equal(t, "cart-sync-"+u.ID, s.EventName())
	}
}

func TestCartService_AddCountsQuantityAlreadyInCart(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.user(t, "stock@example.com", models.RoleCustomer)
	p := e.product(t, "Tee", 500, 5)

	_, err := e.cart.Add(ctx, u.ID, &models.CartAdd{ProductID: p.ID, Quantity: 3, Size: "M", Color: "Black"})
	require.NoError(t, err)

	_, err = e.cart.Add(ctx, u.ID, &models.CartAdd{ProductID: p.ID, Quantity: 3, Size: "M", Color: "Black"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	cart, err := e.cart.Add(ctx, u.ID, &models.CartAdd{ProductID: p.ID, Quantity: 2, Size: "M", Color: "Black"})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	cart, err = e.cart.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity, "rejected add leaves the line untouched")
}

func TestOrderService_CreateSnapshotsAndNotifies(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.user(t, "o@example.com", models.RoleCustomer)
	p := e.product(t, "Jeans", 1000, 5)

	order, err := e.order.Create(ctx, u, &models.OrderCreate{
		Items:           []models.OrderItemRequest{{ProductID: p.ID, Quantity: 2, Size: "M", Color: "Black"}},
		ShippingAddress: address,
		PaymentMethod:   "cod",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^GW\d{8}$`, order.OrderNumber)
	assert.Equal(t, 2000.0, order.ItemsPrice)
	assert.Equal(t, 360.0, order.TaxPrice)
	assert.Equal(t, 2360.0, order.TotalPrice)
	assert.Equal(t, "Jeans", order.Items[0].Name)

	newPrice := 1500.0
	_, err = e.products.Update(ctx, p.ID, &models.ProductUpdate{Price: &newPrice})
	require.NoError(t, err)
	stored, err := e.order.Get(ctx, u, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, stored.Items[0].Price, "price snapshot survives catalog changes")

	product, err := e.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, product.Stock)

	require.Len(t, e.pub.byKind(realtime.KindNewOrder), 1)
	notes := e.pub.byKind(realtime.KindNotification)
	require.Len(t, notes, 1)
	assert.Equal(t, "notification-"+u.ID, notes[0].EventName())
}

func TestOrderService_CreateRejectsUnavailableVariant(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.user(t, "v@example.com", models.RoleCustomer)
	p := e.product(t, "Jeans", 1000, 1)

	_, err := e.order.Create(ctx, u, &models.OrderCreate{
		Items:           []models.OrderItemRequest{{ProductID: p.ID, Quantity: 1, Size: "S", Color: "Black"}},
		ShippingAddress: address,
		PaymentMethod:   "cod",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.order.Create(ctx, u, &models.OrderCreate{
		Items:           []models.OrderItemRequest{{ProductID: p.ID, Quantity: 2, Size: "M", Color: "Black"}},
		ShippingAddress: address,
		PaymentMethod:   "cod",
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Empty(t, e.pub.byKind(realtime.KindNewOrder))
}

func TestOrderService_StatusUpdatesArriveInOrder(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	customer := e.user(t, "flow@example.com", models.RoleCustomer)
	admin := e.user(t, "admin@example.com", models.RoleAdmin)
	p := e.product(t, "Jacket", 3000, 5)

	order, err := e.order.Create(ctx, customer, &models.OrderCreate{
		Items:           []models.OrderItemRequest{{ProductID: p.ID, Quantity: 1, Size: "M", Color: "Black"}},
		ShippingAddress: address,
		PaymentMethod:   "upi",
	})
	require.NoError(t, err)

	_, err = e.order.UpdateStatus(ctx, admin, order.ID, models.StatusProcessing)
	require.NoError(t, err)
	updated, err := e.order.UpdateStatus(ctx, admin, order.ID, models.StatusShipped)
	require.NoError(t, err)
	assert.Len(t, updated.StatusHistory, 3)

	updates := e.pub.byKind(realtime.KindOrderUpdate)
	require.Len(t, updates, 6)
	statuses := map[string][]models.OrderStatus{}
	for _, u := range updates {
		assert.Equal(t, customer.ID, u.Target.UserID, "only the owner's connections receive it")
		statuses[u.EventName()] = append(statuses[u.EventName()], u.Payload.(models.OrderUpdateEvent).Status)
	}
	want := []models.OrderStatus{models.StatusPending, models.StatusProcessing, models.StatusShipped}
	assert.Equal(t, want, statuses["order-update-"+customer.ID])
	assert.Equal(t, want, statuses["order-update-"+order.ID])
}

func TestOrderService_StatusRules(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	customer := e.user(t, "rules@example.com", models.RoleCustomer)
	other := e.user(t, "other@example.com", models.RoleCustomer)
	admin := e.user(t, "boss@example.com", models.RoleAdmin)
	p := e.product(t, "Cap", 300, 5)

	order, err := e.order.Create(ctx, customer, &models.OrderCreate{
		Items:           []models.OrderItemRequest{{ProductID: p.ID, Quantity: 1, Size: "M", Color: "Black"}},
		ShippingAddress: address,
		PaymentMethod:   "card",
	})
	require.NoError(t, err)

	_, err = e.order.UpdateStatus(ctx, admin, order.ID, "teleported")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.order.UpdateStatus(ctx, admin, order.ID, models.StatusShipped)
	require.NoError(t, err)

	before := len(e.pub.byKind(realtime.KindOrderUpdate))
	_, err = e.order.UpdateStatus(ctx, admin, order.ID, models.StatusShipped)
	require.NoError(t, err)
	assert.Len(t, e.pub.byKind(realtime.KindOrderUpdate), before, "same status emits nothing")

	_, err = e.order.UpdateStatus(ctx, admin, order.ID, models.StatusConfirmed)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = e.order.UpdateStatus(ctx, admin, order.ID, models.StatusDelivered)
	require.NoError(t, err)
	_, err = e.order.UpdateStatus(ctx, admin, order.ID, models.StatusCancelled)
	assert.ErrorIs(t, err, apperr.ErrConflict, "terminal")

	_, err = e.order.Get(ctx, other, order.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = e.order.Get(ctx, admin, order.ID)
	assert.NoError(t, err)

	mine, err := e.order.ListMine(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestOrderService_OrderNumbersAreUnique(t *testing.T) {
	s := NewOrderService(nil, nil, &recordingPublisher{}, zap.NewNop())
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n := s.nextOrderNumber(now)
		assert.Len(t, n, 10)
		assert.False(t, seen[n], n)
		seen[n] = true
	}
}

func TestOrderService_ListAllClampsPaging(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	customer := e.user(t, "pages@example.com", models.RoleCustomer)
	p := e.product(t, "Socks", 100, 10)

	_, err := e.order.Create(ctx, customer, &models.OrderCreate{
		Items:           []models.OrderItemRequest{{ProductID: p.ID, Quantity: 1, Size: "M", Color: "Black"}},
		ShippingAddress: address,
		PaymentMethod:   "cod",
	})
	require.NoError(t, err)

	for _, tt := range []struct{ page, limit int }{
		{math.MaxInt, 10},
		{math.MaxInt, math.MaxInt},
		{768614336404564652, 12},
	} {
		var orders []models.Order
		require.NotPanics(t, func() {
			orders, err = e.order.ListAll(ctx, tt.page, tt.limit)
		})
		require.NoError(t, err)
		assert.Empty(t, orders, "page %d limit %d", tt.page, tt.limit)
	}

	orders, err := e.order.ListAll(ctx, 1, math.MaxInt)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestDashboardService_Metrics(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	customer := e.user(t, "d@example.com", models.RoleCustomer)
	admin := e.user(t, "da@example.com", models.RoleAdmin)
	p := e.product(t, "Tee", 100, 10)

	for i := 0; i < 2; i++ {
		_, err := e.order.Create(ctx, customer, &models.OrderCreate{
			Items:           []models.OrderItemRequest{{ProductID: p.ID, Quantity: 1, Size: "M", Color: "Black"}},
			ShippingAddress: address,
			PaymentMethod:   "cod",
		})
		require.NoError(t, err)
	}
	orders, err := e.order.ListAll(ctx, 1, 10)
	require.NoError(t, err)
	_, err = e.order.UpdateStatus(ctx, admin, orders[0].ID, models.StatusCancelled)
	require.NoError(t, err)

	dash := NewDashboardService(e.products, e.users, e.orders, fixedCounter(7))
	m, err := dash.Metrics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), m.TotalProducts)
	assert.Equal(t, int64(1), m.TotalCustomers)
	assert.Equal(t, int64(2), m.TotalOrders)
	assert.Equal(t, int64(1), m.OrdersByStatus[models.StatusCancelled])
	assert.Equal(t, int64(1), m.OrdersByStatus[models.StatusPending])
	assert.Equal(t, 118.0, m.Revenue)
	assert.Equal(t, 7, m.ActiveSessions)
}

type memoryAnalyticsRepo struct {
	mu     sync.Mutex
	stored []models.AnalyticsEvent
	fail   bool
}

func (m *memoryAnalyticsRepo) Store(_ context.Context, ev *models.AnalyticsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("db down")
	}
	m.stored = append(m.stored, *ev)
	return nil
}

func TestAnalyticsService_PersistsAndMirrors(t *testing.T) {
	repo := &memoryAnalyticsRepo{}
	pub := &recordingPublisher{}
	svc := NewAnalyticsService(repo, pub, 2, 16, zap.NewNop())
	svc.Start()

	assert.True(t, svc.Track(models.AnalyticsEvent{Kind: models.AnalyticsPageView, Page: "/"}))
	assert.True(t, svc.Track(models.AnalyticsEvent{Kind: models.AnalyticsCartAction, Action: "add", ProductID: "p1"}))
	svc.Shutdown()

	assert.Len(t, repo.stored, 2)
	assert.Len(t, pub.byKind(realtime.KindPageView), 1)
	assert.Len(t, pub.byKind(realtime.KindCartAction), 1)

	assert.False(t, svc.Track(models.AnalyticsEvent{Kind: models.AnalyticsPageView}), "stopped pool refuses events")
	svc.Shutdown()
}

func TestAnalyticsService_FullQueueDrops(t *testing.T) {
	svc := NewAnalyticsService(&memoryAnalyticsRepo{}, &recordingPublisher{}, 1, 1, zap.NewNop())

	assert.True(t, svc.Track(models.AnalyticsEvent{Kind: models.AnalyticsPageView}))
	assert.False(t, svc.Track(models.AnalyticsEvent{Kind: models.AnalyticsPageView}))

	svc.Start()
	svc.Shutdown()
}
