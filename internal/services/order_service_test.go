package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kammalabel/internal/models"
)

type orderFixture struct {
	svc      OrderService
	carts    CartService
	orders   *fakeOrderRepo
	catalog  *fakeCatalogRepo
	users    *fakeUserRepo
	notifier *fakeNotifier
	receipts *fakeReceiptGen
	user     *models.User
	clock    time.Time
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	catalog := &fakeCatalogRepo{instances: testInstances()}
	cartRepo := &fakeCartRepo{catalog: catalog}
	f := &orderFixture{
		carts:    NewCartService(cartRepo, catalog),
		orders:   &fakeOrderRepo{},
		catalog:  catalog,
		users:    &fakeUserRepo{},
		notifier: &fakeNotifier{},
		receipts: &fakeReceiptGen{},
		clock:    time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	f.user = f.users.add(&models.User{FirstName: "Aigerim", LastName: "S", IsActive: true})
	addresses := &fakeAddressRepo{}
	require.NoError(t, addresses.Create(&models.Address{
		UserID: f.user.ID, Title: "Дом", City: "Алматы",
		PostalAddress: "пр. Абая 1", IsDefault: true,
	}))
	svc := NewOrderService(f.orders, f.carts, catalog, addresses, f.users, f.receipts, f.notifier)
	svc.(*orderService).now = func() time.Time { return f.clock }
	f.svc = svc
	return f
}

func (f *orderFixture) fillCart(t *testing.T) {
	t.Helper()
	_, err := f.carts.AddItem(CartOwner{UserID: f.user.ID}, 10, 2) // 2 x 4500
	require.NoError(t, err)
	_, err = f.carts.AddItem(CartOwner{UserID: f.user.ID}, 20, 1) // 1 x 12000
	require.NoError(t, err)
}

func TestCheckoutSnapshotsPricesAndClearsCart(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t)

	order, err := f.svc.Checkout(f.user.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 21000, order.TotalAmount)
	assert.Equal(t, "ORD-20260314-00000001", order.Number)
	require.Len(t, order.Items, 2)

	// позиции несут снапшот цены
	for _, it := range order.Items {
		assert.Equal(t, it.UnitPrice*it.Count, it.TotalAmount)
	}

	cart, err := f.carts.GetCart(CartOwner{UserID: f.user.ID})
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// остатки на оформлении не трогаем
	assert.Equal(t, 5, f.catalog.instances[10].Stock)
}

func TestCheckoutNumberingPerDay(t *testing.T) {
	f := newOrderFixture(t)

	f.fillCart(t)
	first, err := f.svc.Checkout(f.user.ID, 0)
	require.NoError(t, err)

	f.fillCart(t)
	second, err := f.svc.Checkout(f.user.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260314-00000002", second.Number)

	f.clock = f.clock.Add(24 * time.Hour)
	f.fillCart(t)
	third, err := f.svc.Checkout(f.user.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260315-00000001", third.Number)

	assert.NotEqual(t, first.Number, second.Number)
}

func TestCheckoutGuards(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Checkout(f.user.ID, 0)
	assert.ErrorIs(t, err, ErrEmptyCart)

	// чужой или несуществующий адрес не подходит
	f.fillCart(t)
	_, err = f.svc.Checkout(f.user.ID, 999)
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestPayDecrementsStockAndNotifies(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t)
	order, err := f.svc.Checkout(f.user.ID, 0)
	require.NoError(t, err)

	payment, err := f.svc.Pay(f.user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccessful, payment.Status)
	assert.NotEmpty(t, payment.ExternalID)

	got, err := f.svc.GetOrder(f.user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, got.Status)

	assert.Equal(t, 3, f.catalog.instances[10].Stock)
	assert.Equal(t, 1, f.catalog.instances[20].Stock)
	assert.Equal(t, []string{order.Number}, f.notifier.paid)

	// оплаченный заказ нельзя оплатить или отменить повторно
	_, err = f.svc.Pay(f.user.ID, order.ID)
	assert.ErrorIs(t, err, ErrBadOrderStatus)
	assert.ErrorIs(t, f.svc.Cancel(f.user.ID, order.ID), ErrBadOrderStatus)
}

func TestPayInsufficientStockFailsOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t)
	order, err := f.svc.Checkout(f.user.ID, 0)
	require.NoError(t, err)

	// остатки успели разобрать между оформлением и оплатой
	f.catalog.instances[20].Stock = 0

	_, err = f.svc.Pay(f.user.ID, order.ID)
	require.Error(t, err)

	got, err := f.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderFailed, got.Status)
	p, err := f.orders.GetPaymentByOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, p.Status)
}

func TestCancelPendingOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t)
	order, err := f.svc.Checkout(f.user.ID, 0)
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(f.user.ID, order.ID))
	got, err := f.svc.GetOrder(f.user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, got.Status)
}

func TestGetOrderOwnership(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t)
	order, err := f.svc.Checkout(f.user.ID, 0)
	require.NoError(t, err)

	stranger := f.users.add(&models.User{FirstName: "Кто-то", IsActive: true})
	_, err = f.svc.GetOrder(stranger.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	list, err := f.svc.ListOrders(stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReceiptOnlyForPaidOrders(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t)
	order, err := f.svc.Checkout(f.user.ID, 0)
	require.NoError(t, err)

	_, err = f.svc.Receipt(f.user.ID, order.ID)
	assert.ErrorIs(t, err, ErrBadOrderStatus)

	_, err = f.svc.Pay(f.user.ID, order.ID)
	require.NoError(t, err)

	path, err := f.svc.Receipt(f.user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("/tmp/receipt_%s.pdf", order.Number), path)
	require.Len(t, f.receipts.generated, 1)
	assert.Equal(t, 21000, f.receipts.generated[0].Total)
	assert.Equal(t, "Aigerim S", f.receipts.generated[0].Customer)
}

func TestReceiptMissingUser(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t)
	order, err := f.svc.Checkout(f.user.ID, 0)
	require.NoError(t, err)
	_, err = f.svc.Pay(f.user.ID, order.ID)
	require.NoError(t, err)

	f.users.users = nil

	_, err = f.svc.Receipt(f.user.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Empty(t, f.receipts.generated)
}

func TestDashboardCountsPaidOrders(t *testing.T) {
	f := newOrderFixture(t)

	f.fillCart(t)
	paid, err := f.svc.Checkout(f.user.ID, 0)
	require.NoError(t, err)
	_, err = f.svc.Pay(f.user.ID, paid.ID)
	require.NoError(t, err)

	f.fillCart(t)
	done, err := f.svc.Checkout(f.user.ID, 0)
	require.NoError(t, err)
	require.NoError(t, f.orders.UpdateStatus(done.ID, models.OrderCompleted))

	// ожидающий заказ в сводку не попадает
	f.fillCart(t)
	_, err = f.svc.Checkout(f.user.ID, 0)
	require.NoError(t, err)

	summary, err := f.svc.Dashboard(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aigerim S", summary.User)
	assert.Equal(t, 2, summary.OrdersCount)
	assert.Equal(t, 42000, summary.TotalSpent)
}

func TestDashboardUnknownUser(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Dashboard(999)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
