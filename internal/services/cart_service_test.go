package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kammalabel/internal/models"
)

func testInstances() map[int]*models.ProductInstance {
	return map[int]*models.ProductInstance{
		10: {ID: 10, ProductID: 1, Stock: 5, Product: &models.Product{ID: 1, Name: "Футболка", Price: 4500}},
		20: {ID: 20, ProductID: 2, Stock: 2, Product: &models.Product{ID: 2, Name: "Худи", Price: 12000}},
		30: {ID: 30, ProductID: 3, Stock: 0, Product: &models.Product{ID: 3, Name: "Кепка", Price: 3000}},
	}
}

func newCartFixture() (CartService, *fakeCartRepo, *fakeCatalogRepo) {
	catalog := &fakeCatalogRepo{instances: testInstances()}
	carts := &fakeCartRepo{catalog: catalog}
	return NewCartService(carts, catalog), carts, catalog
}

func TestCartAddAndTotal(t *testing.T) {
	svc, _, _ := newCartFixture()
	owner := CartOwner{UserID: 1}

	cart, err := svc.AddItem(owner, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 9000, cart.TotalAmount)

	cart, err = svc.AddItem(owner, 20, 1)
	require.NoError(t, err)
	assert.Equal(t, 21000, cart.TotalAmount)
	assert.Len(t, cart.Items, 2)

	// повторное добавление того же варианта суммирует количество
	cart, err = svc.AddItem(owner, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, 25500, cart.TotalAmount)
	assert.Len(t, cart.Items, 2)
}

func TestCartAddRespectsStock(t *testing.T) {
	svc, _, _ := newCartFixture()
	owner := CartOwner{UserID: 1}

	_, err := svc.AddItem(owner, 30, 1)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = svc.AddItem(owner, 20, 2)
	require.NoError(t, err)
	// суммарное количество проверяется против остатка
	_, err = svc.AddItem(owner, 20, 1)
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestCartAddUnknownInstance(t *testing.T) {
	svc, _, _ := newCartFixture()
	_, err := svc.AddItem(CartOwner{UserID: 1}, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartUpdateItem(t *testing.T) {
	svc, _, _ := newCartFixture()
	owner := CartOwner{UserID: 1}

	_, err := svc.AddItem(owner, 10, 1)
	require.NoError(t, err)

	cart, err := svc.UpdateItem(owner, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 13500, cart.TotalAmount)

	_, err = svc.UpdateItem(owner, 10, 6)
	assert.ErrorIs(t, err, ErrOutOfStock)

	// нулевое количество удаляет позицию
	cart, err = svc.UpdateItem(owner, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.TotalAmount)

	_, err = svc.UpdateItem(owner, 10, 1)
	assert.ErrorIs(t, err, ErrCartItemMissing)
}

func TestCartRemoveAndClear(t *testing.T) {
	svc, _, _ := newCartFixture()
	owner := CartOwner{UserID: 1}

	_, err := svc.AddItem(owner, 10, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(owner, 20, 1)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(owner, 10)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 12000, cart.TotalAmount)

	_, err = svc.RemoveItem(owner, 10)
	assert.ErrorIs(t, err, ErrCartItemMissing)

	require.NoError(t, svc.Clear(owner))
	cart, err = svc.GetCart(owner)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.TotalAmount)
}

func TestGuestCartIsSeparate(t *testing.T) {
	svc, _, _ := newCartFixture()

	_, err := svc.AddItem(CartOwner{SessionID: "guest-1"}, 10, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(CartOwner{SessionID: "guest-2"}, 20, 1)
	require.NoError(t, err)

	c1, err := svc.GetCart(CartOwner{SessionID: "guest-1"})
	require.NoError(t, err)
	c2, err := svc.GetCart(CartOwner{SessionID: "guest-2"})
	require.NoError(t, err)
	assert.Equal(t, 4500, c1.TotalAmount)
	assert.Equal(t, 12000, c2.TotalAmount)

	_, err = svc.GetCart(CartOwner{})
	assert.Error(t, err)
}
