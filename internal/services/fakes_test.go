package services

import (
	"fmt"
	"strings"
	"time"

	"kammalabel/internal/models"
	"kammalabel/internal/pdf"
)

// In-memory реализации репозиториев для тестов сервисов.

type fakeVerificationRepo struct {
	seq   int64
	codes []*models.VerificationCode
}

func (r *fakeVerificationRepo) CreateReplacingActive(v *models.VerificationCode) error {
	for _, c := range r.codes {
		if c.UserID == v.UserID && c.Purpose == v.Purpose && c.IsActive {
			c.IsActive = false
		}
	}
	r.seq++
	v.ID = r.seq
	v.IsActive = true
	cp := *v
	r.codes = append(r.codes, &cp)
	return nil
}

func (r *fakeVerificationRepo) GetActiveByKey(purpose, key string) (*models.VerificationCode, error) {
	for _, c := range r.codes {
		if c.Purpose == purpose && c.Key == key && c.IsActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeVerificationRepo) IncrementAttempts(id int64) (int, error) {
	for _, c := range r.codes {
		if c.ID == id {
			c.Attempts++
			return c.Attempts, nil
		}
	}
	return 0, fmt.Errorf("code %d not found", id)
}

func (r *fakeVerificationRepo) Deactivate(id int64) error {
	for _, c := range r.codes {
		if c.ID == id {
			c.IsActive = false
			return nil
		}
	}
	return fmt.Errorf("code %d not found", id)
}

func (r *fakeVerificationRepo) CountRecentSends(userID int, purpose string, since time.Time) (int, error) {
	n := 0
	for _, c := range r.codes {
		if c.UserID == userID && c.Purpose == purpose && !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeVerificationRepo) activeFor(userID int, purpose string) []*models.VerificationCode {
	var out []*models.VerificationCode
	for _, c := range r.codes {
		if c.UserID == userID && c.Purpose == purpose && c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

type fakeUserRepo struct {
	seq   int
	users []*models.User
}

func (r *fakeUserRepo) add(u *models.User) *models.User {
	if u.ID == 0 {
		r.seq++
		u.ID = r.seq
	} else if u.ID > r.seq {
		r.seq = u.ID
	}
	r.users = append(r.users, u)
	return u
}

func (r *fakeUserRepo) Create(u *models.User) error {
	r.add(u)
	u.CreatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) GetByID(id int) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByPhone(phone string) (*models.User, error) {
	for _, u := range r.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(user *models.User) error {
	for i, u := range r.users {
		if u.ID == user.ID {
			r.users[i] = user
			return nil
		}
	}
	return fmt.Errorf("user %d not found", user.ID)
}

func (r *fakeUserRepo) SetPassword(userID int, hash string) error {
	for _, u := range r.users {
		if u.ID == userID {
			u.PasswordHash = hash
			return nil
		}
	}
	return fmt.Errorf("user %d not found", userID)
}

func (r *fakeUserRepo) Activate(userID int) error {
	for _, u := range r.users {
		if u.ID == userID {
			u.IsActive = true
			return nil
		}
	}
	return fmt.Errorf("user %d not found", userID)
}

func (r *fakeUserRepo) MarkEmailVerified(userID int, email string) error {
	for _, u := range r.users {
		if u.ID == userID {
			u.Email = email
			u.VerifiedEmail = true
			return nil
		}
	}
	return fmt.Errorf("user %d not found", userID)
}

func (r *fakeUserRepo) MarkPhoneVerified(userID int, phone string) error {
	for _, u := range r.users {
		if u.ID == userID {
			u.Phone = phone
			u.VerifiedPhone = true
			return nil
		}
	}
	return fmt.Errorf("user %d not found", userID)
}

func (r *fakeUserRepo) EmailTaken(email string, excludeUserID int) (bool, error) {
	for _, u := range r.users {
		if u.ID != excludeUserID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) PhoneTaken(phone string, excludeUserID int) (bool, error) {
	for _, u := range r.users {
		if u.ID != excludeUserID && u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

type fakeTokenRepo struct {
	seq    int64
	tokens []*models.SessionToken
}

func (r *fakeTokenRepo) Create(t *models.SessionToken) error {
	r.seq++
	t.ID = r.seq
	t.IsActive = true
	r.tokens = append(r.tokens, t)
	return nil
}

func (r *fakeTokenRepo) GetByToken(token string) (*models.SessionToken, error) {
	for _, t := range r.tokens {
		if t.Token == token {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTokenRepo) Deactivate(token string) error {
	for _, t := range r.tokens {
		if t.Token == token {
			t.IsActive = false
			return nil
		}
	}
	return fmt.Errorf("token not found")
}

func (r *fakeTokenRepo) DeactivateTemporary(userID int) error {
	for _, t := range r.tokens {
		if t.UserID == userID && t.IsTemporary {
			t.IsActive = false
		}
	}
	return nil
}

func (r *fakeTokenRepo) DeactivateAll(userID int) error {
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.IsActive = false
		}
	}
	return nil
}

func (r *fakeTokenRepo) active(userID int) []*models.SessionToken {
	var out []*models.SessionToken
	for _, t := range r.tokens {
		if t.UserID == userID && t.IsActive {
			out = append(out, t)
		}
	}
	return out
}

// fakeDispatcher пишет отправки в журнал; fail включает сбой доставки.
type fakeDispatcher struct {
	fail bool
	sent []sentCode
}

type sentCode struct {
	Channel  string
	Receiver string
	Code     string
}

func (d *fakeDispatcher) Send(channel, receiver, code string, ttlSeconds int) error {
	if d.fail {
		return fmt.Errorf("smtp unreachable")
	}
	d.sent = append(d.sent, sentCode{Channel: channel, Receiver: receiver, Code: code})
	return nil
}

func (d *fakeDispatcher) lastCode() string {
	if len(d.sent) == 0 {
		return ""
	}
	return d.sent[len(d.sent)-1].Code
}

type fakeEmailService struct {
	welcomes []string
}

func (f *fakeEmailService) SendCodeEmail(email, code string, ttlSeconds int) error { return nil }
func (f *fakeEmailService) SendWelcomeEmail(email, name string) error {
	f.welcomes = append(f.welcomes, email)
	return nil
}

type fakeCartRepo struct {
	itemSeq int64
	cartSeq int64
	carts   []*models.Cart
	items   []*models.CartItem

	// каталог для подстановки Instance в GetItems, как делает JOIN в SQL
	catalog *fakeCatalogRepo
}

func (r *fakeCartRepo) GetOrCreateByUser(userID int) (*models.Cart, error) {
	for _, c := range r.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	r.cartSeq++
	c := &models.Cart{ID: r.cartSeq, UserID: userID, CreatedAt: time.Now()}
	r.carts = append(r.carts, c)
	return c, nil
}

func (r *fakeCartRepo) GetOrCreateBySession(sessionID string) (*models.Cart, error) {
	for _, c := range r.carts {
		if c.SessionID == sessionID {
			return c, nil
		}
	}
	r.cartSeq++
	c := &models.Cart{ID: r.cartSeq, SessionID: sessionID, CreatedAt: time.Now()}
	r.carts = append(r.carts, c)
	return c, nil
}

func (r *fakeCartRepo) GetItems(cartID int64) ([]*models.CartItem, error) {
	var out []*models.CartItem
	for _, it := range r.items {
		if it.CartID == cartID {
			if r.catalog != nil && it.Instance == nil {
				it.Instance = r.catalog.instances[it.InstanceID]
			}
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *fakeCartRepo) GetItemByInstance(cartID int64, instanceID int) (*models.CartItem, error) {
	for _, it := range r.items {
		if it.CartID == cartID && it.InstanceID == instanceID {
			return it, nil
		}
	}
	return nil, nil
}

func (r *fakeCartRepo) InsertItem(item *models.CartItem) error {
	r.itemSeq++
	item.ID = r.itemSeq
	r.items = append(r.items, item)
	return nil
}

func (r *fakeCartRepo) UpdateItem(item *models.CartItem) error {
	for i, it := range r.items {
		if it.ID == item.ID {
			r.items[i] = item
			return nil
		}
	}
	return fmt.Errorf("cart item %d not found", item.ID)
}

func (r *fakeCartRepo) DeleteItem(id int64) error {
	for i, it := range r.items {
		if it.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("cart item %d not found", id)
}

func (r *fakeCartRepo) Clear(cartID int64) error {
	var keep []*models.CartItem
	for _, it := range r.items {
		if it.CartID != cartID {
			keep = append(keep, it)
		}
	}
	r.items = keep
	for _, c := range r.carts {
		if c.ID == cartID {
			c.TotalAmount = 0
		}
	}
	return nil
}

func (r *fakeCartRepo) UpdateTotal(cartID int64, total int) error {
	for _, c := range r.carts {
		if c.ID == cartID {
			c.TotalAmount = total
			return nil
		}
	}
	return fmt.Errorf("cart %d not found", cartID)
}

type fakeCatalogRepo struct {
	instances map[int]*models.ProductInstance
}

func (r *fakeCatalogRepo) ListCategories() ([]*models.Category, error)      { return nil, nil }
func (r *fakeCatalogRepo) GetCategory(id int) (*models.Category, error)     { return nil, nil }
func (r *fakeCatalogRepo) ListColors(ids []int) ([]*models.Color, error)    { return nil, nil }
func (r *fakeCatalogRepo) ListMaterials(ids []int) ([]*models.Material, error) {
	return nil, nil
}
func (r *fakeCatalogRepo) PriceRange(categoryID int) (models.PriceRange, error) {
	return models.PriceRange{}, nil
}
func (r *fakeCatalogRepo) ListProducts(filter models.ProductFilter) ([]*models.Product, error) {
	return nil, nil
}
func (r *fakeCatalogRepo) GetProduct(id int) (*models.Product, error) { return nil, nil }

func (r *fakeCatalogRepo) GetInstance(id int) (*models.ProductInstance, error) {
	inst, ok := r.instances[id]
	if !ok {
		return nil, nil
	}
	return inst, nil
}

func (r *fakeCatalogRepo) DecrementStock(instanceID, count int) error {
	inst, ok := r.instances[instanceID]
	if !ok || inst.Stock < count {
		return fmt.Errorf("decrement stock: insufficient stock for instance %d", instanceID)
	}
	inst.Stock -= count
	return nil
}

type fakeOrderRepo struct {
	orderSeq   int64
	paySeq     int64
	orders     []*models.Order
	payments   []*models.Payment
	daySerials map[string]int
}

func (r *fakeOrderRepo) CreateWithItems(order *models.Order) error {
	r.orderSeq++
	order.ID = r.orderSeq
	for _, it := range order.Items {
		it.OrderID = order.ID
	}
	r.orders = append(r.orders, order)
	return nil
}

func (r *fakeOrderRepo) GetByID(id int64) (*models.Order, error) {
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) ListByUser(userID int) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) StatsByUser(userID int) (int, int, error) {
	count, total := 0, 0
	for _, o := range r.orders {
		if o.UserID != userID {
			continue
		}
		switch o.Status {
		case models.OrderPaid, models.OrderShipped, models.OrderCompleted:
			count++
			total += o.TotalAmount
		}
	}
	return count, total, nil
}

func (r *fakeOrderRepo) UpdateStatus(orderID int64, status int) error {
	for _, o := range r.orders {
		if o.ID == orderID {
			o.Status = status
			return nil
		}
	}
	return fmt.Errorf("order %d not found", orderID)
}

func (r *fakeOrderRepo) NextSequence(day time.Time) (int, error) {
	if r.daySerials == nil {
		r.daySerials = map[string]int{}
	}
	k := day.Format("20060102")
	r.daySerials[k]++
	return r.daySerials[k], nil
}

func (r *fakeOrderRepo) CreatePayment(p *models.Payment) error {
	r.paySeq++
	p.ID = r.paySeq
	r.payments = append(r.payments, p)
	return nil
}

func (r *fakeOrderRepo) GetPaymentByOrder(orderID int64) (*models.Payment, error) {
	for _, p := range r.payments {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) UpdatePaymentStatus(paymentID int64, status int) error {
	for _, p := range r.payments {
		if p.ID == paymentID {
			p.Status = status
			return nil
		}
	}
	return fmt.Errorf("payment %d not found", paymentID)
}

type fakeAddressRepo struct {
	seq   int
	addrs []*models.Address
}

func (r *fakeAddressRepo) Create(a *models.Address) error {
	r.seq++
	a.ID = r.seq
	r.addrs = append(r.addrs, a)
	return nil
}

func (r *fakeAddressRepo) GetByID(id int) (*models.Address, error) {
	for _, a := range r.addrs {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAddressRepo) ListByUser(userID int) ([]*models.Address, error) {
	var out []*models.Address
	for _, a := range r.addrs {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAddressRepo) GetDefault(userID int) (*models.Address, error) {
	for _, a := range r.addrs {
		if a.UserID == userID && a.IsDefault {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAddressRepo) Update(a *models.Address) error { return nil }
func (r *fakeAddressRepo) Delete(id int) error            { return nil }

type fakeReceiptGen struct {
	generated []pdf.ReceiptData
}

func (g *fakeReceiptGen) GenerateReceipt(data pdf.ReceiptData) (string, error) {
	g.generated = append(g.generated, data)
	return "/tmp/receipt_" + data.OrderNumber + ".pdf", nil
}

type fakeNotifier struct {
	paid []string
}

func (n *fakeNotifier) NotifyOrderPaid(order *models.Order, user *models.User) error {
	n.paid = append(n.paid, order.Number)
	return nil
}
