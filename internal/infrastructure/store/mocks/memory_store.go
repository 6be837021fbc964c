package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/payment"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/infrastructure/store"
)

// MemoryStore is an in-memory implementation of store.Store for testing.
// Transactions are serialized and rolled back by restoring a snapshot.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data memoryData

	// FailOn makes the named method (e.g. "UpdateOrder") return the error.
	FailOn map[string]error

	// For tracking calls in tests
	Calls     []string
	Commits   int
	Rollbacks int
}

type memoryData struct {
	users        map[string]user.User
	products     map[string]product.Product
	carts        map[string][]cart.Line
	orders       map[string]order.Order
	payments     []payment.Record
	outbox       []store.OutboxMessage
	nextOutboxID int64
}

var _ store.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: memoryData{
			users:    make(map[string]user.User),
			products: make(map[string]product.Product),
			carts:    make(map[string][]cart.Line),
			orders:   make(map[string]order.Order),
		},
		FailOn: make(map[string]error),
	}
}

func (d memoryData) clone() memoryData {
	c := memoryData{
		users:        make(map[string]user.User, len(d.users)),
		products:     make(map[string]product.Product, len(d.products)),
		carts:        make(map[string][]cart.Line, len(d.carts)),
		orders:       make(map[string]order.Order, len(d.orders)),
		payments:     append([]payment.Record(nil), d.payments...),
		outbox:       append([]store.OutboxMessage(nil), d.outbox...),
		nextOutboxID: d.nextOutboxID,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.carts {
		c.carts[k] = append([]cart.Line(nil), v...)
	}
	for k, v := range d.orders {
		c.orders[k] = cloneOrder(v)
	}
	return c
}

func cloneOrder(o order.Order) order.Order {
	o.Items = append([]order.OrderItem(nil), o.Items...)
	return o
}

// record notes the call and returns any injected failure. Caller holds mu.
func (m *MemoryStore) record(name string) error {
	m.Calls = append(m.Calls, name)
	return m.FailOn[name]
}

func (m *MemoryStore) WithTx(ctx context.Context, fn func(tx store.Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	if err := m.record("WithTx"); err != nil {
		m.mu.Unlock()
		return err
	}
	snapshot := m.data.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.data = snapshot
		m.Rollbacks++
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.Commits++
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("Ping")
}

// Order operations

func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetOrder"); err != nil {
		return nil, err
	}
	return m.getOrder(id)
}

func (m *MemoryStore) GetOrderForUpdate(ctx context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetOrderForUpdate"); err != nil {
		return nil, err
	}
	return m.getOrder(id)
}

func (m *MemoryStore) getOrder(id string) (*order.Order, error) {
	o, ok := m.data.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (m *MemoryStore) ListOrdersByUser(ctx context.Context, userID string) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListOrdersByUser"); err != nil {
		return nil, err
	}
	out := []order.Order{}
	for _, o := range m.data.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ListOrders(ctx context.Context, status order.Status) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListOrders"); err != nil {
		return nil, err
	}
	out := []order.Order{}
	for _, o := range m.data.orders {
		if status == "" || o.Status == status {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) InsertOrder(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("InsertOrder"); err != nil {
		return err
	}
	if _, exists := m.data.orders[o.ID]; exists {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	m.data.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (m *MemoryStore) UpdateOrder(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateOrder"); err != nil {
		return err
	}
	current, ok := m.data.orders[o.ID]
	if !ok {
		return order.ErrOrderNotFound
	}
	updated := cloneOrder(*o)
	updated.Items = current.Items
	updated.Total = current.Total
	m.data.orders[o.ID] = updated
	return nil
}

// Product operations

func (m *MemoryStore) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetProduct"); err != nil {
		return nil, err
	}
	p, ok := m.data.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &p, nil
}

func (m *MemoryStore) GetProductForUpdate(ctx context.Context, id string) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetProductForUpdate"); err != nil {
		return nil, err
	}
	p, ok := m.data.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &p, nil
}

func (m *MemoryStore) GetProducts(ctx context.Context, ids []string) (map[string]product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetProducts"); err != nil {
		return nil, err
	}
	out := make(map[string]product.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.data.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *MemoryStore) SearchProducts(ctx context.Context, params product.SearchParams) ([]product.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SearchProducts"); err != nil {
		return nil, 0, err
	}
	params = params.Normalize()
	q := strings.ToLower(params.Query)

	var matched []product.Product
	for _, p := range m.data.products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		if params.Category != "" && p.Category != params.Category {
			continue
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch params.Sort {
		case product.SortPriceAsc:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case product.SortPriceDesc:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
		case product.SortName:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})

	total := len(matched)
	page := []product.Product{}
	if params.Offset < total {
		end := params.Offset + params.Limit
		if end > total {
			end = total
		}
		page = append(page, matched[params.Offset:end]...)
	}
	return page, total, nil
}

func (m *MemoryStore) InsertProduct(ctx context.Context, p *product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("InsertProduct"); err != nil {
		return err
	}
	m.data.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) AdjustStock(ctx context.Context, productID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("AdjustStock"); err != nil {
		return err
	}
	p, ok := m.data.products[productID]
	if !ok {
		return product.ErrProductNotFound
	}
	if p.Stock+delta < 0 {
		return fmt.Errorf("%w: product %s", product.ErrInsufficientStock, productID)
	}
	p.Stock += delta
	m.data.products[productID] = p
	return nil
}

// Payment ledger

func (m *MemoryStore) InsertPaymentRecord(ctx context.Context, rec payment.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("InsertPaymentRecord"); err != nil {
		return err
	}
	m.data.payments = append(m.data.payments, rec)
	return nil
}

func (m *MemoryStore) ListPaymentRecords(ctx context.Context, orderID string) ([]payment.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListPaymentRecords"); err != nil {
		return nil, err
	}
	return m.paymentRecords(orderID), nil
}

func (m *MemoryStore) paymentRecords(orderID string) []payment.Record {
	out := []payment.Record{}
	for _, rec := range m.data.payments {
		if rec.OrderID == orderID {
			out = append(out, rec)
		}
	}
	return out
}

// Cart operations

func (m *MemoryStore) GetCartLines(ctx context.Context, userID string) ([]cart.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetCartLines"); err != nil {
		return nil, err
	}
	return append([]cart.Line{}, m.data.carts[userID]...), nil
}

func (m *MemoryStore) SetCartLine(ctx context.Context, userID string, line cart.Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SetCartLine"); err != nil {
		return err
	}
	lines := m.data.carts[userID]
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i].Quantity = line.Quantity
			return nil
		}
	}
	m.data.carts[userID] = append(lines, line)
	return nil
}

func (m *MemoryStore) DeleteCartLine(ctx context.Context, userID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteCartLine"); err != nil {
		return err
	}
	lines := m.data.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			m.data.carts[userID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return cart.ErrItemNotFound
}

func (m *MemoryStore) ClearCart(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ClearCart"); err != nil {
		return err
	}
	delete(m.data.carts, userID)
	return nil
}

// User operations

func (m *MemoryStore) InsertUser(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("InsertUser"); err != nil {
		return err
	}
	for _, existing := range m.data.users {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	m.data.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := m.data.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetUserByEmail"); err != nil {
		return nil, err
	}
	email = user.NormalizeEmail(email)
	for _, u := range m.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *MemoryStore) UpdateUserPassword(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateUserPassword"); err != nil {
		return err
	}
	existing, ok := m.data.users[u.ID]
	if !ok {
		return user.ErrUserNotFound
	}
	existing.PasswordHash = u.PasswordHash
	existing.PasswordChangedAt = u.PasswordChangedAt
	m.data.users[u.ID] = existing
	return nil
}

// Outbox operations

func (m *MemoryStore) InsertOutbox(ctx context.Context, msg store.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("InsertOutbox"); err != nil {
		return err
	}
	m.data.nextOutboxID++
	msg.ID = m.data.nextOutboxID
	m.data.outbox = append(m.data.outbox, msg)
	return nil
}

func (m *MemoryStore) FetchPendingOutbox(ctx context.Context, limit int) ([]store.OutboxMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("FetchPendingOutbox"); err != nil {
		return nil, err
	}
	var out []store.OutboxMessage
	for _, msg := range m.data.outbox {
		if msg.SentAt == nil && len(out) < limit {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *MemoryStore) MarkOutboxSent(ctx context.Context, ids []int64, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("MarkOutboxSent"); err != nil {
		return err
	}
	marked := make(map[int64]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	for i := range m.data.outbox {
		if marked[m.data.outbox[i].ID] {
			at := sentAt
			m.data.outbox[i].SentAt = &at
		}
	}
	return nil
}

// ============================================
// Test helpers
// ============================================

func (m *MemoryStore) SeedUser(u user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.users[u.ID] = u
}

func (m *MemoryStore) SeedProduct(p product.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.products[p.ID] = p
}

func (m *MemoryStore) SeedOrder(o order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.orders[o.ID] = cloneOrder(o)
}

func (m *MemoryStore) SeedCart(userID string, lines ...cart.Line) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.carts[userID] = append([]cart.Line(nil), lines...)
}

// Order returns the stored order, or nil.
func (m *MemoryStore) Order(id string) *order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.getOrder(id)
	if err != nil {
		return nil
	}
	return o
}

// Stock returns the stored stock of a product, or -1 if unknown.
func (m *MemoryStore) Stock(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data.products[productID]
	if !ok {
		return -1
	}
	return p.Stock
}

func (m *MemoryStore) PaymentRecords(orderID string) []payment.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paymentRecords(orderID)
}

func (m *MemoryStore) CartLines(userID string) []cart.Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]cart.Line{}, m.data.carts[userID]...)
}

func (m *MemoryStore) Outbox() []store.OutboxMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.OutboxMessage{}, m.data.outbox...)
}

// CallCount returns how many times the named method was called.
func (m *MemoryStore) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

// Fail injects err for the named method.
func (m *MemoryStore) Fail(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailOn[method] = err
}
