package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"github.com/bagstore/storefront/internal/blob"
	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/repository"
)

var errUnsupported = errors.New("raw queries are not supported by the in-memory store")

type cartRow struct {
	UserID    int64
	ProductID int64
	Quantity  int
}

type memState struct {
	nextID      int64
	users       map[int64]repository.User
	products    map[int64]repository.Product
	cart        []cartRow
	orders      map[int64]repository.Order
	items       map[int64]repository.OrderItem
	returns     map[int64]repository.OrderReturn
	returnItems []repository.OrderReturnItem
	images      []repository.OrderReturnImage
	activities  []repository.AdminActivity
	sequences   map[string]int
	outbox      []repository.OutboxTask
}

func (st memState) clone() memState {
	cp := st
	cp.users = maps.Clone(st.users)
	cp.products = maps.Clone(st.products)
	cp.cart = slices.Clone(st.cart)
	cp.orders = maps.Clone(st.orders)
	cp.items = maps.Clone(st.items)
	cp.returns = maps.Clone(st.returns)
	cp.returnItems = slices.Clone(st.returnItems)
	cp.images = slices.Clone(st.images)
	cp.activities = slices.Clone(st.activities)
	cp.sequences = maps.Clone(st.sequences)
	cp.outbox = slices.Clone(st.outbox)
	return cp
}

// memStore is a transactional in-memory database. An open transaction
// holds txMu until it commits or rolls back, which serialises writers the
// way row locks do; rollback restores the snapshot taken at begin.
type memStore struct {
	txMu sync.Mutex

	mu       sync.Mutex
	st       memState
	failures map[string][]error
	begins   int
}

func newMemStore() *memStore {
	return &memStore{
		st: memState{
			users:     map[int64]repository.User{},
			products:  map[int64]repository.Product{},
			orders:    map[int64]repository.Order{},
			items:     map[int64]repository.OrderItem{},
			returns:   map[int64]repository.OrderReturn{},
			sequences: map[string]int{},
		},
		failures: map[string][]error{},
	}
}

// failNext makes the next call of op return err.
func (s *memStore) failNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], err)
}

func (s *memStore) hook(op string) error {
	queue := s.failures[op]
	if len(queue) == 0 {
		return nil
	}
	s.failures[op] = queue[1:]
	return queue[0]
}

func (s *memStore) id() int64 {
	s.st.nextID++
	return s.st.nextID
}

func (s *memStore) repos() Repositories {
	return Repositories{
		Users:      memUsers{s},
		Products:   memProducts{s},
		Carts:      memCarts{s},
		Orders:     memOrders{s},
		OrderItems: memOrderItems{s},
		Returns:    memReturns{s},
		Activities: memActivities{s},
		Sequences:  memSequences{s},
		Outbox:     memOutbox{s},
	}
}

func (s *memStore) Get(context.Context, interface{}, string, ...interface{}) error {
	return errUnsupported
}

func (s *memStore) Select(context.Context, interface{}, string, ...interface{}) error {
	return errUnsupported
}

func (s *memStore) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return nil, errUnsupported
}

func (s *memStore) ExecQueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

func (s *memStore) BeginTx(context.Context) (db.Tx, error) {
	s.txMu.Lock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins++
	if err := s.hook("begin"); err != nil {
		s.txMu.Unlock()
		return nil, err
	}
	return &memTx{s: s, snapshot: s.st.clone()}, nil
}

type memTx struct {
	s        *memStore
	snapshot memState
	done     bool
}

func (t *memTx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.s.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.s.mu.Lock()
	t.s.st = t.snapshot
	t.s.mu.Unlock()
	t.s.txMu.Unlock()
	return nil
}

func (t *memTx) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return nil, errUnsupported
}

func (t *memTx) Get(context.Context, interface{}, string, ...interface{}) error {
	return errUnsupported
}

func (t *memTx) Select(context.Context, interface{}, string, ...interface{}) error {
	return errUnsupported
}

func (t *memTx) ExecQueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

type memUsers struct{ s *memStore }

func (r memUsers) GetByID(_ context.Context, id int64) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &u, nil
}

func (r memUsers) ListByRole(_ context.Context, role string) ([]*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*repository.User
	for _, id := range slices.Sorted(maps.Keys(r.s.st.users)) {
		if u := r.s.st.users[id]; u.Role == role {
			out = append(out, &u)
		}
	}
	return out, nil
}

type memProducts struct{ s *memStore }

func (r memProducts) GetByID(_ context.Context, id int64) (*repository.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.products[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &p, nil
}

func (r memProducts) LockForUpdateTx(_ context.Context, _ db.Tx, ids []int64) ([]*repository.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hook("lock_products"); err != nil {
		return nil, err
	}
	sorted := slices.Sorted(slices.Values(ids))
	var out []*repository.Product
	for _, id := range sorted {
		if p, ok := r.s.st.products[id]; ok {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r memProducts) DecrementStockTx(_ context.Context, _ db.Tx, id int64, qty int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hook("decrement_stock"); err != nil {
		return false, err
	}
	p, ok := r.s.st.products[id]
	if !ok || p.StockQuantity < qty {
		return false, nil
	}
	p.StockQuantity -= qty
	r.s.st.products[id] = p
	return true, nil
}

func (r memProducts) IncrementStockTx(_ context.Context, _ db.Tx, id int64, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.products[id]
	if !ok {
		return repository.ErrObjectNotFound
	}
	p.StockQuantity += qty
	r.s.st.products[id] = p
	return nil
}

type memCarts struct{ s *memStore }

func (r memCarts) Lines(_ context.Context, userID int64) ([]*repository.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*repository.CartLine
	for i, row := range r.s.st.cart {
		if row.UserID != userID {
			continue
		}
		p := r.s.st.products[row.ProductID]
		out = append(out, &repository.CartLine{
			ID:            int64(i + 1),
			UserID:        row.UserID,
			ProductID:     row.ProductID,
			Quantity:      row.Quantity,
			ProductName:   p.Name,
			ProductPrice:  p.Price,
			StockQuantity: p.StockQuantity,
			IsActive:      p.IsActive,
		})
	}
	return out, nil
}

func (r memCarts) LinesTx(ctx context.Context, _ db.Tx, userID int64) ([]*repository.CartLine, error) {
	return r.Lines(ctx, userID)
}

func (r memCarts) AddItem(_ context.Context, userID, productID int64, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, row := range r.s.st.cart {
		if row.UserID == userID && row.ProductID == productID {
			r.s.st.cart[i].Quantity += qty
			return nil
		}
	}
	r.s.st.cart = append(r.s.st.cart, cartRow{UserID: userID, ProductID: productID, Quantity: qty})
	return nil
}

func (r memCarts) ClearTx(_ context.Context, _ db.Tx, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.st.cart = slices.DeleteFunc(r.s.st.cart, func(row cartRow) bool { return row.UserID == userID })
	return nil
}

type memOrders struct{ s *memStore }

func (r memOrders) CreateTx(_ context.Context, _ db.Tx, o *repository.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.orders {
		if existing.OrderNumber == o.OrderNumber {
			return &pgconn.PgError{Code: "23505", Message: "duplicate order_number"}
		}
	}
	o.ID = r.s.id()
	r.s.st.orders[o.ID] = *o
	return nil
}

func (r memOrders) GetByID(_ context.Context, id int64) (*repository.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.st.orders[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &o, nil
}

func (r memOrders) byNumber(number string) (*repository.Order, error) {
	for _, o := range r.s.st.orders {
		if o.OrderNumber == number {
			return &o, nil
		}
	}
	return nil, repository.ErrObjectNotFound
}

func (r memOrders) GetByNumber(_ context.Context, number string) (*repository.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.byNumber(number)
}

func (r memOrders) GetByNumberForUpdateTx(_ context.Context, _ db.Tx, number string) (*repository.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hook("lock_order"); err != nil {
		return nil, err
	}
	return r.byNumber(number)
}

func (r memOrders) GetByIDForUpdateTx(ctx context.Context, _ db.Tx, id int64) (*repository.Order, error) {
	return r.GetByID(ctx, id)
}

func (r memOrders) update(id int64, fn func(o *repository.Order)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.st.orders[id]
	if !ok {
		return repository.ErrObjectNotFound
	}
	fn(&o)
	r.s.st.orders[id] = o
	return nil
}

func (r memOrders) UpdateStatusTx(_ context.Context, _ db.Tx, id int64, status string, adminID int64, at time.Time) error {
	return r.update(id, func(o *repository.Order) {
		o.Status = status
		o.UpdatedByAdminID = &adminID
		o.StatusChangedAt = &at
		o.UpdatedAt = at
	})
}

func (r memOrders) SetReturnDeadlineTx(_ context.Context, _ db.Tx, id int64, deadline time.Time) error {
	return r.update(id, func(o *repository.Order) {
		if o.ReturnDeadline == nil {
			o.ReturnDeadline = &deadline
		}
	})
}

func (r memOrders) SetHasReturnTx(_ context.Context, _ db.Tx, id int64, hasReturn bool, at time.Time) error {
	return r.update(id, func(o *repository.Order) {
		o.HasReturn = hasReturn
		o.UpdatedAt = at
	})
}

type memOrderItems struct{ s *memStore }

func (r memOrderItems) CreateTx(_ context.Context, _ db.Tx, it *repository.OrderItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it.ID = r.s.id()
	r.s.st.items[it.ID] = *it
	return nil
}

func (r memOrderItems) ListByOrderID(_ context.Context, orderID int64) ([]*repository.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*repository.OrderItem
	for _, id := range slices.Sorted(maps.Keys(r.s.st.items)) {
		if it := r.s.st.items[id]; it.OrderID == orderID {
			out = append(out, &it)
		}
	}
	return out, nil
}

func (r memOrderItems) ListByOrderIDTx(ctx context.Context, _ db.Tx, orderID int64) ([]*repository.OrderItem, error) {
	return r.ListByOrderID(ctx, orderID)
}

type memReturns struct{ s *memStore }

func (r memReturns) CreateTx(_ context.Context, _ db.Tx, ret *repository.OrderReturn) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.returns {
		if existing.ReturnNumber == ret.ReturnNumber {
			return &pgconn.PgError{Code: "23505", Message: "duplicate return_number"}
		}
	}
	ret.ID = r.s.id()
	r.s.st.returns[ret.ID] = *ret
	return nil
}

func (r memReturns) CreateItemTx(_ context.Context, _ db.Tx, it *repository.OrderReturnItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it.ID = r.s.id()
	r.s.st.returnItems = append(r.s.st.returnItems, *it)
	return nil
}

func (r memReturns) CreateImageTx(_ context.Context, _ db.Tx, img *repository.OrderReturnImage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hook("create_image"); err != nil {
		return err
	}
	img.ID = r.s.id()
	r.s.st.images = append(r.s.st.images, *img)
	return nil
}

func (r memReturns) GetByNumber(_ context.Context, number string) (*repository.OrderReturn, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ret := range r.s.st.returns {
		if ret.ReturnNumber == number {
			return &ret, nil
		}
	}
	return nil, repository.ErrObjectNotFound
}

func (r memReturns) GetByNumberForUpdateTx(ctx context.Context, _ db.Tx, number string) (*repository.OrderReturn, error) {
	return r.GetByNumber(ctx, number)
}

func (r memReturns) UpdateStatusTx(_ context.Context, _ db.Tx, ret *repository.OrderReturn) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.returns[ret.ID]; !ok {
		return repository.ErrObjectNotFound
	}
	r.s.st.returns[ret.ID] = *ret
	return nil
}

func (r memReturns) LinesByReturnID(_ context.Context, returnID int64) ([]*repository.ReturnLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*repository.ReturnLine
	for _, ri := range r.s.st.returnItems {
		if ri.OrderReturnID != returnID {
			continue
		}
		it := r.s.st.items[ri.OrderItemID]
		out = append(out, &repository.ReturnLine{
			OrderItemID:   ri.OrderItemID,
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			Quantity:      ri.Quantity,
			RefundAmount:  ri.RefundAmount,
			ItemCondition: ri.ItemCondition,
		})
	}
	return out, nil
}

func (r memReturns) ImagesByReturnID(_ context.Context, returnID int64) ([]*repository.OrderReturnImage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*repository.OrderReturnImage
	for _, img := range r.s.st.images {
		if img.OrderReturnID == returnID {
			out = append(out, &img)
		}
	}
	return out, nil
}

func (r memReturns) ClaimedQuantitiesTx(_ context.Context, _ db.Tx, orderID int64) (map[int64]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[int64]int{}
	for _, ri := range r.s.st.returnItems {
		ret := r.s.st.returns[ri.OrderReturnID]
		if ret.OrderID == orderID && ReturnStatus(ret.Status).Active() {
			out[ri.OrderItemID] += ri.Quantity
		}
	}
	return out, nil
}

func (r memReturns) RestockLinesTx(_ context.Context, _ db.Tx, returnID int64) ([]repository.StockLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byProduct := map[int64]int{}
	for _, ri := range r.s.st.returnItems {
		if ri.OrderReturnID == returnID {
			byProduct[r.s.st.items[ri.OrderItemID].ProductID] += ri.Quantity
		}
	}
	var out []repository.StockLine
	for _, id := range slices.Sorted(maps.Keys(byProduct)) {
		out = append(out, repository.StockLine{ProductID: id, Quantity: byProduct[id]})
	}
	return out, nil
}

type memActivities struct{ s *memStore }

func (r memActivities) CreateTx(_ context.Context, _ db.Tx, a *repository.AdminActivity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hook("create_activity"); err != nil {
		return err
	}
	a.ID = r.s.id()
	r.s.st.activities = append(r.s.st.activities, *a)
	return nil
}

func (r memActivities) ListByEntity(_ context.Context, entityType string, entityID int64) ([]*repository.AdminActivity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*repository.AdminActivity
	for _, a := range r.s.st.activities {
		if a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, &a)
		}
	}
	return out, nil
}

func (r memActivities) ListBetween(_ context.Context, from, to time.Time) ([]*repository.AdminActivity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*repository.AdminActivity
	for _, a := range r.s.st.activities {
		if !a.CreatedAt.Before(from) && a.CreatedAt.Before(to) {
			out = append(out, &a)
		}
	}
	return out, nil
}

func (r memActivities) SummarySince(_ context.Context, adminID int64, since time.Time) (*repository.ActivitySummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := &repository.ActivitySummary{RevenueCollected: decimal.Zero}
	for _, a := range r.s.st.activities {
		if a.AdminID != adminID || a.CreatedAt.Before(since) {
			continue
		}
		sum.TotalActions++
		if a.EntityType == EntityOrder {
			sum.OrdersUpdated++
		}
		if a.Action == string(ActionRevenueCollected) {
			p, err := DecodePayload(ActionRevenueCollected, a.Metadata)
			if err != nil {
				return nil, err
			}
			amount, err := decimal.NewFromString(p.(*RevenueCollected).Amount)
			if err != nil {
				return nil, err
			}
			sum.RevenueCollected = sum.RevenueCollected.Add(amount)
		}
	}
	return sum, nil
}

type memSequences struct{ s *memStore }

func (r memSequences) NextTx(_ context.Context, _ db.Tx, prefix string, day time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := prefix + day.Format("2006-01-02")
	r.s.st.sequences[key]++
	return r.s.st.sequences[key], nil
}

type memOutbox struct{ s *memStore }

func (r memOutbox) CreateTx(_ context.Context, _ db.Tx, task *repository.OutboxTask) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hook("enqueue"); err != nil {
		return err
	}
	task.Status = repository.TaskStatusCreated
	r.s.st.outbox = append(r.s.st.outbox, *task)
	return nil
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
}

func newMemBlobs() *memBlobs { return &memBlobs{objects: map[string][]byte{}} }

func (b *memBlobs) Put(_ context.Context, r io.Reader, in blob.PutInput) (blob.PutResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failPut != nil {
		return blob.PutResult{}, b.failPut
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return blob.PutResult{}, err
	}
	key := fmt.Sprintf("returns/%d-%s", len(b.objects)+1, in.Filename)
	b.objects[key] = body
	return blob.PutResult{Key: key, URL: "/uploads/" + key}, nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// fixture is a service over a fresh store with one admin, two customers and
// three products.
type fixture struct {
	store    *memStore
	blobs    *memBlobs
	svc      *Service
	now      time.Time
	admin    Actor
	alice    Actor
	bob      Actor
	products []repository.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	now := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)

	users := []repository.User{
		{ID: 1, FirstName: "Ada", LastName: "Admin", Email: "admin@bags.test", Role: string(RoleAdmin)},
		{ID: 2, FirstName: "Alice", LastName: "Smith", Email: "alice@bags.test", Role: string(RoleCustomer)},
		{ID: 3, FirstName: "Bob", LastName: "Jones", Email: "bob@bags.test", Role: string(RoleCustomer)},
	}
	for _, u := range users {
		store.st.users[u.ID] = u
	}
	products := []repository.Product{
		{ID: 10, Name: "Leather Tote", Price: decimal.RequireFromString("120.00"), StockQuantity: 5, IsActive: true},
		{ID: 11, Name: "Canvas Backpack", Price: decimal.RequireFromString("45.50"), StockQuantity: 2, IsActive: true},
		{ID: 12, Name: "Travel Duffel", Price: decimal.RequireFromString("89.99"), StockQuantity: 10, IsActive: false},
	}
	for _, p := range products {
		store.st.products[p.ID] = p
	}
	store.st.nextID = 100

	blobs := newMemBlobs()
	cfg := DefaultConfig()
	cfg.TxTimeout = 5 * time.Second
	svc := NewService(store, store.repos(), blobs, nil, cfg, zaptest.NewLogger(t))
	svc.timeNow = func() time.Time { return now }

	return &fixture{
		store:    store,
		blobs:    blobs,
		svc:      svc,
		now:      now,
		admin:    Actor{ID: 1, FirstName: "Ada", LastName: "Admin", Email: "admin@bags.test", Role: RoleAdmin, IP: "10.0.0.1", UserAgent: "test"},
		alice:    Actor{ID: 2, FirstName: "Alice", LastName: "Smith", Role: RoleCustomer},
		bob:      Actor{ID: 3, FirstName: "Bob", LastName: "Jones", Role: RoleCustomer},
		products: products,
	}
}

func (f *fixture) setNow(now time.Time) {
	f.now = now
	f.svc.timeNow = func() time.Time { return now }
}

func (f *fixture) stock(id int64) int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.st.products[id].StockQuantity
}

func (f *fixture) order(t *testing.T, number string) repository.Order {
	t.Helper()
	o, err := memOrders{f.store}.GetByNumber(context.Background(), number)
	if err != nil {
		t.Fatalf("order %s: %v", number, err)
	}
	return *o
}

func (f *fixture) activities(action ActivityAction) []repository.AdminActivity {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []repository.AdminActivity
	for _, a := range f.store.st.activities {
		if a.Action == string(action) {
			out = append(out, a)
		}
	}
	return out
}

func (f *fixture) outboxTypes() []string {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []string
	for _, task := range f.store.st.outbox {
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(task.Payload, &env)
		out = append(out, env.Type)
	}
	return out
}

// placeOrder fills the customer's cart and checks it out.
func (f *fixture) placeOrder(t *testing.T, customer Actor, qty map[int64]int) *OrderView {
	t.Helper()
	ctx := context.Background()
	ids := slices.Sorted(maps.Keys(qty))
	for _, id := range ids {
		if err := f.svc.AddToCart(ctx, customer.ID, id, qty[id]); err != nil {
			t.Fatalf("add to cart: %v", err)
		}
	}
	v, err := f.svc.CreateOrderFromCart(ctx, customer.ID, shipping())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return v
}

// deliveredOrder places an order and walks it to delivered.
func (f *fixture) deliveredOrder(t *testing.T, customer Actor, qty map[int64]int) *OrderView {
	t.Helper()
	v := f.placeOrder(t, customer, qty)
	v, err := f.svc.TransitionStatus(context.Background(), f.admin, v.OrderNumber, string(OrderDelivered))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	return v
}

func shipping() ShippingInfo {
	return ShippingInfo{Address: "12 Market Street", City: "Springfield", Phone: "+1555010101"}
}

func pngUpload(name string) ImageUpload {
	body := []byte("\x89PNG fake image body")
	return ImageUpload{Filename: name, ContentType: "image/png", Size: int64(len(body)), Body: bytes.NewReader(body)}
}

func lockTimeout() error {
	return &pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"}
}
