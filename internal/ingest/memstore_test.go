package ingest

// memstore_test.go provides the in-memory Store used across the package
// tests. It mirrors the transactional contract of the real backend:
// staged writes become visible only on Commit, Rollback discards them,
// and error hooks let tests fail any single operation.

import (
	"context"
	"sync"
)

type memStore struct {
	mu        sync.Mutex
	customers map[string]Customer
	products  map[string]Product
	orders    map[string]Order
	items     map[string]OrderItem

	keysErr   error            // returned by ExistingKeys
	beginErr  error            // returned by Begin
	insertErr map[string]error // insert failure by natural key
	commitErr error            // returned by Commit

	commits   int
	rollbacks int
}

func newMemStore() *memStore {
	return &memStore{
		customers: make(map[string]Customer),
		products:  make(map[string]Product),
		orders:    make(map[string]Order),
		items:     make(map[string]OrderItem),
		insertErr: make(map[string]error),
	}
}

func itemKey(orderID, productID string) string {
	return orderID + "/" + productID
}

func (m *memStore) ExistingKeys(ctx context.Context, kind EntityKind) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.keysErr != nil {
		return nil, m.keysErr
	}

	keys := make(map[string]bool)
	switch kind {
	case KindCustomer:
		for k := range m.customers {
			keys[k] = true
		}
	case KindProduct:
		for k := range m.products {
			keys[k] = true
		}
	case KindOrder:
		for k := range m.orders {
			keys[k] = true
		}
	}
	return keys, nil
}

func (m *memStore) Begin(ctx context.Context) (Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &memTx{
		store:     m,
		customers: make(map[string]Customer),
		products:  make(map[string]Product),
		orders:    make(map[string]Order),
		items:     make(map[string]OrderItem),
	}, nil
}

// memTx stages writes until Commit. Existence checks see both committed
// state and this transaction's own staged inserts.
type memTx struct {
	store     *memStore
	customers map[string]Customer
	products  map[string]Product
	orders    map[string]Order
	items     map[string]OrderItem
	done      bool
}

func (t *memTx) HasCustomer(ctx context.Context, customerID string) (bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.store.customers[customerID]; ok {
		return true, nil
	}
	_, ok := t.customers[customerID]
	return ok, nil
}

func (t *memTx) HasProduct(ctx context.Context, productID string) (bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.store.products[productID]; ok {
		return true, nil
	}
	_, ok := t.products[productID]
	return ok, nil
}

func (t *memTx) HasOrder(ctx context.Context, orderID string) (bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.store.orders[orderID]; ok {
		return true, nil
	}
	_, ok := t.orders[orderID]
	return ok, nil
}

func (t *memTx) HasOrderItem(ctx context.Context, orderID, productID string) (bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	key := itemKey(orderID, productID)
	if _, ok := t.store.items[key]; ok {
		return true, nil
	}
	_, ok := t.items[key]
	return ok, nil
}

func (t *memTx) InsertCustomer(ctx context.Context, c Customer) error {
	if err := t.store.insertErr[c.CustomerID]; err != nil {
		return err
	}
	t.customers[c.CustomerID] = c
	return nil
}

func (t *memTx) InsertProduct(ctx context.Context, p Product) error {
	if err := t.store.insertErr[p.ProductID]; err != nil {
		return err
	}
	t.products[p.ProductID] = p
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, o Order) error {
	if err := t.store.insertErr[o.OrderID]; err != nil {
		return err
	}
	t.orders[o.OrderID] = o
	return nil
}

func (t *memTx) InsertOrderItem(ctx context.Context, it OrderItem) error {
	key := itemKey(it.OrderID, it.ProductID)
	if err := t.store.insertErr[key]; err != nil {
		return err
	}
	t.items[key] = it
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.store.commitErr != nil {
		return t.store.commitErr
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for k, v := range t.customers {
		t.store.customers[k] = v
	}
	for k, v := range t.products {
		t.store.products[k] = v
	}
	for k, v := range t.orders {
		t.store.orders[k] = v
	}
	for k, v := range t.items {
		t.store.items[k] = v
	}
	t.done = true
	t.store.commits++
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.rollbacks++
	return nil
}
