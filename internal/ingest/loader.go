package ingest

// loader.go persists one verified batch per transaction. Inserts run in
// strict dependency order so existence checks for orders see customers
// inserted moments earlier in the same transaction, and likewise for
// order items.

import (
	"context"
	"fmt"
)

// Store is the relational backend the pipeline reads keys from and writes
// entities through. Implemented by the Postgres store and by the in-memory
// fake used in tests.
type Store interface {
	// ExistingKeys returns every persisted natural key for the kind.
	// Used by the verifier to build cross-chunk visibility sets.
	ExistingKeys(ctx context.Context, kind EntityKind) (map[string]bool, error)

	// Begin opens the transaction a chunk's inserts run in.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one chunk's transaction: existence checks by natural key plus
// per-kind inserts. Rollback after Commit must be a no-op.
type Tx interface {
	HasCustomer(ctx context.Context, customerID string) (bool, error)
	HasProduct(ctx context.Context, productID string) (bool, error)
	HasOrder(ctx context.Context, orderID string) (bool, error)
	HasOrderItem(ctx context.Context, orderID, productID string) (bool, error)

	InsertCustomer(ctx context.Context, c Customer) error
	InsertProduct(ctx context.Context, p Product) error
	InsertOrder(ctx context.Context, o Order) error
	InsertOrderItem(ctx context.Context, it OrderItem) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Loader writes verified batches to the store.
type Loader struct {
	store Store
}

// NewLoader creates a loader backed by store.
func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// Load persists the batch inside one transaction, inserting customers,
// then products, then orders, then order items. A record whose natural key
// already exists is skipped, not an error; skipped counts duplicates.
//
// Any store failure rolls back the whole chunk: created counts are zero
// and the single returned error covers the batch.
func (l *Loader) Load(ctx context.Context, batch *Batch) (created Created, skipped int, err error) {
	if batch.Empty() {
		return Created{}, 0, nil
	}

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return Created{}, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, c := range batch.Customers {
		exists, err := tx.HasCustomer(ctx, c.CustomerID)
		if err != nil {
			return Created{}, 0, fmt.Errorf("customer %s: %w", c.CustomerID, err)
		}
		if exists {
			skipped++
			continue
		}
		if err := tx.InsertCustomer(ctx, c); err != nil {
			return Created{}, 0, fmt.Errorf("customer %s: %w", c.CustomerID, err)
		}
		created.Customers++
	}

	for _, p := range batch.Products {
		exists, err := tx.HasProduct(ctx, p.ProductID)
		if err != nil {
			return Created{}, 0, fmt.Errorf("product %s: %w", p.ProductID, err)
		}
		if exists {
			skipped++
			continue
		}
		if err := tx.InsertProduct(ctx, p); err != nil {
			return Created{}, 0, fmt.Errorf("product %s: %w", p.ProductID, err)
		}
		created.Products++
	}

	for _, o := range batch.Orders {
		exists, err := tx.HasOrder(ctx, o.OrderID)
		if err != nil {
			return Created{}, 0, fmt.Errorf("order %s: %w", o.OrderID, err)
		}
		if exists {
			skipped++
			continue
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return Created{}, 0, fmt.Errorf("order %s: %w", o.OrderID, err)
		}
		created.Orders++
	}

	for _, it := range batch.OrderItems {
		exists, err := tx.HasOrderItem(ctx, it.OrderID, it.ProductID)
		if err != nil {
			return Created{}, 0, fmt.Errorf("order item %s/%s: %w", it.OrderID, it.ProductID, err)
		}
		if exists {
			skipped++
			continue
		}
		if err := tx.InsertOrderItem(ctx, it); err != nil {
			return Created{}, 0, fmt.Errorf("order item %s/%s: %w", it.OrderID, it.ProductID, err)
		}
		created.OrderItems++
	}

	if err := tx.Commit(ctx); err != nil {
		return Created{}, 0, fmt.Errorf("commit: %w", err)
	}
	return created, skipped, nil
}
