package ingest

// verify.go checks cross-entity references once per chunk, after
// classification and validation. References resolve against the visible
// set: keys already persisted plus keys introduced by validated records in
// the same chunk. An order and its items must therefore be co-resident in
// one chunk, or the order must have been persisted by an earlier chunk.

import (
	"context"
	"fmt"
)

// Verifier resolves references for one chunk's batch against the store.
type Verifier struct {
	store Store
}

// NewVerifier creates a verifier backed by store.
func NewVerifier(store Store) *Verifier {
	return &Verifier{store: store}
}

// Verify checks every order's customer reference and every order item's
// order and product references. Records with missing parents are removed
// from the batch and reported; the rest of the batch is untouched.
//
// Orders rejected here do not contribute to the order key set items are
// checked against.
//
// The returned error is a store read failure; reference failures are
// returned as messages.
func (v *Verifier) Verify(ctx context.Context, batch *Batch) ([]string, error) {
	var msgs []string

	customers, err := v.visibleCustomers(ctx, batch)
	if err != nil {
		return nil, err
	}

	kept := batch.Orders[:0]
	for _, o := range batch.Orders {
		if !customers[o.CustomerID] {
			msgs = append(msgs, fmt.Sprintf(
				"order %s: referenced customer %s does not exist", o.OrderID, o.CustomerID))
			continue
		}
		kept = append(kept, o)
	}
	batch.Orders = kept

	if len(batch.OrderItems) == 0 {
		return msgs, nil
	}

	orders, err := v.visibleOrders(ctx, batch)
	if err != nil {
		return nil, err
	}
	products, err := v.visibleProducts(ctx, batch)
	if err != nil {
		return nil, err
	}

	keptItems := batch.OrderItems[:0]
	for _, it := range batch.OrderItems {
		ok := true
		if !orders[it.OrderID] {
			msgs = append(msgs, fmt.Sprintf(
				"order item: referenced order %s does not exist", it.OrderID))
			ok = false
		}
		if !products[it.ProductID] {
			msgs = append(msgs, fmt.Sprintf(
				"order item: referenced product %s does not exist", it.ProductID))
			ok = false
		}
		if ok {
			keptItems = append(keptItems, it)
		}
	}
	batch.OrderItems = keptItems

	return msgs, nil
}

// visibleCustomers unions this chunk's validated customers with the
// persisted customer keys (one bulk query). Skipped when nothing in the
// chunk references a customer.
func (v *Verifier) visibleCustomers(ctx context.Context, batch *Batch) (map[string]bool, error) {
	if len(batch.Orders) == 0 {
		return nil, nil
	}
	keys, err := v.store.ExistingKeys(ctx, KindCustomer)
	if err != nil {
		return nil, fmt.Errorf("load customer keys: %w", err)
	}
	for _, c := range batch.Customers {
		keys[c.CustomerID] = true
	}
	return keys, nil
}

func (v *Verifier) visibleOrders(ctx context.Context, batch *Batch) (map[string]bool, error) {
	keys, err := v.store.ExistingKeys(ctx, KindOrder)
	if err != nil {
		return nil, fmt.Errorf("load order keys: %w", err)
	}
	for _, o := range batch.Orders {
		keys[o.OrderID] = true
	}
	return keys, nil
}

func (v *Verifier) visibleProducts(ctx context.Context, batch *Batch) (map[string]bool, error) {
	keys, err := v.store.ExistingKeys(ctx, KindProduct)
	if err != nil {
		return nil, fmt.Errorf("load product keys: %w", err)
	}
	for _, p := range batch.Products {
		keys[p.ProductID] = true
	}
	return keys, nil
}
