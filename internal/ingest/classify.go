package ingest

// Classify assigns a raw record to exactly one entity kind based on which
// field names are present. Values are never inspected.
//
// Decision order, first match wins:
//
//  1. customer_id + email, without order_id or product_id  -> customer
//  2. product_id + price, without customer_id or order_id  -> product
//  3. order_id + product_id + quantity                     -> order item
//  4. order_id + customer_id + order_date                  -> order
//
// Order items are checked before orders: both can carry overlapping keys,
// and the item's stricter triple disambiguates deterministically.
//
// Returns false for a record whose field set matches no kind.
func Classify(rec RawRecord) (EntityKind, bool) {
	switch {
	case rec.Has("customer_id") && rec.Has("email") &&
		!rec.Has("order_id") && !rec.Has("product_id"):
		return KindCustomer, true

	case rec.Has("product_id") && rec.Has("price") &&
		!rec.Has("customer_id") && !rec.Has("order_id"):
		return KindProduct, true

	case rec.Has("order_id") && rec.Has("product_id") && rec.Has("quantity"):
		return KindOrderItem, true

	case rec.Has("order_id") && rec.Has("customer_id") && rec.Has("order_date"):
		return KindOrder, true
	}
	return 0, false
}
