package ingest

import (
	"errors"
	"fmt"
	"time"
)

// EntityKind identifies which of the four entity tables a record belongs to.
// It is derived from a record's field names and never stored.
type EntityKind int

const (
	KindCustomer EntityKind = iota
	KindProduct
	KindOrder
	KindOrderItem
)

// String returns the entity kind name used in log output and errors.
func (k EntityKind) String() string {
	switch k {
	case KindCustomer:
		return "customer"
	case KindProduct:
		return "product"
	case KindOrder:
		return "order"
	case KindOrderItem:
		return "order_item"
	default:
		return "unknown"
	}
}

// OrderStatuses is the closed set of accepted order status values.
// Incoming values are lowercased before the check.
var OrderStatuses = []string{"pending", "processing", "shipped", "delivered", "cancelled"}

// Customer is a validated customer record keyed by its natural key CustomerID.
// Phone and Address are optional; empty string means absent.
type Customer struct {
	CustomerID string
	Name       string
	Email      string
	Phone      string
	Address    string
}

// Product is a validated product record keyed by ProductID.
type Product struct {
	ProductID     string
	Name          string
	Description   string
	Price         float64
	Category      string
	StockQuantity int
}

// Order is a validated order record keyed by OrderID. CustomerID must
// reference a customer that exists by the time the order's chunk commits.
type Order struct {
	OrderID     string
	CustomerID  string
	OrderDate   time.Time
	Status      string
	TotalAmount float64
}

// OrderItem is a validated order line item. Its natural key is the
// composite (OrderID, ProductID); both sides must reference rows that
// exist by the time the item's chunk commits.
type OrderItem struct {
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice float64
	Subtotal  float64
}

// Batch holds one chunk's validated records grouped by entity kind, in
// input order within each kind.
type Batch struct {
	Customers  []Customer
	Products   []Product
	Orders     []Order
	OrderItems []OrderItem
}

// Size returns the total number of records across all kinds.
func (b *Batch) Size() int {
	return len(b.Customers) + len(b.Products) + len(b.Orders) + len(b.OrderItems)
}

// Empty reports whether the batch holds no records.
func (b *Batch) Empty() bool {
	return b.Size() == 0
}

// Created counts entities inserted by one load, per kind.
type Created struct {
	Customers  int
	Products   int
	Orders     int
	OrderItems int
}

// Total returns the number of entities created across all kinds.
func (c Created) Total() int {
	return c.Customers + c.Products + c.Orders + c.OrderItems
}

// MaxResultErrors caps the error list carried in a Result. Errors past the
// cap are dropped; counts still reflect them.
const MaxResultErrors = 100

// Result is the aggregated outcome of one ingestion, accumulated across
// all chunks and returned to the caller even when rows failed.
type Result struct {
	UploadID          string   `json:"upload_id,omitempty"`
	Message           string   `json:"message"`
	RecordsProcessed  int      `json:"records_processed"`
	SuccessRows       int      `json:"success_rows_count"`
	SkippedRows       int      `json:"skipped_rows_count"`
	CustomersCreated  int      `json:"customers_created"`
	ProductsCreated   int      `json:"products_created"`
	OrdersCreated     int      `json:"orders_created"`
	OrderItemsCreated int      `json:"order_items_created"`
	Errors            []string `json:"errors"`
}

// addError appends a row or chunk error, honoring MaxResultErrors.
func (r *Result) addError(msg string) {
	if len(r.Errors) < MaxResultErrors {
		r.Errors = append(r.Errors, msg)
	}
}

// finish sets the summary message once all chunks have been processed.
func (r *Result) finish() {
	if len(r.Errors) == 0 {
		r.Message = "File processed successfully"
	} else {
		r.Message = "File processed with errors"
	}
}

// ErrUnsupportedFormat is returned before any processing when the file
// extension is neither .csv nor .json.
var ErrUnsupportedFormat = errors.New("unsupported file type: only CSV and JSON are supported")

// MalformedInputError reports byte content that cannot be decoded under any
// supported grammar. Decoding cannot safely resume, so it ends the
// ingestion; chunks committed before the error stay committed.
type MalformedInputError struct {
	Line string // offending input, truncated; empty when the whole payload failed
	Err  error
}

func (e *MalformedInputError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("invalid JSON line: %s... Error: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed input: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}
