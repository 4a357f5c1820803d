// Package store implements the ingestion pipeline's relational backend on
// PostgreSQL via pgx. It exposes exactly the operations the pipeline
// needs: bulk natural-key reads, existence checks, per-kind inserts, and
// one transaction per chunk.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"dataload/internal/ingest"
)

// Postgres implements ingest.Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// New creates a Postgres store over pool.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Init creates the entity tables if they do not exist.
func (s *Postgres) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("create schema: %w", pgError(err))
	}
	return nil
}

// ExistingKeys returns every persisted natural key for the kind in one
// query. Order items have no single-column key and are never asked for.
func (s *Postgres) ExistingKeys(ctx context.Context, kind ingest.EntityKind) (map[string]bool, error) {
	var query string
	switch kind {
	case ingest.KindCustomer:
		query = `SELECT customer_id FROM customers`
	case ingest.KindProduct:
		query = `SELECT product_id FROM products`
	case ingest.KindOrder:
		query = `SELECT order_id FROM orders`
	default:
		return nil, fmt.Errorf("no natural key column for kind %s", kind)
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, pgError(err)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, pgError(err)
		}
		keys[key] = true
	}
	return keys, pgError(rows.Err())
}

// Begin opens the transaction one chunk's inserts run in.
func (s *Postgres) Begin(ctx context.Context) (ingest.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, pgError(err)
	}
	return &pgTx{tx: tx}, nil
}

// pgTx adapts pgx.Tx to ingest.Tx.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) HasCustomer(ctx context.Context, customerID string) (bool, error) {
	return t.exists(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE customer_id = $1)`, customerID)
}

func (t *pgTx) HasProduct(ctx context.Context, productID string) (bool, error) {
	return t.exists(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE product_id = $1)`, productID)
}

func (t *pgTx) HasOrder(ctx context.Context, orderID string) (bool, error) {
	return t.exists(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE order_id = $1)`, orderID)
}

func (t *pgTx) HasOrderItem(ctx context.Context, orderID, productID string) (bool, error) {
	return t.exists(ctx,
		`SELECT EXISTS(SELECT 1 FROM order_items WHERE order_id = $1 AND product_id = $2)`,
		orderID, productID)
}

func (t *pgTx) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found bool
	if err := t.tx.QueryRow(ctx, query, args...).Scan(&found); err != nil {
		return false, pgError(err)
	}
	return found, nil
}

func (t *pgTx) InsertCustomer(ctx context.Context, c ingest.Customer) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO customers (customer_id, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)`,
		c.CustomerID, c.Name, c.Email, toText(c.Phone), toText(c.Address))
	return pgError(err)
}

func (t *pgTx) InsertProduct(ctx context.Context, p ingest.Product) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO products (product_id, name, description, price, category, stock_quantity)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ProductID, p.Name, toText(p.Description), p.Price, toText(p.Category), p.StockQuantity)
	return pgError(err)
}

func (t *pgTx) InsertOrder(ctx context.Context, o ingest.Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders (order_id, customer_id, order_date, status, total_amount)
		VALUES ($1, $2, $3, $4, $5)`,
		o.OrderID, o.CustomerID,
		pgtype.Timestamp{Time: o.OrderDate, Valid: true},
		o.Status, o.TotalAmount)
	return pgError(err)
}

func (t *pgTx) InsertOrderItem(ctx context.Context, it ingest.OrderItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)`,
		it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal)
	return pgError(err)
}

func (t *pgTx) Commit(ctx context.Context) error {
	return pgError(t.tx.Commit(ctx))
}

// Rollback discards the transaction. Calling it after Commit is a no-op.
func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return pgError(err)
}

// toText maps "" to NULL so optional columns stay nullable.
func toText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// pgError rewraps common Postgres error codes with short messages the
// ingestion result can surface without leaking driver internals.
func pgError(err error) error {
	if err == nil {
		return nil
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		switch pge.Code {
		case "23505":
			return fmt.Errorf("duplicate key (%s)", pge.ConstraintName)
		case "23503":
			return fmt.Errorf("referenced row missing (%s)", pge.ConstraintName)
		case "23514":
			return fmt.Errorf("check constraint violated (%s)", pge.ConstraintName)
		case "22001":
			return errors.New("value too long for column")
		}
		if len(pge.Code) >= 2 && pge.Code[:2] == "08" {
			return errors.New("database connection lost")
		}
	}
	return err
}
