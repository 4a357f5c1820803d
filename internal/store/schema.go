package store

// schemaDDL bootstraps the four entity tables. Natural keys are unique so
// re-ingesting a file cannot create duplicates, and foreign keys back the
// relationship checks the pipeline performs before persisting.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS customers (
	id            BIGSERIAL PRIMARY KEY,
	customer_id   VARCHAR(50) NOT NULL UNIQUE,
	name          VARCHAR(255) NOT NULL,
	email         VARCHAR(255) NOT NULL,
	phone         VARCHAR(50),
	address       TEXT,
	created_at    TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id             BIGSERIAL PRIMARY KEY,
	product_id     VARCHAR(50) NOT NULL UNIQUE,
	name           VARCHAR(255) NOT NULL,
	description    TEXT,
	price          DOUBLE PRECISION NOT NULL,
	category       VARCHAR(100),
	stock_quantity INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
	id           BIGSERIAL PRIMARY KEY,
	order_id     VARCHAR(50) NOT NULL UNIQUE,
	customer_id  VARCHAR(50) NOT NULL REFERENCES customers(customer_id),
	order_date   TIMESTAMP NOT NULL,
	status       VARCHAR(20) NOT NULL DEFAULT 'pending',
	total_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at   TIMESTAMP NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_items (
	id         BIGSERIAL PRIMARY KEY,
	order_id   VARCHAR(50) NOT NULL REFERENCES orders(order_id),
	product_id VARCHAR(50) NOT NULL REFERENCES products(product_id),
	quantity   INTEGER NOT NULL,
	unit_price DOUBLE PRECISION NOT NULL,
	subtotal   DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT now(),
	UNIQUE (order_id, product_id)
);

CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id);
CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
`
