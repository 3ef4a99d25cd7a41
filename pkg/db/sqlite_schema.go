package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the goose migrations with sqlite column types. It backs
// local development with the sqlite feature flag and repository tests.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL DEFAULT '',
  legacy_id TEXT,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  discounted_price NUMERIC CHECK (discounted_price IS NULL OR discounted_price >= 0),
  images TEXT,
  colors TEXT,
  sizes TEXT,
  sku TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_featured INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS products_slug_key ON products (slug) WHERE slug <> ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS products_legacy_id_key ON products (legacy_id) WHERE legacy_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS products_active_created_idx ON products (is_active, created_at)`,

	`CREATE TABLE IF NOT EXISTS stock_levels (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  size TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  low_threshold INTEGER NOT NULL DEFAULT 5 CHECK (low_threshold >= 0),
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS stock_levels_product_size_key ON stock_levels (product_id, size)`,

	`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_email TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  status TEXT NOT NULL,
  total_amount NUMERIC NOT NULL CHECK (total_amount >= 0),
  shipping_address TEXT NOT NULL,
  payment_id TEXT,
  tracking_number TEXT,
  tracking_carrier TEXT,
  notes TEXT,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS orders_status_created_idx ON orders (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS orders_created_idx ON orders (created_at, id)`,

	`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  design_id TEXT,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  size TEXT NOT NULL,
  color TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS order_items_order_idx ON order_items (order_id)`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
  id TEXT PRIMARY KEY,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  actor_id TEXT,
  details TEXT,
  created_at DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS audit_logs_entity_idx ON audit_logs (entity_type, entity_id, created_at)`,
}

// ApplySQLiteSchema creates the storefront tables on a sqlite connection.
func ApplySQLiteSchema(ctx context.Context, conn *gorm.DB) error {
	for _, stmt := range sqliteSchema {
		if err := conn.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
