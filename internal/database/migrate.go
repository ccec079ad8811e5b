package database

import (
	"database/sql"
	"fmt"
)

// Migrate creates the tables the API needs if they don't exist yet.
// Each statement is idempotent so the server can run it on every boot.
func Migrate(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL DEFAULT 'customer',
			phone VARCHAR(64),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_addresses (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			street VARCHAR(255) NOT NULL,
			city VARCHAR(128) NOT NULL,
			state VARCHAR(128),
			postal_code VARCHAR(32),
			country VARCHAR(128),
			phone VARCHAR(64),
			created_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS mobiles (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			brand VARCHAR(128) NOT NULL,
			model VARCHAR(128) NOT NULL,
			slug VARCHAR(255),
			price DOUBLE NOT NULL DEFAULT 0,
			stock INT NOT NULL DEFAULT 0,
			ram VARCHAR(64),
			storage VARCHAR(64),
			camera VARCHAR(128),
			battery VARCHAR(64),
			display VARCHAR(128),
			processor VARCHAR(128),
			image_url VARCHAR(512),
			description TEXT,
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			cart_id BIGINT NOT NULL,
			mobile_id BIGINT NOT NULL,
			quantity INT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE KEY uniq_cart_mobile (cart_id, mobile_id),
			FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_number CHAR(36) NOT NULL UNIQUE,
			user_id BIGINT NOT NULL,
			total_amount DOUBLE NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'pending',
			shipping_address JSON NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			mobile_id BIGINT NOT NULL,
			brand VARCHAR(128) NOT NULL,
			model VARCHAR(128) NOT NULL,
			image_url VARCHAR(512),
			quantity INT NOT NULL,
			unit_price DOUBLE NOT NULL,
			subtotal DOUBLE NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
