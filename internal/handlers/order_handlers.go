package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mobilemart/mobilemart-golang/internal/models"
)

//
// --- Order Handlers ---
//

// checkoutLine is one cart line read under lock during checkout.
type checkoutLine struct {
	MobileID int64
	Brand    string
	Model    string
	ImageURL sql.NullString
	Price    float64 // The *current* price from the mobiles table
	Stock    int
	Quantity int
}

// PlaceOrderInput defines the JSON for POST /api/orders/place.
type PlaceOrderInput struct {
	ShippingAddress *models.Address `json:"shippingAddress" binding:"required"`
}

// PlaceOrder is the handler for POST /api/orders/place
//
// The whole cart-to-order transition runs in a single transaction:
// materialize the cart with its mobile rows locked, verify stock,
// write the order and its denormalized item snapshots, decrement
// stock with a conditional update, and delete the cart. Any failure
// rolls everything back, so no partial order or stock mutation can
// survive.
func (h *Handlers) PlaceOrder(c *gin.Context) {
	userID := c.GetInt64("userID")

	var input PlaceOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Shipping address is required")
		return
	}

	tx, err := h.DB.BeginTx(c, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to start transaction")
		return
	}
	defer tx.Rollback() // Safety net

	// 1. --- Materialize the Cart (locking the mobile rows) ---
	var cartID int64
	err = tx.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusBadRequest, "Cart is empty")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to find cart")
		return
	}

	rows, err := tx.Query(`
		SELECT m.id, m.brand, m.model, m.image_url, m.price, m.stock, ci.quantity
		FROM cart_items ci
		JOIN mobiles m ON ci.mobile_id = m.id
		WHERE ci.cart_id = ?
		FOR UPDATE`, cartID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get cart items")
		return
	}

	var lines []checkoutLine
	for rows.Next() {
		var line checkoutLine
		if err := rows.Scan(&line.MobileID, &line.Brand, &line.Model,
			&line.ImageURL, &line.Price, &line.Stock, &line.Quantity); err != nil {
			rows.Close()
			respondError(c, http.StatusInternalServerError, "Failed to scan cart item")
			return
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		respondError(c, http.StatusInternalServerError, "Error iterating cart items")
		return
	}
	rows.Close()

	if len(lines) == 0 {
		respondError(c, http.StatusBadRequest, "Cart is empty")
		return
	}

	// 2. --- Check Stock & Compute Total ---
	// Fail the whole placement on the first short line; nothing has
	// been written yet.
	var totalAmount float64
	for _, line := range lines {
		if line.Stock < line.Quantity {
			respondError(c, http.StatusBadRequest,
				fmt.Sprintf("Insufficient stock for %s %s", line.Brand, line.Model))
			return
		}
		totalAmount += line.Price * float64(line.Quantity)
	}

	// 3. --- Create the Order ---
	shippingJSON, err := json.Marshal(input.ShippingAddress)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to encode shipping address")
		return
	}

	now := time.Now()
	orderNumber := uuid.NewString()

	result, err := tx.Exec(`
		INSERT INTO orders (order_number, user_id, total_amount, status, shipping_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		orderNumber, userID, totalAmount, models.OrderStatusPending, shippingJSON, now, now)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create order")
		return
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get new order ID")
		return
	}

	order := &models.Order{
		ID:              orderID,
		OrderNumber:     orderNumber,
		UserID:          userID,
		TotalAmount:     totalAmount,
		Status:          models.OrderStatusPending,
		ShippingAddress: *input.ShippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	itemQuery := `
		INSERT INTO order_items (order_id, mobile_id, brand, model, image_url, quantity, unit_price, subtotal, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	// Conditional decrement: the WHERE guard refuses to oversell even
	// if a competing checkout slipped past the read above.
	stockQuery := "UPDATE mobiles SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?"

	for _, line := range lines {
		subtotal := line.Price * float64(line.Quantity)

		// a. Snapshot the line into order_items
		itemResult, err := tx.Exec(itemQuery,
			orderID, line.MobileID, line.Brand, line.Model, line.ImageURL,
			line.Quantity, line.Price, subtotal, now)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to save order item")
			return
		}
		itemID, _ := itemResult.LastInsertId()

		// b. Deduct stock
		stockResult, err := tx.Exec(stockQuery, line.Quantity, now, line.MobileID, line.Quantity)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to deduct stock")
			return
		}
		if affected, _ := stockResult.RowsAffected(); affected == 0 {
			respondError(c, http.StatusConflict,
				fmt.Sprintf("Insufficient stock for %s %s", line.Brand, line.Model))
			return
		}

		order.Items = append(order.Items, models.OrderItem{
			ID:       itemID,
			OrderID:  orderID,
			MobileID: line.MobileID,
			Mobile: models.OrderItemSnapshot{
				Brand:    line.Brand,
				Model:    line.Model,
				ImageURL: line.ImageURL.String,
			},
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
			Subtotal:  subtotal,
			CreatedAt: now,
		})
	}

	// 4. --- Delete the Cart ---
	if _, err := tx.Exec("DELETE FROM cart_items WHERE cart_id = ?", cartID); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to clear cart")
		return
	}
	if _, err := tx.Exec("DELETE FROM carts WHERE id = ?", cartID); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to clear cart")
		return
	}

	// 5. --- Commit ---
	if err := tx.Commit(); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to commit order")
		return
	}

	respondMessage(c, http.StatusOK, "Order placed successfully", order)
}

// queryOrderItems loads the frozen item snapshots for one order.
func (h *Handlers) queryOrderItems(orderID int64) ([]models.OrderItem, error) {
	rows, err := h.DB.Query(`
		SELECT id, order_id, mobile_id, brand, model, image_url, quantity, unit_price, subtotal, created_at
		FROM order_items WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		var imageURL sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MobileID,
			&item.Mobile.Brand, &item.Mobile.Model, &imageURL,
			&item.Quantity, &item.UnitPrice, &item.Subtotal, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.Mobile.ImageURL = imageURL.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// scanOrder reads one orders row, decoding the shipping snapshot.
func scanOrder(scanner interface{ Scan(...interface{}) error }) (*models.Order, error) {
	var o models.Order
	var shippingJSON []byte
	if err := scanner.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.TotalAmount,
		&o.Status, &shippingJSON, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if len(shippingJSON) > 0 {
		_ = json.Unmarshal(shippingJSON, &o.ShippingAddress)
	}
	return &o, nil
}

const orderColumns = "id, order_number, user_id, total_amount, status, shipping_address, created_at, updated_at"

// GetMyOrders is the handler for GET /api/orders/my-orders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	userID := c.GetInt64("userID")
	page, limit := parsePagination(c)

	var total int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM orders WHERE user_id = ?", userID).Scan(&total); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to count orders")
		return
	}

	rows, err := h.DB.Query(
		"SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		userID, limit, (page-1)*limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to scan order")
			return
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		respondError(c, http.StatusInternalServerError, "Error iterating orders")
		return
	}

	for _, o := range orders {
		if o.Items, err = h.queryOrderItems(o.ID); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to fetch order items")
			return
		}
	}

	respondPage(c, http.StatusOK, orders, NewPagination(total, page, limit))
}

// GetOrder is the handler for GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	userID := c.GetInt64("userID")

	row := h.DB.QueryRow("SELECT "+orderColumns+" FROM orders WHERE id = ?", c.Param("id"))
	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Order not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to fetch order")
		return
	}

	// Verify order belongs to user
	if order.UserID != userID {
		respondError(c, http.StatusForbidden, "Access denied")
		return
	}

	if order.Items, err = h.queryOrderItems(order.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch order items")
		return
	}

	respondData(c, http.StatusOK, order)
}
