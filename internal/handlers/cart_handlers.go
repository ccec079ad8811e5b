package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mobilemart/mobilemart-golang/internal/models"
)

//
// --- Cart Handlers ---
//

// CartLine is one materialized cart row: the live mobile record plus
// quantity and the subtotal computed from the current price.
type CartLine struct {
	Mobile   *models.Mobile `json:"mobile"`
	Quantity int            `json:"quantity"`
	Subtotal float64        `json:"subtotal"`
}

// CartDetails is the materialized cart returned to clients.
type CartDetails struct {
	ID        int64      `json:"id,omitempty"`
	UserID    int64      `json:"userId,omitempty"`
	Items     []CartLine `json:"items"`
	Total     float64    `json:"total"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// emptyCart is the shape returned when the user has no cart document.
func emptyCart() *CartDetails {
	return &CartDetails{Items: []CartLine{}, Total: 0}
}

// getOrCreateCartID finds a user's cart or lazily creates one.
// Runs inside the caller's transaction.
func (h *Handlers) getOrCreateCartID(tx *sql.Tx, userID int64) (int64, error) {
	var cartID int64
	err := tx.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}

	if err == sql.ErrNoRows {
		now := time.Now()
		result, err := tx.Exec(
			"INSERT INTO carts (user_id, created_at, updated_at) VALUES (?, ?, ?)",
			userID, now, now)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	return 0, err
}

// getCartWithDetails joins every cart line to its current mobile
// record and totals the live-priced subtotals. Returns nil when the
// user has no cart. Lines whose mobile has been deleted drop out of
// the join; availability is intentionally not re-checked here.
func (h *Handlers) getCartWithDetails(userID int64) (*CartDetails, error) {
	details := &CartDetails{Items: []CartLine{}}

	var createdAt, updatedAt time.Time
	err := h.DB.QueryRow(
		"SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?", userID).
		Scan(&details.ID, &details.UserID, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	details.CreatedAt = &createdAt
	details.UpdatedAt = &updatedAt

	rows, err := h.DB.Query(`
		SELECT
			m.id, m.brand, m.model, m.slug, m.price, m.stock,
			m.ram, m.storage, m.camera, m.battery, m.display, m.processor,
			m.image_url, m.description, m.is_available, m.created_at, m.updated_at,
			ci.quantity
		FROM cart_items ci
		JOIN mobiles m ON ci.mobile_id = m.id
		WHERE ci.cart_id = ?`, details.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Mobile
		var slug, ram, storage, camera, battery, display, processor, imageURL, description sql.NullString
		var quantity int

		if err := rows.Scan(
			&m.ID, &m.Brand, &m.Model, &slug, &m.Price, &m.Stock,
			&ram, &storage, &camera, &battery, &display, &processor,
			&imageURL, &description, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt,
			&quantity,
		); err != nil {
			return nil, err
		}

		m.Slug = slug.String
		m.ImageURL = imageURL.String
		m.Description = description.String
		m.Specifications = models.Specifications{
			RAM:       ram.String,
			Storage:   storage.String,
			Camera:    camera.String,
			Battery:   battery.String,
			Display:   display.String,
			Processor: processor.String,
		}

		line := CartLine{
			Mobile:   &m,
			Quantity: quantity,
			// Live pricing: the subtotal always reflects the current
			// catalog price, not the price at add-to-cart time.
			Subtotal: m.Price * float64(quantity),
		}
		details.Total += line.Subtotal
		details.Items = append(details.Items, line)
	}

	return details, rows.Err()
}

// GetCart is the handler for GET /api/cart
func (h *Handlers) GetCart(c *gin.Context) {
	userID := c.GetInt64("userID")

	cart, err := h.getCartWithDetails(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}
	if cart == nil {
		cart = emptyCart()
	}

	respondData(c, http.StatusOK, cart)
}

// AddToCartInput defines the JSON for adding an item to the cart.
type AddToCartInput struct {
	MobileID int64 `json:"mobileId" binding:"required"`
	Quantity int   `json:"quantity" binding:"omitempty,gt=0"`
}

// AddToCart is the handler for POST /api/cart/add
// If the mobile is already in the cart its quantity is incremented,
// not overwritten.
func (h *Handlers) AddToCart(c *gin.Context) {
	userID := c.GetInt64("userID")

	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Mobile ID is required")
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	// Make sure the mobile exists before touching the cart.
	var exists int
	err := h.DB.QueryRow("SELECT 1 FROM mobiles WHERE id = ?", input.MobileID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Mobile not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Database error")
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Transaction failed")
		return
	}
	defer tx.Rollback()

	cartID, err := h.getOrCreateCartID(tx, userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Cart initialization failed")
		return
	}

	// Insert or increment (Upsert)
	now := time.Now()
	_, err = tx.Exec(`
		INSERT INTO cart_items (cart_id, mobile_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			quantity = quantity + VALUES(quantity),
			updated_at = VALUES(updated_at)`,
		cartID, input.MobileID, input.Quantity, now, now)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	if _, err := tx.Exec("UPDATE carts SET updated_at = ? WHERE id = ?", now, cartID); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(c, http.StatusInternalServerError, "Commit failed")
		return
	}

	cart, err := h.getCartWithDetails(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}

	respondMessage(c, http.StatusCreated, "Item added to cart", cart)
}

// UpdateCartItemInput defines the JSON for setting an item's quantity.
type UpdateCartItemInput struct {
	MobileID int64 `json:"mobileId" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,gte=1"`
}

// UpdateCartItem is the handler for PUT /api/cart/update
// Sets the absolute quantity of an existing line. Quantities below 1
// are rejected here, at the handler layer.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	userID := c.GetInt64("userID")

	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Valid mobile ID and quantity are required")
		return
	}

	var cartID int64
	err := h.DB.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Cart not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to find cart")
		return
	}

	result, err := h.DB.Exec(`
		UPDATE cart_items SET quantity = ?, updated_at = ?
		WHERE cart_id = ? AND mobile_id = ?`,
		input.Quantity, time.Now(), cartID, input.MobileID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update item")
		return
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		// The line may exist with the same quantity already; only 404
		// when it genuinely isn't there.
		var one int
		if err := h.DB.QueryRow(
			"SELECT 1 FROM cart_items WHERE cart_id = ? AND mobile_id = ?",
			cartID, input.MobileID).Scan(&one); err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Item not found in cart")
			return
		}
	}

	cart, err := h.getCartWithDetails(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}

	respondMessage(c, http.StatusOK, "Cart updated", cart)
}

// RemoveCartItem is the handler for DELETE /api/cart/remove/:mobileId
// Removing an item that isn't in the cart is not an error.
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	userID := c.GetInt64("userID")
	mobileID := c.Param("mobileId")

	var cartID int64
	err := h.DB.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil && err != sql.ErrNoRows {
		respondError(c, http.StatusInternalServerError, "Failed to find cart")
		return
	}

	if err == nil {
		if _, err := h.DB.Exec(
			"DELETE FROM cart_items WHERE cart_id = ? AND mobile_id = ?",
			cartID, mobileID); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to remove item")
			return
		}
	}

	cart, err := h.getCartWithDetails(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}
	if cart == nil {
		cart = emptyCart()
	}

	respondMessage(c, http.StatusOK, "Item removed from cart", cart)
}

// ClearCart is the handler for DELETE /api/cart/clear
// Deletes the cart document entirely; items cascade.
func (h *Handlers) ClearCart(c *gin.Context) {
	userID := c.GetInt64("userID")

	if _, err := h.DB.Exec("DELETE FROM carts WHERE user_id = ?", userID); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to clear cart")
		return
	}

	respondMessage(c, http.StatusOK, "Cart cleared", nil)
}
