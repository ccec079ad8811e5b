package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mobilemart/mobilemart-golang/internal/models"
)

//
// --- Admin Order Handlers ---
//

// AdminGetOrders is the handler for GET /api/admin/orders
// Lists every order (optionally filtered by status) with the owning
// user joined in, password hash stripped by the model's json tags.
func (h *Handlers) AdminGetOrders(c *gin.Context) {
	page, limit := parsePagination(c)
	status := c.Query("status")

	where := ""
	countArgs := []interface{}{}
	if status != "" {
		where = " WHERE o.status = ?"
		countArgs = append(countArgs, status)
	}

	var total int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM orders o"+where, countArgs...).Scan(&total); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to count orders")
		return
	}

	query := `
		SELECT
			o.id, o.order_number, o.user_id, o.total_amount, o.status, o.shipping_address,
			o.created_at, o.updated_at,
			u.id, u.name, u.email, u.role, u.phone, u.created_at, u.updated_at
		FROM orders o
		JOIN users u ON o.user_id = u.id` + where + `
		ORDER BY o.created_at DESC LIMIT ? OFFSET ?`
	args := append(countArgs, limit, (page-1)*limit)

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		var o models.Order
		var u models.User
		var shippingJSON []byte

		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.UserID, &o.TotalAmount, &o.Status, &shippingJSON,
			&o.CreatedAt, &o.UpdatedAt,
			&u.ID, &u.Name, &u.Email, &u.Role, &u.Phone, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to scan order")
			return
		}

		if len(shippingJSON) > 0 {
			_ = json.Unmarshal(shippingJSON, &o.ShippingAddress)
		}
		o.User = &u
		orders = append(orders, &o)
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

// AdminGetOrder is the handler for GET /api/admin/orders/:id
func (h *Handlers) AdminGetOrder(c *gin.Context) {
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

	if order.Items, err = h.queryOrderItems(order.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch order items")
		return
	}

	respondData(c, http.StatusOK, order)
}

// transitionOrder moves an order to a new status, enforcing the
// state machine: pending → accepted|cancelled, accepted →
// delivered|cancelled, delivered and cancelled are terminal.
// The status is left untouched on any rejection.
func (h *Handlers) transitionOrder(c *gin.Context, orderID, newStatus, message string) {
	if !models.IsValidOrderStatus(newStatus) {
		respondError(c, http.StatusBadRequest, "Invalid status")
		return
	}

	var current string
	err := h.DB.QueryRow("SELECT status FROM orders WHERE id = ?", orderID).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Order not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to fetch order")
		return
	}

	if !models.CanTransition(current, newStatus) {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("Cannot transition order from '%s' to '%s'", current, newStatus))
		return
	}

	// Guard on the status we read so a racing admin can't double-apply.
	result, err := h.DB.Exec(
		"UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?",
		newStatus, orderID, current)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update order status")
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		respondError(c, http.StatusConflict, "Order status changed concurrently")
		return
	}

	row := h.DB.QueryRow("SELECT "+orderColumns+" FROM orders WHERE id = ?", orderID)
	order, err := scanOrder(row)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch order")
		return
	}
	if order.Items, err = h.queryOrderItems(order.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch order items")
		return
	}

	respondMessage(c, http.StatusOK, message, order)
}

// UpdateOrderStatusInput defines the JSON for PUT /api/admin/orders/:id.
type UpdateOrderStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus is the handler for PUT /api/admin/orders/:id
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Status is required")
		return
	}

	h.transitionOrder(c, c.Param("id"), input.Status, "Order status updated successfully")
}

// AcceptOrder is the handler for PATCH /api/admin/orders/accept/:id
func (h *Handlers) AcceptOrder(c *gin.Context) {
	h.transitionOrder(c, c.Param("id"), models.OrderStatusAccepted, "Order accepted successfully")
}

// DeliverOrder is the handler for PATCH /api/admin/orders/deliver/:id
func (h *Handlers) DeliverOrder(c *gin.Context) {
	h.transitionOrder(c, c.Param("id"), models.OrderStatusDelivered, "Order delivered successfully")
}

// CancelOrder is the handler for PATCH /api/admin/orders/cancel/:id
func (h *Handlers) CancelOrder(c *gin.Context) {
	h.transitionOrder(c, c.Param("id"), models.OrderStatusCancelled, "Order cancelled successfully")
}

// DeleteOrder is the handler for DELETE /api/admin/orders/:id
func (h *Handlers) DeleteOrder(c *gin.Context) {
	result, err := h.DB.Exec("DELETE FROM orders WHERE id = ?", c.Param("id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to delete order")
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		respondError(c, http.StatusNotFound, "Order not found")
		return
	}

	respondMessage(c, http.StatusOK, "Order deleted successfully", nil)
}

// OrderStatusStat is one row of the status breakdown.
type OrderStatusStat struct {
	Status      string  `json:"status"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}

// GetOrderStats is the handler for GET /api/admin/orders/stats/overview
func (h *Handlers) GetOrderStats(c *gin.Context) {
	var totalOrders int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM orders").Scan(&totalOrders); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to count orders")
		return
	}

	rows, err := h.DB.Query(
		"SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0) FROM orders GROUP BY status")
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch order stats")
		return
	}
	defer rows.Close()

	breakdown := []OrderStatusStat{}
	for rows.Next() {
		var s OrderStatusStat
		if err := rows.Scan(&s.Status, &s.Count, &s.TotalAmount); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to scan order stats")
			return
		}
		breakdown = append(breakdown, s)
	}

	respondData(c, http.StatusOK, gin.H{
		"totalOrders":     totalOrders,
		"statusBreakdown": breakdown,
	})
}
