package models

import "time"

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusAccepted  = "accepted"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// statusTransitions maps each status to the statuses it may move to.
// 'delivered' and 'cancelled' are terminal.
var statusTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusAccepted:  {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// IsValidOrderStatus reports whether s is a recognized status string.
func IsValidOrderStatus(s string) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether an order may move from one status to
// another. Unknown statuses never transition.
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderItemSnapshot is the product data frozen into an order item at
// placement time. Later catalog edits never touch it.
type OrderItemSnapshot struct {
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// OrderItem is the model for the 'order_items' table.
type OrderItem struct {
	ID        int64             `json:"id" db:"id"`
	OrderID   int64             `json:"orderId" db:"order_id"`
	MobileID  int64             `json:"mobileId" db:"mobile_id"`
	Mobile    OrderItemSnapshot `json:"mobile"`
	Quantity  int               `json:"quantity" db:"quantity"`
	UnitPrice float64           `json:"price" db:"unit_price"` // Price at the time of purchase
	Subtotal  float64           `json:"subtotal" db:"subtotal"`
	CreatedAt time.Time         `json:"createdAt" db:"created_at"`
}

// Order is the model for the 'orders' table.
type Order struct {
	ID              int64       `json:"id" db:"id"`
	OrderNumber     string      `json:"orderNumber" db:"order_number"`
	UserID          int64       `json:"userId" db:"user_id"`
	Items           []OrderItem `json:"items,omitempty" db:"-"`
	TotalAmount     float64     `json:"totalAmount" db:"total_amount"`
	Status          string      `json:"status" db:"status"`
	ShippingAddress Address     `json:"shippingAddress" db:"-"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time   `json:"updatedAt" db:"updated_at"`

	// Populated on admin listings only.
	User *User `json:"user,omitempty" db:"-"`
}
