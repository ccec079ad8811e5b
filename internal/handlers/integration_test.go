package handlers_test

// End-to-end tests against a real MySQL database. They run only when
// TEST_DB_DSN points at a disposable schema, e.g.:
//
//	TEST_DB_DSN="root:secret@tcp(127.0.0.1:3306)/mobilemart_test?parseTime=true" go test ./...

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilemart/mobilemart-golang/internal/database"
	"github.com/mobilemart/mobilemart-golang/internal/handlers"
	"github.com/mobilemart/mobilemart-golang/internal/routes"
)

type envelope struct {
	Success    bool                 `json:"success"`
	Message    string               `json:"message"`
	Error      string               `json:"error"`
	Data       json.RawMessage      `json:"data"`
	Pagination *handlers.Pagination `json:"pagination"`
}

func setupServer(t *testing.T) (*gin.Engine, *sql.DB) {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping database integration tests")
	}

	db, err := database.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))

	// Child tables first so foreign keys don't object.
	for _, table := range []string{
		"order_items", "orders", "cart_items", "carts", "user_addresses", "users", "mobiles",
	} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}

	gin.SetMode(gin.TestMode)
	return routes.SetupRouter(&handlers.Handlers{DB: db}), db
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

// registerUser creates an account through the API and returns its token.
func registerUser(t *testing.T, router *gin.Engine, email, role string) string {
	t.Helper()

	w, env := doJSON(t, router, "POST", "/api/auth/register", "", gin.H{
		"name":     "Test User",
		"email":    email,
		"password": "secret123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Error)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

// createMobile seeds a catalog row directly and returns its ID.
func createMobile(t *testing.T, db *sql.DB, brand, model string, price float64, stock int, available bool) int64 {
	t.Helper()

	result, err := db.Exec(`
		INSERT INTO mobiles (brand, model, slug, price, stock, is_available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		brand, model, brand+"-"+model, price, stock, available)
	require.NoError(t, err)
	id, err := result.LastInsertId()
	require.NoError(t, err)
	return id
}

func mobileStock(t *testing.T, db *sql.DB, mobileID int64) int {
	t.Helper()
	var stock int
	require.NoError(t, db.QueryRow("SELECT stock FROM mobiles WHERE id = ?", mobileID).Scan(&stock))
	return stock
}

var shippingAddress = gin.H{
	"street":     "1 Main St",
	"city":       "Springfield",
	"state":      "IL",
	"postalCode": "62701",
	"country":    "USA",
}

func TestRegisterAndLogin(t *testing.T) {
	router, _ := setupServer(t)

	registerUser(t, router, "alice@example.com", "customer")

	// Duplicate email rejected.
	w, env := doJSON(t, router, "POST", "/api/auth/register", "", gin.H{
		"name":     "Alice Again",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", env.Error)

	// Wrong password.
	w, env = doJSON(t, router, "POST", "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials. Incorrect password.", env.Error)

	// Unknown email.
	w, env = doJSON(t, router, "POST", "/api/auth/login", "", gin.H{
		"email":    "nobody@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials. Email not found.", env.Error)

	// Correct credentials.
	w, env = doJSON(t, router, "POST", "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestMobileListingHidesUnavailable(t *testing.T) {
	router, db := setupServer(t)
	token := registerUser(t, router, "shopper@example.com", "customer")

	createMobile(t, db, "Apple", "iPhone 15", 999, 10, true)
	createMobile(t, db, "Samsung", "Galaxy S24", 899, 5, true)
	createMobile(t, db, "Nokia", "3310", 49, 100, false)

	w, env := doJSON(t, router, "GET", "/api/mobiles", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var mobiles []struct {
		Brand string `json:"brand"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mobiles))
	assert.Len(t, mobiles, 2)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Total)
	for _, m := range mobiles {
		assert.NotEqual(t, "Nokia", m.Brand)
	}

	// Admin listing shows everything.
	adminToken := registerUser(t, router, "boss@example.com", "admin")
	w, env = doJSON(t, router, "GET", "/api/admin/mobiles", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &mobiles))
	assert.Len(t, mobiles, 3)
}

func TestAddToCartMergesQuantities(t *testing.T) {
	router, db := setupServer(t)
	token := registerUser(t, router, "carter@example.com", "customer")
	mobileID := createMobile(t, db, "Apple", "iPhone 15", 999, 10, true)

	_, _ = doJSON(t, router, "POST", "/api/cart/add", token, gin.H{"mobileId": mobileID, "quantity": 2})
	w, env := doJSON(t, router, "POST", "/api/cart/add", token, gin.H{"mobileId": mobileID, "quantity": 3})
	require.Equal(t, http.StatusCreated, w.Code)

	var cart struct {
		Items []struct {
			Quantity int     `json:"quantity"`
			Subtotal float64 `json:"subtotal"`
		} `json:"items"`
		Total float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 999.0*5, cart.Items[0].Subtotal)
	assert.Equal(t, 999.0*5, cart.Total)
}

func TestCartReflectsLivePrices(t *testing.T) {
	router, db := setupServer(t)
	token := registerUser(t, router, "pricer@example.com", "customer")
	mobileID := createMobile(t, db, "Apple", "iPhone 15", 999, 10, true)

	_, _ = doJSON(t, router, "POST", "/api/cart/add", token, gin.H{"mobileId": mobileID, "quantity": 1})

	// Price drops after the item was added.
	_, err := db.Exec("UPDATE mobiles SET price = ? WHERE id = ?", 899.0, mobileID)
	require.NoError(t, err)

	w, env := doJSON(t, router, "GET", "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cart struct {
		Total float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Equal(t, 899.0, cart.Total)
}

func TestPlaceOrder_HappyPath(t *testing.T) {
	router, db := setupServer(t)
	token := registerUser(t, router, "buyer@example.com", "customer")
	phoneID := createMobile(t, db, "Apple", "iPhone 15", 999, 10, true)
	tabletID := createMobile(t, db, "Samsung", "Galaxy S24", 899, 5, true)

	_, _ = doJSON(t, router, "POST", "/api/cart/add", token, gin.H{"mobileId": phoneID, "quantity": 2})
	_, _ = doJSON(t, router, "POST", "/api/cart/add", token, gin.H{"mobileId": tabletID, "quantity": 1})

	w, env := doJSON(t, router, "POST", "/api/orders/place", token, gin.H{"shippingAddress": shippingAddress})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, "Order placed successfully", env.Message)

	var order struct {
		OrderNumber string  `json:"orderNumber"`
		Status      string  `json:"status"`
		TotalAmount float64 `json:"totalAmount"`
		Items       []struct {
			Quantity int     `json:"quantity"`
			Price    float64 `json:"price"`
			Subtotal float64 `json:"subtotal"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.NotEmpty(t, order.OrderNumber)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, 999.0*2+899.0, order.TotalAmount)
	assert.Len(t, order.Items, 2)

	// Stock is decremented exactly.
	assert.Equal(t, 8, mobileStock(t, db, phoneID))
	assert.Equal(t, 4, mobileStock(t, db, tabletID))

	// The cart is gone.
	w, env = doJSON(t, router, "GET", "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cart struct {
		Total float64           `json:"total"`
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Total)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	router, _ := setupServer(t)
	token := registerUser(t, router, "empty@example.com", "customer")

	w, env := doJSON(t, router, "POST", "/api/orders/place", token, gin.H{"shippingAddress": shippingAddress})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cart is empty", env.Error)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	router, db := setupServer(t)
	token := registerUser(t, router, "greedy@example.com", "customer")
	mobileID := createMobile(t, db, "Apple", "iPhone 15", 999, 3, true)

	_, _ = doJSON(t, router, "POST", "/api/cart/add", token, gin.H{"mobileId": mobileID, "quantity": 5})

	w, env := doJSON(t, router, "POST", "/api/orders/place", token, gin.H{"shippingAddress": shippingAddress})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Insufficient stock for Apple iPhone 15", env.Error)

	// Nothing was written: stock intact, cart intact, no order row.
	assert.Equal(t, 3, mobileStock(t, db, mobileID))

	var orderCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM orders").Scan(&orderCount))
	assert.Zero(t, orderCount)

	_, env = doJSON(t, router, "GET", "/api/cart", token, nil)
	var cart struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Len(t, cart.Items, 1)
}

func TestPlaceOrder_ConcurrentLastUnit(t *testing.T) {
	router, db := setupServer(t)
	mobileID := createMobile(t, db, "Apple", "iPhone 15", 999, 1, true)

	tokens := []string{
		registerUser(t, router, "racer1@example.com", "customer"),
		registerUser(t, router, "racer2@example.com", "customer"),
	}
	for _, token := range tokens {
		w, _ := doJSON(t, router, "POST", "/api/cart/add", token, gin.H{"mobileId": mobileID, "quantity": 1})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	codes := make([]int, len(tokens))
	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			w, _ := doJSON(t, router, "POST", "/api/orders/place", token, gin.H{"shippingAddress": shippingAddress})
			codes[i] = w.Code
		}(i, token)
	}
	wg.Wait()

	succeeded := 0
	for _, code := range codes {
		if code == http.StatusOK {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one checkout should win the last unit, got codes %v", codes)
	assert.Equal(t, 0, mobileStock(t, db, mobileID))

	var orderCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM orders").Scan(&orderCount))
	assert.Equal(t, 1, orderCount)
}

func TestOrderSnapshotSurvivesCatalogEdits(t *testing.T) {
	router, db := setupServer(t)
	token := registerUser(t, router, "keeper@example.com", "customer")
	mobileID := createMobile(t, db, "Apple", "iPhone 15", 999, 10, true)

	_, _ = doJSON(t, router, "POST", "/api/cart/add", token, gin.H{"mobileId": mobileID, "quantity": 1})
	w, env := doJSON(t, router, "POST", "/api/orders/place", token, gin.H{"shippingAddress": shippingAddress})
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	var placed struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &placed))

	// The catalog moves on after the purchase.
	_, err := db.Exec("UPDATE mobiles SET price = 1299, brand = 'Pineapple' WHERE id = ?", mobileID)
	require.NoError(t, err)

	w, env = doJSON(t, router, "GET", fmt.Sprintf("/api/orders/%d", placed.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var order struct {
		TotalAmount float64 `json:"totalAmount"`
		Items       []struct {
			Mobile struct {
				Brand string `json:"brand"`
			} `json:"mobile"`
			Price float64 `json:"price"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &order))
	require.Len(t, order.Items, 1)
	assert.Equal(t, 999.0, order.TotalAmount)
	assert.Equal(t, 999.0, order.Items[0].Price)
	assert.Equal(t, "Apple", order.Items[0].Mobile.Brand)
}

func TestGetOrder_OwnershipEnforced(t *testing.T) {
	router, db := setupServer(t)
	owner := registerUser(t, router, "owner@example.com", "customer")
	stranger := registerUser(t, router, "stranger@example.com", "customer")
	mobileID := createMobile(t, db, "Apple", "iPhone 15", 999, 10, true)

	_, _ = doJSON(t, router, "POST", "/api/cart/add", owner, gin.H{"mobileId": mobileID, "quantity": 1})
	w, env := doJSON(t, router, "POST", "/api/orders/place", owner, gin.H{"shippingAddress": shippingAddress})
	require.Equal(t, http.StatusOK, w.Code)

	var placed struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &placed))

	w, env = doJSON(t, router, "GET", fmt.Sprintf("/api/orders/%d", placed.ID), stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied", env.Error)
}

func TestAdminOrderLifecycle(t *testing.T) {
	router, db := setupServer(t)
	customer := registerUser(t, router, "customer@example.com", "customer")
	admin := registerUser(t, router, "admin@example.com", "admin")
	mobileID := createMobile(t, db, "Apple", "iPhone 15", 999, 10, true)

	_, _ = doJSON(t, router, "POST", "/api/cart/add", customer, gin.H{"mobileId": mobileID, "quantity": 1})
	w, env := doJSON(t, router, "POST", "/api/orders/place", customer, gin.H{"shippingAddress": shippingAddress})
	require.Equal(t, http.StatusOK, w.Code)

	var placed struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &placed))

	// pending → delivered is not allowed.
	w, env = doJSON(t, router, "PATCH", fmt.Sprintf("/api/admin/orders/deliver/%d", placed.ID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot transition order from 'pending' to 'delivered'", env.Error)

	// pending → accepted → delivered.
	w, _ = doJSON(t, router, "PATCH", fmt.Sprintf("/api/admin/orders/accept/%d", placed.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, "PATCH", fmt.Sprintf("/api/admin/orders/deliver/%d", placed.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// delivered is terminal.
	w, env = doJSON(t, router, "PATCH", fmt.Sprintf("/api/admin/orders/cancel/%d", placed.ID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot transition order from 'delivered' to 'cancelled'", env.Error)

	// Arbitrary status strings are rejected.
	w, env = doJSON(t, router, "PUT", fmt.Sprintf("/api/admin/orders/%d", placed.ID), admin, gin.H{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid status", env.Error)
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	router, _ := setupServer(t)
	customer := registerUser(t, router, "pleb@example.com", "customer")

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/admin/mobiles"},
		{"GET", "/api/admin/orders"},
		{"GET", "/api/admin/users"},
		{"GET", "/api/admin/orders/stats/overview"},
	} {
		w, env := doJSON(t, router, route.method, route.path, customer, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, route.path)
		assert.Equal(t, "Access denied. Insufficient privileges.", env.Error)
	}

	// And reject anonymous callers outright.
	w, _ := doJSON(t, router, "GET", "/api/admin/mobiles", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminStockAndAvailability(t *testing.T) {
	router, db := setupServer(t)
	admin := registerUser(t, router, "stock@example.com", "admin")
	mobileID := createMobile(t, db, "Apple", "iPhone 15", 999, 10, true)

	// Absolute stock write.
	w, env := doJSON(t, router, "PATCH", fmt.Sprintf("/api/admin/mobiles/stock/%d", mobileID), admin, gin.H{"stock": 42})
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, 42, mobileStock(t, db, mobileID))

	// Negative stock rejected.
	w, _ = doJSON(t, router, "PATCH", fmt.Sprintf("/api/admin/mobiles/stock/%d", mobileID), admin, gin.H{"stock": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Availability toggle.
	w, _ = doJSON(t, router, "PATCH", fmt.Sprintf("/api/admin/mobiles/availability/%d", mobileID), admin, gin.H{"isAvailable": false})
	require.Equal(t, http.StatusOK, w.Code)

	var available bool
	require.NoError(t, db.QueryRow("SELECT is_available FROM mobiles WHERE id = ?", mobileID).Scan(&available))
	assert.False(t, available)
}
