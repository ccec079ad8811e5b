package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mobilemart/mobilemart-golang/internal/auth"
	"github.com/mobilemart/mobilemart-golang/internal/models"
)

//
// --- Auth Handlers ---
//

// RegisterInput holds the registration payload. Separate from
// models.User so a client can never supply an id or a password hash.
type RegisterInput struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	Role     string  `json:"role" binding:"omitempty,oneof=customer admin"`
	Phone    *string `json:"phone"`
}

// Register is the handler for POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Name, email, and password are required: "+err.Error())
		return
	}

	// Duplicate email check before the insert so the client gets a
	// clean 400 instead of a unique-key failure.
	var existingID int64
	err := h.DB.QueryRow("SELECT id FROM users WHERE email = ?", input.Email).Scan(&existingID)
	if err == nil {
		respondError(c, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != sql.ErrNoRows {
		respondError(c, http.StatusInternalServerError, "Database error checking email")
		return
	}

	role := input.Role
	if role == "" {
		role = models.RoleCustomer
	}

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	now := time.Now()
	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: password.Hash,
		Role:         role,
		Phone:        input.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	result, err := h.DB.Exec(`
		INSERT INTO users (name, email, password_hash, role, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Name, user.Email, user.PasswordHash, user.Role, user.Phone, now, now)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}
	user.ID, err = result.LastInsertId()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get new user ID")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	// The 'json:"-"' tag keeps the password hash out of the response.
	respondMessage(c, http.StatusCreated, "User registered successfully", gin.H{
		"user":  user,
		"token": token,
	})
}

// LoginInput holds the login payload.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	var user models.User
	err := h.DB.QueryRow(`
		SELECT id, name, email, password_hash, role, phone, created_at, updated_at
		FROM users WHERE email = ?`, input.Email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.Phone, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusUnauthorized, "Invalid credentials. Email not found.")
			return
		}
		respondError(c, http.StatusInternalServerError, "Database error during login")
		return
	}

	password := models.Password{Hash: user.PasswordHash}
	match, err := password.Matches(input.Password)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to verify password")
		return
	}
	if !match {
		respondError(c, http.StatusUnauthorized, "Invalid credentials. Incorrect password.")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondMessage(c, http.StatusOK, "Login successful", gin.H{
		"user":  user,
		"token": token,
	})
}

// GetProfile is the handler for GET /api/auth/profile
func (h *Handlers) GetProfile(c *gin.Context) {
	userID := c.GetInt64("userID")

	var user models.User
	err := h.DB.QueryRow(`
		SELECT id, name, email, role, phone, created_at, updated_at
		FROM users WHERE id = ?`, userID).Scan(
		&user.ID, &user.Name, &user.Email, &user.Role,
		&user.Phone, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	addresses, err := h.queryAddresses(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch addresses")
		return
	}
	user.Addresses = addresses

	respondData(c, http.StatusOK, user)
}

//
// --- Address Sub-Resource ---
//

func (h *Handlers) queryAddresses(userID int64) ([]models.Address, error) {
	rows, err := h.DB.Query(`
		SELECT id, street, city, state, postal_code, country, phone, created_at
		FROM user_addresses WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addresses := []models.Address{}
	for rows.Next() {
		var a models.Address
		var state, postalCode, country, phone sql.NullString
		if err := rows.Scan(&a.ID, &a.Street, &a.City, &state, &postalCode, &country, &phone, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.State = state.String
		a.PostalCode = postalCode.String
		a.Country = country.String
		a.Phone = phone.String
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

// AddAddress is the handler for POST /api/auth/address
func (h *Handlers) AddAddress(c *gin.Context) {
	userID := c.GetInt64("userID")

	var input models.Address
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Address is required: "+err.Error())
		return
	}

	now := time.Now()
	result, err := h.DB.Exec(`
		INSERT INTO user_addresses (user_id, street, city, state, postal_code, country, phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, input.Street, input.City, input.State, input.PostalCode, input.Country, input.Phone, now)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to add address")
		return
	}

	input.ID, _ = result.LastInsertId()
	input.CreatedAt = &now

	respondMessage(c, http.StatusOK, "Address added successfully", input)
}

// GetAddresses is the handler for GET /api/auth/addresses
func (h *Handlers) GetAddresses(c *gin.Context) {
	userID := c.GetInt64("userID")

	addresses, err := h.queryAddresses(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch addresses")
		return
	}

	respondData(c, http.StatusOK, addresses)
}

// DeleteAddress is the handler for DELETE /api/auth/address/:id
func (h *Handlers) DeleteAddress(c *gin.Context) {
	userID := c.GetInt64("userID")
	addressID := c.Param("id")

	// Scoped to the caller so nobody can delete another user's address.
	_, err := h.DB.Exec("DELETE FROM user_addresses WHERE id = ? AND user_id = ?", addressID, userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to delete address")
		return
	}

	respondMessage(c, http.StatusOK, "Address deleted successfully", nil)
}
